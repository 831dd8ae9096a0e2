package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldmark/fieldmark/model"
)

func TestSchemaConstructs(t *testing.T) {
	schema, err := model.NewSchema(&model.SchemaSpec{Nodes: Nodes, Marks: Marks})
	require.NoError(t, err)
	require.NotNil(t, schema)
	require.NotNil(t, Schema)

	// the inline group members must actually be inline, or textblock
	// content expressions fail to compile
	for _, name := range []string{"text", "image", "hard_break"} {
		typ, err := schema.NodeType(name)
		require.NoError(t, err)
		assert.True(t, typ.IsInline(), name)
	}

	para, err := schema.NodeType("paragraph")
	require.NoError(t, err)
	assert.True(t, para.IsTextblock())
	assert.True(t, para.InlineContent)

	for _, name := range []string{"link", "em", "strong", "code"} {
		_, err := schema.MarkType(name)
		assert.NoError(t, err, name)
	}
}
