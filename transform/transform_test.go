package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformDelete(t *testing.T) {
	tr := NewTransform(doc(p("hello world")).Node)
	require.NoError(t, tr.Delete(6, 12))

	assert.True(t, tr.DocChanged())
	assert.Len(t, tr.Steps, 1)
	assert.True(t, tr.Doc.Eq(doc(p("hello")).Node))
	assert.Equal(t, 6, tr.Mapping.Map(12))
	assert.Equal(t, 3, tr.Mapping.Map(3))
}

func TestTransformInsertText(t *testing.T) {
	tr := NewTransform(doc(p("hello")).Node)
	require.NoError(t, tr.InsertText(" world", 6))
	assert.True(t, tr.Doc.Eq(doc(p("hello world")).Node))

	// inserted text picks up the marks at the insertion point
	tr = NewTransform(doc(p(em("foo"))).Node)
	require.NoError(t, tr.InsertText("bar", 4))
	assert.True(t, tr.Doc.Eq(doc(p(em("foobar"))).Node))

	// replacing a range with text
	tr = NewTransform(doc(p("hello world")).Node)
	require.NoError(t, tr.InsertText("there", 7, 12))
	assert.True(t, tr.Doc.Eq(doc(p("hello there")).Node))
}

func TestTransformReplaceWith(t *testing.T) {
	tr := NewTransform(doc(p("one"), p("three")).Node)
	require.NoError(t, tr.ReplaceWith(5, 5, p("two").Node))
	assert.True(t, tr.Doc.Eq(doc(p("one"), p("two"), p("three")).Node))
}

func TestTransformAddMark(t *testing.T) {
	tr := NewTransform(doc(p("hello world")).Node)
	require.NoError(t, tr.AddMark(1, 6, schema.Mark("em")))
	assert.True(t, tr.Doc.Eq(doc(p(em("hello"), " world")).Node))

	// adding a mark that is already there makes no step
	tr = NewTransform(doc(p(em("hello"), " world")).Node)
	require.NoError(t, tr.AddMark(1, 6, schema.Mark("em")))
	assert.False(t, tr.DocChanged())

	// marks span multiple textblocks
	tr = NewTransform(doc(p("one"), p("two")).Node)
	require.NoError(t, tr.AddMark(1, 9, schema.Mark("em")))
	assert.True(t, tr.Doc.Eq(doc(p(em("one")), p(em("two"))).Node))
}

func TestTransformRemoveMark(t *testing.T) {
	tr := NewTransform(doc(p(em("hello"), " world")).Node)
	require.NoError(t, tr.RemoveMark(1, 6, schema.Mark("em")))
	assert.True(t, tr.Doc.Eq(doc(p("hello world")).Node))

	// removing by type
	mt, err := schema.MarkType("em")
	require.NoError(t, err)
	tr = NewTransform(doc(p(em("hello"), " world")).Node)
	require.NoError(t, tr.RemoveMark(1, 6, mt))
	assert.True(t, tr.Doc.Eq(doc(p("hello world")).Node))

	// removing all marks
	tr = NewTransform(doc(p(em("one"), " two ", strong("three"))).Node)
	require.NoError(t, tr.RemoveMark(1, 14))
	assert.True(t, tr.Doc.Eq(doc(p("one two three")).Node))
}

func TestTransformSetNodeAttribute(t *testing.T) {
	tr := NewTransform(doc(h1("heading")).Node)
	require.NoError(t, tr.SetNodeAttribute(0, "level", 2))
	assert.True(t, tr.Doc.Eq(doc(h2("heading")).Node))
}

func TestTransformInvertSteps(t *testing.T) {
	start := doc(p("hello world")).Node
	tr := NewTransform(start)
	require.NoError(t, tr.Delete(6, 12))
	require.NoError(t, tr.InsertText("!", 6))

	back := NewTransform(tr.Doc)
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		require.NoError(t, back.Step(tr.Steps[i].Invert(tr.Docs[i])))
	}
	assert.True(t, back.Doc.Eq(start))
}

func TestTransformBefore(t *testing.T) {
	start := doc(p("ab")).Node
	tr := NewTransform(start)
	assert.Equal(t, start, tr.Before())
	require.NoError(t, tr.InsertText("c", 3))
	assert.Equal(t, start, tr.Before())
	assert.NotEqual(t, start, tr.Doc)
}
