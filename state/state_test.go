package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldmark/fieldmark/model"
)

func mkState(t *testing.T, d *model.Node, plugins ...*Plugin) *EditorState {
	t.Helper()
	st, err := NewEditorState(Config{Doc: d, Plugins: plugins})
	require.NoError(t, err)
	return st
}

func counterPlugin(key *PluginKey) *Plugin {
	return NewPlugin(PluginSpec{
		Key: key,
		State: &StateField{
			Init: func(_ Config, _ *EditorState) interface{} { return 0 },
			Apply: func(tr *Transaction, value interface{}, _, _ *EditorState) interface{} {
				if tr.DocChanged() {
					return value.(int) + 1
				}
				return value
			},
		},
	})
}

func TestNewEditorState(t *testing.T) {
	st := mkState(t, doc(p("hello")).Node)

	// the default selection is a cursor at the start of the first textblock
	sel, ok := st.Selection.(*TextSelection)
	require.True(t, ok)
	assert.True(t, sel.Empty())
	assert.Equal(t, 1, sel.Head.Pos)
	assert.Equal(t, schema, st.Schema())

	_, err := NewEditorState(Config{})
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	st := mkState(t, doc(p("hello")).Node)
	tr := st.Tr()
	require.NoError(t, tr.InsertText(" world", 6))

	next, err := st.Apply(tr)
	require.NoError(t, err)
	assert.True(t, next.Doc.Eq(doc(p("hello world")).Node))
	assert.True(t, st.Doc.Eq(doc(p("hello")).Node))
}

func TestApplyNoOp(t *testing.T) {
	key := NewPluginKey("counter")
	st := mkState(t, doc(p("hello")).Node, counterPlugin(key))

	next, err := st.Apply(st.Tr())
	require.NoError(t, err)
	assert.True(t, next.Doc.Eq(st.Doc))
	assert.True(t, next.Selection.Eq(st.Selection))
	assert.Equal(t, 0, key.GetState(next))
}

func TestApplyMismatched(t *testing.T) {
	st := mkState(t, doc(p("a")).Node)
	tr := st.Tr()
	require.NoError(t, tr.InsertText("b", 2))

	next, err := st.Apply(tr)
	require.NoError(t, err)

	// the same transaction cannot be applied to the state it produced
	_, err = next.Apply(tr)
	assert.Error(t, err)
}

func TestPluginState(t *testing.T) {
	key := NewPluginKey("counter")
	st := mkState(t, doc(p("hello")).Node, counterPlugin(key))
	assert.Equal(t, 0, key.GetState(st))

	tr := st.Tr()
	require.NoError(t, tr.InsertText("!", 6))
	next, err := st.Apply(tr)
	require.NoError(t, err)
	assert.Equal(t, 1, key.GetState(next))
	assert.Equal(t, 0, key.GetState(st))

	// lookups by an unregistered key return absent
	assert.Nil(t, NewPluginKey("other").GetState(next))
	assert.Nil(t, NewPluginKey("other").Get(next))
}

func TestFilterTransaction(t *testing.T) {
	filter := NewPlugin(PluginSpec{
		FilterTransaction: func(tr *Transaction, _ *EditorState) bool {
			return tr.GetMeta("blocked") == nil
		},
	})
	st := mkState(t, doc(p("hello")).Node, filter)

	tr := st.Tr().SetMeta("blocked", true)
	require.NoError(t, tr.InsertText("!", 6))
	next, applied, err := st.ApplyTransaction(tr)
	require.NoError(t, err)
	assert.Equal(t, st, next)
	assert.Empty(t, applied)

	tr = st.Tr()
	require.NoError(t, tr.InsertText("!", 6))
	next, applied, err = st.ApplyTransaction(tr)
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.True(t, next.Doc.Eq(doc(p("hello!")).Node))
}

func TestAppendTransaction(t *testing.T) {
	appender := NewPlugin(PluginSpec{
		AppendTransaction: func(trs []*Transaction, _, newState *EditorState) *Transaction {
			for _, tr := range trs {
				if tr.DocChanged() && tr.GetMeta("appended") == nil {
					extra := NewTransaction(newState)
					if extra.InsertText("!", newState.Doc.Content.Size-1) != nil {
						return nil
					}
					return extra.SetMeta("appended", true)
				}
			}
			return nil
		},
	})
	st := mkState(t, doc(p("hi")).Node, appender)

	tr := st.Tr()
	require.NoError(t, tr.InsertText("?", 3))
	next, applied, err := st.ApplyTransaction(tr)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
	assert.True(t, next.Doc.Eq(doc(p("hi?!")).Node))

	// a transaction that does not change the document appends nothing
	next, applied, err = st.ApplyTransaction(st.Tr())
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.True(t, next.Doc.Eq(st.Doc))
}

func TestStoredMarks(t *testing.T) {
	st := mkState(t, doc(p("hello")).Node)

	tr := st.Tr().SetStoredMarks([]*model.Mark{schema.Mark("em")})
	next, err := st.Apply(tr)
	require.NoError(t, err)
	assert.Len(t, next.StoredMarks, 1)

	// changing the document clears stored marks that were not re-set
	tr = next.Tr()
	require.NoError(t, tr.InsertText("!", 6))
	after, err := next.Apply(tr)
	require.NoError(t, err)
	assert.Empty(t, after.StoredMarks)
}
