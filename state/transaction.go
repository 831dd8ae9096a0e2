package state

import (
	"time"

	"github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/transform"
)

// Transaction is a transform with editor state attached: the selection it
// produces, the stored marks for the next typed text, a timestamp, and a
// string-keyed metadata table for communication between plugins. Like the
// transform it embeds, a transaction is a mutable builder; applying it to a
// state produces new immutable values.
type Transaction struct {
	*transform.Transform
	// Time is the timestamp associated with this transaction, in
	// milliseconds.
	Time int64

	curSelection Selection
	// The step count for which the current selection is valid.
	curSelectionFor int
	selectionSet    bool
	storedMarks     []*model.Mark
	storedMarksSet  bool
	meta            map[string]interface{}
}

// NewTransaction creates a transaction starting from the given state.
func NewTransaction(state *EditorState) *Transaction {
	return &Transaction{
		Transform:    transform.NewTransform(state.Doc),
		Time:         time.Now().UnixMilli(),
		curSelection: state.Selection,
		storedMarks:  state.StoredMarks,
	}
}

// Selection returns the transaction's current selection, which starts as
// the selection of the state it was created from and is mapped forward
// through each step as they are added.
func (tr *Transaction) Selection() Selection {
	if tr.curSelectionFor < len(tr.Steps) {
		tr.curSelection = tr.curSelection.Map(tr.Doc, tr.Mapping.Slice(tr.curSelectionFor))
		tr.curSelectionFor = len(tr.Steps)
	}
	return tr.curSelection
}

// SetSelection replaces the selection. This also clears any stored marks.
func (tr *Transaction) SetSelection(selection Selection) *Transaction {
	tr.curSelection = selection
	tr.curSelectionFor = len(tr.Steps)
	tr.selectionSet = true
	tr.storedMarks = nil
	tr.storedMarksSet = false
	return tr
}

// SelectionSet reports whether the selection was explicitly set, as opposed
// to being mapped forward from the start state.
func (tr *Transaction) SelectionSet() bool {
	return tr.selectionSet
}

// SetStoredMarks replaces the stored marks, the marks that the next
// inserted text will get.
func (tr *Transaction) SetStoredMarks(marks []*model.Mark) *Transaction {
	tr.storedMarks = marks
	tr.storedMarksSet = true
	return tr
}

// StoredMarks returns the transaction's stored marks.
func (tr *Transaction) StoredMarks() []*model.Mark {
	return tr.storedMarks
}

// StoredMarksSet reports whether the stored marks were explicitly set.
func (tr *Transaction) StoredMarksSet() bool {
	return tr.storedMarksSet
}

// SetTime updates the transaction's timestamp.
func (tr *Transaction) SetTime(t int64) *Transaction {
	tr.Time = t
	return tr
}

// SetMeta stores a metadata property under the given name.
func (tr *Transaction) SetMeta(key string, value interface{}) *Transaction {
	if tr.meta == nil {
		tr.meta = map[string]interface{}{}
	}
	tr.meta[key] = value
	return tr
}

// GetMeta retrieves a metadata property. Unset properties return nil.
func (tr *Transaction) GetMeta(key string) interface{} {
	return tr.meta[key]
}
