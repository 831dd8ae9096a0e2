// Package state implements the editor state: an immutable value holding a
// document, a selection, and per-plugin derived state, advanced only by
// applying transactions.
package state

import (
	"errors"

	"github.com/fieldmark/fieldmark/model"
)

// Config describes how to create an editor state.
type Config struct {
	// Doc is the starting document.
	Doc *model.Node
	// Selection is the starting selection. Defaults to the start of the
	// document.
	Selection Selection
	// StoredMarks are the initial stored marks.
	StoredMarks []*model.Mark
	// Plugins are consulted in the order given here, for state fields,
	// transaction filtering and appending, and prop resolution.
	Plugins []*Plugin
}

// EditorState is the complete state of an editor. It is immutable; Apply
// returns a new state and leaves the receiver untouched.
type EditorState struct {
	// Doc is the current document.
	Doc *model.Node
	// Selection is the current selection.
	Selection Selection
	// StoredMarks are the marks to apply to the next input, set for
	// example after toggling a mark style with a collapsed selection.
	StoredMarks []*model.Mark
	// Plugins are the active plugins, in registration order.
	Plugins []*Plugin

	fields map[*PluginKey]interface{}
}

// NewEditorState creates a state from the given configuration, running
// every plugin's state init.
func NewEditorState(config Config) (*EditorState, error) {
	if config.Doc == nil {
		return nil, errors.New("A document is required to create a state")
	}
	selection := config.Selection
	if selection == nil {
		d, err := config.Doc.Resolve(0)
		if err != nil {
			return nil, err
		}
		selection = selectionNear(config.Doc, d, 1)
	}
	state := &EditorState{
		Doc:         config.Doc,
		Selection:   selection,
		StoredMarks: config.StoredMarks,
		Plugins:     config.Plugins,
		fields:      map[*PluginKey]interface{}{},
	}
	for _, plugin := range config.Plugins {
		if plugin.key.Get(state) != plugin {
			return nil, errors.New("Adding different instances of an existing plugin (" + plugin.key.Name + ")")
		}
		if plugin.Spec.State != nil && plugin.Spec.State.Init != nil {
			state.fields[plugin.key] = plugin.Spec.State.Init(config, state)
		}
	}
	return state, nil
}

// Schema returns the schema of the state's document.
func (s *EditorState) Schema() *model.Schema {
	return s.Doc.Type.Schema
}

// Tr returns a new transaction starting from this state.
func (s *EditorState) Tr() *Transaction {
	return NewTransaction(s)
}

// Field returns the plugin state stored under the given key, or nil when
// the key is not registered.
func (s *EditorState) Field(key *PluginKey) interface{} {
	return s.fields[key]
}

// Apply applies a transaction, returning a new state. When a plugin's
// filter rejects the transaction the current state is returned unchanged.
// Transactions appended by plugins are merged into the result.
func (s *EditorState) Apply(tr *Transaction) (*EditorState, error) {
	next, _, err := s.ApplyTransaction(tr)
	return next, err
}

// ApplyTransaction is like Apply, but additionally returns the
// transactions that were actually applied: the root transaction followed by
// everything the plugins appended. A filtered transaction yields the
// receiver and no applied transactions.
func (s *EditorState) ApplyTransaction(rootTr *Transaction) (*EditorState, []*Transaction, error) {
	if !s.filterTransaction(rootTr, -1) {
		return s, nil, nil
	}
	newState, err := s.applyInner(rootTr)
	if err != nil {
		return nil, nil, err
	}
	trs := []*Transaction{rootTr}
	seen := make([]int, len(s.Plugins))
	for {
		haveNew := false
		for i, plugin := range s.Plugins {
			if plugin.Spec.AppendTransaction == nil || seen[i] >= len(trs) {
				continue
			}
			appended := plugin.Spec.AppendTransaction(trs[seen[i]:], s, newState)
			seen[i] = len(trs)
			if appended == nil || !newState.filterTransaction(appended, i) {
				continue
			}
			if newState, err = newState.applyInner(appended); err != nil {
				return nil, nil, err
			}
			trs = append(trs, appended)
			haveNew = true
		}
		if !haveNew {
			return newState, trs, nil
		}
	}
}

// filterTransaction runs the plugins' filters in registration order. The
// first rejecting filter wins. The plugin at the ignore index (the one that
// appended the transaction) is skipped.
func (s *EditorState) filterTransaction(tr *Transaction, ignore int) bool {
	for i, plugin := range s.Plugins {
		if i == ignore || plugin.Spec.FilterTransaction == nil {
			continue
		}
		if !plugin.Spec.FilterTransaction(tr, s) {
			return false
		}
	}
	return true
}

func (s *EditorState) applyInner(tr *Transaction) (*EditorState, error) {
	if !tr.Before().Eq(s.Doc) {
		return nil, errors.New("Applying a mismatched transaction")
	}
	newState := &EditorState{
		Doc:       tr.Doc,
		Selection: tr.Selection(),
		Plugins:   s.Plugins,
		fields:    make(map[*PluginKey]interface{}, len(s.fields)),
	}
	if tr.StoredMarksSet() {
		newState.StoredMarks = tr.StoredMarks()
	} else if !tr.DocChanged() && !tr.SelectionSet() {
		newState.StoredMarks = s.StoredMarks
	}
	for k, v := range s.fields {
		newState.fields[k] = v
	}
	for _, plugin := range s.Plugins {
		if plugin.Spec.State != nil && plugin.Spec.State.Apply != nil {
			newState.fields[plugin.key] = plugin.Spec.State.Apply(tr, s.fields[plugin.key], s, newState)
		}
	}
	return newState, nil
}
