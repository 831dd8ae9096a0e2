package transform

import (
	"errors"

	"github.com/fieldmark/fieldmark/model"
)

// Transform is an accumulator for steps applied to one document, keeping
// the resulting document, the steps themselves, the documents they produced,
// and the position mapping composed of their step maps.
type Transform struct {
	// The current document (the result of applying the steps).
	Doc *model.Node
	// The steps in this transform.
	Steps []Step
	// The documents before each of the steps.
	Docs []*model.Node
	// A mapping with the maps for each of the steps in this transform.
	Mapping *Mapping
}

// NewTransform creates a transform that starts with the given document.
func NewTransform(doc *model.Node) *Transform {
	return &Transform{Doc: doc, Mapping: NewMapping()}
}

// Before returns the starting document.
func (tr *Transform) Before() *model.Node {
	if len(tr.Docs) > 0 {
		return tr.Docs[0]
	}
	return tr.Doc
}

// DocChanged reports whether the document has been changed (when there are
// any steps).
func (tr *Transform) DocChanged() bool {
	return len(tr.Steps) > 0
}

// Step applies a new step in this transform, saving the result. Returns an
// error when the step fails.
func (tr *Transform) Step(step Step) error {
	result := tr.MaybeStep(step)
	if result.Failed != "" {
		return errors.New(result.Failed)
	}
	return nil
}

// MaybeStep tries to apply a step in this transformation, ignoring it if it
// fails. Returns the step result.
func (tr *Transform) MaybeStep(step Step) StepResult {
	result := step.Apply(tr.Doc)
	if result.Failed == "" {
		tr.addStep(step, result.Doc)
	}
	return result
}

func (tr *Transform) addStep(step Step, doc *model.Node) {
	tr.Docs = append(tr.Docs, tr.Doc)
	tr.Steps = append(tr.Steps, step)
	tr.Mapping.AppendMap(step.GetMap())
	tr.Doc = doc
}

// Replace replaces the part of the document between from and to with the
// given slice. The optional arguments are the end of the replaced range
// (defaults to from) and the slice to replace it with (defaults to the empty
// slice).
func (tr *Transform) Replace(from int, args ...interface{}) error {
	to := from
	slice := model.EmptySlice
	if len(args) > 0 {
		if t, ok := args[0].(int); ok {
			to = t
		}
	}
	if len(args) > 1 {
		if s, ok := args[1].(*model.Slice); ok && s != nil {
			slice = s
		}
	}
	if from == to && slice.Size() == 0 {
		return nil
	}
	return tr.Step(NewReplaceStep(from, to, slice))
}

// ReplaceWith replaces the given range with the given content, which may be
// a fragment, node, or array of nodes.
func (tr *Transform) ReplaceWith(from, to int, content interface{}) error {
	fragment, err := model.FragmentFrom(content)
	if err != nil {
		return err
	}
	return tr.Replace(from, to, model.NewSlice(fragment, 0, 0))
}

// Delete deletes the content between the given positions.
func (tr *Transform) Delete(from, to int) error {
	return tr.Replace(from, to, model.EmptySlice)
}

// Insert inserts the given content at the given position.
func (tr *Transform) Insert(pos int, content interface{}) error {
	return tr.ReplaceWith(pos, pos, content)
}

// InsertText inserts a text node with the given string at the given range,
// inheriting the marks of the content being replaced.
func (tr *Transform) InsertText(text string, from int, to ...int) error {
	t := from
	if len(to) > 0 {
		t = to[0]
	}
	if text == "" {
		return tr.Delete(from, t)
	}
	schema := tr.Doc.Type.Schema
	dfrom, err := tr.Doc.Resolve(from)
	if err != nil {
		return err
	}
	node := schema.Text(text, dfrom.Marks())
	return tr.ReplaceWith(from, t, node)
}

// AddMark adds the given mark to the inline content between from and to.
// Marks that the new mark replaces in its exclusion group are removed first.
func (tr *Transform) AddMark(from, to int, mark *model.Mark) error {
	var removed, added []Step
	var removing *RemoveMarkStep
	var adding *AddMarkStep
	tr.Doc.NodesBetween(from, to, func(node *model.Node, pos int, parent *model.Node, _index int) bool {
		if !node.IsInline() {
			return true
		}
		marks := node.Marks
		if mark.IsInSet(marks) || (parent != nil && !parent.Type.AllowsMarkType(mark.Type)) {
			return true
		}
		start, end := pos, pos+node.NodeSize()
		if from > start {
			start = from
		}
		if to < end {
			end = to
		}
		newSet := mark.AddToSet(marks)
		for _, m := range marks {
			if m.IsInSet(newSet) {
				continue
			}
			if removing != nil && removing.To == start && removing.Mark.Eq(m) {
				removing.To = end
			} else {
				removing = NewRemoveMarkStep(start, end, m)
				removed = append(removed, removing)
			}
		}
		if adding != nil && adding.To == start {
			adding.To = end
		} else {
			adding = NewAddMarkStep(start, end, mark)
			added = append(added, adding)
		}
		return true
	})
	for _, step := range removed {
		if err := tr.Step(step); err != nil {
			return err
		}
	}
	for _, step := range added {
		if err := tr.Step(step); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMark removes marks from the inline content between from and to. The
// optional argument controls which marks: a *model.Mark removes that mark, a
// *model.MarkType removes all marks of that type, and leaving it off removes
// all marks.
func (tr *Transform) RemoveMark(from, to int, mark ...interface{}) error {
	var which interface{}
	if len(mark) > 0 {
		which = mark[0]
	}
	type matchedMark struct {
		mark *model.Mark
		from int
		to   int
		step int
	}
	var matched []*matchedMark
	step := 0
	tr.Doc.NodesBetween(from, to, func(node *model.Node, pos int, _parent *model.Node, _index int) bool {
		if !node.IsInline() {
			return true
		}
		step++
		var toRemove []*model.Mark
		switch m := which.(type) {
		case *model.MarkType:
			set := node.Marks
			for found := m.IsInSet(set); found != nil; found = m.IsInSet(set) {
				toRemove = append(toRemove, found)
				set = found.RemoveFromSet(set)
			}
		case *model.Mark:
			if m.IsInSet(node.Marks) {
				toRemove = append(toRemove, m)
			}
		default:
			toRemove = node.Marks
		}
		if len(toRemove) == 0 {
			return true
		}
		end := pos + node.NodeSize()
		if to < end {
			end = to
		}
		for _, style := range toRemove {
			var found *matchedMark
			for _, m := range matched {
				if m.step == step-1 && style.Eq(m.mark) {
					found = m
				}
			}
			if found != nil {
				found.to = end
				found.step = step
			} else {
				start := pos
				if from > start {
					start = from
				}
				matched = append(matched, &matchedMark{mark: style, from: start, to: end, step: step})
			}
		}
		return true
	})
	for _, m := range matched {
		if err := tr.Step(NewRemoveMarkStep(m.from, m.to, m.mark)); err != nil {
			return err
		}
	}
	return nil
}

// SetNodeAttribute changes the value of the named attribute on the node at
// the given position.
func (tr *Transform) SetNodeAttribute(pos int, name string, value interface{}) error {
	return tr.Step(NewSetAttrsStep(pos, map[string]interface{}{name: value}))
}
