package model

import (
	"fmt"
	"reflect"
)

// A mark is a piece of information that can be attached to a node, such as
// it being emphasized, in code font, or a link. It has a type and optionally
// a set of attributes that provide further information (such as the target
// of the link). Marks are created through a Schema, which controls which
// types exist and which attributes they have.
type Mark struct {
	Type  *MarkType
	Attrs map[string]interface{}
}

// NewMark is the constructor for Mark.
func NewMark(typ *MarkType, attrs map[string]interface{}) *Mark {
	return &Mark{Type: typ, Attrs: attrs}
}

// AddToSet, given a set of marks, creates a new set which contains this one
// as well, in the right position. If this mark is already in the set, the
// set itself is returned. If any marks that are set to be exclusive with
// this mark are present, those are replaced by this one.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	var cpy []*Mark
	placed := false
	for i, other := range set {
		if m.Eq(other) {
			return set
		}
		if m.Type.Excludes(other.Type) {
			if cpy == nil {
				cpy = make([]*Mark, i, len(set)+1)
				copy(cpy, set[:i])
			}
		} else if other.Type.Excludes(m.Type) {
			return set
		} else {
			if !placed && other.Type.Rank > m.Type.Rank {
				if cpy == nil {
					cpy = make([]*Mark, i, len(set)+1)
					copy(cpy, set[:i])
				}
				cpy = append(cpy, m)
				placed = true
			}
			if cpy != nil {
				cpy = append(cpy, other)
			}
		}
	}
	if cpy == nil {
		cpy = make([]*Mark, len(set), len(set)+1)
		copy(cpy, set)
	}
	if !placed {
		cpy = append(cpy, m)
	}
	return cpy
}

// RemoveFromSet removes this mark from the given set, returning a new set.
// If this mark is not in the set, the set itself is returned.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			cpy := make([]*Mark, len(set)-1)
			copy(cpy[:i], set[:i])
			copy(cpy[i:], set[i+1:])
			return cpy
		}
	}
	return set
}

// IsInSet tests whether this mark is in the given set of marks.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// Eq tests whether this mark has the same type and attributes as another
// mark.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	if m.Type != other.Type {
		return false
	}
	if len(m.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range m.Attrs {
		if !reflect.DeepEqual(other.Attrs[k], v) {
			return false
		}
	}
	return true
}

// ToJSON converts this mark to a JSON-serializable representation.
func (m *Mark) ToJSON() map[string]interface{} {
	obj := map[string]interface{}{"type": m.Type.Name}
	if len(m.Attrs) > 0 {
		obj["attrs"] = m.Attrs
	}
	return obj
}

// MarkFromJSON deserializes a mark from its JSON representation.
func MarkFromJSON(schema *Schema, raw interface{}) (*Mark, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Invalid input for Mark.fromJSON: %v", raw)
	}
	name, ok := obj["type"].(string)
	if !ok {
		return nil, fmt.Errorf("Invalid mark type: %v", obj["type"])
	}
	typ, err := schema.MarkType(name)
	if err != nil {
		return nil, err
	}
	attrs, _ := obj["attrs"].(map[string]interface{})
	return typ.Create(attrs), nil
}

// SameMarkSet tests whether two sets of marks are identical.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

func sameMarks(a, b []*Mark) bool {
	return SameMarkSet(a, b)
}

// MarkSetFrom creates a properly sorted mark set from nil, a single mark, or
// an unsorted array of marks.
func MarkSetFrom(marks ...interface{}) []*Mark {
	if len(marks) == 0 {
		return NoMarks
	}
	switch ms := marks[0].(type) {
	case nil:
		return NoMarks
	case *Mark:
		return []*Mark{ms}
	case []*Mark:
		if len(ms) == 0 {
			return NoMarks
		}
		set := []*Mark{}
		for _, m := range ms {
			set = m.AddToSet(set)
		}
		return set
	}
	return NoMarks
}

// NoMarks is the empty set of marks.
var NoMarks = []*Mark{}
