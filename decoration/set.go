package decoration

import (
	"sort"

	"github.com/fieldmark/fieldmark/transform"
)

// Set is an immutable, sorted collection of decorations. The zero value and
// Empty are both usable empty sets.
type Set struct {
	decorations []*Decoration
}

// Empty is the shared empty set.
var Empty = &Set{}

// NewSet creates a set containing the given decorations.
func NewSet(decorations ...*Decoration) *Set {
	if len(decorations) == 0 {
		return Empty
	}
	list := make([]*Decoration, len(decorations))
	copy(list, decorations)
	sortDecorations(list)
	return &Set{decorations: list}
}

func sortDecorations(list []*Decoration) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].From != list[j].From {
			return list[i].From < list[j].From
		}
		return list[i].To < list[j].To
	})
}

// Size returns the number of decorations in the set.
func (s *Set) Size() int {
	if s == nil {
		return 0
	}
	return len(s.decorations)
}

// Find returns the decorations intersecting the given range, in document
// order. With no arguments it returns every decoration in the set.
func (s *Set) Find(span ...int) []*Decoration {
	if s == nil || len(s.decorations) == 0 {
		return nil
	}
	from, to := 0, int(^uint(0)>>1)
	if len(span) > 0 {
		from = span[0]
	}
	if len(span) > 1 {
		to = span[1]
	}
	var found []*Decoration
	for _, d := range s.decorations {
		if d.From > to {
			break
		}
		if d.To >= from {
			found = append(found, d)
		}
	}
	return found
}

// Add returns a set that additionally contains the given decorations.
func (s *Set) Add(decorations ...*Decoration) *Set {
	if len(decorations) == 0 {
		return s
	}
	if s.Size() == 0 {
		return NewSet(decorations...)
	}
	list := make([]*Decoration, 0, len(s.decorations)+len(decorations))
	list = append(list, s.decorations...)
	list = append(list, decorations...)
	sortDecorations(list)
	return &Set{decorations: list}
}

// Remove returns a set without any decoration equal to one of the given
// decorations.
func (s *Set) Remove(decorations ...*Decoration) *Set {
	if s.Size() == 0 || len(decorations) == 0 {
		return s
	}
	var list []*Decoration
	for _, d := range s.decorations {
		removed := false
		for _, r := range decorations {
			if d.Eq(r) {
				removed = true
				break
			}
		}
		if !removed {
			list = append(list, d)
		}
	}
	if len(list) == len(s.decorations) {
		return s
	}
	if len(list) == 0 {
		return Empty
	}
	return &Set{decorations: list}
}

// Map moves every decoration in the set through the mapping. Decorations
// whose anchors were deleted are dropped, inline decorations that partly
// survive are truncated to the surviving range.
func (s *Set) Map(mapping transform.Mappable) *Set {
	if s.Size() == 0 {
		return s
	}
	var list []*Decoration
	for _, d := range s.decorations {
		if mapped := d.Map(mapping); mapped != nil {
			list = append(list, mapped)
		}
	}
	if len(list) == 0 {
		return Empty
	}
	sortDecorations(list)
	return &Set{decorations: list}
}

// Union combines several sets into one.
func Union(sets ...*Set) *Set {
	var nonEmpty []*Set
	for _, s := range sets {
		if s.Size() > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return Empty
	case 1:
		return nonEmpty[0]
	}
	var list []*Decoration
	for _, s := range nonEmpty {
		list = append(list, s.decorations...)
	}
	sortDecorations(list)
	return &Set{decorations: list}
}
