package transform

import "fmt"

// Mappable is an interface. There are several things that positions can be
// mapped through. Such objects conform to this interface.
type Mappable interface {
	// Map a position through this object. When given, assoc (should be -1 or
	// 1, defaults to 1) determines with which side the position is associated,
	// which determines in which direction to move when a chunk of content is
	// inserted at the mapped position.
	Map(pos int, assoc ...int) int

	// MapResult maps a position, and returns an object containing additional
	// information about the mapping. The result's deleted field tells you
	// whether the position was deleted (completely enclosed in a replaced
	// range) during the mapping. When content on only one side is deleted, the
	// position itself is only considered deleted when assoc points in the
	// direction of the deleted content.
	MapResult(pos int, assoc ...int) *MapResult
}

// Recovery values encode a range index and an offset into that range. They
// are used to talk about positions inside a replaced range, so that a
// mirrored map can restore such a position on its corresponding range.
const lower16 = 0xffff
const factor16 = 1 << 16

func makeRecover(index, offset int) int { return index + offset*factor16 }
func recoverIndex(value int) int        { return value & lower16 }
func recoverOffset(value int) int       { return (value - (value & lower16)) / factor16 }

const (
	delBefore = 1
	delAfter  = 2
	delAcross = 4
	delSide   = 8
)

// MapResult is an object representing a mapped position with extra
// information.
type MapResult struct {
	// The mapped version of the position.
	Pos int

	delInfo int
	recover *int
}

// Deleted tells you whether the position was deleted, that is, whether the
// step removed the token on the side queried (via the assoc) argument from
// the document.
func (r *MapResult) Deleted() bool { return r.delInfo&delSide > 0 }

// DeletedBefore tells you whether the token before the mapped position was
// deleted.
func (r *MapResult) DeletedBefore() bool { return r.delInfo&(delBefore|delAcross) > 0 }

// DeletedAfter tells you whether the token after the mapped position was
// deleted.
func (r *MapResult) DeletedAfter() bool { return r.delInfo&(delAfter|delAcross) > 0 }

// DeletedAcross tells you whether the position was deleted, alongside tokens
// on both sides of it.
func (r *MapResult) DeletedAcross() bool { return r.delInfo&delAcross > 0 }

// StepMap is a map describing the deletions and insertions made by a step,
// which can be used to find the correspondence between positions in the
// pre-step version of a document and the same position in the post-step
// version.
type StepMap struct {
	Ranges   []int
	Inverted bool
}

// NewStepMap creates a position map. The modifications to the document are
// represented as an array of numbers, in which each group of three represents
// a modified chunk as [start, oldSize, newSize].
func NewStepMap(ranges []int, inverted ...bool) *StepMap {
	inv := false
	if len(inverted) > 0 {
		inv = inverted[0]
	}
	return &StepMap{Ranges: ranges, Inverted: inv}
}

// MapResult is part of the Mappable interface.
func (sm *StepMap) MapResult(pos int, assoc ...int) *MapResult {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	_, result := sm.mapInner(pos, a, false)
	return result
}

// Map is part of the Mappable interface.
func (sm *StepMap) Map(pos int, assoc ...int) int {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	mapped, _ := sm.mapInner(pos, a, true)
	return mapped
}

func (sm *StepMap) mapInner(pos, assoc int, simple bool) (int, *MapResult) {
	diff := 0
	oldIndex, newIndex := 1, 2
	if sm.Inverted {
		oldIndex, newIndex = 2, 1
	}
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		if sm.Inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize := sm.Ranges[i+oldIndex]
		newSize := sm.Ranges[i+newIndex]
		end := start + oldSize
		if pos <= end {
			var side int
			switch {
			case oldSize == 0:
				side = assoc
			case pos == start:
				side = -1
			case pos == end:
				side = 1
			default:
				side = assoc
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			if simple {
				return result, nil
			}
			recoverAt := end
			if assoc < 0 {
				recoverAt = start
			}
			var recover *int
			if pos != recoverAt {
				value := makeRecover(i/3, pos-start)
				recover = &value
			}
			del := delAcross
			if pos == start {
				del = delAfter
			} else if pos == end {
				del = delBefore
			}
			if assoc < 0 && pos != start || assoc >= 0 && pos != end {
				del |= delSide
			}
			return 0, &MapResult{Pos: result, delInfo: del, recover: recover}
		}
		diff += newSize - oldSize
	}
	if simple {
		return pos + diff, nil
	}
	return 0, &MapResult{Pos: pos + diff}
}

// Recover maps a recovery value back to the position inside this map's
// corresponding range.
func (sm *StepMap) Recover(value int) int {
	diff := 0
	index := recoverIndex(value)
	if !sm.Inverted {
		for i := 0; i < index; i++ {
			diff += sm.Ranges[i*3+2] - sm.Ranges[i*3+1]
		}
	}
	return sm.Ranges[index*3] + diff + recoverOffset(value)
}

// Touches reports whether the position falls inside the range that produced
// the given recovery value.
func (sm *StepMap) Touches(pos, recover int) bool {
	diff := 0
	index := recoverIndex(recover)
	oldIndex, newIndex := 1, 2
	if sm.Inverted {
		oldIndex, newIndex = 2, 1
	}
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		if sm.Inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize := sm.Ranges[i+oldIndex]
		end := start + oldSize
		if pos <= end && i == index*3 {
			return true
		}
		diff += sm.Ranges[i+newIndex] - oldSize
	}
	return false
}

// ForEach calls the given function on each of the changed ranges included in
// this map.
func (sm *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	oldIndex, newIndex := 1, 2
	if sm.Inverted {
		oldIndex, newIndex = 2, 1
	}
	diff := 0
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		oldStart, newStart := start, start
		if sm.Inverted {
			oldStart -= diff
		} else {
			newStart += diff
		}
		oldSize := sm.Ranges[i+oldIndex]
		newSize := sm.Ranges[i+newIndex]
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// Invert creates an inverted version of this map. The result can be used to
// map positions in the post-step document to the pre-step document.
func (sm *StepMap) Invert() *StepMap {
	return NewStepMap(sm.Ranges, !sm.Inverted)
}

// String returns a string representation of this StepMap.
func (sm *StepMap) String() string {
	prefix := ""
	if sm.Inverted {
		prefix = "-"
	}
	return fmt.Sprintf("%s%v", prefix, sm.Ranges)
}

// EmptyStepMap is an empty StepMap.
var EmptyStepMap = NewStepMap(nil)

// Mapping is a pipeline of zero or more StepMaps. It has special provisions
// for losslessly handling mapping positions through a series of steps in
// which some steps are inverted versions of earlier steps (when rebasing
// steps for collaboration or history management).
type Mapping struct {
	// The step maps in this mapping.
	Maps []*StepMap
	// The starting position in Maps, used when Map or MapResult are called.
	From int
	// The end position in Maps.
	To int

	mirror []int
}

// NewMapping creates a new mapping with the given position maps.
func NewMapping(maps ...[]*StepMap) *Mapping {
	var ms []*StepMap
	if len(maps) > 0 {
		ms = maps[0]
	}
	return &Mapping{Maps: ms, From: 0, To: len(ms)}
}

// Slice creates a mapping that maps only through a part of this one. The
// optional bounds are the start index (default 0) and end index (default
// the number of maps).
func (m *Mapping) Slice(bounds ...int) *Mapping {
	from := 0
	if len(bounds) > 0 {
		from = bounds[0]
	}
	to := len(m.Maps)
	if len(bounds) > 1 {
		to = bounds[1]
	}
	return &Mapping{Maps: m.Maps, mirror: m.mirror, From: from, To: to}
}

// AppendMap adds a step map to the end of this mapping. If mirrors is given,
// it should be the index of the step map that is the mirror image of this
// one.
func (m *Mapping) AppendMap(sm *StepMap, mirrors ...int) {
	m.Maps = append(m.Maps, sm)
	m.To = len(m.Maps)
	if len(mirrors) > 0 {
		m.SetMirror(len(m.Maps)-1, mirrors[0])
	}
}

// AppendMapping adds all the step maps in a given mapping to this one, with
// the same mirroring information.
func (m *Mapping) AppendMapping(other *Mapping) {
	startSize := len(m.Maps)
	for i := 0; i < len(other.Maps); i++ {
		if mirr, ok := other.GetMirror(i); ok && mirr < i {
			m.AppendMap(other.Maps[i], startSize+mirr)
		} else {
			m.AppendMap(other.Maps[i])
		}
	}
}

// GetMirror finds the offset of the step map that mirrors the map at the
// given offset, if any.
func (m *Mapping) GetMirror(n int) (int, bool) {
	for i := 0; i < len(m.mirror); i++ {
		if m.mirror[i] == n {
			if i%2 == 1 {
				return m.mirror[i-1], true
			}
			return m.mirror[i+1], true
		}
	}
	return 0, false
}

// SetMirror declares the maps at the two given offsets to be mirror images of
// each other.
func (m *Mapping) SetMirror(n, mirror int) {
	m.mirror = append(m.mirror, n, mirror)
}

// AppendMappingInverted appends the inverse of the given mapping to this one.
func (m *Mapping) AppendMappingInverted(other *Mapping) {
	totalSize := len(m.Maps) + len(other.Maps)
	for i := len(other.Maps) - 1; i >= 0; i-- {
		if mirr, ok := other.GetMirror(i); ok && mirr > i {
			m.AppendMap(other.Maps[i].Invert(), totalSize-mirr-1)
		} else {
			m.AppendMap(other.Maps[i].Invert())
		}
	}
}

// Invert creates an inverted version of this mapping.
func (m *Mapping) Invert() *Mapping {
	inverse := NewMapping()
	inverse.AppendMappingInverted(m)
	return inverse
}

// Map is part of the Mappable interface.
func (m *Mapping) Map(pos int, assoc ...int) int {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	mapped, _ := m.mapInner(pos, a, true)
	return mapped
}

// MapResult is part of the Mappable interface.
func (m *Mapping) MapResult(pos int, assoc ...int) *MapResult {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	_, result := m.mapInner(pos, a, false)
	return result
}

func (m *Mapping) mapInner(pos, assoc int, simple bool) (int, *MapResult) {
	delInfo := 0
	for i := m.From; i < m.To; i++ {
		result := m.Maps[i].MapResult(pos, assoc)
		if result.recover != nil {
			// A position inside a mirrored deletion is restored on the
			// map that reinserts the content, instead of being treated
			// as lost.
			if corr, ok := m.GetMirror(i); ok && corr > i && corr < m.To {
				pos = m.Maps[corr].Recover(*result.recover)
				i = corr
				continue
			}
		}
		delInfo |= result.delInfo
		pos = result.Pos
	}
	if simple {
		return pos, nil
	}
	return 0, &MapResult{Pos: pos, delInfo: delInfo}
}

var (
	_ Mappable = &StepMap{}
	_ Mappable = &Mapping{}
)
