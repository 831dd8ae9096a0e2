package model

import (
	"fmt"
	"strings"
)

// A fragment represents a node's collection of child nodes.
//
// Like nodes, fragments are persistent data structures, and you should not
// mutate them or their content. Rather, you create new instances whenever
// needed. The API tries to make this easy.
type Fragment struct {
	Content []*Node
	Size    int
}

// NewFragment is the constructor for Fragment. The size is computed from the
// content when not given.
func NewFragment(content []*Node, size ...int) *Fragment {
	f := &Fragment{Content: content}
	if len(size) > 0 {
		f.Size = size[0]
	} else {
		for _, node := range content {
			f.Size += node.NodeSize()
		}
	}
	return f
}

// The number of child nodes in this fragment.
func (f *Fragment) ChildCount() int {
	return len(f.Content)
}

// Child gets the child node at the given index. Returns an error when the
// index is out of range.
func (f *Fragment) Child(index int) (*Node, error) {
	if index < 0 || index >= len(f.Content) {
		return nil, fmt.Errorf("Index %d out of range for %v", index, f)
	}
	return f.Content[index], nil
}

// MaybeChild gets the child node at the given index, if it exists.
func (f *Fragment) MaybeChild(index int) *Node {
	if index < 0 || index >= len(f.Content) {
		return nil
	}
	return f.Content[index]
}

// FirstChild returns the first child of the fragment, or nil if it is empty.
func (f *Fragment) FirstChild() *Node {
	if len(f.Content) == 0 {
		return nil
	}
	return f.Content[0]
}

// LastChild returns the last child of the fragment, or nil if it is empty.
func (f *Fragment) LastChild() *Node {
	if len(f.Content) == 0 {
		return nil
	}
	return f.Content[len(f.Content)-1]
}

// NBCallback is the type of the callbacks given to NodesBetween.
type NBCallback func(node *Node, pos int, parent *Node, index int) bool

// NodesBetween invokes a callback for all descendant nodes between the given
// two positions (relative to start of this fragment). Doesn't descend into a
// node when the callback returns false.
func (f *Fragment) NodesBetween(from, to int, fn NBCallback, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; pos < to && i < len(f.Content); i++ {
		child := f.Content[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent, i) && child.Content.Size > 0 {
			start := pos + 1
			min := from - start
			if min < 0 {
				min = 0
			}
			max := child.Content.Size
			if to-start < max {
				max = to - start
			}
			child.Content.NodesBetween(min, max, fn, nodeStart+start, child)
		}
		pos = end
	}
}

// TextBetween extracts the text between from and to. The first optional
// argument is the block separator, inserted when a new block node is started.
// The second is the leaf text, inserted for every non-text leaf node
// encountered.
func (f *Fragment) TextBetween(from, to int, args ...string) string {
	blockSeparator := ""
	if len(args) > 0 {
		blockSeparator = args[0]
	}
	leafText := ""
	if len(args) > 1 {
		leafText = args[1]
	}
	var text strings.Builder
	separated := true
	f.NodesBetween(from, to, func(node *Node, pos int, _ *Node, _ int) bool {
		switch {
		case node.IsText():
			start := from - pos
			if start < 0 {
				start = 0
			}
			end := to - pos
			if end > len(*node.Text) {
				end = len(*node.Text)
			}
			text.WriteString((*node.Text)[start:end])
			separated = blockSeparator == ""
		case node.IsLeaf() && leafText != "":
			text.WriteString(leafText)
			separated = blockSeparator == ""
		case !separated && node.IsBlock():
			text.WriteString(blockSeparator)
			separated = true
		}
		return true
	}, 0, nil)
	return text.String()
}

// ForEach calls the given callback for every child node. The callback is
// passed the node, its offset into this parent node, and its index.
func (f *Fragment) ForEach(fn func(node *Node, offset, index int)) {
	pos := 0
	for i, child := range f.Content {
		fn(child, pos, i)
		pos += child.NodeSize()
	}
}

// Append creates a new fragment containing the combined content of this
// fragment and the other. Adjacent text nodes with the same markup are
// joined.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.Size == 0 {
		return f
	}
	if f.Size == 0 {
		return other
	}
	last := f.LastChild()
	first := other.FirstChild()
	content := make([]*Node, len(f.Content), len(f.Content)+len(other.Content))
	copy(content, f.Content)
	i := 0
	if last.IsText() && last.SameMarkup(first) {
		content[len(content)-1] = last.WithText(*last.Text + *first.Text)
		i = 1
	}
	content = append(content, other.Content[i:]...)
	return NewFragment(content, f.Size+other.Size)
}

// Cut out the sub-fragment between the two given positions.
func (f *Fragment) Cut(from int, to ...int) *Fragment {
	t := f.Size
	if len(to) > 0 {
		t = to[0]
	}
	if from == 0 && t == f.Size {
		return f
	}
	var result []*Node
	size := 0
	if t <= from {
		return NewFragment(result, 0)
	}
	pos := 0
	for i := 0; pos < t && i < len(f.Content); i++ {
		child := f.Content[i]
		end := pos + child.NodeSize()
		if end > from {
			if pos < from || end > t {
				if child.IsText() {
					cutFrom := 0
					if from > pos {
						cutFrom = from - pos
					}
					cutTo := child.NodeSize()
					if t-pos < cutTo {
						cutTo = t - pos
					}
					child = child.Cut(cutFrom, cutTo)
				} else {
					cutFrom := 0
					if from > pos+1 {
						cutFrom = from - pos - 1
					}
					cutTo := child.Content.Size
					if t < end-1 {
						cutTo = t - pos - 1
					}
					child = child.Cut(cutFrom, cutTo)
				}
			}
			result = append(result, child)
			size += child.NodeSize()
		}
		pos = end
	}
	return NewFragment(result, size)
}

// CutByIndex cuts this fragment on the given child indexes.
func (f *Fragment) CutByIndex(from, to int) *Fragment {
	if from == to {
		return EmptyFragment
	}
	if from == 0 && to == len(f.Content) {
		return f
	}
	return NewFragment(f.Content[from:to])
}

// ReplaceChild creates a new fragment in which the node at the given index is
// replaced by the given node.
func (f *Fragment) ReplaceChild(index int, node *Node) *Fragment {
	current := f.Content[index]
	if current == node {
		return f
	}
	content := make([]*Node, len(f.Content))
	copy(content, f.Content)
	size := f.Size + node.NodeSize() - current.NodeSize()
	content[index] = node
	return NewFragment(content, size)
}

// AddToStart creates a new fragment by prepending the given node to this
// fragment.
func (f *Fragment) AddToStart(node *Node) *Fragment {
	content := make([]*Node, 0, len(f.Content)+1)
	content = append(content, node)
	content = append(content, f.Content...)
	return NewFragment(content, f.Size+node.NodeSize())
}

// AddToEnd creates a new fragment by appending the given node to this
// fragment.
func (f *Fragment) AddToEnd(node *Node) *Fragment {
	content := make([]*Node, 0, len(f.Content)+1)
	content = append(content, f.Content...)
	content = append(content, node)
	return NewFragment(content, f.Size+node.NodeSize())
}

// Eq compares this fragment to another one.
func (f *Fragment) Eq(other *Fragment) bool {
	if len(f.Content) != len(other.Content) {
		return false
	}
	for i, child := range f.Content {
		if !child.Eq(other.Content[i]) {
			return false
		}
	}
	return true
}

// findIndex gets the child index and inner offset corresponding to a given
// relative position in this fragment. A position at the boundary between two
// children belongs to the later child; when round is 1, a position inside a
// child is also rounded up to the next boundary.
func (f *Fragment) findIndex(pos int, round ...int) (int, int, error) {
	r := -1
	if len(round) > 0 {
		r = round[0]
	}
	if pos == 0 {
		return 0, pos, nil
	}
	if pos == f.Size {
		return len(f.Content), pos, nil
	}
	if pos > f.Size || pos < 0 {
		return 0, 0, fmt.Errorf("Position %d outside of fragment (%v)", pos, f)
	}
	curPos := 0
	for i := 0; ; i++ {
		cur := f.Content[i]
		end := curPos + cur.NodeSize()
		if end >= pos {
			if end == pos || r > 0 {
				return i + 1, end, nil
			}
			return i, curPos, nil
		}
		curPos = end
	}
}

// FindDiffStart finds the first position at which this fragment and another
// fragment differ, or nil if they are the same.
func (f *Fragment) FindDiffStart(other *Fragment, pos ...int) *int {
	p := 0
	if len(pos) > 0 {
		p = pos[0]
	}
	return findDiffStart(f, other, p)
}

// FindDiffEnd finds the first position, searching from the end, at which this
// fragment and the given fragment differ, or nil if they are the same. Since
// this position will not be the same in both nodes, an object with two
// separate positions is returned.
func (f *Fragment) FindDiffEnd(other *Fragment, pos ...int) *DiffEnd {
	posA := f.Size
	posB := other.Size
	if len(pos) > 0 {
		posA = pos[0]
	}
	if len(pos) > 1 {
		posB = pos[1]
	}
	return findDiffEnd(f, other, posA, posB)
}

// String returns a debugging string that describes this fragment.
func (f *Fragment) String() string {
	return fmt.Sprintf("<%s>", f.toStringInner())
}

func (f *Fragment) toStringInner() string {
	parts := make([]string, len(f.Content))
	for i, node := range f.Content {
		parts[i] = node.String()
	}
	return strings.Join(parts, ", ")
}

// ToJSON creates a JSON-serializable representation of this fragment.
func (f *Fragment) ToJSON() interface{} {
	if len(f.Content) == 0 {
		return nil
	}
	content := make([]interface{}, len(f.Content))
	for i, node := range f.Content {
		content[i] = node.ToJSON()
	}
	return content
}

// FragmentFromJSON deserializes a fragment from its JSON representation.
func FragmentFromJSON(schema *Schema, value interface{}) (*Fragment, error) {
	if value == nil {
		return EmptyFragment, nil
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("Invalid input for Fragment.fromJSON: %v", value)
	}
	content := make([]*Node, len(raw))
	for i, item := range raw {
		node, err := NodeFromJSON(schema, item)
		if err != nil {
			return nil, err
		}
		content[i] = node
	}
	return NewFragment(content), nil
}

// FragmentFromArray builds a fragment from an array of nodes. Ensures that
// adjacent text nodes with the same marks are joined together.
func FragmentFromArray(array []*Node) *Fragment {
	if len(array) == 0 {
		return EmptyFragment
	}
	var joined []*Node
	size := 0
	for i, node := range array {
		size += node.NodeSize()
		if i > 0 && node.IsText() && array[i-1].SameMarkup(node) {
			if joined == nil {
				joined = make([]*Node, i)
				copy(joined, array[:i])
			}
			last := joined[len(joined)-1]
			joined[len(joined)-1] = last.WithText(*last.Text + *node.Text)
		} else if joined != nil {
			joined = append(joined, node)
		}
	}
	if joined == nil {
		joined = array
	}
	return NewFragment(joined, size)
}

// FragmentFrom creates a fragment from something that can be interpreted as
// a set of nodes: nil, a fragment, a node, or an array of nodes.
func FragmentFrom(nodes interface{}) (*Fragment, error) {
	switch nodes := nodes.(type) {
	case nil:
		return EmptyFragment, nil
	case *Fragment:
		return nodes, nil
	case []*Node:
		return FragmentFromArray(nodes), nil
	case *Node:
		return NewFragment([]*Node{nodes}, nodes.NodeSize()), nil
	}
	return nil, fmt.Errorf("Can not convert %v to a Fragment", nodes)
}

// EmptyFragment is an empty fragment.
var EmptyFragment = &Fragment{Content: nil, Size: 0}
