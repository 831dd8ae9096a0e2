package model

import (
	"fmt"
	"reflect"
)

// This class represents a node in the tree that makes up a document. So a
// document is an instance of Node, with children that are also instances of
// Node.
//
// Nodes are persistent data structures. Instead of changing them, you create
// new ones with the content you want. Old ones keep pointing at the old
// document shape. This is made cheaper by sharing structure between the old
// and new data as much as possible, which a tree shape like this (without back
// pointers) makes easy.
//
// Do not directly mutate the properties of a Node object.
type Node struct {
	// The type of node that this is.
	Type *NodeType
	// An object mapping attribute names to values. The kind of attributes
	// allowed and required are determined by the node type.
	Attrs map[string]interface{}
	// A container holding the node's children.
	Content *Fragment
	// For text nodes, this contains the node's text content.
	Text *string
	// The marks (things like whether it is emphasized or part of a link)
	// applied to this node.
	Marks []*Mark
}

// NewNode is the constructor for Node.
func NewNode(typ *NodeType, attrs map[string]interface{}, content *Fragment, marks []*Mark) *Node {
	if content == nil {
		content = EmptyFragment
	}
	if marks == nil {
		marks = NoMarks
	}
	return &Node{Type: typ, Attrs: attrs, Content: content, Marks: marks}
}

// NewTextNode is the constructor for text nodes.
func NewTextNode(typ *NodeType, attrs map[string]interface{}, text string, marks []*Mark) *Node {
	if marks == nil {
		marks = NoMarks
	}
	return &Node{Type: typ, Attrs: attrs, Text: &text, Content: EmptyFragment, Marks: marks}
}

// NodeSize returns the size of this node, as defined by the integer-based
// indexing scheme. For text nodes, this is the amount of characters. For
// other leaf nodes, it is one. For non-leaf nodes, it is the size of the
// content plus two (the start and end token).
func (n *Node) NodeSize() int {
	if n.IsText() {
		return len(*n.Text)
	}
	if n.IsLeaf() {
		return 1
	}
	return 2 + n.Content.Size
}

// ChildCount returns the number of children that the node has.
func (n *Node) ChildCount() int {
	return n.Content.ChildCount()
}

// Child gets the child node at the given index. Returns an error when the
// index is out of range.
func (n *Node) Child(index int) (*Node, error) {
	return n.Content.Child(index)
}

// MaybeChild gets the child node at the given index, if it exists.
func (n *Node) MaybeChild(index int) *Node {
	return n.Content.MaybeChild(index)
}

// FirstChild returns the first child of the node, or nil if there are no
// children.
func (n *Node) FirstChild() *Node {
	return n.Content.FirstChild()
}

// LastChild returns the last child of the node, or nil if there are no
// children.
func (n *Node) LastChild() *Node {
	return n.Content.LastChild()
}

// NodesBetween invokes a callback for all descendant nodes recursively
// between the given two positions that are relative to start of this node's
// content. The callback is invoked with the node, its parent-relative
// position, its parent node, and its child index. When the callback returns
// false for a given node, that node's children will not be recursed over. The
// last parameter can be used to specify a starting position to count from.
func (n *Node) NodesBetween(from, to int, fn NBCallback, startPos ...int) {
	s := 0
	if len(startPos) > 0 {
		s = startPos[0]
	}
	n.Content.NodesBetween(from, to, fn, s, n)
}

// ForEach calls the given callback for every direct child node.
func (n *Node) ForEach(fn func(node *Node, offset, index int)) {
	n.Content.ForEach(fn)
}

// Descendants calls the given callback for every descendant node.
func (n *Node) Descendants(fn NBCallback) {
	n.NodesBetween(0, n.Content.Size, fn)
}

// TextContent concatenates all the text nodes found in this fragment and its
// children.
func (n *Node) TextContent() string {
	if n.IsText() {
		return *n.Text
	}
	return n.TextBetween(0, n.Content.Size, "")
}

// TextBetween gets all text between positions from and to. When
// blockSeparator is given, it will be inserted whenever a new block node is
// started. When leafText is given, it'll be inserted for every non-text leaf
// node encountered.
func (n *Node) TextBetween(from, to int, args ...string) string {
	if n.IsText() {
		return (*n.Text)[from:to]
	}
	return n.Content.TextBetween(from, to, args...)
}

// Eq tests whether two nodes represent the same piece of document.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if n.IsText() != other.IsText() {
		return false
	}
	if n.IsText() && *n.Text != *other.Text {
		return false
	}
	return n.SameMarkup(other) && n.Content.Eq(other.Content)
}

// SameMarkup compares the markup (type, attributes, and marks) of this node
// to those of another. Returns true if both have the same markup.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.Type, other.Attrs, other.Marks)
}

// HasMarkup checks whether this node's markup correspond to the given type,
// attributes, and marks.
// :: (NodeType, ?Object, ?[Mark]) → bool
func (n *Node) HasMarkup(typ *NodeType, args ...interface{}) bool {
	if n.Type != typ {
		return false
	}
	var attrs map[string]interface{}
	if len(args) > 0 {
		attrs, _ = args[0].(map[string]interface{})
	} else {
		attrs = typ.DefaultAttrs
	}
	if !reflect.DeepEqual(n.Attrs, attrs) {
		return false
	}
	marks := NoMarks
	if len(args) > 1 {
		marks, _ = args[1].([]*Mark)
	}
	return SameMarkSet(n.Marks, marks)
}

// Copy creates a new node with the same markup as this node, containing the
// given content (or empty, if no content is given).
func (n *Node) Copy(content ...*Fragment) *Node {
	c := EmptyFragment
	if len(content) > 0 {
		c = content[0]
	}
	return NewNode(n.Type, n.Attrs, c, n.Marks)
}

// Mark creates a copy of this node, with the given set of marks instead of
// the node's own marks.
func (n *Node) Mark(marks []*Mark) *Node {
	if sameMarks(n.Marks, marks) {
		return n
	}
	if n.IsText() {
		return NewTextNode(n.Type, n.Attrs, *n.Text, marks)
	}
	return NewNode(n.Type, n.Attrs, n.Content, marks)
}

// Cut creates a copy of this node with only the content between the given
// positions. If to is not given, it defaults to the end of the node.
func (n *Node) Cut(from int, to ...int) *Node {
	if n.IsText() {
		t := len(*n.Text)
		if len(to) > 0 {
			t = to[0]
		}
		if from == 0 && t == len(*n.Text) {
			return n
		}
		return n.WithText((*n.Text)[from:t])
	}
	if len(to) == 0 {
		return n.Copy(n.Content.Cut(from))
	}
	t := to[0]
	if from == 0 && t == n.Content.Size {
		return n
	}
	return n.Copy(n.Content.Cut(from, t))
}

// Slice cuts out the part of the document between the given positions, and
// returns it as a Slice object.
func (n *Node) Slice(from int, args ...interface{}) (*Slice, error) {
	to := n.Content.Size
	if len(args) > 0 {
		if t, ok := args[0].(int); ok {
			to = t
		}
	}
	includeParents := false
	if len(args) > 1 {
		includeParents, _ = args[1].(bool)
	}
	if from == to {
		return EmptySlice, nil
	}
	dFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	dTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	depth := 0
	if !includeParents {
		depth = dFrom.SharedDepth(to)
	}
	start := dFrom.Start(depth)
	node := dFrom.Node(depth)
	content := node.Content.Cut(dFrom.Pos-start, dTo.Pos-start)
	return NewSlice(content, dFrom.Depth-depth, dTo.Depth-depth), nil
}

// Replace the part of the document between the given positions with the given
// slice. The slice must 'fit', meaning its open sides must be able to connect
// to the surrounding content, and its content nodes must be valid children
// for the node they are placed into. If any of this is violated, an error of
// type ReplaceError is returned.
func (n *Node) Replace(from, to int, slice *Slice) (*Node, error) {
	dFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	dTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replace(dFrom, dTo, slice)
}

// NodeAt finds the node directly after the given position.
func (n *Node) NodeAt(pos int) *Node {
	node := n
	for {
		index, offset, err := node.Content.findIndex(pos)
		if err != nil {
			return nil
		}
		node = node.MaybeChild(index)
		if node == nil {
			return nil
		}
		if offset == pos || node.IsText() {
			return node
		}
		pos -= offset + 1
	}
}

// ChildAfter finds the (direct) child node after the given offset, if any,
// and returns it along with its index and offset relative to this node.
func (n *Node) ChildAfter(pos int) (*Node, int, int) {
	index, offset, err := n.Content.findIndex(pos)
	if err != nil {
		return nil, 0, 0
	}
	return n.Content.MaybeChild(index), index, offset
}

// ChildBefore finds the (direct) child node before the given offset, if any,
// and returns it along with its index and offset relative to this node.
func (n *Node) ChildBefore(pos int) (*Node, int, int) {
	if pos == 0 {
		return nil, 0, 0
	}
	index, offset, err := n.Content.findIndex(pos)
	if err != nil {
		return nil, 0, 0
	}
	if offset < pos {
		return n.Content.MaybeChild(index), index, offset
	}
	node := n.Content.MaybeChild(index - 1)
	if node == nil {
		return nil, 0, 0
	}
	return node, index - 1, offset - node.NodeSize()
}

// Resolve the given position in the document, returning a struct with
// information about its context.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	return resolvePosCached(n, pos)
}

func (n *Node) resolveNoCache(pos int) (*ResolvedPos, error) {
	return resolvePos(n, pos)
}

// RangeHasMark tests whether a mark of the given type occurs in this document
// between the two given positions.
func (n *Node) RangeHasMark(from, to int, markType *MarkType) bool {
	found := false
	if to > from {
		n.NodesBetween(from, to, func(node *Node, _ int, _ *Node, _ int) bool {
			if markType.IsInSet(node.Marks) != nil {
				found = true
			}
			return !found
		})
	}
	return found
}

// IsBlock is true when this is a block (non-inline node).
func (n *Node) IsBlock() bool {
	return n.Type.IsBlock()
}

// IsTextblock is true when this is a textblock node, a block node with inline
// content.
func (n *Node) IsTextblock() bool {
	return n.Type.IsTextblock()
}

// InlineContent is true when this node allows inline content.
func (n *Node) InlineContent() bool {
	return n.Type.InlineContent
}

// IsInline is true when this is an inline node (a text node or a node that
// can appear among text).
func (n *Node) IsInline() bool {
	return n.Type.IsInline()
}

// IsText is true when this is a text node.
func (n *Node) IsText() bool {
	return n.Text != nil
}

// IsLeaf is true when this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Type.IsLeaf()
}

// IsAtom is true when this is an atom, i.e. when it does not have directly
// editable content.
func (n *Node) IsAtom() bool {
	return n.Type.IsAtom()
}

// WithText returns this node with another text when this is a text node, or
// just this node.
func (n *Node) WithText(text string) *Node {
	if text == *n.Text {
		return n
	}
	return NewTextNode(n.Type, n.Attrs, text, n.Marks)
}

// ContentMatchAt gets the content match in this node at the given index.
func (n *Node) ContentMatchAt(index int) (*ContentMatch, error) {
	match := n.Type.ContentMatch.MatchFragment(n.Content, 0, index)
	if match == nil {
		return nil, fmt.Errorf("Called contentMatchAt on a node with invalid content")
	}
	return match, nil
}

// CanReplace tests whether replacing the range between from and to (by child
// index) with the given replacement fragment (which defaults to the empty
// fragment) would leave the node's content valid. You can optionally pass
// start and end indices into the replacement fragment.
func (n *Node) CanReplace(from, to int, args ...interface{}) bool {
	replacement := EmptyFragment
	if len(args) > 0 {
		if f, ok := args[0].(*Fragment); ok {
			replacement = f
		}
	}
	start := 0
	if len(args) > 1 {
		start, _ = args[1].(int)
	}
	end := replacement.ChildCount()
	if len(args) > 2 {
		end, _ = args[2].(int)
	}
	match, err := n.ContentMatchAt(from)
	if err != nil {
		return false
	}
	one := match.MatchFragment(replacement, start, end)
	var two *ContentMatch
	if one != nil {
		two = one.MatchFragment(n.Content, to)
	}
	if two == nil || !two.ValidEnd {
		return false
	}
	for i := start; i < end; i++ {
		child, err := replacement.Child(i)
		if err != nil {
			return false
		}
		if !n.Type.AllowsMarks(child.Marks) {
			return false
		}
	}
	return true
}

// CanReplaceWith tests whether replacing the range from to to (by index) with
// a node of the given type would leave the node's content valid.
func (n *Node) CanReplaceWith(from, to int, typ *NodeType, marks []*Mark) bool {
	if marks != nil && !n.Type.AllowsMarks(marks) {
		return false
	}
	start, err := n.ContentMatchAt(from)
	if err != nil {
		return false
	}
	one := start.MatchType(typ)
	var end *ContentMatch
	if one != nil {
		end = one.MatchFragment(n.Content, to)
	}
	return end != nil && end.ValidEnd
}

// CanAppend tests whether the given node's content could be appended to this
// node. If that node is empty, this will only return true if there is at
// least one node type that can appear in both nodes (to avoid merging
// completely incompatible nodes).
func (n *Node) CanAppend(other *Node) bool {
	if other.Content.Size > 0 {
		return n.CanReplace(n.ChildCount(), n.ChildCount(), other.Content)
	}
	return n.Type.compatibleContent(other.Type)
}

// Check the node for content validity, returning an error when a problem is
// found.
func (n *Node) Check() error {
	if !n.Type.ValidContent(n.Content) {
		return fmt.Errorf("Invalid content for node %s: %s", n.Type.Name, n.Content.String())
	}
	copied := NoMarks
	for _, mark := range n.Marks {
		copied = mark.AddToSet(copied)
	}
	if !SameMarkSet(copied, n.Marks) {
		return fmt.Errorf("Invalid collection of marks for node %s", n.Type.Name)
	}
	for _, child := range n.Content.Content {
		if err := child.Check(); err != nil {
			return err
		}
	}
	return nil
}

// String returns a string representation of this node for debugging purposes.
func (n *Node) String() string {
	if n.Type.Spec.ToDebugString != nil {
		return n.Type.Spec.ToDebugString(n)
	}
	name := n.Type.Name
	if n.IsText() {
		name = fmt.Sprintf("%q", *n.Text)
	} else if n.Content.Size > 0 {
		name += fmt.Sprintf("(%s)", n.Content.toStringInner())
	}
	return wrapMarks(n.Marks, name)
}

// ToJSON converts this node to a JSON-serializable representation.
func (n *Node) ToJSON() map[string]interface{} {
	obj := map[string]interface{}{"type": n.Type.Name}
	if len(n.Attrs) > 0 {
		obj["attrs"] = n.Attrs
	}
	if content := n.Content.ToJSON(); content != nil {
		obj["content"] = content
	}
	if n.IsText() {
		obj["text"] = *n.Text
	}
	if len(n.Marks) > 0 {
		marks := make([]interface{}, len(n.Marks))
		for i, mark := range n.Marks {
			marks[i] = mark.ToJSON()
		}
		obj["marks"] = marks
	}
	return obj
}

// NodeFromJSON deserializes a node from its JSON representation.
func NodeFromJSON(schema *Schema, raw interface{}) (*Node, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Invalid input for Node.fromJSON: %v", raw)
	}
	var marks []*Mark
	if rawMarks, ok := obj["marks"]; ok {
		items, ok := rawMarks.([]interface{})
		if !ok {
			return nil, fmt.Errorf("Invalid mark data for Node.fromJSON: %v", rawMarks)
		}
		for _, item := range items {
			mark, err := MarkFromJSON(schema, item)
			if err != nil {
				return nil, err
			}
			marks = append(marks, mark)
		}
	}
	if obj["type"] == "text" {
		text, ok := obj["text"].(string)
		if !ok {
			return nil, fmt.Errorf("Invalid text node in JSON")
		}
		return schema.Text(text, marks), nil
	}
	content, err := FragmentFromJSON(schema, obj["content"])
	if err != nil {
		return nil, err
	}
	name, _ := obj["type"].(string)
	typ, err := schema.NodeType(name)
	if err != nil {
		return nil, err
	}
	attrs, _ := obj["attrs"].(map[string]interface{})
	return typ.Create(attrs, content, marks)
}

func wrapMarks(marks []*Mark, str string) string {
	for i := len(marks) - 1; i >= 0; i-- {
		str = fmt.Sprintf("%s(%s)", marks[i].Type.Name, str)
	}
	return str
}
