package state

import (
	"errors"
	"fmt"

	"github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/transform"
)

// Selection is a selection in a document: a text range with directionality,
// a selected node, or the whole document. Selections are immutable values
// tied to the document they were resolved against.
type Selection interface {
	// From returns the lower bound of the selection.
	From() int
	// To returns the upper bound of the selection.
	To() int
	// Empty reports whether the selection covers no content.
	Empty() bool
	// Eq reports whether this selection equals another.
	Eq(other Selection) bool
	// Map returns the selection moved through a mapping and re-resolved in
	// the given document, falling back to the nearest valid selection when
	// the content it pointed at was deleted.
	Map(doc *model.Node, mapping transform.Mappable) Selection
	// ToJSON returns a JSON-serializable representation of the selection.
	ToJSON() map[string]interface{}
}

// TextSelection is a classical editor selection, with a head (the moving
// side) and anchor (immobile side), both of which point into textblock
// nodes. It can be empty (a regular cursor position).
type TextSelection struct {
	Anchor *model.ResolvedPos
	Head   *model.ResolvedPos
}

// NewTextSelection creates a text selection between the given points. The
// head defaults to the anchor.
func NewTextSelection(anchor *model.ResolvedPos, head ...*model.ResolvedPos) *TextSelection {
	h := anchor
	if len(head) > 0 && head[0] != nil {
		h = head[0]
	}
	return &TextSelection{Anchor: anchor, Head: h}
}

// TextSelectionAt creates a text selection from positions in the given
// document. The head defaults to the anchor.
func TextSelectionAt(doc *model.Node, anchor int, head ...int) (*TextSelection, error) {
	dAnchor, err := doc.Resolve(anchor)
	if err != nil {
		return nil, err
	}
	dHead := dAnchor
	if len(head) > 0 && head[0] != anchor {
		if dHead, err = doc.Resolve(head[0]); err != nil {
			return nil, err
		}
	}
	return NewTextSelection(dAnchor, dHead), nil
}

// From returns the lower of the anchor and head positions.
func (s *TextSelection) From() int {
	return s.Anchor.Min(s.Head).Pos
}

// To returns the higher of the anchor and head positions.
func (s *TextSelection) To() int {
	return s.Anchor.Max(s.Head).Pos
}

// Empty reports whether the anchor and head are at the same position.
func (s *TextSelection) Empty() bool {
	return s.Anchor.Pos == s.Head.Pos
}

// Eq reports whether the other selection is a text selection with the same
// anchor and head.
func (s *TextSelection) Eq(other Selection) bool {
	t, ok := other.(*TextSelection)
	return ok && t.Anchor.Pos == s.Anchor.Pos && t.Head.Pos == s.Head.Pos
}

// Map moves the anchor and head through the mapping. When the head no
// longer points into a textblock, the nearest valid selection around it is
// returned instead.
func (s *TextSelection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	dHead, err := doc.Resolve(mapping.Map(s.Head.Pos))
	if err != nil {
		return NewAllSelection(doc)
	}
	if !dHead.Parent().InlineContent() {
		return selectionNear(doc, dHead, 1)
	}
	dAnchor, err := doc.Resolve(mapping.Map(s.Anchor.Pos))
	if err != nil || !dAnchor.Parent().InlineContent() {
		dAnchor = dHead
	}
	return NewTextSelection(dAnchor, dHead)
}

// ToJSON serializes the selection.
func (s *TextSelection) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"type":   "text",
		"anchor": s.Anchor.Pos,
		"head":   s.Head.Pos,
	}
}

func (s *TextSelection) String() string {
	return fmt.Sprintf("text(%d-%d)", s.Anchor.Pos, s.Head.Pos)
}

// NodeSelection selects a single, whole node. Its From is the position
// before the node, its To the position after it.
type NodeSelection struct {
	Anchor *model.ResolvedPos
	// Node is the selected node.
	Node *model.Node
}

// NodeSelectionAt creates a node selection for the node after the given
// position.
func NodeSelectionAt(doc *model.Node, pos int) (*NodeSelection, error) {
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return nil, err
	}
	node, err := dPos.NodeAfter()
	if err != nil || node == nil {
		return nil, errors.New("No node at the given position")
	}
	if node.IsText() {
		return nil, errors.New("Text nodes cannot be node-selected")
	}
	return &NodeSelection{Anchor: dPos, Node: node}, nil
}

// From returns the position before the selected node.
func (s *NodeSelection) From() int {
	return s.Anchor.Pos
}

// To returns the position after the selected node.
func (s *NodeSelection) To() int {
	return s.Anchor.Pos + s.Node.NodeSize()
}

// Empty is always false for a node selection.
func (s *NodeSelection) Empty() bool {
	return false
}

// Eq reports whether the other selection selects the node at the same
// position.
func (s *NodeSelection) Eq(other Selection) bool {
	n, ok := other.(*NodeSelection)
	return ok && n.Anchor.Pos == s.Anchor.Pos
}

// Map moves the selection through the mapping. When the selected node was
// deleted, or the position no longer points at a selectable node, the
// nearest valid selection is returned instead.
func (s *NodeSelection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	result := mapping.MapResult(s.Anchor.Pos)
	dPos, err := doc.Resolve(result.Pos)
	if err != nil {
		return NewAllSelection(doc)
	}
	if result.Deleted() {
		return selectionNear(doc, dPos, 1)
	}
	node, err := dPos.NodeAfter()
	if err != nil || node == nil || node.IsText() {
		return selectionNear(doc, dPos, 1)
	}
	return &NodeSelection{Anchor: dPos, Node: node}
}

// ToJSON serializes the selection.
func (s *NodeSelection) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"type":   "node",
		"anchor": s.Anchor.Pos,
	}
}

func (s *NodeSelection) String() string {
	return fmt.Sprintf("node(%d)", s.Anchor.Pos)
}

// AllSelection covers the whole document.
type AllSelection struct {
	Doc *model.Node
}

// NewAllSelection creates a selection over the given document.
func NewAllSelection(doc *model.Node) *AllSelection {
	return &AllSelection{Doc: doc}
}

// From is always zero.
func (s *AllSelection) From() int {
	return 0
}

// To returns the size of the document's content.
func (s *AllSelection) To() int {
	return s.Doc.Content.Size
}

// Empty reports whether the document has no content.
func (s *AllSelection) Empty() bool {
	return s.Doc.Content.Size == 0
}

// Eq reports whether the other selection is also an all-selection.
func (s *AllSelection) Eq(other Selection) bool {
	_, ok := other.(*AllSelection)
	return ok
}

// Map returns an all-selection over the new document.
func (s *AllSelection) Map(doc *model.Node, _mapping transform.Mappable) Selection {
	return NewAllSelection(doc)
}

// ToJSON serializes the selection.
func (s *AllSelection) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": "all"}
}

func (s *AllSelection) String() string {
	return "all"
}

// selectionNear finds the closest valid selection to the given position,
// scanning in the bias direction first and the other direction after.
func selectionNear(doc *model.Node, dPos *model.ResolvedPos, bias int) Selection {
	if dPos.Parent().InlineContent() {
		return NewTextSelection(dPos)
	}
	if bias == 0 {
		bias = 1
	}
	for _, dir := range []int{bias, -bias} {
		if found := findTextblock(doc, dPos.Pos, dir); found != nil {
			return NewTextSelection(found)
		}
	}
	return NewAllSelection(doc)
}

func findTextblock(doc *model.Node, from, dir int) *model.ResolvedPos {
	for pos := from; pos >= 0 && pos <= doc.Content.Size; pos += dir {
		d, err := doc.Resolve(pos)
		if err != nil {
			return nil
		}
		if d.Parent().InlineContent() {
			return d
		}
	}
	return nil
}

// SelectionFromJSON deserializes a selection against the given document.
func SelectionFromJSON(doc *model.Node, obj map[string]interface{}) (Selection, error) {
	typ, _ := obj["type"].(string)
	switch typ {
	case "text":
		anchor, ok1 := jsonInt(obj["anchor"])
		head, ok2 := jsonInt(obj["head"])
		if !ok1 || !ok2 {
			return nil, errors.New("Invalid input for TextSelection")
		}
		return TextSelectionAt(doc, anchor, head)
	case "node":
		anchor, ok := jsonInt(obj["anchor"])
		if !ok {
			return nil, errors.New("Invalid input for NodeSelection")
		}
		return NodeSelectionAt(doc, anchor)
	case "all":
		return NewAllSelection(doc), nil
	}
	return nil, errors.New("No selection type " + typ + " defined")
}

func jsonInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

var (
	_ Selection = &TextSelection{}
	_ Selection = &NodeSelection{}
	_ Selection = &AllSelection{}
)
