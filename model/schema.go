package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AttributeSpec is used to define attributes on nodes or marks.
type AttributeSpec struct {
	// The default value for this attribute, to use when no explicit value is
	// provided. Attributes that have no default must be provided whenever a
	// node or mark of a type that has them is created.
	Default interface{} `json:"default,omitempty"`
}

// Attribute is a descriptor of an attribute on a node or mark type, compiled
// from an AttributeSpec.
type Attribute struct {
	Default    interface{}
	HasDefault bool
}

func (a *Attribute) isRequired() bool {
	return !a.HasDefault
}

func initAttrs(attrs map[string]*AttributeSpec) map[string]*Attribute {
	result := map[string]*Attribute{}
	for name, attr := range attrs {
		result[name] = &Attribute{Default: attr.Default, HasDefault: attr.Default != nil}
	}
	return result
}

func defaultAttrs(attrs map[string]*Attribute) map[string]interface{} {
	defaults := map[string]interface{}{}
	for name, attr := range attrs {
		defaults[name] = attr.Default
	}
	return defaults
}

func computeAttrs(attrs map[string]*Attribute, value map[string]interface{}) map[string]interface{} {
	built := map[string]interface{}{}
	for name, attr := range attrs {
		if given, ok := value[name]; ok {
			built[name] = given
		} else {
			built[name] = attr.Default
		}
	}
	return built
}

// NodeType objects are allocated once per Schema and are used to tag Node
// instances. They contain information about the node type, such as its name
// and what kind of node it represents.
type NodeType struct {
	// The name the node type has in this schema.
	Name string
	// A link back to the Schema the node type belongs to.
	Schema *Schema
	// The spec that this type is based on.
	Spec *NodeSpec
	// The set of group names this node type belongs to.
	Groups []string
	// The attributes allowed on nodes of this type.
	Attrs map[string]*Attribute
	// The default attributes, used when creating a node without explicit
	// attribute values.
	DefaultAttrs map[string]interface{}
	// The starting match of the node type's content expression.
	ContentMatch *ContentMatch
	// True if this node type has inline content.
	InlineContent bool
	// The set of marks allowed in this node. nil means all marks are allowed.
	MarkSet []*MarkType
}

// NewNodeType is the constructor for NodeType.
func NewNodeType(name string, schema *Schema, spec *NodeSpec) *NodeType {
	attrs := initAttrs(spec.Attrs)
	return &NodeType{
		Name:         name,
		Schema:       schema,
		Spec:         spec,
		Groups:       strings.Fields(spec.Group),
		Attrs:        attrs,
		DefaultAttrs: defaultAttrs(attrs),
	}
}

// IsInline is true if this is an inline type.
func (nt *NodeType) IsInline() bool {
	return !nt.IsBlock()
}

// IsBlock is true if this is a block type.
func (nt *NodeType) IsBlock() bool {
	return !nt.Spec.Inline && nt.Name != "text"
}

// IsText is true if this is the text node type.
func (nt *NodeType) IsText() bool {
	return nt.Name == "text"
}

// IsTextblock is true for block types with inline content.
func (nt *NodeType) IsTextblock() bool {
	return nt.IsBlock() && nt.InlineContent
}

// IsLeaf is true for node types that allow no content.
func (nt *NodeType) IsLeaf() bool {
	return nt.ContentMatch == EmptyContentMatch
}

// IsAtom is true when this node is an atom, i.e. when its content should be
// treated as a single unit.
func (nt *NodeType) IsAtom() bool {
	return nt.IsLeaf() || nt.Spec.Atom
}

// HasRequiredAttrs tells you whether this node type has any required
// attributes.
func (nt *NodeType) HasRequiredAttrs() bool {
	for _, attr := range nt.Attrs {
		if attr.isRequired() {
			return true
		}
	}
	return false
}

func (nt *NodeType) compatibleContent(other *NodeType) bool {
	return nt == other || nt.ContentMatch.compatible(other.ContentMatch)
}

func (nt *NodeType) computeAttrs(attrs map[string]interface{}) map[string]interface{} {
	if attrs == nil {
		return nt.DefaultAttrs
	}
	return computeAttrs(nt.Attrs, attrs)
}

// Create a Node of this type. The given attributes are checked and defaulted
// (you can pass nil to use the type's defaults). content may be a Fragment, a
// node, an array of nodes, or nil. Similarly marks may be nil to default to
// the empty set of marks.
func (nt *NodeType) Create(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	if nt.IsText() {
		return nil, fmt.Errorf("NodeType.create can't construct text nodes")
	}
	fragment, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	return NewNode(nt, nt.computeAttrs(attrs), fragment, MarkSetFrom(marks)), nil
}

// CreateChecked is like Create, but checks the given content against the node
// type's content restrictions, and throws an error if it doesn't match.
func (nt *NodeType) CreateChecked(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	fragment, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	if !nt.ValidContent(fragment) {
		return nil, NewReplaceError("Invalid content for node %s", nt.Name)
	}
	return NewNode(nt, nt.computeAttrs(attrs), fragment, MarkSetFrom(marks)), nil
}

// CreateAndFill is like Create, but see if it is necessary to add nodes to
// the start or end of the given fragment to make it fit the node. If no
// fitting wrapping can be found, return nil.
func (nt *NodeType) CreateAndFill(args ...interface{}) (*Node, error) {
	var attrs map[string]interface{}
	var content interface{}
	var marks []*Mark
	if len(args) > 0 {
		attrs, _ = args[0].(map[string]interface{})
	}
	if len(args) > 1 {
		content = args[1]
	}
	if len(args) > 2 {
		marks, _ = args[2].([]*Mark)
	}
	attrs = nt.computeAttrs(attrs)
	fragment, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	if fragment.Size > 0 {
		before, err := nt.ContentMatch.FillBefore(fragment, false)
		if err != nil {
			return nil, err
		}
		if before == nil {
			return nil, nil
		}
		fragment = before.Append(fragment)
	}
	matched := nt.ContentMatch.MatchFragment(fragment)
	if matched == nil {
		return nil, nil
	}
	after, err := matched.FillBefore(EmptyFragment, true)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, nil
	}
	return NewNode(nt, attrs, fragment.Append(after), MarkSetFrom(marks)), nil
}

// ValidContent returns true if the given fragment is valid content for this
// node type with the given attributes.
func (nt *NodeType) ValidContent(content *Fragment) bool {
	result := nt.ContentMatch.MatchFragment(content)
	if result == nil || !result.ValidEnd {
		return false
	}
	for _, child := range content.Content {
		if !nt.AllowsMarks(child.Marks) {
			return false
		}
	}
	return true
}

// AllowsMarkType checks whether the given mark type is allowed in this node.
func (nt *NodeType) AllowsMarkType(markType *MarkType) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, mt := range nt.MarkSet {
		if mt == markType {
			return true
		}
	}
	return false
}

// AllowsMarks tests whether the given set of marks are allowed in this node.
func (nt *NodeType) AllowsMarks(marks []*Mark) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, mark := range marks {
		if !nt.AllowsMarkType(mark.Type) {
			return false
		}
	}
	return true
}

// AllowedMarks removes the marks that are not allowed in this node from the
// given set.
func (nt *NodeType) AllowedMarks(marks []*Mark) []*Mark {
	if nt.MarkSet == nil {
		return marks
	}
	var cpy []*Mark
	for i, mark := range marks {
		if !nt.AllowsMarkType(mark.Type) {
			if cpy == nil {
				cpy = make([]*Mark, i)
				copy(cpy, marks[:i])
			}
		} else if cpy != nil {
			cpy = append(cpy, mark)
		}
	}
	if cpy == nil {
		return marks
	}
	if len(cpy) == 0 {
		return NoMarks
	}
	return cpy
}

func compileNodeTypes(nodes []*NodeSpec, schema *Schema) (map[string]*NodeType, error) {
	result := map[string]*NodeType{}
	for _, spec := range nodes {
		if _, ok := result[spec.Key]; ok {
			return nil, fmt.Errorf("Duplicate node type name %s", spec.Key)
		}
		result[spec.Key] = NewNodeType(spec.Key, schema, spec)
	}
	topName := schema.Spec.TopNode
	if topName == "" {
		topName = "doc"
	}
	if _, ok := result[topName]; !ok {
		return nil, fmt.Errorf("The schema is missing its top node type (%s)", topName)
	}
	text, ok := result["text"]
	if !ok {
		return nil, fmt.Errorf("Every schema needs a 'text' type")
	}
	if len(text.Attrs) > 0 {
		return nil, fmt.Errorf("The text node type should not have attributes")
	}
	return result, nil
}

// Like nodes, marks (which are associated with nodes to signify things like
// emphasis or being part of a link) are tagged with type objects, which are
// instantiated once per Schema.
type MarkType struct {
	// The name of the mark type.
	Name string
	// The rank of this mark in the set of marks (based on spec order).
	Rank int
	// The schema that this mark type instance is part of.
	Schema *Schema
	// The spec on which the type is based.
	Spec *MarkSpec
	// The attributes supported on marks of this type.
	Attrs map[string]*Attribute

	instance *Mark
	excluded []*MarkType
}

// NewMarkType is the constructor for MarkType.
func NewMarkType(name string, rank int, schema *Schema, spec *MarkSpec) *MarkType {
	mt := &MarkType{
		Name:   name,
		Rank:   rank,
		Schema: schema,
		Spec:   spec,
		Attrs:  initAttrs(spec.Attrs),
	}
	required := false
	for _, attr := range mt.Attrs {
		if attr.isRequired() {
			required = true
			break
		}
	}
	if !required {
		mt.instance = NewMark(mt, defaultAttrs(mt.Attrs))
	}
	return mt
}

// Create a mark of this type. attrs may be nil or an object containing only
// some of the mark's attributes. The others, if they have defaults, will be
// added.
func (mt *MarkType) Create(attrs map[string]interface{}) *Mark {
	if attrs == nil && mt.instance != nil {
		return mt.instance
	}
	return NewMark(mt, computeAttrs(mt.Attrs, attrs))
}

// RemoveFromSet removes all marks of this type from the given set.
func (mt *MarkType) RemoveFromSet(set []*Mark) []*Mark {
	for i := 0; i < len(set); i++ {
		if set[i].Type == mt {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			cpy = append(cpy, set[i+1:]...)
			set = cpy
			i--
		}
	}
	return set
}

// IsInSet tests whether there is a mark of this type in the given set.
func (mt *MarkType) IsInSet(set []*Mark) *Mark {
	for _, mark := range set {
		if mark.Type == mt {
			return mark
		}
	}
	return nil
}

// Excludes queries whether a given mark type is excluded by this one.
func (mt *MarkType) Excludes(other *MarkType) bool {
	for _, excluded := range mt.excluded {
		if excluded == other {
			return true
		}
	}
	return false
}

// NodeSpec describes a node type.
type NodeSpec struct {
	// Key is the name of this node type.
	Key string `json:"-"`

	// The content expression for this node, as described in the schema guide.
	// When not given, the node does not allow any content.
	Content string `json:"content,omitempty"`

	// The marks that are allowed inside of this node. May be a space-separated
	// string referring to mark names or groups, "" to explicitly allow no
	// marks, or nil to allow all marks that are valid for the node's content.
	Marks *string `json:"marks,omitempty"`

	// The group or space-separated groups to which this node belongs, which
	// can be referred to in the content expressions for the schema.
	Group string `json:"group,omitempty"`

	// Should be set to true for inline nodes. (Implied for text nodes.)
	Inline bool `json:"inline,omitempty"`

	// Can be set to true to indicate that, though this isn't a leaf node, it
	// doesn't have directly editable content and should be treated as a single
	// unit in the view.
	Atom bool `json:"atom,omitempty"`

	// The attributes that nodes of this type get.
	Attrs map[string]*AttributeSpec `json:"attrs,omitempty"`

	// Determines whether this node is considered an important parent node
	// during replace operations.
	Defining bool `json:"defining,omitempty"`

	// When enabled, enables both defining behaviors.
	Isolating bool `json:"isolating,omitempty"`

	// Defines the default way a node of this type should be serialized to a
	// string representation for debugging (e.g. in error messages).
	ToDebugString func(*Node) string `json:"-"`

	// Defines the default way a node of this type should be serialized to
	// DOM/HTML.
	ToDOM ToDOM `json:"-"`

	// Defines the default way a node of this type should be exported as a
	// Notion block.
	ToNotion ToNotionBlock `json:"-"`
}

// MarkSpec describes a mark type.
type MarkSpec struct {
	// Key is the name of this mark type.
	Key string `json:"-"`

	// The attributes that marks of this type get.
	Attrs map[string]*AttributeSpec `json:"attrs,omitempty"`

	// Whether this mark should be active when the cursor is positioned at its
	// end (or at its start when that is also the start of the parent node).
	// Defaults to true.
	Inclusive *bool `json:"inclusive,omitempty"`

	// Determines which other marks this mark can coexist with. Should be a
	// space-separated strings naming other marks or groups of marks. When a
	// mark is added to a set, all marks that it excludes are removed in the
	// process. If the set contains any mark that excludes the new mark but is
	// not, itself, excluded by the new mark, the mark can not be added an the
	// set. You can use the value "_" to indicate that the mark excludes all
	// marks in the schema.
	//
	// Defaults to only being exclusive with marks of the same type.
	Excludes *string `json:"excludes,omitempty"`

	// The group or space-separated groups to which this mark belongs.
	Group string `json:"group,omitempty"`

	// Determines whether marks of this type can span multiple adjacent nodes
	// when serialized to DOM/HTML. Defaults to true.
	Spanning *bool `json:"spanning,omitempty"`

	// Defines the default way marks of this type should be serialized to
	// DOM/HTML.
	ToDOM ToDOM `json:"-"`
}

// SchemaSpec is an object describing a schema, as passed to the Schema
// constructor.
type SchemaSpec struct {
	// The node types in this schema. Maps names to NodeSpec objects that
	// describe the node type associated with that name. Their order is
	// significant: it determines which parse rules take precedence by default,
	// and which nodes come first in a given group.
	Nodes []*NodeSpec `json:"nodes"`

	// The mark types that exist in this schema. The order in which they are
	// provided determines the order in which mark sets are sorted and in which
	// parse rules are tried.
	Marks []*MarkSpec `json:"marks"`

	// The name of the default top-level node for the schema. Defaults to
	// "doc".
	TopNode string `json:"topNode,omitempty"`
}

// The JSON encoding of nodes and marks preserves their order by using arrays
// of [name, spec] pairs instead of objects.

// MarshalJSON implements the json.Marshaler interface. The receiver is a
// value so that both SchemaSpec values and pointers marshal to the pair
// format.
func (s SchemaSpec) MarshalJSON() ([]byte, error) {
	nodes := make([][2]interface{}, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = [2]interface{}{n.Key, n}
	}
	marks := make([][2]interface{}, len(s.Marks))
	for i, m := range s.Marks {
		marks[i] = [2]interface{}{m.Key, m}
	}
	obj := map[string]interface{}{
		"nodes": nodes,
		"marks": marks,
	}
	if s.TopNode != "" {
		obj["topNode"] = s.TopNode
	}
	return json.Marshal(obj)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *SchemaSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes   [][2]json.RawMessage `json:"nodes"`
		Marks   [][2]json.RawMessage `json:"marks"`
		TopNode string               `json:"topNode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.TopNode = raw.TopNode
	s.Nodes = make([]*NodeSpec, len(raw.Nodes))
	for i, pair := range raw.Nodes {
		var spec NodeSpec
		if err := json.Unmarshal(pair[0], &spec.Key); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &spec); err != nil {
			return err
		}
		s.Nodes[i] = &spec
	}
	s.Marks = make([]*MarkSpec, len(raw.Marks))
	for i, pair := range raw.Marks {
		var spec MarkSpec
		if err := json.Unmarshal(pair[0], &spec.Key); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &spec); err != nil {
			return err
		}
		s.Marks[i] = &spec
	}
	return nil
}

// Schema is a document schema. Holds node and mark type objects for the nodes
// and marks that may occur in conforming documents, and provides functionality
// for creating and deserializing such documents.
type Schema struct {
	// The spec on which the schema is based.
	Spec *SchemaSpec

	// An object mapping the schema's node names to node type objects.
	Nodes map[string]*NodeType

	// A map from mark names to mark type objects.
	Marks map[string]*MarkType
}

// NewSchema constructs a schema from a schema spec.
func NewSchema(spec *SchemaSpec) (*Schema, error) {
	schema := &Schema{Spec: spec}
	nodes, err := compileNodeTypes(spec.Nodes, schema)
	if err != nil {
		return nil, err
	}
	schema.Nodes = nodes
	schema.Marks = map[string]*MarkType{}
	for rank, mspec := range spec.Marks {
		if _, ok := schema.Marks[mspec.Key]; ok {
			return nil, fmt.Errorf("Duplicate mark type name %s", mspec.Key)
		}
		schema.Marks[mspec.Key] = NewMarkType(mspec.Key, rank, schema, mspec)
	}

	contentExprCache := map[string]*ContentMatch{}
	for _, spec := range spec.Nodes {
		typ := schema.Nodes[spec.Key]
		contentExpr := spec.Content
		match, ok := contentExprCache[contentExpr]
		if !ok {
			match, err = ParseContentMatch(contentExpr, schema.Nodes)
			if err != nil {
				return nil, err
			}
			contentExprCache[contentExpr] = match
		}
		typ.ContentMatch = match
		typ.InlineContent = match.inlineContent()
		if spec.Marks != nil {
			typ.MarkSet, err = gatherMarks(schema, strings.Fields(*spec.Marks))
			if err != nil {
				return nil, err
			}
		} else if typ.InlineContent {
			typ.MarkSet = nil
		} else {
			typ.MarkSet = []*MarkType{}
		}
	}
	for _, mspec := range spec.Marks {
		typ := schema.Marks[mspec.Key]
		if mspec.Excludes == nil {
			typ.excluded = []*MarkType{typ}
		} else {
			typ.excluded, err = gatherMarks(schema, strings.Fields(*mspec.Excludes))
			if err != nil {
				return nil, err
			}
		}
	}
	return schema, nil
}

// NodeType returns the node type with the given name in this schema.
func (s *Schema) NodeType(name string) (*NodeType, error) {
	if name == "" {
		name = s.Spec.TopNode
		if name == "" {
			name = "doc"
		}
	}
	if typ, ok := s.Nodes[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("Unknown node type: %s", name)
}

// MarkType returns the mark type with the given name in this schema.
func (s *Schema) MarkType(name string) (*MarkType, error) {
	if typ, ok := s.Marks[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("Unknown mark type: %s", name)
}

// TopNodeType is the type of the default top node for this schema.
func (s *Schema) TopNodeType() (*NodeType, error) {
	return s.NodeType("")
}

// Node creates a node in this schema. The type may be a string or a NodeType
// instance. Attributes will be extended with defaults, content may be a
// Fragment, nil, a Node, or an array of nodes.
func (s *Schema) Node(typ interface{}, args ...interface{}) (*Node, error) {
	var nodeType *NodeType
	switch typ := typ.(type) {
	case string:
		var err error
		nodeType, err = s.NodeType(typ)
		if err != nil {
			return nil, err
		}
	case *NodeType:
		nodeType = typ
		if nodeType.Schema != s {
			return nil, fmt.Errorf("Node type from different schema used (%s)", nodeType.Name)
		}
	default:
		return nil, fmt.Errorf("Invalid node type: %v", typ)
	}
	var attrs map[string]interface{}
	var content interface{}
	var marks []*Mark
	if len(args) > 0 {
		attrs, _ = args[0].(map[string]interface{})
	}
	if len(args) > 1 {
		content = args[1]
	}
	if len(args) > 2 {
		marks, _ = args[2].([]*Mark)
	}
	return nodeType.CreateChecked(attrs, content, marks)
}

// Text creates a text node in the schema. Empty text nodes are not allowed.
func (s *Schema) Text(text string, marks ...[]*Mark) *Node {
	typ := s.Nodes["text"]
	var set []*Mark
	if len(marks) > 0 {
		set = MarkSetFrom(marks[0])
	}
	return NewTextNode(typ, typ.DefaultAttrs, text, set)
}

// Mark creates a mark with the given type and attributes. The type may be a
// string or a MarkType instance.
func (s *Schema) Mark(typ interface{}, attrs ...map[string]interface{}) *Mark {
	var markType *MarkType
	switch typ := typ.(type) {
	case string:
		markType = s.Marks[typ]
	case *MarkType:
		markType = typ
	}
	if markType == nil {
		panic(fmt.Errorf("Invalid mark type: %v", typ))
	}
	var a map[string]interface{}
	if len(attrs) > 0 {
		a = attrs[0]
	}
	return markType.Create(a)
}

// NodeFromJSON deserializes a node from its JSON representation.
func (s *Schema) NodeFromJSON(raw interface{}) (*Node, error) {
	return NodeFromJSON(s, raw)
}

// MarkFromJSON deserializes a mark from its JSON representation.
func (s *Schema) MarkFromJSON(raw interface{}) (*Mark, error) {
	return MarkFromJSON(s, raw)
}

func gatherMarks(schema *Schema, marks []string) ([]*MarkType, error) {
	var found []*MarkType
	for _, name := range marks {
		mark, ok := schema.Marks[name]
		if ok {
			found = append(found, mark)
			continue
		}
		matched := false
		for _, mark := range schema.Marks {
			if name == "_" || hasGroup(mark.Spec.Group, name) {
				found = append(found, mark)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("Unknown mark type: %q", name)
		}
	}
	if found == nil {
		found = []*MarkType{}
	}
	return found, nil
}

func hasGroup(groups, name string) bool {
	for _, g := range strings.Fields(groups) {
		if g == name {
			return true
		}
	}
	return false
}
