// Package builder offers a convenient way to construct test documents, with
// "<name>" tags in strings recording positions in the built node.
package builder

import (
	"regexp"

	"github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/schema/basic"
	"github.com/fieldmark/fieldmark/schema/list"
)

// Spec describes a named builder: a "nodeType" or "markType" entry plus
// default attributes.
type Spec map[string]interface{}

// NodeWithTag is a node with the positions of the tags found in the strings
// it was built from.
type NodeWithTag struct {
	*model.Node
	Tag map[string]int
}

// Slice cuts a slice out of the node, panicking on invalid positions.
func (n NodeWithTag) Slice(from int, to ...int) *model.Slice {
	args := make([]interface{}, len(to))
	for i, t := range to {
		args[i] = t
	}
	slice, err := n.Node.Slice(from, args...)
	if err != nil {
		panic(err)
	}
	return slice
}

// Flat is the result of a mark builder: a list of inline nodes with the mark
// applied, plus the tags found in them.
type Flat struct {
	Nodes []*model.Node
	Tag   map[string]int
}

// NodeBuilder constructs a node of a fixed type from the given content.
// Arguments can be strings (with "<name>" tags), the results of other node
// or mark builders, or an uncalled leaf node builder.
type NodeBuilder func(args ...interface{}) NodeWithTag

// MarkBuilder applies a mark of a fixed type to the given inline content.
type MarkBuilder func(args ...interface{}) Flat

var tagPattern = regexp.MustCompile(`<(\w+)>`)

// flatten builds the list of child nodes for the given arguments, applying f
// to each node, and collects tag positions.
func flatten(schema *model.Schema, args []interface{}, f func(*model.Node) *model.Node) ([]*model.Node, map[string]int) {
	if f == nil {
		f = func(n *model.Node) *model.Node { return n }
	}
	var result []*model.Node
	tag := map[string]int{}
	pos := 0
	for _, arg := range args {
		switch child := arg.(type) {
		case string:
			at := 0
			out := ""
			for _, m := range tagPattern.FindAllStringSubmatchIndex(child, -1) {
				out += child[at:m[0]]
				pos += m[0] - at
				at = m[1]
				tag[child[m[2]:m[3]]] = pos
			}
			out += child[at:]
			pos += len(child) - at
			if out != "" {
				result = append(result, f(schema.Text(out)))
			}
		case NodeWithTag:
			for id, p := range child.Tag {
				tag[id] = p + 1 + pos
			}
			node := f(child.Node)
			pos += node.NodeSize()
			result = append(result, node)
		case *model.Node:
			node := f(child)
			pos += node.NodeSize()
			result = append(result, node)
		case Flat:
			for id, p := range child.Tag {
				tag[id] = p + pos
			}
			for _, n := range child.Nodes {
				node := f(n)
				pos += node.NodeSize()
				result = append(result, node)
			}
		case NodeBuilder:
			node := f(child().Node)
			pos += node.NodeSize()
			result = append(result, node)
		default:
			panic("Invalid builder argument")
		}
	}
	return result, tag
}

// takeAttrs peels an optional leading attribute map off the arguments and
// merges it with the builder's default attributes.
func takeAttrs(attrs map[string]interface{}, args []interface{}) (map[string]interface{}, []interface{}) {
	if len(args) == 0 {
		return attrs, args
	}
	override, ok := args[0].(map[string]interface{})
	if !ok {
		return attrs, args
	}
	if attrs == nil {
		return override, args[1:]
	}
	merged := map[string]interface{}{}
	for k, v := range attrs {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged, args[1:]
}

func block(typ *model.NodeType, attrs map[string]interface{}) NodeBuilder {
	return func(args ...interface{}) NodeWithTag {
		myAttrs, rest := takeAttrs(attrs, args)
		nodes, tag := flatten(typ.Schema, rest, nil)
		node, err := typ.Create(myAttrs, nodes, nil)
		if err != nil {
			panic(err)
		}
		return NodeWithTag{Node: node, Tag: tag}
	}
}

// Create a builder function for marks.
func mark(typ *model.MarkType, attrs map[string]interface{}) MarkBuilder {
	return func(args ...interface{}) Flat {
		myAttrs, rest := takeAttrs(attrs, args)
		m := typ.Create(myAttrs)
		nodes, tag := flatten(typ.Schema, rest, func(n *model.Node) *model.Node {
			newMarks := m.AddToSet(n.Marks)
			if len(newMarks) > len(n.Marks) {
				return n.Mark(newMarks)
			}
			return n
		})
		return Flat{Nodes: nodes, Tag: tag}
	}
}

// Builders returns a map of node and mark builders for the given schema. One
// builder is created per node and mark type, under its name, plus one per
// entry of names, which can add default attributes ({"nodeType": "heading",
// "level": 2} makes an h2 builder). The schema itself is stored under
// "schema".
func Builders(schema *model.Schema, names map[string]Spec) map[string]interface{} {
	result := map[string]interface{}{"schema": schema}
	for name, typ := range schema.Nodes {
		result[name] = block(typ, nil)
	}
	for name, typ := range schema.Marks {
		result[name] = mark(typ, nil)
	}
	for name, spec := range names {
		attrs := map[string]interface{}{}
		nodeType, _ := spec["nodeType"].(string)
		markType, _ := spec["markType"].(string)
		for k, v := range spec {
			if k != "nodeType" && k != "markType" {
				attrs[k] = v
			}
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		if nodeType != "" {
			typ, err := schema.NodeType(nodeType)
			if err != nil {
				panic(err)
			}
			result[name] = block(typ, attrs)
		} else if markType != "" {
			typ, err := schema.MarkType(markType)
			if err != nil {
				panic(err)
			}
			result[name] = mark(typ, attrs)
		}
	}
	return result
}

func mustSchema(spec *model.SchemaSpec) *model.Schema {
	schema, err := model.NewSchema(spec)
	if err != nil {
		panic(err)
	}
	return schema
}

var testSchema = mustSchema(&model.SchemaSpec{
	Nodes: list.AddListNodes(basic.Schema.Spec.Nodes, "paragraph block*", "block"),
	Marks: basic.Schema.Spec.Marks,
})

var out = Builders(testSchema, map[string]Spec{
	"p":   {"nodeType": "paragraph"},
	"pre": {"nodeType": "code_block"},
	"h1":  {"nodeType": "heading", "level": 1},
	"h2":  {"nodeType": "heading", "level": 2},
	"h3":  {"nodeType": "heading", "level": 3},
	"li":  {"nodeType": "list_item"},
	"ul":  {"nodeType": "bullet_list"},
	"ol":  {"nodeType": "ordered_list"},
	"br":  {"nodeType": "hard_break"},
	"img": {"nodeType": "image", "src": "img.png"},
	"hr":  {"nodeType": "horizontal_rule"},
	"a":   {"markType": "link", "href": "foo"},
})

var (
	Schema     = out["schema"].(*model.Schema)
	Doc        = out["doc"].(NodeBuilder)
	P          = out["p"].(NodeBuilder)
	Blockquote = out["blockquote"].(NodeBuilder)
	Pre        = out["pre"].(NodeBuilder)
	H1         = out["h1"].(NodeBuilder)
	H2         = out["h2"].(NodeBuilder)
	H3         = out["h3"].(NodeBuilder)
	Li         = out["li"].(NodeBuilder)
	Ul         = out["ul"].(NodeBuilder)
	Ol         = out["ol"].(NodeBuilder)
	Br         = out["br"].(NodeBuilder)
	Img        = out["img"].(NodeBuilder)
	Hr         = out["hr"].(NodeBuilder)
	A          = out["a"].(MarkBuilder)
	Em         = out["em"].(MarkBuilder)
	Strong     = out["strong"].(MarkBuilder)
	Code       = out["code"].(MarkBuilder)
)
