package model

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToDOM is the type of functions that render a node or mark to an HTML node.
type ToDOM = func(NodeOrMark) *html.Node

type NodeOrMark interface {
	GetAttrs([]string) []html.Attribute
}

func (n *Node) GetAttrs(selectedAttrs []string) []html.Attribute {
	result := []html.Attribute{}
	for _, key := range selectedAttrs {
		if value, ok := n.Attrs[key]; ok {
			result = addAttr(key, value, result)
		}
	}
	return result
}

func (m *Mark) GetAttrs(selectedAttrs []string) []html.Attribute {
	result := []html.Attribute{}
	for key, value := range m.Attrs {
		for _, a := range selectedAttrs {
			if a == key {
				result = addAttr(key, value, result)
				break
			}
		}
	}
	return result
}

func addAttr(key string, value interface{}, attrs []html.Attribute) []html.Attribute {
	newAttr := html.Attribute{
		Key: key,
	}
	switch v := value.(type) {
	case int:
		newAttr.Val = strconv.Itoa(v)
		return append(attrs, newAttr)
	case float64:
		newAttr.Val = strconv.Itoa(int(v))
		return append(attrs, newAttr)
	case string:
		newAttr.Val = v
		return append(attrs, newAttr)
	}
	return attrs
}

func defaultDOMGenerator(atom atom.Atom, attrs []string) ToDOM {
	return func(n NodeOrMark) *html.Node {
		htmlAttrs := n.GetAttrs(attrs)
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom,
			Data:     atom.String(),
			Attr:     htmlAttrs,
		}
	}
}

func defaultCodeBlockDOMGenerator() ToDOM {
	return func(n NodeOrMark) *html.Node {
		outerNode := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Pre,
			Data:     "pre",
		}
		innerNode := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Code,
			Data:     "code",
		}
		outerNode.AppendChild(innerNode)
		return outerNode
	}
}

func defaultHeadingDOMGenerator() ToDOM {
	return func(n NodeOrMark) *html.Node {
		attrs := n.GetAttrs([]string{"level"})
		level := "1"
		for _, a := range attrs {
			if a.Key == "level" {
				level = a.Val
				break
			}
		}
		var dataAtom atom.Atom
		switch level {
		case "1":
			dataAtom = atom.H1
		case "2":
			dataAtom = atom.H2
		case "3":
			dataAtom = atom.H3
		case "4":
			dataAtom = atom.H4
		case "5":
			dataAtom = atom.H5
		case "6":
			dataAtom = atom.H6
		default:
			dataAtom = atom.H1
			level = "1"
		}
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: dataAtom,
			Data:     "h" + level,
		}
	}
}

// Default ToDOM functions
var (
	defaultToDOM = map[string]ToDOM{
		"paragraph":       defaultDOMGenerator(atom.P, nil),
		"blockquote":      defaultDOMGenerator(atom.Blockquote, nil),
		"horizontal_rule": defaultDOMGenerator(atom.Hr, nil),
		"image":           defaultDOMGenerator(atom.Img, []string{"src", "alt", "title"}),
		"hard_break":      defaultDOMGenerator(atom.Br, nil),
		"bullet_list":     defaultDOMGenerator(atom.Ul, nil),
		"ordered_list":    defaultDOMGenerator(atom.Ol, nil),
		"list_item":       defaultDOMGenerator(atom.Li, nil),
		"code_block":      defaultCodeBlockDOMGenerator(),
		"heading":         defaultHeadingDOMGenerator(),
	}
	defaultMarkToDOM = map[string]ToDOM{
		"link":   defaultDOMGenerator(atom.A, []string{"href", "title"}),
		"em":     defaultDOMGenerator(atom.Em, nil),
		"strong": defaultDOMGenerator(atom.Strong, nil),
		"code":   defaultDOMGenerator(atom.Code, nil),
	}
)

// A DOMSerializer knows how to convert nodes and marks of various types to
// HTML nodes.
type DOMSerializer struct {
	// The node serialization functions.
	Nodes map[string]ToDOM

	// The mark serialization functions. A nil entry indicates that marks of
	// that type should not be serialized.
	Marks map[string]ToDOM
}

// AddDefaultToDOM fills in default ToDOM functions for the well-known node
// and mark types of the given schema, where the specs don't already provide
// one.
func AddDefaultToDOM(schema *Schema) *Schema {
	for _, n := range schema.Nodes {
		if n.Spec.ToDOM == nil {
			if toDOM, ok := defaultToDOM[n.Name]; ok {
				n.Spec.ToDOM = toDOM
			}
		}
	}
	for _, m := range schema.Marks {
		if m.Spec.ToDOM == nil {
			if toDOM, ok := defaultMarkToDOM[m.Name]; ok {
				m.Spec.ToDOM = toDOM
			}
		}
	}
	return schema
}

// DOMSerializerFromSchema builds a serializer using the ToDOM properties in a
// schema's node and mark specs.
func DOMSerializerFromSchema(schema *Schema) *DOMSerializer {
	return &DOMSerializer{
		Nodes: nodesFromSchema(schema),
		Marks: marksFromSchema(schema),
	}
}

func (d *DOMSerializer) hasMark(markName string) bool {
	toDOM, ok := d.Marks[markName]
	return ok && toDOM != nil
}

// SerializeFragment serializes the content of the fragment to HTML, appended
// to target. When target is nil, a document node is created to serialize
// into.
func (d *DOMSerializer) SerializeFragment(fragment *Fragment, target *html.Node) *html.Node {
	if target == nil {
		target = &html.Node{
			Type: html.DocumentNode,
		}
	}
	type activeMark struct {
		mark *Mark
		top  *html.Node
	}
	var active []activeMark
	top := target
	fragment.ForEach(func(node *Node, offset, index int) {
		if active != nil || len(node.Marks) > 0 {
			keep, rendered := 0, 0
			for keep < len(active) && rendered < len(node.Marks) {
				next := node.Marks[rendered]
				if !d.hasMark(next.Type.Name) {
					rendered++
					continue
				}
				if !next.Eq(active[keep].mark) || (next.Type.Spec.Spanning != nil && !*next.Type.Spec.Spanning) {
					break
				}
				keep++
				rendered++
			}
			for keep < len(active) {
				n := len(active)
				top, active = active[n-1].top, active[:n-1]
			}
			for rendered < len(node.Marks) {
				add := node.Marks[rendered]
				rendered++
				markDOM := d.serializeMark(add, node.IsInline())
				if markDOM != nil {
					active = append(active, activeMark{mark: add, top: top})
					top.AppendChild(markDOM)
					top = markDOM
				}
			}
		}
		child := d.SerializeNode(node)
		if child != nil {
			top.AppendChild(child)
		}
	})
	return target
}

func (d *DOMSerializer) serializeMark(mark *Mark, inline bool) *html.Node {
	toDOM := d.Marks[mark.Type.Name]
	if toDOM == nil {
		return nil
	}
	return toDOM(mark)
}

// SerializeNode serializes this node to an HTML node. This can be useful when
// you need to serialize a part of a document, as opposed to the whole
// document. To serialize a whole document, use SerializeFragment.
func (d *DOMSerializer) SerializeNode(node *Node) *html.Node {
	domFn := d.Nodes[node.Type.Name]
	if domFn == nil {
		return nil
	}
	topNode := domFn(node)
	contentNode := topNode
	for contentNode.FirstChild != nil {
		contentNode = contentNode.FirstChild
	}
	d.SerializeFragment(node.Content, contentNode)
	return topNode
}

// Gather the serializers in a schema's node specs into an object. This can be
// useful as a base to build a custom serializer from.
func nodesFromSchema(schema *Schema) (result map[string]ToDOM) {
	result = make(map[string]ToDOM)
	for _, n := range schema.Nodes {
		result[n.Name] = n.Spec.ToDOM
	}
	if textToDOM, ok := result["text"]; ok && textToDOM == nil {
		result["text"] = func(n NodeOrMark) *html.Node {
			node, _ := n.(*Node)
			return &html.Node{
				Type: html.TextNode,
				Data: *node.Text,
			}
		}
	}
	return result
}

// Gather the serializers in a schema's mark specs into an object.
func marksFromSchema(schema *Schema) (result map[string]ToDOM) {
	result = make(map[string]ToDOM)
	for _, m := range schema.Marks {
		result[m.Name] = m.Spec.ToDOM
	}
	return result
}
