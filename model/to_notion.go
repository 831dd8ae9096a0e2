package model

import (
	"github.com/dstotijn/go-notion"
)

// ToNotionBlock is the type of functions that export a node as a Notion
// block.
type ToNotionBlock = func(*Node) *notion.Block

// A NotionSerializer knows how to convert nodes of various types to Notion
// blocks.
type NotionSerializer struct {
	// The node serialization functions.
	Nodes map[string]ToNotionBlock
}

// CreatePageContent exports a document node as a list of Notion blocks,
// suitable for the children parameter of a page creation request.
func CreatePageContent(node *Node, schema *Schema) []notion.Block {
	s := AddDefaultToNotion(schema)
	serializer := NotionSerializerFromSchema(s)
	return serializer.SerializePage(node.Content)
}

func defaultParagraphBlockGenerator() ToNotionBlock {
	return func(n *Node) *notion.Block {
		return &notion.Block{
			Type:      notion.BlockTypeParagraph,
			Paragraph: richTextBlock(n),
		}
	}
}

func defaultQuoteBlockGenerator() ToNotionBlock {
	return func(n *Node) *notion.Block {
		// Blockquotes contain block content; Notion quotes carry rich
		// text, so the children are flattened to their text.
		text := n.TextBetween(0, n.Content.Size, "\n", "")
		return &notion.Block{
			Type: notion.BlockTypeQuote,
			Quote: &notion.RichTextBlock{
				Text: []notion.RichText{plainRichText(text)},
			},
		}
	}
}

func defaultHeadingBlockGenerator() ToNotionBlock {
	return func(n *Node) *notion.Block {
		level, _ := n.Attrs["level"].(int)
		if f, ok := n.Attrs["level"].(float64); ok {
			level = int(f)
		}
		heading := &notion.Heading{Text: richTextBlock(n).Text}
		switch level {
		case 2:
			return &notion.Block{Type: notion.BlockTypeHeading2, Heading2: heading}
		case 3, 4, 5, 6:
			return &notion.Block{Type: notion.BlockTypeHeading3, Heading3: heading}
		default:
			return &notion.Block{Type: notion.BlockTypeHeading1, Heading1: heading}
		}
	}
}

func defaultDividerBlockGenerator() ToNotionBlock {
	return func(n *Node) *notion.Block {
		return &notion.Block{Type: notion.BlockTypeDivider}
	}
}

// richTextBlock converts the inline content of a textblock node to Notion
// rich text, mapping marks to annotations.
func richTextBlock(n *Node) *notion.RichTextBlock {
	result := &notion.RichTextBlock{
		Text: []notion.RichText{},
	}
	n.ForEach(func(node *Node, offset, index int) {
		text := ""
		switch {
		case node.IsText():
			text = *node.Text
		case node.Type.Name == "hard_break":
			text = "\n"
		default:
			return
		}
		next := plainRichText(text)
		annotations := &notion.Annotations{}
		hasAnnotation := false
		for _, m := range node.Marks {
			switch m.Type.Name {
			case "em":
				annotations.Italic = true
				hasAnnotation = true
			case "strong":
				annotations.Bold = true
				hasAnnotation = true
			case "code":
				annotations.Code = true
				hasAnnotation = true
			case "link":
				if href, ok := m.Attrs["href"].(string); ok {
					next.Text.Link = &notion.Link{URL: href}
				}
			}
		}
		if hasAnnotation {
			next.Annotations = annotations
		}
		result.Text = append(result.Text, next)
	})
	return result
}

func plainRichText(text string) notion.RichText {
	return notion.RichText{
		Type:      notion.RichTextTypeText,
		PlainText: text,
		Text: &notion.Text{
			Content: text,
		},
	}
}

// NotionSerializerFromSchema builds a serializer using the ToNotion
// properties in a schema's node specs.
func NotionSerializerFromSchema(schema *Schema) *NotionSerializer {
	return &NotionSerializer{
		Nodes: notionNodesFromSchema(schema),
	}
}

// Default ToNotion functions
var defaultToNotion = map[string]ToNotionBlock{
	"paragraph":       defaultParagraphBlockGenerator(),
	"blockquote":      defaultQuoteBlockGenerator(),
	"heading":         defaultHeadingBlockGenerator(),
	"horizontal_rule": defaultDividerBlockGenerator(),
}

// AddDefaultToNotion fills in default ToNotion functions for the well-known
// node types of the given schema, where the specs don't already provide one.
func AddDefaultToNotion(schema *Schema) *Schema {
	for _, n := range schema.Nodes {
		if n.Spec.ToNotion == nil {
			if toNotion, ok := defaultToNotion[n.Name]; ok {
				n.Spec.ToNotion = toNotion
			}
		}
	}
	return schema
}

// SerializePage serializes the top-level content of a document to Notion
// blocks. List nodes are flattened to one block per list item, the way the
// Notion block model represents lists.
func (n *NotionSerializer) SerializePage(fragment *Fragment) []notion.Block {
	var result []notion.Block
	fragment.ForEach(func(node *Node, offset, index int) {
		switch node.Type.Name {
		case "bullet_list":
			result = append(result, n.serializeListItems(node, notion.BlockTypeBulletedListItem)...)
		case "ordered_list":
			result = append(result, n.serializeListItems(node, notion.BlockTypeNumberedListItem)...)
		default:
			if nextBlock := n.SerializeNode(node); nextBlock != nil {
				result = append(result, *nextBlock)
			}
		}
	})
	return result
}

func (n *NotionSerializer) serializeListItems(list *Node, blockType notion.BlockType) []notion.Block {
	var result []notion.Block
	list.ForEach(func(item *Node, offset, index int) {
		// The first child of a list item is its textblock; further
		// block children become the Notion block's children.
		first := item.Content.FirstChild()
		if first == nil {
			return
		}
		content := richTextBlock(first)
		if item.ChildCount() > 1 {
			rest := item.Content.CutByIndex(1, item.ChildCount())
			content.Children = n.SerializePage(rest)
		}
		block := notion.Block{Type: blockType}
		switch blockType {
		case notion.BlockTypeBulletedListItem:
			block.BulletedListItem = content
		case notion.BlockTypeNumberedListItem:
			block.NumberedListItem = content
		}
		result = append(result, block)
	})
	return result
}

// SerializeNode serializes a single node to a Notion block. Returns nil for
// node types without an export function.
func (n *NotionSerializer) SerializeNode(node *Node) *notion.Block {
	notionFn := n.Nodes[node.Type.Name]
	if notionFn == nil {
		return nil
	}
	return notionFn(node)
}

func notionNodesFromSchema(schema *Schema) (result map[string]ToNotionBlock) {
	result = make(map[string]ToNotionBlock)
	for _, n := range schema.Nodes {
		result[n.Name] = n.Spec.ToNotion
	}
	if textToNotion, ok := result["text"]; ok && textToNotion == nil {
		result["text"] = func(node *Node) *notion.Block {
			return &notion.Block{
				Type: notion.BlockTypeParagraph,
				Paragraph: &notion.RichTextBlock{
					Text: []notion.RichText{plainRichText(*node.Text)},
				},
			}
		}
	}
	return result
}
