package markdown

import (
	"testing"

	"github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/schema/basic"
	"github.com/fieldmark/fieldmark/schema/list"
	"github.com/fieldmark/fieldmark/test/builder"
	"github.com/stretchr/testify/assert"
)

var (
	empty        = ""
	headingAttrs = map[string]*model.AttributeSpec{
		"level": {Default: 1.0},
	}
	codeAttrs = map[string]*model.AttributeSpec{
		"params": {Default: ""},
	}
	imageAttrs = map[string]*model.AttributeSpec{
		"src":   {},
		"alt":   {Default: nil},
		"title": {Default: nil},
	}
	nodes = []*model.NodeSpec{
		{Key: "doc", Content: "block+"},
		{Key: "paragraph", Content: "inline*", Group: "block"},
		{Key: "blockquote", Content: "block+", Group: "block"},
		{Key: "horizontal_rule", Group: "block"},
		{Key: "heading", Content: "inline*", Group: "block", Attrs: headingAttrs},
		{Key: "code_block", Content: "text*", Marks: &empty, Group: "block", Attrs: codeAttrs},
		{Key: "text", Group: "inline"},
		{Key: "image", Group: "inline", Inline: true, Attrs: imageAttrs},
		{Key: "hard_break", Group: "inline", Inline: true},
	}

	schema, _ = model.NewSchema(&model.SchemaSpec{
		Nodes: list.AddListNodes(nodes, "paragraph block*", "block"),
		Marks: basic.Schema.Spec.Marks,
	})
	out = builder.Builders(schema, map[string]builder.Spec{
		"p":   {"nodeType": "paragraph"},
		"h1":  {"nodeType": "heading", "level": 1},
		"h2":  {"nodeType": "heading", "level": 2},
		"li":  {"nodeType": "list_item"},
		"ol":  {"nodeType": "ordered_list"},
		"ol3": {"nodeType": "ordered_list", "order": float64(3)},
		"ul":  {"nodeType": "bullet_list"},
		"pre": {"nodeType": "code_block"},
		"a":   {"markType": "link", "href": "foo"},
		"br":  {"nodeType": "hard_break"},
		"img": {"nodeType": "image", "src": "img.png", "alt": "x"},
	})

	doc        = out["doc"].(builder.NodeBuilder)
	blockquote = out["blockquote"].(builder.NodeBuilder)
	p          = out["p"].(builder.NodeBuilder)
	h1         = out["h1"].(builder.NodeBuilder)
	h2         = out["h2"].(builder.NodeBuilder)
	li         = out["li"].(builder.NodeBuilder)
	ol         = out["ol"].(builder.NodeBuilder)
	ol3        = out["ol3"].(builder.NodeBuilder)
	ul         = out["ul"].(builder.NodeBuilder)
	pre        = out["pre"].(builder.NodeBuilder)
	a          = out["a"].(builder.MarkBuilder)
	br         = out["br"].(builder.NodeBuilder)
	em         = out["em"].(builder.MarkBuilder)
	strong     = out["strong"].(builder.MarkBuilder)
	code       = out["code"].(builder.MarkBuilder)
	img        = out["img"].(builder.NodeBuilder)
	link       = out["link"].(builder.MarkBuilder)
)

func TestMarkdownSerializer(t *testing.T) {
	serialize := func(doc builder.NodeWithTag, text string) {
		assert.Equal(t, DefaultSerializer.Serialize(doc.Node), text)
	}

	// serializes a paragraph
	serialize(doc(p("hello!")), "hello!")

	// serializes headings
	serialize(doc(h1("one"), h2("two"), p("three")),
		"# one\n\n## two\n\nthree")

	// serializes a blockquote
	serialize(doc(blockquote(p("once")), blockquote(blockquote(p("twice")))),
		"> once\n\n> > twice")

	// serializes a bullet list
	serialize(doc(ul(li(p("foo"), ul(li(p("bar")), li(p("baz")))), li(p("quux")))),
		"* foo\n\n  * bar\n\n  * baz\n\n* quux")

	// serializes an ordered list
	serialize(doc(ol(li(p("Hello")), li(p("Goodbye")), li(p("Nest"), ol(li(p("Hey")), li(p("Aye")))))),
		"1. Hello\n\n2. Goodbye\n\n3. Nest\n\n   1. Hey\n\n   2. Aye")

	// preserves ordered list start number
	serialize(doc(ol3(li(p("Foo")), li(p("Bar")))),
		"3. Foo\n\n4. Bar")

	// serializes a code block
	serialize(doc(p("Some code:"), pre("Here it is"), p("Para")),
		"Some code:\n\n```\nHere it is\n```\n\nPara")

	// serializes inline marks
	serialize(doc(p("Hello. Some ", em("em"), " text, some ", strong("strong"), " text, and some ", code("code"))),
		"Hello. Some *em* text, some **strong** text, and some `code`")

	// serializes overlapping inline marks
	serialize(doc(p("This is ", strong("strong ", em("emphasized text with ", code("code"), " in"), " it"))),
		"This is **strong *emphasized text with `code` in* it**")

	// serializes a code mark containing backticks
	serialize(doc(p(code("one backtick: ` two backticks: ``"))),
		"``` one backtick: ` two backticks: `` ```")

	// serializes a code mark containing only whitespace
	serialize(doc(p("Three spaces: ", code("   "))),
		"Three spaces: `   `")

	// serializes hard breaks
	serialize(doc(p("foo", br, "bar")), "foo\\\nbar")
	serialize(doc(p(em("foo", br, "bar"))), "*foo\\\nbar*")

	// serializes links
	serialize(doc(p("My ", a("link"), " goes to foo")),
		"My [link](foo) goes to foo")

	// serializes plain urls as autolinks
	serialize(doc(p("Link to ", link(map[string]interface{}{"href": "https://example.com"}, "https://example.com"))),
		"Link to <https://example.com>")

	// serializes relative urls as explicit links
	serialize(doc(p(link(map[string]interface{}{"href": "foo.html"}, "foo.html"))),
		"[foo.html](foo.html)")

	// quotes link titles
	serialize(doc(p(link(map[string]interface{}{"href": "x.html", "title": `title "quoted"`}, "a"))),
		`[a](x.html "title \"quoted\"")`)

	// doesn't escape underscores in a link
	serialize(doc(p(link(map[string]interface{}{"href": "http://foo.com/a_b_c"}, "link"))),
		"[link](http://foo.com/a_b_c)")

	// doesn't escape characters in autolinks
	serialize(doc(p(link(map[string]interface{}{"href": "https://example.com/_file/#~anchor"}, "https://example.com/_file/#~anchor"))),
		"<https://example.com/_file/#~anchor>")

	// escapes special characters
	serialize(doc(p("Foo *bar")), "Foo \\*bar")

	// doesn't accidentally generate list markup
	serialize(doc(p("1. foo")), "1\\. foo")

	// doesn't fail with a line break inside an inline mark
	serialize(doc(p(strong("text1\ntext2"))), "**text1\ntext2**")

	// drops trailing hard breaks
	serialize(doc(p("a", br, br)), "a")

	// expels enclosing whitespace from inside emphasis
	serialize(doc(p("Some emphasized text with", strong(em("  whitespace   ")), "surrounding the emphasis.")),
		"Some emphasized text with  ***whitespace***   surrounding the emphasis.")

	// drops nodes when all whitespace is expelled from them
	serialize(doc(p("Text with", em(" "), "an emphasized space")),
		"Text with an emphasized space")

	// doesn't put a code block after a list item inside the list item
	serialize(doc(ul(li(p("list item"))), pre("code")),
		"* list item\n\n```\ncode\n```")

	// doesn't escape characters in code
	serialize(doc(p("foo", code("*"))), "foo`*`")

	// doesn't escape underscores between word characters
	serialize(doc(p("abc_def")), "abc_def")
	serialize(doc(p("abc___def")), "abc___def")

	// escapes underscores at word boundaries
	serialize(doc(p("_abc_")), "\\_abc\\_")

	// escapes underscores surrounded by non-word characters
	serialize(doc(p("/_abc_)")), "/\\_abc\\_)")

	// escapes an exclamation mark in front of a link
	serialize(doc(p("!", a("text"))), "\\![text](foo)")

	// escapes parentheses in urls
	serialize(doc(p(a(map[string]interface{}{"href": "foo):"}, "link"))), "[link](foo\\):)")
	serialize(doc(p(a(map[string]interface{}{"href": "(foo"}, "link"))), "[link](\\(foo)")
	serialize(doc(p(img(map[string]interface{}{"src": "foo):"}))), "![x](foo\\):)")
	serialize(doc(p(img(map[string]interface{}{"src": "(foo"}))), "![x](\\(foo)")
	serialize(doc(p(a(map[string]interface{}{"title": "bar", "href": "foo%20\""}, "link"))), "[link](foo%20\\\" \"bar\")")

	// escapes list markers inside lists
	serialize(doc(ul(li(p("1. hi")), li(p("x")))),
		"* 1\\. hi\n\n* x")

	// adjusts the code block fence to its content
	serialize(doc(pre("```\ncode\n```")), "````\n```\ncode\n```\n````")
}
