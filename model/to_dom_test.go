package model_test

import (
	"bytes"
	"testing"

	. "github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/test/builder"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func testDOM(t *testing.T, doc builder.NodeWithTag, htmlExpected interface{}, serializer *DOMSerializer, msg string) {
	output := serializer.SerializeFragment(doc.Content, nil)
	buf := new(bytes.Buffer)
	err := html.Render(buf, output)
	assert.Nil(t, err)
	assert.Contains(t, htmlExpected, buf.String(), msg)
}

func TestDOMSerializer(t *testing.T) {
	schema := AddDefaultToDOM(builder.Schema)
	serializer := DOMSerializerFromSchema(schema)

	testDOM(t,
		doc(p("hello")),
		"<p>hello</p>",
		serializer,
		"should represent a simple node")

	testDOM(t,
		doc(p("hi", br, "there")),
		"<p>hi<br/>there</p>",
		serializer,
		"should represent a line break")

	testDOM(t,
		doc(p("hi", imageWithAttrs("x", "img.png"), "there")),
		[]string{`<p>hi<img src="img.png" alt="x"/>there</p>`, `<p>hi<img alt="x" src="img.png"/>there</p>`},
		serializer,
		"should represent an image")

	testDOM(t,
		doc(p(em("emphasis"))),
		"<p><em>emphasis</em></p>",
		serializer,
		"should represent simple marks")

	testDOM(t,
		doc(ul(li(p("one")), li(p("two")), li(p("three", strong("!")))), p("after")),
		"<ul><li><p>one</p></li><li><p>two</p></li><li><p>three<strong>!</strong></p></li></ul><p>after</p>",
		serializer,
		"should represent an unordered list")

	testDOM(t,
		doc(ol(li(p("one")), li(p("two")), li(p("three", strong("!")))), p("after")),
		"<ol><li><p>one</p></li><li><p>two</p></li><li><p>three<strong>!</strong></p></li></ol><p>after</p>",
		serializer,
		"should represent an ordered list")

	testDOM(t,
		doc(blockquote(p("hello"), p("bye"))),
		"<blockquote><p>hello</p><p>bye</p></blockquote>",
		serializer,
		"should represent a blockquote")

	testDOM(t,
		doc(blockquote(blockquote(blockquote(p("he said"))), p("i said"))),
		"<blockquote><blockquote><blockquote><p>he said</p></blockquote></blockquote><p>i said</p></blockquote>",
		serializer,
		"should represent a nested blockquote")

	testDOM(t,
		doc(h1("one"), h2("two"), p("text")),
		"<h1>one</h1><h2>two</h2><p>text</p>",
		serializer,
		"should represent headings")

	// The builder applies marks per text node, so adjacent nodes that share
	// a code mark render with separate tags.
	testDOM(t,
		doc(p("text and ", code("code that is ", em("emphasized"), "..."))),
		[]string{"<p>text and <code>code that is </code><em><code>emphasized</code></em><code>...</code></p>",
			"<p>text and <code>code that is </code><code><em>emphasized</em></code><code>...</code></p>"},
		serializer,
		"should represent inline code")

	testDOM(t,
		doc(blockquote(pre("some code")), p("and")),
		"<blockquote><pre><code>some code</code></pre></blockquote><p>and</p>",
		serializer,
		"should represent a code block")

	testDOM(t,
		doc(p(em("hi", br, "x"))),
		[]string{"<p><em>hi<br>x</em></p>",
			"<p><em>hi<br/>x</em></p>"},
		serializer,
		"supports leaf nodes in marks")

	testDOM(t,
		doc(p("   hello ")),
		"<p>   hello </p>",
		serializer,
		"should not collapse non-breaking spaces")
}

func TestMarksOnBlockNodes(t *testing.T) {
	commentToDOM := func(n NodeOrMark) *html.Node {
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Div,
			Data:     "div",
			Attr: []html.Attribute{
				{Key: "class", Val: "comment"},
			},
		}
	}
	commentSpec := &MarkSpec{Key: "comment", ToDOM: commentToDOM}
	commentSchema, err := NewSchema(&SchemaSpec{
		Nodes: builder.Schema.Spec.Nodes,
		Marks: append(builder.Schema.Spec.Marks, commentSpec),
	})
	assert.NoError(t, err)

	out := builder.Builders(commentSchema, nil)
	bComment := out["comment"].(builder.MarkBuilder)
	bParagraph := out["paragraph"].(builder.NodeBuilder)
	bDoc := out["doc"].(builder.NodeBuilder)
	bStrong := out["strong"].(builder.MarkBuilder)

	commentSerializer := DOMSerializerFromSchema(commentSchema)

	testDOM(t,
		bDoc(bParagraph("one"), bComment(bParagraph("two"), bParagraph(bStrong("three"))), bParagraph("four")),
		"<p>one</p><div class=\"comment\"><p>two</p><p><strong>three</strong></p></div><p>four</p>",
		commentSerializer,
		"should serialize marks on block nodes")
}

func imageWithAttrs(alt string, src string) *Node {
	attrs := map[string]interface{}{"alt": alt, "src": src}
	image, err := schema.Node("image", attrs)
	if err != nil {
		return nil
	}
	return image
}
