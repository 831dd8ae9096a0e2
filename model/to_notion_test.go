package model_test

import (
	"testing"

	"github.com/dstotijn/go-notion"
	. "github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotionExport(t *testing.T) {
	blocks := CreatePageContent(doc(p("hello")).Node, builder.Schema)

	require.Len(t, blocks, 1)
	assert.Equal(t, notion.BlockTypeParagraph, blocks[0].Type)
	require.NotNil(t, blocks[0].Paragraph)
	require.Len(t, blocks[0].Paragraph.Text, 1)
	assert.Equal(t, "hello", blocks[0].Paragraph.Text[0].PlainText)
	assert.Equal(t, "hello", blocks[0].Paragraph.Text[0].Text.Content)
}

func TestNotionExportMarks(t *testing.T) {
	blocks := CreatePageContent(doc(p("plain ", em("italic"), strong("bold"))).Node, builder.Schema)

	require.Len(t, blocks, 1)
	text := blocks[0].Paragraph.Text
	require.Len(t, text, 3)

	assert.Nil(t, text[0].Annotations)

	require.NotNil(t, text[1].Annotations)
	assert.True(t, text[1].Annotations.Italic)
	assert.False(t, text[1].Annotations.Bold)

	require.NotNil(t, text[2].Annotations)
	assert.True(t, text[2].Annotations.Bold)
}

func TestNotionExportHeadings(t *testing.T) {
	blocks := CreatePageContent(doc(h1("one"), h2("two"), p("text")).Node, builder.Schema)

	require.Len(t, blocks, 3)
	assert.Equal(t, notion.BlockTypeHeading1, blocks[0].Type)
	require.NotNil(t, blocks[0].Heading1)
	assert.Equal(t, "one", blocks[0].Heading1.Text[0].PlainText)

	assert.Equal(t, notion.BlockTypeHeading2, blocks[1].Type)
	require.NotNil(t, blocks[1].Heading2)
	assert.Equal(t, "two", blocks[1].Heading2.Text[0].PlainText)

	assert.Equal(t, notion.BlockTypeParagraph, blocks[2].Type)
}

func TestNotionExportLists(t *testing.T) {
	blocks := CreatePageContent(
		doc(ul(li(p("one")), li(p("two"))), p("after")).Node,
		builder.Schema)

	require.Len(t, blocks, 3)
	assert.Equal(t, notion.BlockTypeBulletedListItem, blocks[0].Type)
	require.NotNil(t, blocks[0].BulletedListItem)
	assert.Equal(t, "one", blocks[0].BulletedListItem.Text[0].PlainText)
	assert.Equal(t, notion.BlockTypeBulletedListItem, blocks[1].Type)
	assert.Equal(t, "two", blocks[1].BulletedListItem.Text[0].PlainText)
	assert.Equal(t, notion.BlockTypeParagraph, blocks[2].Type)
}

func TestNotionExportLineBreak(t *testing.T) {
	blocks := CreatePageContent(doc(p("hi", br, "there")).Node, builder.Schema)

	require.Len(t, blocks, 1)
	text := blocks[0].Paragraph.Text
	require.Len(t, text, 3)
	assert.Equal(t, "hi", text[0].PlainText)
	assert.Equal(t, "\n", text[1].PlainText)
	assert.Equal(t, "there", text[2].PlainText)
}

func TestNotionExportLink(t *testing.T) {
	blocks := CreatePageContent(doc(p(a("click"))).Node, builder.Schema)

	require.Len(t, blocks, 1)
	text := blocks[0].Paragraph.Text
	require.Len(t, text, 1)
	require.NotNil(t, text[0].Text.Link)
	assert.Equal(t, "foo", text[0].Text.Link.URL)
}
