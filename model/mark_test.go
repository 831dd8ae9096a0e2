package model_test

import (
	"testing"

	. "github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/test/builder"
	"github.com/stretchr/testify/assert"
)

func TestMarkSameSet(t *testing.T) {
	// returns true for two empty sets
	assert.True(t, SameMarkSet([]*Mark{}, []*Mark{}))

	// returns true for simple identical sets
	assert.True(t, SameMarkSet([]*Mark{em2, strong2}, []*Mark{em2, strong2}))

	// returns false for different sets
	assert.False(t, SameMarkSet([]*Mark{em2, strong2}, []*Mark{em2, code2}))

	// returns false when set size differs
	assert.False(t, SameMarkSet([]*Mark{em2, strong2}, []*Mark{em2, strong2, code2}))

	// recognizes identical links in set
	assert.True(t, SameMarkSet(
		[]*Mark{link("http://foo"), code2},
		[]*Mark{link("http://foo"), code2}))

	// recognizes different links in set
	assert.False(t, SameMarkSet(
		[]*Mark{link("http://foo"), code2},
		[]*Mark{link("http://bar"), code2}))
}

func TestMarkEq(t *testing.T) {
	// considers identical links to be the same
	assert.True(t, link("http://foo").Eq(link("http://foo")))

	// considers different links to differ
	assert.False(t, link("http://foo").Eq(link("http://bar")))

	// considers links with different titles to differ
	assert.False(t, link("http://foo").Eq(link("http://foo", "B")))
}

func TestMarkAddToSet(t *testing.T) {
	// can add to the empty set
	assert.True(t, SameMarkSet(
		em2.AddToSet([]*Mark{}),
		[]*Mark{em2},
	))

	// is a no-op when the added thing is in set
	assert.True(t, SameMarkSet(
		em2.AddToSet([]*Mark{em2}),
		[]*Mark{em2},
	))

	// adds marks with lower rank before others
	assert.True(t, SameMarkSet(
		em2.AddToSet([]*Mark{strong2}),
		[]*Mark{em2, strong2},
	))

	// adds marks with higher rank after others
	assert.True(t, SameMarkSet(
		strong2.AddToSet([]*Mark{em2}),
		[]*Mark{em2, strong2},
	))

	// replaces different marks with new attributes
	assert.True(t, SameMarkSet(
		link("http://bar").AddToSet([]*Mark{link("http://foo"), em2}),
		[]*Mark{link("http://bar"), em2},
	))

	// does nothing when adding an existing link
	assert.True(t, SameMarkSet(
		link("http://foo").AddToSet([]*Mark{em2, link("http://foo")}),
		[]*Mark{em2, link("http://foo")},
	))

	// puts code marks at the end
	assert.True(t, SameMarkSet(
		code2.AddToSet([]*Mark{em2, strong2, link("http://foo")}),
		[]*Mark{em2, strong2, link("http://foo"), code2},
	))

	// puts marks with middle rank in the middle
	assert.True(t, SameMarkSet(
		strong2.AddToSet([]*Mark{em2, code2}),
		[]*Mark{em2, strong2, code2},
	))
}

func TestMarkRemoveFromSet(t *testing.T) {
	// is a no-op for the empty set
	assert.True(t, SameMarkSet(
		em2.RemoveFromSet([]*Mark{}),
		[]*Mark{},
	))

	// can remove the last mark from a set
	assert.True(t, SameMarkSet(
		em2.RemoveFromSet([]*Mark{em2}),
		[]*Mark{},
	))

	// is a no-op when the mark isn't in the set
	assert.True(t, SameMarkSet(
		em2.RemoveFromSet([]*Mark{strong2}),
		[]*Mark{strong2},
	))

	// can remove a mark with attributes
	assert.True(t, SameMarkSet(
		link("http://foo").RemoveFromSet([]*Mark{link("http://foo")}),
		[]*Mark{},
	))

	// doesn't remove a mark when its attrs differ
	assert.True(t, SameMarkSet(
		link("http://foo", "title").RemoveFromSet([]*Mark{link("http://foo")}),
		[]*Mark{link("http://foo")},
	))
}

func TestRangeHasMark(t *testing.T) {
	isAt := func(doc builder.NodeWithTag, mark *Mark, result bool) {
		assert.Equal(t, doc.RangeHasMark(doc.Tag["a"], doc.Tag["b"], mark.Type), result)
	}

	// recognizes a mark exists inside a range
	isAt(doc(p("fo<a>o", em("b<b>ar"))), em2, true)

	// recognizes a mark doesn't exist in a range
	isAt(doc(p("fo<a>o", em("b<b>ar"))), strong2, false)

	// finds a mark that covers the whole range
	isAt(doc(p("hello", em("<a>wor<b>ld"))), em2, true)
}
