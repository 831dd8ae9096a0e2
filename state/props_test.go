package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldmark/fieldmark/decoration"
)

func handlerPlugin(name string, result bool, calls *[]string) *Plugin {
	return NewPlugin(PluginSpec{
		Props: Props{
			HandleKeyDown: func(_ *EditorState, _ interface{}) bool {
				*calls = append(*calls, name)
				return result
			},
		},
	})
}

func TestPropShortCircuit(t *testing.T) {
	var calls []string
	st := mkState(t, doc(p("hello")).Node,
		handlerPlugin("first", true, &calls),
		handlerPlugin("second", true, &calls),
	)
	r := &PropResolver{State: st}

	assert.True(t, r.HandleKeyDown("Enter"))
	assert.Equal(t, []string{"first"}, calls)

	// handlers that decline pass the event on
	calls = nil
	st = mkState(t, doc(p("hello")).Node,
		handlerPlugin("first", false, &calls),
		handlerPlugin("second", false, &calls),
	)
	r = &PropResolver{State: st}
	assert.False(t, r.HandleKeyDown("Enter"))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPropDirectFirst(t *testing.T) {
	var calls []string
	st := mkState(t, doc(p("hello")).Node, handlerPlugin("plugin", true, &calls))
	r := &PropResolver{
		Direct: &Props{
			HandleKeyDown: func(_ *EditorState, _ interface{}) bool {
				calls = append(calls, "direct")
				return false
			},
		},
		State: st,
	}

	assert.True(t, r.HandleKeyDown("Enter"))
	assert.Equal(t, []string{"direct", "plugin"}, calls)
}

func TestPropEditable(t *testing.T) {
	st := mkState(t, doc(p("hello")).Node)
	r := &PropResolver{State: st}
	assert.True(t, r.Editable())

	readonly := NewPlugin(PluginSpec{
		Props: Props{Editable: func(_ *EditorState) bool { return false }},
	})
	st = mkState(t, doc(p("hello")).Node, readonly)
	r = &PropResolver{State: st}
	assert.False(t, r.Editable())
}

func TestPropDecorationsUnion(t *testing.T) {
	highlight := NewPlugin(PluginSpec{
		Props: Props{
			Decorations: func(_ *EditorState) *decoration.Set {
				return decoration.NewSet(decoration.Inline(1, 4, map[string]string{"class": "hl"}))
			},
		},
	})
	cursor := NewPlugin(PluginSpec{
		Props: Props{
			Decorations: func(_ *EditorState) *decoration.Set {
				return decoration.NewSet(decoration.Widget(2, "cursor"))
			},
		},
	})
	st := mkState(t, doc(p("hello")).Node, highlight, cursor)
	r := &PropResolver{State: st}

	set := r.Decorations()
	assert.Equal(t, 2, set.Size())
	assert.Len(t, set.Find(2, 2), 2)
}

func TestPropHandlerKinds(t *testing.T) {
	hit := map[string]bool{}
	mark := func(name string) Handler {
		return func(_ *EditorState, _ interface{}) bool {
			hit[name] = true
			return true
		}
	}
	plugin := NewPlugin(PluginSpec{
		Props: Props{
			HandleTextInput:   mark("input"),
			HandleClick:       mark("click"),
			HandleDoubleClick: mark("doubleClick"),
			HandlePaste:       mark("paste"),
			HandleDrop:        mark("drop"),
		},
	})
	st := mkState(t, doc(p("hello")).Node, plugin)
	r := &PropResolver{State: st}

	assert.True(t, r.HandleTextInput("a"))
	assert.True(t, r.HandleClick(nil))
	assert.True(t, r.HandleDoubleClick(nil))
	assert.True(t, r.HandlePaste(nil))
	assert.True(t, r.HandleDrop(nil))
	assert.False(t, r.HandleKeyDown(nil))
	assert.Len(t, hit, 5)
}
