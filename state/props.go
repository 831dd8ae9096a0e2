package state

import (
	"github.com/fieldmark/fieldmark/decoration"
)

// PropResolver resolves props against a set of direct (host-level) props
// and the plugins of a state. Direct props are consulted first, then each
// plugin in registration order.
type PropResolver struct {
	// Direct are the host's own props, which take precedence over every
	// plugin. May be nil.
	Direct *Props
	State  *EditorState
}

func (r *PropResolver) each(fn func(props *Props) bool) {
	if r.Direct != nil && fn(r.Direct) {
		return
	}
	for _, plugin := range r.State.Plugins {
		if fn(&plugin.Spec.Props) {
			return
		}
	}
}

func (r *PropResolver) handle(event interface{}, get func(props *Props) Handler) bool {
	handled := false
	r.each(func(props *Props) bool {
		h := get(props)
		if h != nil && h(r.State, event) {
			handled = true
			return true
		}
		return false
	})
	return handled
}

// HandleKeyDown runs the key handlers until one returns true.
func (r *PropResolver) HandleKeyDown(event interface{}) bool {
	return r.handle(event, func(p *Props) Handler { return p.HandleKeyDown })
}

// HandleTextInput runs the text input handlers until one returns true.
func (r *PropResolver) HandleTextInput(event interface{}) bool {
	return r.handle(event, func(p *Props) Handler { return p.HandleTextInput })
}

// HandleClick runs the click handlers until one returns true.
func (r *PropResolver) HandleClick(event interface{}) bool {
	return r.handle(event, func(p *Props) Handler { return p.HandleClick })
}

// HandleDoubleClick runs the double-click handlers until one returns true.
func (r *PropResolver) HandleDoubleClick(event interface{}) bool {
	return r.handle(event, func(p *Props) Handler { return p.HandleDoubleClick })
}

// HandlePaste runs the paste handlers until one returns true.
func (r *PropResolver) HandlePaste(event interface{}) bool {
	return r.handle(event, func(p *Props) Handler { return p.HandlePaste })
}

// HandleDrop runs the drop handlers until one returns true.
func (r *PropResolver) HandleDrop(event interface{}) bool {
	return r.handle(event, func(p *Props) Handler { return p.HandleDrop })
}

// Editable returns the first editable predicate's verdict, or true when
// none is set.
func (r *PropResolver) Editable() bool {
	editable := true
	r.each(func(props *Props) bool {
		if props.Editable == nil {
			return false
		}
		editable = props.Editable(r.State)
		return true
	})
	return editable
}

// Attributes returns the first non-nil attributes result.
func (r *PropResolver) Attributes() map[string]string {
	var attrs map[string]string
	r.each(func(props *Props) bool {
		if props.Attributes == nil {
			return false
		}
		attrs = props.Attributes(r.State)
		return attrs != nil
	})
	return attrs
}

// NodeViews returns the first non-nil node view table.
func (r *PropResolver) NodeViews() map[string]NodeViewConstructor {
	var views map[string]NodeViewConstructor
	r.each(func(props *Props) bool {
		if props.NodeViews != nil {
			views = props.NodeViews
			return true
		}
		return false
	})
	return views
}

// Decorations collects every contributor's decorations into one set.
// Unlike the other props this is a union, not a first match.
func (r *PropResolver) Decorations() *decoration.Set {
	var sets []*decoration.Set
	r.each(func(props *Props) bool {
		if props.Decorations != nil {
			if set := props.Decorations(r.State); set.Size() > 0 {
				sets = append(sets, set)
			}
		}
		return false
	})
	return decoration.Union(sets...)
}
