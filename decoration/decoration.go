// Package decoration provides visual annotations anchored to document
// positions. Decorations carry no document nodes, only positions and
// attribute maps, so a set can outlive any particular document value and be
// carried across edits by mapping its anchors.
package decoration

import (
	"fmt"

	"github.com/fieldmark/fieldmark/transform"
)

// Kind distinguishes the three decoration shapes.
type Kind int

const (
	// WidgetKind marks a zero-width decoration at a single point, carrying
	// an opaque render callback.
	WidgetKind Kind = iota
	// InlineKind marks a decoration over a range of inline content.
	InlineKind
	// NodeKind marks a decoration covering a single node, from the position
	// before it to the position after it.
	NodeKind
)

// Decoration is an immutable annotation on a range of the document. Widget
// decorations have From == To.
type Decoration struct {
	From int
	To   int
	Kind Kind
	// Attrs are the attributes the host should render the decorated range
	// with. Nil for widgets.
	Attrs map[string]string
	// Renderer is the opaque callback of a widget decoration. The engine
	// stores and forwards it, never calls it.
	Renderer interface{}
	// Spec holds extra options ("side", "inclusiveStart", "inclusiveEnd")
	// and whatever the creating plugin wants to find again later.
	Spec map[string]interface{}
}

// Widget creates a decoration at a single point. The renderer is opaque to
// the engine. spec may carry a "side" int that determines which side of
// content inserted at the point the widget ends up on (negative for before).
func Widget(pos int, renderer interface{}, spec ...map[string]interface{}) *Decoration {
	d := &Decoration{From: pos, To: pos, Kind: WidgetKind, Renderer: renderer}
	if len(spec) > 0 {
		d.Spec = spec[0]
	}
	return d
}

// Inline creates a decoration over a range of inline content. spec may carry
// "inclusiveStart"/"inclusiveEnd" bools that make the range grow to include
// content inserted at its edges.
func Inline(from, to int, attrs map[string]string, spec ...map[string]interface{}) *Decoration {
	d := &Decoration{From: from, To: to, Kind: InlineKind, Attrs: attrs}
	if len(spec) > 0 {
		d.Spec = spec[0]
	}
	return d
}

// Node creates a decoration covering the single node between from and to.
func Node(from, to int, attrs map[string]string, spec ...map[string]interface{}) *Decoration {
	d := &Decoration{From: from, To: to, Kind: NodeKind, Attrs: attrs}
	if len(spec) > 0 {
		d.Spec = spec[0]
	}
	return d
}

func (d *Decoration) specBool(name string) bool {
	if d.Spec == nil {
		return false
	}
	b, _ := d.Spec[name].(bool)
	return b
}

func (d *Decoration) side() int {
	if d.Spec == nil {
		return 0
	}
	switch s := d.Spec["side"].(type) {
	case int:
		return s
	case float64:
		return int(s)
	}
	return 0
}

// Map returns the decoration with its anchors moved through the mapping, or
// nil when the content it was anchored to was deleted.
func (d *Decoration) Map(mapping transform.Mappable) *Decoration {
	switch d.Kind {
	case WidgetKind:
		assoc := 1
		if d.side() < 0 {
			assoc = -1
		}
		result := mapping.MapResult(d.From, assoc)
		if result.Deleted() {
			return nil
		}
		return &Decoration{From: result.Pos, To: result.Pos, Kind: WidgetKind, Renderer: d.Renderer, Spec: d.Spec}
	case InlineKind:
		fromAssoc, toAssoc := 1, -1
		if d.specBool("inclusiveStart") {
			fromAssoc = -1
		}
		if d.specBool("inclusiveEnd") {
			toAssoc = 1
		}
		from := mapping.Map(d.From, fromAssoc)
		to := mapping.Map(d.To, toAssoc)
		if from >= to {
			return nil
		}
		return &Decoration{From: from, To: to, Kind: InlineKind, Attrs: d.Attrs, Spec: d.Spec}
	default:
		from := mapping.MapResult(d.From, 1)
		to := mapping.MapResult(d.To, -1)
		if from.Deleted() || to.Deleted() || from.Pos >= to.Pos {
			return nil
		}
		return &Decoration{From: from.Pos, To: to.Pos, Kind: NodeKind, Attrs: d.Attrs, Spec: d.Spec}
	}
}

// Eq reports whether two decorations have the same shape, anchors and
// attributes. Widget renderers are compared by identity of the decoration,
// not the callback.
func (d *Decoration) Eq(other *Decoration) bool {
	if d == other {
		return true
	}
	if d.Kind != other.Kind || d.From != other.From || d.To != other.To {
		return false
	}
	if len(d.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range d.Attrs {
		if w, ok := other.Attrs[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func (d *Decoration) String() string {
	switch d.Kind {
	case WidgetKind:
		return fmt.Sprintf("widget(%d)", d.From)
	case InlineKind:
		return fmt.Sprintf("inline(%d-%d)", d.From, d.To)
	default:
		return fmt.Sprintf("node(%d-%d)", d.From, d.To)
	}
}
