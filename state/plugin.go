package state

import (
	"github.com/fieldmark/fieldmark/decoration"
	"github.com/fieldmark/fieldmark/model"
)

// PluginKey is the capability token under which a plugin's state is stored
// in an editor state. Key identity is the key value itself; two keys with
// the same name are still distinct.
type PluginKey struct {
	// Name is used for debugging, never for lookup.
	Name string
}

// NewPluginKey creates a plugin key with the given name.
func NewPluginKey(name string) *PluginKey {
	return &PluginKey{Name: name}
}

// Get returns the plugin registered under this key in the given state, or
// nil when no such plugin is registered.
func (k *PluginKey) Get(state *EditorState) *Plugin {
	for _, p := range state.Plugins {
		if p.key == k {
			return p
		}
	}
	return nil
}

// GetState returns this key's plugin state in the given state. Lookups for
// an unregistered key return nil.
func (k *PluginKey) GetState(state *EditorState) interface{} {
	return state.fields[k]
}

// StateField describes the derived state a plugin maintains across
// transactions.
type StateField struct {
	// Init computes the initial value when a state is created.
	Init func(config Config, state *EditorState) interface{}
	// Apply computes the value for the next state from a transaction and
	// the previous value. newState is the state being constructed; its
	// document and selection are final, plugin states registered after
	// this one still hold their old values.
	Apply func(tr *Transaction, value interface{}, oldState, newState *EditorState) interface{}
}

// Handler is a boolean event interception hook. The event value is opaque
// to the engine; returning true marks the event as handled and stops the
// chain.
type Handler func(state *EditorState, event interface{}) bool

// NodeViewConstructor builds a host-side view for a node. Opaque to the
// engine, which only stores and forwards it.
type NodeViewConstructor func(node *model.Node, pos int) interface{}

// Props are the handler slots a plugin (or the host directly) can fill in.
// Nil slots are skipped during resolution.
type Props struct {
	HandleKeyDown     Handler
	HandleTextInput   Handler
	HandleClick       Handler
	HandleDoubleClick Handler
	HandlePaste       Handler
	HandleDrop        Handler

	// Decorations computes the plugin's decorations for a render pass.
	Decorations func(state *EditorState) *decoration.Set
	// NodeViews maps node type names to view constructors.
	NodeViews map[string]NodeViewConstructor
	// Editable decides whether the document can be edited.
	Editable func(state *EditorState) bool
	// Attributes contributes attributes for the host's outer element.
	Attributes func(state *EditorState) map[string]string
}

// PluginSpec configures a plugin.
type PluginSpec struct {
	// Key makes the plugin's state reachable by key. Optional; a plugin
	// without a key can still be found through the state's plugin list.
	Key *PluginKey
	// State defines the plugin's derived state.
	State *StateField
	// Props are the plugin's contribution to the prop resolution chain.
	Props Props
	// FilterTransaction can veto a transaction before it is applied.
	// Returning false rejects it.
	FilterTransaction func(tr *Transaction, state *EditorState) bool
	// AppendTransaction is consulted after a transaction (or another
	// plugin's appended transaction) has been applied, and may return an
	// extra transaction against newState to merge into the same apply.
	AppendTransaction func(trs []*Transaction, oldState, newState *EditorState) *Transaction
}

// Plugin bundles functionality that can be added to an editor state.
type Plugin struct {
	Spec PluginSpec
	key  *PluginKey
}

// NewPlugin creates a plugin from its spec.
func NewPlugin(spec PluginSpec) *Plugin {
	key := spec.Key
	if key == nil {
		key = NewPluginKey("plugin")
	}
	return &Plugin{Spec: spec, key: key}
}

// Key returns the key the plugin's state is stored under.
func (p *Plugin) Key() *PluginKey {
	return p.key
}

// GetState returns this plugin's state in the given editor state.
func (p *Plugin) GetState(state *EditorState) interface{} {
	return state.fields[p.key]
}
