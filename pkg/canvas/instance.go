// Package canvas holds the live component tree of an open project: the
// placed widget instances, their properties, handlers, and selection.
//
// The Store is session-scoped and single-writer: exactly one editing
// session mutates it, all mutations are synchronous, and every mutation
// bumps the observable tree version.
package canvas

import "encoding/json"

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EventHandler is user-authored handler code stored for one event name.
type EventHandler struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Instance is one placed, configured widget in the project tree.
//
// ParentID is a weak back-reference for lookup only; the parent owns
// the child through Children. A non-container instance never has
// children, and the tree has no cycles; both hold by construction.
type Instance struct {
	ID            string                  `json:"id"`
	Kind          string                  `json:"kind"`
	Label         string                  `json:"label,omitempty"`
	Position      Position                `json:"position"`
	Width         float64                 `json:"width,omitempty"`
	Height        float64                 `json:"height,omitempty"`
	Props         map[string]any          `json:"props,omitempty"`
	EventHandlers map[string]EventHandler `json:"eventHandlers,omitempty"`
	Children      []*Instance             `json:"children,omitempty"`
	ParentID      string                  `json:"parentId,omitempty"`
}

// Clone returns a deep copy of the instance and its subtree.
func (inst *Instance) Clone() *Instance {
	if inst == nil {
		return nil
	}
	dup := *inst
	dup.Props = cloneMap(inst.Props)
	if inst.EventHandlers != nil {
		dup.EventHandlers = make(map[string]EventHandler, len(inst.EventHandlers))
		for k, v := range inst.EventHandlers {
			dup.EventHandlers[k] = v
		}
	}
	if inst.Children != nil {
		dup.Children = make([]*Instance, len(inst.Children))
		for i, child := range inst.Children {
			dup.Children[i] = child.Clone()
		}
	}
	return &dup
}

// Walk visits the instance and every descendant in depth-first order.
func (inst *Instance) Walk(fn func(*Instance)) {
	if inst == nil {
		return
	}
	fn(inst)
	for _, child := range inst.Children {
		child.Walk(fn)
	}
}

// cloneMap deep-copies a props map. Values round-trip the same JSON
// shapes the snapshot format uses: nested maps, slices, and scalars.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case json.RawMessage:
		out := make(json.RawMessage, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
