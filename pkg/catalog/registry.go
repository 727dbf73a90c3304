package catalog

import "fmt"

// Registry is the immutable kind catalog. Build it once with New and
// inject it; it is safe for concurrent readers.
type Registry struct {
	kinds map[string]ComponentKind
	order []string
}

// New builds a registry from the given kinds. Duplicate type tags are
// a programming error and panic at startup, not at runtime.
func New(kinds ...ComponentKind) *Registry {
	r := &Registry{kinds: make(map[string]ComponentKind, len(kinds))}
	for _, k := range kinds {
		if k.Type == "" {
			panic("catalog: kind with empty type tag")
		}
		if _, dup := r.kinds[k.Type]; dup {
			panic(fmt.Sprintf("catalog: duplicate kind %q", k.Type))
		}
		r.kinds[k.Type] = k
		r.order = append(r.order, k.Type)
	}
	return r
}

// Lookup returns the kind registered under the type tag.
func (r *Registry) Lookup(kind string) (ComponentKind, bool) {
	k, ok := r.kinds[kind]
	return k, ok
}

// Kinds returns all kinds in registration order (the palette order).
func (r *Registry) Kinds() []ComponentKind {
	out := make([]ComponentKind, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.kinds[t])
	}
	return out
}

// DefaultProps implements canvas.Catalog.
func (r *Registry) DefaultProps(kind string) (map[string]any, bool) {
	k, ok := r.kinds[kind]
	if !ok {
		return nil, false
	}
	return k.DefaultProps, true
}

// IsContainer implements canvas.Catalog.
func (r *Registry) IsContainer(kind string) bool {
	k, ok := r.kinds[kind]
	return ok && k.Container
}
