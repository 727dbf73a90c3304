package canvas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Catalog is the slice of the component registry the store needs:
// default props to clone on create and container-ness to uphold the
// children invariant. Satisfied by catalog.Registry.
type Catalog interface {
	DefaultProps(kind string) (map[string]any, bool)
	IsContainer(kind string) bool
}

// ErrNotFound is returned when an instance ID is not in the tree.
var ErrNotFound = fmt.Errorf("canvas: instance not found")

// ErrUnknownKind is returned when creating an instance of an
// unregistered kind.
var ErrUnknownKind = fmt.Errorf("canvas: unknown component kind")

// ErrNotContainer is returned when attaching a child to a kind that
// cannot hold children.
var ErrNotContainer = fmt.Errorf("canvas: parent kind is not a container")

// Store is the mutable instance tree of one open project.
type Store struct {
	catalog  Catalog
	roots    []*Instance
	index    map[string]*Instance
	selected string
	version  uint64

	newID func() string
}

// NewStore creates an empty store backed by the given catalog.
func NewStore(catalog Catalog) *Store {
	return &Store{
		catalog: catalog,
		index:   make(map[string]*Instance),
		newID:   func() string { return uuid.NewString() },
	}
}

// Version returns the tree version, bumped on every mutation.
func (s *Store) Version() uint64 { return s.version }

// Roots returns the top-level instances in order.
func (s *Store) Roots() []*Instance { return s.roots }

// Find returns the instance with the given ID.
func (s *Store) Find(id string) (*Instance, bool) {
	inst, ok := s.index[id]
	return inst, ok
}

// Len returns the number of instances in the tree.
func (s *Store) Len() int { return len(s.index) }

// Selected returns the selected instance ID, or "" when none.
func (s *Store) Selected() string { return s.selected }

// Select marks one instance as selected; "" clears the selection.
func (s *Store) Select(id string) error {
	if id != "" {
		if _, ok := s.index[id]; !ok {
			return ErrNotFound
		}
	}
	s.selected = id
	s.version++
	return nil
}

// Create places a new instance of the given kind at the position,
// cloning the kind's default props. parentID attaches it to a
// container; "" places it at top level.
func (s *Store) Create(kind string, pos Position, parentID string) (*Instance, error) {
	defaults, ok := s.catalog.DefaultProps(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	inst := &Instance{
		ID:       s.newID(),
		Kind:     kind,
		Position: clampPos(pos),
		Props:    cloneMap(defaults),
	}

	if parentID == "" {
		s.roots = append(s.roots, inst)
	} else {
		parent, ok := s.index[parentID]
		if !ok {
			return nil, fmt.Errorf("%w: parent %q", ErrNotFound, parentID)
		}
		if !s.catalog.IsContainer(parent.Kind) {
			return nil, fmt.Errorf("%w: %q", ErrNotContainer, parent.Kind)
		}
		inst.ParentID = parent.ID
		parent.Children = append(parent.Children, inst)
	}

	s.index[inst.ID] = inst
	s.version++
	return inst, nil
}

// Move repositions an instance. Coordinates are clamped non-negative.
func (s *Store) Move(id string, pos Position) error {
	inst, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	inst.Position = clampPos(pos)
	s.version++
	return nil
}

// Resize sets an instance's width and height, clamped non-negative.
func (s *Store) Resize(id string, width, height float64) error {
	inst, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	inst.Width = max(width, 0)
	inst.Height = max(height, 0)
	s.version++
	return nil
}

// UpdateProp writes a value at a dotted path into the instance:
// "label", "width", "position.x", or "props.<...>" with nested maps
// created on demand. Layout numbers are clamped non-negative; any
// further validation belongs to the property panel's editors.
func (s *Store) UpdateProp(id, path string, value any) error {
	inst, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}

	head, rest, _ := strings.Cut(path, ".")
	switch head {
	case "label":
		inst.Label = fmt.Sprint(value)
	case "width":
		inst.Width = max(toFloat(value), 0)
	case "height":
		inst.Height = max(toFloat(value), 0)
	case "position":
		switch rest {
		case "x":
			inst.Position.X = max(toFloat(value), 0)
		case "y":
			inst.Position.Y = max(toFloat(value), 0)
		default:
			return fmt.Errorf("canvas: unknown position field %q", rest)
		}
	case "props":
		if rest == "" {
			return fmt.Errorf("canvas: empty props path")
		}
		if inst.Props == nil {
			inst.Props = make(map[string]any)
		}
		setPath(inst.Props, strings.Split(rest, "."), cloneValue(value))
	default:
		return fmt.Errorf("canvas: unknown property path %q", path)
	}

	s.version++
	return nil
}

// SetEventHandler stores handler code for an event name. Empty code
// removes the handler, making that interaction a no-op again.
func (s *Store) SetEventHandler(id, event, name, code string) error {
	inst, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	if code == "" {
		delete(inst.EventHandlers, event)
	} else {
		if inst.EventHandlers == nil {
			inst.EventHandlers = make(map[string]EventHandler)
		}
		inst.EventHandlers[event] = EventHandler{Name: name, Code: code}
	}
	s.version++
	return nil
}

// Delete removes an instance and its whole subtree, detaches it from
// its parent, and clears the selection if a deleted instance held it.
func (s *Store) Delete(id string) error {
	inst, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}

	inst.Walk(func(n *Instance) {
		delete(s.index, n.ID)
		if s.selected == n.ID {
			s.selected = ""
		}
	})

	if inst.ParentID == "" {
		s.roots = removeInstance(s.roots, inst)
	} else if parent, ok := s.index[inst.ParentID]; ok {
		parent.Children = removeInstance(parent.Children, inst)
	}

	s.version++
	return nil
}

// Snapshot returns a deep copy of the root instances, suitable for
// persistence and export.
func (s *Store) Snapshot() []*Instance {
	out := make([]*Instance, len(s.roots))
	for i, root := range s.roots {
		out[i] = root.Clone()
	}
	return out
}

// Restore replaces the tree with a deep copy of the given roots and
// clears the selection. ParentID back-references are rewritten from
// the tree structure, which is the authority.
func (s *Store) Restore(roots []*Instance) {
	s.roots = make([]*Instance, 0, len(roots))
	s.index = make(map[string]*Instance)
	s.selected = ""

	for _, root := range roots {
		dup := root.Clone()
		dup.ParentID = ""
		s.roots = append(s.roots, dup)
		dup.Walk(func(n *Instance) {
			s.index[n.ID] = n
			for _, child := range n.Children {
				child.ParentID = n.ID
			}
		})
	}
	s.version++
}

func removeInstance(list []*Instance, target *Instance) []*Instance {
	for i, inst := range list {
		if inst == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func clampPos(pos Position) Position {
	return Position{X: max(pos.X, 0), Y: max(pos.Y, 0)}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

// setPath writes value at the path, creating intermediate maps.
func setPath(m map[string]any, path []string, value any) {
	for len(path) > 1 {
		next, ok := m[path[0]].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[path[0]] = next
		}
		m = next
		path = path[1:]
	}
	m[path[0]] = value
}
