package canvas

import (
	"encoding/json"
	"reflect"
	"testing"
)

// fakeCatalog registers a couple of kinds for store tests.
type fakeCatalog struct{}

func (fakeCatalog) DefaultProps(kind string) (map[string]any, bool) {
	switch kind {
	case "button":
		return map[string]any{"text": "Click me", "variant": "primary"}, true
	case "container":
		return map[string]any{"layout": "vertical"}, true
	case "table":
		return map[string]any{"dataSource": map[string]any{"type": "static"}}, true
	default:
		return nil, false
	}
}

func (fakeCatalog) IsContainer(kind string) bool { return kind == "container" }

func newTestStore() *Store { return NewStore(fakeCatalog{}) }

func TestCreateClonesDefaults(t *testing.T) {
	s := newTestStore()

	a, err := s.Create("button", Position{X: 10, Y: 20}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := s.Create("button", Position{}, "")

	a.Props["text"] = "Changed"
	if b.Props["text"] != "Click me" {
		t.Error("defaults must be deep-copied per instance")
	}
	if a.ID == b.ID {
		t.Error("instance IDs must be unique")
	}
	if a.Position.X != 10 || a.Position.Y != 20 {
		t.Errorf("position = %+v", a.Position)
	}
}

func TestCreateNestedDefaultNotShared(t *testing.T) {
	s := newTestStore()

	a, _ := s.Create("table", Position{}, "")
	b, _ := s.Create("table", Position{}, "")

	a.Props["dataSource"].(map[string]any)["type"] = "url"
	if b.Props["dataSource"].(map[string]any)["type"] != "static" {
		t.Error("nested default maps must not be shared between instances")
	}
}

func TestCreateUnknownKind(t *testing.T) {
	s := newTestStore()

	if _, err := s.Create("gizmo", Position{}, ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestCreateInContainer(t *testing.T) {
	s := newTestStore()

	parent, _ := s.Create("container", Position{}, "")
	child, err := s.Create("button", Position{}, parent.ID)
	if err != nil {
		t.Fatalf("create in container: %v", err)
	}

	if child.ParentID != parent.ID {
		t.Errorf("ParentID = %q, want %q", child.ParentID, parent.ID)
	}
	if len(parent.Children) != 1 || parent.Children[0] != child {
		t.Error("child not attached to parent")
	}
	if len(s.Roots()) != 1 {
		t.Errorf("child should not be a root, roots = %d", len(s.Roots()))
	}
}

func TestCreateInNonContainer(t *testing.T) {
	s := newTestStore()

	btn, _ := s.Create("button", Position{}, "")
	if _, err := s.Create("button", Position{}, btn.ID); err == nil {
		t.Fatal("attaching to a non-container must fail")
	}
}

func TestMoveClampsNegative(t *testing.T) {
	s := newTestStore()

	inst, _ := s.Create("button", Position{}, "")
	if err := s.Move(inst.ID, Position{X: -5, Y: 7}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if inst.Position.X != 0 || inst.Position.Y != 7 {
		t.Errorf("position = %+v, want clamped {0 7}", inst.Position)
	}
}

func TestResizeClamps(t *testing.T) {
	s := newTestStore()

	inst, _ := s.Create("button", Position{}, "")
	s.Resize(inst.ID, -10, 40)
	if inst.Width != 0 || inst.Height != 40 {
		t.Errorf("size = %v x %v, want 0 x 40", inst.Width, inst.Height)
	}
}

func TestUpdatePropPaths(t *testing.T) {
	s := newTestStore()
	inst, _ := s.Create("button", Position{}, "")

	cases := []struct {
		path  string
		value any
		check func() bool
	}{
		{"label", "Save", func() bool { return inst.Label == "Save" }},
		{"position.x", 33.0, func() bool { return inst.Position.X == 33 }},
		{"position.y", -4.0, func() bool { return inst.Position.Y == 0 }},
		{"width", 120.0, func() bool { return inst.Width == 120 }},
		{"props.text", "Go", func() bool { return inst.Props["text"] == "Go" }},
		{"props.style.color", "red", func() bool {
			style, _ := inst.Props["style"].(map[string]any)
			return style != nil && style["color"] == "red"
		}},
	}
	for _, tc := range cases {
		if err := s.UpdateProp(inst.ID, tc.path, tc.value); err != nil {
			t.Fatalf("UpdateProp(%q): %v", tc.path, err)
		}
		if !tc.check() {
			t.Errorf("UpdateProp(%q) had no effect", tc.path)
		}
	}

	if err := s.UpdateProp(inst.ID, "bogus.path", 1); err == nil {
		t.Error("unknown path should error")
	}
}

func TestSetEventHandler(t *testing.T) {
	s := newTestStore()
	inst, _ := s.Create("button", Position{}, "")

	s.SetEventHandler(inst.ID, "click", "onClick", "console.log(event)")
	h, ok := inst.EventHandlers["click"]
	if !ok || h.Code != "console.log(event)" {
		t.Fatalf("handler not stored: %+v", inst.EventHandlers)
	}

	// Empty code removes the handler.
	s.SetEventHandler(inst.ID, "click", "", "")
	if _, ok := inst.EventHandlers["click"]; ok {
		t.Error("empty code should remove the handler")
	}
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore()

	outer, _ := s.Create("container", Position{}, "")
	inner, _ := s.Create("container", Position{}, outer.ID)
	leaf, _ := s.Create("button", Position{}, inner.ID)
	sibling, _ := s.Create("button", Position{}, "")

	s.Select(leaf.ID)

	if err := s.Delete(outer.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, id := range []string{outer.ID, inner.ID, leaf.ID} {
		if _, ok := s.Find(id); ok {
			t.Errorf("instance %s survived cascade", id)
		}
	}
	if _, ok := s.Find(sibling.ID); !ok {
		t.Error("sibling should survive")
	}
	if s.Selected() != "" {
		t.Errorf("selection should clear when the selected instance dies, got %q", s.Selected())
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestDeleteDetachesFromParent(t *testing.T) {
	s := newTestStore()

	parent, _ := s.Create("container", Position{}, "")
	child, _ := s.Create("button", Position{}, parent.ID)

	s.Delete(child.ID)
	if len(parent.Children) != 0 {
		t.Error("deleted child still attached to parent")
	}
}

func TestSelectUnknown(t *testing.T) {
	s := newTestStore()
	if err := s.Select("nope"); err == nil {
		t.Error("selecting an unknown id should error")
	}
	if err := s.Select(""); err != nil {
		t.Errorf("clearing selection: %v", err)
	}
}

func TestVersionBumpsOnMutation(t *testing.T) {
	s := newTestStore()

	v := s.Version()
	inst, _ := s.Create("button", Position{}, "")
	if s.Version() == v {
		t.Error("create should bump version")
	}

	v = s.Version()
	s.Move(inst.ID, Position{X: 1})
	if s.Version() == v {
		t.Error("move should bump version")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()

	parent, _ := s.Create("container", Position{X: 1, Y: 2}, "")
	child, _ := s.Create("button", Position{X: 3, Y: 4}, parent.ID)
	s.UpdateProp(child.ID, "props.text", "Go")
	s.SetEventHandler(child.ID, "click", "handler", "event.stop()")

	snap := s.Snapshot()

	// Snapshot must be detached from the live tree.
	s.UpdateProp(child.ID, "props.text", "Changed")
	if snap[0].Children[0].Props["text"] != "Go" {
		t.Error("snapshot shares state with the live tree")
	}

	// JSON round-trip preserves ids, props and structure.
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded []*Instance
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := newTestStore()
	restored.Restore(decoded)

	if restored.Len() != 2 {
		t.Fatalf("restored %d instances, want 2", restored.Len())
	}
	got, ok := restored.Find(child.ID)
	if !ok {
		t.Fatal("child id lost in round-trip")
	}
	if got.Props["text"] != "Go" {
		t.Errorf("props lost: %v", got.Props)
	}
	if got.ParentID != parent.ID {
		t.Errorf("ParentID = %q, want %q", got.ParentID, parent.ID)
	}
	if got.EventHandlers["click"].Code != "event.stop()" {
		t.Error("event handler lost in round-trip")
	}

	gotParent, _ := restored.Find(parent.ID)
	if !reflect.DeepEqual(gotParent.Children[0].ID, child.ID) {
		t.Error("children structure lost")
	}
}
