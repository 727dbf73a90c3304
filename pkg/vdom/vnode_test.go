package vdom

import "testing"

func TestCreateElement(t *testing.T) {
	node := Div(Class("canvas"), Span("hello"))

	if node.Kind != KindElement {
		t.Errorf("Kind = %v, want KindElement", node.Kind)
	}
	if node.Tag != "div" {
		t.Errorf("Tag = %q, want div", node.Tag)
	}
	if node.Props["class"] != "canvas" {
		t.Errorf("class = %v, want canvas", node.Props["class"])
	}
	if len(node.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(node.Children))
	}
	if node.Children[0].Tag != "span" {
		t.Errorf("child tag = %q, want span", node.Children[0].Tag)
	}
}

func TestCreateElementNilArgs(t *testing.T) {
	node := Div(nil, If(false, Span()), "text")

	if len(node.Children) != 1 {
		t.Fatalf("nil children should be dropped, got %d children", len(node.Children))
	}
	if node.Children[0].Kind != KindText {
		t.Errorf("child kind = %v, want KindText", node.Children[0].Kind)
	}
}

func TestKeyAttr(t *testing.T) {
	node := Tr(Key("row-3"))

	if node.Key != "row-3" {
		t.Errorf("Key = %q, want row-3", node.Key)
	}
	if _, ok := node.Props["key"]; ok {
		t.Error("key should not leak into Props")
	}
}

func TestIsInteractive(t *testing.T) {
	plain := Button("Click")
	if plain.IsInteractive() {
		t.Error("button without handlers should not be interactive")
	}

	wired := Button(On("click", func(any) {}), "Click")
	if !wired.IsInteractive() {
		t.Error("button with onclick should be interactive")
	}

	if Text("x").IsInteractive() {
		t.Error("text nodes are never interactive")
	}
}

func TestStyleString(t *testing.T) {
	s := StyleString(map[string]string{
		"color":            "#000",
		"background-color": "#fff",
	})
	want := "background-color: #fff; color: #000;"
	if s != want {
		t.Errorf("got %q, want %q", s, want)
	}

	if StyleString(nil) != "" {
		t.Error("empty style map should serialize to empty string")
	}
}

func TestMergeStyle(t *testing.T) {
	node := Td(Style(map[string]string{"color": "red"}))
	MergeStyle(node, map[string]string{"background-color": "blue"})

	style := node.Props["style"].(map[string]string)
	if style["color"] != "red" {
		t.Errorf("existing field clobbered: color = %q", style["color"])
	}
	if style["background-color"] != "blue" {
		t.Errorf("merged field missing: background-color = %q", style["background-color"])
	}
}

func TestMergeStyleNoProps(t *testing.T) {
	node := &VNode{Kind: KindElement, Tag: "td"}
	MergeStyle(node, map[string]string{"font-weight": "bold"})

	style, ok := node.Props["style"].(map[string]string)
	if !ok || style["font-weight"] != "bold" {
		t.Errorf("style not created on bare node: %v", node.Props)
	}
}

func TestFragmentFlattening(t *testing.T) {
	frag := Fragment(Span("a"), []*VNode{Span("b"), nil}, "c")

	if frag.Kind != KindFragment {
		t.Errorf("Kind = %v, want KindFragment", frag.Kind)
	}
	if len(frag.Children) != 3 {
		t.Errorf("expected 3 children, got %d", len(frag.Children))
	}
}

func TestMap(t *testing.T) {
	nodes := Map([]string{"a", "b"}, func(s string) *VNode { return Span(s) })
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
}

func TestIsVoidElement(t *testing.T) {
	if !IsVoidElement("input") {
		t.Error("input should be void")
	}
	if IsVoidElement("div") {
		t.Error("div should not be void")
	}
}
