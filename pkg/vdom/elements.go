package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// createElement creates a new VNode with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string.
func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Props:    make(Props),
		Children: make([]*VNode, 0),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes and children)
			continue

		case Attr:
			applyAttr(node, v)

		case []Attr:
			for _, attr := range v {
				applyAttr(node, attr)
			}

		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case string:
			// Shorthand for text node
			node.Children = append(node.Children, &VNode{
				Kind: KindText,
				Text: v,
			})
		}
	}

	return node
}

func applyAttr(node *VNode, attr Attr) {
	if attr.Key == "" {
		return
	}
	if attr.Key == "key" {
		if s, ok := attr.Value.(string); ok {
			node.Key = s
		}
		return
	}
	node.Props[attr.Key] = attr.Value
}

// El creates an element with an arbitrary tag.
func El(tag string, args ...any) *VNode { return createElement(tag, args) }

// Common container and text elements.

func Div(args ...any) *VNode      { return createElement("div", args) }
func Span(args ...any) *VNode     { return createElement("span", args) }
func P(args ...any) *VNode        { return createElement("p", args) }
func H1(args ...any) *VNode       { return createElement("h1", args) }
func H2(args ...any) *VNode       { return createElement("h2", args) }
func H3(args ...any) *VNode       { return createElement("h3", args) }
func Label(args ...any) *VNode    { return createElement("label", args) }
func Button(args ...any) *VNode   { return createElement("button", args) }
func Input(args ...any) *VNode    { return createElement("input", args) }
func TextArea(args ...any) *VNode { return createElement("textarea", args) }
func Select(args ...any) *VNode   { return createElement("select", args) }
func Option(args ...any) *VNode   { return createElement("option", args) }
func Form(args ...any) *VNode     { return createElement("form", args) }
func Pre(args ...any) *VNode      { return createElement("pre", args) }
func Code(args ...any) *VNode     { return createElement("code", args) }

// Table elements.

func Table(args ...any) *VNode { return createElement("table", args) }
func THead(args ...any) *VNode { return createElement("thead", args) }
func TBody(args ...any) *VNode { return createElement("tbody", args) }
func Tr(args ...any) *VNode    { return createElement("tr", args) }
func Th(args ...any) *VNode    { return createElement("th", args) }
func Td(args ...any) *VNode    { return createElement("td", args) }

// Attribute helpers.

// A creates an arbitrary attribute.
func A(key string, value any) Attr { return Attr{Key: key, Value: value} }

// Class sets the class attribute.
func Class(value string) Attr { return Attr{Key: "class", Value: value} }

// ID sets the id attribute.
func ID(value string) Attr { return Attr{Key: "id", Value: value} }

// Key sets the reconciliation key.
func Key(value string) Attr { return Attr{Key: "key", Value: value} }

// Style sets inline style from a property map.
func Style(m map[string]string) Attr { return Attr{Key: "style", Value: m} }

// Value sets the value attribute.
func Value(v any) Attr { return Attr{Key: "value", Value: v} }

// Placeholder sets the placeholder attribute.
func Placeholder(v string) Attr { return Attr{Key: "placeholder", Value: v} }

// Type sets the type attribute.
func Type(v string) Attr { return Attr{Key: "type", Value: v} }

// On attaches an event handler under "on"+event (e.g. On("click", fn)).
func On(event string, handler func(any)) Attr {
	return Attr{Key: "on" + event, Value: handler}
}
