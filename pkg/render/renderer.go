package render

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/forma-dev/forma/pkg/vdom"
)

// Config configures the HTML renderer.
type Config struct {
	// Pretty enables indented output. Development only; it inflates
	// output size and perturbs whitespace-sensitive elements.
	Pretty bool

	// Indent is the string per indentation level in pretty mode.
	// Defaults to two spaces.
	Indent string

	// IDs supplies node IDs. When nil the renderer uses its own
	// generator, reset by Reset.
	IDs *vdom.NIDGenerator
}

// Renderer handles rendering of VNode trees to HTML.
type Renderer struct {
	config   Config
	ids      *vdom.NIDGenerator
	handlers map[string]any
}

// New creates a Renderer with the given configuration.
func New(config Config) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	ids := config.IDs
	if ids == nil {
		ids = vdom.NewNIDGenerator()
	}
	return &Renderer{
		config:   config,
		ids:      ids,
		handlers: make(map[string]any),
	}
}

// ToString renders a VNode tree to an HTML string.
func (r *Renderer) ToString(node *vdom.VNode) (string, error) {
	var buf bytes.Buffer
	if err := r.ToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToWriter streams a VNode tree to the given writer.
func (r *Renderer) ToWriter(w io.Writer, node *vdom.VNode) error {
	return r.renderNode(w, node, 0)
}

// Handlers returns the handler registry collected during rendering.
// Keys are "nid_eventname" (e.g. "n1_onclick").
func (r *Renderer) Handlers() map[string]any {
	return r.handlers
}

// Reset clears collected handlers and, when the generator is owned by
// this renderer, restarts node IDs.
func (r *Renderer) Reset() {
	r.handlers = make(map[string]any)
	if r.config.IDs == nil {
		r.ids = vdom.NewNIDGenerator()
	}
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, node *vdom.VNode, depth int) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case vdom.KindElement:
		return r.renderElement(w, node, depth)
	case vdom.KindText:
		_, err := io.WriteString(w, EscapeHTML(node.Text))
		return err
	case vdom.KindFragment:
		for _, child := range node.Children {
			if err := r.renderNode(w, child, depth); err != nil {
				return err
			}
		}
		return nil
	case vdom.KindRaw:
		_, err := io.WriteString(w, node.Text)
		return err
	default:
		return fmt.Errorf("render: unknown node kind %d", node.Kind)
	}
}

// renderElement renders an HTML element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, node *vdom.VNode, depth int) error {
	tag := node.Tag

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "<%s", tag); err != nil {
		return err
	}

	if err := r.renderAttributes(w, node); err != nil {
		return err
	}

	// Every element gets a node ID so patches stay addressable after
	// any re-render; interactive ones also register their handlers.
	if node.NID == "" {
		node.NID = r.ids.Next()
	}
	if _, err := fmt.Fprintf(w, ` data-nid="%s"`, node.NID); err != nil {
		return err
	}
	r.registerHandlers(node)

	if vdom.IsVoidElement(tag) {
		if _, err := w.Write([]byte{'>'}); err != nil {
			return err
		}
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	if _, err := w.Write([]byte{'>'}); err != nil {
		return err
	}

	hasBlockChildren := len(node.Children) > 0 && r.config.Pretty
	if hasBlockChildren {
		io.WriteString(w, "\n")
	}

	for _, child := range node.Children {
		if err := r.renderNode(w, child, depth+1); err != nil {
			return err
		}
	}

	if hasBlockChildren {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}

	return nil
}

// renderAttributes renders all attributes for an element, sorted for
// deterministic output.
func (r *Renderer) renderAttributes(w io.Writer, node *vdom.VNode) error {
	if node.Props == nil {
		return nil
	}

	keys := make([]string, 0, len(node.Props))
	for key := range node.Props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := node.Props[key]

		if strings.HasPrefix(key, "_") || key == "key" {
			continue
		}
		if strings.HasPrefix(key, "on") && isHandlerValue(value) {
			continue // registered, not rendered
		}

		// Boolean attributes render bare when true, not at all when false.
		if boolValue, ok := value.(bool); ok && isBooleanAttr(key) {
			if boolValue {
				if _, err := fmt.Fprintf(w, " %s", key); err != nil {
					return err
				}
			}
			continue
		}

		strValue := attrToString(value)
		if strValue != "" {
			if _, err := fmt.Fprintf(w, ` %s="%s"`, key, EscapeAttr(strValue)); err != nil {
				return err
			}
		}
	}

	// Event marker attributes let the thin client know which events to
	// forward for this node.
	for _, key := range keys {
		if strings.HasPrefix(key, "on") && isHandlerValue(node.Props[key]) {
			if _, err := fmt.Fprintf(w, ` data-on-%s="true"`, strings.ToLower(key[2:])); err != nil {
				return err
			}
		}
	}

	return nil
}

// registerHandlers stores handler references for the node's NID.
func (r *Renderer) registerHandlers(node *vdom.VNode) {
	for key, value := range node.Props {
		if strings.HasPrefix(key, "on") && isHandlerValue(value) {
			r.handlers[node.NID+"_"+key] = value
		}
	}
}

// isHandlerValue returns true if the value looks like an event handler.
func isHandlerValue(value any) bool {
	if value == nil {
		return false
	}
	switch value.(type) {
	case func(), func(any):
		return true
	}
	return strings.HasPrefix(fmt.Sprintf("%T", value), "func")
}

// booleanAttrs are attributes rendered by presence rather than value.
var booleanAttrs = map[string]bool{
	"autofocus": true,
	"checked":   true,
	"disabled":  true,
	"hidden":    true,
	"multiple":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
}

func isBooleanAttr(key string) bool { return booleanAttrs[key] }

// attrToString converts an attribute value to a string.
func attrToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case map[string]string:
		return vdom.StyleString(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, r.config.Indent)
	}
}
