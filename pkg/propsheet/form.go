package propsheet

import (
	"fmt"
	"strconv"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/catalog"
	"github.com/forma-dev/forma/pkg/vdom"
)

// categoryOrder is the panel's section order. Properties keep their
// schema order within a section.
var categoryOrder = []catalog.Category{
	catalog.CategoryData,
	catalog.CategoryMethods,
	catalog.CategoryLayout,
	catalog.CategoryStyle,
}

var categoryTitles = map[catalog.Category]string{
	catalog.CategoryData:    "Data",
	catalog.CategoryMethods: "Methods",
	catalog.CategoryLayout:  "Layout",
	catalog.CategoryStyle:   "Style",
}

// Render builds the panel for one instance: the kind's schema grouped
// by category, each property through its editor, visibleWhen gates
// applied against the instance's current values. A nil instance
// renders the empty-selection hint.
func (p *Panel) Render(inst *canvas.Instance) *vdom.VNode {
	if inst == nil {
		return vdom.Div(
			vdom.Class("forma-propsheet forma-propsheet-empty"),
			"Select a component to edit its properties",
		)
	}

	kind, ok := p.registry.Lookup(inst.Kind)
	if !ok {
		return vdom.Div(
			vdom.Class("forma-propsheet forma-propsheet-error"),
			"Unknown component: "+inst.Kind,
		)
	}

	sections := make([]*vdom.VNode, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		var fields []*vdom.VNode
		for _, def := range kind.PropertySchema {
			if def.Category != cat || !p.Visible(inst, def) {
				continue
			}
			fields = append(fields, p.renderField(inst, def))
		}
		if len(fields) == 0 {
			continue
		}
		sections = append(sections, vdom.Div(
			vdom.Class("forma-prop-section"),
			vdom.H3(vdom.Class("forma-prop-section-title"), categoryTitles[cat]),
			fields,
		))
	}

	return vdom.Div(
		vdom.Class("forma-propsheet"),
		vdom.A("data-instance", inst.ID),
		vdom.Div(vdom.Class("forma-propsheet-kind"), kind.Label),
		sections,
	)
}

func (p *Panel) renderField(inst *canvas.Instance, def catalog.PropertyDefinition) *vdom.VNode {
	return vdom.Div(
		vdom.Class("forma-prop-field"),
		vdom.Label(vdom.Class("forma-prop-label"), def.Label),
		p.renderEditor(inst, def),
	)
}

// renderEditor picks the control for one property. An editor type the
// panel does not support renders an inert placeholder instead of a
// broken control.
func (p *Panel) renderEditor(inst *canvas.Instance, def catalog.PropertyDefinition) *vdom.VNode {
	text := p.EditorText(inst, def)
	key := vdom.A("data-prop-key", def.Key)

	switch def.Editor {
	case catalog.EditorText:
		return vdom.Input(key, vdom.Type("text"), vdom.Value(text))

	case catalog.EditorTextArea:
		return vdom.TextArea(key, text)

	case catalog.EditorNumber:
		return vdom.Input(key, vdom.Type("number"), vdom.Value(text), boundAttrs(def))

	case catalog.EditorSlider:
		return vdom.Input(key, vdom.Type("range"), vdom.Value(text), boundAttrs(def))

	case catalog.EditorBoolean:
		attrs := []vdom.Attr{key, vdom.Type("checkbox")}
		if text == "true" {
			attrs = append(attrs, vdom.A("checked", true))
		}
		return vdom.Input(attrs)

	case catalog.EditorColor:
		return vdom.Input(key, vdom.Type("color"), vdom.Value(text))

	case catalog.EditorSelect:
		opts := vdom.Map(def.Options, func(o catalog.Option) *vdom.VNode {
			attrs := []vdom.Attr{vdom.Value(o.Value)}
			if o.Value == text {
				attrs = append(attrs, vdom.A("selected", true))
			}
			return vdom.Option(attrs, o.Label)
		})
		return vdom.Select(key, opts)

	case catalog.EditorCode:
		return vdom.TextArea(key, vdom.Class("forma-prop-code"), vdom.A("spellcheck", "false"), text)

	case catalog.EditorJSON, catalog.EditorFormattingRules, catalog.EditorColumnConfig:
		attrs := []vdom.Attr{key, vdom.Class("forma-prop-json"), vdom.A("spellcheck", "false")}
		if _, invalid := p.pending[pendingKey{inst.ID, def.Key}]; invalid {
			attrs = append(attrs, vdom.A("data-invalid", true))
		}
		return vdom.TextArea(attrs, text)

	case catalog.EditorQueryReference:
		return vdom.Input(key, vdom.Type("text"), vdom.Class("forma-prop-query"), vdom.Value(text),
			vdom.Placeholder("query id"))

	default:
		p.logger.Warn("unsupported editor type", "editor", string(def.Editor), "key", def.Key)
		return vdom.Div(
			vdom.Class("forma-prop-unsupported"),
			fmt.Sprintf("Unsupported editor: %s", def.Editor),
		)
	}
}

func boundAttrs(def catalog.PropertyDefinition) []vdom.Attr {
	var attrs []vdom.Attr
	if def.Min != nil {
		attrs = append(attrs, vdom.A("min", strconv.FormatFloat(*def.Min, 'f', -1, 64)))
	}
	if def.Max != nil {
		attrs = append(attrs, vdom.A("max", strconv.FormatFloat(*def.Max, 'f', -1, 64)))
	}
	return attrs
}
