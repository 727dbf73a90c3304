package catalog

import (
	"fmt"
	"strconv"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/format"
	"github.com/forma-dev/forma/pkg/vdom"
)

// Default returns the registry of builtin widget kinds.
func Default() *Registry {
	return New(Builtin()...)
}

// Builtin returns the builtin widget kinds in palette order.
//
// Adding a kind here requires the matching renderer in the exported
// artifact's runtime (pkg/export/runtime.js); the export parity suite
// fails when the two sets diverge.
func Builtin() []ComponentKind {
	return []ComponentKind{
		buttonKind(),
		textKind(),
		inputKind(),
		selectKind(),
		containerKind(),
		tabsKind(),
		tableKind(),
	}
}

func buttonKind() ComponentKind {
	return ComponentKind{
		Type:  "button",
		Label: "Button",
		Icon:  "cursor-click",
		DefaultProps: map[string]any{
			"text":    "Button",
			"variant": "primary",
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.text", Label: "Text", Category: CategoryData, Editor: EditorText},
			PropertyDefinition{Key: "props.variant", Label: "Variant", Category: CategoryStyle, Editor: EditorSelect,
				Options: []Option{
					{Value: "primary", Label: "Primary"},
					{Value: "secondary", Label: "Secondary"},
					{Value: "danger", Label: "Danger"},
				}},
			PropertyDefinition{Key: "eventHandlers.click", Label: "On Click", Category: CategoryMethods, Editor: EditorCode},
		),
		Events: []string{"click"},
		Render: renderButton,
	}
}

func renderButton(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	variant, _ := inst.Props["variant"].(string)
	if variant == "" {
		variant = "primary"
	}
	return vdom.Button(
		vdom.Class("forma-button forma-button-"+variant),
		vdom.Style(layoutStyle(inst)),
		handlerAttr(rc, inst, "click"),
		propString(inst, "text"),
	)
}

func textKind() ComponentKind {
	return ComponentKind{
		Type:  "text",
		Label: "Text",
		Icon:  "type",
		DefaultProps: map[string]any{
			"content":  "Text",
			"fontSize": 14.0,
			"color":    "",
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.content", Label: "Content", Category: CategoryData, Editor: EditorTextArea},
			PropertyDefinition{Key: "props.fontSize", Label: "Font Size", Category: CategoryStyle, Editor: EditorSlider,
				Min: f64(8), Max: f64(72)},
			PropertyDefinition{Key: "props.color", Label: "Color", Category: CategoryStyle, Editor: EditorColor},
		),
		Render: renderText,
	}
}

func renderText(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	style := layoutStyle(inst)
	if size, ok := propNumber(inst, "fontSize"); ok && size > 0 {
		style["font-size"] = strconv.FormatFloat(size, 'f', -1, 64) + "px"
	}
	if color, _ := inst.Props["color"].(string); color != "" {
		style["color"] = color
	}
	return vdom.Div(
		vdom.Class("forma-text"),
		vdom.Style(style),
		propString(inst, "content"),
	)
}

func inputKind() ComponentKind {
	return ComponentKind{
		Type:  "input",
		Label: "Input",
		Icon:  "edit",
		DefaultProps: map[string]any{
			"placeholder": "Enter a value",
			"inputType":   "text",
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.placeholder", Label: "Placeholder", Category: CategoryData, Editor: EditorText},
			PropertyDefinition{Key: "props.inputType", Label: "Input Type", Category: CategoryData, Editor: EditorSelect,
				Options: []Option{
					{Value: "text", Label: "Text"},
					{Value: "number", Label: "Number"},
					{Value: "password", Label: "Password"},
				}},
			PropertyDefinition{Key: "eventHandlers.change", Label: "On Change", Category: CategoryMethods, Editor: EditorCode},
		),
		Events: []string{"change"},
		Render: renderInput,
	}
}

func renderInput(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	inputType, _ := inst.Props["inputType"].(string)
	if inputType == "" {
		inputType = "text"
	}
	return vdom.Input(
		vdom.Class("forma-input"),
		vdom.Style(layoutStyle(inst)),
		vdom.Type(inputType),
		vdom.Placeholder(propString(inst, "placeholder")),
		handlerAttr(rc, inst, "change"),
	)
}

func selectKind() ComponentKind {
	return ComponentKind{
		Type:  "select",
		Label: "Select",
		Icon:  "list",
		DefaultProps: map[string]any{
			"options":     []any{"Option 1", "Option 2"},
			"placeholder": "Choose...",
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.options", Label: "Options", Category: CategoryData, Editor: EditorJSON},
			PropertyDefinition{Key: "props.placeholder", Label: "Placeholder", Category: CategoryData, Editor: EditorText},
			PropertyDefinition{Key: "eventHandlers.change", Label: "On Change", Category: CategoryMethods, Editor: EditorCode},
		),
		Events: []string{"change"},
		Render: renderSelect,
	}
}

func renderSelect(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	children := []*vdom.VNode{}
	if ph := propString(inst, "placeholder"); ph != "" {
		children = append(children, vdom.Option(vdom.Value(""), ph))
	}
	if opts, ok := inst.Props["options"].([]any); ok {
		for _, opt := range opts {
			s := fmt.Sprint(opt)
			children = append(children, vdom.Option(vdom.Value(s), s))
		}
	}
	return vdom.Select(
		vdom.Class("forma-select"),
		vdom.Style(layoutStyle(inst)),
		handlerAttr(rc, inst, "change"),
		children,
	)
}

func containerKind() ComponentKind {
	return ComponentKind{
		Type:      "container",
		Label:     "Container",
		Icon:      "layout",
		Container: true,
		DefaultProps: map[string]any{
			"background": "",
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.background", Label: "Background", Category: CategoryStyle, Editor: EditorColor},
		),
		Render: renderContainer,
	}
}

func renderContainer(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	style := layoutStyle(inst)
	if bg, _ := inst.Props["background"].(string); bg != "" {
		style["background-color"] = bg
	}
	return vdom.Div(
		vdom.Class("forma-container"),
		vdom.Style(style),
		vdom.Map(inst.Children, rc.Child),
	)
}

func tabsKind() ComponentKind {
	return ComponentKind{
		Type:      "tabs",
		Label:     "Tabs",
		Icon:      "folder",
		Container: true,
		DefaultProps: map[string]any{
			"tabs":      []any{"Tab 1", "Tab 2"},
			"activeTab": 0.0,
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.tabs", Label: "Tabs", Category: CategoryData, Editor: EditorJSON},
			PropertyDefinition{Key: "props.activeTab", Label: "Active Tab", Category: CategoryData, Editor: EditorNumber, Min: f64(0)},
			PropertyDefinition{Key: "eventHandlers.tabChange", Label: "On Tab Change", Category: CategoryMethods, Editor: EditorCode},
		),
		Events: []string{"tabChange"},
		Render: renderTabs,
	}
}

func renderTabs(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	active := 0
	if n, ok := propNumber(inst, "activeTab"); ok {
		active = int(n)
	}

	titles, _ := inst.Props["tabs"].([]any)
	headers := make([]*vdom.VNode, 0, len(titles))
	for i, title := range titles {
		class := "forma-tab"
		if i == active {
			class += " forma-tab-active"
		}
		headers = append(headers, vdom.Button(
			vdom.Class(class),
			vdom.A("data-tab-index", i),
			handlerAttr(rc, inst, "tabChange"),
			fmt.Sprint(title),
		))
	}

	// One child panel per tab; only the active panel renders.
	var panel *vdom.VNode
	if active >= 0 && active < len(inst.Children) {
		panel = rc.Child(inst.Children[active])
	}

	return vdom.Div(
		vdom.Class("forma-tabs"),
		vdom.Style(layoutStyle(inst)),
		vdom.Div(vdom.Class("forma-tabs-header"), headers),
		vdom.Div(vdom.Class("forma-tabs-panel"), panel),
	)
}

func tableKind() ComponentKind {
	return ComponentKind{
		Type:  "table",
		Label: "Table",
		Icon:  "table",
		DefaultProps: map[string]any{
			"dataSource": map[string]any{
				"type": "static",
			},
			"columns":         []any{},
			"formattingRules": []any{},
			"striped":         true,
		},
		PropertySchema: append(commonLayoutSchema(),
			PropertyDefinition{Key: "props.dataSource.type", Label: "Data Source", Category: CategoryData, Editor: EditorSelect,
				Options: []Option{
					{Value: "static", Label: "Static"},
					{Value: "query", Label: "Saved Query"},
					{Value: "url", Label: "URL"},
				}},
			PropertyDefinition{Key: "props.dataSource.queryId", Label: "Query", Category: CategoryData, Editor: EditorQueryReference,
				VisibleWhen: &VisibleWhen{Key: "props.dataSource.type", Equals: "query"}},
			PropertyDefinition{Key: "props.dataSource.url", Label: "URL", Category: CategoryData, Editor: EditorText,
				VisibleWhen: &VisibleWhen{Key: "props.dataSource.type", Equals: "url"}},
			PropertyDefinition{Key: "props.dataSource.static", Label: "Static Data", Category: CategoryData, Editor: EditorJSON,
				VisibleWhen: &VisibleWhen{Key: "props.dataSource.type", Equals: "static"}},
			PropertyDefinition{Key: "props.columns", Label: "Columns", Category: CategoryData, Editor: EditorColumnConfig},
			PropertyDefinition{Key: "props.formattingRules", Label: "Conditional Formatting", Category: CategoryStyle, Editor: EditorFormattingRules},
			PropertyDefinition{Key: "props.striped", Label: "Striped Rows", Category: CategoryStyle, Editor: EditorBoolean},
			PropertyDefinition{Key: "eventHandlers.rowClick", Label: "On Row Click", Category: CategoryMethods, Editor: EditorCode},
		),
		Events: []string{"rowClick"},
		Render: renderTable,
	}
}

func renderTable(rc RenderContext, inst *canvas.Instance) *vdom.VNode {
	data := rc.TableData(inst)

	switch data.State {
	case DataLoading:
		return vdom.Div(
			vdom.Class("forma-table-state forma-table-loading"),
			vdom.Style(layoutStyle(inst)),
			"Loading...",
		)
	case DataError:
		return vdom.Div(
			vdom.Class("forma-table-state forma-table-error"),
			vdom.Style(layoutStyle(inst)),
			vdom.Textf("Failed to load data: %s", data.Message),
		)
	}

	if len(data.Rows) == 0 {
		return vdom.Div(
			vdom.Class("forma-table-state forma-table-empty"),
			vdom.Style(layoutStyle(inst)),
			"No data",
		)
	}

	cols := data.Columns
	if cfgs, err := datasource.ColumnConfigsFromProps(inst.Props["columns"]); err == nil {
		cols = datasource.ApplyColumnConfig(cols, cfgs)
	}
	rules, _ := format.RulesFromProps(inst.Props["formattingRules"])

	header := make([]*vdom.VNode, len(cols))
	for i, col := range cols {
		header[i] = vdom.Th(col.Label)
	}

	striped, _ := inst.Props["striped"].(bool)
	rowClick := rc.Handler(inst, "rowClick")

	body := make([]*vdom.VNode, 0, len(data.Rows))
	for i, row := range data.Rows {
		class := "forma-row"
		if striped && i%2 == 1 {
			class += " forma-row-alt"
		}

		cells := make([]*vdom.VNode, len(cols))
		for j, col := range cols {
			cell := vdom.Td(cellText(row[col.Key]))
			if cs := format.CellStyle(row, col.Key, rules); cs != nil {
				vdom.MergeStyle(cell, cs.CSS())
			}
			cells[j] = cell
		}

		tr := vdom.Tr(vdom.Key(strconv.Itoa(i)), vdom.Class(class), cells)
		if rs := format.RowStyle(row, rules); rs != nil {
			vdom.MergeStyle(tr, rs.CSS())
		}
		if rowClick != nil {
			tr.Props["onclick"] = rowClick
		}
		body = append(body, tr)
	}

	return vdom.Div(
		vdom.Class("forma-table-wrap"),
		vdom.Style(layoutStyle(inst)),
		vdom.Table(
			vdom.Class("forma-table"),
			vdom.THead(vdom.Tr(header)),
			vdom.TBody(body),
		),
	)
}

// commonLayoutSchema is shared by every kind: canvas position and size.
func commonLayoutSchema() []PropertyDefinition {
	return []PropertyDefinition{
		{Key: "label", Label: "Label", Category: CategoryData, Editor: EditorText},
		{Key: "position.x", Label: "X", Category: CategoryLayout, Editor: EditorNumber, Min: f64(0)},
		{Key: "position.y", Label: "Y", Category: CategoryLayout, Editor: EditorNumber, Min: f64(0)},
		{Key: "width", Label: "Width", Category: CategoryLayout, Editor: EditorNumber, Min: f64(0)},
		{Key: "height", Label: "Height", Category: CategoryLayout, Editor: EditorNumber, Min: f64(0)},
	}
}

// layoutStyle positions an instance absolutely on the canvas and sizes
// it when width/height are set.
func layoutStyle(inst *canvas.Instance) map[string]string {
	style := map[string]string{
		"position": "absolute",
		"left":     px(inst.Position.X),
		"top":      px(inst.Position.Y),
	}
	if inst.Width > 0 {
		style["width"] = px(inst.Width)
	}
	if inst.Height > 0 {
		style["height"] = px(inst.Height)
	}
	return style
}

// handlerAttr wires a stored event handler, or nothing when none is
// stored.
func handlerAttr(rc RenderContext, inst *canvas.Instance, event string) vdom.Attr {
	if fn := rc.Handler(inst, event); fn != nil {
		return vdom.On(event, fn)
	}
	return vdom.Attr{}
}

func propString(inst *canvas.Instance, key string) string {
	if v, ok := inst.Props[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func propNumber(inst *canvas.Instance, key string) (float64, bool) {
	switch n := inst.Props[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func f64(v float64) *float64 { return &v }
