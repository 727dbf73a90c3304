// Package catalog is the static registry of widget kinds: for each
// kind its default props, property schema for the editor panel, the
// events it can emit, and its render function. The registry is built
// once at process start and never mutated afterwards.
package catalog

import (
	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/vdom"
)

// Category groups properties in the editor panel.
type Category string

const (
	CategoryData    Category = "data"
	CategoryMethods Category = "methods"
	CategoryLayout  Category = "layout"
	CategoryStyle   Category = "style"
)

// EditorType selects which editor the property panel renders for a
// property. A kind referencing an editor type the panel does not
// support is a configuration error; the panel fails closed with an
// "unsupported editor" placeholder.
type EditorType string

const (
	EditorText            EditorType = "text"
	EditorTextArea        EditorType = "textarea"
	EditorNumber          EditorType = "number"
	EditorSelect          EditorType = "select"
	EditorBoolean         EditorType = "boolean"
	EditorColor           EditorType = "color"
	EditorSlider          EditorType = "slider"
	EditorJSON            EditorType = "json"
	EditorCode            EditorType = "code"
	EditorQueryReference  EditorType = "query-reference"
	EditorFormattingRules EditorType = "formatting-rules"
	EditorColumnConfig    EditorType = "column-config"
)

// Option is one choice of a select editor.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// VisibleWhen gates a property's visibility on another property of the
// same instance currently equalling a value.
type VisibleWhen struct {
	Key    string `json:"key"`
	Equals any    `json:"equals"`
}

// PropertyDefinition describes one editable property. Key is a dotted
// path into the instance ("label", "position.x", "props.text").
type PropertyDefinition struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Category    Category     `json:"category"`
	Editor      EditorType   `json:"editor"`
	Default     any          `json:"default,omitempty"`
	Options     []Option     `json:"options,omitempty"`
	Min         *float64     `json:"min,omitempty"`
	Max         *float64     `json:"max,omitempty"`
	VisibleWhen *VisibleWhen `json:"visibleWhen,omitempty"`
}

// DataState is the observable render state of a data-bound instance.
type DataState int

const (
	DataLoading DataState = iota
	DataError
	DataReady
)

// TableData is the resolved data for one data-bound instance.
type TableData struct {
	State   DataState
	Message string // for DataError
	Columns []datasource.Column
	Rows    []map[string]any
}

// RenderContext is what a kind's render function may ask of the
// dispatcher: recurse into a child, wire a stored event handler, or
// resolve a data source. Implemented by pkg/dispatch and by test fakes.
type RenderContext interface {
	// Child renders a child instance.
	Child(inst *canvas.Instance) *vdom.VNode

	// Handler returns the wired callback for one of the kind's
	// declared events, or nil when no handler is stored (the
	// interaction is then a no-op).
	Handler(inst *canvas.Instance, event string) func(any)

	// TableData resolves the instance's data source. May return a
	// loading or error state; the kind renders all three.
	TableData(inst *canvas.Instance) TableData
}

// RenderFunc renders one instance of a kind to a UI node.
type RenderFunc func(rc RenderContext, inst *canvas.Instance) *vdom.VNode

// ComponentKind is one registry entry. Immutable after registration.
type ComponentKind struct {
	Type           string
	Label          string
	Icon           string
	Container      bool
	DefaultProps   map[string]any
	PropertySchema []PropertyDefinition
	Events         []string
	Render         RenderFunc
}

// Emits reports whether the kind declares the event name.
func (k ComponentKind) Emits(event string) bool {
	for _, e := range k.Events {
		if e == event {
			return true
		}
	}
	return false
}
