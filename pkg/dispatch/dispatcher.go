// Package dispatch turns the instance tree into UI nodes. It resolves
// each instance's kind through the registry, recurses into containers,
// wires stored event handlers, and resolves table data sources with
// their three observable states (loading, error, success).
//
// Rendering is pure with respect to the tree and the current fetch
// results: the same tree and the same resolved data always produce the
// same nodes. Data fetches are asynchronous; each is tagged with a
// generation counter per instance and stale completions are discarded,
// so reconfiguring a widget mid-fetch can never paint old data over
// new.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/catalog"
	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/script"
	"github.com/forma-dev/forma/pkg/vdom"
)

// Dispatcher renders instances. One dispatcher serves one editing
// session; it owns the per-instance fetch state.
type Dispatcher struct {
	registry *catalog.Registry
	data     *datasource.Client
	scripts  *script.Engine
	logger   *slog.Logger

	// onData is invoked when an async fetch lands and the session
	// should re-render. May be nil.
	onData func()

	mu     sync.Mutex
	states map[string]*fetchState
}

type fetchState struct {
	generation uint64
	config     string // serialized source config, to detect changes
	state      catalog.DataState
	message    string
	result     *datasource.Result
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger.With("component", "dispatch") }
}

// WithDataCallback registers the re-render trigger invoked whenever an
// asynchronous fetch completes with a current generation.
func WithDataCallback(fn func()) Option {
	return func(d *Dispatcher) { d.onData = fn }
}

// New creates a dispatcher.
func New(registry *catalog.Registry, data *datasource.Client, scripts *script.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		data:     data,
		scripts:  scripts,
		logger:   slog.Default().With("component", "dispatch"),
		states:   make(map[string]*fetchState),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RenderAll renders a list of instances as the canvas surface. An
// instance with a ParentID is skipped; it renders once, through its
// parent.
func (d *Dispatcher) RenderAll(instances []*canvas.Instance) *vdom.VNode {
	nodes := make([]*vdom.VNode, 0, len(instances))
	for _, inst := range instances {
		if inst.ParentID != "" {
			continue
		}
		nodes = append(nodes, d.Render(inst))
	}
	return vdom.Div(vdom.Class("forma-canvas"), nodes)
}

// Render renders one instance. Configuration errors (unknown kind, a
// panicking renderer) fail closed with an inert placeholder; they
// never propagate out of the render pass.
func (d *Dispatcher) Render(inst *canvas.Instance) (node *vdom.VNode) {
	if inst == nil {
		return nil
	}

	kind, ok := d.registry.Lookup(inst.Kind)
	if !ok {
		d.logger.Warn("unknown component kind", "kind", inst.Kind, "instance", inst.ID)
		return placeholder(inst, "Unknown component: "+inst.Kind)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("renderer panicked", "kind", inst.Kind, "instance", inst.ID, "error", r)
			node = placeholder(inst, "Render error")
		}
	}()

	node = kind.Render(d, inst)
	if node != nil {
		markInstance(node, inst)
	}
	return node
}

// Child implements catalog.RenderContext.
func (d *Dispatcher) Child(inst *canvas.Instance) *vdom.VNode {
	return d.Render(inst)
}

// Handler implements catalog.RenderContext. It returns the compiled
// callback for a declared event with stored handler code, or nil so
// the interaction stays a no-op.
func (d *Dispatcher) Handler(inst *canvas.Instance, event string) func(any) {
	kind, ok := d.registry.Lookup(inst.Kind)
	if !ok || !kind.Emits(event) {
		return nil
	}
	stored, ok := inst.EventHandlers[event]
	if !ok || stored.Code == "" {
		return nil
	}

	compiled := d.scripts.MustCompile(stored.Code)
	component := map[string]any{
		"id":    inst.ID,
		"kind":  inst.Kind,
		"label": inst.Label,
		"props": inst.Props,
	}
	return func(evt any) {
		compiled(evt, component)
	}
}

// TableData implements catalog.RenderContext. Static sources resolve
// synchronously; query and url sources resolve in the background and
// report loading until their fetch lands.
func (d *Dispatcher) TableData(inst *canvas.Instance) catalog.TableData {
	src, err := datasource.SourceFromProps(inst.Props["dataSource"])
	if err != nil {
		return catalog.TableData{State: catalog.DataError, Message: err.Error()}
	}

	if src.Type == datasource.SourceStatic {
		res, _ := d.data.Resolve(context.Background(), src)
		return catalog.TableData{State: catalog.DataReady, Columns: res.Columns, Rows: res.Rows}
	}

	config := sourceFingerprint(src)

	d.mu.Lock()
	st, ok := d.states[inst.ID]
	if !ok || st.config != config {
		st = &fetchState{
			generation: nextGeneration(st),
			config:     config,
			state:      catalog.DataLoading,
		}
		d.states[inst.ID] = st
		go d.fetch(inst.ID, st.generation, src)
	}
	out := catalog.TableData{State: st.state, Message: st.message}
	if st.result != nil {
		out.Columns = st.result.Columns
		out.Rows = st.result.Rows
	}
	d.mu.Unlock()

	return out
}

// Invalidate drops cached fetch state for an instance, forcing the
// next render to fetch again. Used when an instance is deleted or its
// data should be manually refreshed.
func (d *Dispatcher) Invalidate(instanceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.states, instanceID)
}

// fetch resolves the source in the background. The result is kept only
// when its generation is still current for the instance.
func (d *Dispatcher) fetch(instanceID string, generation uint64, src datasource.Source) {
	res, err := d.data.Resolve(context.Background(), src)

	d.mu.Lock()
	st, ok := d.states[instanceID]
	if !ok || st.generation != generation {
		d.mu.Unlock()
		d.logger.Debug("discarding stale fetch", "instance", instanceID, "generation", generation)
		return
	}
	if err != nil {
		st.state = catalog.DataError
		st.message = err.Error()
	} else {
		st.state = catalog.DataReady
		st.result = res
		st.message = ""
	}
	d.mu.Unlock()

	if d.onData != nil {
		d.onData()
	}
}

func nextGeneration(prev *fetchState) uint64 {
	if prev == nil {
		return 1
	}
	return prev.generation + 1
}

// sourceFingerprint serializes the source config so a reconfiguration
// is detected as a new fetch.
func sourceFingerprint(src datasource.Source) string {
	data, _ := json.Marshal(src)
	return string(data)
}

// markInstance tags the rendered root with its instance identity so
// the editor client can map DOM nodes back to instances for selection
// and drag.
func markInstance(node *vdom.VNode, inst *canvas.Instance) {
	if node.Kind != vdom.KindElement {
		return
	}
	if node.Props == nil {
		node.Props = make(vdom.Props)
	}
	node.Props["data-instance"] = inst.ID
	node.Props["data-kind"] = inst.Kind
}

// placeholder is the inert fail-closed rendering for configuration
// errors.
func placeholder(inst *canvas.Instance, message string) *vdom.VNode {
	node := vdom.Div(
		vdom.Class("forma-placeholder"),
		message,
	)
	markInstance(node, inst)
	return node
}
