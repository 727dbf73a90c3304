// Package export produces self-contained HTML documents from an
// instance tree. The artifact embeds the serialized tree, a stylesheet,
// and a second implementation of the rendering dispatcher and the
// formatting rule engine (runtime.js) so it runs with no reference back
// to the editor process.
//
// Two modes exist. A snapshot export resolves query and url data
// sources at export time and embeds the rows, so the document is fully
// offline. A live export keeps the source configurations and the
// artifact fetches them at load time.
package export

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/render"
)

//go:embed runtime.js
var runtimeJS string

//go:embed artifact.css
var artifactCSS string

// Mode selects how the artifact gets its data.
type Mode string

const (
	// ModeSnapshot embeds data resolved at export time.
	ModeSnapshot Mode = "snapshot"
	// ModeLive keeps source configs; the artifact fetches at load.
	ModeLive Mode = "live"
)

// Options configures an export.
type Options struct {
	ProjectName string
	Mode        Mode

	// Endpoint is the base URL the artifact uses for saved-query
	// execution in live mode. Ignored for snapshots.
	Endpoint string

	// Resolver resolves query and url sources for snapshot exports.
	// Required when the tree has remote sources and Mode is snapshot.
	Resolver *datasource.Client
}

// Project is the embedded document payload: everything the runtime
// needs to reproduce the editor's preview.
type Project struct {
	Name       string             `json:"name"`
	Mode       Mode               `json:"mode"`
	Endpoint   string             `json:"endpoint,omitempty"`
	ExportedAt time.Time          `json:"exportedAt"`
	Instances  []*canvas.Instance `json:"instances"`
}

const projectScriptOpen = `<script id="forma-project" type="application/json">`

// Standalone serializes the instance tree into one self-contained HTML
// document. The input tree is not modified; snapshot resolution works
// on a deep copy.
func Standalone(ctx context.Context, instances []*canvas.Instance, opts Options) ([]byte, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSnapshot
	}

	cloned := make([]*canvas.Instance, len(instances))
	for i, inst := range instances {
		cloned[i] = inst.Clone()
	}

	if opts.Mode == ModeSnapshot {
		if err := resolveSnapshot(ctx, cloned, opts.Resolver); err != nil {
			return nil, err
		}
	}

	project := Project{
		Name:       opts.ProjectName,
		Mode:       opts.Mode,
		Endpoint:   opts.Endpoint,
		ExportedAt: time.Now().UTC(),
		Instances:  cloned,
	}

	// json.Marshal escapes <, > and & by default, which keeps the
	// payload safe inside a script element.
	payload, err := json.Marshal(project)
	if err != nil {
		return nil, fmt.Errorf("export: encode project: %w", err)
	}

	var body strings.Builder
	body.WriteString(projectScriptOpen)
	body.Write(payload)
	body.WriteString("</script>\n")
	body.WriteString(`<div id="forma-root"></div>`)

	doc := render.Document{
		Title:       opts.ProjectName,
		Styles:      artifactCSS,
		Body:        body.String(),
		BodyScripts: []string{runtimeJS, "Forma.mount();"},
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("export: write document: %w", err)
	}
	return out.Bytes(), nil
}

// resolveSnapshot rewrites every remote data source in the tree to a
// static source holding the rows resolved now.
func resolveSnapshot(ctx context.Context, instances []*canvas.Instance, resolver *datasource.Client) error {
	for _, root := range instances {
		var walkErr error
		root.Walk(func(inst *canvas.Instance) {
			if walkErr != nil || inst.Props == nil {
				return
			}
			raw, ok := inst.Props["dataSource"]
			if !ok {
				return
			}
			src, err := datasource.SourceFromProps(raw)
			if err != nil {
				walkErr = fmt.Errorf("export: instance %s: %w", inst.ID, err)
				return
			}
			if src.Type == datasource.SourceStatic {
				return
			}
			if resolver == nil {
				walkErr = fmt.Errorf("export: instance %s: snapshot export needs a resolver for %s sources", inst.ID, src.Type)
				return
			}
			res, err := resolver.Resolve(ctx, src)
			if err != nil {
				walkErr = fmt.Errorf("export: instance %s: resolve source: %w", inst.ID, err)
				return
			}
			inst.Props["dataSource"] = map[string]any{
				"type":   string(datasource.SourceStatic),
				"static": toAnyRows(res.Rows),
			}
		})
		if walkErr != nil {
			return walkErr
		}
	}
	return nil
}

func toAnyRows(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// DecodeProject extracts and decodes the embedded project payload from
// an exported document. Round-trip tooling and tests use it; the
// runtime inside the artifact reads the same element.
func DecodeProject(doc []byte) (*Project, error) {
	start := bytes.Index(doc, []byte(projectScriptOpen))
	if start < 0 {
		return nil, fmt.Errorf("export: no embedded project in document")
	}
	rest := doc[start+len(projectScriptOpen):]
	end := bytes.Index(rest, []byte("</script>"))
	if end < 0 {
		return nil, fmt.Errorf("export: embedded project is not terminated")
	}

	var p Project
	if err := json.Unmarshal(rest[:end], &p); err != nil {
		return nil, fmt.Errorf("export: decode project: %w", err)
	}
	return &p, nil
}
