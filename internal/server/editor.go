package server

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/forma-dev/forma/pkg/render"
	"github.com/forma-dev/forma/pkg/vdom"
)

//go:embed editor.css
var editorCSS string

//go:embed editor.js
var editorJS string

// handleEditorPage serves the editor shell: toolbar, component
// palette, canvas stage, and property panel. The palette is rendered
// server-side; the stage and panel fill in over the websocket.
func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) {
	body := vdom.Div(vdom.Class("forma-editor"),
		vdom.El("header", vdom.Class("forma-toolbar"),
			vdom.Span(vdom.Class("forma-logo"), vdom.Text("forma")),
			vdom.Input(
				vdom.ID("forma-project-name"),
				vdom.Type("text"),
				vdom.Value(projectNameOr(r, "untitled")),
				vdom.A("spellcheck", "false"),
			),
			vdom.Button(vdom.ID("forma-save"), vdom.Text("Save")),
			vdom.Button(vdom.ID("forma-export"), vdom.Text("Export")),
			vdom.Span(vdom.ID("forma-status"), vdom.Class("forma-status")),
		),
		vdom.Div(vdom.Class("forma-workspace"),
			s.renderPalette(),
			vdom.El("main", vdom.ID("forma-stage"), vdom.Class("forma-stage")),
			vdom.El("aside", vdom.ID("forma-panel"), vdom.Class("forma-prop-panel")),
		),
	)

	html, err := render.New(render.Config{}).ToString(body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	cfg, _ := json.Marshal(map[string]any{
		"project": projectNameOr(r, "untitled"),
	})

	doc := render.Document{
		Title:       "forma",
		Styles:      editorCSS,
		Body:        html,
		HeadScripts: []string{"window.FORMA_CONFIG = " + string(cfg) + ";"},
		BodyScripts: []string{editorJS},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	doc.WriteTo(w)
}

func projectNameOr(r *http.Request, fallback string) string {
	if name := r.URL.Query().Get("project"); name != "" && validProjectName(name) {
		return name
	}
	return fallback
}

func (s *Server) renderPalette() *vdom.VNode {
	kinds := s.registry.Kinds()
	entries := make([]*vdom.VNode, 0, len(kinds)+2)
	entries = append(entries,
		vdom.H2(vdom.Text("Components")),
		vdom.Input(
			vdom.ID("forma-palette-search"),
			vdom.Type("search"),
			vdom.Placeholder("Search..."),
		),
	)
	for _, k := range kinds {
		entries = append(entries, vdom.Button(
			vdom.Class("forma-palette-item"),
			vdom.A("data-kind", k.Type),
			vdom.A("data-label", k.Label),
			vdom.Text(k.Label),
		))
	}
	return vdom.El("aside", vdom.ID("forma-palette"), vdom.Class("forma-palette"), entries)
}
