// Package server hosts the forma editor: the editor page, websocket
// editing sessions, project persistence, saved-query endpoints, and
// the export endpoint.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forma-dev/forma/internal/config"
	"github.com/forma-dev/forma/internal/errors"
	"github.com/forma-dev/forma/internal/queryhub"
	"github.com/forma-dev/forma/pkg/catalog"
	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/export"
)

// Server is the forma editor server.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *catalog.Registry
	hub      *queryhub.Hub
	data     *datasource.Client
	projects *ProjectStore
	metrics  *metrics
	upgrader websocket.Upgrader
	watcher  *Watcher

	httpServer *http.Server
}

// New builds a server from the loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	hub, err := queryhub.NewHub(cfg.Data.Connectors, cfg.Data.Queries, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: catalog.Default(),
		hub:      hub,
		data:     datasource.NewClient(hub),
		projects: NewProjectStore(cfg.ProjectsPath()),
		metrics:  newMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The editor runs on localhost; cross-origin pages may not
			// open editing sessions.
			CheckOrigin: func(r *http.Request) bool {
				return r.Header.Get("Origin") == "" || sameHost(r)
			},
		},
	}

	if cfg.Dev.HotReload {
		s.watcher = NewWatcher(watchPaths(cfg), logger)
	}

	return s, nil
}

func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func watchPaths(cfg *config.Config) []string {
	var paths []string
	for _, p := range cfg.Dev.Watch {
		if filepath.IsAbs(p) {
			paths = append(paths, p)
			continue
		}
		paths = append(paths, filepath.Join(cfg.Dir(), p))
	}
	return paths
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/", s.handleEditorPage)
	r.Get("/preview/{name}", s.handlePreview)
	r.Get("/ws", s.handleWebsocket)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(corsAll)

		r.Get("/kinds", s.handleKinds)

		r.Get("/projects", s.handleProjectList)
		r.Get("/projects/{name}", s.handleProjectGet)
		r.Put("/projects/{name}", s.handleProjectSave)
		r.Delete("/projects/{name}", s.handleProjectDelete)

		r.Get("/queries", s.handleQueryList)
		r.Get("/queries/{id}/execute", s.handleQueryExecute)
		r.Post("/queries/{id}/execute", s.handleQueryExecute)

		r.Get("/connectors", s.handleConnectorList)
		r.Get("/connectors/{id}/schema", s.handleConnectorSchema)

		r.Post("/export", s.handleExport)
	})

	return r
}

// ListenAndServe starts the server and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watcher != nil {
		go s.watcher.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("editor server listening", "addr", s.cfg.URL())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.hub.Close()
}

// Close releases server resources without serving.
func (s *Server) Close() error {
	return s.hub.Close()
}

// corsAll allows the API to be called from exported live documents
// hosted anywhere.
func corsAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	session := newSession(s, conn)
	if s.watcher != nil {
		s.watcher.Subscribe(session)
		defer s.watcher.Unsubscribe(session)
	}
	session.Run()
}

// kindSummary is the palette entry for one component kind.
type kindSummary struct {
	Type      string `json:"type"`
	Label     string `json:"label"`
	Icon      string `json:"icon,omitempty"`
	Container bool   `json:"container,omitempty"`
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	kinds := s.registry.Kinds()
	if q := r.URL.Query().Get("q"); q != "" {
		kinds = s.registry.Search(q)
	}

	out := make([]kindSummary, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, kindSummary{
			Type:      k.Type,
			Label:     k.Label,
			Icon:      k.Icon,
			Container: k.Container,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	names, err := s.projects.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.projects.Load(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleProjectSave(w http.ResponseWriter, r *http.Request) {
	var doc ProjectDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.projects.Save(name, doc.Instances); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(chi.URLParam(r, "name")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Queries())
}

func (s *Server) handleQueryExecute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := s.hub.ExecuteQuery(r.Context(), chi.URLParam(r, "id"))
	s.metrics.queryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleConnectorList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Connectors())
}

func (s *Server) handleConnectorSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := s.hub.Schema(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

// exportRequest asks the server to generate a standalone document for
// a saved project.
type exportRequest struct {
	Project string `json:"project"`
	Mode    string `json:"mode,omitempty"`
}

type exportResponse struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc, err := s.projects.Load(req.Project)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	mode := export.Mode(req.Mode)
	if req.Mode == "" {
		mode = export.Mode(s.cfg.Export.Mode)
	}
	endpoint := s.cfg.Export.Endpoint
	if endpoint == "" {
		endpoint = s.cfg.URL()
	}

	artifact, err := export.Standalone(r.Context(), doc.Instances, export.Options{
		ProjectName: doc.Name,
		Mode:        mode,
		Endpoint:    endpoint,
		Resolver:    s.data,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("E060").Wrap(err))
		return
	}
	s.metrics.exportsTotal.WithLabelValues(string(mode)).Inc()

	outDir := s.cfg.ExportsPath()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	outPath := filepath.Join(outDir, doc.Name+".html")
	if err := os.WriteFile(outPath, artifact, 0644); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("project exported", "project", doc.Name, "mode", mode, "path", outPath)
	writeJSON(w, http.StatusOK, exportResponse{Path: outPath, Size: len(artifact)})
}

// handlePreview serves a freshly generated snapshot export of a saved
// project, for viewing before writing anything to disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc, err := s.projects.Load(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	artifact, err := export.Standalone(r.Context(), doc.Instances, export.Options{
		ProjectName: doc.Name,
		Mode:        export.ModeSnapshot,
		Resolver:    s.data,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("E060").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(artifact)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if fe, ok := err.(*errors.FormaError); ok {
		w.Write([]byte(fe.FormatJSON()))
		w.Write([]byte("\n"))
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
