package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/dispatch"
	"github.com/forma-dev/forma/pkg/propsheet"
	"github.com/forma-dev/forma/pkg/render"
	"github.com/forma-dev/forma/pkg/script"
	"github.com/forma-dev/forma/pkg/vdom"
)

// Frame is one editing operation from the client. A single JSON shape
// covers every operation; unused fields are omitted.
type Frame struct {
	Type     string  `json:"type"`
	Project  string  `json:"project,omitempty"`
	ID       string  `json:"id,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	ParentID string  `json:"parentId,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Key      string  `json:"key,omitempty"`
	Value    string  `json:"value,omitempty"`
	Event    string  `json:"event,omitempty"`
}

// serverFrame is a message from the session to the client.
type serverFrame struct {
	Type     string       `json:"type"`
	Version  uint64       `json:"version,omitempty"`
	HTML     string       `json:"html,omitempty"`
	Panel    string       `json:"panel,omitempty"`
	Patches  []vdom.Patch `json:"patches,omitempty"`
	Selected string       `json:"selected,omitempty"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message,omitempty"`
	Key      string       `json:"key,omitempty"`
}

const (
	sessionReadTimeout  = 120 * time.Second
	sessionWriteTimeout = 10 * time.Second
	sessionQueueSize    = 64
)

// Session is one websocket editing session. It owns its canvas store
// outright: every mutation flows through the single event loop
// goroutine, so store access needs no locking.
type Session struct {
	id      string
	project string

	conn     *websocket.Conn
	logger   *slog.Logger
	metrics  *metrics
	projects *ProjectStore

	store      *canvas.Store
	dispatcher *dispatch.Dispatcher
	panel      *propsheet.Panel
	renderer   *render.Renderer

	frames chan Frame
	out    chan []byte
	done   chan struct{}
	once   sync.Once

	prev *vdom.VNode
}

func newSession(srv *Server, conn *websocket.Conn) *Session {
	s := &Session{
		id:       uuid.NewString(),
		conn:     conn,
		metrics:  srv.metrics,
		projects: srv.projects,
		frames:   make(chan Frame, sessionQueueSize),
		out:      make(chan []byte, sessionQueueSize),
		done:     make(chan struct{}),
	}
	s.logger = srv.logger.With("session", s.id)

	s.store = canvas.NewStore(srv.registry)
	engine := script.NewEngine(s.logger)
	s.dispatcher = dispatch.New(srv.registry, srv.data, engine,
		dispatch.WithLogger(s.logger),
		dispatch.WithDataCallback(func() { s.enqueue(Frame{Type: "refresh"}) }),
	)
	s.panel = propsheet.NewPanel(srv.registry, s.store, s.logger)
	s.renderer = render.New(render.Config{})

	return s
}

// Run drives the session until the connection closes.
func (s *Session) Run() {
	s.metrics.sessionsActive.Inc()
	defer s.metrics.sessionsActive.Dec()

	go s.writeLoop()
	go s.eventLoop()

	s.readLoop()
	s.close()
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
		s.logger.Info("session closed", "project", s.project)
	})
}

// enqueue queues a frame for the event loop without blocking; frames
// arriving faster than the loop drains them are dropped, and the next
// render reflects the latest state anyway.
func (s *Session) enqueue(f Frame) {
	select {
	case s.frames <- f:
	case <-s.done:
	default:
		s.logger.Warn("frame queue full, dropping", "type", f.Type)
	}
}

// readLoop reads client frames off the wire and queues them.
func (s *Session) readLoop() {
	for {
		s.conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}
		s.enqueue(frame)
	}
}

// writeLoop serializes all writes to the connection.
func (s *Session) writeLoop() {
	for {
		select {
		case msg := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(sessionWriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Error("write error", "error", err)
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// eventLoop is the single writer for the session's store.
func (s *Session) eventLoop() {
	for {
		select {
		case frame := <-s.frames:
			s.handleFrame(frame)
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleFrame(frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("frame handler panicked", "type", frame.Type, "error", r)
			s.sendError("E002", "internal error handling "+frame.Type)
		}
	}()

	s.metrics.editOps.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case "open":
		s.handleOpen(frame)

	case "create":
		inst, err := s.store.Create(frame.Kind, canvas.Position{X: frame.X, Y: frame.Y}, frame.ParentID)
		if err != nil {
			s.sendError("E001", err.Error())
			return
		}
		s.store.Select(inst.ID)
		s.sendUpdate()

	case "move":
		if err := s.store.Move(frame.ID, canvas.Position{X: frame.X, Y: frame.Y}); err != nil {
			s.sendError("E010", err.Error())
			return
		}
		s.sendUpdate()

	case "resize":
		if err := s.store.Resize(frame.ID, frame.Width, frame.Height); err != nil {
			s.sendError("E010", err.Error())
			return
		}
		s.sendUpdate()

	case "select":
		if err := s.store.Select(frame.ID); err != nil {
			s.sendError("E010", err.Error())
			return
		}
		s.sendUpdate()

	case "prop":
		s.handleProp(frame)

	case "delete":
		if err := s.store.Delete(frame.ID); err != nil {
			s.sendError("E010", err.Error())
			return
		}
		s.dispatcher.Invalidate(frame.ID)
		s.sendUpdate()

	case "event":
		s.handleEvent(frame)

	case "save":
		if err := s.projects.Save(s.project, s.store.Snapshot()); err != nil {
			s.sendError("E142", err.Error())
			return
		}
		s.send(serverFrame{Type: "saved", Version: s.store.Version()})

	case "refresh":
		s.sendUpdate()

	default:
		s.logger.Warn("unknown frame type", "type", frame.Type)
	}
}

func (s *Session) handleOpen(frame Frame) {
	name := frame.Project
	if name == "" {
		name = "untitled"
	}

	if s.projects.Exists(name) {
		doc, err := s.projects.Load(name)
		if err != nil {
			s.sendError("E142", err.Error())
			return
		}
		s.store.Restore(doc.Instances)
	} else {
		s.store.Restore(nil)
	}
	s.project = name
	s.logger.Info("project opened", "project", name, "instances", s.store.Len())
	s.sendFull()
}

func (s *Session) handleProp(frame Frame) {
	if err := s.panel.Apply(frame.ID, frame.Key, frame.Value); err != nil {
		var invalid *propsheet.ErrInvalidJSON
		if errors.As(err, &invalid) {
			// The editor text is preserved; the panel re-render shows
			// it flagged until it parses.
			s.send(serverFrame{
				Type:    "invalid",
				Key:     invalid.Key,
				Message: invalid.Err.Error(),
				Panel:   s.panelHTML(),
			})
			return
		}
		s.sendError("E120", err.Error())
		return
	}
	s.sendUpdate()
}

func (s *Session) handleEvent(frame Frame) {
	inst, ok := s.store.Find(frame.ID)
	if !ok {
		s.sendError("E010", "no such instance: "+frame.ID)
		return
	}
	if handler := s.dispatcher.Handler(inst, frame.Event); handler != nil {
		handler(map[string]any{"type": frame.Event, "value": frame.Value})
	}
	s.sendUpdate()
}

// sendFull replaces the whole canvas on the client. Used after opening
// a project; everything else goes out as patches.
func (s *Session) sendFull() {
	start := time.Now()
	next := s.dispatcher.RenderAll(s.store.Roots())
	html, err := s.renderer.ToString(next)
	if err != nil {
		s.sendError("E002", err.Error())
		return
	}
	s.prev = next
	s.metrics.renderDuration.Observe(time.Since(start).Seconds())

	s.send(serverFrame{
		Type:     "render",
		Version:  s.store.Version(),
		HTML:     html,
		Panel:    s.panelHTML(),
		Selected: s.store.Selected(),
	})
}

// sendUpdate re-renders the tree and ships the diff.
func (s *Session) sendUpdate() {
	start := time.Now()
	next := s.dispatcher.RenderAll(s.store.Roots())
	patches := vdom.Diff(s.prev, next)

	for i := range patches {
		if patches[i].Node == nil {
			continue
		}
		html, err := s.renderer.ToString(patches[i].Node)
		if err != nil {
			s.logger.Error("patch render failed", "error", err)
			continue
		}
		patches[i].HTML = html
	}

	s.prev = next
	s.metrics.renderDuration.Observe(time.Since(start).Seconds())
	s.metrics.patchesSent.Add(float64(len(patches)))

	s.send(serverFrame{
		Type:     "patches",
		Version:  s.store.Version(),
		Patches:  patches,
		Panel:    s.panelHTML(),
		Selected: s.store.Selected(),
	})
}

// panelHTML renders the property panel for the current selection. The
// panel is replaced wholesale on every update, so it uses a throwaway
// renderer.
func (s *Session) panelHTML() string {
	inst, _ := s.store.Find(s.store.Selected())
	node := s.panel.Render(inst)
	html, err := render.New(render.Config{}).ToString(node)
	if err != nil {
		s.logger.Error("panel render failed", "error", err)
		return ""
	}
	return html
}

func (s *Session) sendError(code, message string) {
	s.logger.Warn("session error", "code", code, "message", message)
	s.send(serverFrame{Type: "error", Code: code, Message: message})
}

func (s *Session) send(frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("frame encode error", "error", err)
		return
	}
	select {
	case s.out <- data:
	case <-s.done:
	}
}
