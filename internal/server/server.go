package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/edfloreshz/gooey/internal/config"
	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/pkg/value"
)

// maxBody bounds PUT request bodies.
const maxBody = 1 << 20

// Server serves a fixed set of named cells.
type Server struct {
	cells       *registry
	router      chi.Router
	upgrader    websocket.Upgrader
	log         *slog.Logger
	scheduler   value.Scheduler
	metrics     http.Handler
	metricsPath string

	watchers  atomic.Int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics mounts h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = h
	}
}

// WithScheduler sets the scheduler used by debounced cells.
func WithScheduler(sched value.Scheduler) Option {
	return func(s *Server) {
		s.scheduler = sched
	}
}

// New creates a Server for the given cells.
func New(cells []config.CellConfig, opts ...Option) (*Server, error) {
	s := &Server{
		log: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	reg, err := newRegistry(cells, s.scheduler)
	if err != nil {
		return nil, err
	}
	s.cells = reg
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.metrics != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}

	r.Route("/cells", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleGet)
		r.Put("/{name}", s.handlePut)
		r.Get("/{name}/watch", s.handleWatch)
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Cell returns the named cell.
func (s *Server) Cell(name string) (*Cell, error) {
	return s.cells.get(name)
}

// Watchers returns the number of open watch connections.
func (s *Server) Watchers() int {
	return int(s.watchers.Load())
}

// Close releases every cell. Open watchers observe the disconnection and
// close their connections; Close waits for them until ctx is done.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(s.cells.release)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cells.snapshots())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	cell, err := s.cells.get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cell.Snapshot())
}

type putResponse struct {
	Snapshot
	Changed bool `json:"changed"`
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	cell, err := s.cells.get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, errors.New("G301").Wrap(err))
		return
	}
	snap, changed, err := cell.Store(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if changed {
		s.log.Info("cell updated", "cell", cell.Name(), "generation", snap.Generation)
	}
	writeJSON(w, http.StatusOK, putResponse{Snapshot: snap, Changed: changed})
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	cell, err := s.cells.get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.wg.Add(1)
	s.watchers.Add(1)
	defer func() {
		s.watchers.Add(-1)
		s.wg.Done()
	}()
	defer conn.Close()

	reader := cell.Watch()
	defer reader.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Keep reading so that close frames are processed; any read error ends
	// the watch.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		g := value.GetGenerational[string](reader)
		snap := Snapshot{Name: cell.Name(), Value: json.RawMessage(g.Value), Generation: uint64(g.Generation())}
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
		updated, err := reader.WaitUntilUpdated(ctx)
		if err != nil {
			return
		}
		if !updated {
			break
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "cell released"),
		time.Now().Add(time.Second))
}

type errorResponse struct {
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	e := errors.FromError(err, "G200")
	status := http.StatusInternalServerError
	switch e.Code {
	case "G300":
		status = http.StatusNotFound
	case "G301":
		status = http.StatusBadRequest
	case "G302":
		status = http.StatusConflict
	}
	detail := e.Detail
	if e.Wrapped != nil {
		detail = e.Wrapped.Error()
	}
	writeJSON(w, status, errorResponse{Code: e.Code, Error: e.Message, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
