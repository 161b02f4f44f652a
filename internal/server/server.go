// Package server exposes measurement sessions over HTTP for `garmushka serve`.
//
// A live session is an engine held in memory together with its bitmap.
// Clients drive it with the same command schema replay scripts use, read
// the derived table, export it, and save it to the configured session
// store. Saved sessions are reopened on first access.
//
//	POST   /sessions                      create (image body, or JSON {label,width,height,unit_mode})
//	GET    /sessions                      list saved sessions
//	GET    /sessions/{id}                 status and payload
//	POST   /sessions/{id}/commands        apply one command or an array of commands
//	GET    /sessions/{id}/rows            measurement table
//	GET    /sessions/{id}/summary         area summary
//	GET    /sessions/{id}/export/{format} csv, json or png
//	POST   /sessions/{id}/save            persist to the session store
//	DELETE /sessions/{id}                 drop from memory and the store
package server

import (
	"context"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/garmushka/pkg/buildinfo"
	"github.com/matzehuels/garmushka/pkg/cache"
	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/export"
	"github.com/matzehuels/garmushka/pkg/session"
)

// MaxUploadBytes bounds request bodies.
const MaxUploadBytes = 64 << 20

// live is an open session.
type live struct {
	engine *engine.Engine
	bitmap image.Image
	label  string
	saved  *session.Session
}

// Server holds open sessions and the store they are saved to.
type Server struct {
	cfg     config.Config
	store   session.Store
	renders cache.Cache
	logger  *log.Logger

	mu   sync.Mutex
	live map[string]*live
}

// New creates a server. A nil logger discards output.
func New(cfg config.Config, store session.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		cfg:     cfg,
		store:   store,
		renders: cache.NewMemoryCache(cache.DefaultMaxEntries),
		logger:  logger,
		live:    make(map[string]*live),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, buildinfo.Get())
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/commands", s.handleCommands)
			r.Get("/rows", s.handleRows)
			r.Get("/summary", s.handleSummary)
			r.Get("/export/{format}", s.handleExport)
			r.Post("/save", s.handleSave)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) engineOptions() engine.Options {
	return engine.OptionsFromConfig(s.cfg.Engine, s.logger)
}

// open returns the live session id, reopening it from the store if needed.
func (s *Server) open(ctx context.Context, id string) (*live, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	l, ok := s.live[id]
	s.mu.Unlock()
	if ok {
		return l, nil
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := sess.Payload.Engine(s.engineOptions())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.live[id]; ok {
		return l, nil
	}
	l = &live{engine: e, label: sess.SourceLabel(), saved: sess}
	s.live[id] = l
	return l, nil
}

func (s *Server) payload(l *live) export.Payload {
	return export.FromEngine(l.engine, l.label)
}

func (s *Server) scene(l *live) export.Scene {
	return export.SceneFromEngine(l.engine, l.bitmap)
}
