/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/suparena/cloudadapter"
	"github.com/suparena/cloudadapter/blobstore"
	"github.com/suparena/cloudadapter/datastore"
	"github.com/suparena/cloudadapter/notification"
	"github.com/suparena/cloudadapter/storagemodels"
)

func init() {
	chi.RegisterMethod(string(storagemodels.VerbMerge))
}

// PermissionFunc is asked before every service call. path is
// "<service>/<segments>"; a non-nil error answers 403.
type PermissionFunc func(ctx context.Context, verb storagemodels.Verb, path string) error

// Server exposes the services of a Manager under /api/{service}.
type Server struct {
	manager    *cloudadapter.Manager
	permission PermissionFunc
	logger     *zap.Logger
	metrics    *Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPermission installs the permission callback.
func WithPermission(fn PermissionFunc) Option {
	return func(s *Server) {
		s.permission = fn
	}
}

// WithMetrics replaces the default collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server over m.
func New(m *cloudadapter.Manager, opts ...Option) *Server {
	s := &Server{
		manager: m,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("cloudadapter")
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(s.logger))
	router.Use(s.metrics.Instrument)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	router.Handle("/metrics", s.metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/", s.listServices)
		r.HandleFunc("/{service}", s.serve)
		r.HandleFunc("/{service}/*", s.serve)
	})
	return router
}

type serviceInfo struct {
	Name string            `json:"name"`
	Kind cloudadapter.Kind `json:"kind"`
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	names := s.manager.Names()
	out := make([]serviceInfo, 0, len(names))
	for _, name := range names {
		svc, err := s.manager.Get(name)
		if err != nil {
			continue
		}
		kind, _ := cloudadapter.KindOf(svc)
		out = append(out, serviceInfo{Name: name, Kind: kind})
	}
	writeJSON(w, http.StatusOK, resourceList{Resource: out})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service")
	svc, err := s.manager.Get(name)
	if err != nil {
		s.writeError(w, r, name, err)
		return
	}
	kind, _ := cloudadapter.KindOf(svc)

	req, err := ParseRequest(r, kind != cloudadapter.KindBlob)
	if err != nil {
		s.writeError(w, r, name, err)
		return
	}
	if s.permission != nil {
		path := strings.Join(append([]string{req.Service}, req.Path...), "/")
		if err := s.permission(r.Context(), req.Verb, path); err != nil {
			s.writeErrorStatus(w, r, name, http.StatusForbidden, err)
			return
		}
	}

	switch svc := svc.(type) {
	case datastore.Service:
		s.serveDatabase(w, r, svc, req)
	case *blobstore.Store:
		s.serveBlob(w, r, svc, req)
	case *notification.Service:
		s.serveNotification(w, r, svc, req)
	}
}

// nameList answers a listing of names.
func nameList(w http.ResponseWriter, names []string) {
	out := make([]map[string]string, 0, len(names))
	for _, n := range names {
		out = append(out, map[string]string{"name": n})
	}
	writeJSON(w, http.StatusOK, resourceList{Resource: out})
}
