// Package server exposes records, uploads, cut-ticket downloads and sketch
// generation over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/blob"
	"github.com/gompdf/cutticket/internal/cache"
	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/sketch"
	"github.com/gompdf/cutticket/internal/store"
	"github.com/gompdf/cutticket/pkg/api"
)

// Exporter renders a record into a cut-ticket PDF
type Exporter interface {
	Export(ctx context.Context, rec *record.Record) (*api.Result, error)
}

// Deps are the collaborators of the server. Cache, Files and Sketches are optional.
type Deps struct {
	Store    store.Store
	Blobs    blob.Storage
	Exporter Exporter

	// Files serves blob URLs under /files/
	Files http.Handler
	Cache cache.Cache
	// CacheVariant distinguishes renderings of the same record, e.g. "A4-raster"
	CacheVariant string
	Sketches     sketch.Generator

	Logger *zap.Logger
}

// Server is the HTTP front of the tracker
type Server struct {
	deps    Deps
	logger  *zap.Logger
	handler http.Handler
}

// New builds the routes
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Named("server")
	}
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	s := &Server{deps: deps, logger: deps.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /records", s.handleListRecords)
	mux.HandleFunc("POST /records", s.handleCreateRecord)
	mux.HandleFunc("GET /records/{id}", s.handleGetRecord)
	mux.HandleFunc("PUT /records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /records/{id}", s.handleDeleteRecord)
	mux.HandleFunc("POST /records/{id}/advance", s.handleAdvance)
	mux.HandleFunc("POST /records/{id}/uploads/{field...}", s.handleUpload)
	mux.HandleFunc("GET /records/{id}/cut-ticket", s.handleCutTicket)

	mux.HandleFunc("POST /sketches", s.handleSketch)
	if deps.Files != nil {
		mux.Handle("GET /files/", http.StripPrefix("/files/", deps.Files))
	}

	s.handler = s.logRequests(s.recoverWrapper(mux))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done, then shuts down gracefully within timeout
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, timeout)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := <-errc; err != nil {
		return err
	}
	s.logger.Info("shutdown complete")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	encodeWriteJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}
