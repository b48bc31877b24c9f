package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/cache"
	"github.com/gompdf/cutticket/internal/sketch"
)

// handleCutTicket renders the record's cut ticket, serving a cached
// rendering when the record content is unchanged.
func (s *Server) handleCutTicket(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	logger := s.logger.With(zap.String("id", rec.ID))
	key := cache.Key(rec, s.deps.CacheVariant)

	entry, err := s.deps.Cache.Get(r.Context(), key)
	switch {
	case err == nil:
		logger.Debug("cut ticket served from cache")
		writePDF(w, s.logger, entry.Filename, entry.Data)
		return
	case !errors.Is(err, cache.ErrMiss):
		logger.Warn("cache lookup failed", zap.Error(err))
	}

	result, err := s.deps.Exporter.Export(r.Context(), rec)
	if err != nil {
		logger.Debug("cut ticket export failed", zap.Error(err))
		s.writeErr(w, r, err)
		return
	}
	entry = &cache.Entry{Filename: result.Filename, PageCount: result.PageCount, Data: result.Data}
	if err := s.deps.Cache.Set(r.Context(), key, entry); err != nil {
		logger.Warn("cache store failed", zap.Error(err))
	}
	writePDF(w, s.logger, result.Filename, result.Data)
}

func (s *Server) handleSketch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sketches == nil {
		writeError(w, s.logger, http.StatusServiceUnavailable, "sketch generation is not configured")
		return
	}
	var req sketch.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid sketch request: "+err.Error())
		return
	}
	resp, err := s.deps.Sketches.Generate(r.Context(), req)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	encodeWriteJSON(w, s.logger, http.StatusOK, resp)
}
