package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/store"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{Status: record.Status(r.URL.Query().Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, s.logger, http.StatusBadRequest, fmt.Sprintf("unknown status %q", f.Status))
		return
	}
	recs, err := s.deps.Store.List(r.Context(), f)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if recs == nil {
		recs = []*record.Record{}
	}
	encodeWriteJSON(w, s.logger, http.StatusOK, recs)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in record.Record
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid record: "+err.Error())
		return
	}
	rec, err := s.deps.Store.Create(r.Context(), &in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.logger.Info("record created", zap.String("id", rec.ID), zap.String("title", rec.Title))
	w.Header().Set("Location", "/records/"+rec.ID)
	encodeWriteJSON(w, s.logger, http.StatusCreated, rec)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	encodeWriteJSON(w, s.logger, http.StatusOK, rec)
}

// handleUpdateRecord replaces the editable fields. An omitted status keeps
// the stored one.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	current, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var in record.Record
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid record: "+err.Error())
		return
	}
	in.ID = current.ID
	in.CreatedAt = current.CreatedAt
	if in.Status == "" {
		in.Status = current.Status
	}
	rec, err := s.deps.Store.Update(r.Context(), &in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	encodeWriteJSON(w, s.logger, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.logger.Info("record deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// handleAdvance moves the record one step along the status pipeline
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	from := rec.Status.OrDefault()
	next, ok := from.Next()
	if !ok {
		writeError(w, s.logger, http.StatusConflict, fmt.Sprintf("record is already %s", from.Label()))
		return
	}
	rec.Status = next
	rec, err = s.deps.Store.Update(r.Context(), rec)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.logger.Info("record advanced",
		zap.String("id", rec.ID),
		zap.String("from", string(from)),
		zap.String("to", string(next)))
	encodeWriteJSON(w, s.logger, http.StatusOK, rec)
}
