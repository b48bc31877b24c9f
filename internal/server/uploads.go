package server

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/res"
)

const maxUploadMemory = 8 << 20

// target is a record field an upload can be attached to
type target struct {
	kind string // primary, reference, swatch
	role record.SwatchRole
}

func parseTarget(field string) (target, error) {
	switch {
	case field == "primary":
		return target{kind: "primary"}, nil
	case field == "reference":
		return target{kind: "reference"}, nil
	case strings.HasPrefix(field, "swatch/"):
		role, err := record.ParseSwatchRole(strings.TrimPrefix(field, "swatch/"))
		if err != nil {
			return target{}, err
		}
		return target{kind: "swatch", role: role}, nil
	}
	return target{}, fmt.Errorf("unknown upload field %q", field)
}

func (t target) String() string {
	if t.kind == "swatch" {
		return "swatch/" + t.role.Key()
	}
	return t.kind
}

func (t target) apply(rec *record.Record, a record.Attachment) {
	switch t.kind {
	case "primary":
		rec.PrimaryImage = &a
	case "reference":
		rec.ReferencePhotos = append(rec.ReferencePhotos, a)
	case "swatch":
		sw := rec.Swatch(t.role)
		sw.Image = &a
		rec.Swatches.Set(t.role, sw)
	}
}

// handleUpload stores the multipart "file" part and attaches it to the
// record. A failed blob upload is logged and the record returned unchanged.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(r.PathValue("field"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if t.kind == "reference" && len(rec.ReferencePhotos) >= record.MaxReferencePhotos {
		writeError(w, s.logger, http.StatusBadRequest,
			fmt.Sprintf("at most %d reference photos allowed", record.MaxReferencePhotos))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, res.MaxResourceSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	objectPath := path.Join(rec.ID, t.String(), uuid.NewString()+strings.ToLower(path.Ext(header.Filename)))

	logger := s.logger.With(zap.String("id", rec.ID), zap.Stringer("field", t), zap.String("name", header.Filename))
	url, err := s.deps.Blobs.Upload(r.Context(), objectPath, file, contentType)
	if err != nil {
		logger.Warn("upload failed, record left unchanged", zap.Error(err))
		encodeWriteJSON(w, s.logger, http.StatusOK, rec)
		return
	}

	t.apply(rec, record.Attachment{URL: url, Name: header.Filename, ContentType: contentType})
	rec, err = s.deps.Store.Update(r.Context(), rec)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	logger.Info("attachment uploaded", zap.String("url", url))
	encodeWriteJSON(w, s.logger, http.StatusOK, rec)
}
