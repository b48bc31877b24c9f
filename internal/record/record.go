// Package record defines the production record exported as a cut ticket.
package record

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// MaxReferencePhotos is the number of secondary attachments a record may hold.
const MaxReferencePhotos = 6

// ErrInvalid is returned by Validate for records that cannot be stored or exported.
var ErrInvalid = errors.New("invalid record")

// Record is a tracked production project.
type Record struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	DueDate    Date   `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Status     Status `json:"status,omitempty" yaml:"status,omitempty"`

	PrimaryImage    *Attachment  `json:"primaryImage,omitempty" yaml:"primaryImage,omitempty"`
	Swatches        Swatches     `json:"swatches,omitempty" yaml:"swatches,omitempty"`
	ReferencePhotos []Attachment `json:"referencePhotos,omitempty" yaml:"referencePhotos,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Attachment is an uploaded image or document referenced by URL.
type Attachment struct {
	URL         string `json:"url" yaml:"url"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}

// IsZero reports whether the attachment has no URL.
func (a *Attachment) IsZero() bool {
	return a == nil || strings.TrimSpace(a.URL) == ""
}

// MediaType returns the attachment MIME type, falling back to the URL extension.
func (a Attachment) MediaType() string {
	if a.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(a.ContentType); err == nil {
			return mt
		}
		return strings.ToLower(a.ContentType)
	}
	if strings.HasPrefix(a.URL, "data:") {
		meta, _, _ := strings.Cut(strings.TrimPrefix(a.URL, "data:"), ",")
		mt, _, _ := strings.Cut(meta, ";")
		return strings.ToLower(mt)
	}
	p := a.URL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	case "":
		return ""
	default:
		return mime.TypeByExtension(ext)
	}
}

// IsDocument reports whether the attachment is a non-image document (e.g. a PDF).
// Attachments with an unknown type are treated as images.
func (a Attachment) IsDocument() bool {
	mt := a.MediaType()
	return mt != "" && !strings.HasPrefix(mt, "image/")
}

// DisplayName returns Name or the last path element of the URL.
func (a Attachment) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if strings.HasPrefix(a.URL, "data:") {
		return "attachment"
	}
	p := a.URL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Base(p)
}

// Validate checks the record against the model limits.
func (r *Record) Validate() error {
	if len(r.ReferencePhotos) > MaxReferencePhotos {
		return fmt.Errorf("%w: %d reference photos, at most %d allowed",
			ErrInvalid, len(r.ReferencePhotos), MaxReferencePhotos)
	}
	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, r.Status)
	}
	for i, a := range r.ReferencePhotos {
		if a.IsZero() {
			return fmt.Errorf("%w: reference photo %d has no url", ErrInvalid, i)
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.PrimaryImage != nil {
		img := *r.PrimaryImage
		c.PrimaryImage = &img
	}
	if r.ReferencePhotos != nil {
		c.ReferencePhotos = append([]Attachment(nil), r.ReferencePhotos...)
	}
	c.Swatches = r.Swatches.clone()
	return &c
}
