// Package blob stores uploaded attachments and hands out their public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/res"
)

// ErrInvalidPath is returned for object paths escaping the storage root
var ErrInvalidPath = errors.New("invalid object path")

// ErrTooLarge is returned when an upload exceeds the resource size limit
var ErrTooLarge = errors.New("upload too large")

// Storage accepts uploads and resolves object paths to public URLs
type Storage interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error)
	PublicURL(objectPath string) string
}

// Local keeps objects in a directory served under a public base URL
type Local struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

var _ Storage = (*Local)(nil)

// NewLocal stores objects under dir; baseURL is the prefix the directory
// is served at, e.g. "http://localhost:8080/files/".
func NewLocal(dir, baseURL string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = logging.Named("blob")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Local{dir: dir, baseURL: baseURL, logger: logger}, nil
}

// BaseURL returns the public prefix of every object
func (l *Local) BaseURL() string {
	return l.baseURL
}

// FS exposes the stored objects for reading
func (l *Local) FS() fs.FS {
	return os.DirFS(l.dir)
}

// Handler serves the stored objects; mount it with the path of BaseURL stripped
func (l *Local) Handler() http.Handler {
	return http.FileServer(http.FS(l.FS()))
}

// PublicURL returns the URL objectPath is served at
func (l *Local) PublicURL(objectPath string) string {
	clean, err := cleanPath(objectPath)
	if err != nil {
		return ""
	}
	return l.baseURL + clean
}

// Upload writes r to objectPath, replacing any previous object, and returns
// its public URL. A failed upload leaves no object behind.
func (l *Local) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	clean, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(l.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("upload %s: %w", clean, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", clean, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, res.MaxResourceSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", clean, err)
	}
	if n > res.MaxResourceSize {
		return "", fmt.Errorf("upload %s: %w", clean, ErrTooLarge)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("upload %s: %w", clean, err)
	}

	l.logger.Debug("blob stored",
		zap.String("path", clean),
		zap.String("content_type", contentType),
		zap.Int64("bytes", n))
	return l.baseURL + clean, nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean("/" + p)[1:]
	if clean == "" || clean != strings.TrimPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}
