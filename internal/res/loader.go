// Package res loads attachment bytes and embedded assets and decodes them into images.
package res

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/res/assets"
)

// AssetScheme prefixes names resolved against the embedded assets.
const AssetScheme = "asset:"

// MaxResourceSize caps the bytes read from any single resource.
const MaxResourceSize = 32 << 20

// Default bounds of the resource cache kept by a loader.
const (
	DefaultCacheEntries       = 256
	DefaultCacheBytes   int64 = 256 << 20
)

// ErrNotFound is returned when a resource does not exist in any location.
var ErrNotFound = errors.New("resource not found")

// ResourceType represents the type of resource
type ResourceType int

const (
	ResourceTypeUnknown ResourceType = iota
	ResourceTypeImage
	ResourceTypeDocument
)

// Resource represents a loaded resource
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// IsSVG reports whether the resource is an SVG document
func (r *Resource) IsSVG() bool {
	return r.MimeType == "image/svg+xml"
}

// Loader fetches resources by URL and keeps the most recently used ones in
// a cache bounded by entry count and total bytes.
type Loader struct {
	// BaseDir resolves relative local paths
	BaseDir string

	cache *lru.Cache[string, *Resource]
	// cacheLock guards cacheBytes and serializes adds and evictions
	cacheLock  sync.Mutex
	cacheBytes int64
	maxBytes   int64
	group      singleflight.Group

	searchPaths []string
	assets      fs.FS
	mounts      []mount
	client      *http.Client
	logger      *zap.Logger
}

// NewLoader creates a loader resolving relative paths against baseDir
func NewLoader(baseDir string) *Loader {
	l := &Loader{
		BaseDir:  baseDir,
		maxBytes: DefaultCacheBytes,
		assets:   assets.FS,
		client:   http.DefaultClient,
		logger:   logging.Named("res"),
	}
	l.cache, _ = lru.NewWithEvict(DefaultCacheEntries, l.evicted)
	return l
}

// evicted runs with cacheLock held, from inside Add, RemoveOldest or Resize
func (l *Loader) evicted(_ string, r *Resource) {
	l.cacheBytes -= int64(len(r.Data))
}

// SetCacheLimit bounds the cache to entries resources and maxBytes bytes of
// resource data. Non-positive values leave the current bound unchanged.
func (l *Loader) SetCacheLimit(entries int, maxBytes int64) {
	l.cacheLock.Lock()
	defer l.cacheLock.Unlock()
	if entries > 0 {
		l.cache.Resize(entries)
	}
	if maxBytes > 0 {
		l.maxBytes = maxBytes
	}
	l.trim()
}

// CacheLen returns the number of cached resources
func (l *Loader) CacheLen() int {
	return l.cache.Len()
}

func (l *Loader) remember(key string, r *Resource) {
	size := int64(len(r.Data))
	l.cacheLock.Lock()
	defer l.cacheLock.Unlock()
	if size > l.maxBytes {
		return
	}
	if old, ok := l.cache.Peek(key); ok {
		l.cacheBytes -= int64(len(old.Data))
	}
	l.cacheBytes += size
	l.cache.Add(key, r)
	l.trim()
}

func (l *Loader) trim() {
	for l.cacheBytes > l.maxBytes {
		if _, _, ok := l.cache.RemoveOldest(); !ok {
			l.cacheBytes = 0
			return
		}
	}
}

// AddSearchPath adds a directory tried when a local file is missing
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// SetHTTPClient replaces the client used for http(s) URLs
func (l *Loader) SetHTTPClient(c *http.Client) {
	if c != nil {
		l.client = c
	}
}

// SetAssets replaces the filesystem backing asset: URLs
func (l *Loader) SetAssets(fsys fs.FS) {
	l.assets = fsys
}

type mount struct {
	prefix string
	fsys   fs.FS
}

// Mount serves URLs starting with prefix from fsys, e.g. the public URL of
// a blob directory. The remainder of the URL is the path within fsys.
func (l *Loader) Mount(prefix string, fsys fs.FS) {
	l.mounts = append(l.mounts, mount{prefix: prefix, fsys: fsys})
}

// SetLogger sets the logger; nil restores the process logger
func (l *Loader) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = logging.Named("res")
	}
	l.logger = logger
}

// Load fetches a resource. Concurrent loads of the same URL share one fetch.
func (l *Loader) Load(ctx context.Context, urlStr string) (*Resource, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return nil, fmt.Errorf("%w: empty url", ErrNotFound)
	}

	if r, ok := l.cache.Get(urlStr); ok {
		return r, nil
	}

	v, err, _ := l.group.Do(urlStr, func() (any, error) {
		r, err := l.fetch(ctx, urlStr)
		if err != nil {
			return nil, err
		}
		l.remember(urlStr, r)
		return r, nil
	})
	if err != nil {
		l.logger.Debug("resource load failed", zap.String("url", redact(urlStr)), zap.Error(err))
		return nil, err
	}
	return v.(*Resource), nil
}

func (l *Loader) fetch(ctx context.Context, urlStr string) (*Resource, error) {
	for _, m := range l.mounts {
		if rest, ok := strings.CutPrefix(urlStr, m.prefix); ok {
			return loadFS(m.fsys, m.prefix, rest)
		}
	}
	switch {
	case strings.HasPrefix(urlStr, "data:"):
		return parseDataURL(urlStr)
	case strings.HasPrefix(urlStr, AssetScheme):
		return loadFS(l.assets, AssetScheme, strings.TrimPrefix(urlStr, AssetScheme))
	case strings.HasPrefix(urlStr, "http://"), strings.HasPrefix(urlStr, "https://"):
		return l.loadRemote(ctx, urlStr)
	case strings.HasPrefix(urlStr, "file://"):
		u, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid file url %q: %w", urlStr, err)
		}
		return l.loadLocal(filepath.FromSlash(u.Path))
	}
	return l.loadLocal(l.resolvePath(urlStr))
}

// parseDataURL parses an RFC 2397 data URL such as data:image/png;base64,....
func parseDataURL(u string) (*Resource, error) {
	meta, dataPart, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URL")
	}

	mimeType := "text/plain"
	isBase64 := false
	comps := strings.Split(meta, ";")
	if comps[0] != "" {
		mimeType = strings.ToLower(comps[0])
	}
	for _, c := range comps[1:] {
		if strings.EqualFold(strings.TrimSpace(c), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(dataPart)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
	} else if d, err := url.PathUnescape(dataPart); err == nil {
		data = []byte(d)
	} else {
		data = []byte(dataPart)
	}

	return &Resource{URL: "data:" + mimeType, Data: data, MimeType: mimeType, Type: determineResourceType(mimeType, "")}, nil
}

// loadFS reads name from fsys; prefix is only used to rebuild the URL
func loadFS(fsys fs.FS, prefix, name string) (*Resource, error) {
	if u, err := url.PathUnescape(name); err == nil {
		name = u
	}
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if fsys == nil {
		return nil, fmt.Errorf("%w: %s%s", ErrNotFound, prefix, name)
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s%s", ErrNotFound, prefix, name)
		}
		return nil, err
	}
	mt := determineMimeType(name)
	return &Resource{URL: prefix + name, Data: data, MimeType: mt, Type: determineResourceType(mt, name)}, nil
}

// resolvePath resolves a relative local path against the base directory
func (l *Loader) resolvePath(p string) string {
	if filepath.IsAbs(p) || l.BaseDir == "" {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

// loadRemote loads a resource from a remote URL
func (l *Loader) loadRemote(ctx context.Context, urlStr string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redact(urlStr))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %s", redact(urlStr), resp.Status)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", redact(urlStr), err)
	}

	mt := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	if mt == "" || mt == "application/octet-stream" {
		mt = determineMimeType(urlPath(urlStr))
	}
	return &Resource{URL: urlStr, Data: data, MimeType: mt, Type: determineResourceType(mt, urlPath(urlStr))}, nil
}

// loadLocal loads a resource from a local file, falling back to the search paths
func (l *Loader) loadLocal(p string) (*Resource, error) {
	data, err := readFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return l.loadFromSearchPaths(p)
	}
	if err != nil {
		return nil, err
	}
	mt := determineMimeType(p)
	return &Resource{URL: p, Data: data, MimeType: mt, Type: determineResourceType(mt, p)}, nil
}

// loadFromSearchPaths tries the base name of filename in every search path
func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	base := filepath.Base(filename)
	for _, dir := range l.searchPaths {
		p := filepath.Join(dir, base)
		data, err := readFile(p)
		if err != nil {
			continue
		}
		mt := determineMimeType(p)
		return &Resource{URL: p, Data: data, MimeType: mt, Type: determineResourceType(mt, p)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
}

func readFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResourceSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResourceSize {
		return nil, fmt.Errorf("resource exceeds %d bytes", MaxResourceSize)
	}
	return data, nil
}

func urlPath(u string) string {
	if parsed, err := url.Parse(u); err == nil {
		return parsed.Path
	}
	return u
}

// redact drops query strings, which often carry signed-URL tokens
func redact(u string) string {
	if strings.HasPrefix(u, "data:") {
		return "data:..."
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i] + "?..."
	}
	return u
}

// determineMimeType determines the MIME type of a file from its extension
func determineMimeType(p string) string {
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// determineResourceType determines the type of a resource
func determineResourceType(mimeType, p string) ResourceType {
	if strings.HasPrefix(mimeType, "image/") {
		return ResourceTypeImage
	}
	if mimeType == "application/pdf" {
		return ResourceTypeDocument
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".tiff", ".tif", ".bmp":
		return ResourceTypeImage
	case ".pdf":
		return ResourceTypeDocument
	}
	return ResourceTypeUnknown
}

// LoadImage loads a resource and checks that it is an image. Resources of
// unknown type are accepted and left to the decoder.
func (l *Loader) LoadImage(ctx context.Context, urlStr string) (*Resource, error) {
	r, err := l.Load(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	if r.Type == ResourceTypeDocument {
		return nil, fmt.Errorf("resource is not an image: %s", redact(urlStr))
	}
	return r, nil
}
