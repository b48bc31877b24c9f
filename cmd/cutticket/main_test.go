package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/config"
	"github.com/gompdf/cutticket/internal/logging"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CUTTICKET_LISTEN", "CUTTICKET_PUBLIC_URL", "CUTTICKET_DATABASE_URL",
		"CUTTICKET_REDIS_ADDR", "CUTTICKET_SKETCH_URL", "CUTTICKET_SKETCH_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
	old := logging.Logger()
	t.Cleanup(func() { logging.SetLogger(old) })
}

// writeRecord writes a record with two reference photos next to it
func writeRecord(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	for _, name := range []string{"front.png", "back.png"} {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
	}
	path := filepath.Join(dir, "coat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Wool Coat
identifier: CT-12
dueDate: 2024-11-30
notes: Double-breasted
primaryImage:
  url: front.png
referencePhotos:
  - url: front.png
  - url: back.png
`), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestExportCmd(t *testing.T) {
	isolateEnv(t)
	path := writeRecord(t)
	out := t.TempDir()

	stdout, err := run(t, "export", path, "-o", out, "--density", "0.5", "--page-size", "letter")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(2 pages)")

	data, err := os.ReadFile(filepath.Join(out, "Wool Coat_Cut_Ticket.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "/MediaBox [0 0 612.00 792.00]")
}

func TestExportCmdMissingAttachment(t *testing.T) {
	isolateEnv(t)
	path := writeRecord(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "back.png")))
	out := t.TempDir()

	_, err := run(t, "export", path, "-o", out, "--density", "0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPreviewCmd(t *testing.T) {
	isolateEnv(t)
	path := writeRecord(t)
	png1 := filepath.Join(t.TempDir(), "page1.png")

	_, err := run(t, "preview", path, "--density", "0.25", "-o", png1)
	require.NoError(t, err)
	f, err := os.Open(png1)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 199, cfg.Width)

	html, err := run(t, "preview", path, "--page", "2", "--html")
	require.NoError(t, err)
	assert.Contains(t, html, "<title>Wool Coat (reference[0:2])</title>")
	assert.Contains(t, html, "data:image/png;base64,")

	_, err = run(t, "preview", path, "--page", "3")
	assert.ErrorContains(t, err, "page 3 out of range")
}

func TestSketchCmdNeedsProvider(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "sketch", "--prompt", "a coat")
	assert.ErrorContains(t, err, "no sketch provider configured")
}

func TestBuildServer(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Store.Path = filepath.Join(dir, "db", "cutticket.db")
	cfg.Blobs.Dir = filepath.Join(dir, "blobs")
	require.NoError(t, cfg.Validate())

	srv, cleanup, err := buildServer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sketches", bytes.NewBufferString(`{"prompt":"x"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildServerBadStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "mongo"
	_, _, err := buildServer(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, `unknown store driver "mongo"`)
}
