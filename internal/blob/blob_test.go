package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*Local, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "blobs")
	l, err := NewLocal(dir, "http://localhost:8080/files", nil)
	require.NoError(t, err)
	return l, dir
}

func TestUpload(t *testing.T) {
	l, dir := newLocal(t)

	url, err := l.Upload(context.Background(), "rec-1/primary/front.png", strings.NewReader("png bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/rec-1/primary/front.png", url)
	assert.Equal(t, url, l.PublicURL("rec-1/primary/front.png"))

	data, err := os.ReadFile(filepath.Join(dir, "rec-1", "primary", "front.png"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
}

func TestUploadRejectsEscapes(t *testing.T) {
	l, _ := newLocal(t)
	for _, p := range []string{"", "../x.png", "a/../../x.png", "a\\b.png", "a//b.png", "a/./b.png"} {
		_, err := l.Upload(context.Background(), p, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidPath, p)
		assert.Empty(t, l.PublicURL(p), p)
	}
}

func TestUploadFailureLeavesNothing(t *testing.T) {
	l, dir := newLocal(t)

	_, err := l.Upload(context.Background(), "rec/ref.png", iotest.ErrReader(io.ErrUnexpectedEOF), "image/png")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "rec"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadCanceled(t *testing.T) {
	l, _ := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Upload(ctx, "a.png", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandler(t *testing.T) {
	l, _ := newLocal(t)
	_, err := l.Upload(context.Background(), "r/s.jpg", strings.NewReader("jpeg"), "image/jpeg")
	require.NoError(t, err)

	srv := httptest.NewServer(http.StripPrefix("/files/", l.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/r/s.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jpeg", string(body))
}
