package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/render"
	"github.com/gompdf/cutticket/internal/render/pdf"
	"github.com/gompdf/cutticket/internal/res"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var pageObj = regexp.MustCompile(`/Type /Page\b`)

func writePNG(t *testing.T, dir, name string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func fixture(t *testing.T) (string, *record.Record) {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, dir, "p1.png", color.NRGBA{R: 200, A: 255})
	writePNG(t, dir, "p2.png", color.NRGBA{G: 200, A: 255})
	writePNG(t, dir, "p3.png", color.NRGBA{B: 200, A: 255})
	return dir, &record.Record{
		Title:   "Jacket A",
		DueDate: record.NewDate(2024, time.May, 1),
		Notes:   "rush order",
		ReferencePhotos: []record.Attachment{
			{URL: "p1.png"}, {URL: "p2.png"}, {URL: "p3.png"},
		},
	}
}

func newExporter(t *testing.T, opts ...Option) *Exporter {
	t.Helper()
	opts = append([]Option{WithDensity(0.5), WithCreationDate(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))}, opts...)
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestExportJacket(t *testing.T) {
	dir, rec := fixture(t)
	e := newExporter(t, WithBaseDir(dir))

	result, err := e.Export(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "Jacket A_Cut_Ticket.pdf", result.Filename)
	assert.Equal(t, 3, result.PageCount)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF-")))
	assert.Len(t, pageObj.FindAll(result.Data, -1), 3)
	assert.Nil(t, e.surface.Attached())
	assert.Equal(t, 3, e.surface.Captures())
}

// recorder keeps every bitmap the wrapped backend produces
type recorder struct {
	render.Rasterizer
	pages []image.Image
}

func (r *recorder) Rasterize(ctx context.Context, n *layout.Node) (image.Image, error) {
	img, err := r.Rasterizer.Rasterize(ctx, n)
	if err == nil {
		r.pages = append(r.pages, img)
	}
	return img, err
}

type rasterFunc func(ctx context.Context, n *layout.Node) (image.Image, error)

func (f rasterFunc) Rasterize(ctx context.Context, n *layout.Node) (image.Image, error) {
	return f(ctx, n)
}

func pixel(img image.Image, x, y int) [3]int {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return [3]int{int(c.R), int(c.G), int(c.B)}
}

func assertColor(t *testing.T, want, got [3]int, msg string) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 12, "%s: got %v, want %v", msg, got, want)
	}
}

func TestExportDrawsPageContent(t *testing.T) {
	dir, rec := fixture(t)
	e := newExporter(t, WithBaseDir(dir), WithDensity(1))
	rr := &recorder{Rasterizer: e.rasterizer}
	e.rasterizer = rr

	_, err := e.Export(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, rr.pages, 3)

	// page 1: header rule below the header, notes box filled on the right
	main := rr.pages[0]
	rule := pixel(main, 397, 137)
	assert.Less(t, rule[0]+rule[1]+rule[2], 200, "header rule")
	assertColor(t, [3]int{250, 250, 250}, pixel(main, 740, 450), "notes box")
	for _, x := range []int{212, 581} {
		p := pixel(main, x, 392)
		assert.Less(t, max(p[0], p[1], p[2])-min(p[0], p[1], p[2]), 30, "reference colour on the main page at x=%d", x)
	}

	// page 2 shows p1 and p2, page 3 shows p3 alone
	assertColor(t, [3]int{200, 0, 0}, pixel(rr.pages[1], 212, 392), "p1")
	assertColor(t, [3]int{0, 200, 0}, pixel(rr.pages[1], 581, 392), "p2")
	assertColor(t, [3]int{0, 0, 200}, pixel(rr.pages[2], 212, 392), "p3")
	assertColor(t, [3]int{255, 255, 255}, pixel(rr.pages[2], 581, 392), "omitted cell")
}

func TestConcurrentExportsKeepEachOthersNodes(t *testing.T) {
	e := newExporter(t)
	backend := e.rasterizer

	failIn, fail := make(chan struct{}), make(chan struct{})
	failedDone := make(chan struct{})
	e.rasterizer = rasterFunc(func(ctx context.Context, n *layout.Node) (image.Image, error) {
		if slices.Contains(layout.Texts(n), "Broken") {
			close(failIn)
			<-fail
			return nil, errors.New("decode failed")
		}
		assert.Same(t, n, e.surface.Attached())
		<-failedDone
		assert.Same(t, n, e.surface.Attached())
		return backend.Rasterize(ctx, n)
	})

	var (
		wg        sync.WaitGroup
		failedErr error
		healthy   *Result
		healthErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(failedDone)
		_, failedErr = e.Export(context.Background(), &record.Record{Title: "Broken"})
	}()
	<-failIn
	go func() {
		defer wg.Done()
		healthy, healthErr = e.Export(context.Background(), &record.Record{Title: "Healthy"})
	}()
	close(fail)
	wg.Wait()

	assert.ErrorContains(t, failedErr, "decode failed")
	require.NoError(t, healthErr)
	assert.Equal(t, 1, healthy.PageCount)
	assert.Nil(t, e.surface.Attached())
	assert.Equal(t, 2, e.surface.Captures())
}

func TestExportEmptyRecord(t *testing.T) {
	e := newExporter(t)

	result, err := e.Export(context.Background(), &record.Record{})
	require.NoError(t, err)
	assert.Equal(t, "Project_Cut_Ticket.pdf", result.Filename)
	assert.Equal(t, 1, result.PageCount)
}

func TestExportPageCounts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "ref.png", color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	e := newExporter(t, WithBaseDir(dir))

	for n := 0; n <= record.MaxReferencePhotos; n++ {
		rec := &record.Record{Title: "Coat"}
		for i := 0; i < n; i++ {
			rec.ReferencePhotos = append(rec.ReferencePhotos, record.Attachment{URL: "ref.png"})
		}
		result, err := e.Export(context.Background(), rec)
		require.NoError(t, err, "refs=%d", n)
		assert.Equal(t, 1+(n+1)/2, result.PageCount, "refs=%d", n)
	}
}

func TestExportIdempotent(t *testing.T) {
	dir, rec := fixture(t)
	e := newExporter(t, WithBaseDir(dir))

	first, err := e.Export(context.Background(), rec)
	require.NoError(t, err)
	second, err := e.Export(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, first.Filename, second.Filename)
	assert.Equal(t, first.PageCount, second.PageCount)
	assert.Equal(t, first.Data, second.Data)
}

func TestExportFailureLeavesSurfaceEmpty(t *testing.T) {
	dir, rec := fixture(t)
	rec.ReferencePhotos[2] = record.Attachment{URL: "gone.png"}

	core, logs := observer.New(zap.DebugLevel)
	e := newExporter(t, WithBaseDir(dir), WithLogger(zap.New(core)))

	result, err := e.Export(context.Background(), rec)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, res.ErrNotFound))
	assert.Contains(t, err.Error(), `export "Jacket A"`)
	assert.Contains(t, err.Error(), "page 3")
	assert.Nil(t, e.surface.Attached())
	assert.Equal(t, 1, logs.FilterMessage("export failed").Len())

	// the exporter stays usable
	rec.ReferencePhotos = rec.ReferencePhotos[:2]
	result, err = e.Export(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount)
}

func TestExportInvalid(t *testing.T) {
	e := newExporter(t)

	_, err := e.Export(context.Background(), nil)
	assert.ErrorIs(t, err, record.ErrInvalid)

	rec := &record.Record{Title: "Too many"}
	for i := 0; i <= record.MaxReferencePhotos; i++ {
		rec.ReferencePhotos = append(rec.ReferencePhotos, record.Attachment{URL: "x.png"})
	}
	_, err = e.Export(context.Background(), rec)
	assert.ErrorIs(t, err, record.ErrInvalid)
	assert.Zero(t, e.surface.Captures())
}

func TestExportCanceled(t *testing.T) {
	dir, rec := fixture(t)
	e := newExporter(t, WithBaseDir(dir))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Export(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, e.surface.Attached())
}

func TestExportTo(t *testing.T) {
	dir, rec := fixture(t)
	e := newExporter(t, WithBaseDir(dir))

	var buf bytes.Buffer
	result, err := e.ExportTo(context.Background(), rec, &buf)
	require.NoError(t, err)
	assert.Equal(t, result.Data, buf.Bytes())

	buf.Reset()
	rec.ReferencePhotos = append(rec.ReferencePhotos, record.Attachment{URL: "gone.png"})
	_, err = e.ExportTo(context.Background(), rec, &buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestExportToFile(t *testing.T) {
	dir, rec := fixture(t)
	out := t.TempDir()
	e := newExporter(t, WithBaseDir(dir))

	path, result, err := e.ExportToFile(context.Background(), rec, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Jacket A_Cut_Ticket.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Data, data)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportToFileFailureWritesNothing(t *testing.T) {
	dir, rec := fixture(t)
	rec.PrimaryImage = &record.Attachment{URL: "gone.png"}
	out := t.TempDir()
	e := newExporter(t, WithBaseDir(dir))

	_, _, err := e.ExportToFile(context.Background(), rec, out)
	require.Error(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPageSizeOption(t *testing.T) {
	e := newExporter(t, WithPageSize(pdf.Letter))

	result, err := e.Export(context.Background(), &record.Record{Title: "Shirt"})
	require.NoError(t, err)
	assert.Contains(t, string(result.Data), "/MediaBox [0 0 612.00 792.00]")
}

func TestUnknownBackend(t *testing.T) {
	_, err := New(WithBackend("plotter"))
	assert.ErrorContains(t, err, `unknown backend "plotter"`)
}

func TestMetadata(t *testing.T) {
	e := newExporter(t, WithAuthor("Atelier"))
	meta := e.metadata(&record.Record{Title: "Dress", Identifier: "DR-7", Status: record.StatusReview})
	assert.Equal(t, "Dress", meta.Title)
	assert.Equal(t, "Atelier", meta.Author)
	assert.Equal(t, "Cut ticket DR-7", meta.Subject)
	assert.Equal(t, "cut ticket", meta.Keywords)
}
