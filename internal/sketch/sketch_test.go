package sketch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/cutticket/internal/res"
)

func TestRequestValidate(t *testing.T) {
	both := Options{Visualized: true, FlatSketch: true}
	tests := []struct {
		name string
		req  Request
		ok   bool
	}{
		{"prompt only", Request{Prompt: "a linen shirt", Options: Options{Visualized: true}}, true},
		{"images only", Request{Images: []string{"a.png"}, Options: Options{FlatSketch: true}}, true},
		{"nothing", Request{Options: both}, false},
		{"blank prompt", Request{Prompt: "   ", Options: both}, false},
		{"no outputs", Request{Prompt: "x"}, false},
		{"blank image", Request{Images: []string{""}, Options: both}, false},
		{"too many", Request{Images: []string{"1", "2", "3", "4", "5"}, Options: both}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			}
		})
	}
}

func TestRequestJSON(t *testing.T) {
	b, err := json.Marshal(Request{Images: []string{"u"}, Prompt: "p", Options: Options{FlatSketch: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":["u"],"prompt":"p","options":{"visualized":false,"flatSketch":true}}`, string(b))
}

func TestFunctionClient(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"visualizedImage":"https://cdn/v.png","flatSketchImage":"https://cdn/f.png","id":"gen-1"}`)
	}))
	defer srv.Close()

	c := NewFunctionClient(srv.URL, "secret", srv.Client(), nil)
	req := Request{Images: []string{"https://cdn/in.jpg"}, Prompt: "raglan sleeves", Options: Options{Visualized: true, FlatSketch: true}}
	resp, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req, got)
	assert.Equal(t, &Response{VisualizedImage: "https://cdn/v.png", FlatSketchImage: "https://cdn/f.png", ID: "gen-1"}, resp)
}

func TestFunctionClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusOK, `{"error":"quota exceeded"}`, "sketch generation failed: quota exceeded"},
		{"typed error", http.StatusBadGateway, `{"type":"error","message":"upstream down"}`, "sketch generation failed (HTTP 502): upstream down"},
		{"bare status", http.StatusInternalServerError, `oops`, "sketch generation failed (HTTP 500): Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewFunctionClient(srv.URL, "", srv.Client(), nil).Generate(context.Background(),
				Request{Prompt: "x", Options: Options{Visualized: true}})
			var re *RemoteError
			require.True(t, errors.As(err, &re), "got %v", err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestFunctionClientRejectsInvalid(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls.Add(1) }))
	defer srv.Close()

	_, err := NewFunctionClient(srv.URL, "", srv.Client(), nil).Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, calls.Load())
}

// fakeGemini answers generateContent calls with a one-pixel image whose mime
// type tells which instruction was received.
func fakeGemini(t *testing.T, inline *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Contents []struct {
				Parts []struct {
					Text       string `json:"text"`
					InlineData *struct {
						MIMEType string `json:"mimeType"`
					} `json:"inlineData"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mt := "image/png"
		for _, c := range body.Contents {
			for _, p := range c.Parts {
				if p.InlineData != nil {
					inline.Add(1)
				}
				if strings.Contains(p.Text, "flat sketch") {
					mt = "image/webp"
				}
			}
		}
		data := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"here"},{"inlineData":{"mimeType":"`+mt+`","data":"`+data+`"}}]}}]}`)
	}))
}

func TestGenAIGenerator(t *testing.T) {
	var inline atomic.Int32
	srv := fakeGemini(t, &inline)
	defer srv.Close()

	g, err := NewGenAIGenerator(context.Background(), GenAIConfig{APIKey: "k", BaseURL: srv.URL}, res.NewLoader(""), nil)
	require.NoError(t, err)
	assert.Equal(t, "genai:"+DefaultModel, g.Name())

	pixel := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
	resp, err := g.Generate(context.Background(), Request{
		Images:  []string{pixel},
		Prompt:  "wrap dress",
		Options: Options{Visualized: true, FlatSketch: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", resp.VisualizedImage)
	assert.Equal(t, "data:image/webp;base64,AQID", resp.FlatSketchImage)
	assert.NotEmpty(t, resp.ID)
	assert.EqualValues(t, 2, inline.Load())
}

func TestGenAIGeneratorMissingInput(t *testing.T) {
	var inline atomic.Int32
	srv := fakeGemini(t, &inline)
	defer srv.Close()

	g, err := NewGenAIGenerator(context.Background(), GenAIConfig{APIKey: "k", BaseURL: srv.URL}, res.NewLoader(t.TempDir()), nil)
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), Request{Images: []string{"missing.png"}, Options: Options{Visualized: true}})
	assert.ErrorIs(t, err, res.ErrNotFound)
	assert.Zero(t, inline.Load())
}

func TestGenAIGeneratorNeedsKey(t *testing.T) {
	_, err := NewGenAIGenerator(context.Background(), GenAIConfig{}, nil, nil)
	assert.Error(t, err)
}
