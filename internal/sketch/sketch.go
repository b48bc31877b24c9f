// Package sketch turns garment photos and a prompt into generated images:
// a photographic visualization and a technical flat sketch.
package sketch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxImages bounds the input images of one request
const MaxImages = 4

// ErrInvalidRequest is returned for requests that cannot be sent
var ErrInvalidRequest = errors.New("invalid sketch request")

// Options selects the outputs to generate
type Options struct {
	Visualized bool `json:"visualized"`
	FlatSketch bool `json:"flatSketch"`
}

// Request is the input of one generation
type Request struct {
	Images  []string `json:"images"`
	Prompt  string   `json:"prompt"`
	Options Options  `json:"options"`
}

// Response carries the generated images as URLs (data URLs for inline results)
type Response struct {
	VisualizedImage string `json:"visualizedImage,omitempty"`
	FlatSketchImage string `json:"flatSketchImage,omitempty"`
	ID              string `json:"id,omitempty"`
}

// Generator produces sketches
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// RemoteError is an error payload returned by the generation backend
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return "sketch generation failed: " + e.Message
	}
	return fmt.Sprintf("sketch generation failed (HTTP %d): %s", e.Status, e.Message)
}

// Validate requires an image or a prompt and at least one selected output
func (r Request) Validate() error {
	if len(r.Images) == 0 && strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: an image or a prompt is required", ErrInvalidRequest)
	}
	if len(r.Images) > MaxImages {
		return fmt.Errorf("%w: %d images, at most %d allowed", ErrInvalidRequest, len(r.Images), MaxImages)
	}
	for i, u := range r.Images {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: image %d has no url", ErrInvalidRequest, i)
		}
	}
	if !r.Options.Visualized && !r.Options.FlatSketch {
		return fmt.Errorf("%w: select at least one output", ErrInvalidRequest)
	}
	return nil
}
