// Package render turns page trees into bitmaps through a single capture surface.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/gompdf/cutticket/internal/layout"
	"github.com/gompdf/cutticket/internal/logging"
)

// Capture geometry shared by every backend.
const (
	DesignWidth    = layout.PageWidth
	DesignHeight   = layout.PageHeight
	DefaultDensity = 2
)

// ErrSurfaceBusy is returned when a node is attached while another one is still present.
var ErrSurfaceBusy = errors.New("capture surface already has an attached node")

// ErrNotAttached is returned by Detach when the surface is empty.
var ErrNotAttached = errors.New("capture surface has no attached node")

// Rasterizer captures a page node as a bitmap of Size pixels
type Rasterizer interface {
	Rasterize(ctx context.Context, node *layout.Node) (image.Image, error)
}

// Size returns the bitmap dimensions for a design box at density
func Size(density float64) (w, h int) {
	if density <= 0 {
		density = DefaultDensity
	}
	return int(DesignWidth*density + 0.5), int(DesignHeight*density + 0.5)
}

// Surface is the hidden area a page is attached to while it is captured.
// Only one node may be attached at a time.
type Surface struct {
	sem *semaphore.Weighted

	mu       sync.Mutex
	attached *layout.Node
	captures int
}

// NewSurface returns an empty surface
func NewSurface() *Surface {
	return &Surface{sem: semaphore.NewWeighted(1)}
}

// Attach places node on the surface
func (s *Surface) Attach(node *layout.Node) error {
	if node == nil {
		return errors.New("attach: nil node")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached != nil {
		return ErrSurfaceBusy
	}
	s.attached = node
	return nil
}

// Detach removes the attached node
func (s *Surface) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached == nil {
		return ErrNotAttached
	}
	s.attached = nil
	s.captures++
	return nil
}

// Attached returns the node currently on the surface, or nil
func (s *Surface) Attached() *layout.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Captures returns how many nodes have been attached and detached
func (s *Surface) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// Capture runs the guarded region for one page: acquire the surface, attach
// node, rasterize, detach and release. The node is detached on every path.
func Capture(ctx context.Context, s *Surface, r Rasterizer, node *layout.Node, logger *zap.Logger) (img image.Image, err error) {
	if logger == nil {
		logger = logging.Named("render")
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire capture surface: %w", err)
	}
	defer s.sem.Release(1)

	if err := s.Attach(node); err != nil {
		return nil, err
	}
	defer func() {
		if derr := s.Detach(); derr != nil && err == nil {
			err = derr
		}
		logger.Debug("node detached", zap.String("node", node.ID()), zap.Bool("failed", err != nil))
	}()

	logger.Debug("node attached", zap.String("node", node.ID()))
	img, err = r.Rasterize(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", nodeName(node), err)
	}
	if img == nil {
		return nil, fmt.Errorf("rasterize %s: backend returned no image", nodeName(node))
	}
	return img, nil
}

func nodeName(n *layout.Node) string {
	if id := n.ID(); id != "" {
		return id
	}
	return "page"
}
