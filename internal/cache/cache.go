// Package cache keeps rendered cut tickets keyed by record content.
package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/gompdf/cutticket/internal/record"
)

// ErrMiss is returned by Get when no entry is stored under the key
var ErrMiss = errors.New("cache miss")

// Entry is one rendered document
type Entry struct {
	Filename  string
	PageCount int
	Data      []byte
}

// Cache stores rendered documents
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry) error
	Close() error
}

// Key identifies the rendering of rec with the given variant, e.g. page
// size and backend. Records differing only in id, status or timestamps
// share a key.
func Key(rec *record.Record, variant string) string {
	k := "cutticket:pdf:" + rec.Hash()
	if variant != "" {
		k += ":" + variant
	}
	return k
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) (*Entry, error) { return nil, ErrMiss }
func (Noop) Set(context.Context, string, *Entry) error   { return nil }
func (Noop) Close() error                                { return nil }

// Memory is an unbounded in-process cache
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty in-process cache
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return &e, nil
}

func (m *Memory) Set(_ context.Context, key string, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = *e
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
