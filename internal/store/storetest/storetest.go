// Package storetest checks store implementations against the shared contract.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/store"
)

// Run exercises an empty store returned by open
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, open(t)) })
	t.Run("List", func(t *testing.T) { testList(t, open(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("Invalid", func(t *testing.T) { testInvalid(t, open(t)) })
}

func sample() *record.Record {
	rec := &record.Record{
		Title:      "Jacket A",
		Identifier: "JK-001",
		DueDate:    record.NewDate(2024, time.May, 1),
		Notes:      "rush order",
		PrimaryImage: &record.Attachment{
			URL: "https://cdn.example.com/jacket.png", Name: "jacket.png", ContentType: "image/png",
		},
		ReferencePhotos: []record.Attachment{{URL: "p1.png"}, {URL: "p2.png"}},
	}
	rec.Swatches.Set(record.MainFabric, record.Swatch{Text: "navy wool"})
	rec.Swatches.Set(record.Lining, record.Swatch{Image: &record.Attachment{URL: "lining.jpg"}})
	return rec
}

func testCreateGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	in := sample()

	created, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, store.ValidID(created.ID))
	assert.Equal(t, record.StatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Empty(t, in.ID, "input is not modified")

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "navy wool", got.Swatch(record.MainFabric).Text)
	assert.Equal(t, "lining.jpg", got.Swatch(record.Lining).Image.URL)
	assert.Len(t, got.ReferencePhotos, 2)

	_, err = s.Get(ctx, store.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testList(t *testing.T, s store.Store) {
	ctx := context.Background()
	mk := func(title string, due record.Date, status record.Status) {
		_, err := s.Create(ctx, &record.Record{Title: title, DueDate: due, Status: status})
		require.NoError(t, err)
	}
	mk("Undated", record.Date{}, record.StatusPending)
	mk("Skirt", record.NewDate(2024, time.June, 3), record.StatusReview)
	mk("Coat", record.NewDate(2024, time.June, 3), record.StatusPending)
	mk("Blouse", record.NewDate(2024, time.January, 9), record.StatusPending)

	all, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Blouse", "Coat", "Skirt", "Undated"}, titles(all))

	pending, err := s.List(ctx, store.Filter{Status: record.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{"Blouse", "Coat", "Undated"}, titles(pending))

	done, err := s.List(ctx, store.Filter{Status: record.StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, done)
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, sample())
	require.NoError(t, err)

	edit := created.Clone()
	edit.Title = "Jacket B"
	edit.Status = record.StatusInProgress
	edit.PrimaryImage = nil
	edit.CreatedAt = time.Time{}

	updated, err := s.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, "Jacket B", updated.Title)
	assert.Equal(t, record.StatusInProgress, updated.Status)
	assert.Nil(t, updated.PrimaryImage)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	missing := created.Clone()
	missing.ID = store.NewID()
	_, err = s.Update(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, sample())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, created.ID), store.ErrNotFound)
}

func testInvalid(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, &record.Record{Status: "shipped"})
	assert.ErrorIs(t, err, record.ErrInvalid)

	_, err = s.Update(ctx, &record.Record{Title: "no id"})
	assert.ErrorIs(t, err, record.ErrInvalid)

	all, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func titles(recs []*record.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}
