// Package store persists production records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gompdf/cutticket/internal/record"
)

// ErrNotFound is returned when no record has the requested id
var ErrNotFound = errors.New("record not found")

// Filter narrows List results
type Filter struct {
	// Status keeps only records in this status; empty keeps all
	Status record.Status
}

// Store is a record repository. List orders by due date (undated last),
// then title, then id.
type Store interface {
	Create(ctx context.Context, rec *record.Record) (*record.Record, error)
	Get(ctx context.Context, id string) (*record.Record, error)
	List(ctx context.Context, f Filter) ([]*record.Record, error)
	Update(ctx context.Context, rec *record.Record) (*record.Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Row is a record flattened into its stored columns. Data holds the
// full JSON document; the other columns exist for filtering and ordering.
type Row struct {
	ID         string
	Title      string
	Identifier string
	DueDate    string
	Status     string
	Data       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Now returns the timestamp used for created and updated columns
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewID returns a fresh record id
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id could have been produced by NewID
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

// ForCreate validates rec and returns the row for a new record
func ForCreate(rec *record.Record) (Row, error) {
	if rec == nil {
		return Row{}, fmt.Errorf("%w: nil record", record.ErrInvalid)
	}
	c := rec.Clone()
	c.ID = NewID()
	c.Status = c.Status.OrDefault()
	c.CreatedAt = Now()
	c.UpdatedAt = c.CreatedAt
	return ToRow(c)
}

// ForUpdate validates rec and returns the row replacing the stored one.
// CreatedAt is left to the stored value.
func ForUpdate(rec *record.Record) (Row, error) {
	if rec == nil {
		return Row{}, fmt.Errorf("%w: nil record", record.ErrInvalid)
	}
	if rec.ID == "" {
		return Row{}, fmt.Errorf("%w: missing id", record.ErrInvalid)
	}
	c := rec.Clone()
	c.Status = c.Status.OrDefault()
	c.UpdatedAt = Now()
	return ToRow(c)
}

// ToRow flattens rec
func ToRow(rec *record.Record) (Row, error) {
	if err := rec.Validate(); err != nil {
		return Row{}, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Row{}, fmt.Errorf("encode record: %w", err)
	}
	return Row{
		ID:         rec.ID,
		Title:      rec.Title,
		Identifier: rec.Identifier,
		DueDate:    rec.DueDate.String(),
		Status:     string(rec.Status),
		Data:       data,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}

// Record rebuilds the record held in r. Column values win over the document.
func (r Row) Record() (*record.Record, error) {
	rec := &record.Record{}
	if err := json.Unmarshal(r.Data, rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	rec.ID = r.ID
	rec.Status = record.Status(r.Status)
	rec.CreatedAt = r.CreatedAt.UTC()
	rec.UpdatedAt = r.UpdatedAt.UTC()
	return rec, nil
}

// OrderBy is the List ordering shared by the SQL stores
const OrderBy = `ORDER BY (due_date = ''), due_date, title, id`
