package records

import (
	"context"
	"errors"

	"spendlog/internal/core"
)

// ErrNotFound is returned by id-addressed operations when no record with
// that id exists.
var ErrNotFound = errors.New("record not found")

// Store is the port every record backend implements. List and Count are
// independent operations under the same filter so callers can decide
// whether a count failure degrades the response or propagates.
type Store interface {
	// Create assigns id and created_at and persists the draft.
	Create(ctx context.Context, d core.Draft) (core.Record, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (core.Record, error)

	// Update replaces every mutable field of the record with the given id.
	// id and created_at are never altered. Returns ErrNotFound if absent.
	Update(ctx context.Context, id int64, d core.Draft) (core.Record, error)

	// Delete removes the record with the given id, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// List returns at most page.Size records matching the filter, ordered
	// by date descending then id descending.
	List(ctx context.Context, f core.ListFilter, page core.Page) ([]core.Record, error)

	// Count returns the number of records matching the filter, independent
	// of pagination.
	Count(ctx context.Context, f core.ListFilter) (int64, error)
}
