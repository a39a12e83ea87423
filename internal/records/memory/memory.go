// Package memory provides an in-memory record store. It is the default
// backend for local development and serves as the reference implementation
// in tests for the other backends.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/records"
)

type Store struct {
	mu     sync.Mutex
	items  map[int64]core.Record
	nextID int64

	// now is swappable for tests.
	now func() time.Time
}

func New() *Store {
	return &Store{
		items:  make(map[int64]core.Record),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *Store) Create(_ context.Context, d core.Draft) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++ // ids are never reused, even after delete
	rec := d.ToRecord(id, s.now().UnixMilli())
	s.items[id] = rec
	return rec, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[id]
	if !ok {
		return core.Record{}, records.ErrNotFound
	}
	return rec, nil
}

func (s *Store) Update(_ context.Context, id int64, d core.Draft) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.items[id]
	if !ok {
		return core.Record{}, records.ErrNotFound
	}
	rec := d.ToRecord(prev.ID, prev.CreatedAt)
	s.items[id] = rec
	return rec, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return records.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) List(_ context.Context, f core.ListFilter, page core.Page) ([]core.Record, error) {
	s.mu.Lock()
	matched := s.matchLocked(f)
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date > matched[j].Date
		}
		return matched[i].ID > matched[j].ID
	})

	start := page.Offset()
	if start >= len(matched) {
		return []core.Record{}, nil
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *Store) Count(_ context.Context, f core.ListFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matchLocked(f))), nil
}

func (s *Store) matchLocked(f core.ListFilter) []core.Record {
	out := make([]core.Record, 0, len(s.items))
	for _, rec := range s.items {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}
