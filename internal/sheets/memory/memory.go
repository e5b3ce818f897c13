// Package memory is an in-process ExpenseMirror, used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"finsight/internal/core"
	"finsight/internal/sheets"
)

var _ sheets.ExpenseMirror = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items map[string]core.Expense
}

func New() *Store {
	return &Store{items: make(map[string]core.Expense)}
}

func (s *Store) Upsert(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = e
	return nil
}

func (s *Store) Delete(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, expenseID)
	return nil
}

func (s *Store) Get(expenseID string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[expenseID]
	return e, ok
}

// List returns the mirrored expenses ordered by date, then ID.
func (s *Store) List() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
