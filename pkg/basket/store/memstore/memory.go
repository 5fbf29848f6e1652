package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/report"
	"github.com/cognicore/basket/pkg/basket/store"
)

// Store is an in-memory implementation of store.Store for tests and
// one-off runs.
type Store struct {
	mu        sync.RWMutex
	reports   map[string][]byte // encoded, so callers cannot mutate stored copies
	summaries map[string]report.Summary
	stops     map[string]struct{}
	closed    bool
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		reports:   make(map[string][]byte),
		summaries: make(map[string]report.Summary),
		stops:     make(map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	return nil
}

// SaveReport inserts or replaces a report, keyed by ID.
func (s *Store) SaveReport(ctx context.Context, r *report.Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("memstore: report without id: %w", internalerr.ErrInvalidInput)
	}
	data, err := report.Marshal(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	s.reports[r.ID] = data
	s.summaries[r.ID] = r.Summarize()
	return nil
}

// GetReport returns a copy of the stored report.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	data, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	return report.Unmarshal(data)
}

// ListReports returns summaries, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]report.Summary, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	out := make([]report.Summary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, sum)
	}
	// ULIDs sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteReport removes a report.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if _, ok := s.reports[id]; !ok {
		return fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	delete(s.reports, id)
	delete(s.summaries, id)
	return nil
}

// AddStopwords records accepted stopwords.
func (s *Store) AddStopwords(ctx context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	for _, t := range tokens {
		if t != "" {
			s.stops[t] = struct{}{}
		}
	}
	return nil
}

// Stopwords returns the accepted stopwords, sorted.
func (s *Store) Stopwords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.stops))
	for t := range s.stops {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}
