package memory

import (
	"context"
	"sync"

	"github.com/logistiker/saleor-app/internal/apl"
)

// Store is an in-memory apl.Store. It is safe for concurrent use and is
// primarily intended for tests and local development; records do not survive
// a restart.
type Store struct {
	mu      sync.RWMutex
	records map[string]apl.Record
}

var _ apl.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]apl.Record)}
}

func (s *Store) Get(_ context.Context, apiURL string) (apl.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[apiURL]
	return rec, ok, nil
}

func (s *Store) Set(_ context.Context, rec apl.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.APIURL] = rec
	return nil
}

func (s *Store) Remove(_ context.Context, apiURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, apiURL)
	return nil
}

func (s *Store) List(_ context.Context) ([]apl.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]apl.Record, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, rec)
	}
	return apl.SortRecords(result), nil
}
