package metrics

import (
	"context"
	"time"

	"github.com/logistiker/saleor-app/internal/apl"
)

type instrumentedStore struct {
	next   apl.Store
	driver string
}

// InstrumentStore wraps s so every call is counted and timed under driver.
func InstrumentStore(driver string, s apl.Store) apl.Store {
	return &instrumentedStore{next: s, driver: driver}
}

func (s *instrumentedStore) Get(ctx context.Context, apiURL string) (apl.Record, bool, error) {
	start := time.Now()
	rec, ok, err := s.next.Get(ctx, apiURL)
	RecordStoreOperation(s.driver, "get", err, time.Since(start))
	return rec, ok, err
}

func (s *instrumentedStore) Set(ctx context.Context, rec apl.Record) error {
	start := time.Now()
	err := s.next.Set(ctx, rec)
	RecordStoreOperation(s.driver, "set", err, time.Since(start))
	return err
}

func (s *instrumentedStore) Remove(ctx context.Context, apiURL string) error {
	start := time.Now()
	err := s.next.Remove(ctx, apiURL)
	RecordStoreOperation(s.driver, "remove", err, time.Since(start))
	return err
}

func (s *instrumentedStore) List(ctx context.Context) ([]apl.Record, error) {
	start := time.Now()
	records, err := s.next.List(ctx)
	RecordStoreOperation(s.driver, "list", err, time.Since(start))
	return records, err
}
