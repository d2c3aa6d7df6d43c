package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	bbolt "go.etcd.io/bbolt"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/apl/apltest"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	apltest.Run(t, func(t *testing.T) apl.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "apl.db"))
	})
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "apl.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := apltest.Sample("https://shop.example/graphql/")
	if err := s.Set(context.Background(), rec); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openTestStore(t, path)
	got, ok, err := reopened.Get(context.Background(), rec.APIURL)
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got != rec {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
}

func TestCorruptEntry(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "apl.db"))
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte("https://a.example/"), []byte("nope"))
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := s.Get(context.Background(), "https://a.example/"); !errors.Is(err, apl.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if _, err := s.List(context.Background()); !errors.Is(err, apl.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from list, got %v", err)
	}
}
