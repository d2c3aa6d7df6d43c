package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/apl/apltest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "test:"), mr
}

func TestStoreContract(t *testing.T) {
	apltest.Run(t, func(t *testing.T) apl.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestDefaultPrefix(t *testing.T) {
	s := New(nil, "")
	if s.Key() != "saleor-app:installations" {
		t.Fatalf("key = %q", s.Key())
	}
}

func TestSet_WritesHashField(t *testing.T) {
	s, mr := newTestStore(t)
	rec := apltest.Sample("https://shop.example/graphql/")
	if err := s.Set(context.Background(), rec); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := mr.HGet("test:installations", rec.APIURL); got == "" {
		t.Fatal("expected hash field to be written")
	}
}

func TestCorruptValue(t *testing.T) {
	s, mr := newTestStore(t)
	mr.HSet("test:installations", "https://a.example/", "{broken")

	if _, _, err := s.Get(context.Background(), "https://a.example/"); !errors.Is(err, apl.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from get, got %v", err)
	}
	if _, err := s.List(context.Background()); !errors.Is(err, apl.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from list, got %v", err)
	}
}

func TestUnavailableServerIsIO(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	if _, err := s.List(context.Background()); !errors.Is(err, apl.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}
