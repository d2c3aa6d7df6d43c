// Package apltest holds the behavioral contract every apl.Store variant must
// satisfy. Variant packages call Run from their own tests.
package apltest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistiker/saleor-app/internal/apl"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) apl.Store

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyStore", func(t *testing.T) { testEmptyStore(t, newStore(t)) })
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, newStore(t)) })
	t.Run("ListSorted", func(t *testing.T) { testListSorted(t, newStore(t)) })
	t.Run("RejectsInvalidRecord", func(t *testing.T) { testRejectsInvalid(t, newStore(t)) })
	t.Run("ConcurrentDistinctKeys", func(t *testing.T) { testConcurrentDistinctKeys(t, newStore(t)) })
}

// Sample returns a fully populated record for apiURL.
func Sample(apiURL string) apl.Record {
	return apl.Record{
		APIURL:    apiURL,
		AuthToken: "token-for-" + apiURL,
		AppID:     "QXBwOjE=",
		JWKS:      `{"keys":[]}`,
		Domain:    "shop.example",
	}
}

func testEmptyStore(t *testing.T, s apl.Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "https://missing.example/graphql/")
	require.NoError(t, err)
	assert.False(t, ok)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records, "List on an empty store must return an empty, non-nil slice")
}

func testRoundTrip(t *testing.T, s apl.Store) {
	ctx := context.Background()
	rec := Sample("https://shop.example/graphql/")

	require.NoError(t, s.Set(ctx, rec))

	got, ok, err := s.Get(ctx, rec.APIURL)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func testOverwrite(t *testing.T, s apl.Store) {
	ctx := context.Background()
	rec := Sample("https://shop.example/graphql/")
	require.NoError(t, s.Set(ctx, rec))
	require.NoError(t, s.Set(ctx, rec))

	rotated := rec
	rotated.AuthToken = "rotated"
	rotated.JWKS = ""
	require.NoError(t, s.Set(ctx, rotated))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rotated, records[0])
}

func testRemove(t *testing.T, s apl.Store) {
	ctx := context.Background()
	a := Sample("https://a.example/graphql/")
	b := Sample("https://b.example/graphql/")
	require.NoError(t, s.Set(ctx, a))
	require.NoError(t, s.Set(ctx, b))

	require.NoError(t, s.Remove(ctx, a.APIURL))
	require.NoError(t, s.Remove(ctx, a.APIURL), "removing a missing key is a no-op")

	_, ok, err := s.Get(ctx, a.APIURL)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := s.Get(ctx, b.APIURL)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func testListSorted(t *testing.T, s apl.Store) {
	ctx := context.Background()
	for _, u := range []string{"https://c.example/", "https://a.example/", "https://b.example/"} {
		require.NoError(t, s.Set(ctx, Sample(u)))
	}

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "https://a.example/", records[0].APIURL)
	assert.Equal(t, "https://b.example/", records[1].APIURL)
	assert.Equal(t, "https://c.example/", records[2].APIURL)
}

func testRejectsInvalid(t *testing.T, s apl.Store) {
	ctx := context.Background()

	err := s.Set(ctx, apl.Record{AuthToken: "t"})
	assert.True(t, errors.Is(err, apl.ErrInvalidRecord), "got %v", err)

	err = s.Set(ctx, apl.Record{APIURL: "https://shop.example/"})
	assert.True(t, errors.Is(err, apl.ErrInvalidRecord), "got %v", err)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// testConcurrentDistinctKeys interleaves writers on distinct keys. Each key
// must end up holding the last value its own writer wrote.
func testConcurrentDistinctKeys(t *testing.T, s apl.Store) {
	const (
		keys   = 8
		rounds = 15
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, keys*rounds)
	for k := 0; k < keys; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			apiURL := fmt.Sprintf("https://shop-%d.example/graphql/", k)
			for i := 0; i < rounds; i++ {
				rec := Sample(apiURL)
				rec.AuthToken = fmt.Sprintf("token-%d-%d", k, i)
				if err := s.Set(ctx, rec); err != nil {
					errs <- err
					return
				}
			}
		}(k)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for k := 0; k < keys; k++ {
		apiURL := fmt.Sprintf("https://shop-%d.example/graphql/", k)
		got, ok, err := s.Get(ctx, apiURL)
		require.NoError(t, err)
		require.True(t, ok, "record for %s lost", apiURL)
		assert.Equal(t, fmt.Sprintf("token-%d-%d", k, rounds-1), got.AuthToken)
	}

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, keys)
}
