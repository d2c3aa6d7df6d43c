package registration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/apl/memory"
	svcerrors "github.com/logistiker/saleor-app/internal/errors"
	"github.com/logistiker/saleor-app/internal/logging"
	"github.com/logistiker/saleor-app/internal/saleor"
)

const apiURL = "https://shop.example/graphql/"

type fakeValidator struct {
	identity    saleor.AppIdentity
	identityErr error
	jwks        string
	jwksErr     error
	onValidate  func()
	calls       atomic.Int32
}

func (f *fakeValidator) FetchAppIdentity(ctx context.Context, apiURL, token string) (saleor.AppIdentity, error) {
	f.calls.Add(1)
	if f.onValidate != nil {
		f.onValidate()
	}
	return f.identity, f.identityErr
}

func (f *fakeValidator) FetchJWKS(ctx context.Context, apiURL string) (string, error) {
	return f.jwks, f.jwksErr
}

// ctxCheckingStore fails writes whose context is already done.
type ctxCheckingStore struct {
	apl.Store
}

func (s ctxCheckingStore) Set(ctx context.Context, rec apl.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Set(ctx, rec)
}

type failingStore struct {
	apl.Store
	err error
}

func (s failingStore) Set(context.Context, apl.Record) error { return s.err }

func testLogger() *logging.Logger { return logging.New("test", "error", "json") }

func accepted() *fakeValidator {
	return &fakeValidator{identity: saleor.AppIdentity{AppID: "QXBwOjE="}, jwks: `{"keys":[]}`}
}

func kindOf(t *testing.T, err error) *svcerrors.ServiceError {
	t.Helper()
	se := svcerrors.GetServiceError(err)
	require.NotNil(t, se, "expected a ServiceError, got %v", err)
	return se
}

func TestRegister_Accepted(t *testing.T) {
	store := memory.New()
	r := New(store, accepted(), Config{}, testLogger())

	rec, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "QXBwOjE=", rec.AppID)
	assert.Equal(t, "shop.example", rec.Domain, "domain defaults to the API host")

	got, ok, err := r.Installation(context.Background(), apiURL)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", got.AuthToken)
	assert.Equal(t, `{"keys":[]}`, got.JWKS)
}

func TestRegister_InvalidTokenWritesNothing(t *testing.T) {
	store := memory.New()
	v := &fakeValidator{identityErr: saleor.ErrInvalidToken}
	r := New(store, v, Config{}, testLogger())

	_, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "bad"})
	se := kindOf(t, err)
	assert.Equal(t, svcerrors.KindInvalidToken, se.Code)
	assert.Equal(t, http.StatusUnauthorized, se.HTTPStatus)

	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRegister_Unreachable(t *testing.T) {
	store := memory.New()
	v := &fakeValidator{identityErr: saleor.ErrUnreachable}
	r := New(store, v, Config{}, testLogger())

	_, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "tok"})
	se := kindOf(t, err)
	assert.Equal(t, svcerrors.KindUnreachableInstance, se.Code)
	assert.Equal(t, http.StatusBadGateway, se.HTTPStatus)
}

func TestRegister_TimeoutAgainstSlowInstance(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	store := memory.New()
	r := New(store, saleor.NewClient(saleor.ClientConfig{}), Config{ValidationTimeout: 50 * time.Millisecond}, testLogger())

	start := time.Now()
	_, err := r.Register(context.Background(), Request{APIURL: slow.URL + "/graphql/", AuthToken: "tok"})
	elapsed := time.Since(start)

	se := kindOf(t, err)
	assert.Equal(t, svcerrors.KindUnreachableInstance, se.Code)
	assert.Equal(t, http.StatusGatewayTimeout, se.HTTPStatus)
	assert.Less(t, elapsed, 2*time.Second, "validation must be bounded by the timeout")

	records, _ := store.List(context.Background())
	assert.Empty(t, records)
}

func TestRegister_Idempotent(t *testing.T) {
	store := memory.New()
	r := New(store, accepted(), Config{}, testLogger())
	req := Request{APIURL: apiURL, AuthToken: "tok", Domain: "shop.example"}

	first, err := r.Register(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	records, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first, records[0])
}

func TestRegister_TokenRotationOverwrites(t *testing.T) {
	store := memory.New()
	r := New(store, accepted(), Config{}, testLogger())

	_, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "old"})
	require.NoError(t, err)
	_, err = r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "new"})
	require.NoError(t, err)

	got, ok, err := store.Get(context.Background(), apiURL)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.AuthToken)
}

func TestRegister_RequestChecks(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		cfg  Config
		kind svcerrors.ErrorKind
	}{
		{"missing api url", Request{AuthToken: "tok"}, Config{}, svcerrors.KindMissingAPIURL},
		{"bad scheme", Request{APIURL: "ftp://shop.example/", AuthToken: "tok"}, Config{}, svcerrors.KindInvalidAPIURL},
		{"no host", Request{APIURL: "https:///graphql/", AuthToken: "tok"}, Config{}, svcerrors.KindInvalidAPIURL},
		{"unparsable", Request{APIURL: "http://[::1", AuthToken: "tok"}, Config{}, svcerrors.KindInvalidAPIURL},
		{"missing token", Request{APIURL: apiURL}, Config{}, svcerrors.KindMissingAuthToken},
		{
			"not allowed",
			Request{APIURL: apiURL, AuthToken: "tok"},
			Config{AllowedURLs: []*regexp.Regexp{regexp.MustCompile(`^https://other\.example/graphql/$`)}},
			svcerrors.KindAPIURLNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := accepted()
			r := New(memory.New(), v, tt.cfg, testLogger())

			_, err := r.Register(context.Background(), tt.req)
			assert.Equal(t, tt.kind, kindOf(t, err).Code)
			assert.Zero(t, v.calls.Load(), "no outbound call for a malformed request")
		})
	}
}

func TestRegister_AllowListMatch(t *testing.T) {
	cfg := Config{AllowedURLs: []*regexp.Regexp{regexp.MustCompile(`^https://[a-z]+\.example/graphql/$`)}}
	r := New(memory.New(), accepted(), cfg, testLogger())

	_, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "tok"})
	require.NoError(t, err)
}

func TestRegister_JWKSFailureStillStores(t *testing.T) {
	store := memory.New()
	v := accepted()
	v.jwks, v.jwksErr = "", saleor.ErrUnreachable
	r := New(store, v, Config{}, testLogger())

	rec, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "tok"})
	require.NoError(t, err)
	assert.Empty(t, rec.JWKS)

	_, ok, err := store.Get(context.Background(), apiURL)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_CommitSurvivesClientCancel(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := accepted()
	// the client goes away right after the instance confirmed the token
	v.onValidate = cancel
	r := New(ctxCheckingStore{store}, v, Config{}, testLogger())

	_, err := r.Register(ctx, Request{APIURL: apiURL, AuthToken: "tok"})
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), apiURL)
	require.NoError(t, err)
	assert.True(t, ok, "a validated registration must be committed")
}

func TestRegister_StoreFailures(t *testing.T) {
	tests := []struct {
		err  error
		kind svcerrors.ErrorKind
	}{
		{apl.IOError("set", errors.New("disk full")), svcerrors.KindStoreIO},
		{apl.CorruptError("set", errors.New("bad json")), svcerrors.KindStoreCorrupt},
	}
	for _, tt := range tests {
		r := New(failingStore{Store: memory.New(), err: tt.err}, accepted(), Config{}, testLogger())
		_, err := r.Register(context.Background(), Request{APIURL: apiURL, AuthToken: "tok"})
		se := kindOf(t, err)
		assert.Equal(t, tt.kind, se.Code)
		assert.Equal(t, http.StatusInternalServerError, se.HTTPStatus)
	}
}
