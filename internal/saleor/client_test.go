package saleor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newInstance(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAppIdentity_Accepted(t *testing.T) {
	srv := newInstance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":{"app":{"id":"QXBwOjQy"}}}`))
	})

	id, err := NewClient(ClientConfig{}).FetchAppIdentity(context.Background(), srv.URL+"/graphql/", "good")
	if err != nil {
		t.Fatalf("FetchAppIdentity() error = %v", err)
	}
	if id.AppID != "QXBwOjQy" {
		t.Fatalf("AppID = %q", id.AppID)
	}
}

func TestFetchAppIdentity_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ``, ErrInvalidToken},
		{"forbidden", http.StatusForbidden, ``, ErrInvalidToken},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"Invalid token"}],"data":null}`, ErrInvalidToken},
		{"null app", http.StatusOK, `{"data":{"app":null}}`, ErrInvalidToken},
		{"server error", http.StatusBadGateway, `upstream down`, ErrUnreachable},
		{"not json", http.StatusOK, `<html></html>`, ErrUnreachable},
		{"missing data", http.StatusOK, `{}`, ErrUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newInstance(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := NewClient(ClientConfig{}).FetchAppIdentity(context.Background(), srv.URL, "tok")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchAppIdentity_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(ClientConfig{}).FetchAppIdentity(context.Background(), url, "tok")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
	if IsTimeout(err) {
		t.Fatal("connection refused is not a timeout")
	}
}

func TestFetchAppIdentity_Deadline(t *testing.T) {
	release := make(chan struct{})
	srv := newInstance(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewClient(ClientConfig{}).FetchAppIdentity(ctx, srv.URL, "tok")
	if !errors.Is(err, ErrUnreachable) || !IsTimeout(err) {
		t.Fatalf("expected unreachable timeout, got %v", err)
	}
}

func TestQuery_SendsDocument(t *testing.T) {
	srv := newInstance(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "AppIdentity") {
			t.Errorf("query not sent: %s", body)
		}
		w.Write([]byte(`{"data":{"app":{"id":"1"}}}`))
	})

	data, err := NewClient(ClientConfig{}).Query(context.Background(), srv.URL, "tok", AppIdentityQuery, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if data.Get("app.id").String() != "1" {
		t.Fatalf("unexpected data %s", data.Raw)
	}
}

func TestFetchJWKS(t *testing.T) {
	srv := newInstance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != JWKSPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"keys":[{"kty":"RSA","kid":"1"}]}`))
	})

	jwks, err := NewClient(ClientConfig{}).FetchJWKS(context.Background(), srv.URL+"/graphql/")
	if err != nil {
		t.Fatalf("FetchJWKS() error = %v", err)
	}
	if !strings.Contains(jwks, `"kid":"1"`) {
		t.Fatalf("unexpected jwks %s", jwks)
	}
}

func TestFetchJWKS_NotAKeySet(t *testing.T) {
	srv := newInstance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hello":"world"}`))
	})

	if _, err := NewClient(ClientConfig{}).FetchJWKS(context.Background(), srv.URL); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
}

func TestJWKSURL(t *testing.T) {
	got, err := JWKSURL("https://shop.example:8443/graphql/?x=1")
	if err != nil {
		t.Fatalf("JWKSURL() error = %v", err)
	}
	if got != "https://shop.example:8443/.well-known/jwks.json" {
		t.Fatalf("JWKSURL() = %s", got)
	}
	if _, err := JWKSURL("not a url"); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestEnumsValid(t *testing.T) {
	if !PermissionManageUsers.Valid() || Permission("MANAGE_EVERYTHING").Valid() {
		t.Fatal("permission validation broken")
	}
	if !TargetPopup.Valid() || !ExtensionMount("PRODUCT_DETAILS_MORE_ACTIONS").Valid() {
		t.Fatal("extension enums broken")
	}
	if !AsyncEvent("ORDER_CREATED").Valid() || AsyncEvent("PAYMENT_CAPTURE").Valid() {
		t.Fatal("async events broken")
	}
	if !SyncEvent("PAYMENT_CAPTURE").Valid() {
		t.Fatal("sync events broken")
	}
	perms := Permissions()
	for i := 1; i < len(perms); i++ {
		if perms[i-1] >= perms[i] {
			t.Fatalf("Permissions() not sorted at %d", i)
		}
	}
}
