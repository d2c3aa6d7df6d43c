//go:build smoke

// Package smoke checks a running saleor-app instance end to end. Point
// SMOKE_APP_URL at the server (default http://localhost:8008).
package smoke

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

type smokeConfig struct {
	BaseURL string
	Timeout time.Duration
}

func defaultSmokeConfig() smokeConfig {
	baseURL := os.Getenv("SMOKE_APP_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8008"
	}
	timeout := 10 * time.Second
	if t := os.Getenv("SMOKE_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}
	return smokeConfig{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: timeout}
}

type smokeClient struct {
	config smokeConfig
	client *http.Client
}

func newSmokeClient(cfg smokeConfig) *smokeClient {
	return &smokeClient{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *smokeClient) do(t *testing.T, method, path, body string, header http.Header) (int, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestSmoke_Health(t *testing.T) {
	c := newSmokeClient(defaultSmokeConfig())
	status, body := c.do(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("healthz status = %d body=%s", status, body)
	}
}

func TestSmoke_Manifest(t *testing.T) {
	c := newSmokeClient(defaultSmokeConfig())
	status, body := c.do(t, http.MethodGet, "/api/manifest", "", nil)
	if status != http.StatusOK {
		t.Fatalf("manifest status = %d body=%s", status, body)
	}
	doc := gjson.Parse(body)
	for _, field := range []string{"id", "name", "version", "appUrl", "tokenTargetUrl"} {
		if doc.Get(field).String() == "" {
			t.Errorf("manifest field %q is empty", field)
		}
	}
	if !doc.Get("permissions").IsArray() {
		t.Errorf("manifest permissions is not an array: %s", body)
	}
}

func TestSmoke_RegisterRejectsMissingFields(t *testing.T) {
	c := newSmokeClient(defaultSmokeConfig())
	status, body := c.do(t, http.MethodPost, "/api/register", "{}", http.Header{
		"Content-Type": []string{"application/json"},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("register status = %d body=%s", status, body)
	}
	if gjson.Get(body, "success").Bool() {
		t.Fatalf("expected success=false: %s", body)
	}
}
