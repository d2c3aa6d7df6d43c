// Package saleor talks to Saleor instances: the GraphQL call that proves an
// auth token is genuine, the JWKS fetch, and the enums a manifest may use.
package saleor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/logistiker/saleor-app/internal/httputil"
)

var (
	// ErrInvalidToken means the instance answered and refused the token.
	ErrInvalidToken = errors.New("saleor: auth token rejected")
	// ErrUnreachable means no usable answer came back from the instance.
	ErrUnreachable = errors.New("saleor: instance unreachable")
)

// AppIdentity is what the instance reports about the token's app.
type AppIdentity struct {
	AppID string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Transport    http.RoundTripper
}

// Client performs outbound calls to Saleor instances.
type Client struct {
	http *httputil.Client
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "saleor-app"
	}
	return &Client{http: httputil.NewClient(httputil.ClientConfig{
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Transport:    cfg.Transport,
	})}
}

// Query runs a GraphQL document against apiURL authenticated with token and
// returns the "data" member. HTTP 401/403 and GraphQL errors are
// ErrInvalidToken; every other failure is ErrUnreachable.
func (c *Client) Query(ctx context.Context, apiURL, token, query string, variables map[string]interface{}) (gjson.Result, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	payload := map[string]interface{}{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	body, err := c.http.PostJSON(ctx, apiURL, header, payload)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
			return gjson.Result{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: response is not JSON", ErrUnreachable)
	}
	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrInvalidToken, errs.Get("0.message").String())
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: response has no data", ErrUnreachable)
	}
	return data, nil
}

// FetchAppIdentity proves token is a live app token on the instance.
func (c *Client) FetchAppIdentity(ctx context.Context, apiURL, token string) (AppIdentity, error) {
	data, err := c.Query(ctx, apiURL, token, AppIdentityQuery, nil)
	if err != nil {
		return AppIdentity{}, err
	}
	app := data.Get("app")
	if !app.IsObject() {
		return AppIdentity{}, fmt.Errorf("%w: token does not belong to an app", ErrInvalidToken)
	}
	id := app.Get("id").String()
	if id == "" {
		return AppIdentity{}, fmt.Errorf("%w: app has no id", ErrUnreachable)
	}
	return AppIdentity{AppID: id}, nil
}

// FetchJWKS downloads the instance's key set from the origin of apiURL.
func (c *Client) FetchJWKS(ctx context.Context, apiURL string) (string, error) {
	jwksURL, err := JWKSURL(apiURL)
	if err != nil {
		return "", err
	}
	body, err := c.http.Get(ctx, jwksURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "keys").IsArray() {
		return "", fmt.Errorf("%w: %s is not a key set", ErrUnreachable, jwksURL)
	}
	return string(body), nil
}

// JWKSURL returns scheme://host/.well-known/jwks.json for apiURL.
func JWKSURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("saleor: invalid api url %q", apiURL)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: JWKSPath}).String(), nil
}

// IsTimeout reports whether err came from a deadline rather than an answer.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
