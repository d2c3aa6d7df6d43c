// Package manifest loads the static app configuration and builds the Saleor
// App Manifest served at /api/manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/logistiker/saleor-app/internal/saleor"
)

// Config is the static description of the app. It is loaded once at startup
// and never changes afterwards.
type Config struct {
	// BaseURL, when set, resolves relative URLs below.
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`

	ID                    string   `json:"id" yaml:"id"`
	Name                  string   `json:"name" yaml:"name"`
	Version               string   `json:"version" yaml:"version"`
	RequiredSaleorVersion string   `json:"requiredSaleorVersion,omitempty" yaml:"requiredSaleorVersion,omitempty"`
	Permissions           []string `json:"permissions" yaml:"permissions"`
	AppURL                string   `json:"appUrl" yaml:"appUrl"`
	TokenTargetURL        string   `json:"tokenTargetUrl" yaml:"tokenTargetUrl"`
	Author                string   `json:"author,omitempty" yaml:"author,omitempty"`
	About                 string   `json:"about,omitempty" yaml:"about,omitempty"`
	DataPrivacyURL        string   `json:"dataPrivacyUrl,omitempty" yaml:"dataPrivacyUrl,omitempty"`
	HomepageURL           string   `json:"homepageUrl,omitempty" yaml:"homepageUrl,omitempty"`
	SupportURL            string   `json:"supportUrl,omitempty" yaml:"supportUrl,omitempty"`
	LogoURL               string   `json:"logoUrl,omitempty" yaml:"logoUrl,omitempty"`

	Extensions []Extension `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Webhooks   []Webhook   `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
}

// Extension is a dashboard extension the app contributes.
type Extension struct {
	Label       string   `json:"label" yaml:"label"`
	Mount       string   `json:"mount" yaml:"mount"`
	Target      string   `json:"target" yaml:"target"`
	Permissions []string `json:"permissions" yaml:"permissions"`
	URL         string   `json:"url" yaml:"url"`
}

// Webhook is a webhook subscription declared in the manifest.
type Webhook struct {
	Name        string   `json:"name" yaml:"name"`
	AsyncEvents []string `json:"asyncEvents,omitempty" yaml:"asyncEvents,omitempty"`
	SyncEvents  []string `json:"syncEvents,omitempty" yaml:"syncEvents,omitempty"`
	Query       string   `json:"query" yaml:"query"`
	TargetURL   string   `json:"targetUrl" yaml:"targetUrl"`
	IsActive    *bool    `json:"isActive,omitempty" yaml:"isActive,omitempty"`
}

// Manifest is the document Saleor fetches when installing the app.
type Manifest struct {
	ID                    string      `json:"id"`
	Version               string      `json:"version"`
	RequiredSaleorVersion string      `json:"requiredSaleorVersion,omitempty"`
	Name                  string      `json:"name"`
	Permissions           []string    `json:"permissions"`
	AppURL                string      `json:"appUrl"`
	TokenTargetURL        string      `json:"tokenTargetUrl"`
	Author                string      `json:"author,omitempty"`
	About                 string      `json:"about,omitempty"`
	DataPrivacyURL        string      `json:"dataPrivacyUrl,omitempty"`
	HomepageURL           string      `json:"homepageUrl,omitempty"`
	SupportURL            string      `json:"supportUrl,omitempty"`
	Extensions            []Extension `json:"extensions,omitempty"`
	Webhooks              []Webhook   `json:"webhooks,omitempty"`
	Brand                 *Brand      `json:"brand,omitempty"`
}

// Brand carries the app's visual identity.
type Brand struct {
	Logo Logo `json:"logo"`
}

type Logo struct {
	Default string `json:"default"`
}

// Load reads the config file, expands ${VAR} references from the
// environment, resolves relative URLs against BaseURL and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read app config: %w", err)
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(data))), path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML or JSON config data and resolves relative URLs. The
// format follows the file extension; unknown extensions try JSON then YAML.
func Parse(data []byte, filename string) (Config, error) {
	var cfg Config

	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse YAML: %w", err)
		}
	} else if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse JSON: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse app config: %w", err)
			}
		}
	}

	if err := cfg.resolveURLs(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolveURLs() error {
	if c.BaseURL == "" {
		return nil
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil || !base.IsAbs() {
		return fmt.Errorf("baseUrl %q must be an absolute URL", c.BaseURL)
	}
	resolve := func(s *string) {
		if *s == "" {
			return
		}
		ref, err := url.Parse(*s)
		if err != nil || ref.IsAbs() {
			return
		}
		*s = base.ResolveReference(ref).String()
	}

	for _, s := range []*string{&c.AppURL, &c.TokenTargetURL, &c.DataPrivacyURL, &c.HomepageURL, &c.SupportURL, &c.LogoURL} {
		resolve(s)
	}
	for i := range c.Extensions {
		resolve(&c.Extensions[i].URL)
	}
	for i := range c.Webhooks {
		resolve(&c.Webhooks[i].TargetURL)
	}
	return nil
}

// Validate checks the config once at startup so that serving the manifest
// can never fail.
func (c Config) Validate() error {
	var errs []string
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, field+" is required")
		}
	}
	absolute := func(field, value string) {
		if value == "" {
			return
		}
		u, err := url.Parse(value)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s %q must be an absolute http(s) URL", field, value))
		}
	}

	require("id", c.ID)
	require("name", c.Name)
	require("version", c.Version)
	require("appUrl", c.AppURL)
	require("tokenTargetUrl", c.TokenTargetURL)
	absolute("appUrl", c.AppURL)
	absolute("tokenTargetUrl", c.TokenTargetURL)
	absolute("dataPrivacyUrl", c.DataPrivacyURL)
	absolute("homepageUrl", c.HomepageURL)
	absolute("supportUrl", c.SupportURL)
	absolute("logoUrl", c.LogoURL)

	for _, p := range c.Permissions {
		if !saleor.Permission(p).Valid() {
			errs = append(errs, fmt.Sprintf("unknown permission %q", p))
		}
	}

	for i, ext := range c.Extensions {
		prefix := fmt.Sprintf("extension[%d]", i)
		if ext.Label == "" {
			errs = append(errs, prefix+": label is required")
		}
		if ext.URL == "" {
			errs = append(errs, prefix+": url is required")
		}
		if !saleor.ExtensionMount(ext.Mount).Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown mount %q", prefix, ext.Mount))
		}
		if !saleor.ExtensionTarget(ext.Target).Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown target %q", prefix, ext.Target))
		}
		for _, p := range ext.Permissions {
			if !saleor.Permission(p).Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown permission %q", prefix, p))
			}
		}
	}

	for i, wh := range c.Webhooks {
		prefix := fmt.Sprintf("webhook[%d]", i)
		if wh.Name == "" {
			errs = append(errs, prefix+": name is required")
		}
		if wh.Query == "" {
			errs = append(errs, prefix+": query is required")
		}
		if wh.TargetURL == "" {
			errs = append(errs, prefix+": targetUrl is required")
		}
		absolute(prefix+": targetUrl", wh.TargetURL)
		if len(wh.AsyncEvents)+len(wh.SyncEvents) == 0 {
			errs = append(errs, prefix+": at least one event is required")
		}
		for _, e := range wh.AsyncEvents {
			if !saleor.AsyncEvent(e).Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown async event %q", prefix, e))
			}
		}
		for _, e := range wh.SyncEvents {
			if !saleor.SyncEvent(e).Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown sync event %q", prefix, e))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("app config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Build renders the manifest for cfg. It depends on nothing but cfg: the
// permissions are exactly the configured ones, in order, whatever is
// installed.
func Build(cfg Config) Manifest {
	m := Manifest{
		ID:                    cfg.ID,
		Version:               cfg.Version,
		RequiredSaleorVersion: cfg.RequiredSaleorVersion,
		Name:                  cfg.Name,
		Permissions:           cloneStrings(cfg.Permissions),
		AppURL:                cfg.AppURL,
		TokenTargetURL:        cfg.TokenTargetURL,
		Author:                cfg.Author,
		About:                 cfg.About,
		DataPrivacyURL:        cfg.DataPrivacyURL,
		HomepageURL:           cfg.HomepageURL,
		SupportURL:            cfg.SupportURL,
	}
	if m.Permissions == nil {
		m.Permissions = []string{}
	}

	for _, ext := range cfg.Extensions {
		ext.Permissions = cloneStrings(ext.Permissions)
		if ext.Permissions == nil {
			ext.Permissions = []string{}
		}
		m.Extensions = append(m.Extensions, ext)
	}
	for _, wh := range cfg.Webhooks {
		wh.AsyncEvents = cloneStrings(wh.AsyncEvents)
		wh.SyncEvents = cloneStrings(wh.SyncEvents)
		if wh.IsActive != nil {
			active := *wh.IsActive
			wh.IsActive = &active
		}
		m.Webhooks = append(m.Webhooks, wh)
	}
	if cfg.LogoURL != "" {
		m.Brand = &Brand{Logo: Logo{Default: cfg.LogoURL}}
	}
	return m
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
