// Package apl defines the installation store ("APL") that maps a Saleor
// instance's API URL to the auth token the app was issued for it.
//
// The store is a capability interface only. Variants live in subpackages
// (file, memory, postgres, redis, bolt) and all of them honor the same
// contract: a miss is not an error, Set is atomic with respect to concurrent
// Set/Remove on the same store, and List returns a snapshot.
package apl

import (
	"context"
	"sort"
	"strings"
)

// Record is one installation of the app on a Saleor instance.
type Record struct {
	APIURL    string `json:"apiUrl"`
	AuthToken string `json:"authToken"`
	AppID     string `json:"appId,omitempty"`
	JWKS      string `json:"jwks,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// Validate checks the fields every store requires.
func (r Record) Validate() error {
	if strings.TrimSpace(r.APIURL) == "" {
		return invalidRecord("apiUrl is required")
	}
	if strings.TrimSpace(r.AuthToken) == "" {
		return invalidRecord("authToken is required")
	}
	return nil
}

// Store persists installation records keyed by API URL.
type Store interface {
	// Get returns the record for apiURL. A missing key yields ok == false and
	// a nil error.
	Get(ctx context.Context, apiURL string) (rec Record, ok bool, err error)
	// Set inserts or overwrites the record for rec.APIURL.
	Set(ctx context.Context, rec Record) error
	// Remove deletes the record for apiURL. Removing a missing key is a no-op.
	Remove(ctx context.Context, apiURL string) error
	// List returns every record sorted by API URL.
	List(ctx context.Context) ([]Record, error)
}

// SortRecords orders records by API URL in place and returns them. Variants
// backed by unordered maps use it so List output is deterministic.
func SortRecords(records []Record) []Record {
	sort.Slice(records, func(i, j int) bool {
		return records[i].APIURL < records[j].APIURL
	})
	return records
}
