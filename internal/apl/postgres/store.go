// Package postgres implements apl.Store on a saleor_installations table.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/logistiker/saleor-app/internal/apl"
)

// Store implements apl.Store backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ apl.Store = (*Store)(nil)

// New creates a Store using the provided database handle. The schema is
// created by migrations.Apply.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type installationRow struct {
	APIURL    string `db:"api_url"`
	AuthToken string `db:"auth_token"`
	AppID     string `db:"app_id"`
	JWKS      string `db:"jwks"`
	Domain    string `db:"domain"`
}

func (r installationRow) record() apl.Record {
	return apl.Record{
		APIURL:    r.APIURL,
		AuthToken: r.AuthToken,
		AppID:     r.AppID,
		JWKS:      r.JWKS,
		Domain:    r.Domain,
	}
}

func (s *Store) Get(ctx context.Context, apiURL string) (apl.Record, bool, error) {
	var row installationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT api_url, auth_token, app_id, jwks, domain
		FROM saleor_installations
		WHERE api_url = $1
	`, apiURL)
	if errors.Is(err, sql.ErrNoRows) {
		return apl.Record{}, false, nil
	}
	if err != nil {
		return apl.Record{}, false, wrap("get", err)
	}
	return row.record(), true, nil
}

// Set upserts the record; a second registration for the same API URL
// replaces the stored token.
func (s *Store) Set(ctx context.Context, rec apl.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saleor_installations (api_url, auth_token, app_id, jwks, domain)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (api_url) DO UPDATE
		SET auth_token = EXCLUDED.auth_token,
		    app_id = EXCLUDED.app_id,
		    jwks = EXCLUDED.jwks,
		    domain = EXCLUDED.domain,
		    updated_at = NOW()
	`, rec.APIURL, rec.AuthToken, rec.AppID, rec.JWKS, rec.Domain)
	if err != nil {
		return wrap("set", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, apiURL string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saleor_installations WHERE api_url = $1`, apiURL); err != nil {
		return wrap("remove", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]apl.Record, error) {
	var rows []installationRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT api_url, auth_token, app_id, jwks, domain
		FROM saleor_installations
		ORDER BY api_url
	`); err != nil {
		return nil, wrap("list", err)
	}

	result := make([]apl.Record, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.record())
	}
	// ORDER BY follows the database collation; normalize to byte order.
	return apl.SortRecords(result), nil
}

func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apl.IOError(op, err)
}
