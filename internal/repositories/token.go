// package repositories provides persistence layer implementations for the player core.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/smolfy/internal/models"
)

// TokenRepository persists the single [models.TokenRecord] in SQLite.
//
// The tokens table holds at most one row (id = 1); Save upserts it so the
// durable copy always mirrors the latest exchange result.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save writes the record to durable storage, replacing any previous one.
func (r *TokenRepository) Save(rec *models.TokenRecord) error {
	if rec == nil || rec.AccessToken == "" {
		return fmt.Errorf("cannot persist empty token record")
	}

	query := `
		INSERT INTO tokens (id, access_token, expiry_ms, refresh_token, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			expiry_ms = excluded.expiry_ms,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, rec.AccessToken, rec.Expiry.UnixMilli(), rec.RefreshToken, time.Now())
	if err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	return nil
}

// Load retrieves the stored record, or nil when none has been saved.
func (r *TokenRepository) Load() (*models.TokenRecord, error) {
	query := `SELECT access_token, expiry_ms, refresh_token FROM tokens WHERE id = 1`

	var (
		accessToken  string
		expiryMS     int64
		refreshToken sql.NullString
	)

	err := r.db.QueryRow(query).Scan(&accessToken, &expiryMS, &refreshToken)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	rec := &models.TokenRecord{
		AccessToken: accessToken,
		Expiry:      time.UnixMilli(expiryMS),
	}
	if refreshToken.Valid {
		rec.RefreshToken = refreshToken.String
	}

	return rec, nil
}

// Delete removes the stored record entirely. Deleting an absent row is not an error.
func (r *TokenRepository) Delete() error {
	if _, err := r.db.Exec(`DELETE FROM tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
