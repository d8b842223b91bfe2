package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"summoner-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// GetPayload returns the stored JSON document as written, or nil when the
// account has no snapshot.
func (r *SnapshotRepository) GetPayload(ctx context.Context, accountID string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM profile_snapshots WHERE account_id = ?`, accountID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return payload, nil
}

func (r *SnapshotRepository) Get(ctx context.Context, accountID string) (*domain.ProfileSnapshot, error) {
	payload, err := r.GetPayload(ctx, accountID)
	if err != nil || payload == nil {
		return nil, err
	}

	var snap domain.ProfileSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", accountID, err)
	}
	return &snap, nil
}

// Upsert replaces the whole snapshot row in one statement. A write whose
// UpdatedAt is older than the stored one is ignored and reported as false.
func (r *SnapshotRepository) Upsert(ctx context.Context, snap *domain.ProfileSnapshot) (bool, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_snapshots (account_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
		WHERE excluded.updated_at >= profile_snapshots.updated_at`,
		snap.AccountID, string(payload), snap.UpdatedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("upsert snapshot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert snapshot: %w", err)
	}
	if n == 0 {
		r.logger.Warn().
			Str("account_id", snap.AccountID).
			Time("updated_at", snap.UpdatedAt).
			Msg("older snapshot discarded")
		return false, nil
	}
	return true, nil
}
