package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"summoner-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type MatchDetailRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchDetailRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchDetailRepository {
	return &MatchDetailRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *MatchDetailRepository) Get(ctx context.Context, matchID string) (*domain.MatchDetail, error) {
	var (
		detail  domain.MatchDetail
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT match_id, platform, payload FROM match_details WHERE match_id = ?`, matchID,
	).Scan(&detail.MatchID, &detail.Platform, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match detail: %w", err)
	}
	detail.Payload = payload
	return &detail, nil
}

// Upsert overwrites in place; payloads are immutable per match id so a
// second write stores identical content.
func (r *MatchDetailRepository) Upsert(ctx context.Context, detail *domain.MatchDetail) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO match_details (match_id, platform, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			platform = excluded.platform,
			payload = excluded.payload`,
		detail.MatchID, detail.Platform, string(detail.Payload), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert match detail %s: %w", detail.MatchID, err)
	}
	return nil
}
