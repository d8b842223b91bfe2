package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"summoner-tracker/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// InsertResult always carries the row that now owns the external id: the
// freshly inserted one, or the one a concurrent writer created first.
type InsertResult struct {
	Outcome InsertOutcome
	Account *domain.Account
}

type AccountRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAccountRepository(sqlDB *sql.DB, logger zerolog.Logger) *AccountRepository {
	return &AccountRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const accountColumns = `id, game_name, tag_line, region, external_id, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var (
		acc                  domain.Account
		createdAt, updatedAt int64
	)
	if err := row.Scan(&acc.ID, &acc.GameName, &acc.TagLine, &acc.Region, &acc.PUUID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	acc.CreatedAt = time.UnixMilli(createdAt).UTC()
	acc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &acc, nil
}

func (r *AccountRepository) GetByExternalID(ctx context.Context, puuid string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE external_id = ?`, puuid)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by external id: %w", err)
	}
	return acc, nil
}

// GetByRiotID matches game name and tag case-insensitively. When a riot id
// was reused after a rename the most recently updated row wins.
func (r *AccountRepository) GetByRiotID(ctx context.Context, gameName, tagLine, region string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE game_name = ? AND tag_line = ? AND region = ?
		ORDER BY updated_at DESC
		LIMIT 1`, gameName, tagLine, region)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by riot id: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) Insert(ctx context.Context, acc domain.Account) (InsertResult, error) {
	if acc.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to generate nanoid: %w", err)
		}
		acc.ID = id
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	acc.CreatedAt, acc.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.GameName, acc.TagLine, acc.Region, acc.PUUID, now.UnixMilli(), now.UnixMilli())
	if err == nil {
		r.logger.Debug().Str("account_id", acc.ID).Str("puuid", acc.PUUID).Msg("account inserted")
		return InsertResult{Outcome: Inserted, Account: &acc}, nil
	}
	if !isUniqueViolation(err) {
		return InsertResult{}, fmt.Errorf("insert account: %w", err)
	}

	existing, lookupErr := r.GetByExternalID(ctx, acc.PUUID)
	if lookupErr != nil {
		return InsertResult{}, lookupErr
	}
	if existing == nil {
		return InsertResult{}, fmt.Errorf("insert account: unique violation but no row for %s: %w", acc.PUUID, err)
	}
	r.logger.Debug().Str("account_id", existing.ID).Str("puuid", acc.PUUID).Msg("account already existed")
	return InsertResult{Outcome: AlreadyExists, Account: existing}, nil
}

func (r *AccountRepository) UpdateRiotID(ctx context.Context, id, gameName, tagLine string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET game_name = ?, tag_line = ?, updated_at = ?
		WHERE id = ?`, gameName, tagLine, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update riot id: %w", err)
	}
	return nil
}

// ListForRefresh returns accounts without a snapshot first, then the
// stalest snapshots.
func (r *AccountRepository) ListForRefresh(ctx context.Context, limit int) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.game_name, a.tag_line, a.region, a.external_id, a.created_at, a.updated_at
		FROM accounts a
		LEFT JOIN profile_snapshots s ON s.account_id = a.id
		ORDER BY s.updated_at ASC, a.created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list accounts for refresh: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
