// Package postgres implements the remote progression store on PostgreSQL.
// Writes are last-writer-wins upserts keyed by identity.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/progression"
)

// RemoteRepository implements progression.RemoteStore for PostgreSQL
type RemoteRepository struct {
	db *pgxpool.Pool
}

// NewRemoteRepository creates a new RemoteRepository
func NewRemoteRepository(db *pgxpool.Pool) progression.RemoteStore {
	return &RemoteRepository{db: db}
}

// UpsertRecord inserts or replaces the scalar progression row for an identity.
func (r *RemoteRepository) UpsertRecord(ctx context.Context, record domain.ProgressionRecord) error {
	query := `
		INSERT INTO progression_records (identity, total_xp, level, streak, last_active_date, journey_progress, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity) DO UPDATE
		SET total_xp = EXCLUDED.total_xp,
		    level = EXCLUDED.level,
		    streak = EXCLUDED.streak,
		    last_active_date = EXCLUDED.last_active_date,
		    journey_progress = EXCLUDED.journey_progress,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		record.Identity, record.TotalXP, record.Level, record.Streak,
		record.LastActiveDate.Time(), record.JourneyProgress, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert progression record: %w", err)
	}
	return nil
}

// GetRecord returns the scalar row for an identity, or nil when absent.
func (r *RemoteRepository) GetRecord(ctx context.Context, identity string) (*domain.ProgressionRecord, error) {
	query := `
		SELECT identity, total_xp, level, streak, last_active_date, journey_progress, updated_at
		FROM progression_records
		WHERE identity = $1
	`
	var record domain.ProgressionRecord
	var lastActive time.Time
	err := r.db.QueryRow(ctx, query, identity).Scan(
		&record.Identity, &record.TotalXP, &record.Level, &record.Streak,
		&lastActive, &record.JourneyProgress, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progression record: %w", err)
	}
	record.LastActiveDate = domain.DateOf(lastActive)
	return &record, nil
}

// UpsertCompletions writes completion rows. Rows already present are left
// untouched, so replays of the same day are harmless.
func (r *RemoteRepository) UpsertCompletions(ctx context.Context, identity string, completions []domain.QuestCompletion) error {
	if len(completions) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO quest_completions (identity, quest_id, completed_on)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity, quest_id, completed_on) DO NOTHING
	`
	for _, c := range completions {
		if _, err := tx.Exec(ctx, query, identity, c.QuestID, c.CompletedOn.Time()); err != nil {
			return fmt.Errorf("failed to upsert completion %s: %w", c.QuestID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListCompletions returns all completion rows for an identity.
func (r *RemoteRepository) ListCompletions(ctx context.Context, identity string) ([]domain.QuestCompletion, error) {
	query := `
		SELECT quest_id, completed_on
		FROM quest_completions
		WHERE identity = $1
		ORDER BY completed_on, quest_id
	`
	rows, err := r.db.Query(ctx, query, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var completions []domain.QuestCompletion
	for rows.Next() {
		var c domain.QuestCompletion
		var completedOn time.Time
		if err := rows.Scan(&c.QuestID, &completedOn); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		c.CompletedOn = domain.DateOf(completedOn)
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// UpsertBadges writes badge unlock rows. Existing rows keep their original
// unlock timestamp.
func (r *RemoteRepository) UpsertBadges(ctx context.Context, identity string, badgeIDs []string) error {
	if len(badgeIDs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO badge_unlocks (identity, badge_id, unlocked_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity, badge_id) DO NOTHING
	`
	for _, badgeID := range badgeIDs {
		if _, err := tx.Exec(ctx, query, identity, badgeID); err != nil {
			return fmt.Errorf("failed to upsert badge %s: %w", badgeID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListBadges returns all unlocked badge IDs for an identity.
func (r *RemoteRepository) ListBadges(ctx context.Context, identity string) ([]string, error) {
	query := `
		SELECT badge_id
		FROM badge_unlocks
		WHERE identity = $1
		ORDER BY unlocked_at, badge_id
	`
	rows, err := r.db.Query(ctx, query, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badgeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badgeIDs = append(badgeIDs, id)
	}
	return badgeIDs, rows.Err()
}

// DeleteAll removes every row for an identity across all three tables.
func (r *RemoteRepository) DeleteAll(ctx context.Context, identity string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, query := range []string{
		`DELETE FROM badge_unlocks WHERE identity = $1`,
		`DELETE FROM quest_completions WHERE identity = $1`,
		`DELETE FROM progression_records WHERE identity = $1`,
	} {
		if _, err := tx.Exec(ctx, query, identity); err != nil {
			return fmt.Errorf("failed to delete progression data: %w", err)
		}
	}

	return tx.Commit(ctx)
}
