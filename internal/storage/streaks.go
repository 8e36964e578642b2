package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/poseflow/internal/streak"
	"github.com/jackc/pgx/v5"
)

// GetStreak returns the user's streak, or nil if the user has never practiced.
func (db *DB) GetStreak(ctx context.Context, userID int) (*streak.State, error) {
	var st streak.State
	err := db.Pool.QueryRow(ctx,
		`SELECT current_streak, max_streak, last_practice_date FROM user_streaks WHERE user_id = $1`,
		userID).Scan(&st.CurrentStreak, &st.MaxStreak, &st.LastPracticeDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying streak: %w", err)
	}
	return &st, nil
}

// UpdateStreak applies fn to the user's streak under a row lock so concurrent
// updates for the same user cannot lose writes.
func (db *DB) UpdateStreak(ctx context.Context, userID int, fn func(streak.State) streak.State) (streak.State, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return streak.State{}, fmt.Errorf("beginning streak tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_streaks (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return streak.State{}, fmt.Errorf("creating streak row: %w", err)
	}

	var cur streak.State
	if err := tx.QueryRow(ctx,
		`SELECT current_streak, max_streak, last_practice_date
		 FROM user_streaks WHERE user_id = $1 FOR UPDATE`,
		userID).Scan(&cur.CurrentStreak, &cur.MaxStreak, &cur.LastPracticeDate); err != nil {
		return streak.State{}, fmt.Errorf("locking streak row: %w", err)
	}

	next := fn(cur)

	var last *time.Time
	if next.LastPracticeDate != nil {
		d := next.LastPracticeDate.UTC()
		last = &d
	}
	if _, err := tx.Exec(ctx,
		`UPDATE user_streaks SET current_streak = $2, max_streak = $3, last_practice_date = $4
		 WHERE user_id = $1`,
		userID, next.CurrentStreak, next.MaxStreak, last); err != nil {
		return streak.State{}, fmt.Errorf("saving streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return streak.State{}, fmt.Errorf("committing streak: %w", err)
	}
	return next, nil
}
