package storage

import (
	"context"
	"fmt"

	"github.com/claude/poseflow/internal/models"
)

// InsertSession inserts a practice session. Returns true if inserted, false if
// the user already has it, and models.ErrSessionConflict if another user does.
func (db *DB) InsertSession(ctx context.Context, s models.PracticeSession) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO practice_sessions (id, user_id, pose_name, average_accuracy, duration_seconds, practiced_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.UserID, s.PoseName, s.AverageAccuracy, s.DurationSeconds, s.PracticedAt)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var owner int
	if err := db.Pool.QueryRow(ctx,
		`SELECT user_id FROM practice_sessions WHERE id = $1`, s.ID).Scan(&owner); err != nil {
		return false, fmt.Errorf("checking session owner: %w", err)
	}
	if owner != s.UserID {
		return false, models.ErrSessionConflict
	}
	return false, nil
}

// RecentSessions returns a user's latest sessions, most recent first.
func (db *DB) RecentSessions(ctx context.Context, userID, limit int) ([]models.PracticeSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, pose_name, average_accuracy, duration_seconds, practiced_at
		 FROM practice_sessions
		 WHERE user_id = $1
		 ORDER BY practiced_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.PracticeSession
	for rows.Next() {
		var s models.PracticeSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.PoseName, &s.AverageAccuracy,
			&s.DurationSeconds, &s.PracticedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
