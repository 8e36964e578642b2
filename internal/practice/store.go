package practice

import (
	"context"

	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/streak"
)

// Store is the persistence the service needs. Both the Postgres and SQLite
// backends implement it.
type Store interface {
	// LookupUser returns models.ErrNotFound for an unknown login.
	LookupUser(ctx context.Context, login string) (*models.User, error)
	// EnsureUser finds or creates the user for login.
	EnsureUser(ctx context.Context, login, displayName string) (*models.User, error)

	// GetProfile returns nil without error when the user has no profile.
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	SaveProfile(ctx context.Context, userID int, p models.Profile) error

	// InsertSession reports false when the user already has a session with
	// the same ID, and models.ErrSessionConflict when another user owns it.
	InsertSession(ctx context.Context, s models.PracticeSession) (bool, error)
	// RecentSessions returns up to limit sessions, most recent first.
	RecentSessions(ctx context.Context, userID, limit int) ([]models.PracticeSession, error)

	// GetStreak returns nil without error when the user has no streak row.
	GetStreak(ctx context.Context, userID int) (*streak.State, error)
	// UpdateStreak loads the streak (zero state if absent), applies fn and
	// saves the result in one transaction, serialised per user.
	UpdateStreak(ctx context.Context, userID int, fn func(streak.State) streak.State) (streak.State, error)
}
