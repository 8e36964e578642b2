package mcp

import (
	"context"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/practice"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/claude/poseflow/internal/streak"
)

// DataSource abstracts the practice layer for MCP tools. Both *practice.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Recommendations(ctx context.Context, login string) ([]recommend.Recommendation, error)
	Streak(ctx context.Context, login string) (streak.State, error)
	MarkPracticed(ctx context.Context, login string) (streak.State, error)
	RecentSessions(ctx context.Context, login string, limit int) ([]models.PracticeSession, error)
	Profile(ctx context.Context, login string) (*models.Profile, error)
	Poses(ctx context.Context, difficulty string) ([]catalog.Entry, error)
}

// Compile-time check: *practice.Service satisfies DataSource.
var _ DataSource = (*practice.Service)(nil)
