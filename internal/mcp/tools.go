package mcp

import (
	"context"

	"github.com/claude/poseflow/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultSessionLimit = 10
	maxSessionLimit     = 100
)

// --- Tool definitions ---

var toolGetRecommendations = mcp.NewTool("get_recommendations",
	mcp.WithDescription("Suggest up to three distinct poses to practice next. Each suggestion carries its difficulty, a reason tag (level-match, improve-accuracy, challenge, try-new, daily-suggestion) and a short message."),
)

var toolGetStreak = mcp.NewTool("get_streak",
	mcp.WithDescription("Get the current and longest consecutive-day practice streak and the last practice date."),
)

var toolMarkPracticed = mcp.NewTool("mark_practiced",
	mcp.WithDescription("Record that the user practiced today and return the updated streak. Calling it again on the same day changes nothing."),
)

var toolGetRecentSessions = mcp.NewTool("get_recent_sessions",
	mcp.WithDescription("List the user's most recent pose sessions with average accuracy (0-100) and duration, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 10, capped at 100.")),
)

var toolListPoses = mcp.NewTool("list_poses",
	mcp.WithDescription("List poses in the catalog, optionally filtered by difficulty."),
	mcp.WithString("difficulty", mcp.Description("Only poses of this tier"), mcp.Enum("BEGINNER", "INTERMEDIATE", "ADVANCED")),
)

var toolGetProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("Get the user's profile. experience_level drives recommendations and defaults to BEGINNER when unset."),
)

// --- Tool handlers ---

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecommendations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := h.ds.Recommendations(ctx, LoginFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_recommendations", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(recs)
}

func (h *handlers) getStreak(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.Streak(ctx, LoginFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_streak", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(st)
}

func (h *handlers) markPracticed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.MarkPracticed(ctx, LoginFromContext(ctx))
	if err != nil {
		h.log.Error("mcp mark_practiced", "error", err)
		return mcp.NewToolResultError("update failed: " + err.Error()), nil
	}
	return jsonResult(st)
}

func (h *handlers) getRecentSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultSessionLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	limit = min(limit, maxSessionLimit)

	sessions, err := h.ds.RecentSessions(ctx, LoginFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp get_recent_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sessions == nil {
		sessions = []models.PracticeSession{}
	}
	return jsonResult(sessions)
}

func (h *handlers) listPoses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	poses, err := h.ds.Poses(ctx, req.GetString("difficulty", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid difficulty: " + err.Error()), nil
	}
	return jsonResult(poses)
}

func (h *handlers) getProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.Profile(ctx, LoginFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_profile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"profile":         p,
		"effective_level": p.Level(),
	})
}
