package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const loginKey contextKey = iota

// DefaultLogin is the user assumed when the transport supplies none.
const DefaultLogin = "local"

// LoginFromContext extracts the login injected by the transport layer.
func LoginFromContext(ctx context.Context) string {
	if login, ok := ctx.Value(loginKey).(string); ok && login != "" {
		return login
	}
	return DefaultLogin
}

// WithLogin returns a context carrying the given login.
func WithLogin(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, loginKey, login)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PoseFlow", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("PoseFlow yoga practice server. Suggest poses to practice, track the daily practice streak, and review recent pose sessions. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetRecommendations, Handler: h.getRecommendations},
		server.ServerTool{Tool: toolGetStreak, Handler: h.getStreak},
		server.ServerTool{Tool: toolMarkPracticed, Handler: h.markPracticed},
		server.ServerTool{Tool: toolGetRecentSessions, Handler: h.getRecentSessions},
		server.ServerTool{Tool: toolListPoses, Handler: h.listPoses},
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPoseCatalog, Handler: h.poseCatalog},
		server.ServerResource{Resource: resDailyPlan, Handler: h.dailyPlan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resPoseCatalog = mcp.NewResource(
	"poseflow://pose_catalog",
	"Pose Catalog",
	mcp.WithResourceDescription("Every known pose with its difficulty tier (BEGINNER, INTERMEDIATE, ADVANCED)"),
	mcp.WithMIMEType("application/json"),
)

var resDailyPlan = mcp.NewResource(
	"poseflow://daily_plan",
	"Daily Plan",
	mcp.WithResourceDescription("Current practice streak together with today's pose recommendations"),
	mcp.WithMIMEType("application/json"),
)
