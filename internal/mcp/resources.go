package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) poseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	poses, err := h.ds.Poses(ctx, "")
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, poses)
}

func (h *handlers) dailyPlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	login := LoginFromContext(ctx)

	st, err := h.ds.Streak(ctx, login)
	if err != nil {
		return nil, err
	}

	recs, err := h.ds.Recommendations(ctx, login)
	if err != nil {
		h.log.Warn("daily_plan: recommendations failed", "error", err)
	}

	return jsonResource(req.Params.URI, map[string]any{
		"streak":          st,
		"recommendations": recs,
	})
}
