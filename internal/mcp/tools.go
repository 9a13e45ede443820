package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
)

// registerTools adds every annotation tool to the server.
func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_state",
		Description: "Get the current folder, image set, labels and class map",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StateResult, error) {
		res, err := h.GetState(ctx)
		return nil, res, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_box",
		Description: "Draw an unclassified bounding box on one image of the current set",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params AddBoxParams) (*sdkmcp.CallToolResult, StateResult, error) {
		res, err := h.AddBox(ctx, params)
		return nil, res, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "label_box",
		Description: "Assign a class name to a box; the class id is allocated on first use of the name",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params LabelBoxParams) (*sdkmcp.CallToolResult, StateResult, error) {
		res, err := h.LabelBox(ctx, params)
		return nil, res, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_box",
		Description: "Remove every box on an image addressed by temp id or class id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params RemoveBoxParams) (*sdkmcp.CallToolResult, StateResult, error) {
		res, err := h.RemoveBox(ctx, params)
		return nil, res, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reset_annotations",
		Description: "Clear labels for the current folder, or every label with scope=all, and save",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ResetParams) (*sdkmcp.CallToolResult, StateResult, error) {
		res, err := h.Reset(ctx, params)
		return nil, res, err
	})

	navigation := []struct {
		name        string
		description string
		move        func() (session.View, error)
	}{
		{"next_set", "Save classified labels and move to the next image set, wrapping to the next folder", h.sessions.NextSet},
		{"prev_set", "Move to the previous image set in the current folder", h.sessions.PrevSet},
		{"next_folder", "Save classified labels and move to the first set of the next folder", h.sessions.NextFolder},
		{"prev_folder", "Move to the first set of the previous folder", h.sessions.PrevFolder},
		{"save_and_next", "Merge the current folder's labels into the annotation file, release them and advance", h.sessions.SaveAndNext},
	}
	for _, nav := range navigation {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        nav.name,
			Description: nav.description,
		}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StateResult, error) {
			res, err := h.Move(ctx, nav.name, nav.move)
			return nil, res, err
		})
	}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_classes",
		Description: "List every class name with its numeric id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, ClassesResult, error) {
		return nil, h.ListClasses(ctx), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_visit_stats",
		Description: "Get visitor statistics: totals, countries, visits by date and top user agents",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, StatsResult, error) {
		res, err := h.VisitStats(ctx)
		return nil, res, err
	})
}
