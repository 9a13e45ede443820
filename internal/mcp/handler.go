package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
)

// ErrStatsDisabled indicates visit tracking is turned off.
var ErrStatsDisabled = errors.New("visit statistics are disabled")

// Handler runs tool calls against the annotation session.
type Handler struct {
	sessions SessionService
	stats    StatsService
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		sessions: services.Sessions,
		stats:    services.Stats,
		logger:   logger,
	}
}

// GetState returns the current image set and its labels. An empty dataset is
// reported in the result rather than as an error.
func (h *Handler) GetState(_ context.Context) (StateResult, error) {
	view, err := h.sessions.Current()
	if errors.Is(err, session.ErrNoFolders) {
		return StateResult{
			DatasetError: h.sessions.DatasetError(),
			Labels:       []annotation.Label{},
			Classes:      []annotation.Class{},
		}, nil
	}
	if err != nil {
		return StateResult{}, mapError(err)
	}
	return stateFromView(view), nil
}

func (h *Handler) AddBox(ctx context.Context, params AddBoxParams) (StateResult, error) {
	tempID := params.TempID
	if tempID == "" {
		tempID = uuid.NewString()
	}
	box := annotation.BoxFromCorners(params.XMin, params.XMax, params.YMin, params.YMax)
	view, err := h.sessions.Add(params.Image, tempID, box)
	if err != nil {
		return StateResult{}, mapError(err)
	}
	h.audit(ctx, "add_box", "image", params.Image, "temp_id", tempID)
	res := stateFromView(view)
	res.TempID = tempID
	return res, nil
}

func (h *Handler) LabelBox(ctx context.Context, params LabelBoxParams) (StateResult, error) {
	view, err := h.sessions.Label(params.Image, params.ID, params.Name)
	if err != nil {
		return StateResult{}, mapError(err)
	}
	h.audit(ctx, "label_box", "image", params.Image, "id", params.ID, "class", annotation.NormalizeName(params.Name))
	return stateFromView(view), nil
}

func (h *Handler) RemoveBox(ctx context.Context, params RemoveBoxParams) (StateResult, error) {
	view, err := h.sessions.Remove(params.Image, params.ID)
	if err != nil {
		return StateResult{}, mapError(err)
	}
	h.audit(ctx, "remove_box", "image", params.Image, "id", params.ID)
	return stateFromView(view), nil
}

func (h *Handler) Reset(ctx context.Context, params ResetParams) (StateResult, error) {
	scope := annotation.ParseScope(params.Scope)
	view, err := h.sessions.Reset(scope)
	if err != nil {
		return StateResult{}, mapError(err)
	}
	h.audit(ctx, "reset_annotations", "scope", scope)
	return stateFromView(view), nil
}

// Move runs one of the navigation operations.
func (h *Handler) Move(ctx context.Context, name string, move func() (session.View, error)) (StateResult, error) {
	view, err := move()
	if err != nil {
		return StateResult{}, mapError(err)
	}
	h.audit(ctx, name, "folder", view.Folder, "set", view.SetIndex)
	return stateFromView(view), nil
}

func (h *Handler) ListClasses(_ context.Context) ClassesResult {
	classes := h.sessions.Classes()
	if classes == nil {
		classes = []annotation.Class{}
	}
	return ClassesResult{Classes: classes}
}

func (h *Handler) VisitStats(ctx context.Context) (StatsResult, error) {
	if h.stats == nil {
		return StatsResult{}, ErrStatsDisabled
	}
	stats, err := h.stats.Stats(ctx)
	if err != nil {
		return StatsResult{}, err
	}
	return statsFromDomain(stats), nil
}

func (h *Handler) audit(ctx context.Context, tool string, args ...any) {
	h.logger.Info("mcp annotation change", append([]any{"tool", tool, "session_id", getSessionID(ctx)}, args...)...)
}
