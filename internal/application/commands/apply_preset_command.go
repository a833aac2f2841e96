package commands

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/application/use_cases"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type ApplyPresetCommand struct {
	UserID   string
	PresetID string
}

// ApplyPresetResponse reports the per-line outcomes of loading a bulk-order
// preset into the cart. A preset applies partially: lines that clamp or fail
// are reported, not rolled back.
type ApplyPresetResponse struct {
	PresetID string                 `json:"preset_id"`
	Name     string                 `json:"name"`
	Lines    []use_cases.LineResult `json:"lines"`
	Skipped  []SkippedPresetLine    `json:"skipped,omitempty"`
}

type SkippedPresetLine struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

type ApplyPresetHandler struct {
	presets ports.PresetRepository
	carts   *use_cases.CartUseCase
	log     *logger.Logger
}

func NewApplyPresetHandler(presets ports.PresetRepository, carts *use_cases.CartUseCase, log *logger.Logger) *ApplyPresetHandler {
	return &ApplyPresetHandler{
		presets: presets,
		carts:   carts,
		log:     log,
	}
}

func (h *ApplyPresetHandler) Handle(ctx context.Context, cmd ApplyPresetCommand) (*ApplyPresetResponse, error) {
	preset, err := h.presets.GetPresetByID(ctx, cmd.PresetID)
	if err != nil {
		if err == domainErrors.ErrPresetNotFound {
			return nil, err
		}
		h.log.Error("Failed to load preset", "preset_id", cmd.PresetID, "error", err)
		return nil, domainErrors.ErrPersistenceFailure
	}

	resp := &ApplyPresetResponse{
		PresetID: preset.ID,
		Name:     preset.Name,
	}

	for _, line := range preset.Lines {
		result, err := h.carts.AddItem(ctx, cmd.UserID, line.ProductID, line.Quantity)
		if err != nil {
			resp.Skipped = append(resp.Skipped, SkippedPresetLine{
				ProductID: line.ProductID,
				Reason:    err.Error(),
			})
			continue
		}
		resp.Lines = append(resp.Lines, *result)
	}

	h.log.Info("Preset applied",
		"user_id", cmd.UserID,
		"preset_id", preset.ID,
		"applied_lines", len(resp.Lines),
		"skipped_lines", len(resp.Skipped),
	)

	return resp, nil
}
