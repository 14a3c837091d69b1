package command

import (
	"context"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// UpdateGarmentQualityCommand sets the quality status of a garment directly
type UpdateGarmentQualityCommand struct {
	JeanID        uint
	StatutQualite string
}

// UpdateGarmentQualityHandler handles update garment quality command
type UpdateGarmentQualityHandler struct {
	tx       database.TxRunner
	lots     domain.LotRepository
	garments domain.GarmentRepository
	counts   reconciler
}

// NewUpdateGarmentQualityHandler creates a new update garment quality handler
func NewUpdateGarmentQualityHandler(
	tx database.TxRunner,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	history domain.HistoryRepository,
) *UpdateGarmentQualityHandler {
	return &UpdateGarmentQualityHandler{
		tx:       tx,
		lots:     lots,
		garments: garments,
		counts:   reconciler{lots: lots, garments: garments, history: history},
	}
}

// Handle executes the update garment quality command. On a finished lot it takes
// the recompute path, so non_verifie is settled to ok right away.
func (h *UpdateGarmentQualityHandler) Handle(ctx context.Context, cmd UpdateGarmentQualityCommand) (*GarmentResult, error) {
	const op = "garment.update_quality"

	if cmd.JeanID == 0 {
		return nil, domain.NewValidationError(op, "jean_id is required")
	}
	quality, ok := domain.ParseQuality(cmd.StatutQualite)
	if !ok {
		return nil, domain.NewValidationError(op, "statut_qualite must be one of non_verifie, ok, defectueux")
	}

	var result GarmentResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		garment, err := h.garments.FindByID(dbc, cmd.JeanID)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "garment %d not found", cmd.JeanID)
			}
			return err
		}

		lot, err := h.lots.LockByID(dbc, garment.LotID)
		if err != nil {
			return err
		}
		if err := h.garments.UpdateQuality(dbc, garment.JeanID, quality); err != nil {
			return err
		}

		if lot.Statut == domain.StatusTermine {
			err = h.counts.resettle(dbc, lot)
		} else {
			err = h.counts.recount(dbc, lot)
		}
		if err != nil {
			return err
		}

		garment, err = h.garments.FindByID(dbc, garment.JeanID)
		if err != nil {
			return err
		}
		result = GarmentResult{Garment: garment, Lot: lot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("jean_id", cmd.JeanID).
		Str("lot_id", result.Lot.LotID).
		Str("statut_qualite", string(result.Garment.StatutQualite)).
		Msg("Garment quality updated")
	return &result, nil
}
