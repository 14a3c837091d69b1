package command

import (
	"context"
	"strings"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// DeleteLotCommand represents the command to destroy a live lot and its garments
type DeleteLotCommand struct {
	LotID string
}

// DeleteLotHandler handles delete lot command
type DeleteLotHandler struct {
	tx       database.TxRunner
	lots     domain.LotRepository
	garments domain.GarmentRepository
}

// NewDeleteLotHandler creates a new delete lot handler
func NewDeleteLotHandler(tx database.TxRunner, lots domain.LotRepository, garments domain.GarmentRepository) *DeleteLotHandler {
	return &DeleteLotHandler{tx: tx, lots: lots, garments: garments}
}

// Handle deletes the lot and returns how many garments went with it.
// Stored lots have no live row left and come back as not found.
func (h *DeleteLotHandler) Handle(ctx context.Context, cmd DeleteLotCommand) (int64, error) {
	const op = "lot.delete"

	lotID := strings.TrimSpace(cmd.LotID)
	if lotID == "" {
		return 0, domain.NewValidationError(op, "lot_id is required")
	}

	var removed int64
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		if _, err := h.lots.LockByID(dbc, lotID); err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "lot %s not found", lotID)
			}
			return err
		}

		n, err := h.garments.DeleteByLot(dbc, lotID)
		if err != nil {
			return err
		}
		removed = n

		affected, err := h.lots.Delete(dbc, lotID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.NewNotFoundError(op, "lot %s not found", lotID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx).
		Str("lot_id", lotID).
		Int64("garments_deleted", removed).
		Msg("Lot deleted")
	return removed, nil
}
