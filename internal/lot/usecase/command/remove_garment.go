package command

import (
	"context"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// RemoveGarmentCommand represents a garment tag removed from its lot
type RemoveGarmentCommand struct {
	EPC string
}

// RemoveGarmentResult confirms the deletion and carries the recounted lot
type RemoveGarmentResult struct {
	EPC    string      `json:"epc"`
	JeanID uint        `json:"jean_id"`
	Lot    *domain.Lot `json:"lot"`
}

// RemoveGarmentHandler handles remove garment command
type RemoveGarmentHandler struct {
	tx       database.TxRunner
	lots     domain.LotRepository
	garments domain.GarmentRepository
	metrics  *metrics.Metrics
	counts   reconciler
}

// NewRemoveGarmentHandler creates a new remove garment handler
func NewRemoveGarmentHandler(
	tx database.TxRunner,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	m *metrics.Metrics,
) *RemoveGarmentHandler {
	return &RemoveGarmentHandler{
		tx:       tx,
		lots:     lots,
		garments: garments,
		metrics:  m,
		counts:   reconciler{lots: lots, garments: garments},
	}
}

// Handle executes the remove garment command
func (h *RemoveGarmentHandler) Handle(ctx context.Context, cmd RemoveGarmentCommand) (*RemoveGarmentResult, error) {
	const op = "garment.remove"

	epc := domain.NormalizeEPC(cmd.EPC)
	if epc == "" {
		return nil, domain.NewValidationError(op, "epc must be a non-empty string")
	}

	var result RemoveGarmentResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		notFound := domain.NewNotFoundError(op, "no garment with epc %s", epc)

		found, err := h.garments.FindByEPC(dbc, epc)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return notFound
			}
			return err
		}

		// Lot first, then garment: the same order every other lot mutation takes.
		lot, err := h.lots.LockByID(dbc, found.LotID)
		if err != nil {
			return err
		}
		garment, err := h.garments.LockByEPC(dbc, epc)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return notFound
			}
			return err
		}

		affected, err := h.garments.Delete(dbc, garment.JeanID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return notFound
		}
		if err := h.counts.recount(dbc, lot); err != nil {
			return err
		}

		result = RemoveGarmentResult{EPC: epc, JeanID: garment.JeanID, Lot: lot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Scanned("remove")
	logger.Info(ctx).
		Str("epc", epc).
		Str("lot_id", result.Lot.LotID).
		Int("quantite_initiale", result.Lot.QuantiteInitiale).
		Msg("Garment removed from lot")
	return &result, nil
}
