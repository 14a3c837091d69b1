package command

import (
	"context"
	"time"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// StoreLotCommand represents a finished lot read at the storage portal
type StoreLotCommand struct {
	EPC string
}

// StoreLotResult is the archived lot and the number of garments moved to history
type StoreLotResult struct {
	History      *domain.LotHistory `json:"lot_history"`
	GarmentCount int                `json:"jeans_archives"`
}

// StoreLotHandler handles store lot command
type StoreLotHandler struct {
	tx       database.TxRunner
	lots     domain.LotRepository
	garments domain.GarmentRepository
	history  domain.HistoryRepository
	events   EventPublisher
	metrics  *metrics.Metrics
}

// NewStoreLotHandler creates a new store lot handler
func NewStoreLotHandler(
	tx database.TxRunner,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	history domain.HistoryRepository,
	events EventPublisher,
	m *metrics.Metrics,
) *StoreLotHandler {
	return &StoreLotHandler{
		tx:       tx,
		lots:     lots,
		garments: garments,
		history:  history,
		events:   publisherOrNop(events),
		metrics:  m,
	}
}

// Handle archives a termine lot and its garments, then deletes the live rows.
// A second call for the same epc finds nothing to store and fails as not found.
func (h *StoreLotHandler) Handle(ctx context.Context, cmd StoreLotCommand) (*StoreLotResult, error) {
	const op = "lot.store"

	epc := domain.NormalizeEPC(cmd.EPC)
	if epc == "" {
		return nil, domain.NewValidationError(op, "epc is required")
	}

	var result StoreLotResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		lot, err := h.lots.LockByEPC(dbc, epc)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "no lot with epc %s, or already stored", epc)
			}
			return err
		}
		if lot.Statut != domain.StatusTermine {
			return domain.NewNotFoundError(op, "lot %s is %s, only termine lots can be stored", lot.LotID, lot.Statut)
		}

		now := time.Now().UTC()
		snapshot, err := h.upsertHistory(dbc, lot, now)
		if err != nil {
			return err
		}

		garments, err := h.garments.ListByLot(dbc, lot.LotID)
		if err != nil {
			return err
		}
		for i := range garments {
			exists, err := h.history.GarmentSnapshotExists(dbc, garments[i].JeanID, lot.LotID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := h.history.CreateGarment(dbc, domain.NewGarmentHistory(&garments[i], now)); err != nil {
				return err
			}
		}

		if _, err := h.garments.DeleteByLot(dbc, lot.LotID); err != nil {
			return err
		}
		affected, err := h.lots.Delete(dbc, lot.LotID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.NewNotFoundError(op, "lot %s was already stored", lot.LotID)
		}

		result = StoreLotResult{History: snapshot, GarmentCount: len(garments)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := result.History
	h.metrics.Stored()
	publishCommitted(ctx, kafka.EventTypeLotStored, snapshot.LotID, func(ctx context.Context) error {
		return h.events.PublishLotStored(ctx, kafka.LotStoredEvent{
			LotID:          snapshot.LotID,
			EPC:            snapshot.EPC,
			ChaineID:       snapshot.ChaineID,
			GarmentCount:   result.GarmentCount,
			QuantiteFinale: snapshot.QuantiteFinale,
			DateStockage:   *snapshot.DateStockage,
		})
	})

	logger.Info(ctx).
		Str("lot_id", snapshot.LotID).
		Str("epc", epc).
		Int("garments_archived", result.GarmentCount).
		Msg("Lot stored")
	return &result, nil
}

// upsertHistory writes the stocke snapshot, updating the row written at termine if there is one
func (h *StoreLotHandler) upsertHistory(dbc database.Context, lot *domain.Lot, now time.Time) (*domain.LotHistory, error) {
	snapshot, err := h.history.FindLot(dbc, lot.LotID)
	switch {
	case domain.IsCode(err, domain.CodeNotFound):
		snapshot = domain.NewLotHistory(lot, lot.Localisation, lot.OuvrierNom, now)
		snapshot.Statut = domain.StatusStocke
		snapshot.DateStockage = &now
		return snapshot, h.history.CreateLot(dbc, snapshot)
	case err != nil:
		return nil, err
	}

	snapshot.Refresh(lot)
	snapshot.Statut = domain.StatusStocke
	snapshot.DateStockage = &now
	return snapshot, h.history.SaveLot(dbc, snapshot)
}
