package command

import (
	"context"
	"strings"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// AddGarmentCommand represents a garment tag scanned into a lot
type AddGarmentCommand struct {
	EPC      string
	LotID    string
	ChaineID string
}

// GarmentResult is a garment together with its owning lot after the change
type GarmentResult struct {
	Garment *domain.Garment `json:"jean"`
	Lot     *domain.Lot     `json:"lot"`
}

// AddGarmentHandler handles add garment command
type AddGarmentHandler struct {
	tx       database.TxRunner
	lots     domain.LotRepository
	garments domain.GarmentRepository
	workers  domain.WorkerDirectory
	metrics  *metrics.Metrics
	counts   reconciler
}

// NewAddGarmentHandler creates a new add garment handler
func NewAddGarmentHandler(
	tx database.TxRunner,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	workers domain.WorkerDirectory,
	m *metrics.Metrics,
) *AddGarmentHandler {
	return &AddGarmentHandler{
		tx:       tx,
		lots:     lots,
		garments: garments,
		workers:  workers,
		metrics:  m,
		counts:   reconciler{lots: lots, garments: garments},
	}
}

// Handle executes the add garment command
func (h *AddGarmentHandler) Handle(ctx context.Context, cmd AddGarmentCommand) (*GarmentResult, error) {
	const op = "garment.add"

	epc := domain.NormalizeEPC(cmd.EPC)
	lotID := strings.TrimSpace(cmd.LotID)
	chaineID := strings.TrimSpace(cmd.ChaineID)
	if epc == "" || lotID == "" || chaineID == "" {
		return nil, domain.NewValidationError(op, "epc, lot_id and chaine_id must be non-empty strings")
	}

	var result GarmentResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		lot, err := h.lots.LockByID(dbc, lotID)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "lot %s not found on chaine %s", lotID, chaineID)
			}
			return err
		}
		if lot.ChaineID != chaineID {
			return domain.NewNotFoundError(op, "lot %s not found on chaine %s", lotID, chaineID)
		}

		exists, err := h.garments.ExistsByEPC(dbc, epc)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflictError(op, "epc %s is already attached to a garment", epc)
		}

		garment := &domain.Garment{
			EPC:           epc,
			LotID:         lot.LotID,
			Statut:        lot.Statut,
			StatutQualite: domain.InitialQuality(lot.Statut),
			ChaineID:      lot.ChaineID,
		}
		if lot.Statut.Active() && lot.Assigned() {
			garment.Localisation = lot.Localisation
			garment.OuvrierNom = lot.OuvrierNom
			garment.OuvrierID = h.workerID(dbc, lot.OuvrierNom)
		}

		if err := h.garments.Create(dbc, garment); err != nil {
			if domain.IsCode(err, domain.CodeConflict) {
				return domain.NewConflictError(op, "epc %s is already attached to a garment", epc)
			}
			return err
		}
		if err := h.counts.recount(dbc, lot); err != nil {
			return err
		}

		result = GarmentResult{Garment: garment, Lot: lot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Scanned("add")
	logger.Info(ctx).
		Str("epc", epc).
		Str("lot_id", result.Lot.LotID).
		Int("quantite_initiale", result.Lot.QuantiteInitiale).
		Msg("Garment added to lot")
	return &result, nil
}

// workerID looks up the id of the worker a lot is assigned to.
// A worker that left the directory since the assignment leaves the id empty.
func (h *AddGarmentHandler) workerID(dbc database.Context, name string) *uint {
	if h.workers == nil {
		return nil
	}
	w, err := h.workers.ResolveWorker(dbc, name)
	if err != nil {
		logger.Debug(dbc.Ctx).Err(err).Str("ouvrier_nom", name).Msg("Worker not resolved for garment")
		return nil
	}
	id := w.OuvrierID
	return &id
}
