package command

import (
	"context"
	"strings"
	"time"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// TransitionLotCommand moves a lot along en_attente -> en_cours -> termine.
// Localisation is only used when the worker has no location on file.
type TransitionLotCommand struct {
	LotID             string
	Statut            string
	OuvrierNom        string
	Localisation      string
	TempsDebutTravail *time.Time
	TempsFin          *time.Time
}

// TransitionResult is the lot after the command and whether its status changed
type TransitionResult struct {
	Lot     *domain.Lot
	From    domain.Status
	Changed bool
}

// TransitionLotHandler handles transition lot command
type TransitionLotHandler struct {
	tx       database.TxRunner
	lots     domain.LotRepository
	garments domain.GarmentRepository
	history  domain.HistoryRepository
	workers  domain.WorkerDirectory
	events   EventPublisher
	metrics  *metrics.Metrics
	counts   reconciler
}

// NewTransitionLotHandler creates a new transition lot handler
func NewTransitionLotHandler(
	tx database.TxRunner,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	history domain.HistoryRepository,
	workers domain.WorkerDirectory,
	events EventPublisher,
	m *metrics.Metrics,
) *TransitionLotHandler {
	return &TransitionLotHandler{
		tx:       tx,
		lots:     lots,
		garments: garments,
		history:  history,
		workers:  workers,
		events:   publisherOrNop(events),
		metrics:  m,
		counts:   reconciler{lots: lots, garments: garments, history: history},
	}
}

// Handle executes the transition lot command.
// Repeating the current status is accepted: en_cours with a worker reassigns the lot,
// termine makes sure the history row exists without freezing quantite_finale again.
func (h *TransitionLotHandler) Handle(ctx context.Context, cmd TransitionLotCommand) (*TransitionResult, error) {
	const op = "lot.transition"

	lotID := strings.TrimSpace(cmd.LotID)
	if lotID == "" {
		return nil, domain.NewValidationError(op, "lot_id is required")
	}
	target, ok := domain.ParseStatus(cmd.Statut)
	if !ok {
		return nil, domain.NewValidationError(op, "statut must be one of en_attente, en_cours, termine")
	}
	if target == domain.StatusStocke {
		return nil, domain.NewConflictError(op, "lots are stored through the storage operation only")
	}

	var result TransitionResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		lot, err := h.lots.LockByID(dbc, lotID)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "lot %s not found", lotID)
			}
			return err
		}
		result = TransitionResult{Lot: lot, From: lot.Statut, Changed: lot.Statut != target}

		switch {
		case lot.Statut == target:
			return h.repeat(dbc, op, lot, cmd)
		case !lot.Statut.CanTransitionTo(target):
			return domain.NewConflictError(op, "illegal transition from %s to %s", lot.Statut, target)
		case target == domain.StatusEnCours:
			return h.start(dbc, op, lot, cmd)
		case target == domain.StatusTermine:
			return h.finish(dbc, op, lot, cmd)
		}
		return domain.NewConflictError(op, "illegal transition from %s to %s", lot.Statut, target)
	})
	if err != nil {
		return nil, err
	}

	lot := result.Lot
	if result.Changed {
		h.metrics.Transitioned(result.From, lot.Statut)
		publishCommitted(ctx, kafka.EventTypeLotTransitioned, lot.LotID, func(ctx context.Context) error {
			return h.events.PublishLotTransitioned(ctx, kafka.LotTransitionedEvent{
				LotID:            lot.LotID,
				EPC:              lot.EPC,
				ChaineID:         lot.ChaineID,
				FromStatut:       string(result.From),
				ToStatut:         string(lot.Statut),
				QuantiteInitiale: lot.QuantiteInitiale,
				JeansDefectueux:  lot.JeansDefectueux,
				QuantiteFinale:   lot.QuantiteFinale,
				OuvrierNom:       lot.OuvrierNom,
				Localisation:     lot.Localisation,
			})
		})
	}

	logger.Info(ctx).
		Str("lot_id", lot.LotID).
		Str("from", string(result.From)).
		Str("to", string(lot.Statut)).
		Bool("changed", result.Changed).
		Msg("Lot transition applied")
	return &result, nil
}

func (h *TransitionLotHandler) repeat(dbc database.Context, op string, lot *domain.Lot, cmd TransitionLotCommand) error {
	switch lot.Statut {
	case domain.StatusEnCours:
		if strings.TrimSpace(cmd.OuvrierNom) == "" {
			return nil
		}
		return h.assign(dbc, op, lot, cmd)
	case domain.StatusTermine:
		return h.archive(dbc, lot, lot.Localisation, lot.OuvrierNom)
	}
	return nil
}

// start assigns the lot to a worker and mirrors the assignment onto its garments
func (h *TransitionLotHandler) start(dbc database.Context, op string, lot *domain.Lot, cmd TransitionLotCommand) error {
	if strings.TrimSpace(cmd.OuvrierNom) == "" {
		return domain.NewValidationError(op, "ouvrier_nom is required to start a lot")
	}

	if cmd.TempsDebutTravail != nil && cmd.TempsDebutTravail.Before(lot.TempsDebut) {
		return domain.NewValidationError(op, "temps_debut_travail is before temps_debut")
	}
	debut := laterOf(lot.TempsDebut, cmd.TempsDebutTravail)
	lot.TempsDebutTravail = &debut
	lot.Statut = domain.StatusEnCours
	return h.assign(dbc, op, lot, cmd)
}

// assign puts the lot in the hands of a worker of its own production line
func (h *TransitionLotHandler) assign(dbc database.Context, op string, lot *domain.Lot, cmd TransitionLotCommand) error {
	worker, err := h.workers.ResolveWorker(dbc, cmd.OuvrierNom)
	if err != nil {
		return err
	}
	if worker.ChaineID != "" && lot.ChaineID != "" && worker.ChaineID != lot.ChaineID {
		return domain.NewNotFoundError(op, "worker %s not found on chaine %s", worker.FullName(), lot.ChaineID)
	}

	localisation := worker.Localisation
	if localisation == "" {
		localisation = strings.TrimSpace(cmd.Localisation)
	}
	lot.Localisation = localisation
	lot.OuvrierNom = worker.FullName()
	if err := h.lots.Save(dbc, lot); err != nil {
		return err
	}

	workerID := worker.OuvrierID
	return h.garments.SyncAssignment(dbc, lot.LotID, domain.Assignment{
		Statut:       lot.Statut,
		Localisation: lot.Localisation,
		OuvrierID:    &workerID,
		OuvrierNom:   lot.OuvrierNom,
	})
}

// finish freezes quantite_finale, clears the assignment and archives the lot
func (h *TransitionLotHandler) finish(dbc database.Context, op string, lot *domain.Lot, cmd TransitionLotCommand) error {
	start := lot.TempsDebut
	if lot.TempsDebutTravail != nil {
		start = *lot.TempsDebutTravail
	}
	if cmd.TempsFin != nil && cmd.TempsFin.Before(start) {
		return domain.NewValidationError(op, "temps_fin is before temps_debut_travail")
	}
	fin := laterOf(start, cmd.TempsFin)

	if _, err := h.garments.SettleQuality(dbc, lot.LotID); err != nil {
		return err
	}
	if err := h.counts.count(dbc, lot); err != nil {
		return err
	}

	machine, ouvrier := lot.Localisation, lot.OuvrierNom
	lot.Finalize()
	lot.ClearAssignment()
	lot.TempsFin = &fin
	lot.Statut = domain.StatusTermine
	if err := h.lots.Save(dbc, lot); err != nil {
		return err
	}
	if err := h.garments.SyncAssignment(dbc, lot.LotID, domain.Assignment{Statut: domain.StatusTermine}); err != nil {
		return err
	}
	return h.archive(dbc, lot, machine, ouvrier)
}

// archive writes the lot_history snapshot unless the lot already has one
func (h *TransitionLotHandler) archive(dbc database.Context, lot *domain.Lot, machine, ouvrier string) error {
	_, err := h.history.FindLot(dbc, lot.LotID)
	if err == nil {
		return nil
	}
	if !domain.IsCode(err, domain.CodeNotFound) {
		return err
	}
	return h.history.CreateLot(dbc, domain.NewLotHistory(lot, machine, ouvrier, time.Now().UTC()))
}

// laterOf returns the requested time, or now, but never earlier than floor
func laterOf(floor time.Time, requested *time.Time) time.Time {
	t := time.Now().UTC()
	if requested != nil {
		t = requested.UTC()
	}
	if t.Before(floor) {
		return floor
	}
	return t
}
