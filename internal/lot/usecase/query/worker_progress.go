package query

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// WorkerProgressHandler computes the daily output of active workers
type WorkerProgressHandler struct {
	db            *gorm.DB
	reports       domain.ReportRepository
	defaultTarget int
}

// NewWorkerProgressHandler creates a new worker progress handler.
// defaultTarget is the number of lots a full day is measured against.
func NewWorkerProgressHandler(db *gorm.DB, reports domain.ReportRepository, defaultTarget int) *WorkerProgressHandler {
	if defaultTarget <= 0 {
		defaultTarget = domain.DefaultDailyTargetLots
	}
	return &WorkerProgressHandler{db: db, reports: reports, defaultTarget: defaultTarget}
}

// Handle executes the worker progress query. A zero Day means today in UTC.
func (h *WorkerProgressHandler) Handle(ctx context.Context, filter domain.WorkerProgressFilter) ([]domain.WorkerProgress, error) {
	if filter.Day.IsZero() {
		filter.Day = time.Now().UTC()
	}
	if filter.DailyTargetLots <= 0 {
		filter.DailyTargetLots = h.defaultTarget
	}
	dbc := database.ReadOnly(ctx, h.db)

	workers, err := h.reports.ListActiveWorkers(dbc, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	finished, err := h.reports.ListFinishedHistory(dbc, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished lots: %w", err)
	}
	active, err := h.reports.ListActiveLotsStarted(dbc, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active lots: %w", err)
	}

	perLot := 100 / float64(filter.DailyTargetLots)
	progress := make([]domain.WorkerProgress, 0, len(workers))
	for _, w := range workers {
		name := domain.NormalizeName(w.FullName())
		p := domain.WorkerProgress{
			OuvrierID:    w.OuvrierID,
			Nom:          w.Nom,
			Prenom:       w.Prenom,
			Localisation: w.Localisation,
			ChaineID:     w.ChaineID,
		}

		seen := make(map[string]bool)
		for _, row := range finished {
			if domain.NormalizeName(row.OuvrierNom) != name {
				continue
			}
			if !seen[row.LotID] {
				seen[row.LotID] = true
				p.LotsTermines++
			}
			finale := 0
			if row.QuantiteFinale != nil {
				finale = *row.QuantiteFinale
			}
			p.JeansTermines += finale
			p.JeansDefectueux += row.JeansDefectueux
			p.QuantiteATraiter += row.QuantiteInitiale
			if row.QuantiteInitiale > 0 {
				p.PourcentageAvancement += perLot * float64(finale) / float64(row.QuantiteInitiale)
			}
		}

		for _, l := range active {
			if l.ChaineID == w.ChaineID && domain.NormalizeName(l.OuvrierNom) == name {
				p.QuantiteATraiter += l.QuantiteInitiale
			}
		}
		progress = append(progress, p)
	}
	return progress, nil
}
