package repository

import (
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// nameExpr is the normalized "nom prenom" of a worker row
const nameExpr = "LOWER(TRIM(nom || ' ' || COALESCE(prenom, '')))"

// GormReportRepository serves reporting queries
type GormReportRepository struct{}

// NewGormReportRepository creates a new report repository
func NewGormReportRepository() *GormReportRepository {
	return &GormReportRepository{}
}

func (r *GormReportRepository) ListActiveWorkers(dbc database.Context, filter domain.WorkerProgressFilter) ([]domain.Worker, error) {
	q := dbc.DB().Where("is_active = ?", true)
	if filter.ChaineID != "" {
		q = q.Where("chaine_id = ?", filter.ChaineID)
	}
	if filter.OuvrierNom != "" {
		q = q.Where(nameExpr+" = ?", domain.NormalizeName(filter.OuvrierNom))
	}

	var workers []domain.Worker
	if err := q.Order("ouvrier_id").Find(&workers).Error; err != nil {
		return nil, MapError("report.list_active_workers", err)
	}
	return workers, nil
}

// ListFinishedHistory returns lots finished or stored on the filtered day
func (r *GormReportRepository) ListFinishedHistory(dbc database.Context, filter domain.WorkerProgressFilter) ([]domain.LotHistory, error) {
	from, to := filter.DayBounds()
	q := dbc.DB().
		Where("statut IN ?", []domain.Status{domain.StatusTermine, domain.StatusStocke}).
		Where("recorded_at >= ? AND recorded_at < ?", from, to)
	if filter.ChaineID != "" {
		q = q.Where("chaine_id = ?", filter.ChaineID)
	}
	if filter.OuvrierNom != "" {
		q = q.Where("LOWER(TRIM(ouvrier_nom)) = ?", domain.NormalizeName(filter.OuvrierNom))
	}

	var rows []domain.LotHistory
	if err := q.Order("lot_id").Find(&rows).Error; err != nil {
		return nil, MapError("report.list_finished_history", err)
	}
	return rows, nil
}

// ListActiveLotsStarted returns assigned lots still in progress that started on the filtered day
func (r *GormReportRepository) ListActiveLotsStarted(dbc database.Context, filter domain.WorkerProgressFilter) ([]domain.Lot, error) {
	from, to := filter.DayBounds()
	q := dbc.DB().
		Where("statut IN ?", []domain.Status{domain.StatusEnAttente, domain.StatusEnCours}).
		Where("temps_debut >= ? AND temps_debut < ?", from, to).
		Where("ouvrier_nom <> ''")
	if filter.ChaineID != "" {
		q = q.Where("chaine_id = ?", filter.ChaineID)
	}

	var lots []domain.Lot
	if err := q.Order("lot_id").Find(&lots).Error; err != nil {
		return nil, MapError("report.list_active_lots_started", err)
	}
	return lots, nil
}

// ListDetectedHistory returns stored lots that already have a detected count
func (r *GormReportRepository) ListDetectedHistory(dbc database.Context, filter domain.DiscrepancyFilter) ([]domain.LotHistory, error) {
	q := dbc.DB().
		Where("statut = ?", domain.StatusStocke).
		Where("detected_count IS NOT NULL")
	if filter.ChaineID != "" {
		q = q.Where("chaine_id = ?", filter.ChaineID)
	}

	var rows []domain.LotHistory
	if err := q.Order("lot_id").Find(&rows).Error; err != nil {
		return nil, MapError("report.list_detected_history", err)
	}
	return rows, nil
}
