package query

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// ListDiscrepanciesHandler reconciles stored lots against their detected tag counts
type ListDiscrepanciesHandler struct {
	db      *gorm.DB
	reports domain.ReportRepository
}

// NewListDiscrepanciesHandler creates a new discrepancies handler
func NewListDiscrepanciesHandler(db *gorm.DB, reports domain.ReportRepository) *ListDiscrepanciesHandler {
	return &ListDiscrepanciesHandler{db: db, reports: reports}
}

// Handle returns one entry per stored lot with a detected count, ordered by lot id
func (h *ListDiscrepanciesHandler) Handle(ctx context.Context, filter domain.DiscrepancyFilter) ([]domain.Discrepancy, error) {
	rows, err := h.reports.ListDetectedHistory(database.ReadOnly(ctx, h.db), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list discrepancies: %w", err)
	}

	out := make([]domain.Discrepancy, 0, len(rows))
	for i := range rows {
		if rows[i].DetectedCount == nil {
			continue
		}
		d := domain.NewDiscrepancy(&rows[i], *rows[i].DetectedCount)
		if filter.OnlyMismatched && d.Kind == domain.DiscrepancyMatch {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
