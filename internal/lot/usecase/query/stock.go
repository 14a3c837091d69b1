package query

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// StockEntry is one stored lot as the portal readers see it
type StockEntry struct {
	LotID          string        `json:"lot_id"`
	EPC            string        `json:"epc"`
	QuantiteFinale *int          `json:"quantite_finale"`
	DetectedCount  *int          `json:"detected_count"`
	Statut         domain.Status `json:"statut"`
}

// ListStockHandler lists the lots currently in storage
type ListStockHandler struct {
	db      *gorm.DB
	history domain.HistoryRepository
}

// NewListStockHandler creates a new list stock handler
func NewListStockHandler(db *gorm.DB, history domain.HistoryRepository) *ListStockHandler {
	return &ListStockHandler{db: db, history: history}
}

// Handle executes the list stock query. An empty chaineID lists every line.
func (h *ListStockHandler) Handle(ctx context.Context, chaineID string) ([]StockEntry, error) {
	rows, err := h.history.ListStored(database.ReadOnly(ctx, h.db), chaineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}

	stock := make([]StockEntry, 0, len(rows))
	for _, row := range rows {
		stock = append(stock, StockEntry{
			LotID:          row.LotID,
			EPC:            row.EPC,
			QuantiteFinale: row.QuantiteFinale,
			DetectedCount:  row.DetectedCount,
			Statut:         row.Statut,
		})
	}
	return stock, nil
}
