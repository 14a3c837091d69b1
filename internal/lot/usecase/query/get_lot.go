package query

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// GetLotQuery selects a live lot by id or by epc. The epc wins when both are set.
type GetLotQuery struct {
	LotID string
	EPC   string
}

// GetLotHandler handles get lot query
type GetLotHandler struct {
	db   *gorm.DB
	lots domain.LotRepository
}

// NewGetLotHandler creates a new get lot handler
func NewGetLotHandler(db *gorm.DB, lots domain.LotRepository) *GetLotHandler {
	return &GetLotHandler{db: db, lots: lots}
}

// Handle executes the get lot query
func (h *GetLotHandler) Handle(ctx context.Context, q GetLotQuery) (*domain.Lot, error) {
	const op = "lot.get"
	dbc := database.ReadOnly(ctx, h.db)

	if epc := domain.NormalizeEPC(q.EPC); epc != "" {
		lot, err := h.lots.FindByEPC(dbc, epc)
		if domain.IsCode(err, domain.CodeNotFound) {
			return nil, domain.NewNotFoundError(op, "no lot with epc %s", epc)
		}
		return lot, err
	}

	lotID := strings.TrimSpace(q.LotID)
	if lotID == "" {
		return nil, domain.NewValidationError(op, "lot_id or epc is required")
	}
	lot, err := h.lots.FindByID(dbc, lotID)
	if domain.IsCode(err, domain.CodeNotFound) {
		return nil, domain.NewNotFoundError(op, "lot %s not found", lotID)
	}
	return lot, err
}
