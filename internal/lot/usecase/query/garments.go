package query

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// GarmentsByLotHandler lists the live garments of a lot
type GarmentsByLotHandler struct {
	db       *gorm.DB
	garments domain.GarmentRepository
}

// NewGarmentsByLotHandler creates a new garments by lot handler
func NewGarmentsByLotHandler(db *gorm.DB, garments domain.GarmentRepository) *GarmentsByLotHandler {
	return &GarmentsByLotHandler{db: db, garments: garments}
}

// Handle returns the garments of lotID ordered by jean_id
func (h *GarmentsByLotHandler) Handle(ctx context.Context, lotID string) ([]domain.Garment, error) {
	lotID = strings.TrimSpace(lotID)
	if lotID == "" {
		return nil, domain.NewValidationError("garment.list_by_lot", "lot_id is required")
	}
	garments, err := h.garments.ListByLot(database.ReadOnly(ctx, h.db), lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list garments: %w", err)
	}
	return garments, nil
}

// CountGarmentsHandler counts the live garments of a lot
type CountGarmentsHandler struct {
	db       *gorm.DB
	garments domain.GarmentRepository
}

// NewCountGarmentsHandler creates a new count garments handler
func NewCountGarmentsHandler(db *gorm.DB, garments domain.GarmentRepository) *CountGarmentsHandler {
	return &CountGarmentsHandler{db: db, garments: garments}
}

// Handle executes the count garments query
func (h *CountGarmentsHandler) Handle(ctx context.Context, lotID string) (int64, error) {
	lotID = strings.TrimSpace(lotID)
	if lotID == "" {
		return 0, domain.NewValidationError("garment.count", "lot_id is required")
	}
	return h.garments.CountByLot(database.ReadOnly(ctx, h.db), lotID)
}

// GetGarmentHandler finds a live garment by its epc
type GetGarmentHandler struct {
	db       *gorm.DB
	garments domain.GarmentRepository
}

// NewGetGarmentHandler creates a new get garment handler
func NewGetGarmentHandler(db *gorm.DB, garments domain.GarmentRepository) *GetGarmentHandler {
	return &GetGarmentHandler{db: db, garments: garments}
}

// Handle executes the get garment query
func (h *GetGarmentHandler) Handle(ctx context.Context, epc string) (*domain.Garment, error) {
	const op = "garment.get"

	epc = domain.NormalizeEPC(epc)
	if epc == "" {
		return nil, domain.NewValidationError(op, "epc is required")
	}
	garment, err := h.garments.FindByEPC(database.ReadOnly(ctx, h.db), epc)
	if domain.IsCode(err, domain.CodeNotFound) {
		return nil, domain.NewNotFoundError(op, "no garment with epc %s", epc)
	}
	return garment, err
}
