package query

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

const maxListLimit = 500

// ListLotsQuery represents the query to list the live lots of a line
type ListLotsQuery struct {
	ChaineID   string
	Statut     string
	Unassigned bool
	Limit      int
	Offset     int
}

// ListLotsHandler handles list lots query
type ListLotsHandler struct {
	db   *gorm.DB
	lots domain.LotRepository
}

// NewListLotsHandler creates a new list lots handler
func NewListLotsHandler(db *gorm.DB, lots domain.LotRepository) *ListLotsHandler {
	return &ListLotsHandler{db: db, lots: lots}
}

// Handle executes the list lots query. A zero limit returns every match.
func (h *ListLotsHandler) Handle(ctx context.Context, q ListLotsQuery) ([]domain.Lot, error) {
	filter := domain.LotFilter{
		ChaineID:   strings.TrimSpace(q.ChaineID),
		Unassigned: q.Unassigned,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if raw := strings.TrimSpace(q.Statut); raw != "" {
		s, ok := domain.ParseStatus(raw)
		if !ok {
			return nil, domain.NewValidationError("lot.list", "unknown statut %q", raw)
		}
		filter.Statuses = []domain.Status{s}
	}

	lots, err := h.lots.List(database.ReadOnly(ctx, h.db), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return lots, nil
}

// ListUnassignedLotsHandler lists the en_attente lots nobody works on yet
type ListUnassignedLotsHandler struct {
	list *ListLotsHandler
}

// NewListUnassignedLotsHandler creates a new unassigned lots handler
func NewListUnassignedLotsHandler(list *ListLotsHandler) *ListUnassignedLotsHandler {
	return &ListUnassignedLotsHandler{list: list}
}

// Handle executes the unassigned lots query
func (h *ListUnassignedLotsHandler) Handle(ctx context.Context, chaineID string) ([]domain.Lot, error) {
	return h.list.Handle(ctx, ListLotsQuery{
		ChaineID:   chaineID,
		Statut:     string(domain.StatusEnAttente),
		Unassigned: true,
	})
}
