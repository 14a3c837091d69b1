package command

import (
	"context"
	"strings"
	"time"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// CreateLotCommand represents the command to register a new lot from an operator scan
type CreateLotCommand struct {
	EPC          string
	Taille       string
	Couleur      string
	ChaineID     string
	TempsDebut   time.Time
	OperateurNom string
}

// CreateLotHandler handles create lot command
type CreateLotHandler struct {
	tx   database.TxRunner
	lots domain.LotRepository
}

// NewCreateLotHandler creates a new create lot handler
func NewCreateLotHandler(tx database.TxRunner, lots domain.LotRepository) *CreateLotHandler {
	return &CreateLotHandler{tx: tx, lots: lots}
}

// Handle executes the create lot command
func (h *CreateLotHandler) Handle(ctx context.Context, cmd CreateLotCommand) (*domain.Lot, error) {
	const op = "lot.create"

	epc := domain.NormalizeEPC(cmd.EPC)
	var missing []string
	if epc == "" {
		missing = append(missing, "epc")
	}
	if strings.TrimSpace(cmd.Taille) == "" {
		missing = append(missing, "taille")
	}
	if strings.TrimSpace(cmd.Couleur) == "" {
		missing = append(missing, "couleur")
	}
	if strings.TrimSpace(cmd.ChaineID) == "" {
		missing = append(missing, "chaine_id")
	}
	if cmd.TempsDebut.IsZero() {
		missing = append(missing, "temps_debut")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(op, "missing required fields: %s", strings.Join(missing, ", "))
	}

	var lot *domain.Lot
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		exists, err := h.lots.ExistsByEPC(dbc, epc)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflictError(op, "a lot with epc %s already exists", epc)
		}

		lotID, err := h.lots.NextLotID(dbc)
		if err != nil {
			return err
		}

		lot = &domain.Lot{
			LotID:        lotID,
			EPC:          epc,
			Taille:       strings.TrimSpace(cmd.Taille),
			Couleur:      strings.TrimSpace(cmd.Couleur),
			Statut:       domain.StatusEnAttente,
			TempsDebut:   cmd.TempsDebut.UTC(),
			ChaineID:     strings.TrimSpace(cmd.ChaineID),
			OperateurNom: strings.TrimSpace(cmd.OperateurNom),
		}
		return h.lots.Create(dbc, lot)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("lot_id", lot.LotID).
		Str("epc", lot.EPC).
		Str("chaine_id", lot.ChaineID).
		Msg("Lot created")
	return lot, nil
}
