package command

import (
	"context"
	"strings"
	"time"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
)

// RecordDefectCommand represents a quality-control finding on one garment.
// Resultat may be left empty; the only recordable outcome is defectueux.
type RecordDefectCommand struct {
	JeanID        uint
	LotID         string
	DateControle  time.Time
	Resultat      string
	RaisonDefaut  string
	ResponsableID uint
}

// RecordDefectHandler handles quality control command
type RecordDefectHandler struct {
	tx           database.TxRunner
	lots         domain.LotRepository
	garments     domain.GarmentRepository
	controls     domain.QualityControlRepository
	responsibles domain.ResponsibleDirectory
	counts       reconciler
}

// NewRecordDefectHandler creates a new quality control handler
func NewRecordDefectHandler(
	tx database.TxRunner,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	controls domain.QualityControlRepository,
	history domain.HistoryRepository,
	responsibles domain.ResponsibleDirectory,
) *RecordDefectHandler {
	return &RecordDefectHandler{
		tx:           tx,
		lots:         lots,
		garments:     garments,
		controls:     controls,
		responsibles: responsibles,
		counts:       reconciler{lots: lots, garments: garments, history: history},
	}
}

func (cmd RecordDefectCommand) validate(op string) error {
	var missing []string
	if cmd.JeanID == 0 {
		missing = append(missing, "jean_id")
	}
	if strings.TrimSpace(cmd.LotID) == "" {
		missing = append(missing, "lot_id")
	}
	if cmd.DateControle.IsZero() {
		missing = append(missing, "date_controle")
	}
	if strings.TrimSpace(cmd.RaisonDefaut) == "" {
		missing = append(missing, "raison_defaut")
	}
	if cmd.ResponsableID == 0 {
		missing = append(missing, "responsable_id")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(op, "missing required fields: %s", strings.Join(missing, ", "))
	}

	if strings.TrimSpace(cmd.Resultat) != "" {
		if q, ok := domain.ParseQuality(cmd.Resultat); !ok || q != domain.QualityDefectueux {
			return domain.NewValidationError(op, "resultat must be %q", domain.QualityDefectueux)
		}
	}
	return nil
}

// Handle records the defect, flags the garment and recounts its lot.
// Flagging an already defective garment again leaves the counters unchanged.
func (h *RecordDefectHandler) Handle(ctx context.Context, cmd RecordDefectCommand) (*GarmentResult, error) {
	const op = "garment.quality_control"

	if err := cmd.validate(op); err != nil {
		return nil, err
	}
	lotID := strings.TrimSpace(cmd.LotID)

	var result GarmentResult
	err := h.tx.InTx(ctx, func(dbc database.Context) error {
		garment, err := h.garments.FindByID(dbc, cmd.JeanID)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "garment %d not found", cmd.JeanID)
			}
			return err
		}
		if garment.LotID != lotID {
			return domain.NewValidationError(op, "lot_id %s does not match garment %d", lotID, cmd.JeanID)
		}

		lot, err := h.lots.LockByID(dbc, lotID)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewNotFoundError(op, "lot %s not found", lotID)
			}
			return err
		}
		if lot.Statut != domain.StatusEnCours && lot.Statut != domain.StatusTermine {
			return domain.NewValidationError(op, "quality control needs a lot en_cours or termine, lot %s is %s", lotID, lot.Statut)
		}

		ok, err := h.responsibles.ResponsibleExists(dbc, cmd.ResponsableID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewNotFoundError(op, "responsible %d not found", cmd.ResponsableID)
		}

		record := &domain.QualityControl{
			JeanID:        garment.JeanID,
			LotID:         lotID,
			DateControle:  cmd.DateControle.UTC(),
			Resultat:      domain.QualityDefectueux,
			RaisonDefaut:  strings.TrimSpace(cmd.RaisonDefaut),
			ResponsableID: cmd.ResponsableID,
		}
		if err := h.controls.Create(dbc, record); err != nil {
			return err
		}
		if err := h.garments.UpdateQuality(dbc, garment.JeanID, domain.QualityDefectueux); err != nil {
			return err
		}

		if lot.Statut == domain.StatusTermine {
			err = h.counts.resettle(dbc, lot)
		} else {
			err = h.counts.recount(dbc, lot)
		}
		if err != nil {
			return err
		}

		garment, err = h.garments.FindByID(dbc, garment.JeanID)
		if err != nil {
			return err
		}
		result = GarmentResult{Garment: garment, Lot: lot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Uint("jean_id", cmd.JeanID).
		Str("lot_id", lotID).
		Int("jeans_defectueux", result.Lot.JeansDefectueux).
		Msg("Garment flagged defective")
	return &result, nil
}
