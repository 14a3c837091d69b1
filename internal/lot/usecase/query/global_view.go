package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// Sources of a global view row
const (
	SourceHistory = "lot_history"
	SourceLive    = "lots"
)

const unspecifiedDefect = "Non spécifiée"

// DefectiveGarment is a garment flagged defective and the reason the inspector gave
type DefectiveGarment struct {
	EPC          string `json:"epc"`
	RaisonDefaut string `json:"raison_defaut"`
}

// GlobalViewEntry is one lot as the management dashboard lists it.
// Archived lots come from lot_history, lots never archived from the live table.
type GlobalViewEntry struct {
	LotID             string             `json:"lot_id"`
	EPC               string             `json:"epc"`
	Taille            string             `json:"taille"`
	Couleur           string             `json:"couleur"`
	QuantiteInitiale  int                `json:"quantite_initiale"`
	JeansDefectueux   int                `json:"jeans_defectueux"`
	QuantiteFinale    *int               `json:"quantite_finale"`
	TempsDebut        time.Time          `json:"temps_debut"`
	TempsDebutTravail *time.Time         `json:"temps_debut_travail"`
	TempsFin          *time.Time         `json:"temps_fin"`
	Statut            domain.Status      `json:"statut"`
	ChaineID          string             `json:"chaine_id"`
	Localisation      string             `json:"localisation"`
	OuvrierNom        string             `json:"ouvrier_nom"`
	OperateurNom      string             `json:"operateur_nom"`
	DateStockage      *time.Time         `json:"date_stockage"`
	DetectedCount     *int               `json:"detected_count"`
	RecordedAt        *time.Time         `json:"recorded_at"`
	Source            string             `json:"source"`
	Jeans             []DefectiveGarment `json:"jeans"`
}

// GlobalViewHandler lists archived and live lots together with their defective garments
type GlobalViewHandler struct {
	db       *gorm.DB
	lots     domain.LotRepository
	garments domain.GarmentRepository
	controls domain.QualityControlRepository
	history  domain.HistoryRepository
}

// NewGlobalViewHandler creates a new global view handler
func NewGlobalViewHandler(
	db *gorm.DB,
	lots domain.LotRepository,
	garments domain.GarmentRepository,
	controls domain.QualityControlRepository,
	history domain.HistoryRepository,
) *GlobalViewHandler {
	return &GlobalViewHandler{db: db, lots: lots, garments: garments, controls: controls, history: history}
}

// Handle executes the global view query. An empty chaineID covers every line.
func (h *GlobalViewHandler) Handle(ctx context.Context, chaineID string) ([]GlobalViewEntry, error) {
	dbc := database.ReadOnly(ctx, h.db)
	chaineID = strings.TrimSpace(chaineID)

	archived, err := h.history.ListLots(dbc, chaineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lot history: %w", err)
	}

	view := make([]GlobalViewEntry, 0, len(archived))
	seen := make(map[string]struct{}, len(archived))
	for i := range archived {
		row := &archived[i]
		seen[row.LotID] = struct{}{}

		snapshots, err := h.history.ListGarments(dbc, row.LotID)
		if err != nil {
			return nil, fmt.Errorf("failed to list garment history of %s: %w", row.LotID, err)
		}
		candidates := make(map[uint]garmentState, len(snapshots))
		for _, s := range snapshots {
			candidates[s.JeanID] = garmentState{epc: s.EPC, quality: s.StatutQualite}
		}
		// A termine lot still has live rows, which are newer than its snapshots.
		if err := h.addLiveGarments(dbc, row.LotID, candidates); err != nil {
			return nil, err
		}

		jeans, err := h.defects(dbc, candidates)
		if err != nil {
			return nil, err
		}
		recordedAt := row.RecordedAt
		view = append(view, GlobalViewEntry{
			LotID:             row.LotID,
			EPC:               row.EPC,
			Taille:            row.Taille,
			Couleur:           row.Couleur,
			QuantiteInitiale:  row.QuantiteInitiale,
			JeansDefectueux:   row.JeansDefectueux,
			QuantiteFinale:    row.QuantiteFinale,
			TempsDebut:        row.TempsDebut,
			TempsDebutTravail: row.TempsDebutTravail,
			TempsFin:          row.TempsFin,
			Statut:            row.Statut,
			ChaineID:          row.ChaineID,
			Localisation:      row.Machine,
			OuvrierNom:        row.OuvrierNom,
			OperateurNom:      row.OperateurNom,
			DateStockage:      row.DateStockage,
			DetectedCount:     row.DetectedCount,
			RecordedAt:        &recordedAt,
			Source:            SourceHistory,
			Jeans:             jeans,
		})
	}

	live, err := h.lots.List(dbc, domain.LotFilter{ChaineID: chaineID})
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	for i := range live {
		lot := &live[i]
		if _, archivedAlready := seen[lot.LotID]; archivedAlready {
			continue
		}

		candidates := make(map[uint]garmentState)
		if err := h.addLiveGarments(dbc, lot.LotID, candidates); err != nil {
			return nil, err
		}
		jeans, err := h.defects(dbc, candidates)
		if err != nil {
			return nil, err
		}
		view = append(view, GlobalViewEntry{
			LotID:             lot.LotID,
			EPC:               lot.EPC,
			Taille:            lot.Taille,
			Couleur:           lot.Couleur,
			QuantiteInitiale:  lot.QuantiteInitiale,
			JeansDefectueux:   lot.JeansDefectueux,
			QuantiteFinale:    lot.QuantiteFinale,
			TempsDebut:        lot.TempsDebut,
			TempsDebutTravail: lot.TempsDebutTravail,
			TempsFin:          lot.TempsFin,
			Statut:            lot.Statut,
			ChaineID:          lot.ChaineID,
			Localisation:      lot.Localisation,
			OuvrierNom:        lot.OuvrierNom,
			OperateurNom:      lot.OperateurNom,
			Source:            SourceLive,
			Jeans:             jeans,
		})
	}

	return view, nil
}

type garmentState struct {
	epc     string
	quality domain.Quality
}

func (h *GlobalViewHandler) addLiveGarments(dbc database.Context, lotID string, into map[uint]garmentState) error {
	garments, err := h.garments.ListByLot(dbc, lotID)
	if err != nil {
		return fmt.Errorf("failed to list garments of %s: %w", lotID, err)
	}
	for _, g := range garments {
		into[g.JeanID] = garmentState{epc: g.EPC, quality: g.StatutQualite}
	}
	return nil
}

// defects keeps the garments flagged defective or carrying a defect record.
// The reason is the latest recorded one.
func (h *GlobalViewHandler) defects(dbc database.Context, candidates map[uint]garmentState) ([]DefectiveGarment, error) {
	ids := make([]uint, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	jeans := make([]DefectiveGarment, 0)
	for _, id := range ids {
		g := candidates[id]
		records, err := h.controls.ListByGarment(dbc, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list quality controls of garment %d: %w", id, err)
		}

		reason := ""
		flagged := g.quality == domain.QualityDefectueux
		for _, qc := range records {
			if qc.Resultat != domain.QualityDefectueux {
				continue
			}
			flagged = true
			if r := strings.TrimSpace(qc.RaisonDefaut); r != "" {
				reason = r
			}
		}
		if !flagged {
			continue
		}
		if reason == "" {
			reason = unspecifiedDefect
		}
		jeans = append(jeans, DefectiveGarment{EPC: g.epc, RaisonDefaut: reason})
	}
	return jeans, nil
}
