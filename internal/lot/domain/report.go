package domain

import (
	"time"

	"github.com/tair/rfid-textile/pkg/database"
)

// DefaultDailyTargetLots is the number of finished lots that makes a full day
const DefaultDailyTargetLots = 10

// WorkerProgressFilter narrows the worker progress report. Empty fields do not filter.
type WorkerProgressFilter struct {
	ChaineID        string
	OuvrierNom      string
	Day             time.Time
	DailyTargetLots int
}

// DayBounds returns the UTC [start, end) range of the filtered day
func (f WorkerProgressFilter) DayBounds() (time.Time, time.Time) {
	d := f.Day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// WorkerProgress is one worker's output for a day
type WorkerProgress struct {
	OuvrierID             uint    `json:"ouvrier_id"`
	Nom                   string  `json:"nom"`
	Prenom                string  `json:"prenom"`
	Localisation          string  `json:"localisation"`
	ChaineID              string  `json:"chaine_id"`
	LotsTermines          int     `json:"lots_termines"`
	JeansTermines         int     `json:"jeans_termines"`
	JeansDefectueux       int     `json:"jeans_defectueux"`
	QuantiteATraiter      int     `json:"quantite_a_traiter"`
	PourcentageAvancement float64 `json:"pourcentage_avancement"`
}

// DiscrepancyKind tells whether tags went missing or appeared
type DiscrepancyKind string

const (
	DiscrepancyMissing DiscrepancyKind = "missing"
	DiscrepancyExtra   DiscrepancyKind = "extra"
	DiscrepancyMatch   DiscrepancyKind = "match"
)

// Discrepancy compares a stored lot's final quantity with its detected tag count
type Discrepancy struct {
	LotID          string          `json:"lot_id"`
	EPC            string          `json:"epc"`
	ChaineID       string          `json:"chaine_id"`
	QuantiteFinale int             `json:"quantite_finale"`
	DetectedCount  int             `json:"detected_count"`
	Delta          int             `json:"delta"`
	Kind           DiscrepancyKind `json:"kind"`
	DateStockage   *time.Time      `json:"date_stockage,omitempty"`
}

// NewDiscrepancy computes quantite_finale - detected_count for a stored lot.
// A missing final quantity counts as zero.
func NewDiscrepancy(h *LotHistory, detected int) Discrepancy {
	finale := 0
	if h.QuantiteFinale != nil {
		finale = *h.QuantiteFinale
	}
	d := Discrepancy{
		LotID:          h.LotID,
		EPC:            h.EPC,
		ChaineID:       h.ChaineID,
		QuantiteFinale: finale,
		DetectedCount:  detected,
		Delta:          finale - detected,
		DateStockage:   h.DateStockage,
	}
	switch {
	case d.Delta > 0:
		d.Kind = DiscrepancyMissing
	case d.Delta < 0:
		d.Kind = DiscrepancyExtra
	default:
		d.Kind = DiscrepancyMatch
	}
	return d
}

// DiscrepancyFilter narrows the reconciliation report
type DiscrepancyFilter struct {
	ChaineID       string
	OnlyMismatched bool
}

// ReportRepository serves the read-only reporting queries
type ReportRepository interface {
	ListActiveWorkers(dbc database.Context, filter WorkerProgressFilter) ([]Worker, error)
	ListFinishedHistory(dbc database.Context, filter WorkerProgressFilter) ([]LotHistory, error)
	ListActiveLotsStarted(dbc database.Context, filter WorkerProgressFilter) ([]Lot, error)
	ListDetectedHistory(dbc database.Context, filter DiscrepancyFilter) ([]LotHistory, error)
}
