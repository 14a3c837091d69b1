package domain

import (
	"time"

	"github.com/tair/rfid-textile/pkg/database"
)

// LotHistory is the archived snapshot of a finished lot. A lot has at most one row.
type LotHistory struct {
	HistoryID         uint       `json:"history_id" gorm:"primaryKey;autoIncrement"`
	LotID             string     `json:"lot_id" gorm:"size:32;not null;uniqueIndex"`
	EPC               string     `json:"epc" gorm:"size:128"`
	Taille            string     `json:"taille" gorm:"size:32"`
	Couleur           string     `json:"couleur" gorm:"size:64"`
	QuantiteInitiale  int        `json:"quantite_initiale"`
	JeansDefectueux   int        `json:"jeans_defectueux"`
	QuantiteFinale    *int       `json:"quantite_finale"`
	TempsDebut        time.Time  `json:"temps_debut"`
	TempsDebutTravail *time.Time `json:"temps_debut_travail"`
	TempsFin          *time.Time `json:"temps_fin"`
	Statut            Status     `json:"statut" gorm:"size:20;not null;index"`
	ChaineID          string     `json:"chaine_id" gorm:"size:64;index"`
	Machine           string     `json:"machine" gorm:"size:128"`
	OuvrierNom        string     `json:"ouvrier_nom" gorm:"size:128;index"`
	OperateurNom      string     `json:"operateur_nom" gorm:"size:128"`
	DateStockage      *time.Time `json:"date_stockage"`
	DetectedCount     *int       `json:"detected_count"`
	RecordedAt        time.Time  `json:"recorded_at" gorm:"index"`
}

// TableName specifies the table name
func (LotHistory) TableName() string {
	return "lot_history"
}

// NewLotHistory snapshots lot as it stands. machine and ouvrierNom are passed
// explicitly because finishing a lot clears them before the snapshot is written.
func NewLotHistory(lot *Lot, machine, ouvrierNom string, now time.Time) *LotHistory {
	h := &LotHistory{
		LotID:        lot.LotID,
		Machine:      machine,
		OuvrierNom:   ouvrierNom,
		OperateurNom: lot.OperateurNom,
		RecordedAt:   now,
	}
	h.Refresh(lot)
	return h
}

// Refresh copies the descriptive fields and counters of lot onto the snapshot
func (h *LotHistory) Refresh(lot *Lot) {
	h.EPC = lot.EPC
	h.Taille = lot.Taille
	h.Couleur = lot.Couleur
	h.QuantiteInitiale = lot.QuantiteInitiale
	h.JeansDefectueux = lot.JeansDefectueux
	h.QuantiteFinale = lot.QuantiteFinale
	h.TempsDebut = lot.TempsDebut
	h.TempsDebutTravail = lot.TempsDebutTravail
	h.TempsFin = lot.TempsFin
	h.Statut = lot.Statut
	h.ChaineID = lot.ChaineID
}

// GarmentHistory is the archived snapshot of a stored garment
type GarmentHistory struct {
	HistoryID     uint      `json:"history_id" gorm:"primaryKey;autoIncrement"`
	JeanID        uint      `json:"jean_id" gorm:"not null;uniqueIndex:idx_jeans_history_jean_lot"`
	EPC           string    `json:"epc" gorm:"size:128;index"`
	LotID         string    `json:"lot_id" gorm:"size:32;not null;uniqueIndex:idx_jeans_history_jean_lot"`
	StatutQualite Quality   `json:"statut_qualite" gorm:"size:20"`
	Localisation  string    `json:"localisation" gorm:"size:128"`
	OuvrierID     *uint     `json:"ouvrier_id"`
	OuvrierNom    string    `json:"ouvrier_nom" gorm:"size:128"`
	ChaineID      string    `json:"chaine_id" gorm:"size:64"`
	DateStockage  time.Time `json:"date_stockage"`
}

// TableName specifies the table name
func (GarmentHistory) TableName() string {
	return "jeans_history"
}

// NewGarmentHistory snapshots g for storage. Anything not flagged defective is stored as ok.
func NewGarmentHistory(g *Garment, storedAt time.Time) *GarmentHistory {
	quality := QualityOK
	if g.StatutQualite == QualityDefectueux {
		quality = QualityDefectueux
	}
	return &GarmentHistory{
		JeanID:        g.JeanID,
		EPC:           g.EPC,
		LotID:         g.LotID,
		StatutQualite: quality,
		Localisation:  g.Localisation,
		OuvrierID:     g.OuvrierID,
		OuvrierNom:    g.OuvrierNom,
		ChaineID:      g.ChaineID,
		DateStockage:  storedAt,
	}
}

// HistoryRepository defines the contract for the archive tables
type HistoryRepository interface {
	FindLot(dbc database.Context, lotID string) (*LotHistory, error)
	FindStoredLot(dbc database.Context, lotID string) (*LotHistory, error)
	CreateLot(dbc database.Context, h *LotHistory) error
	SaveLot(dbc database.Context, h *LotHistory) error
	SetDetectedCount(dbc database.Context, lotID string, count int) (int64, error)
	ListStored(dbc database.Context, chaineID string) ([]LotHistory, error)
	ListLots(dbc database.Context, chaineID string) ([]LotHistory, error)
	GarmentSnapshotExists(dbc database.Context, jeanID uint, lotID string) (bool, error)
	CreateGarment(dbc database.Context, h *GarmentHistory) error
	ListGarments(dbc database.Context, lotID string) ([]GarmentHistory, error)
}
