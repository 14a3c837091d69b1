package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/tair/rfid-textile/pkg/database"
)

// Lot represents a batch of garments moving through a production line
type Lot struct {
	LotID             string     `json:"lot_id" gorm:"primaryKey;size:32"`
	EPC               string     `json:"epc" gorm:"size:128;not null;uniqueIndex"`
	Taille            string     `json:"taille" gorm:"size:32"`
	Couleur           string     `json:"couleur" gorm:"size:64"`
	QuantiteInitiale  int        `json:"quantite_initiale" gorm:"not null;default:0"`
	JeansDefectueux   int        `json:"jeans_defectueux" gorm:"not null;default:0"`
	QuantiteFinale    *int       `json:"quantite_finale"`
	Statut            Status     `json:"statut" gorm:"size:20;not null;default:'en_attente';index"`
	TempsDebut        time.Time  `json:"temps_debut"`
	TempsDebutTravail *time.Time `json:"temps_debut_travail"`
	TempsFin          *time.Time `json:"temps_fin"`
	ChaineID          string     `json:"chaine_id" gorm:"size:64;not null;index"`
	Localisation      string     `json:"localisation" gorm:"size:128"`
	OuvrierNom        string     `json:"ouvrier_nom" gorm:"size:128"`
	OperateurNom      string     `json:"operateur_nom" gorm:"size:128"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Lot) TableName() string {
	return "lots"
}

// Assigned reports whether a worker is attached to the lot
func (l *Lot) Assigned() bool {
	return strings.TrimSpace(l.OuvrierNom) != ""
}

// Finalize freezes quantite_finale from the current counters
func (l *Lot) Finalize() {
	finale := l.QuantiteInitiale - l.JeansDefectueux
	l.QuantiteFinale = &finale
}

// ClearAssignment drops the worker and location of a finished lot
func (l *Lot) ClearAssignment() {
	l.Localisation = ""
	l.OuvrierNom = ""
}

// LotSequence is the single-row counter lot ids are drawn from
type LotSequence struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value int    `gorm:"not null;default:0"`
}

// TableName specifies the table name
func (LotSequence) TableName() string {
	return "lot_sequences"
}

// LotSequenceName is the sequence row used for lot ids
const LotSequenceName = "lot"

// FormatLotID renders the n-th lot id, LOT001 onwards
func FormatLotID(n int) string {
	return fmt.Sprintf("LOT%03d", n)
}

// NormalizeEPC trims and upper-cases a scanned tag value
func NormalizeEPC(epc string) string {
	return strings.ToUpper(strings.TrimSpace(epc))
}

// LotFilter selects lots for listing
type LotFilter struct {
	ChaineID   string
	Statuses   []Status
	Unassigned bool
	Limit      int
	Offset     int
}

// LotRepository defines the contract for lot data access.
// Every call runs on the transaction carried by dbc.
type LotRepository interface {
	NextLotID(dbc database.Context) (string, error)
	Create(dbc database.Context, lot *Lot) error
	FindByID(dbc database.Context, lotID string) (*Lot, error)
	FindByEPC(dbc database.Context, epc string) (*Lot, error)
	LockByID(dbc database.Context, lotID string) (*Lot, error)
	LockByEPC(dbc database.Context, epc string) (*Lot, error)
	ExistsByEPC(dbc database.Context, epc string) (bool, error)
	List(dbc database.Context, filter LotFilter) ([]Lot, error)
	Save(dbc database.Context, lot *Lot) error
	Delete(dbc database.Context, lotID string) (int64, error)
}
