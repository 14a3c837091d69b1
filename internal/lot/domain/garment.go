package domain

import (
	"time"

	"github.com/tair/rfid-textile/pkg/database"
)

// Garment represents an individual tagged jean within a lot
type Garment struct {
	JeanID        uint      `json:"jean_id" gorm:"primaryKey;autoIncrement"`
	EPC           string    `json:"epc" gorm:"size:128;not null;uniqueIndex"`
	LotID         string    `json:"lot_id" gorm:"size:32;not null;index"`
	Statut        Status    `json:"statut" gorm:"size:20;not null"`
	StatutQualite Quality   `json:"statut_qualite" gorm:"size:20;not null;default:'non_verifie';index"`
	Localisation  string    `json:"localisation" gorm:"size:128"`
	OuvrierID     *uint     `json:"ouvrier_id"`
	OuvrierNom    string    `json:"ouvrier_nom" gorm:"size:128"`
	ChaineID      string    `json:"chaine_id" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Garment) TableName() string {
	return "jeans"
}

// Assignment is the lot state mirrored onto its live garments
type Assignment struct {
	Statut       Status
	Localisation string
	OuvrierID    *uint
	OuvrierNom   string
}

// QualityControl is an immutable inspection record
type QualityControl struct {
	ControleID    uint      `json:"controle_id" gorm:"primaryKey;autoIncrement"`
	JeanID        uint      `json:"jean_id" gorm:"not null;index"`
	LotID         string    `json:"lot_id" gorm:"size:32;not null;index"`
	DateControle  time.Time `json:"date_controle"`
	Resultat      Quality   `json:"resultat" gorm:"size:20;not null"`
	RaisonDefaut  string    `json:"raison_defaut" gorm:"size:255"`
	ResponsableID uint      `json:"responsable_id" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name
func (QualityControl) TableName() string {
	return "controle_qualite"
}

// GarmentRepository defines the contract for garment data access
type GarmentRepository interface {
	Create(dbc database.Context, garment *Garment) error
	FindByID(dbc database.Context, jeanID uint) (*Garment, error)
	FindByEPC(dbc database.Context, epc string) (*Garment, error)
	LockByEPC(dbc database.Context, epc string) (*Garment, error)
	ExistsByEPC(dbc database.Context, epc string) (bool, error)
	ListByLot(dbc database.Context, lotID string) ([]Garment, error)
	CountByLot(dbc database.Context, lotID string) (int64, error)
	CountByLotAndQuality(dbc database.Context, lotID string, quality Quality) (int64, error)
	UpdateQuality(dbc database.Context, jeanID uint, quality Quality) error
	SyncAssignment(dbc database.Context, lotID string, a Assignment) error
	SettleQuality(dbc database.Context, lotID string) (int64, error)
	Delete(dbc database.Context, jeanID uint) (int64, error)
	DeleteByLot(dbc database.Context, lotID string) (int64, error)
}

// QualityControlRepository defines the contract for the append-only inspection log
type QualityControlRepository interface {
	Create(dbc database.Context, qc *QualityControl) error
	ListByGarment(dbc database.Context, jeanID uint) ([]QualityControl, error)
}
