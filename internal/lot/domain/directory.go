package domain

import (
	"strings"

	"github.com/tair/rfid-textile/pkg/database"
)

// Worker is a production line operator as maintained by the administration service
type Worker struct {
	OuvrierID    uint   `json:"ouvrier_id" gorm:"column:ouvrier_id;primaryKey;autoIncrement"`
	Nom          string `json:"nom" gorm:"size:64;not null"`
	Prenom       string `json:"prenom" gorm:"size:64"`
	Localisation string `json:"localisation" gorm:"size:128"`
	ChaineID     string `json:"chaine_id" gorm:"size:64;index"`
	IsActive     bool   `json:"is_active" gorm:"not null;default:true"`
}

// TableName specifies the table name
func (Worker) TableName() string {
	return "ouvriers"
}

// FullName returns "nom prenom", the form lots record in ouvrier_nom
func (w *Worker) FullName() string {
	return strings.TrimSpace(w.Nom + " " + w.Prenom)
}

// User is an account able to sign quality-control records
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Nom      string `json:"nom" gorm:"size:64"`
	Prenom   string `json:"prenom" gorm:"size:64"`
	Role     string `json:"role" gorm:"size:32"`
	ChaineID string `json:"chaine_id" gorm:"size:64"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "utilisateurs"
}

// NormalizeName folds a worker name for directory lookups
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// WorkerDirectory resolves a worker's name to its current location
type WorkerDirectory interface {
	ResolveWorker(dbc database.Context, fullName string) (*Worker, error)
}

// ResponsibleDirectory checks that a quality-control signatory exists
type ResponsibleDirectory interface {
	ResponsibleExists(dbc database.Context, id uint) (bool, error)
}
