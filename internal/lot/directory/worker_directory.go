package directory

import (
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/repository"
	"github.com/tair/rfid-textile/pkg/database"
)

const workerNameExpr = "LOWER(TRIM(nom || ' ' || COALESCE(prenom, '')))"

// GormDirectory reads workers and users from the administration tables
type GormDirectory struct{}

// NewGormDirectory creates a new directory backed by the database
func NewGormDirectory() *GormDirectory {
	return &GormDirectory{}
}

// ResolveWorker finds the active worker whose "nom prenom" matches fullName, ignoring case
func (d *GormDirectory) ResolveWorker(dbc database.Context, fullName string) (*domain.Worker, error) {
	name := domain.NormalizeName(fullName)
	if name == "" {
		return nil, domain.NewValidationError("directory.resolve_worker", "ouvrier_nom is required")
	}

	var w domain.Worker
	err := dbc.DB().
		Where("is_active = ?", true).
		Where(workerNameExpr+" = ?", name).
		First(&w).Error
	if err != nil {
		err = repository.MapError("directory.resolve_worker", err)
		if domain.IsCode(err, domain.CodeNotFound) {
			return nil, domain.NewNotFoundError("directory.resolve_worker", "worker %q not found or inactive", fullName)
		}
		return nil, err
	}
	return &w, nil
}

// ResponsibleExists reports whether a user with the given id exists
func (d *GormDirectory) ResponsibleExists(dbc database.Context, id uint) (bool, error) {
	var count int64
	if err := dbc.DB().Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, repository.MapError("directory.responsible_exists", err)
	}
	return count > 0, nil
}
