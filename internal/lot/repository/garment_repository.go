package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// GormGarmentRepository stores garments with gorm
type GormGarmentRepository struct{}

// NewGormGarmentRepository creates a new garment repository
func NewGormGarmentRepository() *GormGarmentRepository {
	return &GormGarmentRepository{}
}

func (r *GormGarmentRepository) Create(dbc database.Context, garment *domain.Garment) error {
	return MapError("garment.create", dbc.DB().Create(garment).Error)
}

func (r *GormGarmentRepository) FindByID(dbc database.Context, jeanID uint) (*domain.Garment, error) {
	return r.first(dbc.DB(), "garment.find_by_id", "jean_id = ?", jeanID)
}

func (r *GormGarmentRepository) FindByEPC(dbc database.Context, epc string) (*domain.Garment, error) {
	return r.first(dbc.DB(), "garment.find_by_epc", "epc = ?", epc)
}

func (r *GormGarmentRepository) LockByEPC(dbc database.Context, epc string) (*domain.Garment, error) {
	return r.first(dbc.DB().Clauses(clause.Locking{Strength: "UPDATE"}), "garment.lock_by_epc", "epc = ?", epc)
}

func (r *GormGarmentRepository) ExistsByEPC(dbc database.Context, epc string) (bool, error) {
	var count int64
	if err := dbc.DB().Model(&domain.Garment{}).Where("epc = ?", epc).Count(&count).Error; err != nil {
		return false, MapError("garment.exists_by_epc", err)
	}
	return count > 0, nil
}

func (r *GormGarmentRepository) ListByLot(dbc database.Context, lotID string) ([]domain.Garment, error) {
	var garments []domain.Garment
	if err := dbc.DB().Where("lot_id = ?", lotID).Order("jean_id").Find(&garments).Error; err != nil {
		return nil, MapError("garment.list_by_lot", err)
	}
	return garments, nil
}

// CountByLot counts the live garments of a lot
func (r *GormGarmentRepository) CountByLot(dbc database.Context, lotID string) (int64, error) {
	var count int64
	if err := dbc.DB().Model(&domain.Garment{}).Where("lot_id = ?", lotID).Count(&count).Error; err != nil {
		return 0, MapError("garment.count_by_lot", err)
	}
	return count, nil
}

// CountByLotAndQuality counts the live garments of a lot with the given quality
func (r *GormGarmentRepository) CountByLotAndQuality(dbc database.Context, lotID string, quality domain.Quality) (int64, error) {
	var count int64
	err := dbc.DB().Model(&domain.Garment{}).
		Where("lot_id = ? AND statut_qualite = ?", lotID, quality).
		Count(&count).Error
	if err != nil {
		return 0, MapError("garment.count_by_quality", err)
	}
	return count, nil
}

func (r *GormGarmentRepository) UpdateQuality(dbc database.Context, jeanID uint, quality domain.Quality) error {
	res := dbc.DB().Model(&domain.Garment{}).Where("jean_id = ?", jeanID).Update("statut_qualite", quality)
	if res.Error != nil {
		return MapError("garment.update_quality", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("garment.update_quality", "garment %d not found", jeanID)
	}
	return nil
}

// SyncAssignment mirrors the lot status and assignment onto every live garment of the lot
func (r *GormGarmentRepository) SyncAssignment(dbc database.Context, lotID string, a domain.Assignment) error {
	err := dbc.DB().Model(&domain.Garment{}).
		Where("lot_id = ?", lotID).
		Updates(map[string]interface{}{
			"statut":       a.Statut,
			"localisation": a.Localisation,
			"ouvrier_id":   a.OuvrierID,
			"ouvrier_nom":  a.OuvrierNom,
		}).Error
	return MapError("garment.sync_assignment", err)
}

// SettleQuality marks every garment of the lot that is not defective as ok
func (r *GormGarmentRepository) SettleQuality(dbc database.Context, lotID string) (int64, error) {
	res := dbc.DB().Model(&domain.Garment{}).
		Where("lot_id = ? AND statut_qualite <> ?", lotID, domain.QualityDefectueux).
		Update("statut_qualite", domain.QualityOK)
	if res.Error != nil {
		return 0, MapError("garment.settle_quality", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormGarmentRepository) Delete(dbc database.Context, jeanID uint) (int64, error) {
	res := dbc.DB().Where("jean_id = ?", jeanID).Delete(&domain.Garment{})
	if res.Error != nil {
		return 0, MapError("garment.delete", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormGarmentRepository) DeleteByLot(dbc database.Context, lotID string) (int64, error) {
	res := dbc.DB().Where("lot_id = ?", lotID).Delete(&domain.Garment{})
	if res.Error != nil {
		return 0, MapError("garment.delete_by_lot", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormGarmentRepository) first(q *gorm.DB, op, cond string, arg interface{}) (*domain.Garment, error) {
	var garment domain.Garment
	if err := q.Where(cond, arg).First(&garment).Error; err != nil {
		return nil, MapError(op, err)
	}
	return &garment, nil
}

// GormQualityControlRepository appends inspection records
type GormQualityControlRepository struct{}

// NewGormQualityControlRepository creates a new quality-control repository
func NewGormQualityControlRepository() *GormQualityControlRepository {
	return &GormQualityControlRepository{}
}

func (r *GormQualityControlRepository) Create(dbc database.Context, qc *domain.QualityControl) error {
	return MapError("quality_control.create", dbc.DB().Create(qc).Error)
}

func (r *GormQualityControlRepository) ListByGarment(dbc database.Context, jeanID uint) ([]domain.QualityControl, error) {
	var records []domain.QualityControl
	err := dbc.DB().Where("jean_id = ?", jeanID).Order("controle_id").Find(&records).Error
	if err != nil {
		return nil, MapError("quality_control.list_by_garment", err)
	}
	return records, nil
}
