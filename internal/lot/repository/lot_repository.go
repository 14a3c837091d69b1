package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// GormLotRepository stores lots with gorm
type GormLotRepository struct{}

// NewGormLotRepository creates a new lot repository
func NewGormLotRepository() *GormLotRepository {
	return &GormLotRepository{}
}

// NextLotID draws the next id from the locked lot sequence row
func (r *GormLotRepository) NextLotID(dbc database.Context) (string, error) {
	var seq domain.LotSequence
	err := dbc.DB().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", domain.LotSequenceName).
		First(&seq).Error
	if err != nil {
		return "", MapError("lot.next_id", err)
	}

	seq.Value++
	err = dbc.DB().Model(&domain.LotSequence{}).
		Where("name = ?", domain.LotSequenceName).
		Update("value", seq.Value).Error
	if err != nil {
		return "", MapError("lot.next_id", err)
	}
	return domain.FormatLotID(seq.Value), nil
}

func (r *GormLotRepository) Create(dbc database.Context, lot *domain.Lot) error {
	return MapError("lot.create", dbc.DB().Create(lot).Error)
}

func (r *GormLotRepository) FindByID(dbc database.Context, lotID string) (*domain.Lot, error) {
	return r.first(dbc.DB(), "lot.find_by_id", "lot_id = ?", lotID)
}

func (r *GormLotRepository) FindByEPC(dbc database.Context, epc string) (*domain.Lot, error) {
	return r.first(dbc.DB(), "lot.find_by_epc", "epc = ?", epc)
}

// LockByID reads the lot with an exclusive row lock held until the transaction ends
func (r *GormLotRepository) LockByID(dbc database.Context, lotID string) (*domain.Lot, error) {
	return r.first(dbc.DB().Clauses(clause.Locking{Strength: "UPDATE"}), "lot.lock_by_id", "lot_id = ?", lotID)
}

// LockByEPC reads the lot with an exclusive row lock held until the transaction ends
func (r *GormLotRepository) LockByEPC(dbc database.Context, epc string) (*domain.Lot, error) {
	return r.first(dbc.DB().Clauses(clause.Locking{Strength: "UPDATE"}), "lot.lock_by_epc", "epc = ?", epc)
}

func (r *GormLotRepository) ExistsByEPC(dbc database.Context, epc string) (bool, error) {
	var count int64
	err := dbc.DB().Model(&domain.Lot{}).Where("epc = ?", epc).Count(&count).Error
	if err != nil {
		return false, MapError("lot.exists_by_epc", err)
	}
	return count > 0, nil
}

func (r *GormLotRepository) List(dbc database.Context, filter domain.LotFilter) ([]domain.Lot, error) {
	q := dbc.DB().Model(&domain.Lot{})
	if filter.ChaineID != "" {
		q = q.Where("chaine_id = ?", filter.ChaineID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("statut IN ?", filter.Statuses)
	}
	if filter.Unassigned {
		q = q.Where("(ouvrier_nom IS NULL OR ouvrier_nom = '')")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var lots []domain.Lot
	if err := q.Order("lot_id").Find(&lots).Error; err != nil {
		return nil, MapError("lot.list", err)
	}
	return lots, nil
}

// Save writes every column of lot. A lot that no longer exists is reported as not found.
func (r *GormLotRepository) Save(dbc database.Context, lot *domain.Lot) error {
	res := dbc.DB().Model(lot).Select("*").Omit("lot_id", "created_at").Updates(lot)
	if res.Error != nil {
		return MapError("lot.save", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("lot.save", "lot %s not found", lot.LotID)
	}
	return nil
}

func (r *GormLotRepository) Delete(dbc database.Context, lotID string) (int64, error) {
	res := dbc.DB().Where("lot_id = ?", lotID).Delete(&domain.Lot{})
	if res.Error != nil {
		return 0, MapError("lot.delete", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormLotRepository) first(q *gorm.DB, op, cond string, arg interface{}) (*domain.Lot, error) {
	var lot domain.Lot
	if err := q.Where(cond, arg).First(&lot).Error; err != nil {
		return nil, MapError(op, err)
	}
	return &lot, nil
}
