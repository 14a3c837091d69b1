package repository

import (
	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/pkg/database"
)

// GormHistoryRepository stores the lot and garment archives
type GormHistoryRepository struct{}

// NewGormHistoryRepository creates a new history repository
func NewGormHistoryRepository() *GormHistoryRepository {
	return &GormHistoryRepository{}
}

func (r *GormHistoryRepository) FindLot(dbc database.Context, lotID string) (*domain.LotHistory, error) {
	var h domain.LotHistory
	if err := dbc.DB().Where("lot_id = ?", lotID).First(&h).Error; err != nil {
		return nil, MapError("history.find_lot", err)
	}
	return &h, nil
}

// FindStoredLot returns the history row of a lot only once it has been stored
func (r *GormHistoryRepository) FindStoredLot(dbc database.Context, lotID string) (*domain.LotHistory, error) {
	var h domain.LotHistory
	err := dbc.DB().
		Where("lot_id = ? AND statut = ?", lotID, domain.StatusStocke).
		First(&h).Error
	if err != nil {
		return nil, MapError("history.find_stored_lot", err)
	}
	return &h, nil
}

func (r *GormHistoryRepository) CreateLot(dbc database.Context, h *domain.LotHistory) error {
	return MapError("history.create_lot", dbc.DB().Create(h).Error)
}

func (r *GormHistoryRepository) SaveLot(dbc database.Context, h *domain.LotHistory) error {
	res := dbc.DB().Model(h).Select("*").Omit("history_id", "lot_id").Updates(h)
	if res.Error != nil {
		return MapError("history.save_lot", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("history.save_lot", "history of lot %s not found", h.LotID)
	}
	return nil
}

func (r *GormHistoryRepository) SetDetectedCount(dbc database.Context, lotID string, count int) (int64, error) {
	res := dbc.DB().Model(&domain.LotHistory{}).
		Where("lot_id = ? AND statut = ?", lotID, domain.StatusStocke).
		Update("detected_count", count)
	if res.Error != nil {
		return 0, MapError("history.set_detected_count", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormHistoryRepository) ListStored(dbc database.Context, chaineID string) ([]domain.LotHistory, error) {
	q := dbc.DB().Where("statut = ?", domain.StatusStocke)
	if chaineID != "" {
		q = q.Where("chaine_id = ?", chaineID)
	}

	var rows []domain.LotHistory
	if err := q.Order("lot_id").Find(&rows).Error; err != nil {
		return nil, MapError("history.list_stored", err)
	}
	return rows, nil
}

// ListLots returns every archived lot, termine and stocke alike
func (r *GormHistoryRepository) ListLots(dbc database.Context, chaineID string) ([]domain.LotHistory, error) {
	q := dbc.DB()
	if chaineID != "" {
		q = q.Where("chaine_id = ?", chaineID)
	}

	var rows []domain.LotHistory
	if err := q.Order("lot_id").Find(&rows).Error; err != nil {
		return nil, MapError("history.list_lots", err)
	}
	return rows, nil
}

func (r *GormHistoryRepository) GarmentSnapshotExists(dbc database.Context, jeanID uint, lotID string) (bool, error) {
	var count int64
	err := dbc.DB().Model(&domain.GarmentHistory{}).
		Where("jean_id = ? AND lot_id = ?", jeanID, lotID).
		Count(&count).Error
	if err != nil {
		return false, MapError("history.garment_snapshot_exists", err)
	}
	return count > 0, nil
}

func (r *GormHistoryRepository) CreateGarment(dbc database.Context, h *domain.GarmentHistory) error {
	return MapError("history.create_garment", dbc.DB().Create(h).Error)
}

func (r *GormHistoryRepository) ListGarments(dbc database.Context, lotID string) ([]domain.GarmentHistory, error) {
	var rows []domain.GarmentHistory
	if err := dbc.DB().Where("lot_id = ?", lotID).Order("jean_id").Find(&rows).Error; err != nil {
		return nil, MapError("history.list_garments", err)
	}
	return rows, nil
}
