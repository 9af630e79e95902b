package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommodityRepository is the catalog the workflow engine reads caps from.
type CommodityRepository interface {
	Create(ctx context.Context, commodity *model.Commodity) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Commodity, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]model.Commodity, int64, error)
	ListActive(ctx context.Context) ([]model.Commodity, error)
	Update(ctx context.Context, commodity *model.Commodity) error
}

type commodityRepository struct {
	db *gorm.DB
}

func NewCommodityRepository(db *gorm.DB) CommodityRepository {
	return &commodityRepository{db: db}
}

func (r *commodityRepository) Create(ctx context.Context, commodity *model.Commodity) error {
	return GetDB(ctx, r.db).Create(commodity).Error
}

func (r *commodityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Commodity, error) {
	var commodity model.Commodity
	if err := GetDB(ctx, r.db).First(&commodity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &commodity, nil
}

func (r *commodityRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]model.Commodity, int64, error) {
	var commodities []model.Commodity
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Commodity{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Order("name")
	if activeOnly {
		fetchQuery = fetchQuery.Where("is_active = ?", true)
	}
	if err := fetchQuery.Offset(offset).Limit(limit).Find(&commodities).Error; err != nil {
		return nil, 0, err
	}

	return commodities, total, nil
}

func (r *commodityRepository) ListActive(ctx context.Context) ([]model.Commodity, error) {
	var commodities []model.Commodity
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("name").Find(&commodities).Error; err != nil {
		return nil, err
	}
	return commodities, nil
}

func (r *commodityRepository) Update(ctx context.Context, commodity *model.Commodity) error {
	return GetDB(ctx, r.db).Save(commodity).Error
}
