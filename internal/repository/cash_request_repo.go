package repository

import (
	"context"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CashRequestRepository defines the interface for data access of CashRequest entities
type CashRequestRepository interface {
	Create(ctx context.Context, cr *model.CashRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.CashRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.CashRequest, error)
	Update(ctx context.Context, cr *model.CashRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cashRequestRepository struct {
	db *gorm.DB
}

// NewCashRequestRepository returns a new instance of CashRequestRepository
func NewCashRequestRepository(db *gorm.DB) CashRequestRepository {
	return &cashRequestRepository{db: db}
}

func (r *cashRequestRepository) Create(ctx context.Context, cr *model.CashRequest) error {
	return GetDB(ctx, r.db).Create(cr).Error
}

func (r *cashRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CashRequest, error) {
	var cr model.CashRequest
	if err := GetDB(ctx, r.db).Preload("Items").First(&cr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *cashRequestRepository) List(ctx context.Context, filter RequestFilter) ([]model.CashRequest, error) {
	var crs []model.CashRequest
	q := filter.apply(GetDB(ctx, r.db).Preload("Items"))
	if err := q.Order("created_at DESC").Find(&crs).Error; err != nil {
		return nil, err
	}
	return crs, nil
}

func (r *cashRequestRepository) Update(ctx context.Context, cr *model.CashRequest) error {
	return GetDB(ctx, r.db).Omit("Items").Save(cr).Error
}

func (r *cashRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("cash_request_id = ?", id).Delete(&model.CRItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.CashRequest{}).Error
}
