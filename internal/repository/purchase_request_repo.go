package repository

import (
	"context"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows a document listing to the caller's visibility.
// A nil ProgramIDs with AllPrograms=false means "no program restriction";
// AllPrograms is irrelevant then. An empty non-nil ProgramIDs yields an
// empty result set.
type RequestFilter struct {
	CreatedBy  *uuid.UUID
	ProgramIDs []uuid.UUID
}

func (f RequestFilter) apply(q *gorm.DB) *gorm.DB {
	if f.CreatedBy != nil {
		q = q.Where("created_by = ?", *f.CreatedBy)
	}
	if f.ProgramIDs != nil {
		q = q.Where("program_id IN ?", f.ProgramIDs)
	}
	return q
}

// PurchaseRequestRepository defines the interface for data access of PurchaseRequest entities
type PurchaseRequestRepository interface {
	Create(ctx context.Context, pr *model.PurchaseRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, error)
	Update(ctx context.Context, pr *model.PurchaseRequest) error
	ReplaceItems(ctx context.Context, pr *model.PurchaseRequest, items []model.PRItem) error
	AppendComment(ctx context.Context, prID uuid.UUID, comment *model.PRComment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

// NewPurchaseRequestRepository returns a new instance of PurchaseRequestRepository
func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, pr *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(pr).Error
}

func (r *purchaseRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	var pr model.PurchaseRequest
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&pr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *purchaseRequestRepository) List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, error) {
	var prs []model.PurchaseRequest
	q := filter.apply(GetDB(ctx, r.db).Preload("Items"))
	if err := q.Order("created_at DESC").Find(&prs).Error; err != nil {
		return nil, err
	}
	return prs, nil
}

// Update saves the full document. Items and comments are managed through
// ReplaceItems and AppendComment, not here.
func (r *purchaseRequestRepository) Update(ctx context.Context, pr *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Omit("Items", "Comments").Save(pr).Error
}

// ReplaceItems swaps the item list wholesale, keeping the operation inside
// the caller's transaction when one is active.
func (r *purchaseRequestRepository) ReplaceItems(ctx context.Context, pr *model.PurchaseRequest, items []model.PRItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("purchase_request_id = ?", pr.ID).Delete(&model.PRItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].PurchaseRequestID = pr.ID
	}
	if err := db.Create(&items).Error; err != nil {
		return err
	}
	pr.Items = items
	return nil
}

// AppendComment inserts the comment row and flags the parent for revision.
// The parent document itself is never rewritten, so requests predating newer
// required fields are left exactly as stored.
func (r *purchaseRequestRepository) AppendComment(ctx context.Context, prID uuid.UUID, comment *model.PRComment) error {
	db := GetDB(ctx, r.db)
	comment.PurchaseRequestID = prID
	if err := db.Create(comment).Error; err != nil {
		return err
	}
	return db.Model(&model.PurchaseRequest{}).
		Where("id = ?", prID).
		Update("revision_requested", true).Error
}

func (r *purchaseRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("purchase_request_id = ?", id).Delete(&model.PRItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("purchase_request_id = ?", id).Delete(&model.PRComment{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.PurchaseRequest{}).Error
}
