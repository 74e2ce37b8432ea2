package service

import (
	"context"
	"errors"
	"strings"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateVendorRequest struct {
	Name          string `json:"name" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
}

type UpdateVendorRequest struct {
	Name          *string `json:"name"`
	BankName      *string `json:"bank_name"`
	AccountNumber *string `json:"account_number"`
}

// VendorService defines the interface for business logic related to Vendor
type VendorService interface {
	Create(ctx context.Context, actor model.Actor, req CreateVendorRequest) (*model.Vendor, error)
	List(ctx context.Context) ([]model.Vendor, error)
	Get(ctx context.Context, id string) (*model.Vendor, error)
	Update(ctx context.Context, actor model.Actor, id string, req UpdateVendorRequest) (*model.Vendor, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type vendorService struct {
	repo      repository.VendorRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

// NewVendorService returns a new instance of VendorService
func NewVendorService(
	repo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) VendorService {
	return &vendorService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func (s *vendorService) Create(ctx context.Context, actor model.Actor, req CreateVendorRequest) (*model.Vendor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("vendor name is required")
	}

	if _, err := s.repo.GetByNameInsensitive(ctx, name); err == nil {
		return nil, apperror.Conflict("a vendor with this name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to check vendor uniqueness", err)
	}

	vendor := &model.Vendor{
		Name:          name,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		CreatedBy:     actor.UserID,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, vendor); createErr != nil {
			return createErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateVendor, vendor.ID.String(), vendor.Name, nil)
	})
	if err != nil {
		return nil, apperror.Internal("failed to create vendor", err)
	}

	return vendor, nil
}

func (s *vendorService) List(ctx context.Context) ([]model.Vendor, error) {
	vendors, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to fetch vendors", err)
	}
	return vendors, nil
}

func (s *vendorService) Get(ctx context.Context, id string) (*model.Vendor, error) {
	vendorID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid vendor id")
	}
	vendor, err := s.repo.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("vendor not found")
		}
		return nil, apperror.Internal("failed to load vendor", err)
	}
	return vendor, nil
}

// Update edits the vendor master record only. Cash requests keep the bank
// details they were created with.
func (s *vendorService) Update(ctx context.Context, actor model.Actor, id string, req UpdateVendorRequest) (*model.Vendor, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("vendor name is required")
		}
		if !strings.EqualFold(name, vendor.Name) {
			if _, lookupErr := s.repo.GetByNameInsensitive(ctx, name); lookupErr == nil {
				return nil, apperror.Conflict("a vendor with this name already exists")
			}
		}
		vendor.Name = name
	}
	if req.BankName != nil {
		vendor.BankName = *req.BankName
	}
	if req.AccountNumber != nil {
		vendor.AccountNumber = *req.AccountNumber
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, vendor); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateVendor, vendor.ID.String(), vendor.Name, nil)
	})
	if err != nil {
		return nil, apperror.Internal("failed to update vendor", err)
	}

	return vendor, nil
}

func (s *vendorService) Delete(ctx context.Context, actor model.Actor, id string) error {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.repo.Delete(txCtx, vendor.ID); deleteErr != nil {
			return deleteErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteVendor, vendor.ID.String(), vendor.Name, nil)
	})
	if err != nil {
		return apperror.Internal("failed to delete vendor", err)
	}
	return nil
}
