package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CRItemPayload struct {
	Description string          `json:"description" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required"`
	Price       decimal.Decimal `json:"price"`
}

type CreateCashRequestDTO struct {
	ProgramID     string          `json:"program_id" binding:"required"`
	ActivityName  string          `json:"activity_name" binding:"required"`
	VendorID      string          `json:"vendor_id"`
	VendorName    string          `json:"vendor_name"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	Items         []CRItemPayload `json:"items" binding:"required"`
	UseTax        bool            `json:"use_tax"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

type UpdateCashRequestDTO struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
}

// --- Interface ---

type CashRequestService interface {
	Create(ctx context.Context, actor model.Actor, req CreateCashRequestDTO) (*model.CashRequest, error)
	List(ctx context.Context, actor model.Actor) ([]model.CashRequest, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.CashRequest, error)
	Edit(ctx context.Context, actor model.Actor, id string, req UpdateCashRequestDTO) (*model.CashRequest, error)
	Review(ctx context.Context, actor model.Actor, id string, req ReviewRequestDTO) (*model.CashRequest, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type cashRequestService struct {
	crRepo      repository.CashRequestRepository
	programRepo repository.ProgramRepository
	vendorRepo  repository.VendorRepository
	auditRepo   repository.AuditRepository
	access      AccessResolver
	txManager   repository.TransactionManager
	hub         broadcaster
}

// NewCashRequestService returns a new instance of CashRequestService
func NewCashRequestService(
	crRepo repository.CashRequestRepository,
	programRepo repository.ProgramRepository,
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	access AccessResolver,
	txManager repository.TransactionManager,
	hub broadcaster,
) CashRequestService {
	return &cashRequestService{
		crRepo:      crRepo,
		programRepo: programRepo,
		vendorRepo:  vendorRepo,
		auditRepo:   auditRepo,
		access:      access,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Validation helpers ---

func validateCRItems(payloads []CRItemPayload) ([]model.CRItem, decimal.Decimal, error) {
	if len(payloads) == 0 {
		return nil, decimal.Zero, apperror.Validation("at least one item is required")
	}

	subtotal := decimal.Zero
	items := make([]model.CRItem, 0, len(payloads))
	for _, p := range payloads {
		if strings.TrimSpace(p.Description) == "" {
			return nil, decimal.Zero, apperror.Validation("item description is required")
		}
		if p.Quantity < 1 {
			return nil, decimal.Zero, apperror.Validation("quantity must be at least 1")
		}
		if p.Price.IsNegative() {
			return nil, decimal.Zero, apperror.Validation("price must not be negative")
		}
		total := p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
		subtotal = subtotal.Add(total)
		items = append(items, model.CRItem{
			Description: strings.TrimSpace(p.Description),
			Quantity:    p.Quantity,
			Price:       p.Price,
			Total:       total,
		})
	}
	return items, subtotal, nil
}

// --- Implementation ---

// Create builds a cash request with server-side totals. Tax is a deduction
// from the subtotal at a configurable percentage (withholding-style); an
// earlier product revision instead added a fixed 11% on top — deduction is
// the documented current behavior, pending product confirmation.
func (s *cashRequestService) Create(ctx context.Context, actor model.Actor, req CreateCashRequestDTO) (*model.CashRequest, error) {
	if actor.Role == model.RoleAdmin {
		return nil, apperror.Forbidden("admins cannot create cash requests")
	}
	if !roleCan(actor.Role, permCreateCashRequest) {
		return nil, apperror.Forbidden("you cannot create cash requests")
	}

	items, subtotal, err := validateCRItems(req.Items)
	if err != nil {
		return nil, err
	}

	programID, err := uuid.Parse(req.ProgramID)
	if err != nil {
		return nil, apperror.Validation("invalid program id")
	}

	ok, err := s.access.HasAccess(ctx, actor, programID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Forbidden("you do not have access to this program")
	}

	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("program not found")
		}
		return nil, apperror.Internal("failed to load program", err)
	}
	if !program.IsActive {
		return nil, apperror.Validation("program is not active")
	}

	vendor, err := s.resolveVendor(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	taxAmount := decimal.Zero
	taxPercent := decimal.Zero
	if req.UseTax {
		taxPercent = req.TaxPercentage
		if taxPercent.IsNegative() {
			return nil, apperror.Validation("tax percentage must not be negative")
		}
		taxAmount = subtotal.Mul(taxPercent).Div(decimal.NewFromInt(100))
	}
	totalAmount := subtotal.Sub(taxAmount)

	vendorID := vendor.ID
	cr := &model.CashRequest{
		ProgramID:     program.ID,
		ProgramName:   program.Name,
		ProgramCode:   program.Code,
		ActivityName:  req.ActivityName,
		VendorID:      &vendorID,
		VendorName:    vendor.Name,
		BankName:      vendor.BankName,
		AccountNumber: vendor.AccountNumber,
		Items:         items,
		TotalAmount:   totalAmount,
		TaxAmount:     taxAmount,
		TaxPercentage: taxPercent,
		UseTax:        req.UseTax,
		Status:        model.StatusPending,
		CreatedBy:     actor.UserID,
		CreatedByName: actor.Name,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.crRepo.Create(txCtx, cr); createErr != nil {
			return createErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateCashRequest, cr.ID.String(), req.ActivityName, map[string]interface{}{
			"program": program.Code,
			"vendor":  vendor.Name,
			"total":   totalAmount.StringFixed(4),
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to create cash request", err)
	}

	return cr, nil
}

// resolveVendor links the request to a vendor: by id when given, otherwise
// by case-insensitive name match, otherwise by creating one from the manual
// details. Matched vendors keep their official bank details.
func (s *cashRequestService) resolveVendor(ctx context.Context, actor model.Actor, req CreateCashRequestDTO) (*model.Vendor, error) {
	if req.VendorID != "" {
		id, err := uuid.Parse(req.VendorID)
		if err != nil {
			return nil, apperror.Validation("invalid vendor id")
		}
		vendor, err := s.vendorRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("vendor not found")
			}
			return nil, apperror.Internal("failed to load vendor", err)
		}
		return vendor, nil
	}

	if req.VendorName == "" || req.BankName == "" || req.AccountNumber == "" {
		return nil, apperror.Validation("vendor details are required")
	}

	existing, err := s.vendorRepo.GetByNameInsensitive(ctx, req.VendorName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to look up vendor", err)
	}

	vendor := &model.Vendor{
		Name:          req.VendorName,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		CreatedBy:     actor.UserID,
	}
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, apperror.Internal("failed to auto-create vendor", err)
	}
	return vendor, nil
}

// List applies the role read filter. Unlike purchase requests, a user's own
// cash requests are NOT intersected with their current program access —
// revoking access hides a user's PRs but not their CRs. Longstanding
// behavior; kept as-is until product says otherwise.
func (s *cashRequestService) List(ctx context.Context, actor model.Actor) ([]model.CashRequest, error) {
	filter := repository.RequestFilter{}

	switch actor.Role {
	case model.RoleAdmin:
		// No restriction.
	case model.RoleFinance:
		ids, err := s.access.AccessiblePrograms(ctx, actor)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []model.CashRequest{}, nil
		}
		filter.ProgramIDs = ids
	default:
		userID := actor.UserID
		filter.CreatedBy = &userID
	}

	crs, err := s.crRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to fetch cash requests", err)
	}
	return crs, nil
}

func (s *cashRequestService) Get(ctx context.Context, actor model.Actor, id string) (*model.CashRequest, error) {
	cr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != model.RoleAdmin && actor.Role != model.RoleFinance {
		if err := ensureCreator(actor, cr.CreatedBy, "you can only view your own cash requests"); err != nil {
			return nil, err
		}
	}

	return cr, nil
}

func (s *cashRequestService) Edit(ctx context.Context, actor model.Actor, id string, req UpdateCashRequestDTO) (*model.CashRequest, error) {
	if actor.Role != model.RoleUser {
		return nil, apperror.Forbidden("only the creator can edit a cash request")
	}

	cr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureCreator(actor, cr.CreatedBy, "you can only edit your own cash requests"); err != nil {
		return nil, err
	}
	if err := ensurePending(cr.Status, "you can only edit pending cash requests"); err != nil {
		return nil, err
	}

	if req.Amount != nil {
		cr.Amount = req.Amount
	}
	if req.Description != nil {
		cr.Description = *req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.crRepo.Update(txCtx, cr); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateCashRequest, cr.ID.String(), cr.ActivityName, nil)
	})
	if err != nil {
		return nil, apperror.Internal("failed to update cash request", err)
	}

	return cr, nil
}

func (s *cashRequestService) Review(ctx context.Context, actor model.Actor, id string, req ReviewRequestDTO) (*model.CashRequest, error) {
	if !roleCan(actor.Role, permReviewRequests) {
		return nil, apperror.Forbidden("only finance can review cash requests")
	}
	if req.Status != model.StatusApproved && req.Status != model.StatusRejected {
		return nil, apperror.Validation("valid status (approved/rejected) is required")
	}

	cr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensurePending(cr.Status, "cash request is already "+cr.Status); err != nil {
		return nil, err
	}

	now := time.Now()
	approverID := actor.UserID
	cr.Status = req.Status
	cr.ApprovedBy = &approverID
	cr.ApprovedByName = actor.Name
	cr.ApprovedAt = &now

	action := model.ActionApproveCashRequest
	if req.Status == model.StatusRejected {
		action = model.ActionRejectCashRequest
		cr.RejectionReason = req.RejectionReason
		if cr.RejectionReason == "" {
			cr.RejectionReason = "No reason provided"
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.crRepo.Update(txCtx, cr); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, action, cr.ID.String(), cr.ActivityName, map[string]interface{}{
			"status": cr.Status,
			"reason": cr.RejectionReason,
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to update cash request", err)
	}

	notifyStatusChange(s.hub, "cash_request", cr.ID.String(), cr.ActivityName, cr.Status, actor.Name)

	return cr, nil
}

func (s *cashRequestService) Delete(ctx context.Context, actor model.Actor, id string) error {
	cr, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := ensureCreator(actor, cr.CreatedBy, "you can only delete your own cash requests"); err != nil {
		return err
	}
	if err := ensurePending(cr.Status, "you can only delete pending cash requests"); err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.crRepo.Delete(txCtx, cr.ID); deleteErr != nil {
			return deleteErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteCashRequest, cr.ID.String(), cr.ActivityName, nil)
	})
	if err != nil {
		return apperror.Internal("failed to delete cash request", err)
	}
	return nil
}

func (s *cashRequestService) load(ctx context.Context, id string) (*model.CashRequest, error) {
	crID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid cash request id")
	}
	cr, err := s.crRepo.GetByID(ctx, crID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("cash request not found")
		}
		return nil, apperror.Internal("failed to load cash request", err)
	}
	return cr, nil
}
