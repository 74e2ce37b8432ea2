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

type PRItemPayload struct {
	Item     string          `json:"item" binding:"required"`
	Quantity int             `json:"quantity" binding:"required"`
	Unit     string          `json:"unit" binding:"required"`
	Price    decimal.Decimal `json:"price"`
}

type CreatePurchaseRequestDTO struct {
	ProgramID    string          `json:"program_id" binding:"required"`
	ActivityName string          `json:"activity_name" binding:"required"`
	Department   string          `json:"department" binding:"required"`
	Budgeted     *bool           `json:"budgeted" binding:"required"`
	CostingTo    string          `json:"costing_to" binding:"required"`
	Items        []PRItemPayload `json:"items" binding:"required"`
}

type UpdatePurchaseRequestDTO struct {
	Department *string          `json:"department"`
	Budgeted   *bool            `json:"budgeted"`
	CostingTo  *string          `json:"costing_to"`
	PRNumber   *string          `json:"pr_number"`
	Items      *[]PRItemPayload `json:"items"`
}

type ReviewRequestDTO struct {
	Status          string `json:"status" binding:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejection_reason"`
}

// --- Interface ---

type PurchaseRequestService interface {
	Create(ctx context.Context, actor model.Actor, req CreatePurchaseRequestDTO) (*model.PurchaseRequest, error)
	List(ctx context.Context, actor model.Actor) ([]model.PurchaseRequest, error)
	Get(ctx context.Context, actor model.Actor, id string) (*model.PurchaseRequest, error)
	Edit(ctx context.Context, actor model.Actor, id string, req UpdatePurchaseRequestDTO) (*model.PurchaseRequest, error)
	Review(ctx context.Context, actor model.Actor, id string, req ReviewRequestDTO) (*model.PurchaseRequest, error)
	AddComment(ctx context.Context, actor model.Actor, id string, comment string) (*model.PurchaseRequest, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type purchaseRequestService struct {
	prRepo      repository.PurchaseRequestRepository
	programRepo repository.ProgramRepository
	auditRepo   repository.AuditRepository
	access      AccessResolver
	sequence    SequenceService
	txManager   repository.TransactionManager
	hub         broadcaster
}

// NewPurchaseRequestService returns a new instance of PurchaseRequestService
func NewPurchaseRequestService(
	prRepo repository.PurchaseRequestRepository,
	programRepo repository.ProgramRepository,
	auditRepo repository.AuditRepository,
	access AccessResolver,
	sequence SequenceService,
	txManager repository.TransactionManager,
	hub broadcaster,
) PurchaseRequestService {
	return &purchaseRequestService{
		prRepo:      prRepo,
		programRepo: programRepo,
		auditRepo:   auditRepo,
		access:      access,
		sequence:    sequence,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Validation helpers ---

func validatePRItems(payloads []PRItemPayload) ([]model.PRItem, error) {
	if len(payloads) == 0 {
		return nil, apperror.Validation("at least one item is required")
	}

	items := make([]model.PRItem, 0, len(payloads))
	for _, p := range payloads {
		if strings.TrimSpace(p.Item) == "" {
			return nil, apperror.Validation("item name is required")
		}
		if p.Quantity < 1 {
			return nil, apperror.Validation("quantity must be at least 1")
		}
		if strings.TrimSpace(p.Unit) == "" {
			return nil, apperror.Validation("unit is required")
		}
		if p.Price.IsNegative() {
			return nil, apperror.Validation("price must not be negative")
		}
		items = append(items, model.PRItem{
			Item:       strings.TrimSpace(p.Item),
			Quantity:   p.Quantity,
			Unit:       strings.TrimSpace(p.Unit),
			Price:      p.Price,
			TotalPrice: p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))),
		})
	}
	return items, nil
}

// --- Implementation ---

func (s *purchaseRequestService) Create(ctx context.Context, actor model.Actor, req CreatePurchaseRequestDTO) (*model.PurchaseRequest, error) {
	if !roleCan(actor.Role, permCreatePurchaseRequest) {
		return nil, apperror.Forbidden("only users can create purchase requests")
	}

	items, err := validatePRItems(req.Items)
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

	// The number is committed before the document: a crash in between leaks
	// a counter value instead of ever issuing a duplicate.
	prNumber, err := s.sequence.Generate(ctx, req.ProgramID)
	if err != nil {
		return nil, err
	}

	pr := &model.PurchaseRequest{
		ProgramID:     program.ID,
		ProgramName:   program.Name,
		ProgramCode:   program.Code,
		ActivityName:  req.ActivityName,
		Department:    req.Department,
		Budgeted:      *req.Budgeted,
		CostingTo:     req.CostingTo,
		PRNumber:      prNumber,
		Items:         items,
		Status:        model.StatusPending,
		CreatedBy:     actor.UserID,
		CreatedByName: actor.Name,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.prRepo.Create(txCtx, pr); createErr != nil {
			return createErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreatePurchaseRequest, pr.ID.String(), prNumber, map[string]interface{}{
			"pr_number": prNumber,
			"program":   program.Code,
			"activity":  req.ActivityName,
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to create purchase request", err)
	}

	return pr, nil
}

func (s *purchaseRequestService) List(ctx context.Context, actor model.Actor) ([]model.PurchaseRequest, error) {
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
			return []model.PurchaseRequest{}, nil
		}
		filter.ProgramIDs = ids
	default:
		ids, err := s.access.AccessiblePrograms(ctx, actor)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []model.PurchaseRequest{}, nil
		}
		userID := actor.UserID
		filter.CreatedBy = &userID
		filter.ProgramIDs = ids
	}

	prs, err := s.prRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to fetch purchase requests", err)
	}
	return prs, nil
}

func (s *purchaseRequestService) Get(ctx context.Context, actor model.Actor, id string) (*model.PurchaseRequest, error) {
	pr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == model.RoleUser {
		if err := ensureCreator(actor, pr.CreatedBy, "you can only view your own purchase requests"); err != nil {
			return nil, err
		}
	}

	return pr, nil
}

func (s *purchaseRequestService) Edit(ctx context.Context, actor model.Actor, id string, req UpdatePurchaseRequestDTO) (*model.PurchaseRequest, error) {
	if actor.Role != model.RoleUser {
		return nil, apperror.Forbidden("only the creator can edit a purchase request")
	}

	pr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureCreator(actor, pr.CreatedBy, "you can only edit your own purchase requests"); err != nil {
		return nil, err
	}
	if err := ensurePending(pr.Status, "cannot edit approved or rejected purchase requests"); err != nil {
		return nil, err
	}

	if req.Department != nil {
		pr.Department = *req.Department
	}
	if req.Budgeted != nil {
		pr.Budgeted = *req.Budgeted
	}
	if req.CostingTo != nil {
		pr.CostingTo = *req.CostingTo
	}
	if req.PRNumber != nil && *req.PRNumber != "" {
		pr.PRNumber = *req.PRNumber
	}

	var items []model.PRItem
	if req.Items != nil {
		items, err = validatePRItems(*req.Items)
		if err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if items != nil {
			if replaceErr := s.prRepo.ReplaceItems(txCtx, pr, items); replaceErr != nil {
				return replaceErr
			}
		}
		if updateErr := s.prRepo.Update(txCtx, pr); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdatePurchaseRequest, pr.ID.String(), pr.PRNumber, map[string]interface{}{
			"pr_number": pr.PRNumber,
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to update purchase request", err)
	}

	return pr, nil
}

func (s *purchaseRequestService) Review(ctx context.Context, actor model.Actor, id string, req ReviewRequestDTO) (*model.PurchaseRequest, error) {
	if !roleCan(actor.Role, permReviewRequests) {
		return nil, apperror.Forbidden("only finance can review purchase requests")
	}
	if req.Status != model.StatusApproved && req.Status != model.StatusRejected {
		return nil, apperror.Validation("valid status (approved/rejected) is required")
	}

	pr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensurePending(pr.Status, "purchase request is already "+pr.Status); err != nil {
		return nil, err
	}

	now := time.Now()
	approverID := actor.UserID
	pr.Status = req.Status
	pr.ApprovedBy = &approverID
	pr.ApprovedByName = actor.Name
	pr.ApprovedAt = &now

	action := model.ActionApprovePurchaseRequest
	if req.Status == model.StatusRejected {
		action = model.ActionRejectPurchaseRequest
		pr.RejectionReason = req.RejectionReason
		if pr.RejectionReason == "" {
			pr.RejectionReason = "No reason provided"
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.prRepo.Update(txCtx, pr); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, action, pr.ID.String(), pr.PRNumber, map[string]interface{}{
			"pr_number": pr.PRNumber,
			"status":    pr.Status,
			"reason":    pr.RejectionReason,
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to update purchase request", err)
	}

	notifyStatusChange(s.hub, "purchase_request", pr.ID.String(), pr.PRNumber, pr.Status, actor.Name)

	return pr, nil
}

func (s *purchaseRequestService) AddComment(ctx context.Context, actor model.Actor, id string, comment string) (*model.PurchaseRequest, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperror.Validation("comment is required")
	}
	if !roleCan(actor.Role, permCommentRequests) {
		return nil, apperror.Forbidden("only the creator or finance can comment on purchase requests")
	}

	pr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleUser {
		if err := ensureCreator(actor, pr.CreatedBy, "you can only comment on your own purchase requests"); err != nil {
			return nil, err
		}
	}

	entry := &model.PRComment{
		CommentedBy:     actor.UserID,
		CommentedByName: actor.Name,
		CommentedByRole: string(actor.Role),
		Comment:         comment,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if appendErr := s.prRepo.AppendComment(txCtx, pr.ID, entry); appendErr != nil {
			return appendErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCommentPurchaseRequest, pr.ID.String(), pr.PRNumber, map[string]interface{}{
			"pr_number": pr.PRNumber,
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to add comment", err)
	}

	return s.load(ctx, id)
}

func (s *purchaseRequestService) Delete(ctx context.Context, actor model.Actor, id string) error {
	pr, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != model.RoleUser {
		return apperror.Forbidden("only the creator can delete a purchase request")
	}
	if err := ensureCreator(actor, pr.CreatedBy, "you can only delete your own purchase requests"); err != nil {
		return err
	}
	if err := ensurePending(pr.Status, "you can only delete pending purchase requests"); err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.prRepo.Delete(txCtx, pr.ID); deleteErr != nil {
			return deleteErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeletePurchaseRequest, pr.ID.String(), pr.PRNumber, map[string]interface{}{
			"pr_number": pr.PRNumber,
		})
	})
	if err != nil {
		return apperror.Internal("failed to delete purchase request", err)
	}
	return nil
}

func (s *purchaseRequestService) load(ctx context.Context, id string) (*model.PurchaseRequest, error) {
	prID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid purchase request id")
	}
	pr, err := s.prRepo.GetByID(ctx, prID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("purchase request not found")
		}
		return nil, apperror.Internal("failed to load purchase request", err)
	}
	return pr, nil
}
