package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var programCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,10}$`)

// DTOs for Request validation
type CreateProgramRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

type UpdateProgramRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// ProgramService defines the interface for business logic related to Program
type ProgramService interface {
	Create(ctx context.Context, actor model.Actor, req CreateProgramRequest) (*model.Program, error)
	ListAccessible(ctx context.Context, actor model.Actor) ([]model.Program, error)
	Get(ctx context.Context, id string) (*model.Program, error)
	Update(ctx context.Context, actor model.Actor, id string, req UpdateProgramRequest) (*model.Program, error)
	Deactivate(ctx context.Context, actor model.Actor, id string) error
}

type programService struct {
	repo      repository.ProgramRepository
	access    AccessResolver
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

// NewProgramService returns a new instance of ProgramService
func NewProgramService(
	repo repository.ProgramRepository,
	access AccessResolver,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProgramService {
	return &programService{repo: repo, access: access, auditRepo: auditRepo, txManager: txManager}
}

// Create registers a program. Codes are normalized to uppercase so that
// "atlas" and "ATLAS" are the same program prefix.
func (s *programService) Create(ctx context.Context, actor model.Actor, req CreateProgramRequest) (*model.Program, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	name := strings.TrimSpace(req.Name)

	if name == "" {
		return nil, apperror.Validation("program name is required")
	}
	if !programCodePattern.MatchString(code) {
		return nil, apperror.Validation("program code must be 3-10 alphanumeric characters")
	}

	if _, err := s.repo.GetByNameOrCode(ctx, name, code); err == nil {
		return nil, apperror.Conflict("a program with this name or code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to check program uniqueness", err)
	}

	program := &model.Program{
		Name:          name,
		Code:          code,
		Description:   req.Description,
		IsActive:      true,
		CreatedBy:     actor.UserID,
		CreatedByName: actor.Name,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, program); createErr != nil {
			return createErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateProgram, program.ID.String(), program.Code, nil)
	})
	if err != nil {
		return nil, apperror.Internal("failed to create program", err)
	}

	return program, nil
}

// ListAccessible returns the programs the caller may submit against: all
// active programs for admins, the granted subset for everyone else.
func (s *programService) ListAccessible(ctx context.Context, actor model.Actor) ([]model.Program, error) {
	ids, err := s.access.AccessiblePrograms(ctx, actor)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		programs, listErr := s.repo.ListActive(ctx)
		if listErr != nil {
			return nil, apperror.Internal("failed to fetch programs", listErr)
		}
		return programs, nil
	}

	programs, err := s.repo.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("failed to fetch programs", err)
	}
	return programs, nil
}

func (s *programService) Get(ctx context.Context, id string) (*model.Program, error) {
	programID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid program id")
	}
	program, err := s.repo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("program not found")
		}
		return nil, apperror.Internal("failed to load program", err)
	}
	return program, nil
}

func (s *programService) Update(ctx context.Context, actor model.Actor, id string, req UpdateProgramRequest) (*model.Program, error) {
	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("program name is required")
		}
		if name != program.Name {
			if _, lookupErr := s.repo.GetByNameOrCode(ctx, name, ""); lookupErr == nil {
				return nil, apperror.Conflict("a program with this name already exists")
			}
			program.Name = name
		}
	}
	if req.Description != nil {
		program.Description = *req.Description
	}
	if req.IsActive != nil {
		program.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, program); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateProgram, program.ID.String(), program.Code, nil)
	})
	if err != nil {
		return nil, apperror.Internal("failed to update program", err)
	}

	return program, nil
}

// Deactivate soft-disables the program. History and the numbering counter are
// retained so reactivation resumes the sequence instead of restarting it.
func (s *programService) Deactivate(ctx context.Context, actor model.Actor, id string) error {
	program, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !program.IsActive {
		return apperror.InvalidState("program is already inactive")
	}

	program.IsActive = false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, program); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeactivateProgram, program.ID.String(), program.Code, nil)
	})
	if err != nil {
		return apperror.Internal("failed to deactivate program", err)
	}
	return nil
}
