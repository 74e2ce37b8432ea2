package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceService produces unique, human-readable PR numbers per program per
// calendar year: {CODE}-{YYYY}-{NNNN}, e.g. ATLAS-2026-0001.
type SequenceService interface {
	// Generate assigns and persists the next PR number for the program.
	// The counter advance is committed before Generate returns, even if the
	// caller's subsequent document save fails — a crash in between leaks a
	// counter value rather than risking a duplicate.
	Generate(ctx context.Context, programID string) (string, error)
	// Preview computes the number Generate would assign next, without
	// persisting anything. Best-effort under concurrent access.
	Preview(ctx context.Context, programID string) (string, error)
}

type sequenceService struct {
	programRepo repository.ProgramRepository
	txManager   repository.TransactionManager
}

// NewSequenceService returns a new instance of SequenceService
func NewSequenceService(programRepo repository.ProgramRepository, txManager repository.TransactionManager) SequenceService {
	return &sequenceService{programRepo: programRepo, txManager: txManager}
}

// FormatPRNumber renders the document-number contract. The counter is
// zero-padded to 4 digits and simply widens beyond 9999.
func FormatPRNumber(code string, year, counter int) string {
	return fmt.Sprintf("%s-%d-%04d", code, year, counter)
}

func (s *sequenceService) Generate(ctx context.Context, programID string) (string, error) {
	id, err := uuid.Parse(programID)
	if err != nil {
		return "", apperror.Validation("invalid program id")
	}

	year := time.Now().Year()

	var program *model.Program
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Single conditional update plus same-transaction read-back; the
		// increment-or-reset expression runs server-side so concurrent
		// callers serialize on the program row.
		program, err = s.programRepo.IncrementPRCounter(txCtx, id, year)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("program not found or inactive")
		}
		return "", apperror.Internal("failed to advance PR counter", err)
	}

	return FormatPRNumber(program.Code, year, program.PRCounter), nil
}

func (s *sequenceService) Preview(ctx context.Context, programID string) (string, error) {
	id, err := uuid.Parse(programID)
	if err != nil {
		return "", apperror.Validation("invalid program id")
	}

	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("program not found")
		}
		return "", apperror.Internal("failed to load program", err)
	}

	year := time.Now().Year()
	next := 1
	if program.PRCounterYear == year {
		next = program.PRCounter + 1
	}

	return FormatPRNumber(program.Code, year, next), nil
}
