package repository

import (
	"context"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgramRepository defines the interface for data access of Program entities
type ProgramRepository interface {
	Create(ctx context.Context, program *model.Program) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Program, error)
	GetByNameOrCode(ctx context.Context, name, code string) (*model.Program, error)
	ListActive(ctx context.Context) ([]model.Program, error)
	ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Program, error)
	Update(ctx context.Context, program *model.Program) error
	IncrementPRCounter(ctx context.Context, id uuid.UUID, year int) (*model.Program, error)
}

type programRepository struct {
	db *gorm.DB
}

// NewProgramRepository returns a new instance of ProgramRepository
func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) Create(ctx context.Context, program *model.Program) error {
	return GetDB(ctx, r.db).Create(program).Error
}

func (r *programRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Program, error) {
	var program model.Program
	if err := GetDB(ctx, r.db).First(&program, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepository) GetByNameOrCode(ctx context.Context, name, code string) (*model.Program, error) {
	var program model.Program
	if err := GetDB(ctx, r.db).First(&program, "name = ? OR code = ?", name, code).Error; err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepository) ListActive(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("name ASC").Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *programRepository) ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Program, error) {
	programs := make([]model.Program, 0, len(ids))
	if len(ids) == 0 {
		return programs, nil
	}
	if err := GetDB(ctx, r.db).
		Where("id IN ? AND is_active = ?", ids, true).
		Order("name ASC").
		Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *programRepository) Update(ctx context.Context, program *model.Program) error {
	return GetDB(ctx, r.db).Save(program).Error
}

// IncrementPRCounter advances the program's (pr_counter, pr_counter_year)
// pair in one server-side conditional update: same year increments, a year
// change resets to 1. The expression is evaluated by the database, so
// concurrent callers serialize on the row and never observe a lost update.
// The row is re-read inside the same transaction to return the value this
// caller's update produced. Returns gorm.ErrRecordNotFound if the program
// does not exist or is inactive.
func (r *programRepository) IncrementPRCounter(ctx context.Context, id uuid.UUID, year int) (*model.Program, error) {
	db := GetDB(ctx, r.db)

	res := db.Model(&model.Program{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"pr_counter":      gorm.Expr("CASE WHEN pr_counter_year = ? THEN pr_counter + 1 ELSE 1 END", year),
			"pr_counter_year": year,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var program model.Program
	if err := db.First(&program, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &program, nil
}
