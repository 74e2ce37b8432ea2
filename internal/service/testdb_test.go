package service

import (
	"context"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database. The pool is pinned to a
// single connection so every goroutine shares the same memory database and
// concurrent transactions serialize instead of tripping SQLITE_BUSY.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Program{},
		&model.Vendor{},
		&model.PurchaseRequest{},
		&model.PRItem{},
		&model.PRComment{},
		&model.CashRequest{},
		&model.CRItem{},
		&model.AuditLog{},
	))

	return db
}

// --- seed helpers ---

func seedUser(t *testing.T, db *gorm.DB, role model.Role, programs ...model.Program) *model.User {
	t.Helper()
	user := &model.User{
		Email:         uuid.NewString() + "@example.com",
		Password:      "x",
		Name:          "Test " + string(role),
		Role:          string(role),
		ProgramAccess: programs,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProgram(t *testing.T, db *gorm.DB, name, code string) *model.Program {
	t.Helper()
	program := &model.Program{
		Name:          name,
		Code:          code,
		IsActive:      true,
		PRCounterYear: time.Now().Year(),
	}
	require.NoError(t, db.Create(program).Error)
	return program
}

func actorFor(user *model.User) model.Actor {
	return model.Actor{UserID: user.ID, Name: user.Name, Role: model.Role(user.Role)}
}

// --- service fixtures ---

type fixture struct {
	db        *gorm.DB
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	access    AccessResolver

	sequence SequenceService
	prs      PurchaseRequestService
	crs      CashRequestService
	programs ProgramService
	vendors  VendorService
	users    UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	prRepo := repository.NewPurchaseRequestRepository(db)
	crRepo := repository.NewCashRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	access := NewAccessResolver(userRepo)
	sequence := NewSequenceService(programRepo, txManager)

	return &fixture{
		db:        db,
		txManager: txManager,
		userRepo:  userRepo,
		access:    access,
		sequence:  sequence,
		prs:       NewPurchaseRequestService(prRepo, programRepo, auditRepo, access, sequence, txManager, nil),
		crs:       NewCashRequestService(crRepo, programRepo, vendorRepo, auditRepo, access, txManager, nil),
		programs:  NewProgramService(programRepo, access, auditRepo, txManager),
		vendors:   NewVendorService(vendorRepo, auditRepo, txManager),
		users:     NewUserService(userRepo, programRepo, auditRepo, txManager),
	}
}

func (f *fixture) ctx() context.Context {
	return context.Background()
}
