package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// DTOs for Request validation
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetProgramAccessRequest struct {
	ProgramIDs []string `json:"program_ids" binding:"required"`
}

// TokenPair carries both tokens; the handler decides whether to return them
// in the body or as cookies.
type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}

// UserService defines the interface for business logic related to User and auth
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)
	UpdateUser(ctx context.Context, actor model.Actor, id string, req UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actor model.Actor, id string) error
	GetProgramAccess(ctx context.Context, id string) ([]model.Program, error)
	SetProgramAccess(ctx context.Context, actor model.Actor, id string, req SetProgramAccessRequest) (*model.User, error)
}

type userService struct {
	repo        repository.UserRepository
	programRepo repository.ProgramRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	programRepo repository.ProgramRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) UserService {
	return &userService{repo: repo, programRepo: programRepo, auditRepo: auditRepo, txManager: txManager}
}

// Use same fallback strategy as middleware so both sides agree on the key.
func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return []byte(secret)
}

func signAccessToken(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"name": user.Name,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret())
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := signAccessToken(user)
	if err != nil {
		return nil, apperror.Internal("failed to generate token", err)
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, apperror.Internal("failed to store refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token, User: user}, nil
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	if _, ok := model.ParseRole(req.Role); !ok {
		return nil, apperror.Validation("invalid role: must be admin, finance, or user")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := &model.User{
		Email:    email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Role:     req.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	// Opportunistic cleanup; login is still fine if this fails.
	_ = s.repo.DeleteExpiredRefreshTokens(ctx)

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token: the presented token is consumed and a
// fresh pair is issued.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthenticated("refresh token is required")
	}

	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperror.Unauthenticated("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.Unauthenticated("user no longer exists")
	}

	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperror.Internal("failed to rotate refresh token", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return apperror.Internal("failed to revoke refresh token", err)
	}
	return nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}
	user, err := s.repo.GetByIDWithPrograms(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal("failed to fetch users", err)
	}
	return users, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor model.Actor, id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != "" {
		if _, ok := model.ParseRole(req.Role); !ok {
			return nil, apperror.Validation("invalid role: must be admin, finance, or user")
		}
		user.Role = req.Role
	}

	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email != user.Email {
			if _, lookupErr := s.repo.GetByEmail(ctx, email); lookupErr == nil {
				return nil, apperror.Conflict("email already exists")
			}
			user.Email = email
		}
	}

	if req.Name != "" {
		user.Name = req.Name
	}

	if req.Password != "" {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, apperror.Internal("failed to hash password", hashErr)
		}
		user.Password = string(hashed)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.repo.Update(txCtx, user); updateErr != nil {
			return updateErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateUser, user.ID.String(), user.Email, nil)
	})
	if err != nil {
		return nil, apperror.Internal("failed to update user", err)
	}

	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor model.Actor, id string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return apperror.Validation("you cannot delete your own account")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.repo.Delete(txCtx, user.ID); deleteErr != nil {
			return deleteErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteUser, user.ID.String(), user.Email, nil)
	})
	if err != nil {
		return apperror.Internal("failed to delete user", err)
	}
	return nil
}

func (s *userService) GetProgramAccess(ctx context.Context, id string) ([]model.Program, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ProgramAccess, nil
}

// SetProgramAccess replaces the user's accessible-program set wholesale.
// Unknown or inactive program ids are silently dropped rather than rejected.
func (s *userService) SetProgramAccess(ctx context.Context, actor model.Actor, id string, req SetProgramAccessRequest) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.ProgramIDs))
	for _, raw := range req.ProgramIDs {
		programID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, apperror.Validation("invalid program id: " + raw)
		}
		ids = append(ids, programID)
	}

	programs, err := s.programRepo.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("failed to load programs", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if replaceErr := s.repo.ReplaceProgramAccess(txCtx, user, programs); replaceErr != nil {
			return replaceErr
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionSetProgramAccess, user.ID.String(), user.Email, map[string]interface{}{
			"program_count": len(programs),
		})
	})
	if err != nil {
		return nil, apperror.Internal("failed to set program access", err)
	}

	user.ProgramAccess = programs
	return user, nil
}
