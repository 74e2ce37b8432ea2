package service

import (
	"context"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
)

// AccessResolver answers which programs an actor may act on. Admins have
// implicit access to everything; other roles are limited to their assigned
// program-access set.
type AccessResolver interface {
	// AccessiblePrograms returns the actor's program ids. A nil slice means
	// "no restriction" (admin); an empty non-nil slice means no access at all.
	AccessiblePrograms(ctx context.Context, actor model.Actor) ([]uuid.UUID, error)
	// HasAccess reports whether the actor may act on the given program.
	HasAccess(ctx context.Context, actor model.Actor, programID uuid.UUID) (bool, error)
}

type accessResolver struct {
	userRepo repository.UserRepository
}

func NewAccessResolver(userRepo repository.UserRepository) AccessResolver {
	return &accessResolver{userRepo: userRepo}
}

func (a *accessResolver) AccessiblePrograms(ctx context.Context, actor model.Actor) ([]uuid.UUID, error) {
	if actor.Role == model.RoleAdmin {
		return nil, nil
	}

	user, err := a.userRepo.GetByIDWithPrograms(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Internal("failed to resolve program access", err)
	}

	ids := make([]uuid.UUID, 0, len(user.ProgramAccess))
	for _, p := range user.ProgramAccess {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (a *accessResolver) HasAccess(ctx context.Context, actor model.Actor, programID uuid.UUID) (bool, error) {
	ids, err := a.AccessiblePrograms(ctx, actor)
	if err != nil {
		return false, err
	}
	if ids == nil {
		return true, nil
	}
	for _, id := range ids {
		if id == programID {
			return true, nil
		}
	}
	return false, nil
}
