package service

import (
	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
)

// permission enumerates the role-gated operations of the portal.
type permission int

const (
	permCreatePurchaseRequest permission = iota
	permCreateCashRequest
	permReviewRequests // approve/reject PRs and CRs
	permCommentRequests
	permManageUsers
	permManagePrograms
	permManageVendors
)

// rolePermissions is the closed permission table consulted by every
// transition. Note the asymmetries it encodes: admins administer the system
// but hold no rights over documents (they cannot even create a cash
// request), and finance can raise cash requests but not purchase requests.
var rolePermissions = map[model.Role]map[permission]bool{
	model.RoleAdmin: {
		permManageUsers:    true,
		permManagePrograms: true,
		permManageVendors:  true,
	},
	model.RoleFinance: {
		permCreateCashRequest: true,
		permReviewRequests:    true,
		permCommentRequests:   true,
	},
	model.RoleUser: {
		permCreatePurchaseRequest: true,
		permCreateCashRequest:     true,
		permCommentRequests:       true,
	},
}

func roleCan(role model.Role, p permission) bool {
	return rolePermissions[role][p]
}

// ensureCreator gates owner-only mutations (edit, delete, user-role reads).
func ensureCreator(actor model.Actor, createdBy uuid.UUID, msg string) error {
	if actor.UserID != createdBy {
		return apperror.Forbidden(msg)
	}
	return nil
}

// ensurePending gates transitions that only apply to pending documents.
func ensurePending(status, msg string) error {
	if status != model.StatusPending {
		return apperror.InvalidState(msg)
	}
	return nil
}
