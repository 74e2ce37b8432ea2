package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreatePurchaseRequest  = "CREATE_PURCHASE_REQUEST"
	ActionUpdatePurchaseRequest  = "UPDATE_PURCHASE_REQUEST"
	ActionApprovePurchaseRequest = "APPROVE_PURCHASE_REQUEST"
	ActionRejectPurchaseRequest  = "REJECT_PURCHASE_REQUEST"
	ActionDeletePurchaseRequest  = "DELETE_PURCHASE_REQUEST"
	ActionCommentPurchaseRequest = "COMMENT_PURCHASE_REQUEST"

	ActionCreateCashRequest  = "CREATE_CASH_REQUEST"
	ActionUpdateCashRequest  = "UPDATE_CASH_REQUEST"
	ActionApproveCashRequest = "APPROVE_CASH_REQUEST"
	ActionRejectCashRequest  = "REJECT_CASH_REQUEST"
	ActionDeleteCashRequest  = "DELETE_CASH_REQUEST"

	ActionCreateProgram     = "CREATE_PROGRAM"
	ActionUpdateProgram     = "UPDATE_PROGRAM"
	ActionDeactivateProgram = "DEACTIVATE_PROGRAM"

	ActionCreateVendor = "CREATE_VENDOR"
	ActionUpdateVendor = "UPDATE_VENDOR"
	ActionDeleteVendor = "DELETE_VENDOR"

	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionSetProgramAccess = "SET_PROGRAM_ACCESS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/pr number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
