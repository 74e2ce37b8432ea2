package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document status enum constants, shared by purchase and cash requests.
// pending is the only state with outgoing transitions; approved and
// rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PRItem is a single line of a purchase request.
type PRItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	PurchaseRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Item              string          `gorm:"type:varchar(255);not null" json:"item"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	Unit              string          `gorm:"type:varchar(50);not null" json:"unit"`
	Price             decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"` // quantity * price
}

// PRComment is a remark left on a purchase request by its creator or by
// finance. Comments live in their own table so appending one never rewrites
// (or re-validates) the parent document — legacy requests created before
// newer required fields existed survive untouched.
type PRComment struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	PurchaseRequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	CommentedBy       uuid.UUID `gorm:"type:uuid;not null" json:"commented_by"`
	CommentedByName   string    `gorm:"type:varchar(255);not null" json:"commented_by_name"`
	CommentedByRole   string    `gorm:"type:varchar(20);not null" json:"commented_by_role"`
	Comment           string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// PurchaseRequest is a request to buy goods/services, requiring finance
// approval. Program name and code are denormalized at creation so printed
// documents stay stable if the program is later renamed.
type PurchaseRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID   uuid.UUID `gorm:"type:uuid;not null;index" json:"program_id"`
	Program     *Program  `gorm:"foreignKey:ProgramID" json:"-"`
	ProgramName string    `gorm:"type:varchar(255);not null" json:"program_name"`
	ProgramCode string    `gorm:"type:varchar(10);not null" json:"program_code"`

	ActivityName string `gorm:"type:varchar(255);not null" json:"activity_name"`
	Department   string `gorm:"type:varchar(255);not null" json:"department"`
	Budgeted     bool   `gorm:"not null;default:false" json:"budgeted"`
	CostingTo    string `gorm:"type:varchar(255);not null" json:"costing_to"`
	PRNumber     string `gorm:"column:pr_number;type:varchar(30);uniqueIndex;not null" json:"pr_number"`

	Items []PRItem `gorm:"foreignKey:PurchaseRequestID;constraint:OnDelete:CASCADE" json:"items"`

	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedByName string     `gorm:"type:varchar(255);not null" json:"created_by_name"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedByName string    `gorm:"type:varchar(255)" json:"approved_by_name,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	RejectionReason string   `gorm:"type:text" json:"rejection_reason,omitempty"`

	Comments          []PRComment `gorm:"foreignKey:PurchaseRequestID;constraint:OnDelete:CASCADE" json:"comments"`
	RevisionRequested bool        `gorm:"not null;default:false" json:"revision_requested"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
