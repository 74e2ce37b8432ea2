package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CRItem is a single line of a cash request.
type CRItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	CashRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Description   string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"` // quantity * price
}

// CashRequest is a request for a cash disbursement to a vendor, requiring
// finance approval. Tax is a deduction from the subtotal (withholding-style),
// not an addition.
type CashRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID   uuid.UUID `gorm:"type:uuid;not null;index" json:"program_id"`
	Program     *Program  `gorm:"foreignKey:ProgramID" json:"-"`
	ProgramName string    `gorm:"type:varchar(255);not null" json:"program_name"`
	ProgramCode string    `gorm:"type:varchar(10);not null" json:"program_code"`

	ActivityName string `gorm:"type:varchar(255);not null" json:"activity_name"`

	// Vendor linkage. Details are denormalized so the payment record survives
	// later vendor edits.
	VendorID      *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id,omitempty"`
	Vendor        *Vendor    `gorm:"foreignKey:VendorID" json:"-"`
	VendorName    string     `gorm:"type:varchar(255);not null" json:"vendor_name"`
	BankName      string     `gorm:"type:varchar(255);not null" json:"bank_name"`
	AccountNumber string     `gorm:"type:varchar(100);not null" json:"account_number"`

	Items []CRItem `gorm:"foreignKey:CashRequestID;constraint:OnDelete:CASCADE" json:"items"`

	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"` // subtotal - tax_amount
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	TaxPercentage decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_percentage"`
	UseTax        bool            `gorm:"not null;default:false" json:"use_tax"`

	// Legacy free-form fields from pre-itemized cash requests. Still editable
	// by the creator while pending.
	Amount      *decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount,omitempty"`
	Description string           `gorm:"type:text" json:"description,omitempty"`

	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedByName   string     `gorm:"type:varchar(255);not null" json:"created_by_name"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedByName  string     `gorm:"type:varchar(255)" json:"approved_by_name,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
