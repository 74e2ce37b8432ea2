package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor holds payee bank details for cash requests. Vendors are either
// managed by admins or auto-created when a cash request names one that does
// not exist yet (matched case-insensitively by name).
type Vendor struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null;index" json:"name"`
	BankName      string         `gorm:"type:varchar(255);not null" json:"bank_name"`
	AccountNumber string         `gorm:"type:varchar(100);not null" json:"account_number"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
