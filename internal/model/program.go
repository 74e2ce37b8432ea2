package model

import (
	"time"

	"github.com/google/uuid"
)

// Program is an organizational/budget grouping that scopes PR numbering and
// access control. Deactivation is a soft delete: inactive programs keep their
// history but reject new documents.
type Program struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Code        string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"` // 3-10 alphanumeric, uppercased
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`

	// PR numbering state. The pair is only ever mutated together, by a single
	// server-side conditional update — never read-modify-write from the app.
	PRCounter     int `gorm:"column:pr_counter;not null;default:0" json:"pr_counter"`
	PRCounterYear int `gorm:"column:pr_counter_year;not null" json:"pr_counter_year"`

	CreatedBy     uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedByName string    `gorm:"type:varchar(255)" json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
