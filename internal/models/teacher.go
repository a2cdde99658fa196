package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Teacher is a directory record for an instructor.
type Teacher struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email,omitempty"`
	Phone      *string         `json:"phone,omitempty"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Timezone   string          `json:"timezone,omitempty"`
	IsActive   *bool           `json:"isActive,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Active reports the tri-state active flag.
func (t Teacher) Active() bool { return IsActive(t.IsActive) }

// UpsertTeacherRequest seeds or updates a directory teacher.
type UpsertTeacherRequest struct {
	Name       string          `json:"name" validate:"required"`
	Email      string          `json:"email" validate:"omitempty,email"`
	Phone      *string         `json:"phone"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	Timezone   string          `json:"timezone"`
	IsActive   *bool           `json:"isActive"`
}
