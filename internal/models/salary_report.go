package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryReport is an immutable per-teacher monthly pay aggregate.
type SalaryReport struct {
	ID               string          `json:"id,omitempty"`
	TeacherID        string          `json:"teacherId"`
	TeacherName      string          `json:"teacherName"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	TotalClasses     int             `json:"totalClasses"`
	CompletedClasses int             `json:"completedClasses"`
	TotalHours       decimal.Decimal `json:"totalHours"`
	RatePerHour      decimal.Decimal `json:"ratePerHour"`
	TotalSalary      decimal.Decimal `json:"totalSalary"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// SalaryReportFilter narrows report listings. Zero values match everything.
type SalaryReportFilter struct {
	TeacherID string
	Month     int
	Year      int
}

// GenerateSalaryRequest selects the period to aggregate.
type GenerateSalaryRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
}

// ExportSalaryRequest renders the reports of a period to a downloadable file.
type ExportSalaryRequest struct {
	Month     int    `json:"month" validate:"required,min=1,max=12"`
	Year      int    `json:"year" validate:"required,min=2000,max=2100"`
	TeacherID string `json:"teacherId"`
	Format    string `json:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// ExportResult points at a rendered export through a signed URL.
type ExportResult struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
