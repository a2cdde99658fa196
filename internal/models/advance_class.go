package models

import "time"

// AdvanceStatus is the lifecycle of a make-up booking.
type AdvanceStatus string

const (
	AdvanceScheduled AdvanceStatus = "scheduled"
	AdvanceCompleted AdvanceStatus = "completed"
	AdvanceCancelled AdvanceStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s AdvanceStatus) Terminal() bool {
	return s == AdvanceCompleted || s == AdvanceCancelled
}

// AdvanceClass is a one-off make-up tied to a weekly template. ScheduledDate and
// ScheduledTime are local to the template timezone.
type AdvanceClass struct {
	ID            string        `json:"id"`
	WeeklyClassID string        `json:"weeklyClassId"`
	DailyClassID  *string       `json:"dailyClassId,omitempty"`
	ScheduledDate string        `json:"scheduledDate"`
	ScheduledTime string        `json:"scheduledTime"`
	Reason        *string       `json:"reason,omitempty"`
	Status        AdvanceStatus `json:"status"`
	TeacherName   string        `json:"teacherName"`
	StudentName   string        `json:"studentName"`
	Subject       string        `json:"subject"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     *time.Time    `json:"updatedAt,omitempty"`
}

// AdvanceClassFilter narrows make-up listings.
type AdvanceClassFilter struct {
	WeeklyClassID string
	Status        AdvanceStatus
}

// ScheduleAdvanceRequest books a make-up class.
type ScheduleAdvanceRequest struct {
	WeeklyClassID string  `json:"weeklyClassId" validate:"required"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string  `json:"time" validate:"required,datetime=15:04"`
	Reason        *string `json:"reason"`
}
