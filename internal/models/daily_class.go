package models

import "time"

// ClassStatus is the lifecycle state of a daily class.
type ClassStatus string

const (
	StatusScheduled   ClassStatus = "scheduled"
	StatusRunning     ClassStatus = "running"
	StatusTaken       ClassStatus = "taken"
	StatusAbsent      ClassStatus = "absent"
	StatusLeave       ClassStatus = "leave"
	StatusDeclined    ClassStatus = "declined"
	StatusSuspended   ClassStatus = "suspended"
	StatusRescheduled ClassStatus = "rescheduled"
	StatusRefused     ClassStatus = "refused"
	StatusTrial       ClassStatus = "trial"
	StatusAdvance     ClassStatus = "advance"
)

// ClassStatuses lists every status in display order.
var ClassStatuses = []ClassStatus{
	StatusScheduled, StatusRunning, StatusTaken, StatusAbsent, StatusLeave, StatusDeclined,
	StatusSuspended, StatusRescheduled, StatusRefused, StatusTrial, StatusAdvance,
}

// Valid reports whether s is a known status.
func (s ClassStatus) Valid() bool {
	for _, known := range ClassStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// InitialStatus reports whether a class may be created in status s.
func (s ClassStatus) InitialStatus() bool {
	return s == StatusScheduled || s == StatusTrial || s == StatusAdvance
}

// DailyClass is one dated class occurrence. AppointmentDate, AppointmentTime,
// StartTime and EndTime are UTC values.
type DailyClass struct {
	ID              string      `json:"id"`
	WeeklyClassID   *string     `json:"weeklyClassId,omitempty"`
	AdvanceClassID  *string     `json:"advanceClassId,omitempty"`
	TeacherID       string      `json:"teacherId"`
	StudentID       string      `json:"studentId"`
	CourseID        *string     `json:"courseId,omitempty"`
	CourseName      *string     `json:"courseName,omitempty"`
	Subject         *string     `json:"subject,omitempty"`
	AppointmentDate string      `json:"appointmentDate"`
	AppointmentTime string      `json:"appointmentTime"`
	StartTime       string      `json:"startTime,omitempty"`
	EndTime         string      `json:"endTime,omitempty"`
	Duration        int         `json:"duration"`
	Status          ClassStatus `json:"status"`
	History         []string    `json:"history"`
	IsActive        *bool       `json:"isActive,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
	OnlineTime      *time.Time  `json:"onlineTime,omitempty"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	ZoomLink        *string     `json:"zoomLink,omitempty"`
	Rating          *int        `json:"rating,omitempty"`
	Feedback        *string     `json:"feedback,omitempty"`
}

// Active reports the tri-state active flag.
func (d DailyClass) Active() bool { return IsActive(d.IsActive) }

// DailyClassFilter selects classes by UTC date range, status, course and participants.
type DailyClassFilter struct {
	From            string
	To              string
	Statuses        []ClassStatus
	CourseID        string
	TeacherID       string
	StudentID       string
	WeeklyClassID   string
	IncludeInactive bool
}

// DailyClassView is a class as shown to a viewer: names resolved from the
// directory and date/time converted into the viewer timezone.
type DailyClassView struct {
	DailyClass
	TeacherName   string `json:"teacherName"`
	StudentName   string `json:"studentName"`
	LocalDate     string `json:"localDate"`
	LocalTime     string `json:"localTime"`
	Timezone      string `json:"timezone"`
	TimezoneLabel string `json:"timezoneLabel"`
}

// CreateDailyClassRequest describes an ad hoc class. Date and Time are local
// wall-clock values in Timezone.
type CreateDailyClassRequest struct {
	TeacherID      string  `json:"teacherId" validate:"required"`
	StudentID      string  `json:"studentId" validate:"required"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string  `json:"time" validate:"required,datetime=15:04"`
	Timezone       string  `json:"timezone"`
	Duration       int     `json:"duration" validate:"omitempty,min=1,max=720"`
	Status         string  `json:"status" validate:"omitempty,oneof=scheduled trial advance"`
	CourseID       *string `json:"courseId"`
	CourseName     *string `json:"courseName"`
	Subject        *string `json:"subject"`
	ZoomLink       *string `json:"zoomLink"`
	Notes          *string `json:"notes"`
	WeeklyClassID  *string `json:"weeklyClassId"`
	AdvanceClassID *string `json:"-"`
}

// TransitionRequest moves a class to a new status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateDailyClassRequest edits the free-form details of a class.
type UpdateDailyClassRequest struct {
	Notes    *string `json:"notes"`
	ZoomLink *string `json:"zoomLink" validate:"omitempty,url"`
}

// FeedbackRequest records the post-class rating.
type FeedbackRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// ExpandRequest asks for templates to be materialised over a local date window.
type ExpandRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// ExpansionResult summarises one expansion run.
type ExpansionResult struct {
	From              string   `json:"from"`
	To                string   `json:"to"`
	Created           int      `json:"created"`
	SkippedHolidays   int      `json:"skippedHolidays"`
	SkippedDuplicates int      `json:"skippedDuplicates"`
	SkippedInvalid    int      `json:"skippedInvalid"`
	CreatedIDs        []string `json:"createdIds,omitempty"`
}
