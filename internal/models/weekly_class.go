package models

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek names a recurrence day, Monday through Sunday.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

var weekdays = map[DayOfWeek]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ParseDayOfWeek accepts a day name in any letter case.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	raw = strings.TrimSpace(raw)
	for day := range weekdays {
		if strings.EqualFold(string(day), raw) {
			return day, nil
		}
	}
	return "", fmt.Errorf("unknown day of week %q", raw)
}

// Weekday converts the day into the time package representation.
func (d DayOfWeek) Weekday() (time.Weekday, bool) {
	w, ok := weekdays[d]
	return w, ok
}

// WeeklyClass is a recurring class template. StartTime and EndTime are local
// wall-clock values in Timezone.
type WeeklyClass struct {
	ID          string     `json:"id"`
	TeacherID   string     `json:"teacherId"`
	TeacherName string     `json:"teacherName"`
	StudentID   string     `json:"studentId"`
	StudentName string     `json:"studentName"`
	DayOfWeek   DayOfWeek  `json:"dayOfWeek"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	Timezone    string     `json:"timezone"`
	Subject     string     `json:"subject"`
	CourseID    *string    `json:"courseId,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Active reports the tri-state active flag.
func (w WeeklyClass) Active() bool { return IsActive(w.IsActive) }

// WeeklyClassFilter narrows template listings.
type WeeklyClassFilter struct {
	TeacherID       string
	StudentID       string
	DayOfWeek       DayOfWeek
	IncludeInactive bool
}

// CreateWeeklyClassRequest is the payload for a new template.
type CreateWeeklyClassRequest struct {
	TeacherID string  `json:"teacherId" validate:"required"`
	StudentID string  `json:"studentId" validate:"required"`
	DayOfWeek string  `json:"dayOfWeek" validate:"required"`
	StartTime string  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string  `json:"endTime" validate:"required,datetime=15:04"`
	Timezone  string  `json:"timezone"`
	Subject   string  `json:"subject" validate:"required"`
	CourseID  *string `json:"courseId"`
}

// UpdateWeeklyClassRequest changes any subset of template fields.
type UpdateWeeklyClassRequest struct {
	TeacherID *string `json:"teacherId"`
	StudentID *string `json:"studentId"`
	DayOfWeek *string `json:"dayOfWeek"`
	StartTime *string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"endTime" validate:"omitempty,datetime=15:04"`
	Timezone  *string `json:"timezone"`
	Subject   *string `json:"subject"`
	CourseID  *string `json:"courseId"`
	IsActive  *bool   `json:"isActive"`
}
