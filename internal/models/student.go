package models

import "time"

// Student is a directory record for a learner (stored in the children collection).
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ParentName *string   `json:"parentName,omitempty"`
	Timezone   string    `json:"timezone,omitempty"`
	IsActive   *bool     `json:"isActive,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Active reports the tri-state active flag.
func (s Student) Active() bool { return IsActive(s.IsActive) }

// UpsertStudentRequest seeds or updates a directory student.
type UpsertStudentRequest struct {
	Name       string  `json:"name" validate:"required"`
	ParentName *string `json:"parentName"`
	Timezone   string  `json:"timezone"`
	IsActive   *bool   `json:"isActive"`
}
