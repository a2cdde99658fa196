package models

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleParent  UserRole = "PARENT"
	RoleStudent UserRole = "STUDENT"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// IsActive treats a missing flag as active; only an explicit false is inactive.
func IsActive(flag *bool) bool {
	return flag == nil || *flag
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
