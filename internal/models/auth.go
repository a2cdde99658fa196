package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of access tokens issued by the identity provider.
// TeacherID and StudentIDs scope TEACHER, PARENT and STUDENT callers to their own classes.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	TeacherID  string   `json:"teacher_id,omitempty"`
	StudentIDs []string `json:"student_ids,omitempty"`
	Timezone   string   `json:"timezone,omitempty"`
	jwt.RegisteredClaims
}
