package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

// SelfTeacher lets a TEACHER through when the :id route parameter is their own
// teacher id.
const SelfTeacher = "SELF_TEACHER"

// SelfStudent lets a PARENT or STUDENT through when the :id route parameter is
// one of the students on their token.
const SelfStudent = "SELF_STUDENT"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowTeacher := false
	allowStudent := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		switch a {
		case SelfTeacher:
			allowTeacher = true
		case SelfStudent:
			allowStudent = true
		default:
			allowedRoles[models.UserRole(a)] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		targetID := c.Param("id")
		if allowTeacher && claims.Role == models.RoleTeacher && targetID != "" && targetID == claims.TeacherID {
			c.Next()
			return
		}
		if allowStudent && (claims.Role == models.RoleParent || claims.Role == models.RoleStudent) {
			for _, id := range claims.StudentIDs {
				if targetID != "" && id == targetID {
					c.Next()
					return
				}
			}
		}

		response.Error(c, appErrors.ErrForbidden)
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
