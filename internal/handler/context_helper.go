package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/middleware"
	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

// TimezoneHeader lets clients state their display timezone without a query parameter.
const TimezoneHeader = "X-Timezone"

// jobEnqueuer hands work to the background queue. Handlers fall back to running
// synchronously when it is nil.
type jobEnqueuer interface {
	Enqueue(jobType string, payload interface{}) (string, error)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// viewerZone picks the display timezone: ?tz, then X-Timezone, then the token.
// The choice is echoed in the response meta; empty means the academy default.
func viewerZone(c *gin.Context) string {
	zone := requestedZone(c)
	middleware.SetViewerTimezone(c, zone)
	return zone
}

func requestedZone(c *gin.Context) string {
	if tz := strings.TrimSpace(c.Query("tz")); tz != "" {
		return tz
	}
	if tz := strings.TrimSpace(c.GetHeader(TimezoneHeader)); tz != "" {
		return tz
	}
	if claims := claimsFromContext(c); claims != nil {
		return claims.Timezone
	}
	return ""
}

// scopeParticipants narrows a teacher/student pair to what the caller may see.
// Admins pass through unchanged.
func scopeParticipants(c *gin.Context, teacherID, studentID *string) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if claims.TeacherID == "" {
			return appErrors.ErrForbidden
		}
		if *teacherID != "" && *teacherID != claims.TeacherID {
			return appErrors.ErrForbidden
		}
		*teacherID = claims.TeacherID
		return nil
	case models.RoleParent, models.RoleStudent:
		if *studentID == "" {
			switch len(claims.StudentIDs) {
			case 0:
				return appErrors.ErrForbidden
			case 1:
				*studentID = claims.StudentIDs[0]
				return nil
			default:
				return appErrors.Clone(appErrors.ErrValidation, "studentId is required")
			}
		}
		if !containsString(claims.StudentIDs, *studentID) {
			return appErrors.ErrForbidden
		}
		return nil
	}
	return appErrors.ErrForbidden
}

// canAccessClass reports whether the caller is a participant of the class.
func canAccessClass(c *gin.Context, teacherID, studentID string) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		return false
	}
	switch claims.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return claims.TeacherID != "" && claims.TeacherID == teacherID
	case models.RoleParent, models.RoleStudent:
		return containsString(claims.StudentIDs, studentID)
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

// monthYear reads ?month and ?year, both required.
func monthYear(c *gin.Context) (int, int, error) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year must be between 2000 and 2100")
	}
	return month, year, nil
}

func bindError(err error, msg string) error {
	return appErrors.Validation(err, msg)
}
