package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(claims *models.JWTClaims, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(stubValidator{claims: claims})}, guards...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/teachers/:id", handlers...)
	return r
}

func do(r *gin.Engine, path, auth string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newRouter(&models.JWTClaims{Role: models.RoleAdmin})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/teachers/T1", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/teachers/T1", "Basic good"))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/teachers/T1", "Bearer bad"))
	assert.Equal(t, http.StatusOK, do(r, "/teachers/T1", "Bearer good"))
}

func TestStreamJWTAcceptsQueryToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stream", StreamJWT(stubValidator{claims: &models.JWTClaims{Role: models.RoleAdmin}}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, do(r, "/stream?access_token=good", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/stream?access_token=bad", ""))
}

func TestRBACRolesAndSelf(t *testing.T) {
	teacher := &models.JWTClaims{Role: models.RoleTeacher, TeacherID: "T1"}
	r := newRouter(teacher, RBAC(string(models.RoleAdmin), SelfTeacher))
	assert.Equal(t, http.StatusOK, do(r, "/teachers/T1", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, do(r, "/teachers/T2", "Bearer good"))

	parent := &models.JWTClaims{Role: models.RoleParent, StudentIDs: []string{"S1", "S2"}}
	r = newRouter(parent, RBAC(string(models.RoleAdmin), SelfStudent))
	assert.Equal(t, http.StatusOK, do(r, "/teachers/S2", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, do(r, "/teachers/S3", "Bearer good"))

	admin := &models.JWTClaims{Role: models.RoleAdmin}
	r = newRouter(admin, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, do(r, "/teachers/anything", "Bearer good"))
}
