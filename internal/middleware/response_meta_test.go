package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseMetaCollectsCacheAndTimezone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/reports/daily", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetViewerTimezone(c, "Asia/Riyadh")
		SetViewerTimezone(c, "")
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/daily", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, true, meta[MetaCacheHit])
	assert.Equal(t, "Asia/Riyadh", meta[MetaTimezone])
}

func TestResponseMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
	assert.Nil(t, ExtractMeta(nil))

	SetViewerTimezone(c, "Europe/London")
	assert.Equal(t, "Europe/London", ExtractMeta(c)[MetaTimezone])
}
