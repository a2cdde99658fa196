package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"

	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
	MetaTimezone       = "timezone"
)

// WithResponseMeta attaches a metadata map to the request. Handlers fill it
// through the setters below and pass ExtractMeta to the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		c.Set(responseMetaKey, meta)
		c.Next()
		if _, ok := meta[MetaProcessingTime]; !ok {
			meta[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the response was served from the report cache.
func SetCacheHit(c *gin.Context, hit bool) {
	setMeta(c, MetaCacheHit, hit)
}

// SetViewerTimezone records the zone local dates and times were rendered in.
func SetViewerTimezone(c *gin.Context, zone string) {
	if zone == "" {
		return
	}
	setMeta(c, MetaTimezone, zone)
}

// ExtractMeta returns the request's metadata map, or nil when none was attached.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := raw.(map[string]interface{})
	return meta
}

func setMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta := ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}
