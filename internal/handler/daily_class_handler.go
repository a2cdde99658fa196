package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/middleware"
	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/internal/service"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

const streamKeepAlive = 25 * time.Second

type dailyClassService interface {
	List(ctx context.Context, filter models.DailyClassFilter, viewerZone string) ([]models.DailyClassView, error)
	Get(ctx context.Context, id, viewerZone string) (*models.DailyClassView, error)
	Create(ctx context.Context, req models.CreateDailyClassRequest) (*models.DailyClass, error)
	Transition(ctx context.Context, id, newStatus string) (*models.DailyClass, error)
	SoftDelete(ctx context.Context, id string) error
	UpdateDetails(ctx context.Context, id string, req models.UpdateDailyClassRequest) (*models.DailyClass, error)
	RecordFeedback(ctx context.Context, id string, req models.FeedbackRequest) (*models.DailyClass, error)
}

type weeklyExpander interface {
	Expand(ctx context.Context, from, to string) (*models.ExpansionResult, error)
}

type classFeed interface {
	Listen() (<-chan models.ClassFeedEvent, func())
}

// DailyClassHandler exposes dated class instances, their lifecycle and the live feed.
type DailyClassHandler struct {
	service  dailyClassService
	expander weeklyExpander
	feed     classFeed
	jobs     jobEnqueuer
}

// NewDailyClassHandler constructs the handler. feed and jobs may be nil.
func NewDailyClassHandler(service dailyClassService, expander weeklyExpander, feed classFeed, jobs jobEnqueuer) *DailyClassHandler {
	return &DailyClassHandler{service: service, expander: expander, feed: feed, jobs: jobs}
}

// List godoc
// @Summary List daily classes
// @Tags Daily Classes
// @Produce json
// @Param from query string false "First UTC date (YYYY-MM-DD)"
// @Param to query string false "Last UTC date (YYYY-MM-DD)"
// @Param status query string false "Comma separated statuses"
// @Param courseId query string false "Course ID"
// @Param teacherId query string false "Teacher ID"
// @Param studentId query string false "Student ID"
// @Param weeklyClassId query string false "Weekly class ID"
// @Param includeInactive query bool false "Include deleted classes"
// @Param tz query string false "Viewer timezone"
// @Success 200 {object} response.Envelope
// @Router /daily-classes [get]
func (h *DailyClassHandler) List(c *gin.Context) {
	filter := models.DailyClassFilter{
		From:            c.Query("from"),
		To:              c.Query("to"),
		CourseID:        strings.TrimSpace(c.Query("courseId")),
		TeacherID:       strings.TrimSpace(c.Query("teacherId")),
		StudentID:       strings.TrimSpace(c.Query("studentId")),
		WeeklyClassID:   strings.TrimSpace(c.Query("weeklyClassId")),
		IncludeInactive: queryBool(c, "includeInactive"),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := models.ClassStatus(strings.ToLower(raw))
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status "+raw))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if err := scopeParticipants(c, &filter.TeacherID, &filter.StudentID); err != nil {
		response.Error(c, err)
		return
	}

	classes, err := h.service.List(c.Request.Context(), filter, viewerZone(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get daily class
// @Tags Daily Classes
// @Produce json
// @Param id path string true "Daily class ID"
// @Param tz query string false "Viewer timezone"
// @Success 200 {object} response.Envelope
// @Router /daily-classes/{id} [get]
func (h *DailyClassHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), viewerZone(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canAccessClass(c, view.TeacherID, view.StudentID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, view, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create daily class
// @Tags Daily Classes
// @Accept json
// @Produce json
// @Param payload body models.CreateDailyClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /daily-classes [post]
func (h *DailyClassHandler) Create(c *gin.Context) {
	var req models.CreateDailyClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid daily class payload"))
		return
	}
	if req.Timezone == "" {
		req.Timezone = viewerZone(c)
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Transition godoc
// @Summary Change daily class status
// @Tags Daily Classes
// @Accept json
// @Produce json
// @Param id path string true "Daily class ID"
// @Param payload body models.TransitionRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /daily-classes/{id}/status [post]
func (h *DailyClassHandler) Transition(c *gin.Context) {
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	if !h.authorize(c) {
		return
	}
	class, err := h.service.Transition(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Update godoc
// @Summary Edit daily class notes or meeting link
// @Tags Daily Classes
// @Accept json
// @Produce json
// @Param id path string true "Daily class ID"
// @Param payload body models.UpdateDailyClassRequest true "Details"
// @Success 200 {object} response.Envelope
// @Router /daily-classes/{id} [patch]
func (h *DailyClassHandler) Update(c *gin.Context) {
	var req models.UpdateDailyClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid daily class payload"))
		return
	}
	if !h.authorize(c) {
		return
	}
	class, err := h.service.UpdateDetails(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Feedback godoc
// @Summary Rate a daily class
// @Tags Daily Classes
// @Accept json
// @Produce json
// @Param id path string true "Daily class ID"
// @Param payload body models.FeedbackRequest true "Rating"
// @Success 200 {object} response.Envelope
// @Router /daily-classes/{id}/feedback [post]
func (h *DailyClassHandler) Feedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid feedback payload"))
		return
	}
	if !h.authorize(c) {
		return
	}
	class, err := h.service.RecordFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Soft delete daily class
// @Tags Daily Classes
// @Param id path string true "Daily class ID"
// @Success 204
// @Router /daily-classes/{id} [delete]
func (h *DailyClassHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Expand godoc
// @Summary Materialise weekly templates into daily classes
// @Tags Daily Classes
// @Accept json
// @Produce json
// @Param payload body models.ExpandRequest true "Local date window"
// @Param async query bool false "Queue the run instead of waiting"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /daily-classes/expand [post]
func (h *DailyClassHandler) Expand(c *gin.Context) {
	var req models.ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid expansion payload"))
		return
	}
	if queryBool(c, "async") && h.jobs != nil {
		jobID, err := h.jobs.Enqueue(service.JobExpandWeekly, service.ExpansionWindow{From: req.From, To: req.To})
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to queue expansion"))
			return
		}
		response.Accepted(c, gin.H{"jobId": jobID})
		return
	}
	if h.expander == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	result, err := h.expander.Expand(c.Request.Context(), req.From, req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Stream godoc
// @Summary Live daily class feed (server-sent events)
// @Tags Daily Classes
// @Produce text/event-stream
// @Param access_token query string false "Bearer token for EventSource clients"
// @Success 200 {object} models.ClassFeedEvent
// @Router /daily-classes/stream [get]
func (h *DailyClassHandler) Stream(c *gin.Context) {
	if h.feed == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "live feed disabled"))
		return
	}
	events, cancel := h.feed.Listen()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("classes", event)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

// authorize loads the class and checks the caller takes part in it.
func (h *DailyClassHandler) authorize(c *gin.Context) bool {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		response.Error(c, err)
		return false
	}
	if !canAccessClass(c, view.TeacherID, view.StudentID) {
		response.Error(c, appErrors.ErrForbidden)
		return false
	}
	return true
}
