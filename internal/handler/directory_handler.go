package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-scheduler/internal/models"
	"github.com/noah-isme/academy-scheduler/pkg/response"
)

type directoryService interface {
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Teacher(ctx context.Context, id string) (*models.Teacher, error)
	CreateTeacher(ctx context.Context, req models.UpsertTeacherRequest) (*models.Teacher, error)
	Students(ctx context.Context) ([]models.Student, error)
	Student(ctx context.Context, id string) (*models.Student, error)
	CreateStudent(ctx context.Context, req models.UpsertStudentRequest) (*models.Student, error)
}

// DirectoryHandler exposes the teacher and student directory.
type DirectoryHandler struct {
	service directoryService
}

// NewDirectoryHandler constructs the handler.
func NewDirectoryHandler(service directoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *DirectoryHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// GetTeacher godoc
// @Summary Get teacher
// @Tags Directory
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *DirectoryHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.service.Teacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// CreateTeacher godoc
// @Summary Add teacher
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body models.UpsertTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *DirectoryHandler) CreateTeacher(c *gin.Context) {
	var req models.UpsertTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid teacher payload"))
		return
	}
	teacher, err := h.service.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// ListStudents godoc
// @Summary List students
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *DirectoryHandler) ListStudents(c *gin.Context) {
	students, err := h.service.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// GetStudent godoc
// @Summary Get student
// @Tags Directory
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *DirectoryHandler) GetStudent(c *gin.Context) {
	student, err := h.service.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// CreateStudent godoc
// @Summary Add student
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body models.UpsertStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *DirectoryHandler) CreateStudent(c *gin.Context) {
	var req models.UpsertStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.service.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
