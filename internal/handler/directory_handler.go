package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type directoryService interface {
	Students(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithBalance, *models.Pagination, error)
	Student(ctx context.Context, id string) (*models.Student, error)
	Lecturers(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, *models.Pagination, error)
	Lecturer(ctx context.Context, id string) (*models.Lecturer, error)
}

// DirectoryHandler serves the student and lecturer directories.
type DirectoryHandler struct {
	service directoryService
}

// NewDirectoryHandler constructs the handler.
func NewDirectoryHandler(svc directoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// Students godoc
// @Summary List students
// @Tags Directory
// @Produce json
// @Param search query string false "Name or email search"
// @Param level query int false "Level"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *DirectoryHandler) Students(c *gin.Context) {
	filter := models.StudentFilter{
		Search:    c.Query("search"),
		Level:     queryInt(c, "level", 0),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	rows, pagination, err := h.service.Students(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Student godoc
// @Summary Get student
// @Tags Directory
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *DirectoryHandler) Student(c *gin.Context) {
	student, err := h.service.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Lecturers godoc
// @Summary List lecturers
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *DirectoryHandler) Lecturers(c *gin.Context) {
	filter := models.LecturerFilter{
		Search:     c.Query("search"),
		Department: c.Query("department"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "pageSize", 20),
	}
	rows, pagination, err := h.service.Lecturers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Lecturer godoc
// @Summary Get lecturer
// @Tags Directory
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *DirectoryHandler) Lecturer(c *gin.Context) {
	lecturer, err := h.service.Lecturer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lecturer)
}
