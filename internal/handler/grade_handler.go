package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type gradeService interface {
	UpsertGrade(ctx context.Context, req dto.UpsertGradeRequest, gradedBy string) (*models.Grade, error)
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
	CourseSummary(ctx context.Context, courseID string) ([]models.CourseGradeSummary, error)
}

// GradeHandler serves grading endpoints.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(svc gradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Upsert godoc
// @Summary Record or replace a grade
// @Description One grade is kept per student and assignment; a later call overwrites the score
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.UpsertGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Upsert(c *gin.Context) {
	var req dto.UpsertGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid grade payload"))
		return
	}
	grade, err := h.service.UpsertGrade(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grade)
}

// List godoc
// @Summary List grades
// @Description Students see their own grades; staff filter by student or course
// @Tags Grades
// @Produce json
// @Param studentId query string false "Student"
// @Param courseId query string false "Course"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		StudentID: c.Query("studentId"),
		CourseID:  c.Query("courseId"),
		Limit:     queryInt(c, "limit", 0),
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID, err := resolveStudentID(c, filter.StudentID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.StudentID = studentID
	}
	rows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Summary godoc
// @Summary Per-student grade summary for a course
// @Tags Grades
// @Produce json
// @Param courseId query string true "Course"
// @Success 200 {object} response.Envelope
// @Router /grades/summary [get]
func (h *GradeHandler) Summary(c *gin.Context) {
	rows, err := h.service.CourseSummary(c.Request.Context(), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}
