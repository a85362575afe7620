package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req dto.RegistrationRequest) (*models.Enrollment, error)
	Drop(ctx context.Context, req dto.RegistrationRequest) (*models.Enrollment, error)
	Enrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Available(ctx context.Context, studentID string) ([]models.CourseSummary, error)
}

// RegistrationHandler exposes course registration endpoints.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register for a course
// @Description Enroll a student into a course when seats are available
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registration [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid registration payload"))
		return
	}
	studentID, err := resolveStudentID(c, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.StudentID = studentID

	enrollment, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.RegistrationResponse{
		EnrollmentID: enrollment.ID,
		Status:       string(enrollment.Status),
	}, nil)
}

// Drop godoc
// @Summary Drop a course
// @Tags Registration
// @Produce json
// @Param studentId query string false "Student ID (staff only)"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registration [delete]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	req := dto.RegistrationRequest{StudentID: c.Query("studentId"), CourseID: c.Query("courseId")}
	studentID, err := resolveStudentID(c, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.StudentID = studentID

	enrollment, err := h.service.Drop(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// Enrollments godoc
// @Summary List enrollments of a student
// @Tags Registration
// @Produce json
// @Param studentId query string false "Student ID (staff only)"
// @Success 200 {object} response.Envelope
// @Router /registration/enrollments [get]
func (h *RegistrationHandler) Enrollments(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Enrollments(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Available godoc
// @Summary Courses open for registration
// @Tags Registration
// @Produce json
// @Param studentId query string false "Student ID (staff only)"
// @Success 200 {object} response.Envelope
// @Router /registration/available [get]
func (h *RegistrationHandler) Available(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Available(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}
