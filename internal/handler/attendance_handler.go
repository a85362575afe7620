package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, req dto.MarkAttendanceRequest, markedBy string) (*dto.MarkAttendanceResult, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error)
	Summary(ctx context.Context, studentID string) ([]models.AttendanceSummary, error)
}

// AttendanceHandler serves attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance for a course session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid attendance payload"))
		return
	}
	res, err := h.service.Mark(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// List godoc
// @Summary List attendance rows
// @Tags Attendance
// @Produce json
// @Param courseId query string false "Course"
// @Param studentId query string false "Student"
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := models.AttendanceFilter{
		CourseID:  c.Query("courseId"),
		StudentID: c.Query("studentId"),
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID, err := resolveStudentID(c, filter.StudentID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.StudentID = studentID
	}
	var err error
	if filter.Date, err = queryDate(c, "date"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// ByStudent godoc
// @Summary Attendance history of a student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId query string false "Course"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{id} [get]
func (h *AttendanceHandler) ByStudent(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.List(c.Request.Context(), models.AttendanceFilter{StudentID: studentID, CourseID: c.Query("courseId")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Summary godoc
// @Summary Attendance percentages per course for a student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{id}/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Summary(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD")
	}
	return &t, nil
}
