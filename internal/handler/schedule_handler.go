package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type scheduleService interface {
	ForDate(ctx context.Context, courseID string, date time.Time) ([]models.ScheduleDetail, error)
	All(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
	Terms(ctx context.Context) ([]models.AcademicTerm, error)
}

// ScheduleHandler serves timetable and term endpoints.
type ScheduleHandler struct {
	service scheduleService
	now     func() time.Time
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, now: time.Now}
}

// ForDate godoc
// @Summary Sessions meeting on a date
// @Description Defaults to today when date is omitted
// @Tags Schedules
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param courseId query string false "Course"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) ForDate(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	day := h.now()
	if date != nil {
		day = *date
	}
	rows, err := h.service.ForDate(c.Request.Context(), c.Query("courseId"), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// All godoc
// @Summary Full timetable
// @Tags Schedules
// @Produce json
// @Param courseId query string false "Course"
// @Param termId query string false "Term"
// @Param lecturerId query string false "Lecturer"
// @Success 200 {object} response.Envelope
// @Router /schedules/all [get]
func (h *ScheduleHandler) All(c *gin.Context) {
	rows, err := h.service.All(c.Request.Context(), models.ScheduleFilter{
		CourseID:   c.Query("courseId"),
		TermID:     c.Query("termId"),
		LecturerID: c.Query("lecturerId"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Terms godoc
// @Summary Academic terms
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *ScheduleHandler) Terms(c *gin.Context) {
	rows, err := h.service.Terms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}
