package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error)
	Ask(ctx context.Context, q dto.AssistantQuestion) (*dto.AssistantAnswer, error)
}

// DashboardHandler serves landing page aggregates and the help assistant.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Department statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Student godoc
// @Summary Student landing view
// @Tags Dashboard
// @Produce json
// @Param studentId query string false "Student ID (staff only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.StudentDashboard(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Ask godoc
// @Summary Ask the help assistant
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body dto.AssistantQuestion true "Question"
// @Success 200 {object} response.Envelope
// @Router /assistant/ask [post]
func (h *DashboardHandler) Ask(c *gin.Context) {
	var req dto.AssistantQuestion
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid question payload"))
		return
	}
	answer, err := h.service.Ask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, answer)
}
