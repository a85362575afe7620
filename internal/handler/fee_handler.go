package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type feeService interface {
	ListOutstanding(ctx context.Context) ([]models.OutstandingFee, error)
	Balance(ctx context.Context, studentID string) (*models.FeeBalance, error)
	RecordPayment(ctx context.Context, req dto.RecordPaymentRequest, recordedBy string) (*models.Payment, error)
	Payments(ctx context.Context, studentID string) ([]models.Payment, error)
	Structure(ctx context.Context) ([]models.FeeStructure, error)
	SetStructure(ctx context.Context, level int, req dto.FeeStructureRequest) (*models.FeeStructure, error)
	Statement(ctx context.Context, studentID string) ([]byte, error)
}

// FeeHandler serves fee balances, payments and statements.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(svc feeService) *FeeHandler {
	return &FeeHandler{service: svc}
}

// Outstanding godoc
// @Summary Outstanding fees per student
// @Description Students ordered by outstanding balance descending, classified Paid, Partial or Unpaid
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/outstanding [get]
func (h *FeeHandler) Outstanding(c *gin.Context) {
	rows, err := h.service.ListOutstanding(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	total := 0.0
	for _, row := range rows {
		total += row.DisplayOutstanding()
	}
	response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{
		"count":             len(rows),
		"total_outstanding": total,
	})
}

// Balance godoc
// @Summary Fee balance of a student
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/students/{id}/balance [get]
func (h *FeeHandler) Balance(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	balance, err := h.service.Balance(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, balance)
}

// RecordPayment godoc
// @Summary Record a payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid payment payload"))
		return
	}
	payment, err := h.service.RecordPayment(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Payments godoc
// @Summary Payment history
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /fees/students/{id}/payments [get]
func (h *FeeHandler) Payments(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Payments(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Structure godoc
// @Summary Fee structure by level
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/structure [get]
func (h *FeeHandler) Structure(c *gin.Context) {
	rows, err := h.service.Structure(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// SetStructure godoc
// @Summary Set fee amount for a level
// @Tags Fees
// @Accept json
// @Produce json
// @Param level path int true "Academic level"
// @Param payload body dto.FeeStructureRequest true "Amount"
// @Success 200 {object} response.Envelope
// @Router /fees/structure/{level} [put]
func (h *FeeHandler) SetStructure(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "level must be numeric"))
		return
	}
	var req dto.FeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid fee structure payload"))
		return
	}
	row, err := h.service.SetStructure(c.Request.Context(), level, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}

// Statement godoc
// @Summary Download fee statement
// @Tags Fees
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Router /fees/students/{id}/statement.pdf [get]
func (h *FeeHandler) Statement(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.Statement(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=fee_statement_%s.pdf", studentID))
	c.Data(http.StatusOK, "application/pdf", doc)
}
