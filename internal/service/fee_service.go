package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/export"
)

type feeRepository interface {
	Balance(ctx context.Context, studentID string) (*models.FeeBalance, error)
	ListOutstanding(ctx context.Context) ([]models.OutstandingFee, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, studentID string) ([]models.Payment, error)
	ListStructure(ctx context.Context) ([]models.FeeStructure, error)
	UpsertStructure(ctx context.Context, fee *models.FeeStructure) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

var feeLevels = map[int]bool{100: true, 200: true, 300: true, 400: true, 500: true}

// FeeService computes balances from the fee schedule and the payment ledger.
type FeeService struct {
	repo      feeRepository
	students  studentReader
	cache     *CacheService
	activity  activityWriter
	pdf       documentRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs FeeService.
func NewFeeService(repo feeRepository, students studentReader, cache *CacheService, activity activityWriter, pdf documentRenderer, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &FeeService{repo: repo, students: students, cache: cache, activity: activity, pdf: pdf, validator: validate, logger: logger}
}

// GetOutstandingBalance returns fee(level) minus total paid. The result may be negative.
func (s *FeeService) GetOutstandingBalance(ctx context.Context, studentID string) (float64, error) {
	balance, err := s.Balance(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return balance.Outstanding, nil
}

// Balance returns the breakdown behind GetOutstandingBalance.
func (s *FeeService) Balance(ctx context.Context, studentID string) (*models.FeeBalance, error) {
	balance, err := s.repo.Balance(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute balance")
	}
	return balance, nil
}

// ListOutstanding returns every student's balance, highest outstanding first, with its status.
func (s *FeeService) ListOutstanding(ctx context.Context) ([]models.OutstandingFee, error) {
	rows, err := s.repo.ListOutstanding(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outstanding fees")
	}
	for i := range rows {
		rows[i].Status = models.ClassifyFee(rows[i].TotalPaid, rows[i].Outstanding)
	}
	return rows, nil
}

// RecordPayment appends a payment and invalidates the cached dashboard stats.
func (s *FeeService) RecordPayment(ctx context.Context, req dto.RecordPaymentRequest, recordedBy string) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	method := req.Method
	if method == "" {
		method = "cash"
	}
	payment := &models.Payment{
		StudentID:  req.StudentID,
		Amount:     req.Amount,
		Method:     method,
		Reference:  strPtr(strings.TrimSpace(req.Reference)),
		RecordedBy: strPtr(recordedBy),
	}
	if req.PaidAt != nil {
		payment.PaidAt = req.PaidAt.UTC()
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Error("failed to record payment", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.cache.Invalidate(ctx, cacheKeyDashboardStats)
	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     strPtr(recordedBy),
		Action:     models.ActivityPayment,
		Resource:   "payment",
		ResourceID: &payment.ID,
	}, map[string]interface{}{"student_id": req.StudentID, "amount": req.Amount})
	return payment, nil
}

// Payments returns a student's ledger.
func (s *FeeService) Payments(ctx context.Context, studentID string) ([]models.Payment, error) {
	rows, err := s.repo.ListPayments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return rows, nil
}

// Structure returns the fee schedule.
func (s *FeeService) Structure(ctx context.Context) ([]models.FeeStructure, error) {
	rows, err := s.repo.ListStructure(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structure")
	}
	return rows, nil
}

// SetStructure sets the fee for a level.
func (s *FeeService) SetStructure(ctx context.Context, level int, req dto.FeeStructureRequest) (*models.FeeStructure, error) {
	if !feeLevels[level] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level must be one of 100, 200, 300, 400, 500")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}
	fee := &models.FeeStructure{Level: level, Amount: req.Amount}
	if err := s.repo.UpsertStructure(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee structure")
	}
	s.cache.Invalidate(ctx, cacheKeyDashboardStats)
	return fee, nil
}

// Statement renders a PDF fee statement for a student.
func (s *FeeService) Statement(ctx context.Context, studentID string) ([]byte, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	balance, err := s.Balance(ctx, studentID)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments(ctx, studentID)
	if err != nil {
		return nil, err
	}

	table := export.Dataset{Headers: []string{"Date", "Method", "Reference", "Amount"}}
	for _, p := range payments {
		table.Append(map[string]string{
			"Date":      p.PaidAt.Format("2006-01-02"),
			"Method":    p.Method,
			"Reference": deref(p.Reference),
			"Amount":    export.Money(p.Amount),
		})
	}
	outstanding := models.OutstandingFee{Outstanding: balance.Outstanding}
	doc := export.Document{
		Title:    "Fee Statement",
		Subtitle: fmt.Sprintf("%s (%s) - Level %d", student.FullName(), student.Email, student.Level),
		Summary: []export.Field{
			{Label: "Total due", Value: export.Money(balance.TotalDue)},
			{Label: "Total paid", Value: export.Money(balance.TotalPaid)},
			{Label: "Outstanding", Value: export.Money(outstanding.DisplayOutstanding())},
			{Label: "Status", Value: string(models.ClassifyFee(balance.TotalPaid, balance.Outstanding))},
			{Label: "Issued", Value: time.Now().UTC().Format("2006-01-02")},
		},
		Table: table,
	}
	pdf, err := s.pdf.RenderDocument(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}
	return pdf, nil
}
