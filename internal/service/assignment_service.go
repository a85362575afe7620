package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.StudentAssignment, error)
	FindSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
}

// AssignmentService manages course assignments.
type AssignmentService struct {
	repo      assignmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, validator: validate, logger: logger}
}

// Create adds an assignment to a course. Type defaults to homework and max score to 100.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest, createdBy string) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	a := &models.Assignment{
		CourseID:    req.CourseID,
		TermID:      req.TermID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        models.AssignmentType(req.Type),
		MaxScore:    req.MaxScore,
		Weight:      req.Weight,
		DueDate:     req.DueDate,
		CreatedBy:   strPtr(createdBy),
	}
	if a.Type == "" {
		a.Type = models.AssignmentTypeHomework
	}
	if a.MaxScore == 0 {
		a.MaxScore = 100
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course or term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return a, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return a, nil
}

// List returns assignments for a course or term.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return rows, nil
}

// ForStudent returns the assignments of the student's enrolled courses with their progress.
func (s *AssignmentService) ForStudent(ctx context.Context, studentID string) ([]models.StudentAssignment, error) {
	rows, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student assignments")
	}
	return rows, nil
}

// Submission returns the student's submission for an assignment.
func (s *AssignmentService) Submission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	sub, err := s.repo.FindSubmission(ctx, studentID, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}
