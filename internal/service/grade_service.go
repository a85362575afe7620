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
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type gradeStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.GradeTx) error) error
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
	CourseSummary(ctx context.Context, courseID string) ([]models.CourseGradeSummary, error)
}

type assignmentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

// GradeService records one grade per student and assignment.
type GradeService struct {
	grades      gradeStore
	assignments assignmentLookup
	activity    activityWriter
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeStore, assignments assignmentLookup, activity activityWriter, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, assignments: assignments, activity: activity, validator: validate, logger: logger, now: time.Now}
}

// UpsertGrade creates or replaces the grade for (student, assignment). A submitted
// artifact for the pair moves to graded in the same transaction.
func (s *GradeService) UpsertGrade(ctx context.Context, req dto.UpsertGradeRequest, gradedBy string) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.CourseID != req.CourseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment does not belong to course")
	}
	if req.Score < 0 || req.Score > assignment.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score must be between 0 and %g", assignment.MaxScore))
	}
	enrolled, err := s.assignments.IsEnrolled(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "student is not enrolled in this course")
	}

	now := s.now().UTC()
	grade := &models.Grade{
		StudentID:    req.StudentID,
		AssignmentID: req.AssignmentID,
		CourseID:     req.CourseID,
		Score:        req.Score,
		Comments:     strPtr(strings.TrimSpace(req.Comments)),
		GradedBy:     strPtr(gradedBy),
		GradedAt:     now,
	}
	err = s.grades.WithinTx(ctx, func(tx repository.GradeTx) error {
		if err := tx.UpsertGrade(ctx, grade); err != nil {
			return err
		}
		submission, err := tx.LockSubmission(ctx, req.StudentID, req.AssignmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if submission.Status != models.SubmissionStatusSubmitted || !submission.Status.CanTransition(models.SubmissionStatusGraded) {
			return nil
		}
		submission.Status = models.SubmissionStatusGraded
		submission.UpdatedAt = now
		return tx.UpdateSubmission(ctx, submission)
	})
	if err != nil {
		s.logger.Error("failed to upsert grade", zap.String("student_id", req.StudentID), zap.String("assignment_id", req.AssignmentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     strPtr(gradedBy),
		Action:     models.ActivityGrade,
		Resource:   "grade",
		ResourceID: &grade.ID,
	}, map[string]interface{}{"student_id": req.StudentID, "assignment_id": req.AssignmentID, "score": req.Score})
	return grade, nil
}

// List returns grades with assignment and course details, newest first.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// CourseSummary aggregates scores per enrolled student.
func (s *GradeService) CourseSummary(ctx context.Context, courseID string) ([]models.CourseGradeSummary, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	summary, err := s.grades.CourseSummary(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise grades")
	}
	return summary, nil
}
