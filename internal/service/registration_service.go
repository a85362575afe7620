package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

const activeEnrollmentIndex = "enrollments_active_uniq"

type enrollmentStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.EnrollmentTx) error) error
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListAvailable(ctx context.Context, studentID string) ([]models.CourseSummary, error)
}

type registrationRecorder interface {
	RecordRegistration(outcome string)
}

// RegistrationService enforces course capacity and the one-active-enrollment rule.
type RegistrationService struct {
	store     enrollmentStore
	activity  activityWriter
	metrics   registrationRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(store enrollmentStore, activity activityWriter, metrics registrationRecorder, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{store: store, activity: activity, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Register enrolls studentID in courseID. Checks run in order: course exists and is active,
// seats remain, no enrolled row exists for the pair.
func (s *RegistrationService) Register(ctx context.Context, req dto.RegistrationRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	var created *models.Enrollment
	err := s.store.WithinTx(ctx, func(tx repository.EnrollmentTx) error {
		seats, err := tx.LockCourse(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrCourseNotFound
			}
			return err
		}
		if !seats.IsActive {
			return appErrors.ErrCourseNotFound
		}
		if seats.EnrolledCount >= seats.Capacity {
			return appErrors.ErrCourseFull
		}
		exists, err := tx.HasActiveEnrollment(ctx, req.StudentID, req.CourseID)
		if err != nil {
			return err
		}
		if exists {
			return appErrors.ErrAlreadyEnrolled
		}
		now := s.now().UTC()
		enrollment := &models.Enrollment{
			StudentID:  req.StudentID,
			CourseID:   req.CourseID,
			Status:     models.EnrollmentStatusEnrolled,
			EnrolledAt: now,
			UpdatedAt:  now,
		}
		if err := tx.InsertEnrollment(ctx, enrollment); err != nil {
			if database.IsUniqueViolation(err, activeEnrollmentIndex) {
				return appErrors.ErrAlreadyEnrolled
			}
			return err
		}
		created = enrollment
		return nil
	})
	if err != nil {
		s.recordOutcome(err)
		return nil, s.translate(err, "failed to register course", req)
	}
	s.recordOutcome(nil)

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		Action:     models.ActivityCourseRegister,
		Resource:   "enrollment",
		ResourceID: &created.ID,
	}, map[string]string{"student_id": req.StudentID, "course_id": req.CourseID})
	return created, nil
}

// Drop moves the student's active enrollment in courseID to dropped.
func (s *RegistrationService) Drop(ctx context.Context, req dto.RegistrationRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}

	var dropped *models.Enrollment
	err := s.store.WithinTx(ctx, func(tx repository.EnrollmentTx) error {
		enrollment, err := tx.LockLatestEnrollment(ctx, req.StudentID, req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrNotEnrolled
			}
			return err
		}
		if !enrollment.Status.CanTransition(models.EnrollmentStatusDropped) {
			return appErrors.Clone(appErrors.ErrInvalidState, "enrollment is already "+string(enrollment.Status))
		}
		now := s.now().UTC()
		enrollment.Status = models.EnrollmentStatusDropped
		enrollment.DroppedAt = &now
		enrollment.UpdatedAt = now
		if err := tx.UpdateEnrollmentStatus(ctx, enrollment); err != nil {
			return err
		}
		dropped = enrollment
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "failed to drop course", req)
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		Action:     models.ActivityCourseDrop,
		Resource:   "enrollment",
		ResourceID: &dropped.ID,
	}, map[string]string{"student_id": req.StudentID, "course_id": req.CourseID})
	return dropped, nil
}

// Enrollments lists every enrollment of a student.
func (s *RegistrationService) Enrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	rows, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return rows, nil
}

// Available lists open courses the student may still register for.
func (s *RegistrationService) Available(ctx context.Context, studentID string) ([]models.CourseSummary, error) {
	rows, err := s.store.ListAvailable(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return rows, nil
}

func (s *RegistrationService) translate(err error, message string, req dto.RegistrationRequest) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error(message, zap.String("student_id", req.StudentID), zap.String("course_id", req.CourseID), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *RegistrationService) recordOutcome(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.RecordRegistration(RegistrationOutcomeSuccess)
	case appErrors.Is(err, appErrors.ErrCourseFull):
		s.metrics.RecordRegistration(RegistrationOutcomeFull)
	case appErrors.Is(err, appErrors.ErrAlreadyEnrolled):
		s.metrics.RecordRegistration(RegistrationOutcomeTaken)
	case appErrors.Is(err, appErrors.ErrCourseNotFound):
		s.metrics.RecordRegistration(RegistrationOutcomeMissing)
	default:
		s.metrics.RecordRegistration(RegistrationOutcomeError)
	}
}
