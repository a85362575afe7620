package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
	ListTerms(ctx context.Context) ([]models.AcademicTerm, error)
}

// ScheduleService lists weekly class sessions and academic terms.
type ScheduleService struct {
	repo   scheduleRepository
	logger *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, logger: logger}
}

// ForDate returns the sessions that meet on the weekday of date.
func (s *ScheduleService) ForDate(ctx context.Context, courseID string, date time.Time) ([]models.ScheduleDetail, error) {
	day := int(date.Weekday())
	return s.list(ctx, models.ScheduleFilter{CourseID: courseID, DayOfWeek: &day})
}

// All returns every session, optionally scoped to a term.
func (s *ScheduleService) All(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	return s.list(ctx, filter)
}

// Terms returns academic terms, most recent first.
func (s *ScheduleService) Terms(ctx context.Context) ([]models.AcademicTerm, error) {
	terms, err := s.repo.ListTerms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

func (s *ScheduleService) list(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return rows, nil
}
