package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

const attendanceDateLayout = "2006-01-02"

type attendanceStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.AttendanceTx) error) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error)
	SummaryByStudent(ctx context.Context, studentID string) ([]models.AttendanceSummary, error)
}

// AttendanceService records per-session attendance for enrolled students.
type AttendanceService struct {
	store     attendanceStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(store attendanceStore, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, validator: validate, logger: logger, now: time.Now}
}

// Mark upserts one row per student for the course and date. The batch is rejected as a
// whole when any student is not enrolled in the course.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest, markedBy string) (*dto.MarkAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse(attendanceDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	studentIDs := make([]string, 0, len(req.Attendance))
	for id := range req.Attendance {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	now := s.now().UTC()
	err = s.store.WithinTx(ctx, func(tx repository.AttendanceTx) error {
		enrolled, err := tx.EnrolledStudentIDs(ctx, req.CourseID, studentIDs)
		if err != nil {
			return err
		}
		var missing []string
		for _, id := range studentIDs {
			if !enrolled[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "students not enrolled in course: "+strings.Join(missing, ", "))
		}
		for _, id := range studentIDs {
			record := &models.Attendance{
				StudentID:  id,
				CourseID:   req.CourseID,
				ScheduleID: req.ScheduleID,
				Date:       date,
				Status:     models.AttendanceStatus(req.Attendance[id]),
				MarkedBy:   strPtr(markedBy),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.UpsertAttendance(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		s.logger.Error("failed to mark attendance", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	return &dto.MarkAttendanceResult{CourseID: req.CourseID, Date: req.Date, Marked: len(studentIDs)}, nil
}

// List returns attendance rows matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	rows, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, nil
}

// Summary aggregates a student's attendance per course.
func (s *AttendanceService) Summary(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	rows, err := s.store.SummaryByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}
	return rows, nil
}
