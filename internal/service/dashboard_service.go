package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

const recentGradeLimit = 5

type statsRepository interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

type enrollmentLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type gradeLister interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
}

type balanceReader interface {
	Balance(ctx context.Context, studentID string) (*models.FeeBalance, error)
}

// DashboardService aggregates department and student landing data.
type DashboardService struct {
	stats       statsRepository
	students    studentReader
	enrollments enrollmentLister
	grades      gradeLister
	fees        balanceReader
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(stats statsRepository, students studentReader, enrollments enrollmentLister, grades gradeLister, fees balanceReader, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:       stats,
		students:    students,
		enrollments: enrollments,
		grades:      grades,
		fees:        fees,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// Stats returns department-wide counts. Cached when the cache is enabled.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if s.cache.Get(ctx, cacheKeyDashboardStats, &cached) {
		return &cached, nil
	}
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	stats.GeneratedAt = s.now().UTC()
	s.cache.Set(ctx, cacheKeyDashboardStats, stats, 0)
	return stats, nil
}

// StudentDashboard returns the student's profile, enrollments, recent grades and fee position.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	grades, err := s.grades.List(ctx, models.GradeFilter{StudentID: studentID, Limit: recentGradeLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	balance, err := s.fees.Balance(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee balance")
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return &models.StudentDashboard{Student: *student, Enrollments: enrollments, RecentGrades: grades, Fees: *balance}, nil
}

// Ask answers simple department questions from live stats.
func (s *DashboardService) Ask(ctx context.Context, q dto.AssistantQuestion) (*dto.AssistantAnswer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "question is required")
	}
	lower := strings.ToLower(question)
	answer := &dto.AssistantAnswer{Question: question}

	topic := ""
	switch {
	case containsAny(lower, "outstanding", "owe", "fee", "debt"):
		topic = "fees"
	case containsAny(lower, "student"):
		topic = "students"
	case containsAny(lower, "course", "class"):
		topic = "courses"
	case containsAny(lower, "lecturer", "staff"):
		topic = "lecturers"
	}
	if topic == "" {
		answer.Topic = "help"
		answer.Answer = "I can answer questions about outstanding fees, student numbers, courses and lecturers. Try \"how many students are registered?\""
		return answer, nil
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	answer.Topic = topic
	switch topic {
	case "fees":
		answer.Answer = fmt.Sprintf("Total outstanding fees across the department are %.2f.", stats.TotalOutstanding)
	case "students":
		answer.Answer = fmt.Sprintf("There are %d registered students with %d active course enrollments.", stats.TotalStudents, stats.ActiveEnrollment)
	case "courses":
		answer.Answer = fmt.Sprintf("The department offers %d active courses.", stats.TotalCourses)
	case "lecturers":
		answer.Answer = fmt.Sprintf("The department has %d lecturers.", stats.TotalLecturers)
	}
	return answer, nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
