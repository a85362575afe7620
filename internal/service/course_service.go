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
	"github.com/noah-isme/dept-portal-api/internal/repository"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseSummary, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	ListStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error)
}

// CourseService manages the course catalog.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns catalog rows with seat accounting and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseSummary, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course. New courses are active unless stated otherwise.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.CourseSummary, error) {
	course, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, s.translateWrite(err, "failed to create course")
	}
	s.cache.Invalidate(ctx, cacheKeyDashboardStats)
	return s.Get(ctx, course.ID)
}

// Update replaces a course. Capacity cannot drop below the enrolled count.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.CourseSummary, error) {
	course, err := s.build(req)
	if err != nil {
		return nil, err
	}
	course.ID = id
	if err := s.repo.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case errors.Is(err, repository.ErrCapacityBelowEnrolled):
			return nil, appErrors.Clone(appErrors.ErrConflict, "capacity is below the current enrolled count")
		}
		return nil, s.translateWrite(err, "failed to update course")
	}
	s.cache.Invalidate(ctx, cacheKeyDashboardStats)
	return s.Get(ctx, id)
}

// Students returns the currently enrolled students of a course.
func (s *CourseService) Students(ctx context.Context, courseID string) ([]models.CourseStudent, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListStudents(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course students")
	}
	return students, nil
}

func (s *CourseService) build(req dto.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Course{
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:          strings.TrimSpace(req.Name),
		CreditHours:   req.CreditHours,
		Level:         req.Level,
		Semester:      req.Semester,
		Prerequisites: req.Prerequisites,
		Capacity:      req.Capacity,
		LecturerID:    req.LecturerID,
		IsActive:      active,
	}, nil
}

func (s *CourseService) translateWrite(err error, msg string) error {
	switch {
	case database.IsUniqueViolation(err, ""):
		return appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	case database.IsForeignKeyViolation(err):
		return appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
	}
	s.logger.Error(msg, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
