package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithBalance, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type lecturerRepository interface {
	List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error)
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
}

// DirectoryService exposes the student and lecturer directories.
type DirectoryService struct {
	students  studentRepository
	lecturers lecturerRepository
	logger    *zap.Logger
}

// NewDirectoryService constructs DirectoryService.
func NewDirectoryService(students studentRepository, lecturers lecturerRepository, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{students: students, lecturers: lecturers, logger: logger}
}

// Students lists students with their fee position.
func (s *DirectoryService) Students(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithBalance, *models.Pagination, error) {
	rows, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return rows, pagination(filter.Page, filter.PageSize, total), nil
}

// Student returns a student profile.
func (s *DirectoryService) Student(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Lecturers lists teaching staff.
func (s *DirectoryService) Lecturers(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, *models.Pagination, error) {
	rows, total, err := s.lecturers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	return rows, pagination(filter.Page, filter.PageSize, total), nil
}

// Lecturer returns a lecturer profile.
func (s *DirectoryService) Lecturer(ctx context.Context, id string) (*models.Lecturer, error) {
	lecturer, err := s.lecturers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}
