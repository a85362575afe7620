package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type courseRepoMock struct {
	courses   map[string]models.Course
	enrolled  map[string]int
	createErr error
	listCalls []models.CourseFilter
}

func newCourseRepoMock() *courseRepoMock {
	return &courseRepoMock{courses: map[string]models.Course{}, enrolled: map[string]int{}}
}

func (m *courseRepoMock) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error) {
	m.listCalls = append(m.listCalls, filter)
	var out []models.CourseSummary
	for _, c := range m.courses {
		out = append(out, models.CourseSummary{Course: c})
	}
	return out, len(out), nil
}

func (m *courseRepoMock) FindByID(ctx context.Context, id string) (*models.CourseSummary, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.CourseSummary{Course: c, EnrolledCount: m.enrolled[id], AvailableSeats: c.Capacity - m.enrolled[id]}, nil
}

func (m *courseRepoMock) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = "course-" + course.Code
	m.courses[course.ID] = *course
	return nil
}

func (m *courseRepoMock) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	if course.Capacity < m.enrolled[course.ID] {
		return repository.ErrCapacityBelowEnrolled
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *courseRepoMock) ListStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error) {
	return []models.CourseStudent{{StudentID: "s-1"}}, nil
}

func validCourseRequest() dto.CourseRequest {
	return dto.CourseRequest{Code: " csc101 ", Name: "Intro to Computing", CreditHours: 3, Level: 100, Semester: 1, Capacity: 2}
}

func TestCourseServiceCreateNormalises(t *testing.T) {
	repo := newCourseRepoMock()
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, "CSC101", course.Code)
	assert.True(t, course.IsActive)
	assert.Equal(t, 2, course.AvailableSeats)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := newCourseRepoMock()
	repo.createErr = &pq.Error{Code: "23505", Constraint: "courses_code_key"}
	svc := NewCourseService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCourseRequest())
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestCourseServiceUpdateCapacityGuard(t *testing.T) {
	repo := newCourseRepoMock()
	repo.courses["c-1"] = models.Course{ID: "c-1", Code: "CSC101", Capacity: 5}
	repo.enrolled["c-1"] = 3
	svc := NewCourseService(repo, nil, nil, nil)

	req := validCourseRequest()
	req.Capacity = 2
	_, err := svc.Update(context.Background(), "c-1", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	req.Capacity = 3
	updated, err := svc.Update(context.Background(), "c-1", req)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableSeats)

	_, err = svc.Update(context.Background(), "missing", req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceValidation(t *testing.T) {
	svc := NewCourseService(newCourseRepoMock(), nil, nil, nil)
	req := validCourseRequest()
	req.Level = 600
	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Students(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceListPagination(t *testing.T) {
	repo := newCourseRepoMock()
	repo.courses["c-1"] = models.Course{ID: "c-1"}
	svc := NewCourseService(repo, nil, nil, nil)

	_, page, err := svc.List(context.Background(), models.CourseFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, page)
}
