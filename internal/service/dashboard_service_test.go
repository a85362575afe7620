package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

type statsRepoStub struct {
	calls int
	stats models.DashboardStats
}

func (s *statsRepoStub) Stats(ctx context.Context) (*models.DashboardStats, error) {
	s.calls++
	out := s.stats
	return &out, nil
}

type studentDashboardStub struct{}

func (studentDashboardStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if id != "s-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: "s-1", FirstName: "Ada", Level: 200}, nil
}

func (studentDashboardStub) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return []models.EnrollmentDetail{{Enrollment: models.Enrollment{CourseID: "CSC101", Status: models.EnrollmentStatusEnrolled}}}, nil
}

type gradeFilterRecorder struct {
	filter models.GradeFilter
}

func (g *gradeFilterRecorder) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	g.filter = filter
	return nil, nil
}

type fixedBalance struct{}

func (fixedBalance) Balance(ctx context.Context, studentID string) (*models.FeeBalance, error) {
	return &models.FeeBalance{StudentID: studentID, TotalDue: 5500, TotalPaid: 2000, Outstanding: 3500}, nil
}

func TestDashboardStatsAreCachedUntilInvalidated(t *testing.T) {
	repo := &statsRepoStub{stats: models.DashboardStats{TotalStudents: 3, TotalOutstanding: 9000}}
	backend := newMemoryCache()
	cache := NewCacheService(backend, nil, time.Minute, nil, true)
	svc := NewDashboardService(repo, nil, nil, nil, nil, cache, nil)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first.TotalOutstanding, second.TotalOutstanding)

	cache.Invalidate(context.Background(), cacheKeyDashboardStats)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	repo := &statsRepoStub{}
	svc := NewDashboardService(repo, nil, nil, nil, nil, nil, nil)
	_, _ = svc.Stats(context.Background())
	_, _ = svc.Stats(context.Background())
	assert.Equal(t, 2, repo.calls)
}

func TestStudentDashboard(t *testing.T) {
	grades := &gradeFilterRecorder{}
	stub := studentDashboardStub{}
	svc := NewDashboardService(&statsRepoStub{}, stub, stub, grades, fixedBalance{}, nil, nil)

	dash, err := svc.StudentDashboard(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", dash.Student.FirstName)
	assert.Len(t, dash.Enrollments, 1)
	assert.NotNil(t, dash.RecentGrades)
	assert.Equal(t, 3500.0, dash.Fees.Outstanding)
	assert.Equal(t, models.GradeFilter{StudentID: "s-1", Limit: 5}, grades.filter)

	_, err = svc.StudentDashboard(context.Background(), "s-404")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAssistantAnswers(t *testing.T) {
	repo := &statsRepoStub{stats: models.DashboardStats{TotalStudents: 42, TotalCourses: 7, TotalOutstanding: 1250.5, ActiveEnrollment: 80}}
	svc := NewDashboardService(repo, nil, nil, nil, nil, nil, nil)

	cases := []struct {
		question string
		topic    string
		contains string
	}{
		{"What is the total outstanding?", "fees", "1250.50"},
		{"How many students do we have", "students", "42"},
		{"list courses", "courses", "7"},
		{"what's for lunch", "help", "outstanding fees"},
	}
	for _, tc := range cases {
		ans, err := svc.Ask(context.Background(), dto.AssistantQuestion{Question: tc.question})
		require.NoError(t, err)
		assert.Equal(t, tc.topic, ans.Topic, tc.question)
		assert.Contains(t, ans.Answer, tc.contains)
	}

	_, err := svc.Ask(context.Background(), dto.AssistantQuestion{Question: "  "})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
