package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

// memoryEnrollmentStore serialises transactions and restores its snapshot when fn fails.
type memoryEnrollmentStore struct {
	mu          sync.Mutex
	courses     map[string]models.CourseSeats
	enrollments []models.Enrollment
	insertErr   error
	seq         int
}

func newMemoryEnrollmentStore(courses ...models.CourseSeats) *memoryEnrollmentStore {
	m := &memoryEnrollmentStore{courses: map[string]models.CourseSeats{}}
	for _, c := range courses {
		m.courses[c.CourseID] = c
	}
	return m
}

func (m *memoryEnrollmentStore) WithinTx(ctx context.Context, fn func(tx repository.EnrollmentTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := append([]models.Enrollment(nil), m.enrollments...)
	seq := m.seq
	if err := fn(&memoryEnrollmentTx{store: m}); err != nil {
		m.enrollments = snapshot
		m.seq = seq
		return err
	}
	return nil
}

func (m *memoryEnrollmentStore) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return out, nil
}

func (m *memoryEnrollmentStore) ListAvailable(ctx context.Context, studentID string) ([]models.CourseSummary, error) {
	return nil, nil
}

func (m *memoryEnrollmentStore) rows(studentID, courseID string) []models.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memoryEnrollmentStore) enrolledCount(courseID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == models.EnrollmentStatusEnrolled {
			n++
		}
	}
	return n
}

type memoryEnrollmentTx struct {
	store *memoryEnrollmentStore
}

func (t *memoryEnrollmentTx) LockCourse(ctx context.Context, courseID string) (*models.CourseSeats, error) {
	seats, ok := t.store.courses[courseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	seats.EnrolledCount = 0
	for _, e := range t.store.enrollments {
		if e.CourseID == courseID && e.Status == models.EnrollmentStatusEnrolled {
			seats.EnrolledCount++
		}
	}
	return &seats, nil
}

func (t *memoryEnrollmentTx) HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, e := range t.store.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.Status == models.EnrollmentStatusEnrolled {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryEnrollmentTx) InsertEnrollment(ctx context.Context, e *models.Enrollment) error {
	t.store.seq++
	e.ID = fmt.Sprintf("enr-%d", t.store.seq)
	t.store.enrollments = append(t.store.enrollments, *e)
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	return nil
}

func (t *memoryEnrollmentTx) LockLatestEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	var latest *models.Enrollment
	for i := range t.store.enrollments {
		e := t.store.enrollments[i]
		if e.StudentID != studentID || e.CourseID != courseID {
			continue
		}
		if e.Status == models.EnrollmentStatusEnrolled {
			return &e, nil
		}
		if latest == nil || e.EnrolledAt.After(latest.EnrolledAt) {
			latest = &e
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	return latest, nil
}

func (t *memoryEnrollmentTx) UpdateEnrollmentStatus(ctx context.Context, e *models.Enrollment) error {
	for i := range t.store.enrollments {
		if t.store.enrollments[i].ID == e.ID {
			t.store.enrollments[i] = *e
			return nil
		}
	}
	return sql.ErrNoRows
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *outcomeRecorder) RecordRegistration(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func newRegistrationService(store enrollmentStore, metrics registrationRecorder) *RegistrationService {
	return NewRegistrationService(store, nil, metrics, nil, nil)
}

func TestRegistrationConcurrentCapacityOne(t *testing.T) {
	store := newMemoryEnrollmentStore(models.CourseSeats{CourseID: "CSC101", Capacity: 1, IsActive: true})
	metrics := &outcomeRecorder{}
	svc := newRegistrationService(store, metrics)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), dto.RegistrationRequest{StudentID: fmt.Sprintf("student-%d", i), CourseID: "CSC101"})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, appErrors.Is(err, appErrors.ErrCourseFull), "unexpected error %v", err)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, store.enrolledCount("CSC101"))
	assert.Equal(t, 1, metrics.outcomes[RegistrationOutcomeSuccess])
	assert.Equal(t, attempts-1, metrics.outcomes[RegistrationOutcomeFull])
}

func TestRegistrationConcurrentSameStudent(t *testing.T) {
	store := newMemoryEnrollmentStore(models.CourseSeats{CourseID: "CSC201", Capacity: 30, IsActive: true})
	svc := newRegistrationService(store, nil)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), dto.RegistrationRequest{StudentID: "s-1", CourseID: "CSC201"})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyEnrolled))
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, store.rows("s-1", "CSC201"), 1)
}

func TestRegistrationErrorOrder(t *testing.T) {
	store := newMemoryEnrollmentStore(
		models.CourseSeats{CourseID: "FULL", Capacity: 1, IsActive: true},
		models.CourseSeats{CourseID: "CLOSED", Capacity: 10, IsActive: false},
	)
	svc := newRegistrationService(store, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegistrationRequest{StudentID: "s-1", CourseID: "FULL"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, dto.RegistrationRequest{StudentID: "s-1", CourseID: "FULL"})
	assert.True(t, appErrors.Is(err, appErrors.ErrCourseFull), "capacity is checked before duplicate enrollment")

	_, err = svc.Register(ctx, dto.RegistrationRequest{StudentID: "s-1", CourseID: "CLOSED"})
	assert.True(t, appErrors.Is(err, appErrors.ErrCourseNotFound))

	_, err = svc.Register(ctx, dto.RegistrationRequest{StudentID: "s-1", CourseID: "MISSING"})
	assert.True(t, appErrors.Is(err, appErrors.ErrCourseNotFound))

	_, err = svc.Register(ctx, dto.RegistrationRequest{StudentID: "", CourseID: "FULL"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRegistrationDropLifecycle(t *testing.T) {
	store := newMemoryEnrollmentStore(models.CourseSeats{CourseID: "MTH101", Capacity: 2, IsActive: true})
	svc := newRegistrationService(store, nil)
	ctx := context.Background()
	req := dto.RegistrationRequest{StudentID: "s-9", CourseID: "MTH101"}

	_, err := svc.Drop(ctx, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotEnrolled))

	first, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, first.Status)

	dropped, err := svc.Drop(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, dropped.ID)
	assert.Equal(t, models.EnrollmentStatusDropped, dropped.Status)
	require.NotNil(t, dropped.DroppedAt)
	assert.Equal(t, 0, store.enrolledCount("MTH101"))

	_, err = svc.Drop(ctx, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	second, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	rows := store.rows("s-9", "MTH101")
	require.Len(t, rows, 2)
	assert.Equal(t, models.EnrollmentStatusDropped, rows[0].Status)
	assert.Equal(t, models.EnrollmentStatusEnrolled, rows[1].Status)
}

func TestRegistrationRollsBackFailedInsert(t *testing.T) {
	store := newMemoryEnrollmentStore(models.CourseSeats{CourseID: "PHY101", Capacity: 1, IsActive: true})
	store.insertErr = errors.New("connection reset")
	svc := newRegistrationService(store, nil)

	_, err := svc.Register(context.Background(), dto.RegistrationRequest{StudentID: "s-1", CourseID: "PHY101"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.rows("s-1", "PHY101"))

	store.insertErr = nil
	_, err = svc.Register(context.Background(), dto.RegistrationRequest{StudentID: "s-2", CourseID: "PHY101"})
	require.NoError(t, err, "the failed attempt must not consume the seat")
}

func TestRegistrationMapsUniqueViolation(t *testing.T) {
	store := newMemoryEnrollmentStore(models.CourseSeats{CourseID: "CHM101", Capacity: 5, IsActive: true})
	store.insertErr = fmt.Errorf("insert enrollment: %w", &pq.Error{Code: "23505", Constraint: activeEnrollmentIndex})
	svc := newRegistrationService(store, nil)

	_, err := svc.Register(context.Background(), dto.RegistrationRequest{StudentID: "s-1", CourseID: "CHM101"})
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyEnrolled))
	assert.Empty(t, store.rows("s-1", "CHM101"))
}
