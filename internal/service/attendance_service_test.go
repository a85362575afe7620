package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type attendanceStoreMock struct {
	enrolled  map[string]bool
	written   []models.Attendance
	upsertErr error
	committed bool
}

func (m *attendanceStoreMock) WithinTx(ctx context.Context, fn func(tx repository.AttendanceTx) error) error {
	m.written = nil
	if err := fn(m); err != nil {
		m.written = nil
		return err
	}
	m.committed = true
	return nil
}

func (m *attendanceStoreMock) EnrolledStudentIDs(ctx context.Context, courseID string, ids []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range ids {
		if m.enrolled[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *attendanceStoreMock) UpsertAttendance(ctx context.Context, record *models.Attendance) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.written = append(m.written, *record)
	return nil
}

func (m *attendanceStoreMock) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	return nil, nil
}

func (m *attendanceStoreMock) SummaryByStudent(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	return []models.AttendanceSummary{{CourseID: "CSC101", TotalSessions: 4, Present: 3, Percentage: 75}}, nil
}

func TestMarkAttendanceWritesBatch(t *testing.T) {
	store := &attendanceStoreMock{enrolled: map[string]bool{"s-1": true, "s-2": true}}
	svc := NewAttendanceService(store, nil, nil)

	res, err := svc.Mark(context.Background(), dto.MarkAttendanceRequest{
		CourseID:   "CSC101",
		Date:       "2024-03-04",
		Attendance: map[string]string{"s-2": "late", "s-1": "present"},
	}, "lec-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Marked)
	require.Len(t, store.written, 2)
	assert.Equal(t, "s-1", store.written[0].StudentID)
	assert.Equal(t, models.AttendanceLate, store.written[1].Status)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), store.written[0].Date)
	assert.Equal(t, "lec-1", *store.written[0].MarkedBy)
}

func TestMarkAttendanceRejectsUnenrolledStudents(t *testing.T) {
	store := &attendanceStoreMock{enrolled: map[string]bool{"s-1": true}}
	svc := NewAttendanceService(store, nil, nil)

	_, err := svc.Mark(context.Background(), dto.MarkAttendanceRequest{
		CourseID:   "CSC101",
		Date:       "2024-03-04",
		Attendance: map[string]string{"s-1": "present", "s-9": "absent"},
	}, "lec-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "s-9")
	assert.False(t, store.committed)
	assert.Empty(t, store.written)
}

func TestMarkAttendanceValidation(t *testing.T) {
	svc := NewAttendanceService(&attendanceStoreMock{}, nil, nil)

	_, err := svc.Mark(context.Background(), dto.MarkAttendanceRequest{CourseID: "CSC101", Date: "04/03/2024", Attendance: map[string]string{"s-1": "present"}}, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Mark(context.Background(), dto.MarkAttendanceRequest{CourseID: "CSC101", Date: "2024-03-04", Attendance: map[string]string{"s-1": "sleeping"}}, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestMarkAttendanceStoreFailure(t *testing.T) {
	store := &attendanceStoreMock{enrolled: map[string]bool{"s-1": true}, upsertErr: errors.New("connection reset")}
	svc := NewAttendanceService(store, nil, nil)

	_, err := svc.Mark(context.Background(), dto.MarkAttendanceRequest{CourseID: "CSC101", Date: "2024-03-04", Attendance: map[string]string{"s-1": "present"}}, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}
