package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type directoryStub struct {
	students []models.StudentWithBalance
}

func (d *directoryStub) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithBalance, int, error) {
	return d.students, len(d.students), nil
}

func (d *directoryStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return nil, sql.ErrNoRows
}

type lecturerDirectoryStub struct{}

func (lecturerDirectoryStub) List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error) {
	return []models.Lecturer{{ID: "l-1"}}, 1, nil
}

func (lecturerDirectoryStub) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	return nil, sql.ErrNoRows
}

func TestDirectoryServiceStudentsPagination(t *testing.T) {
	students := &directoryStub{students: make([]models.StudentWithBalance, 3)}
	svc := NewDirectoryService(students, lecturerDirectoryStub{}, nil)

	rows, page, err := svc.Students(context.Background(), models.StudentFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 3, page.TotalCount)

	lecturers, page, err := svc.Lecturers(context.Background(), models.LecturerFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, lecturers, 1)
	assert.Equal(t, 2, page.Page)
}

func TestDirectoryServiceNotFound(t *testing.T) {
	svc := NewDirectoryService(&directoryStub{}, lecturerDirectoryStub{}, nil)

	_, err := svc.Student(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Lecturer(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
