package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

func TestStudentRepositoryListIncludesBalances(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "level", "created_at", "updated_at", "total_due", "total_paid", "outstanding"}).
		AddRow("s-1", "Ada", "Obi", "ada@uni.example", "0800", 200, now, now, 5500.0, 2000.0, 3500.0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND s.level = $1\nORDER BY outstanding DESC, s.id LIMIT 20 OFFSET 0")).
		WithArgs(200).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.level = $1")).
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Level: 200, SortBy: "outstanding"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 3500.0, students[0].Outstanding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateUsesPoolByDefault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{FirstName: "Ada", LastName: "Obi", Email: "ada@uni.example", Level: 100}
	require.NoError(t, repo.Create(context.Background(), nil, student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerRepositoryListFiltersDepartment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLecturerRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM lecturers WHERE 1=1 AND LOWER(department) = $1 ORDER BY last_name")).
		WithArgs("computing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "department", "created_at", "updated_at"}).
			AddRow("l-1", "Grace", "Hopper", "g@uni.example", "Computing", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lecturers WHERE 1=1 AND LOWER(department) = $1")).
		WithArgs("computing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.LecturerFilter{Department: "Computing"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Hopper", rows[0].LastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
