package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

func TestCourseRepositoryUpdateRejectsCapacityBelowEnrolled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, capacity, is_active FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity", "is_active"}).AddRow("course-1", 30, true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs("course-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Course{ID: "course-1", Code: "CSC101", Capacity: 10})
	assert.True(t, errors.Is(err, ErrCapacityBelowEnrolled))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateWritesRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, capacity, is_active FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity", "is_active"}).AddRow("course-1", 30, true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs("course-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET code = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Course{ID: "course-1", Code: "CSC101", Name: "Intro", Capacity: 12, IsActive: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectQuery("WHERE c.id = \\$1").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestAssignmentRepositoryListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND a.course_id = $1 AND a.term_id = $2 ORDER BY a.due_date ASC NULLS LAST")).
		WithArgs("course-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "title"}).AddRow("asg-1", "course-1", "Essay"))

	rows, err := repo.List(context.Background(), models.AssignmentFilter{CourseID: "course-1", TermID: "term-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Essay", rows[0].Title)
}

func TestAssignmentRepositoryIsEnrolled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = 'enrolled')")).
		WithArgs("s-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsEnrolled(context.Background(), "s-1", "course-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAssignmentRepositoryFindSubmissionNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("FROM submissions WHERE student_id = \\$1 AND assignment_id = \\$2").
		WithArgs("s-1", "asg-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSubmission(context.Background(), "s-1", "asg-1")
	assert.Equal(t, sql.ErrNoRows, err)
}
