package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

func TestReportRepositoryCreateDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ReportJob{Type: models.ReportTypeOutstandingFees, Params: models.ReportJobParams{Format: models.ReportFormatCSV}, CreatedBy: "admin-1"}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateBuildsSetClause(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	status := models.ReportStatusFinished
	path := "job-1.csv"
	finished := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, result_path = $2, finished_at = $3 WHERE id = $4")).
		WithArgs(status, path, finished, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "job-1", ReportJobUpdate{Status: &status, ResultPath: &path, FinishedAt: &finished}))
	require.NoError(t, repo.Update(context.Background(), "job-1", ReportJobUpdate{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
