package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

func TestFeeRepositoryBalanceKeepsNegative(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN fee_structure fs ON fs.level = s.level")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "level", "total_due", "total_paid", "outstanding"}).
			AddRow("student-1", 100, 1000.0, 1100.0, -100.0))

	balance, err := repo.Balance(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, -100.0, balance.Outstanding)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryBalanceMissingStudent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.id = $1")).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.Balance(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFeeRepositoryListOutstandingOrdering(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY outstanding DESC, s.id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "full_name", "email", "level", "total_due", "total_paid", "outstanding"}).
			AddRow("s-1", "Ada Obi", "ada@uni.test", 300, 6000.0, 0.0, 6000.0).
			AddRow("s-2", "Bola Ade", "bola@uni.test", 100, 5500.0, 5500.0, 0.0))

	rows, err := repo.ListOutstanding(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "s-1", rows[0].StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryCreatePayment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(sqlmock.AnyArg(), "student-1", 400.0, "transfer", nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	payment := &models.Payment{StudentID: "student-1", Amount: 400, Method: "transfer"}
	require.NoError(t, repo.CreatePayment(context.Background(), payment))
	assert.NotEmpty(t, payment.ID)
	assert.False(t, payment.PaidAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
