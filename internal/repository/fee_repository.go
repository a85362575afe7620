package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// FeeRepository reads the fee schedule and the payment ledger.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// balanceFrom is shared by the single-student and bulk queries so both compute the same figure.
const balanceFrom = `FROM students s
LEFT JOIN fee_structure fs ON fs.level = s.level
LEFT JOIN (SELECT student_id, SUM(amount) AS total_paid FROM payments GROUP BY student_id) p ON p.student_id = s.id`

const balanceColumns = `COALESCE(fs.amount, 0) AS total_due,
       COALESCE(p.total_paid, 0) AS total_paid,
       COALESCE(fs.amount, 0) - COALESCE(p.total_paid, 0) AS outstanding`

// Balance returns the raw balance breakdown for one student. sql.ErrNoRows is returned unwrapped.
func (r *FeeRepository) Balance(ctx context.Context, studentID string) (*models.FeeBalance, error) {
	query := `SELECT s.id AS student_id, s.level, ` + balanceColumns + ` ` + balanceFrom + ` WHERE s.id = $1`
	var balance models.FeeBalance
	if err := r.db.GetContext(ctx, &balance, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get fee balance: %w", err)
	}
	return &balance, nil
}

// ListOutstanding returns every student's balance ordered by outstanding amount, highest first.
func (r *FeeRepository) ListOutstanding(ctx context.Context) ([]models.OutstandingFee, error) {
	query := `SELECT s.id AS student_id, TRIM(s.first_name || ' ' || s.last_name) AS full_name, s.email, s.level,
       ` + balanceColumns + `
` + balanceFrom + `
ORDER BY outstanding DESC, s.id ASC`
	var rows []models.OutstandingFee
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list outstanding fees: %w", err)
	}
	return rows, nil
}

// CreatePayment appends a ledger entry.
func (r *FeeRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	payment.CreatedAt = now
	const query = `INSERT INTO payments (id, student_id, amount, method, reference, paid_at, recorded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, payment.ID, payment.StudentID, payment.Amount, payment.Method, payment.Reference, payment.PaidAt, payment.RecordedBy, payment.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// ListPayments returns a student's ledger, newest first.
func (r *FeeRepository) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	const query = `SELECT id, student_id, amount, method, reference, paid_at, recorded_by, created_at
FROM payments WHERE student_id = $1 ORDER BY paid_at DESC, id`
	var rows []models.Payment
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return rows, nil
}

// ListStructure returns the fee schedule ordered by level.
func (r *FeeRepository) ListStructure(ctx context.Context) ([]models.FeeStructure, error) {
	var rows []models.FeeStructure
	if err := r.db.SelectContext(ctx, &rows, `SELECT level, amount, updated_at FROM fee_structure ORDER BY level`); err != nil {
		return nil, fmt.Errorf("list fee structure: %w", err)
	}
	return rows, nil
}

// UpsertStructure sets the fee for a level.
func (r *FeeRepository) UpsertStructure(ctx context.Context, fee *models.FeeStructure) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO fee_structure (level, amount, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (level) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, fee.Level, fee.Amount, fee.UpdatedAt); err != nil {
		return fmt.Errorf("upsert fee structure: %w", err)
	}
	return nil
}
