package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// DashboardRepository computes headline counts.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats returns department-wide counts and the sum of positive fee balances.
func (r *DashboardRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	query := `SELECT
    (SELECT COUNT(*) FROM students) AS total_students,
    (SELECT COUNT(*) FROM lecturers) AS total_lecturers,
    (SELECT COUNT(*) FROM courses WHERE is_active = TRUE) AS total_courses,
    (SELECT COUNT(*) FROM enrollments WHERE status = 'enrolled') AS active_enrollments,
    (SELECT COALESCE(SUM(GREATEST(COALESCE(fs.amount, 0) - COALESCE(p.total_paid, 0), 0)), 0) ` + balanceFrom + `) AS total_outstanding`
	var stats models.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
