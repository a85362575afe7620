package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// GradeRepository persists assignment grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// WithinTx runs fn inside a read committed transaction.
func (r *GradeRepository) WithinTx(ctx context.Context, fn func(tx GradeTx) error) error {
	return withTxQueries(ctx, r.db, func(q *txQueries) error { return fn(q) })
}

// List returns grades joined with assignment and course details, newest first.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("g.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	limit := ""
	if filter.Limit > 0 {
		limit = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.assignment_id, g.course_id, g.score, g.comments, g.graded_by, g.graded_at, g.created_at, g.updated_at,
       a.title AS assignment_title, a.assignment_type, a.max_score, c.code AS course_code, c.name AS course_name
FROM grades g
JOIN assignments a ON a.id = g.assignment_id
JOIN courses c ON c.id = g.course_id
WHERE %s
ORDER BY g.graded_at DESC%s`, strings.Join(conditions, " AND "), limit)
	var rows []models.GradeDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return rows, nil
}

// CourseSummary aggregates per-student totals for one course.
func (r *GradeRepository) CourseSummary(ctx context.Context, courseID string) ([]models.CourseGradeSummary, error) {
	const query = `SELECT s.id AS student_id, TRIM(s.first_name || ' ' || s.last_name) AS full_name,
       COUNT(g.id) AS graded_count,
       COALESCE(SUM(g.score), 0) AS total_score,
       COALESCE(SUM(a.max_score), 0) AS total_max,
       CASE WHEN COALESCE(SUM(a.max_score), 0) = 0 THEN 0
            ELSE ROUND(SUM(g.score) * 100.0 / SUM(a.max_score), 2) END AS percentage
FROM enrollments e
JOIN students s ON s.id = e.student_id
LEFT JOIN grades g ON g.student_id = e.student_id AND g.course_id = e.course_id
LEFT JOIN assignments a ON a.id = g.assignment_id
WHERE e.course_id = $1 AND e.status = 'enrolled'
GROUP BY s.id, s.first_name, s.last_name
ORDER BY percentage DESC, s.id`
	var rows []models.CourseGradeSummary
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("summarise course grades: %w", err)
	}
	return rows, nil
}
