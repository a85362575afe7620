package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// EnrollmentRepository persists course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// WithinTx runs fn inside a read committed transaction.
func (r *EnrollmentRepository) WithinTx(ctx context.Context, fn func(tx EnrollmentTx) error) error {
	return withTxQueries(ctx, r.db, func(q *txQueries) error { return fn(q) })
}

// ListByStudent returns every enrollment of a student, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.status, e.enrolled_at, e.dropped_at, e.updated_at,
       c.code AS course_code, c.name AS course_name, c.credit_hours,
       NULLIF(TRIM(l.first_name || ' ' || l.last_name), '') AS lecturer_name
FROM enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN lecturers l ON l.id = c.lecturer_id
WHERE e.student_id = $1
ORDER BY e.enrolled_at DESC`
	var rows []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return rows, nil
}

// ListAvailable returns active courses with free seats the student is not enrolled in.
func (r *EnrollmentRepository) ListAvailable(ctx context.Context, studentID string) ([]models.CourseSummary, error) {
	const query = `SELECT c.id, c.code, c.name, c.credit_hours, c.level, c.semester, c.prerequisites, c.capacity, c.lecturer_id, c.is_active, c.created_at, c.updated_at,
       NULLIF(TRIM(l.first_name || ' ' || l.last_name), '') AS lecturer_name,
       COALESCE(ec.enrolled, 0) AS enrolled_count,
       c.capacity - COALESCE(ec.enrolled, 0) AS available_seats
FROM courses c
LEFT JOIN lecturers l ON l.id = c.lecturer_id
LEFT JOIN (
    SELECT course_id, COUNT(*) AS enrolled FROM enrollments WHERE status = 'enrolled' GROUP BY course_id
) ec ON ec.course_id = c.id
WHERE c.is_active = TRUE
  AND c.capacity - COALESCE(ec.enrolled, 0) > 0
  AND NOT EXISTS (
      SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.student_id = $1 AND e.status = 'enrolled'
  )
ORDER BY c.level, c.code`
	var rows []models.CourseSummary
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return rows, nil
}

// ListForReport returns enrollment rows for exports, optionally limited to one course.
func (r *EnrollmentRepository) ListForReport(ctx context.Context, courseID string) ([]models.EnrollmentReportRow, error) {
	query := `SELECT s.id AS student_id, TRIM(s.first_name || ' ' || s.last_name) AS student_name, s.email, s.level,
       c.code AS course_code, c.name AS course_name, e.status, e.enrolled_at
FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN courses c ON c.id = e.course_id`
	args := []interface{}{}
	if courseID != "" {
		query += " WHERE e.course_id = $1"
		args = append(args, courseID)
	}
	query += " ORDER BY c.code, s.last_name, s.first_name, e.enrolled_at"
	var rows []models.EnrollmentReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollment report: %w", err)
	}
	return rows, nil
}
