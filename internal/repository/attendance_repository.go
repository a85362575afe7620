package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// AttendanceRepository persists per-session attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// WithinTx runs fn inside a read committed transaction.
func (r *AttendanceRepository) WithinTx(ctx context.Context, fn func(tx AttendanceTx) error) error {
	return withTxQueries(ctx, r.db, func(q *txQueries) error { return fn(q) })
}

// List returns attendance rows matching filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("a.attendance_date = $%d", len(args)+1))
		args = append(args, filter.Date.Format("2006-01-02"))
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.attendance_date >= $%d", len(args)+1))
		args = append(args, filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.attendance_date <= $%d", len(args)+1))
		args = append(args, filter.To.Format("2006-01-02"))
	}
	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.course_id, a.schedule_id, a.attendance_date, a.status, a.marked_by, a.created_at, a.updated_at,
       TRIM(s.first_name || ' ' || s.last_name) AS student_name, c.code AS course_code, c.name AS course_name
FROM attendance a
JOIN students s ON s.id = a.student_id
JOIN courses c ON c.id = a.course_id
WHERE %s
ORDER BY a.attendance_date DESC, c.code, s.last_name`, strings.Join(conditions, " AND "))
	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// SummaryByStudent aggregates attendance per course for a student. Late counts as attended.
func (r *AttendanceRepository) SummaryByStudent(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	const query = `SELECT c.id AS course_id, c.code AS course_code, c.name AS course_name,
       COUNT(a.id) AS total_sessions,
       COUNT(*) FILTER (WHERE a.status = 'present') AS present,
       COUNT(*) FILTER (WHERE a.status = 'absent') AS absent,
       COUNT(*) FILTER (WHERE a.status = 'late') AS late,
       COUNT(*) FILTER (WHERE a.status = 'excused') AS excused,
       CASE WHEN COUNT(a.id) = 0 THEN 0
            ELSE ROUND(COUNT(*) FILTER (WHERE a.status IN ('present', 'late')) * 100.0 / COUNT(a.id), 2) END AS percentage
FROM attendance a
JOIN courses c ON c.id = a.course_id
WHERE a.student_id = $1
GROUP BY c.id, c.code, c.name
ORDER BY c.code`
	var rows []models.AttendanceSummary
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("summarise attendance: %w", err)
	}
	return rows, nil
}
