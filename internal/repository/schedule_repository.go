package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// ScheduleRepository reads class schedules and academic terms.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule rows matching filter ordered by weekday and start time.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("cs.day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	query := fmt.Sprintf(`SELECT cs.id, cs.course_id, cs.term_id, cs.day_of_week, cs.start_time, cs.end_time, cs.room, cs.created_at,
       c.code AS course_code, c.name AS course_name,
       NULLIF(TRIM(l.first_name || ' ' || l.last_name), '') AS lecturer_name
FROM class_schedules cs
JOIN courses c ON c.id = cs.course_id
LEFT JOIN lecturers l ON l.id = c.lecturer_id
WHERE %s
ORDER BY cs.day_of_week, cs.start_time, c.code`, strings.Join(conditions, " AND "))
	var rows []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return rows, nil
}

// ListTerms returns academic terms, most recent first.
func (r *ScheduleRepository) ListTerms(ctx context.Context) ([]models.AcademicTerm, error) {
	var rows []models.AcademicTerm
	const query = `SELECT id, name, start_date, end_date, is_current, created_at FROM academic_terms ORDER BY start_date DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list academic terms: %w", err)
	}
	return rows, nil
}
