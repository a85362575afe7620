package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
)

// ErrCapacityBelowEnrolled is returned when an update would shrink capacity under the enrolled count.
var ErrCapacityBelowEnrolled = errors.New("capacity below enrolled count")

// CourseRepository manages the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseSummarySelect = `SELECT c.id, c.code, c.name, c.credit_hours, c.level, c.semester, c.prerequisites, c.capacity, c.lecturer_id, c.is_active, c.created_at, c.updated_at,
       NULLIF(TRIM(l.first_name || ' ' || l.last_name), '') AS lecturer_name,
       COALESCE(ec.enrolled, 0) AS enrolled_count,
       GREATEST(c.capacity - COALESCE(ec.enrolled, 0), 0) AS available_seats`

const courseSummaryFrom = `FROM courses c
LEFT JOIN lecturers l ON l.id = c.lecturer_id
LEFT JOIN (
    SELECT course_id, COUNT(*) AS enrolled FROM enrollments WHERE status = 'enrolled' GROUP BY course_id
) ec ON ec.course_id = c.id`

// List returns catalog rows with live seat counts.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Level > 0 {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(c.code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"code":       "c.code",
		"name":       "c.name",
		"level":      "c.level",
		"created_at": "c.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "c.code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s %s%s ORDER BY %s %s LIMIT %d OFFSET %d", courseSummarySelect, courseSummaryFrom, where, column, order, size, (page-1)*size)
	var rows []models.CourseSummary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses c"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return rows, total, nil
}

// FindByID returns one catalog row. sql.ErrNoRows is returned unwrapped.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseSummary, error) {
	query := courseSummarySelect + " " + courseSummaryFrom + " WHERE c.id = $1"
	var row models.CourseSummary
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &row, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, name, credit_hours, level, semester, prerequisites, capacity, lecturer_id, is_active, created_at, updated_at)
VALUES (:id, :code, :name, :credit_hours, :level, :semester, :prerequisites, :capacity, :lecturer_id, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites a course. Capacity may not drop below the current enrolled count.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		q := &txQueries{tx: tx}
		seats, err := q.LockCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		if course.Capacity < seats.EnrolledCount {
			return ErrCapacityBelowEnrolled
		}
		course.UpdatedAt = time.Now().UTC()
		const query = `UPDATE courses SET code = $2, name = $3, credit_hours = $4, level = $5, semester = $6, prerequisites = $7,
capacity = $8, lecturer_id = $9, is_active = $10, updated_at = $11 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, course.ID, course.Code, course.Name, course.CreditHours, course.Level, course.Semester,
			course.Prerequisites, course.Capacity, course.LecturerID, course.IsActive, course.UpdatedAt); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		return nil
	})
}

// ListStudents returns students currently enrolled in a course.
func (r *CourseRepository) ListStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error) {
	const query = `SELECT s.id AS student_id, s.first_name, s.last_name, s.email, s.level, e.enrolled_at
FROM enrollments e
JOIN students s ON s.id = e.student_id
WHERE e.course_id = $1 AND e.status = 'enrolled'
ORDER BY s.last_name, s.first_name`
	var rows []models.CourseStudent
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return rows, nil
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
