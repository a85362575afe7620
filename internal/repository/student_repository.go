package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `s.id, s.first_name, s.last_name, s.email, s.phone, s.level, s.created_at, s.updated_at`

// List returns students with their computed fee position.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithBalance, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Level > 0 {
		conditions = append(conditions, fmt.Sprintf("s.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name || ' ' || s.last_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"last_name":   "s.last_name",
		"level":       "s.level",
		"outstanding": "outstanding",
		"created_at":  "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s,
       COALESCE(fs.amount, 0) AS total_due,
       COALESCE(p.total_paid, 0) AS total_paid,
       COALESCE(fs.amount, 0) - COALESCE(p.total_paid, 0) AS outstanding
FROM students s
LEFT JOIN fee_structure fs ON fs.level = s.level
LEFT JOIN (SELECT student_id, SUM(amount) AS total_paid FROM payments GROUP BY student_id) p ON p.student_id = s.id%s
ORDER BY %s %s, s.id LIMIT %d OFFSET %d`, studentColumns, where, column, order, size, (page-1)*size)

	var rows []models.StudentWithBalance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a student. sql.ErrNoRows is returned unwrapped.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Create inserts a student using the given executor so it can join a caller's transaction.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if exec == nil {
		exec = r.db
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, first_name, last_name, email, phone, level, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :email, :phone, :level, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// LecturerRepository manages lecturer records.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a LecturerRepository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

const lecturerColumns = `id, first_name, last_name, email, department, created_at, updated_at`

// List returns lecturers matching filter.
func (r *LecturerRepository) List(ctx context.Context, filter models.LecturerFilter) ([]models.Lecturer, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Department))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name || ' ' || last_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM lecturers%s ORDER BY last_name, first_name LIMIT %d OFFSET %d", lecturerColumns, where, size, (page-1)*size)
	var rows []models.Lecturer
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturers: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM lecturers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturers: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a lecturer. sql.ErrNoRows is returned unwrapped.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	var row models.Lecturer
	if err := r.db.GetContext(ctx, &row, "SELECT "+lecturerColumns+" FROM lecturers WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lecturer: %w", err)
	}
	return &row, nil
}

// Create inserts a lecturer using exec, falling back to the pool.
func (r *LecturerRepository) Create(ctx context.Context, exec sqlx.ExtContext, lecturer *models.Lecturer) error {
	if exec == nil {
		exec = r.db
	}
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lecturer.CreatedAt = now
	lecturer.UpdatedAt = now
	const query = `INSERT INTO lecturers (id, first_name, last_name, email, department, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :email, :department, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, lecturer); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}
