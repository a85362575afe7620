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

// AssignmentRepository persists assignments and their submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `a.id, a.course_id, a.term_id, a.title, a.description, a.assignment_type, a.max_score, a.weight, a.due_date, a.created_by, a.created_at, a.updated_at`

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	const query = `INSERT INTO assignments (id, course_id, term_id, title, description, assignment_type, max_score, weight, due_date, created_by, created_at, updated_at)
VALUES (:id, :course_id, :term_id, :title, :description, :assignment_type, :max_score, :weight, :due_date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment. sql.ErrNoRows is returned unwrapped.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, "SELECT "+assignmentColumns+" FROM assignments a WHERE a.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &a, nil
}

// List returns assignments filtered by course and term, soonest due first.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("a.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	query := fmt.Sprintf("SELECT %s FROM assignments a WHERE %s ORDER BY a.due_date ASC NULLS LAST, a.created_at DESC", assignmentColumns, strings.Join(conditions, " AND "))
	var rows []models.Assignment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return rows, nil
}

// ListForStudent returns assignments of the student's enrolled courses with submission progress.
func (r *AssignmentRepository) ListForStudent(ctx context.Context, studentID string) ([]models.StudentAssignment, error) {
	query := `SELECT ` + assignmentColumns + `,
       c.code AS course_code, c.name AS course_name,
       COALESCE(sub.status, 'pending') AS submission_status,
       sub.submitted_at, sub.file_url, g.score
FROM assignments a
JOIN courses c ON c.id = a.course_id
JOIN enrollments e ON e.course_id = a.course_id AND e.student_id = $1 AND e.status = 'enrolled'
LEFT JOIN submissions sub ON sub.assignment_id = a.id AND sub.student_id = $1
LEFT JOIN grades g ON g.assignment_id = a.id AND g.student_id = $1
ORDER BY a.due_date ASC NULLS LAST, a.title`
	var rows []models.StudentAssignment
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student assignments: %w", err)
	}
	return rows, nil
}

// IsEnrolled reports whether the student is actively enrolled in the course.
func (r *AssignmentRepository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = 'enrolled')`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, studentID, courseID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return ok, nil
}

// WithinSubmissionTx runs fn inside a transaction for submission upserts.
func (r *AssignmentRepository) WithinSubmissionTx(ctx context.Context, fn func(tx SubmissionTx) error) error {
	return withTxQueries(ctx, r.db, func(q *txQueries) error { return fn(q) })
}

// FindSubmission returns the submission for a pair. sql.ErrNoRows is returned unwrapped.
func (r *AssignmentRepository) FindSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	var s models.Submission
	query := "SELECT " + submissionColumns + " FROM submissions WHERE student_id = $1 AND assignment_id = $2"
	if err := r.db.GetContext(ctx, &s, query, studentID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &s, nil
}
