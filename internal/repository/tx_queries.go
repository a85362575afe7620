package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
)

// EnrollmentTx is the set of statements the registration flow runs inside one transaction.
type EnrollmentTx interface {
	// LockCourse locks the course row and counts its enrolled rows. Returns sql.ErrNoRows when absent.
	LockCourse(ctx context.Context, courseID string) (*models.CourseSeats, error)
	HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error)
	InsertEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	// LockLatestEnrollment prefers the active row, then the most recent one. Returns sql.ErrNoRows when none exist.
	LockLatestEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, enrollment *models.Enrollment) error
}

// SubmissionTx covers the submission upsert and grade bookkeeping.
type SubmissionTx interface {
	// LockSubmission returns sql.ErrNoRows when the pair has no submission yet.
	LockSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
	InsertSubmission(ctx context.Context, submission *models.Submission) error
	UpdateSubmission(ctx context.Context, submission *models.Submission) error
}

// GradeTx covers grade upserts and the submission status they settle.
type GradeTx interface {
	SubmissionTx
	UpsertGrade(ctx context.Context, grade *models.Grade) error
}

// AttendanceTx covers batch attendance marking.
type AttendanceTx interface {
	EnrolledStudentIDs(ctx context.Context, courseID string, studentIDs []string) (map[string]bool, error)
	UpsertAttendance(ctx context.Context, record *models.Attendance) error
}

const enrollmentColumns = `id, student_id, course_id, status, enrolled_at, dropped_at, updated_at`

const submissionColumns = `id, student_id, assignment_id, status, file_url, file_name, stored_name, comment, submitted_at, created_at, updated_at`

// txQueries implements the transactional interfaces over a single sqlx.Tx.
type txQueries struct {
	tx *sqlx.Tx
}

func withTxQueries(ctx context.Context, db database.TxBeginner, fn func(q *txQueries) error) error {
	return database.WithTx(ctx, db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sqlx.Tx) error {
		return fn(&txQueries{tx: tx})
	})
}

func (q *txQueries) LockCourse(ctx context.Context, courseID string) (*models.CourseSeats, error) {
	var seats models.CourseSeats
	const lockQuery = `SELECT id, capacity, is_active FROM courses WHERE id = $1 FOR UPDATE`
	if err := q.tx.GetContext(ctx, &seats, lockQuery, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock course: %w", err)
	}
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2`
	if err := q.tx.GetContext(ctx, &seats.EnrolledCount, countQuery, courseID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	return &seats, nil
}

func (q *txQueries) HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = $3)`
	var exists bool
	if err := q.tx.GetContext(ctx, &exists, query, studentID, courseID, models.EnrollmentStatusEnrolled); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

func (q *txQueries) InsertEnrollment(ctx context.Context, e *models.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, status, enrolled_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := q.tx.ExecContext(ctx, query, e.ID, e.StudentID, e.CourseID, e.Status, e.EnrolledAt, e.UpdatedAt); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

func (q *txQueries) LockLatestEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND course_id = $2
ORDER BY (status = 'enrolled') DESC, enrolled_at DESC LIMIT 1 FOR UPDATE`
	var e models.Enrollment
	if err := q.tx.GetContext(ctx, &e, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	return &e, nil
}

func (q *txQueries) UpdateEnrollmentStatus(ctx context.Context, e *models.Enrollment) error {
	const query = `UPDATE enrollments SET status = $2, dropped_at = $3, updated_at = $4 WHERE id = $1`
	res, err := q.tx.ExecContext(ctx, query, e.ID, e.Status, e.DroppedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q *txQueries) LockSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE student_id = $1 AND assignment_id = $2 FOR UPDATE`
	var s models.Submission
	if err := q.tx.GetContext(ctx, &s, query, studentID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock submission: %w", err)
	}
	return &s, nil
}

func (q *txQueries) InsertSubmission(ctx context.Context, s *models.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const query = `INSERT INTO submissions (id, student_id, assignment_id, status, file_url, file_name, stored_name, comment, submitted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := q.tx.ExecContext(ctx, query, s.ID, s.StudentID, s.AssignmentID, s.Status, s.FileURL, s.FileName, s.StoredName, s.Comment, s.SubmittedAt, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (q *txQueries) UpdateSubmission(ctx context.Context, s *models.Submission) error {
	const query = `UPDATE submissions SET status = $2, file_url = $3, file_name = $4, stored_name = $5, comment = $6, submitted_at = $7, updated_at = $8 WHERE id = $1`
	if _, err := q.tx.ExecContext(ctx, query, s.ID, s.Status, s.FileURL, s.FileName, s.StoredName, s.Comment, s.SubmittedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}

func (q *txQueries) UpsertGrade(ctx context.Context, g *models.Grade) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	const query = `INSERT INTO grades (id, student_id, assignment_id, course_id, score, comments, graded_by, graded_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8)
ON CONFLICT (student_id, assignment_id) DO UPDATE SET
    score = EXCLUDED.score,
    comments = EXCLUDED.comments,
    graded_by = EXCLUDED.graded_by,
    graded_at = EXCLUDED.graded_at,
    course_id = EXCLUDED.course_id,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at`
	row := q.tx.QueryRowxContext(ctx, query, g.ID, g.StudentID, g.AssignmentID, g.CourseID, g.Score, g.Comments, g.GradedBy, g.GradedAt)
	if err := row.Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

func (q *txQueries) EnrolledStudentIDs(ctx context.Context, courseID string, studentIDs []string) (map[string]bool, error) {
	const query = `SELECT student_id FROM enrollments WHERE course_id = $1 AND status = $2 AND student_id = ANY($3)`
	var ids []string
	if err := q.tx.SelectContext(ctx, &ids, query, courseID, models.EnrollmentStatusEnrolled, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (q *txQueries) UpsertAttendance(ctx context.Context, a *models.Attendance) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO attendance (id, student_id, course_id, schedule_id, attendance_date, status, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (student_id, course_id, attendance_date) DO UPDATE SET
    status = EXCLUDED.status,
    schedule_id = EXCLUDED.schedule_id,
    marked_by = EXCLUDED.marked_by,
    updated_at = EXCLUDED.updated_at
RETURNING id`
	if err := q.tx.QueryRowxContext(ctx, query, a.ID, a.StudentID, a.CourseID, a.ScheduleID, a.Date, a.Status, a.MarkedBy, now).Scan(&a.ID); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	a.UpdatedAt = now
	return nil
}
