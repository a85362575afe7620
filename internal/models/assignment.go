package models

import "time"

// AssignmentType groups assignments for weighting.
type AssignmentType string

const (
	AssignmentTypeHomework AssignmentType = "homework"
	AssignmentTypeQuiz     AssignmentType = "quiz"
	AssignmentTypeProject  AssignmentType = "project"
	AssignmentTypeExam     AssignmentType = "exam"
)

// Assignment belongs to a course and optionally an academic term.
type Assignment struct {
	ID          string         `db:"id" json:"id"`
	CourseID    string         `db:"course_id" json:"course_id"`
	TermID      *string        `db:"term_id" json:"term_id,omitempty"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Type        AssignmentType `db:"assignment_type" json:"assignment_type"`
	MaxScore    float64        `db:"max_score" json:"max_score"`
	Weight      float64        `db:"weight" json:"weight"`
	DueDate     *time.Time     `db:"due_date" json:"due_date,omitempty"`
	CreatedBy   *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter scopes assignment listings.
type AssignmentFilter struct {
	CourseID string
	TermID   string
}

// SubmissionStatus represents where a student's submission is in its lifecycle.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
)

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionStatusPending:   {SubmissionStatusSubmitted},
	SubmissionStatusSubmitted: {SubmissionStatusSubmitted, SubmissionStatusGraded},
	SubmissionStatusGraded:    {SubmissionStatusSubmitted},
}

// CanTransition reports whether a submission may move from s to next.
// Resubmitting a graded assignment reopens it for grading.
func (s SubmissionStatus) CanTransition(next SubmissionStatus) bool {
	for _, allowed := range submissionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Submission is a student's artifact for one assignment, unique per (student, assignment).
type Submission struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	AssignmentID string           `db:"assignment_id" json:"assignment_id"`
	Status       SubmissionStatus `db:"status" json:"status"`
	FileURL      *string          `db:"file_url" json:"file_url,omitempty"`
	FileName     *string          `db:"file_name" json:"file_name,omitempty"`
	StoredName   *string          `db:"stored_name" json:"-"`
	Comment      *string          `db:"comment" json:"comment,omitempty"`
	SubmittedAt  *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentAssignment is an assignment from one of the student's enrolled courses with their progress.
type StudentAssignment struct {
	Assignment
	CourseCode       string           `db:"course_code" json:"course_code"`
	CourseName       string           `db:"course_name" json:"course_name"`
	SubmissionStatus SubmissionStatus `db:"submission_status" json:"submission_status"`
	SubmittedAt      *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	FileURL          *string          `db:"file_url" json:"file_url,omitempty"`
	Score            *float64         `db:"score" json:"score,omitempty"`
}
