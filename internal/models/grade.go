package models

import "time"

// Grade is unique per (student, assignment). CourseID is denormalised for reporting.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Score        float64   `db:"score" json:"score"`
	Comments     *string   `db:"comments" json:"comments,omitempty"`
	GradedBy     *string   `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt     time.Time `db:"graded_at" json:"graded_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail joins a grade with its assignment and course.
type GradeDetail struct {
	Grade
	AssignmentTitle string         `db:"assignment_title" json:"assignment_title"`
	AssignmentType  AssignmentType `db:"assignment_type" json:"assignment_type"`
	MaxScore        float64        `db:"max_score" json:"max_score"`
	CourseCode      string         `db:"course_code" json:"course_code"`
	CourseName      string         `db:"course_name" json:"course_name"`
}

// GradeFilter scopes grade listings.
type GradeFilter struct {
	StudentID string
	CourseID  string
	Limit     int
}

// CourseGradeSummary aggregates one student's grades in a course.
type CourseGradeSummary struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	FullName    string  `db:"full_name" json:"full_name"`
	GradedCount int     `db:"graded_count" json:"graded_count"`
	TotalScore  float64 `db:"total_score" json:"total_score"`
	TotalMax    float64 `db:"total_max" json:"total_max"`
	Percentage  float64 `db:"percentage" json:"percentage"`
}
