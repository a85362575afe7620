package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped  EnrollmentStatus = "dropped"
)

var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusEnrolled: {EnrollmentStatusDropped},
}

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	return s == EnrollmentStatusEnrolled || s == EnrollmentStatusDropped
}

// CanTransition reports whether an enrollment may move from s to next.
func (s EnrollmentStatus) CanTransition(next EnrollmentStatus) bool {
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Enrollment links a student to a course. Dropped rows are never reactivated.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
	DroppedAt  *time.Time       `db:"dropped_at" json:"dropped_at,omitempty"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with course info.
type EnrollmentDetail struct {
	Enrollment
	CourseCode   string  `db:"course_code" json:"course_code"`
	CourseName   string  `db:"course_name" json:"course_name"`
	CreditHours  int     `db:"credit_hours" json:"credit_hours"`
	LecturerName *string `db:"lecturer_name" json:"lecturer_name,omitempty"`
}

// CourseSeats is the locked capacity view used while registering.
type CourseSeats struct {
	CourseID      string `db:"id"`
	Capacity      int    `db:"capacity"`
	IsActive      bool   `db:"is_active"`
	EnrolledCount int    `db:"enrolled_count"`
}

// Available returns the remaining seats, never below zero.
func (c CourseSeats) Available() int {
	if left := c.Capacity - c.EnrolledCount; left > 0 {
		return left
	}
	return 0
}

// EnrollmentReportRow is one line of the enrollment export.
type EnrollmentReportRow struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	Email       string           `db:"email" json:"email"`
	Level       int              `db:"level" json:"level"`
	CourseCode  string           `db:"course_code" json:"course_code"`
	CourseName  string           `db:"course_name" json:"course_name"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolled_at"`
}
