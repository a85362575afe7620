package models

import "time"

// Course is a catalog entry. Capacity caps the number of concurrently enrolled students.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	CreditHours   int       `db:"credit_hours" json:"credit_hours"`
	Level         int       `db:"level" json:"level"`
	Semester      int       `db:"semester" json:"semester"`
	Prerequisites string    `db:"prerequisites" json:"prerequisites"`
	Capacity      int       `db:"capacity" json:"capacity"`
	LecturerID    *string   `db:"lecturer_id" json:"lecturer_id,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseSummary is a catalog row with live seat accounting.
type CourseSummary struct {
	Course
	LecturerName   *string `db:"lecturer_name" json:"lecturer_name,omitempty"`
	EnrolledCount  int     `db:"enrolled_count" json:"enrolled_count"`
	AvailableSeats int     `db:"available_seats" json:"available_seats"`
}

// CourseFilter scopes catalog listings.
type CourseFilter struct {
	Search     string
	Level      int
	Semester   int
	LecturerID string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CourseStudent is a student currently enrolled in a course.
type CourseStudent struct {
	StudentID  string    `db:"student_id" json:"student_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Level      int       `db:"level" json:"level"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}
