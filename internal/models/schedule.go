package models

import "time"

// ClassSchedule is a weekly recurring session of a course.
type ClassSchedule struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TermID    *string   `db:"term_id" json:"term_id,omitempty"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      string    `db:"room" json:"room"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduleDetail joins the course.
type ScheduleDetail struct {
	ClassSchedule
	CourseCode   string  `db:"course_code" json:"course_code"`
	CourseName   string  `db:"course_name" json:"course_name"`
	LecturerName *string `db:"lecturer_name" json:"lecturer_name,omitempty"`
}

// ScheduleFilter scopes schedule listings. DayOfWeek uses time.Weekday numbering.
type ScheduleFilter struct {
	CourseID   string
	TermID     string
	LecturerID string
	DayOfWeek  *int
}

// AcademicTerm models a semester or session.
type AcademicTerm struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
