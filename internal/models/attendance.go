package models

import "time"

// AttendanceStatus enumerates per-session attendance marks.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Attendance is unique per (student, course, date).
type Attendance struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	ScheduleID *string          `db:"schedule_id" json:"schedule_id,omitempty"`
	Date       time.Time        `db:"attendance_date" json:"attendance_date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	MarkedBy   *string          `db:"marked_by" json:"marked_by,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail adds student and course names.
type AttendanceDetail struct {
	Attendance
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// AttendanceFilter scopes attendance listings.
type AttendanceFilter struct {
	StudentID string
	CourseID  string
	Date      *time.Time
	From      *time.Time
	To        *time.Time
}

// AttendanceSummary aggregates a student's attendance for one course.
type AttendanceSummary struct {
	CourseID      string  `db:"course_id" json:"course_id"`
	CourseCode    string  `db:"course_code" json:"course_code"`
	CourseName    string  `db:"course_name" json:"course_name"`
	TotalSessions int     `db:"total_sessions" json:"total_sessions"`
	Present       int     `db:"present" json:"present"`
	Absent        int     `db:"absent" json:"absent"`
	Late          int     `db:"late" json:"late"`
	Excused       int     `db:"excused" json:"excused"`
	Percentage    float64 `db:"percentage" json:"percentage"`
}
