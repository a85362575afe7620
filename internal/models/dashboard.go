package models

import "time"

// DashboardStats are the department-wide headline counts.
type DashboardStats struct {
	TotalStudents    int       `db:"total_students" json:"total_students"`
	TotalLecturers   int       `db:"total_lecturers" json:"total_lecturers"`
	TotalCourses     int       `db:"total_courses" json:"total_courses"`
	ActiveEnrollment int       `db:"active_enrollments" json:"active_enrollments"`
	TotalOutstanding float64   `db:"total_outstanding" json:"total_outstanding"`
	GeneratedAt      time.Time `db:"-" json:"generated_at"`
}

// StudentDashboard is the landing view for a signed-in student.
type StudentDashboard struct {
	Student      Student            `json:"student"`
	Enrollments  []EnrollmentDetail `json:"enrollments"`
	RecentGrades []GradeDetail      `json:"recent_grades"`
	Fees         FeeBalance         `json:"fees"`
}

// SystemMetrics is captured from in-process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	RegistrationsTotal       uint64    `json:"registrations_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
