package dto

// MarkAttendanceRequest captures POST /attendance payload. Attendance maps student id to status.
type MarkAttendanceRequest struct {
	CourseID   string            `json:"courseId" validate:"required"`
	ScheduleID *string           `json:"scheduleId"`
	Date       string            `json:"date" validate:"required,datetime=2006-01-02"`
	Attendance map[string]string `json:"attendance" validate:"required,min=1,dive,keys,required,endkeys,oneof=present absent late excused"`
}

// MarkAttendanceResult reports how many rows were written.
type MarkAttendanceResult struct {
	CourseID string `json:"courseId"`
	Date     string `json:"date"`
	Marked   int    `json:"marked"`
}

// AnnouncementRequest captures POST /announcements payload.
type AnnouncementRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Content  string  `json:"content" validate:"required"`
	Priority string  `json:"priority" validate:"omitempty,oneof=urgent high normal low"`
	Audience string  `json:"audience" validate:"omitempty,oneof=all students lecturers"`
	Expiry   *string `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
}
