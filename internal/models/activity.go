package models

import "time"

// Activity actions recorded in activity_logs.
const (
	ActivityLogin          = "LOGIN"
	ActivityLogout         = "LOGOUT"
	ActivityRegister       = "REGISTER"
	ActivityPasswordChange = "PASSWORD_CHANGE"
	ActivityCourseRegister = "COURSE_REGISTER"
	ActivityCourseDrop     = "COURSE_DROP"
	ActivitySubmission     = "ASSIGNMENT_SUBMIT"
	ActivityGrade          = "GRADE_UPSERT"
	ActivityPayment        = "PAYMENT_RECORD"
)

// ActivityLog is an audit trail record.
type ActivityLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
