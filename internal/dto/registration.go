package dto

// RegistrationRequest captures POST /registration payload.
type RegistrationRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// RegistrationResponse is returned after a successful registration.
type RegistrationResponse struct {
	EnrollmentID string `json:"enrollmentId"`
	Status       string `json:"status"`
}
