package dto

// CourseRequest captures POST /courses and PUT /courses/:id payloads.
type CourseRequest struct {
	Code          string  `json:"code" validate:"required,max=20"`
	Name          string  `json:"name" validate:"required,max=200"`
	CreditHours   int     `json:"creditHours" validate:"gte=0,lte=12"`
	Level         int     `json:"level" validate:"required,oneof=100 200 300 400 500"`
	Semester      int     `json:"semester" validate:"required,oneof=1 2"`
	Prerequisites string  `json:"prerequisites" validate:"max=500"`
	Capacity      int     `json:"capacity" validate:"gte=0"`
	LecturerID    *string `json:"lecturerId"`
	IsActive      *bool   `json:"isActive"`
}
