package dto

import (
	"io"
	"time"
)

// SubmitAssignmentRequest carries the form fields of a multipart submission.
type SubmitAssignmentRequest struct {
	AssignmentID string `form:"assignmentId" validate:"required"`
	StudentID    string `form:"studentId" validate:"required"`
	Comment      string `form:"comment" validate:"max=2000"`
}

// Upload describes the file part of a submission.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// SubmissionResult is returned after a file was stored and recorded.
type SubmissionResult struct {
	SubmissionID string    `json:"submissionId"`
	FileURL      string    `json:"fileUrl"`
	FileName     string    `json:"fileName"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// CreateAssignmentRequest captures POST /assignments payload.
type CreateAssignmentRequest struct {
	CourseID    string     `json:"courseId" validate:"required"`
	TermID      *string    `json:"termId"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Type        string     `json:"type" validate:"omitempty,oneof=homework quiz project exam"`
	MaxScore    float64    `json:"maxScore" validate:"omitempty,gt=0,lte=1000"`
	Weight      float64    `json:"weight" validate:"omitempty,gte=0,lte=100"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpsertGradeRequest captures POST /grades payload.
type UpsertGradeRequest struct {
	StudentID    string  `json:"studentId" validate:"required"`
	AssignmentID string  `json:"assignmentId" validate:"required"`
	CourseID     string  `json:"courseId" validate:"required"`
	Score        float64 `json:"score"`
	Comments     string  `json:"comments" validate:"max=2000"`
}
