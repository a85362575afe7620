package dto

import "github.com/noah-isme/dept-portal-api/internal/models"

// ReportRequest captures POST /reports payload.
type ReportRequest struct {
	Type     models.ReportType   `json:"type" validate:"required,oneof=outstanding_fees enrollments"`
	Format   models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	CourseID string              `json:"courseId"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID          string              `json:"id"`
	Type        models.ReportType   `json:"type"`
	Status      models.ReportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL string              `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}

// AssistantQuestion captures POST /assistant/ask payload.
type AssistantQuestion struct {
	Question string `json:"question" validate:"required,max=500"`
}

// AssistantAnswer is the help desk reply.
type AssistantAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Topic    string `json:"topic"`
}
