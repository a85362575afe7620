package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, req dto.CreateAssignmentRequest, createdBy string) (*models.Assignment, error)
	Get(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	ForStudent(ctx context.Context, studentID string) ([]models.StudentAssignment, error)
	Submission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error)
}

type submissionService interface {
	Submit(ctx context.Context, req dto.SubmitAssignmentRequest, upload *dto.Upload) (*dto.SubmissionResult, error)
}

// AssignmentHandler serves assignments and file submissions.
type AssignmentHandler struct {
	assignments assignmentService
	submissions submissionService
	maxBody     int64
}

// NewAssignmentHandler constructs the handler. maxBody bounds the multipart request body.
func NewAssignmentHandler(assignments assignmentService, submissions submissionService, maxBody int64) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, submissions: submissions, maxBody: maxBody}
}

// Create godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid assignment payload"))
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.assignments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param courseId query string false "Course"
// @Param termId query string false "Term"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	rows, err := h.assignments.List(c.Request.Context(), models.AssignmentFilter{
		CourseID: c.Query("courseId"),
		TermID:   c.Query("termId"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// ForStudent godoc
// @Summary Assignments with submission state for a student
// @Tags Assignments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/student/{studentId} [get]
func (h *AssignmentHandler) ForStudent(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.assignments.ForStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Submission godoc
// @Summary Submission of a student for an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Param studentId query string false "Student ID (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id}/submission [get]
func (h *AssignmentHandler) Submission(c *gin.Context) {
	studentID, err := resolveStudentID(c, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	submission, err := h.assignments.Submission(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, submission)
}

// Submit godoc
// @Summary Submit assignment file
// @Description Upload a file (max 10 MiB) for an assignment. Resubmitting replaces the earlier file.
// @Tags Assignments
// @Accept multipart/form-data
// @Produce json
// @Param assignmentId formData string true "Assignment ID"
// @Param studentId formData string false "Student ID (staff only)"
// @Param comment formData string false "Comment"
// @Param file formData file true "Submission file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /assignments/submit [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	var req dto.SubmitAssignmentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, uploadError(err, "invalid submission form"))
		return
	}
	studentID, err := resolveStudentID(c, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.StudentID = studentID

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, uploadError(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	result, err := h.submissions.Submit(c.Request.Context(), req, &dto.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func uploadError(err error, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return appErrors.ErrFileTooLarge
	}
	return invalidPayload(err, msg)
}
