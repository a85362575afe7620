package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type submissionStore interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
	WithinSubmissionTx(ctx context.Context, fn func(tx repository.SubmissionTx) error) error
}

type artifactStorage interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Delete(name string) error
}

type submissionRecorder interface {
	RecordSubmission()
}

// SubmissionConfig bounds accepted uploads.
type SubmissionConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	PublicPrefix string
}

const submissionUniqueConstraint = "submissions_student_assignment_uniq"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9-]`)

// SubmissionService stores assignment artifacts and records one submission per student and assignment.
type SubmissionService struct {
	store     submissionStore
	storage   artifactStorage
	activity  activityWriter
	metrics   submissionRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubmissionConfig
	allowed   map[string]struct{}
	now       func() time.Time
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(store submissionStore, storage artifactStorage, activity activityWriter, metrics submissionRecorder, cfg SubmissionConfig, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = "/uploads/assignments"
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &SubmissionService{
		store:     store,
		storage:   storage,
		activity:  activity,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		allowed:   allowed,
		now:       time.Now,
	}
}

// Submit validates and stores the upload, then upserts the submission row. The stored
// file is removed again when the row cannot be written.
func (s *SubmissionService) Submit(ctx context.Context, req dto.SubmitAssignmentRequest, upload *dto.Upload) (*dto.SubmissionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if upload == nil || upload.Content == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !s.allowedType(upload.ContentType, ext) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFileType, "file type is not allowed")
	}

	assignment, err := s.store.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	enrolled, err := s.store.IsEnrolled(ctx, req.StudentID, assignment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "student is not enrolled in this course")
	}

	now := s.now().UTC()
	storedName := fmt.Sprintf("assignment_%s_student_%s_%d_%s%s",
		unsafeNameChars.ReplaceAllString(req.AssignmentID, "_"),
		unsafeNameChars.ReplaceAllString(req.StudentID, "_"),
		now.UnixMilli(), uuid.NewString(), ext)

	written, err := s.storage.SaveStream(storedName, io.LimitReader(upload.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	if written > s.cfg.MaxFileSize {
		s.discard(storedName)
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}

	fileURL := path.Join(s.cfg.PublicPrefix, storedName)
	originalName := filepath.Base(upload.Filename)
	var saved models.Submission
	var replaced string
	write := func(tx repository.SubmissionTx) error {
		existing, err := tx.LockSubmission(ctx, req.StudentID, req.AssignmentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if existing == nil {
			existing = &models.Submission{
				StudentID:    req.StudentID,
				AssignmentID: req.AssignmentID,
				Status:       models.SubmissionStatusPending,
				CreatedAt:    now,
			}
		}
		if !existing.Status.CanTransition(models.SubmissionStatusSubmitted) {
			return appErrors.Clone(appErrors.ErrInvalidState, "submission cannot be resubmitted from "+string(existing.Status))
		}
		replaced = deref(existing.StoredName)
		existing.Status = models.SubmissionStatusSubmitted
		existing.FileURL = &fileURL
		existing.FileName = &originalName
		existing.StoredName = &storedName
		existing.Comment = strPtr(strings.TrimSpace(req.Comment))
		existing.SubmittedAt = &now
		existing.UpdatedAt = now
		if existing.ID == "" {
			err = tx.InsertSubmission(ctx, existing)
		} else {
			err = tx.UpdateSubmission(ctx, existing)
		}
		if err != nil {
			return err
		}
		saved = *existing
		return nil
	}
	// Retry once when a concurrent first submission won the insert.
	for attempt := 0; attempt < 2; attempt++ {
		err = s.store.WithinSubmissionTx(ctx, write)
		if !database.IsUniqueViolation(err, submissionUniqueConstraint) {
			break
		}
	}
	if err != nil {
		s.discard(storedName)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if database.IsUniqueViolation(err, submissionUniqueConstraint) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission was modified concurrently, retry")
		}
		s.logger.Error("failed to record submission", zap.String("assignment_id", req.AssignmentID), zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}
	if replaced != "" && replaced != storedName {
		s.discard(replaced)
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission()
	}
	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		Action:     models.ActivitySubmission,
		Resource:   "submission",
		ResourceID: &saved.ID,
	}, map[string]string{"assignment_id": req.AssignmentID, "student_id": req.StudentID})

	return &dto.SubmissionResult{
		SubmissionID: saved.ID,
		FileURL:      fileURL,
		FileName:     originalName,
		Status:       string(saved.Status),
		SubmittedAt:  now,
	}, nil
}

func (s *SubmissionService) allowedType(contentType, ext string) bool {
	mediaType := ""
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(parsed)
		}
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		if byExt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
			mediaType = strings.ToLower(byExt)
		}
	}
	_, ok := s.allowed[mediaType]
	return ok
}

func (s *SubmissionService) discard(name string) {
	if err := s.storage.Delete(name); err != nil {
		s.logger.Warn("failed to remove stored submission", zap.String("file", name), zap.Error(err))
	}
}
