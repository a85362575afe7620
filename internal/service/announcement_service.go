package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type announcementRepository interface {
	ListActive(ctx context.Context, now time.Time, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
}

// AnnouncementService publishes department announcements.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Active returns published, unexpired announcements. A missing table yields an empty list.
func (s *AnnouncementService) Active(ctx context.Context, limit int) ([]models.Announcement, error) {
	rows, err := s.repo.ListActive(ctx, s.now().UTC(), limit)
	if err != nil {
		if database.IsUndefinedTable(err) {
			s.logger.Warn("announcements table missing, returning empty list")
			return []models.Announcement{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, nil
}

// Create publishes an announcement immediately.
func (s *AnnouncementService) Create(ctx context.Context, req dto.AnnouncementRequest, createdBy string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	now := s.now().UTC()
	a := &models.Announcement{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Priority:    models.AnnouncementPriority(req.Priority),
		Audience:    req.Audience,
		IsActive:    true,
		PublishedAt: now,
		CreatedBy:   strPtr(createdBy),
	}
	if a.Priority == "" {
		a.Priority = models.AnnouncementPriorityNormal
	}
	if a.Audience == "" {
		a.Audience = "all"
	}
	if req.Expiry != nil {
		expiry, err := time.Parse(attendanceDateLayout, *req.Expiry)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiryDate must be YYYY-MM-DD")
		}
		if !expiry.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiryDate must be in the future")
		}
		a.ExpiresAt = &expiry
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return a, nil
}
