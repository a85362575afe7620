package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// AnnouncementRepository persists announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// ListActive returns active, unexpired announcements ordered by priority then publish date.
func (r *AnnouncementRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, title, content, priority, audience, is_active, publish_date, expiry_date, created_by, created_at
FROM announcements
WHERE is_active = TRUE AND publish_date <= $1 AND (expiry_date IS NULL OR expiry_date > $1)
ORDER BY CASE priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'normal' THEN 3 WHEN 'low' THEN 4 ELSE 5 END,
         publish_date DESC
LIMIT %d`, limit)
	var rows []models.Announcement
	if err := r.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return rows, nil
}

// Create inserts an announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	if a.PublishedAt.IsZero() {
		a.PublishedAt = a.CreatedAt
	}
	const query = `INSERT INTO announcements (id, title, content, priority, audience, is_active, publish_date, expiry_date, created_by, created_at)
VALUES (:id, :title, :content, :priority, :audience, :is_active, :publish_date, :expiry_date, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}
