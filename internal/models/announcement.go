package models

import "time"

// AnnouncementPriority defines ordering for announcements.
type AnnouncementPriority string

const (
	AnnouncementPriorityUrgent AnnouncementPriority = "urgent"
	AnnouncementPriorityHigh   AnnouncementPriority = "high"
	AnnouncementPriorityNormal AnnouncementPriority = "normal"
	AnnouncementPriorityLow    AnnouncementPriority = "low"
)

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	Title       string               `db:"title" json:"title"`
	Content     string               `db:"content" json:"content"`
	Priority    AnnouncementPriority `db:"priority" json:"priority"`
	Audience    string               `db:"audience" json:"audience"`
	IsActive    bool                 `db:"is_active" json:"is_active"`
	PublishedAt time.Time            `db:"publish_date" json:"publish_date"`
	ExpiresAt   *time.Time           `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedBy   *string              `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}
