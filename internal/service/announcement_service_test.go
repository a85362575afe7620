package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type announcementRepoStub struct {
	listErr error
	created *models.Announcement
}

func (s *announcementRepoStub) ListActive(ctx context.Context, now time.Time, limit int) ([]models.Announcement, error) {
	return nil, s.listErr
}

func (s *announcementRepoStub) Create(ctx context.Context, a *models.Announcement) error {
	s.created = a
	return nil
}

func TestAnnouncementsMissingTableIsEmpty(t *testing.T) {
	svc := NewAnnouncementService(&announcementRepoStub{listErr: &pq.Error{Code: "42P01"}}, nil, nil)
	rows, err := svc.Active(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	svc = NewAnnouncementService(&announcementRepoStub{listErr: &pq.Error{Code: "57014"}}, nil, nil)
	_, err = svc.Active(context.Background(), 10)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestAnnouncementCreateDefaults(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	past := "2024-04-30"
	_, err := svc.Create(context.Background(), dto.AnnouncementRequest{Title: "Exams", Content: "Timetable out", Expiry: &past}, "admin-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	future := "2024-06-01"
	a, err := svc.Create(context.Background(), dto.AnnouncementRequest{Title: " Exams ", Content: "Timetable out", Expiry: &future}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Exams", a.Title)
	assert.Equal(t, models.AnnouncementPriorityNormal, a.Priority)
	assert.Equal(t, "all", a.Audience)
	assert.True(t, a.IsActive)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *a.ExpiresAt)
	assert.Same(t, a, repo.created)
}
