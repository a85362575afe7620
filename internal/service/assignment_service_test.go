package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type assignmentRepoStub struct {
	created   *models.Assignment
	createErr error
}

func (s *assignmentRepoStub) Create(ctx context.Context, a *models.Assignment) error {
	if s.createErr != nil {
		return s.createErr
	}
	a.ID = "asg-1"
	s.created = a
	return nil
}

func (s *assignmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if s.created != nil && s.created.ID == id {
		return s.created, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	return nil, nil
}

func (s *assignmentRepoStub) ListForStudent(ctx context.Context, studentID string) ([]models.StudentAssignment, error) {
	return nil, nil
}

func (s *assignmentRepoStub) FindSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	return nil, sql.ErrNoRows
}

func TestAssignmentServiceCreateDefaults(t *testing.T) {
	repo := &assignmentRepoStub{}
	svc := NewAssignmentService(repo, nil, nil)

	a, err := svc.Create(context.Background(), dto.CreateAssignmentRequest{CourseID: "c-1", Title: "  Lab 1 "}, "lect-user")
	require.NoError(t, err)
	assert.Equal(t, "Lab 1", a.Title)
	assert.Equal(t, models.AssignmentTypeHomework, a.Type)
	assert.Equal(t, float64(100), a.MaxScore)
	require.NotNil(t, a.CreatedBy)
	assert.Equal(t, "lect-user", *a.CreatedBy)

	got, err := svc.Get(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestAssignmentServiceCreateErrors(t *testing.T) {
	svc := NewAssignmentService(&assignmentRepoStub{}, nil, nil)
	_, err := svc.Create(context.Background(), dto.CreateAssignmentRequest{CourseID: "c-1", Title: "x", Type: "essay"}, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	svc = NewAssignmentService(&assignmentRepoStub{createErr: &pq.Error{Code: "23503"}}, nil, nil)
	_, err = svc.Create(context.Background(), dto.CreateAssignmentRequest{CourseID: "missing", Title: "x"}, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAssignmentServiceLookupsNotFound(t *testing.T) {
	svc := NewAssignmentService(&assignmentRepoStub{}, nil, nil)

	_, err := svc.Get(context.Background(), "nope")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Submission(context.Background(), "stu-1", "nope")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
