package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type gradeLedger struct {
	*memorySubmissionStore
}

func (g gradeLedger) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.GradeDetail
	for _, grade := range g.grades {
		if filter.StudentID != "" && grade.StudentID != filter.StudentID {
			continue
		}
		out = append(out, models.GradeDetail{Grade: grade})
	}
	return out, nil
}

func (g gradeLedger) CourseSummary(ctx context.Context, courseID string) ([]models.CourseGradeSummary, error) {
	return nil, nil
}

func TestUpsertGradeKeepsOneRowPerPair(t *testing.T) {
	store := newMemorySubmissionStore()
	svc := NewGradeService(gradeLedger{store}, store, nil, nil, nil)
	req := dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-1", CourseID: "CSC101", Score: 55}

	first, err := svc.UpsertGrade(context.Background(), req, "lec-1")
	require.NoError(t, err)

	req.Score = 80
	req.Comments = "regraded"
	second, err := svc.UpsertGrade(context.Background(), req, "lec-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	grades, err := svc.List(context.Background(), models.GradeFilter{StudentID: "s-1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 80.0, grades[0].Score)
	assert.Equal(t, "regraded", *grades[0].Comments)
}

func TestUpsertGradeValidatesAgainstAssignment(t *testing.T) {
	store := newMemorySubmissionStore()
	svc := NewGradeService(gradeLedger{store}, store, nil, nil, nil)

	cases := []struct {
		name string
		req  dto.UpsertGradeRequest
		want *appErrors.Error
	}{
		{"above max", dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-1", CourseID: "CSC101", Score: 100.5}, appErrors.ErrValidation},
		{"negative", dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-1", CourseID: "CSC101", Score: -1}, appErrors.ErrValidation},
		{"wrong course", dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-1", CourseID: "MTH201", Score: 10}, appErrors.ErrValidation},
		{"missing assignment", dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-9", CourseID: "CSC101", Score: 10}, appErrors.ErrNotFound},
		{"not enrolled", dto.UpsertGradeRequest{StudentID: "s-2", AssignmentID: "asg-1", CourseID: "CSC101", Score: 10}, appErrors.ErrNotEnrolled},
		{"missing student", dto.UpsertGradeRequest{AssignmentID: "asg-1", CourseID: "CSC101", Score: 10}, appErrors.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertGrade(context.Background(), tc.req, "lec-1")
			assert.True(t, appErrors.Is(err, tc.want), "got %v", err)
		})
	}
	assert.Empty(t, store.grades)
}

func TestGradingSettlesSubmissionAndResubmitReopens(t *testing.T) {
	subs, store, _ := newSubmissionFixture(t)
	grades := NewGradeService(gradeLedger{store}, store, nil, nil, nil)
	ctx := context.Background()
	req := dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}

	_, err := subs.Submit(ctx, req, upload("a.pdf", "application/pdf", []byte("v1")))
	require.NoError(t, err)

	_, err = grades.UpsertGrade(ctx, dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-1", CourseID: "CSC101", Score: 70}, "lec-1")
	require.NoError(t, err)
	row, _ := store.get("s-1", "asg-1")
	assert.Equal(t, models.SubmissionStatusGraded, row.Status)

	subs.now = func() time.Time { return time.UnixMilli(1700000005000) }
	_, err = subs.Submit(ctx, req, upload("b.pdf", "application/pdf", []byte("v2")))
	require.NoError(t, err)
	row, _ = store.get("s-1", "asg-1")
	assert.Equal(t, models.SubmissionStatusSubmitted, row.Status)
	assert.Len(t, store.grades, 1, "the existing grade is kept until regraded")
}

func TestGradeWithoutSubmissionLeavesNoSubmissionRow(t *testing.T) {
	store := newMemorySubmissionStore()
	svc := NewGradeService(gradeLedger{store}, store, nil, nil, nil)

	_, err := svc.UpsertGrade(context.Background(), dto.UpsertGradeRequest{StudentID: "s-1", AssignmentID: "asg-1", CourseID: "CSC101", Score: 0}, "")
	require.NoError(t, err)
	assert.Empty(t, store.submissions)
	assert.Len(t, store.grades, 1)
}

func TestCourseSummaryRequiresCourse(t *testing.T) {
	store := newMemorySubmissionStore()
	svc := NewGradeService(gradeLedger{store}, store, nil, nil, nil)
	_, err := svc.CourseSummary(context.Background(), " ")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
