package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/storage"
)

var defaultMIMEs = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/png",
	"image/jpeg",
	"text/plain",
}

// memorySubmissionStore keeps submissions keyed by student and assignment.
type memorySubmissionStore struct {
	mu          sync.Mutex
	assignments map[string]models.Assignment
	enrolled    map[string]bool
	submissions map[string]models.Submission
	grades      map[string]models.Grade
	writeErr    error
	seq         int
}

func newMemorySubmissionStore() *memorySubmissionStore {
	return &memorySubmissionStore{
		assignments: map[string]models.Assignment{"asg-1": {ID: "asg-1", CourseID: "CSC101", MaxScore: 100}},
		enrolled:    map[string]bool{"s-1|CSC101": true},
		submissions: map[string]models.Submission{},
		grades:      map[string]models.Grade{},
	}
}

func (m *memorySubmissionStore) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (m *memorySubmissionStore) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.enrolled[studentID+"|"+courseID], nil
}

func (m *memorySubmissionStore) WithinSubmissionTx(ctx context.Context, fn func(tx repository.SubmissionTx) error) error {
	return m.within(func(tx *memorySubmissionTx) error { return fn(tx) })
}

func (m *memorySubmissionStore) WithinTx(ctx context.Context, fn func(tx repository.GradeTx) error) error {
	return m.within(func(tx *memorySubmissionTx) error { return fn(tx) })
}

func (m *memorySubmissionStore) within(fn func(tx *memorySubmissionTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	submissions := make(map[string]models.Submission, len(m.submissions))
	for k, v := range m.submissions {
		submissions[k] = v
	}
	grades := make(map[string]models.Grade, len(m.grades))
	for k, v := range m.grades {
		grades[k] = v
	}
	if err := fn(&memorySubmissionTx{store: m}); err != nil {
		m.submissions = submissions
		m.grades = grades
		return err
	}
	return nil
}

func (m *memorySubmissionStore) get(studentID, assignmentID string) (models.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[studentID+"|"+assignmentID]
	return s, ok
}

type memorySubmissionTx struct {
	store *memorySubmissionStore
}

func (t *memorySubmissionTx) LockSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	s, ok := t.store.submissions[studentID+"|"+assignmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (t *memorySubmissionTx) InsertSubmission(ctx context.Context, s *models.Submission) error {
	if t.store.writeErr != nil {
		return t.store.writeErr
	}
	t.store.seq++
	s.ID = "sub-" + strings.Repeat("x", t.store.seq)
	t.store.submissions[s.StudentID+"|"+s.AssignmentID] = *s
	return nil
}

func (t *memorySubmissionTx) UpdateSubmission(ctx context.Context, s *models.Submission) error {
	if t.store.writeErr != nil {
		return t.store.writeErr
	}
	t.store.submissions[s.StudentID+"|"+s.AssignmentID] = *s
	return nil
}

func (t *memorySubmissionTx) UpsertGrade(ctx context.Context, g *models.Grade) error {
	key := g.StudentID + "|" + g.AssignmentID
	if existing, ok := t.store.grades[key]; ok {
		g.ID = existing.ID
		g.CreatedAt = existing.CreatedAt
	} else {
		g.ID = "grade-" + g.StudentID + "-" + g.AssignmentID
	}
	t.store.grades[key] = *g
	return nil
}

func newSubmissionFixture(t *testing.T) (*SubmissionService, *memorySubmissionStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	subs := newMemorySubmissionStore()
	svc := NewSubmissionService(subs, store, nil, nil, SubmissionConfig{MaxFileSize: 1024, AllowedMIMEs: defaultMIMEs}, nil, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return svc, subs, dir
}

func upload(name, contentType string, body []byte) *dto.Upload {
	return &dto.Upload{Filename: name, ContentType: contentType, Size: int64(len(body)), Content: bytes.NewReader(body)}
}

func TestSubmissionStoresFileAndRow(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)

	res, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1", Comment: "final"}, upload("Essay.PDF", "application/pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.Regexp(t, `^/uploads/assignments/assignment_asg-1_student_s-1_1700000000123_[0-9a-f-]{36}\.pdf$`, res.FileURL)
	assert.Equal(t, "Essay.PDF", res.FileName)
	assert.Equal(t, string(models.SubmissionStatusSubmitted), res.Status)

	_, err = os.Stat(filepath.Join(dir, path.Base(res.FileURL)))
	require.NoError(t, err)

	row, ok := subs.get("s-1", "asg-1")
	require.True(t, ok)
	assert.Equal(t, models.SubmissionStatusSubmitted, row.Status)
	assert.Equal(t, "final", *row.Comment)
}

func TestSubmissionResubmitUpdatesSameRow(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)
	req := dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}

	first, err := svc.Submit(context.Background(), req, upload("a.txt", "text/plain", []byte("v1")))
	require.NoError(t, err)

	svc.now = func() time.Time { return time.UnixMilli(1700000009999) }
	second, err := svc.Submit(context.Background(), req, upload("b.txt", "text/plain; charset=utf-8", []byte("v2")))
	require.NoError(t, err)

	assert.Equal(t, first.SubmissionID, second.SubmissionID)
	assert.Len(t, subs.submissions, 1)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the replaced artifact is removed")
	assert.Equal(t, path.Base(second.FileURL), entries[0].Name())
}

func TestSubmissionRejectsLargeAndUnsupportedFiles(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)
	req := dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}

	_, err := svc.Submit(context.Background(), req, upload("big.pdf", "application/pdf", bytes.Repeat([]byte("a"), 1025)))
	assert.True(t, appErrors.Is(err, appErrors.ErrFileTooLarge))

	lying := upload("big.pdf", "application/pdf", bytes.Repeat([]byte("a"), 2048))
	lying.Size = 10
	_, err = svc.Submit(context.Background(), req, lying)
	assert.True(t, appErrors.Is(err, appErrors.ErrFileTooLarge), "size is enforced while streaming")

	_, err = svc.Submit(context.Background(), req, upload("run.exe", "application/x-msdownload", []byte("MZ")))
	assert.True(t, appErrors.Is(err, appErrors.ErrUnsupportedFileType))

	_, err = svc.Submit(context.Background(), req, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	assert.Empty(t, subs.submissions)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmissionRequiresEnrollment(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	_, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-2"}, upload("a.pdf", "application/pdf", []byte("x")))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotEnrolled))

	_, err = svc.Submit(context.Background(), dto.SubmitAssignmentRequest{AssignmentID: "missing", StudentID: "s-1"}, upload("a.pdf", "application/pdf", []byte("x")))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSubmissionRemovesFileWhenRowFails(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)
	subs.writeErr = errors.New("deadlock detected")

	_, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}, upload("a.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, subs.submissions)
}

func TestSubmissionSameMillisecondDoesNotCollide(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)
	req := dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}

	first, err := svc.Submit(context.Background(), req, upload("a.pdf", "application/pdf", []byte("v1")))
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), req, upload("a.pdf", "application/pdf", []byte("v2")))
	require.NoError(t, err)

	assert.NotEqual(t, first.FileURL, second.FileURL)
	assert.Equal(t, first.SubmissionID, second.SubmissionID)
	assert.Len(t, subs.submissions, 1)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, path.Base(second.FileURL), entries[0].Name())
}

// racingSubmissionStore lets another writer commit the first row for the pair
// while the first `losses` attempts are inserting.
type racingSubmissionStore struct {
	*memorySubmissionStore
	losses   int
	attempts int
}

func (r *racingSubmissionStore) WithinSubmissionTx(ctx context.Context, fn func(tx repository.SubmissionTx) error) error {
	r.attempts++
	if r.attempts > r.losses {
		return r.memorySubmissionStore.WithinSubmissionTx(ctx, fn)
	}
	err := fn(losingSubmissionTx{})
	winner := "winner.pdf"
	r.submissions["s-1|asg-1"] = models.Submission{
		ID: "sub-winner", StudentID: "s-1", AssignmentID: "asg-1",
		Status: models.SubmissionStatusSubmitted, StoredName: &winner,
	}
	return err
}

type losingSubmissionTx struct{}

func (losingSubmissionTx) LockSubmission(ctx context.Context, studentID, assignmentID string) (*models.Submission, error) {
	return nil, sql.ErrNoRows
}

func (losingSubmissionTx) InsertSubmission(ctx context.Context, s *models.Submission) error {
	return fmt.Errorf("insert submission: %w", &pq.Error{Code: "23505", Constraint: "submissions_student_assignment_uniq"})
}

func (losingSubmissionTx) UpdateSubmission(ctx context.Context, s *models.Submission) error {
	return errors.New("unexpected update")
}

func TestSubmissionConcurrentFirstInsertUpdatesWinnerRow(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)
	racing := &racingSubmissionStore{memorySubmissionStore: subs, losses: 1}
	svc.store = racing

	res, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}, upload("a.pdf", "application/pdf", []byte("v1")))
	require.NoError(t, err)
	assert.Equal(t, 2, racing.attempts)
	assert.Equal(t, "sub-winner", res.SubmissionID)

	row, ok := subs.get("s-1", "asg-1")
	require.True(t, ok)
	assert.Equal(t, path.Base(res.FileURL), *row.StoredName)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmissionPersistentRaceIsConflict(t *testing.T) {
	svc, subs, dir := newSubmissionFixture(t)
	svc.store = &racingSubmissionStore{memorySubmissionStore: subs, losses: 2}

	_, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{AssignmentID: "asg-1", StudentID: "s-1"}, upload("a.pdf", "application/pdf", []byte("v1")))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict), "unexpected error %v", err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the uploaded artifact is removed")
}
