package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/export"
)

// ledgerFeeRepo computes balances the same way the SQL does.
type ledgerFeeRepo struct {
	students  map[string]models.Student
	fees      map[int]float64
	payments  []models.Payment
	createErr error
}

func (r *ledgerFeeRepo) balance(st models.Student) models.FeeBalance {
	var paid float64
	for _, p := range r.payments {
		if p.StudentID == st.ID {
			paid += p.Amount
		}
	}
	due := r.fees[st.Level]
	return models.FeeBalance{StudentID: st.ID, Level: st.Level, TotalDue: due, TotalPaid: paid, Outstanding: due - paid}
}

func (r *ledgerFeeRepo) Balance(ctx context.Context, studentID string) (*models.FeeBalance, error) {
	st, ok := r.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	b := r.balance(st)
	return &b, nil
}

func (r *ledgerFeeRepo) ListOutstanding(ctx context.Context) ([]models.OutstandingFee, error) {
	var rows []models.OutstandingFee
	for _, st := range r.students {
		b := r.balance(st)
		rows = append(rows, models.OutstandingFee{StudentID: st.ID, FullName: st.FullName(), Level: st.Level, TotalDue: b.TotalDue, TotalPaid: b.TotalPaid, Outstanding: b.Outstanding})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Outstanding != rows[j].Outstanding {
			return rows[i].Outstanding > rows[j].Outstanding
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	return rows, nil
}

func (r *ledgerFeeRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = "pay-" + p.StudentID
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	r.payments = append(r.payments, *p)
	return nil
}

func (r *ledgerFeeRepo) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ledgerFeeRepo) ListStructure(ctx context.Context) ([]models.FeeStructure, error) {
	return nil, nil
}

func (r *ledgerFeeRepo) UpsertStructure(ctx context.Context, fee *models.FeeStructure) error {
	r.fees[fee.Level] = fee.Amount
	return nil
}

func (r *ledgerFeeRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	st, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

type recordingCache struct {
	deleted []string
}

func (c *recordingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *recordingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func newLedger() *ledgerFeeRepo {
	return &ledgerFeeRepo{
		students: map[string]models.Student{
			"s-1": {ID: "s-1", FirstName: "Ada", LastName: "Obi", Email: "ada@uni.example", Level: 200},
			"s-2": {ID: "s-2", FirstName: "Bayo", LastName: "Ade", Email: "bayo@uni.example", Level: 200},
			"s-3": {ID: "s-3", FirstName: "Chi", LastName: "Eze", Email: "chi@uni.example", Level: 600},
		},
		fees: map[int]float64{100: 5500, 200: 5500, 300: 6000, 400: 6000},
	}
}

func TestFeeServiceOutstandingScenario(t *testing.T) {
	repo := newLedger()
	svc := NewFeeService(repo, repo, nil, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, dto.RecordPaymentRequest{StudentID: "s-1", Amount: 2000}, "admin-1")
	require.NoError(t, err)

	balance, err := svc.GetOutstandingBalance(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 3500.0, balance)

	_, err = svc.RecordPayment(ctx, dto.RecordPaymentRequest{StudentID: "s-1", Amount: 4000}, "admin-1")
	require.NoError(t, err)
	balance, err = svc.GetOutstandingBalance(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, -500.0, balance, "overpayment is kept as a negative balance")

	balance, err = svc.GetOutstandingBalance(ctx, "s-3")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance, "a level without a fee row owes nothing")

	rows, err := svc.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "s-2", rows[0].StudentID)
	assert.Equal(t, models.FeeStatusUnpaid, rows[0].Status)
	assert.Equal(t, "s-3", rows[1].StudentID)
	assert.Equal(t, models.FeeStatusPaid, rows[1].Status)
	assert.Equal(t, "s-1", rows[2].StudentID)
	assert.Equal(t, models.FeeStatusPaid, rows[2].Status)
	assert.Equal(t, -500.0, rows[2].Outstanding)
	assert.Equal(t, 0.0, rows[2].DisplayOutstanding())

	again, err := svc.ListOutstanding(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestFeeServiceOutstandingTracksNewStudents(t *testing.T) {
	repo := newLedger()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewFeeService(repo, repo, cache, nil, nil, nil, nil)
	ctx := context.Background()

	rows, err := svc.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	repo.students["s-4"] = models.Student{ID: "s-4", FirstName: "Dayo", LastName: "Ola", Email: "dayo@uni.example", Level: 100}
	balance, err := svc.GetOutstandingBalance(ctx, "s-4")
	require.NoError(t, err)
	assert.Equal(t, 5500.0, balance)

	rows, err = svc.ListOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, row := range rows {
		if row.StudentID == "s-4" {
			assert.Equal(t, balance, row.Outstanding)
			assert.Equal(t, models.FeeStatusUnpaid, row.Status)
		}
	}
}

func TestFeeServicePartialStatus(t *testing.T) {
	repo := newLedger()
	svc := NewFeeService(repo, repo, nil, nil, nil, nil, nil)
	_, err := svc.RecordPayment(context.Background(), dto.RecordPaymentRequest{StudentID: "s-2", Amount: 100}, "")
	require.NoError(t, err)

	rows, err := svc.ListOutstanding(context.Background())
	require.NoError(t, err)
	for _, row := range rows {
		if row.StudentID == "s-2" {
			assert.Equal(t, models.FeeStatusPartial, row.Status)
		}
	}
}

func TestFeeServiceBalanceUnknownStudent(t *testing.T) {
	repo := newLedger()
	svc := NewFeeService(repo, repo, nil, nil, nil, nil, nil)
	_, err := svc.GetOutstandingBalance(context.Background(), "nobody")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceRecordPaymentValidatesAndInvalidates(t *testing.T) {
	repo := newLedger()
	cacheRepo := &recordingCache{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewFeeService(repo, repo, cache, nil, nil, nil, nil)

	_, err := svc.RecordPayment(context.Background(), dto.RecordPaymentRequest{StudentID: "s-1", Amount: 0}, "admin")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, cacheRepo.deleted)

	payment, err := svc.RecordPayment(context.Background(), dto.RecordPaymentRequest{StudentID: "s-1", Amount: 250, Reference: " TX-1 "}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "cash", payment.Method)
	assert.Equal(t, "TX-1", *payment.Reference)
	assert.Equal(t, []string{cacheKeyDashboardStats}, cacheRepo.deleted)

	repo.createErr = &pq.Error{Code: "23503"}
	_, err = svc.RecordPayment(context.Background(), dto.RecordPaymentRequest{StudentID: "ghost", Amount: 10}, "admin")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

type capturingRenderer struct {
	doc export.Document
}

func (r *capturingRenderer) RenderDocument(doc export.Document) ([]byte, error) {
	r.doc = doc
	return []byte("%PDF"), nil
}

func TestFeeServiceStatement(t *testing.T) {
	repo := newLedger()
	renderer := &capturingRenderer{}
	svc := NewFeeService(repo, repo, nil, nil, renderer, nil, nil)
	_, err := svc.RecordPayment(context.Background(), dto.RecordPaymentRequest{StudentID: "s-1", Amount: 6000}, "admin")
	require.NoError(t, err)

	pdf, err := svc.Statement(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
	assert.Len(t, renderer.doc.Table.Rows, 1)
	assert.Contains(t, renderer.doc.Subtitle, "Ada Obi")
	assert.Equal(t, export.Field{Label: "Outstanding", Value: "0.00"}, renderer.doc.Summary[2])
	assert.Equal(t, export.Field{Label: "Status", Value: "Paid"}, renderer.doc.Summary[3])
}

func TestFeeServiceSetStructureRejectsUnknownLevel(t *testing.T) {
	repo := newLedger()
	svc := NewFeeService(repo, repo, nil, nil, nil, nil, nil)
	_, err := svc.SetStructure(context.Background(), 700, dto.FeeStructureRequest{Amount: 100})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	fee, err := svc.SetStructure(context.Background(), 500, dto.FeeStructureRequest{Amount: 7000})
	require.NoError(t, err)
	assert.Equal(t, 7000.0, fee.Amount)
	assert.Equal(t, 7000.0, repo.fees[500])
}
