package biz

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

var testLogger = log.NewStdLogger(nopWriter{})

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeCatalog struct {
	plans map[string]*Plan
	err   error
	calls int
}

func (c *fakeCatalog) FindPlan(_ context.Context, planID string) (*Plan, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.plans[planID], nil
}

func proPlan() *Plan {
	return &Plan{
		ID:         "pro",
		Name:       "Pro",
		BasePrice:  decimal.NewFromInt(20),
		Currency:   "CNY",
		BaseTokens: 1000,
		Active:     true,
	}
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []*PaymentRequest
	err      error
	block    time.Duration
}

func (p *fakeProvider) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentInstructions, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.block > 0 {
		select {
		case <-time.After(p.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &PaymentInstructions{
		ProviderRef: "pay_" + req.OrderRef,
		Data:        map[string]any{"pay_url": "https://pay.example/" + req.OrderRef},
	}, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// memRepo is an in-memory TransactionRepo honoring the unique order ref.
type memRepo struct {
	mu        sync.Mutex
	rows      map[string]Transaction
	createErr error
	readErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]Transaction{}}
}

func (r *memRepo) Create(_ context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.rows[tx.OrderRef]; ok {
		return ErrOrderRefConflict
	}
	r.rows[tx.OrderRef] = *tx
	return nil
}

func (r *memRepo) Get(_ context.Context, orderRef string) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	row, ok := r.rows[orderRef]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *memRepo) TransitionStatus(_ context.Context, orderRef string, from, to TransactionStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[orderRef]
	if !ok || row.Status != from {
		return false, nil
	}
	row.Status = to
	row.UpdatedAt = at
	row.CompletedAt = &at
	r.rows[orderRef] = row
	return true, nil
}

func (r *memRepo) ListByPayer(_ context.Context, payerID string, page, pageSize int) ([]*Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, 0, r.readErr
	}
	var all []*Transaction
	for _, row := range r.rows {
		if row.PayerID == payerID {
			row := row
			all = append(all, &row)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrderRef > all[j].OrderRef })
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], total, nil
}

func (r *memRepo) ListStalePending(_ context.Context, before time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	var refs []string
	for ref, row := range r.rows {
		if row.Status == StatusPending && row.CreatedAt.Before(before) {
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memRepo) setStatus(orderRef string, s TransactionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[orderRef]
	row.Status = s
	r.rows[orderRef] = row
}

var errBoom = stderrors.New("boom")
