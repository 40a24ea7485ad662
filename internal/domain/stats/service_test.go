package stats_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/domain/stats"
	"invoice-system/internal/repository/memory"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	v, ok := c.data[key]
	if !ok {
		return nil, stats.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(ctx); err != nil {
		return err
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *mapCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// check behaves like a network client: a done context fails the call.
func (c *mapCache) check(ctx context.Context) error {
	if c.fail {
		return errors.New("cache down")
	}
	return ctx.Err()
}

func strp(s string) *string { return &s }

func seed(t *testing.T, repo *memory.InvoiceRepo, owner int64, serial, status, amount string) {
	t.Helper()
	err := repo.Create(context.Background(), &invoice.Invoice{
		SerialNumber:  serial,
		InvoiceDate:   invoice.NewDate(2026, 1, 1),
		Amount:        decimal.RequireFromString(amount),
		PaymentStatus: status,
		CreatedBy:     owner,
	})
	require.NoError(t, err)
}

func TestComputeExample(t *testing.T) {
	repo := memory.NewInvoiceRepo()
	seed(t, repo, 1, "SN-1", "paid", "100")
	seed(t, repo, 1, "SN-2", "paid", "50")
	seed(t, repo, 1, "SN-3", "pending", "30")
	seed(t, repo, 2, "SN-4", "paid", "999")

	svc := stats.NewService(repo, nil, 0, nil)
	st, err := svc.Compute(context.Background(), 1)
	require.NoError(t, err)

	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"total_invoices": 3,
		"pending_invoices": 1,
		"paid_invoices": 2,
		"total_revenue": 150,
		"pending_revenue": 30
	}`, string(data))
}

func TestComputeEmptyOwnerIsZero(t *testing.T) {
	svc := stats.NewService(memory.NewInvoiceRepo(), nil, 0, nil)
	st, err := svc.Compute(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, st.TotalInvoices)
	assert.True(t, st.TotalRevenue.IsZero())
	assert.True(t, st.PendingRevenue.IsZero())
}

func TestComputeSumsExactly(t *testing.T) {
	repo := memory.NewInvoiceRepo()
	seed(t, repo, 1, "SN-1", "paid", "0.1")
	seed(t, repo, 1, "SN-2", "paid", "0.2")

	st, err := stats.NewService(repo, nil, 0, nil).Compute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "0.3", st.TotalRevenue.String())
}

func TestCacheIsInvalidatedByGeneration(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvoiceRepo()
	cache := newMapCache()
	svc := stats.NewService(repo, cache, time.Minute, nil)

	seed(t, repo, 1, "SN-1", "paid", "100")
	st, err := svc.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalInvoices)

	seed(t, repo, 1, "SN-2", "pending", "30")
	st, err = svc.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalInvoices, "served from cache")

	svc.Invalidate(ctx, 1)
	st, err = svc.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalInvoices)
	assert.True(t, decimal.NewFromInt(30).Equal(st.PendingRevenue))
}

func TestCacheFailureFallsBackToStore(t *testing.T) {
	repo := memory.NewInvoiceRepo()
	seed(t, repo, 1, "SN-1", "paid", "100")

	cache := newMapCache()
	cache.setFail(true)
	svc := stats.NewService(repo, cache, time.Minute, nil)

	st, err := svc.Compute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.PaidInvoices)
	svc.Invalidate(context.Background(), 1)
}

func TestMutationWithCancelledRequestStillInvalidates(t *testing.T) {
	repo := memory.NewInvoiceRepo()
	cache := newMapCache()
	svc := stats.NewService(repo, cache, time.Minute, nil)
	invoices := invoice.NewService(repo, svc)

	seed(t, repo, 1, "SN-1", "paid", "100")
	st, err := svc.Compute(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), st.TotalInvoices)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	amount := invoice.Numeric("30")
	_, err = invoices.Create(ctx, 1, invoice.CreateInput{
		SerialNumber: strp("SN-2"),
		DeviceName:   strp("Phone"),
		CustomerName: strp("Ann"),
		InvoiceDate:  (*invoice.DateText)(strp("2026-01-02")),
		Amount:       &amount,
	})
	require.NoError(t, err)

	st, err = svc.Compute(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalInvoices)
}

func TestFailedInvalidationBypassesCache(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvoiceRepo()
	cache := newMapCache()
	svc := stats.NewService(repo, cache, time.Minute, nil)

	seed(t, repo, 1, "SN-1", "paid", "100")
	_, err := svc.Compute(ctx, 1)
	require.NoError(t, err)

	seed(t, repo, 1, "SN-2", "paid", "50")
	cache.setFail(true)
	svc.Invalidate(ctx, 1)
	cache.setFail(false)

	st, err := svc.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalInvoices)
	assert.True(t, decimal.NewFromInt(150).Equal(st.TotalRevenue))

	st, err = svc.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalInvoices)
}

func TestEvictedGenerationDoesNotServeOldEntry(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewInvoiceRepo()
	cache := newMapCache()
	svc := stats.NewService(repo, cache, time.Minute, nil)

	seed(t, repo, 1, "SN-1", "paid", "100")
	_, err := svc.Compute(ctx, 1)
	require.NoError(t, err)

	seed(t, repo, 1, "SN-2", "pending", "30")
	cache.evict("stats:gen:1")

	st, err := svc.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalInvoices)
}
