package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/domain/stats"
)

// InvoiceRepo implements invoice.Repository and stats.Repository.
type InvoiceRepo struct {
	mu       sync.RWMutex
	invoices map[int64]*invoice.Invoice
	serials  map[string]int64
	nextID   int64
	now      func() time.Time
}

func NewInvoiceRepo() *InvoiceRepo {
	return &InvoiceRepo{
		invoices: make(map[int64]*invoice.Invoice),
		serials:  make(map[string]int64),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source for created_at and updated_at.
func (r *InvoiceRepo) WithClock(now func() time.Time) *InvoiceRepo {
	r.now = now
	return r
}

func (r *InvoiceRepo) List(_ context.Context, owner int64, f invoice.Filter) ([]invoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	res := make([]invoice.Invoice, 0)
	for _, inv := range r.invoices {
		if inv.CreatedBy != owner {
			continue
		}
		if f.Status != "" && inv.PaymentStatus != f.Status {
			continue
		}
		if search != "" && !matches(inv, search) {
			continue
		}
		res = append(res, *inv)
	}

	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func matches(inv *invoice.Invoice, term string) bool {
	return strings.Contains(strings.ToLower(inv.SerialNumber), term) ||
		strings.Contains(strings.ToLower(inv.DeviceName), term) ||
		strings.Contains(strings.ToLower(inv.CustomerName), term)
}

func (r *InvoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.serials[inv.SerialNumber]; ok {
		return invoice.ErrDuplicateSerial
	}
	inv.ID = r.nextID
	r.nextID++
	inv.CreatedAt = r.now()
	inv.UpdatedAt = nil

	stored := *inv
	r.invoices[inv.ID] = &stored
	r.serials[inv.SerialNumber] = inv.ID
	return nil
}

func (r *InvoiceRepo) Get(_ context.Context, owner, id int64) (*invoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.invoices[id]
	if !ok || stored.CreatedBy != owner {
		return nil, invoice.ErrNotFound
	}
	inv := *stored
	return &inv, nil
}

func (r *InvoiceRepo) Update(_ context.Context, owner, id int64, p invoice.Patch) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.invoices[id]
	if !ok || stored.CreatedBy != owner {
		return nil, invoice.ErrNotFound
	}

	applyString(&stored.DeviceName, p.DeviceName)
	applyString(&stored.CustomerName, p.CustomerName)
	applyString(&stored.CustomerEmail, p.CustomerEmail)
	applyString(&stored.CustomerPhone, p.CustomerPhone)
	applyString(&stored.PaymentStatus, p.PaymentStatus)
	applyString(&stored.PaymentMethod, p.PaymentMethod)
	applyString(&stored.Notes, p.Notes)
	if p.InvoiceDate != nil {
		stored.InvoiceDate = *p.InvoiceDate
	}
	if p.Amount != nil {
		stored.Amount = *p.Amount
	}
	now := r.now()
	stored.UpdatedAt = &now

	inv := *stored
	return &inv, nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (r *InvoiceRepo) Delete(_ context.Context, owner, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.invoices[id]
	if !ok || stored.CreatedBy != owner {
		return invoice.ErrNotFound
	}
	delete(r.serials, stored.SerialNumber)
	delete(r.invoices, id)
	return nil
}

func (r *InvoiceRepo) Aggregate(_ context.Context, owner int64) (stats.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := stats.Stats{TotalRevenue: decimal.Zero, PendingRevenue: decimal.Zero}
	for _, inv := range r.invoices {
		if inv.CreatedBy != owner {
			continue
		}
		st.TotalInvoices++
		switch inv.PaymentStatus {
		case invoice.StatusPending:
			st.PendingInvoices++
			st.PendingRevenue = st.PendingRevenue.Add(inv.Amount)
		case invoice.StatusPaid:
			st.PaidInvoices++
			st.TotalRevenue = st.TotalRevenue.Add(inv.Amount)
		}
	}
	return st, nil
}
