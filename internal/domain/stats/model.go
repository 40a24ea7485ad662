package stats

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Stats struct {
	TotalInvoices   int64           `db:"total_invoices" json:"total_invoices"`
	PendingInvoices int64           `db:"pending_invoices" json:"pending_invoices"`
	PaidInvoices    int64           `db:"paid_invoices" json:"paid_invoices"`
	TotalRevenue    decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	PendingRevenue  decimal.Decimal `db:"pending_revenue" json:"pending_revenue"`
}

func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalInvoices   int64       `json:"total_invoices"`
		PendingInvoices int64       `json:"pending_invoices"`
		PaidInvoices    int64       `json:"paid_invoices"`
		TotalRevenue    json.Number `json:"total_revenue"`
		PendingRevenue  json.Number `json:"pending_revenue"`
	}{
		TotalInvoices:   s.TotalInvoices,
		PendingInvoices: s.PendingInvoices,
		PaidInvoices:    s.PaidInvoices,
		TotalRevenue:    json.Number(s.TotalRevenue.String()),
		PendingRevenue:  json.Number(s.PendingRevenue.String()),
	})
}

// UnmarshalJSON reads the cached form back; decimal accepts both numbers
// and quoted strings.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw struct {
		TotalInvoices   int64           `json:"total_invoices"`
		PendingInvoices int64           `json:"pending_invoices"`
		PaidInvoices    int64           `json:"paid_invoices"`
		TotalRevenue    decimal.Decimal `json:"total_revenue"`
		PendingRevenue  decimal.Decimal `json:"pending_revenue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Stats(raw)
	return nil
}

// Repository aggregates one owner's invoices in a single query.
type Repository interface {
	Aggregate(ctx context.Context, owner int64) (Stats, error)
}
