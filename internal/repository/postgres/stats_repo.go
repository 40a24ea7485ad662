package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"invoice-system/internal/domain/stats"
)

const aggregateStatsQuery = `SELECT
COUNT(*) AS total_invoices,
COUNT(*) FILTER (WHERE payment_status = 'pending') AS pending_invoices,
COUNT(*) FILTER (WHERE payment_status = 'paid') AS paid_invoices,
COALESCE(SUM(amount) FILTER (WHERE payment_status = 'paid'), 0) AS total_revenue,
COALESCE(SUM(amount) FILTER (WHERE payment_status = 'pending'), 0) AS pending_revenue
FROM invoices WHERE created_by = $1`

type StatsRepo struct {
	db *sqlx.DB
}

func NewStatsRepo(db *sqlx.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) Aggregate(ctx context.Context, owner int64) (stats.Stats, error) {
	var st stats.Stats
	if err := r.db.GetContext(ctx, &st, aggregateStatsQuery, owner); err != nil {
		return stats.Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return st, nil
}
