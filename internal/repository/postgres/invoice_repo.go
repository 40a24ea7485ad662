package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"invoice-system/internal/domain/invoice"
)

const (
	invoiceColumns = `id, serial_number, device_name, customer_name, customer_email, customer_phone,
invoice_date, amount, payment_status, payment_method, notes, file_path, created_by, created_at, updated_at`

	listInvoicesQuery = `SELECT ` + invoiceColumns + ` FROM invoices WHERE created_by = $1`
	invoiceOrder      = ` ORDER BY created_at DESC, id DESC`

	insertInvoiceQuery = `INSERT INTO invoices (serial_number, device_name, customer_name, customer_email,
customer_phone, invoice_date, amount, payment_status, payment_method, notes, file_path, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at`

	getInvoiceQuery = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND created_by = $2`

	updateInvoiceQuery = `UPDATE invoices SET
device_name = COALESCE($3, device_name),
customer_name = COALESCE($4, customer_name),
customer_email = COALESCE($5, customer_email),
customer_phone = COALESCE($6, customer_phone),
invoice_date = COALESCE($7::date, invoice_date),
amount = COALESCE($8::numeric, amount),
payment_status = COALESCE($9, payment_status),
payment_method = COALESCE($10, payment_method),
notes = COALESCE($11, notes),
updated_at = now()
WHERE id = $1 AND created_by = $2
RETURNING ` + invoiceColumns

	deleteInvoiceQuery = `DELETE FROM invoices WHERE id = $1 AND created_by = $2`
)

type InvoiceRepo struct {
	db *sqlx.DB
}

func NewInvoiceRepo(db *sqlx.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

func (r *InvoiceRepo) List(ctx context.Context, owner int64, f invoice.Filter) ([]invoice.Invoice, error) {
	query, args := buildListQuery(owner, f)

	res := make([]invoice.Invoice, 0)
	if err := r.db.SelectContext(ctx, &res, query, args...); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return res, nil
}

func buildListQuery(owner int64, f invoice.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(listInvoicesQuery)
	args := []any{owner}

	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&sb, " AND payment_status = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		fmt.Fprintf(&sb, " AND (serial_number ILIKE $%d OR device_name ILIKE $%d OR customer_name ILIKE $%d)", n, n, n)
	}
	sb.WriteString(invoiceOrder)
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	err := r.db.QueryRowxContext(ctx, insertInvoiceQuery,
		inv.SerialNumber,
		inv.DeviceName,
		inv.CustomerName,
		inv.CustomerEmail,
		inv.CustomerPhone,
		inv.InvoiceDate,
		inv.Amount,
		inv.PaymentStatus,
		inv.PaymentMethod,
		inv.Notes,
		inv.FilePath,
		inv.CreatedBy,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return invoice.ErrDuplicateSerial
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) Get(ctx context.Context, owner, id int64) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.db.GetContext(ctx, &inv, getInvoiceQuery, id, owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) Update(ctx context.Context, owner, id int64, p invoice.Patch) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	err := r.db.GetContext(ctx, &inv, updateInvoiceQuery,
		id,
		owner,
		p.DeviceName,
		p.CustomerName,
		p.CustomerEmail,
		p.CustomerPhone,
		p.InvoiceDate,
		p.Amount,
		p.PaymentStatus,
		p.PaymentMethod,
		p.Notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) Delete(ctx context.Context, owner, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteInvoiceQuery, id, owner)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n == 0 {
		return invoice.ErrNotFound
	}
	return nil
}
