package invoice

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-system/internal/platform/validate"
)

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrDuplicateSerial = errors.New("serial number already exists")
	ErrInvalidDate     = errors.New("invalid invoice_date, expected YYYY-MM-DD")
	ErrInvalidAmount   = errors.New("invalid amount, expected a non-negative number")
)

// StatsInvalidator is told about every successful mutation of an owner's
// invoices.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, owner int64)
}

type Service struct {
	repo  Repository
	stats StatsInvalidator
}

func NewService(repo Repository, stats StatsInvalidator) *Service {
	return &Service{repo: repo, stats: stats}
}

func (s *Service) List(ctx context.Context, owner int64, f Filter) ([]Invoice, error) {
	f.Status = strings.TrimSpace(f.Status)
	return s.repo.List(ctx, owner, f)
}

func (s *Service) Create(ctx context.Context, owner int64, in CreateInput) (*Invoice, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	date, err := parseDate(*in.InvoiceDate)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(*in.Amount)
	if err != nil {
		return nil, err
	}

	status := in.PaymentStatus
	if status == "" {
		status = StatusPending
	}

	inv := &Invoice{
		SerialNumber:  *in.SerialNumber,
		DeviceName:    *in.DeviceName,
		CustomerName:  *in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		InvoiceDate:   date,
		Amount:        amount,
		PaymentStatus: status,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		FilePath:      in.FilePath,
		CreatedBy:     owner,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	return inv, nil
}

func (s *Service) Get(ctx context.Context, owner, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, owner, id)
}

func (s *Service) Update(ctx context.Context, owner, id int64, in UpdateInput) (*Invoice, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	p := Patch{
		DeviceName:    in.DeviceName,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		PaymentStatus: in.PaymentStatus,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
	}
	if in.InvoiceDate != nil {
		date, err := parseDate(*in.InvoiceDate)
		if err != nil {
			return nil, err
		}
		p.InvoiceDate = &date
	}
	if in.Amount != nil {
		amount, err := parseAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		p.Amount = &amount
	}

	inv, err := s.repo.Update(ctx, owner, id, p)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, owner)
	return inv, nil
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.invalidate(ctx, owner)
	return nil
}

// invalidate runs after the write has committed, so it must not be cut short
// by the caller going away.
func (s *Service) invalidate(ctx context.Context, owner int64) {
	if s.stats != nil {
		s.stats.Invalidate(context.WithoutCancel(ctx), owner)
	}
}

func parseDate(s DateText) (Date, error) {
	d, err := ParseDate(strings.TrimSpace(string(s)))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}

func parseAmount(n Numeric) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(string(n)))
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}
