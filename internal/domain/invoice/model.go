package invoice

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

type Invoice struct {
	ID            int64           `db:"id" json:"id"`
	SerialNumber  string          `db:"serial_number" json:"serial_number"`
	DeviceName    string          `db:"device_name" json:"device_name"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	CustomerEmail string          `db:"customer_email" json:"customer_email"`
	CustomerPhone string          `db:"customer_phone" json:"customer_phone"`
	InvoiceDate   Date            `db:"invoice_date" json:"invoice_date"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentStatus string          `db:"payment_status" json:"payment_status"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Notes         string          `db:"notes" json:"notes"`
	FilePath      string          `db:"file_path" json:"file_path"`
	CreatedBy     int64           `db:"created_by" json:"-"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time      `db:"updated_at" json:"updated_at"`
}

// MarshalJSON writes the amount as a JSON number rather than decimal's
// default quoted string.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{
		plain:  plain(inv),
		Amount: json.Number(inv.Amount.String()),
	})
}

const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("invoice date: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

type Filter struct {
	Status string
	Search string
}

// Patch holds already validated values; nil fields are left unchanged.
type Patch struct {
	DeviceName    *string
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	InvoiceDate   *Date
	Amount        *decimal.Decimal
	PaymentStatus *string
	PaymentMethod *string
	Notes         *string
}

// Repository scopes every call to the owner. Get, Update and Delete return
// ErrNotFound when the invoice is missing or owned by someone else; Create
// returns ErrDuplicateSerial when the serial number is already used.
type Repository interface {
	List(ctx context.Context, owner int64, f Filter) ([]Invoice, error)
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, owner, id int64) (*Invoice, error)
	Update(ctx context.Context, owner, id int64, p Patch) (*Invoice, error)
	Delete(ctx context.Context, owner, id int64) error
}
