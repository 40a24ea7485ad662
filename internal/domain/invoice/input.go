package invoice

import (
	"bytes"
	"encoding/json"
)

// Numeric keeps the raw text of a JSON number or numeric string so that the
// amount can be parsed exactly.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	raw, err := rawText(data)
	if err != nil {
		return err
	}
	*n = Numeric(raw)
	return nil
}

// DateText holds invoice_date as sent. Any JSON scalar is accepted here so
// that a malformed date is reported as an invalid date by the service.
type DateText string

func (d *DateText) UnmarshalJSON(data []byte) error {
	raw, err := rawText(data)
	if err != nil {
		return err
	}
	*d = DateText(raw)
	return nil
}

// rawText unquotes a JSON string and returns any other token verbatim.
func rawText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(data), nil
}

// CreateInput is decoded straight from the request body. Required fields are
// pointers so that presence, not emptiness, is what gets checked. Length
// limits follow the invoices table columns.
type CreateInput struct {
	SerialNumber  *string   `json:"serial_number" validate:"required,max=50"`
	DeviceName    *string   `json:"device_name" validate:"required,max=200"`
	CustomerName  *string   `json:"customer_name" validate:"required,max=200"`
	InvoiceDate   *DateText `json:"invoice_date" validate:"required"`
	Amount        *Numeric  `json:"amount" validate:"required"`
	CustomerEmail string    `json:"customer_email" validate:"max=200"`
	CustomerPhone string    `json:"customer_phone" validate:"max=50"`
	PaymentStatus string    `json:"payment_status" validate:"max=50"`
	PaymentMethod string    `json:"payment_method" validate:"max=50"`
	Notes         string    `json:"notes"`
	FilePath      string    `json:"file_path" validate:"max=500"`
}

// UpdateInput lists the mutable fields. A field that is absent or null keeps
// its stored value.
type UpdateInput struct {
	DeviceName    *string   `json:"device_name" validate:"omitempty,max=200"`
	CustomerName  *string   `json:"customer_name" validate:"omitempty,max=200"`
	CustomerEmail *string   `json:"customer_email" validate:"omitempty,max=200"`
	CustomerPhone *string   `json:"customer_phone" validate:"omitempty,max=50"`
	InvoiceDate   *DateText `json:"invoice_date"`
	Amount        *Numeric  `json:"amount"`
	PaymentStatus *string   `json:"payment_status" validate:"omitempty,max=50"`
	PaymentMethod *string   `json:"payment_method" validate:"omitempty,max=50"`
	Notes         *string   `json:"notes"`
}
