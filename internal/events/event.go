package events

import "time"

const (
	InvoiceCreated = "invoice.created"
	InvoiceUpdated = "invoice.updated"
	InvoiceDeleted = "invoice.deleted"
)

type InvoiceEvent struct {
	ID           string    `json:"event_id"`
	Type         string    `json:"event_type"`
	InvoiceID    int64     `json:"invoice_id"`
	OwnerID      int64     `json:"owner_id"`
	SerialNumber string    `json:"serial_number,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
