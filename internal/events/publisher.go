package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, ev InvoiceEvent) error
}

type NatsPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNatsPublisher(natsURL, subject string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("invoice-system"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NatsPublisher{conn: nc, subject: subject}, nil
}

func (p *NatsPublisher) Publish(_ context.Context, ev InvoiceEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
