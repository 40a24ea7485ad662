package worker

import (
	"context"

	"go.uber.org/zap"

	"invoice-system/internal/events"
	"invoice-system/internal/metrics"
)

// EventWorker drains invoice events sent by the HTTP handlers. Every event is
// logged and counted; it is also published when a publisher is configured.
type EventWorker struct {
	ch        <-chan events.InvoiceEvent
	publisher events.Publisher
	logger    *zap.Logger
}

func NewEventWorker(ch <-chan events.InvoiceEvent, publisher events.Publisher, logger *zap.Logger) *EventWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventWorker{ch: ch, publisher: publisher, logger: logger}
}

// Start runs the worker in its own goroutine. The returned channel is closed
// once Run has returned, including any publish that was in flight.
func (w *EventWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}

// Run returns when ctx is done or the channel is closed.
func (w *EventWorker) Run(ctx context.Context) {
	w.logger.Info("event worker started")
	defer w.logger.Info("event worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.ch:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		}
	}
}

func (w *EventWorker) handle(ctx context.Context, ev events.InvoiceEvent) {
	metrics.IncInvoiceEvent(ev.Type)
	w.logger.Info("invoice event",
		zap.String("type", ev.Type),
		zap.Int64("invoice_id", ev.InvoiceID),
		zap.Int64("owner_id", ev.OwnerID),
	)

	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, ev); err != nil {
		w.logger.Warn("publish invoice event failed", zap.String("event_id", ev.ID), zap.Error(err))
	}
}
