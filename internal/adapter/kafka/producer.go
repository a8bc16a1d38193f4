package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.EventPublisher = (*EventsProducer)(nil)

// An EventsProducer publishes session events without waiting for delivery.
// Failures are logged.
type EventsProducer struct {
	cl        ProducerClient
	encoder   Encoder
	sessionID string
	opPrefix  string
}

func NewEventsProducer(opts ...ProducerOpt) (*EventsProducer, error) {
	const op = "NewEventsProducer"

	if len(opts) != 3 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return nil, opErr(err, op)
		}
	}

	return &EventsProducer{
		cl:        options.cl,
		encoder:   options.encoder,
		sessionID: options.sessionID,
		opPrefix:  "EventsProducer",
	}, nil
}

func (p *EventsProducer) Publish(ctx context.Context, evt domain.SessionEvent) {
	const op = "Publish"
	log := slog.With("op", makeOp(p.opPrefix, op))

	r, err := p.createRecord(evt)
	if err != nil {
		log.Error("failed to create record", "type", evt.Type, "err", err)
		return
	}

	p.cl.Produce(context.WithoutCancel(ctx), r, func(r *kgo.Record, err error) {
		if err != nil {
			log.Error("failed to produce event", "type", evt.Type, "err", err)
			return
		}
		log.Debug("event produced",
			"type", evt.Type, "partition", r.Partition, "offset", r.Offset)
	})
}

func (p *EventsProducer) createRecord(evt domain.SessionEvent) (*kgo.Record, error) {
	const op = "createRecord"

	b, err := p.encoder.Encode(eventToSchemaV1(p.sessionID, evt))
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(p.sessionID), Value: b}, nil
}

// Close flushes buffered records and closes the client.
func (p *EventsProducer) Close(ctx context.Context) {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing producer...")
	if err := p.cl.Flush(ctx); err != nil {
		log.Error("failed to flush records", "err", err)
	}
	p.cl.Close()
	log.Info("producer is closed")
}
