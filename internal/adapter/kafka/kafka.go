package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl        ProducerClient
	encoder   Encoder
	sessionID string
}

func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, extra ...kgo.Opt,
) ProducerOpt {
	return func(opts *producerOpts) error {
		cl, err := kgo.NewClient(append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}, extra...)...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerWithClientOpt uses an already built client.
func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

// ProducerSessionOpt sets the record key, so events of one session
// land in one partition.
func ProducerSessionOpt(sessionID string) ProducerOpt {
	return func(opts *producerOpts) error {
		if sessionID == "" {
			return errors.New("session id is empty")
		}
		opts.sessionID = sessionID
		return nil
	}
}

type ProducerClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func eventToSchemaV1(sessionID string, v domain.SessionEvent) (s schema.SessionEventV1) {
	s.EventID = v.ID
	s.SessionID = sessionID
	s.Type = string(v.Type)
	s.Role = v.Role.String()
	s.Kind = string(v.Kind)
	s.EntityIDs = v.EntityIDs
	s.ProductID = v.ProductID
	s.Quantity = v.Quantity
	s.Accepted = v.Accepted
	s.Failed = v.Failed
	s.Rejected = v.Rejected
	s.OccurredAt = v.OccurredAt
	return
}
