package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
	"github.com/niksmo/producthub/pkg/retry"
	"github.com/niksmo/producthub/pkg/schema"
)

var _ port.ClientEventsProducer = (*ClientEventsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
	retry    retry.RetryConfig
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

// produce retries the whole batch while the broker reports a retriable
// error the client has given up on.
func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	err := retry.Do(ctx, p.retry, func() error {
		return p.cl.ProduceSync(ctx, rs...).FirstErr()
	})
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func produceRetryConfig() retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
		ShouldRetry: kerr.IsRetriable,
	}
}

// A ClientEventsProducer used for produce [domain.ClientEvent].
// Records are keyed by client id so one client's events stay ordered.
type ClientEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewClientEventsProducer(
	opts ...ProducerOpt,
) (ClientEventsProducer, error) {
	const op = "NewClientEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ClientEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "ClientEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
		retry:    produceRetryConfig(),
	}

	return ClientEventsProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p ClientEventsProducer) Close() {
	p.producer.close()
}

func (p ClientEventsProducer) SendEvents(
	ctx context.Context, evts ...domain.ClientEvent,
) error {
	const op = "SendEvents"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	if len(evts) == 0 {
		return nil
	}

	rs, err := p.createRecords(evts)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, rs...); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p ClientEventsProducer) createRecords(
	vs []domain.ClientEvent,
) ([]*kgo.Record, error) {
	const op = "createRecords"

	rs := make([]*kgo.Record, 0, len(vs))
	for _, v := range vs {
		s := p.toSchema(v)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		r := &kgo.Record{Key: []byte(s.ClientID), Value: b}
		rs = append(rs, r)
	}

	return rs, nil
}

func (ClientEventsProducer) toSchema(v domain.ClientEvent) schema.ClientEventV1 {
	return clientEventToSchemaV1(v)
}
