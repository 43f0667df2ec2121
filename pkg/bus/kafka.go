package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/cidas/job-scheduler/pkg/log"
)

// KafkaConfig configures the Kafka-backed consumer.
type KafkaConfig struct {
	Brokers     []string
	GroupID     string
	Topics      []string
	PollTimeout time.Duration
	MaxBatch    int
}

// KafkaConsumer batch-polls the new-job and job-complete topics using
// segmentio/kafka-go, one *kafka.Reader per topic. It matches the
// original confluent-kafka consumer's consume(num_messages=500,
// timeout=1.0) shape, expressed with Go's context-based cancellation
// instead of a raw timeout float.
type KafkaConsumer struct {
	readers     []*kafka.Reader
	pollTimeout time.Duration
	maxBatch    int
}

func NewKafkaConsumer(cfg KafkaConfig) *KafkaConsumer {
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 500
	}

	readers := make([]*kafka.Reader, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		readers = append(readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   topic,
		}))
	}

	return &KafkaConsumer{readers: readers, pollTimeout: pollTimeout, maxBatch: maxBatch}
}

func (c *KafkaConsumer) Start(_ context.Context) error {
	log.WithComponent("bus").Info().Msg("kafka consumer subscribed")
	return nil
}

// Poll reads up to maxBatch messages across all subscribed topics,
// bounded by pollTimeout — the consumer's suspension point per spec.md
// §5. Each reader gets an equal share of pollTimeout, so a quiet topic
// cannot use up the whole window before the next topic is read. A
// timed-out read is treated as "nothing available this cycle", not
// an error; any other read error is fatal (spec.md §7 BusError).
func (c *KafkaConsumer) Poll(ctx context.Context) ([]Message, error) {
	perReader := c.pollTimeout
	if n := len(c.readers); n > 1 {
		perReader = c.pollTimeout / time.Duration(n)
	}

	var out []Message
	for _, r := range c.readers {
		readCtx, cancel := context.WithTimeout(ctx, perReader)
		for len(out) < c.maxBatch {
			m, err := r.ReadMessage(readCtx)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					break
				}
				cancel()
				return out, fmt.Errorf("%w: %v", ErrFatal, err)
			}
			out = append(out, Message{
				Topic:     m.Topic,
				Key:       string(m.Key),
				Value:     m.Value,
				Timestamp: m.Time,
			})
		}
		cancel()
	}
	return out, nil
}

func (c *KafkaConsumer) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
