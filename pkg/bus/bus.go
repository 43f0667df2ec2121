// Package bus defines the transport-agnostic inbound event contract from
// the message bus: the new-job and job-complete topics, and the Consumer
// interface both the Kafka-backed and in-memory implementations satisfy.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cidas/job-scheduler/pkg/job"
)

// ErrFatal distinguishes an unrecoverable bus condition — one that should
// crash the process (spec.md §7 BusError) — from a per-message,
// logged-and-dropped condition.
var ErrFatal = errors.New("bus: fatal error")

const (
	TopicNewJob      = "new-job"
	TopicJobComplete = "job-complete"
)

// Message is one bus record, independent of the underlying transport.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Timestamp time.Time
}

// Consumer batch-polls the configured topics within a bounded timeout
// (spec.md §5's "poll timeout, e.g. 1s" suspension point).
type Consumer interface {
	Start(ctx context.Context) error
	Poll(ctx context.Context) ([]Message, error)
	Close() error
}

// JobComplete is the decoded value of a job-complete event: resources to
// credit back to the capacity monitor.
type JobComplete struct {
	CPU int `json:"cpu"`
	Mem int `json:"mem"`
}

// DecodeNewJob parses a new-job message value into a job.Payload. A
// decode failure is wrapped in job.ErrMalformed so callers can treat it
// identically to any other malformed-job condition.
func DecodeNewJob(value []byte) (job.Payload, error) {
	var p job.Payload
	if err := json.Unmarshal(value, &p); err != nil {
		return job.Payload{}, fmt.Errorf("%w: new-job decode: %v", job.ErrMalformed, err)
	}
	return p, nil
}

// DecodeJobComplete parses a job-complete message value.
func DecodeJobComplete(value []byte) (JobComplete, error) {
	var jc JobComplete
	if err := json.Unmarshal(value, &jc); err != nil {
		return JobComplete{}, fmt.Errorf("bus: job-complete decode: %w", err)
	}
	return jc, nil
}
