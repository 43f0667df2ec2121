package bus

import (
	"context"
	"sync"
	"time"
)

// ChannelConsumer is an in-memory bus.Consumer backed by a buffered Go
// channel. It stands in for a running Kafka broker in unit and
// integration tests: Push enqueues a message the way a test producer
// would, and Poll drains whatever is available, waiting up to one poll
// timeout for the first message — the same buffered-channel-plus-select
// shape this package's original event broker used for fan-out, adapted
// here to a single consumer instead of many subscribers.
type ChannelConsumer struct {
	mu          sync.Mutex
	ch          chan Message
	closed      bool
	pollTimeout time.Duration
}

// NewChannelConsumer builds a channel-backed consumer with the given
// buffer size. pollTimeout defaults to one second, matching the bounded
// poll suspension point described in spec.md §5.
func NewChannelConsumer(buffer int) *ChannelConsumer {
	return &ChannelConsumer{
		ch:          make(chan Message, buffer),
		pollTimeout: time.Second,
	}
}

func (c *ChannelConsumer) Start(_ context.Context) error { return nil }

// Push enqueues a message for the next Poll to return. Test helper only;
// not part of the Consumer interface.
func (c *ChannelConsumer) Push(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.ch <- msg
}

// Poll blocks for up to one poll timeout waiting for the first message,
// then drains every message immediately available without blocking
// further.
func (c *ChannelConsumer) Poll(ctx context.Context) ([]Message, error) {
	timer := time.NewTimer(c.pollTimeout)
	defer timer.Stop()

	var out []Message
	select {
	case msg, ok := <-c.ch:
		if !ok {
			return nil, nil
		}
		out = append(out, msg)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	}

	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return out, nil
			}
			out = append(out, msg)
		default:
			return out, nil
		}
	}
}

func (c *ChannelConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.ch)
	return nil
}
