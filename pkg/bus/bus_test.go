package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelConsumerPushAndPoll(t *testing.T) {
	c := NewChannelConsumer(10)
	require.NoError(t, c.Start(context.Background()))

	c.Push(Message{Topic: TopicNewJob, Key: "a", Value: []byte(`{}`)})
	c.Push(Message{Topic: TopicNewJob, Key: "b", Value: []byte(`{}`)})

	msgs, err := c.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Key)
	assert.Equal(t, "b", msgs[1].Key)
}

func TestChannelConsumerPollTimesOutWhenEmpty(t *testing.T) {
	c := NewChannelConsumer(10)
	c.pollTimeout = 20 * time.Millisecond

	msgs, err := c.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChannelConsumerPollRespectsContextCancellation(t *testing.T) {
	c := NewChannelConsumer(10)
	c.pollTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Poll(ctx)
	assert.Error(t, err)
}

func TestChannelConsumerCloseIsIdempotent(t *testing.T) {
	c := NewChannelConsumer(1)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestDecodeNewJob(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"job_type": "demand_forecasting_1hr",
		"job_parameters": map[string]any{
			"num": 50,
		},
		"job_config": map[string]any{
			"deadline":     "2026-01-01T00:06:40",
			"request_time": "2026-01-01T00:00:00",
		},
	})
	require.NoError(t, err)

	p, err := DecodeNewJob(raw)
	require.NoError(t, err)
	assert.Equal(t, "demand_forecasting_1hr", p.JobType)
}

func TestDecodeNewJobMalformed(t *testing.T) {
	_, err := DecodeNewJob([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeJobComplete(t *testing.T) {
	jc, err := DecodeJobComplete([]byte(`{"cpu":1,"mem":2}`))
	require.NoError(t, err)
	assert.Equal(t, 1, jc.CPU)
	assert.Equal(t, 2, jc.Mem)
}
