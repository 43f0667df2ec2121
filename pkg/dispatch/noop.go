package dispatch

import (
	"context"

	"github.com/cidas/job-scheduler/pkg/job"
	"github.com/cidas/job-scheduler/pkg/log"
)

// NoopDispatcher backs JOB_TRIGGER_METHOD=test and drives integration
// tests: it records every job it's asked to send without any network
// call, succeeding unconditionally.
type NoopDispatcher struct {
	Sent []*job.Job
}

func NewNoopDispatcher() *NoopDispatcher {
	return &NoopDispatcher{}
}

func (d *NoopDispatcher) Send(_ context.Context, j *job.Job, _ map[string]any) error {
	d.Sent = append(d.Sent, j)
	log.WithComponent("dispatch").Debug().Str("job_id", j.ID).Msg("fake send success")
	return nil
}
