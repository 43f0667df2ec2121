// Package dispatch serializes a selected job and pushes it to the
// execution backend (a workflow engine or job-launch service).
package dispatch

import (
	"context"
	"errors"

	"github.com/cidas/job-scheduler/pkg/job"
)

// ErrTransport is the sentinel kind for a failed send: HTTP timeout,
// connection refused, bad URL, non-2xx response. Per spec.md §7, this is
// always logged at warning and never propagated back into the scheduling
// core's control flow — the job is considered dispatched regardless
// (at-most-once, best-effort delivery).
var ErrTransport = errors.New("dispatch: transport error")

// Dispatcher serializes job and an experiment-config snapshot (merged
// into job_params) and sends it to the execution backend.
type Dispatcher interface {
	Send(ctx context.Context, j *job.Job, experimentSnapshot map[string]any) error
}

// Method names the three pluggable transports, matching the
// JOB_TRIGGER_METHOD configuration values.
type Method string

const (
	MethodTest    Method = "test"
	MethodAPI     Method = "api"
	MethodAirflow Method = "airflow"
)

func mergeParams(params, snapshot map[string]any) map[string]any {
	out := make(map[string]any, len(params)+len(snapshot))
	for k, v := range params {
		out[k] = v
	}
	for k, v := range snapshot {
		out[k] = v
	}
	return out
}
