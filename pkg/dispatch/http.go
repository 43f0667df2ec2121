package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cidas/job-scheduler/pkg/job"
	"github.com/cidas/job-scheduler/pkg/log"
)

// wireTimes re-serializes a job's timestamps in the configured date
// format, leaving schedule_time as a plain integer.
type wireTimes struct {
	Deadline     string `json:"deadline"`
	RequestTime  string `json:"request_time"`
	ScheduleTime int    `json:"schedule_time"`
}

type wirePayload struct {
	JobID        string         `json:"job_id"`
	JobType      string         `json:"job_type"`
	JobParams    map[string]any `json:"job_params"`
	JobTimes     wireTimes      `json:"job_times"`
	JobResources job.Resources  `json:"job_resources"`
}

// HTTPDispatcher is the api JOB_TRIGGER_METHOD: POST a job to the
// configured job-trigger URL.
type HTTPDispatcher struct {
	client     *retryablehttp.Client
	url        string
	dateFormat string
}

// NewHTTPDispatcher builds a dispatcher bounded by timeout and a small
// retry budget, using go-retryablehttp the way the rest of this
// service's domain stack leans on hashicorp libraries.
func NewHTTPDispatcher(url, dateFormat string, timeout time.Duration, retryMax int) *HTTPDispatcher {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &HTTPDispatcher{client: client, url: url, dateFormat: dateFormat}
}

func (d *HTTPDispatcher) Send(ctx context.Context, j *job.Job, experimentSnapshot map[string]any) error {
	return postJob(ctx, d.client, d.url, d.dateFormat, j, experimentSnapshot)
}

func postJob(ctx context.Context, client *retryablehttp.Client, url, dateFormat string, j *job.Job, experimentSnapshot map[string]any) error {
	layout := job.StrftimeToGoLayout(dateFormat)
	body := wirePayload{
		JobID:     j.ID,
		JobType:   j.Type,
		JobParams: mergeParams(j.Params, experimentSnapshot),
		JobTimes: wireTimes{
			Deadline:     j.Times.Deadline.Format(layout),
			RequestTime:  j.Times.RequestTime.Format(layout),
			ScheduleTime: j.Times.ScheduleTime,
		},
		JobResources: j.Resources,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode job %s: %v", ErrTransport, j.ID, err)
	}
	return doPost(ctx, client, url, j.ID, buf)
}

// doPost issues the bounded, retrying POST shared by both HTTP-backed
// dispatchers. Transport and non-2xx failures are logged at warning and
// returned wrapped in ErrTransport; the caller (scheduling core) never
// propagates this further than a log line and a metric (spec.md §7).
func doPost(ctx context.Context, client *retryablehttp.Client, url, jobID string, buf []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		log.WithComponent("dispatch").Warn().Err(err).Str("job_id", jobID).Msg("dispatch transport error")
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.WithComponent("dispatch").Warn().Err(err).Str("job_id", jobID).Msg("dispatch transport error")
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.WithComponent("dispatch").Warn().Int("status", resp.StatusCode).Str("job_id", jobID).Msg("dispatch transport error")
		return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	return nil
}
