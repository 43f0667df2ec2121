package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/cidas/job-scheduler/pkg/job"
)

// airflowConf is Airflow's DAG-run trigger "conf" body. It carries the
// job twice over — once as nested JSON strings (job_params/job_times/
// resources) and once flattened (num/request_time/deadline/executors/
// cpu/mem/computing_time) — matching the original job-trigger service's
// payload shape so an existing Airflow DAG parsing it doesn't need to
// change. executors/cpu/mem are fixed at 1 there (not the job's actual
// resources); preserved as-is, see DESIGN.md.
type airflowConf struct {
	JobID         string `json:"job_id"`
	JobType       string `json:"job_type"`
	JobParams     string `json:"job_params"`
	JobTimes      string `json:"job_times"`
	Resources     string `json:"resources"`
	Num           any    `json:"num"`
	RequestTime   string `json:"request_time"`
	Deadline      string `json:"deadline"`
	Executors     int    `json:"executors"`
	CPU           int    `json:"cpu"`
	Mem           int    `json:"mem"`
	ComputingTime int    `json:"computing_time"`
}

type airflowPayload struct {
	RunID string      `json:"run_id"`
	Conf  airflowConf `json:"conf"`
}

// AirflowDispatcher is the airflow JOB_TRIGGER_METHOD.
type AirflowDispatcher struct {
	client     *retryablehttp.Client
	url        string
	dateFormat string
}

func NewAirflowDispatcher(url, dateFormat string, timeout time.Duration, retryMax int) *AirflowDispatcher {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &AirflowDispatcher{client: client, url: url, dateFormat: dateFormat}
}

func (d *AirflowDispatcher) Send(ctx context.Context, j *job.Job, experimentSnapshot map[string]any) error {
	layout := job.StrftimeToGoLayout(d.dateFormat)
	params := mergeParams(j.Params, experimentSnapshot)

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: encode job_params: %v", ErrTransport, err)
	}
	timesJSON, err := json.Marshal(wireTimes{
		Deadline:     j.Times.Deadline.Format(layout),
		RequestTime:  j.Times.RequestTime.Format(layout),
		ScheduleTime: j.Times.ScheduleTime,
	})
	if err != nil {
		return fmt.Errorf("%w: encode job_times: %v", ErrTransport, err)
	}
	resourcesJSON, err := json.Marshal(j.Resources)
	if err != nil {
		return fmt.Errorf("%w: encode resources: %v", ErrTransport, err)
	}

	conf := airflowConf{
		JobID:         j.ID,
		JobType:       j.Type,
		JobParams:     string(paramsJSON),
		JobTimes:      string(timesJSON),
		Resources:     string(resourcesJSON),
		Num:           params["num"],
		RequestTime:   j.Times.RequestTime.Format(layout),
		Deadline:      j.Times.Deadline.Format(layout),
		Executors:     1,
		CPU:           1,
		Mem:           1,
		ComputingTime: j.Resources.ComputingTime,
	}

	// Airflow rejects a second trigger of the same dag_run_id, so each
	// Send call gets its own run_id; the HTTP client's own retries within
	// one Send resend the same body and run_id. job_id remains the stable
	// correlation key carried inside conf.
	runID := uuid.New().String()

	buf, err := json.Marshal(airflowPayload{RunID: runID, Conf: conf})
	if err != nil {
		return fmt.Errorf("%w: encode job %s: %v", ErrTransport, j.ID, err)
	}
	return doPost(ctx, d.client, d.url, j.ID, buf)
}
