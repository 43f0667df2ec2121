// Package job defines the scheduler's unit of work: an immutable identity
// plus a mutable schedule_time that the scheduling core re-prioritizes as
// deadlines approach.
package job

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrMalformed is returned when a new-job event cannot be turned into a Job:
// a missing job_type/job_config, or a deadline/request_time that doesn't
// parse under the configured date format.
var ErrMalformed = errors.New("malformed job")

// SortKeyName selects which field of Times a Job is ordered by.
type SortKeyName string

const (
	SortKeyScheduleTime SortKeyName = "schedule_time"
	SortKeyDeadline     SortKeyName = "deadline"
	SortKeyRequestTime  SortKeyName = "request_time"
)

// Times holds the absolute timestamps that drive scheduling plus the
// derived integer seconds-of-slack.
type Times struct {
	Deadline     time.Time
	RequestTime  time.Time
	ScheduleTime int // seconds of slack remaining before the deadline
}

// Resources is the executor/cpu/mem/computing_time footprint a job will
// consume once dispatched.
type Resources struct {
	Executors     int
	CPU           int
	Mem           int
	ComputingTime int
}

// Payload is the wire shape of a new-job event's value, per the inbound
// message contract: {job_type, job_parameters:{num, resources?}, job_config:{deadline, request_time}}.
type Payload struct {
	JobType       string         `json:"job_type"`
	JobParameters map[string]any `json:"job_parameters"`
	JobConfig     struct {
		Deadline    string `json:"deadline"`
		RequestTime string `json:"request_time"`
	} `json:"job_config"`
}

// Job is the scheduler's unit of work. ID and Type are fixed at
// construction; Params is forwarded to dispatch verbatim (enriched with an
// experiment snapshot at send time); Times/Resources/SortKey mutate as the
// job is admitted and re-prioritized.
type Job struct {
	ID     string
	Type   string
	Params map[string]any

	Times     Times
	Resources Resources

	sortKeyName SortKeyName
	SortKey     int
}

// New builds a Job from a decoded new-job payload. It fails with
// ErrMalformed on a missing job_type/job_config or an unparseable
// timestamp; it does not resolve resources (that's the capacity monitor +
// scheduling core's job, since it requires the resource catalog).
func New(id string, p Payload, sortKeyName SortKeyName, dateFormat string) (*Job, error) {
	if p.JobType == "" {
		return nil, fmt.Errorf("%w: missing job_type", ErrMalformed)
	}
	if p.JobConfig.Deadline == "" || p.JobConfig.RequestTime == "" {
		return nil, fmt.Errorf("%w: missing job_config", ErrMalformed)
	}

	layout := StrftimeToGoLayout(dateFormat)
	deadline, err := time.Parse(layout, p.JobConfig.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline %q: %v", ErrMalformed, p.JobConfig.Deadline, err)
	}
	requestTime, err := time.Parse(layout, p.JobConfig.RequestTime)
	if err != nil {
		return nil, fmt.Errorf("%w: request_time %q: %v", ErrMalformed, p.JobConfig.RequestTime, err)
	}

	j := &Job{
		ID:          id,
		Type:        p.JobType,
		Params:      p.JobParameters,
		sortKeyName: sortKeyName,
		Times: Times{
			Deadline:    deadline,
			RequestTime: requestTime,
		},
	}
	j.Times.ScheduleTime = int(deadline.Sub(requestTime).Seconds())
	j.syncSortKey()
	return j, nil
}

// SortKeyName reports which Times field this job is ordered by.
func (j *Job) SortKeyName() SortKeyName { return j.sortKeyName }

// Less reports whether j sorts before other; ties are broken by the
// container's own insertion order, not here.
func (j *Job) Less(other *Job) bool { return j.SortKey < other.SortKey }

func (j *Job) String() string {
	return fmt.Sprintf("%s,%s,%d", j.ID, j.Type, j.SortKey)
}

// SetResources assigns the resolved resource footprint and subtracts its
// ComputingTime from ScheduleTime, refreshing SortKey. Called once, at
// ingestion, after the capacity monitor (and any caller override) has
// decided the job's resources.
func (j *Job) SetResources(r Resources) {
	j.Resources = r
	j.Times.ScheduleTime -= r.ComputingTime
	j.syncSortKey()
}

// RenewPriority recomputes ScheduleTime = deadline - now - computing_time,
// clamped at 0, and refreshes SortKey. A job that is already overdue stays
// clamped to 0 slack, which always classifies it into level 0 regardless of
// how overdue it is.
func (j *Job) RenewPriority(now time.Time) {
	slack := j.Times.Deadline.Sub(now) - time.Duration(j.Resources.ComputingTime)*time.Second
	secs := int(slack.Seconds())
	if secs < 0 {
		secs = 0
	}
	j.Times.ScheduleTime = secs
	j.syncSortKey()
}

// syncSortKey keeps SortKey equal to Times[sortKeyName] (as an integer:
// seconds-of-slack for schedule_time, Unix seconds for deadline/request_time).
// Recomputing on every Times mutation — rather than caching a copy taken
// once at construction — is a deliberate read of the spec's "sort_key
// equals job_times[sort_key_name]" over a literal, staler original-source
// behavior; see DESIGN.md.
func (j *Job) syncSortKey() {
	switch j.sortKeyName {
	case SortKeyDeadline:
		j.SortKey = int(j.Times.Deadline.Unix())
	case SortKeyRequestTime:
		j.SortKey = int(j.Times.RequestTime.Unix())
	default:
		j.SortKey = j.Times.ScheduleTime
	}
}

// ComputingTimeFromNum implements the workload-size-derived computing_time
// estimate used when a job doesn't supply its own resource override:
// floor((num-50)/50*15 + 30).
func ComputingTimeFromNum(num int) int {
	return int(math.Floor((float64(num-50)/50)*15 + 30))
}

var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'z': "-0700",
	'Z': "MST",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'f': "000000",
}

// StrftimeToGoLayout converts a (subset of) Python strftime format string
// into the equivalent Go reference-time layout. The scheduler's
// DATE_FORMAT config entry is carried over verbatim from the original
// Python service (e.g. "%Y-%m-%dT%H:%M:%S"); no retrieved example repo
// depends on a strftime-compatible layout library, so this small directive
// table is the dependency-free bridge — see DESIGN.md.
func StrftimeToGoLayout(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '%' && i+1 < len(format) {
			i++
			if layout, ok := strftimeDirectives[format[i]]; ok {
				b.WriteString(layout)
				continue
			}
			b.WriteByte(format[i])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
