// Package jobselect implements the pluggable job-selector strategies that
// pick one feasible job out of an already-chosen staging level.
package jobselect

import (
	"errors"

	"github.com/cidas/job-scheduler/pkg/capacity"
	"github.com/cidas/job-scheduler/pkg/job"
)

// ErrEmptyList is returned when the candidate sequence is empty.
var ErrEmptyList = errors.New("jobselect: empty list")

// ErrNoValidJob is the sentinel kind for "every job in the list exceeds
// current free capacity"; wrap it in NoValidJobError to carry the
// snapshot that caused the rejection.
var ErrNoValidJob = errors.New("jobselect: no valid job in list")

// NoValidJobError carries the capacity snapshot observed when every
// candidate job was infeasible, so the caller's cross-level fallback can
// log or reason about why.
type NoValidJobError struct {
	Snapshot capacity.Snapshot
}

func (e *NoValidJobError) Error() string { return ErrNoValidJob.Error() }
func (e *NoValidJobError) Unwrap() error { return ErrNoValidJob }

// Selector picks one job from an ordered sequence without removing it
// from its container; removal is the caller's responsibility. Whether
// the pick is checked against free capacity depends on the strategy.
type Selector interface {
	SelectJob(jobs []*job.Job, snapshot capacity.Snapshot) (*job.Job, error)
}

// Method names the two pluggable strategies, matching the
// JOB_SELECT_METHOD configuration values.
type Method string

const (
	MethodPickFirst     Method = "basic_pick_first"
	MethodCheckResource Method = "basic_check_resource"
)

// PickFirst returns the first job in iteration order unconditionally,
// with no resource check.
//
// The original repository maps this configuration value to its selector
// base class itself — an abstract stub that errors if ever invoked. That
// mapping is a bug, not a minimal-but-valid strategy; this implementation
// gives basic_pick_first real, sensible semantics instead. See DESIGN.md.
type PickFirst struct{}

func (PickFirst) SelectJob(jobs []*job.Job, _ capacity.Snapshot) (*job.Job, error) {
	if len(jobs) == 0 {
		return nil, ErrEmptyList
	}
	return jobs[0], nil
}

// CheckResource returns the first job whose (cpu, mem) demand does not
// exceed current free capacity.
type CheckResource struct{}

func (CheckResource) SelectJob(jobs []*job.Job, snapshot capacity.Snapshot) (*job.Job, error) {
	if len(jobs) == 0 {
		return nil, ErrEmptyList
	}
	for _, j := range jobs {
		if j.Resources.CPU <= snapshot.Total.CPU && j.Resources.Mem <= snapshot.Total.Mem {
			return j, nil
		}
	}
	return nil, &NoValidJobError{Snapshot: snapshot}
}
