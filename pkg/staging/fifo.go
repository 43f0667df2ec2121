package staging

import (
	"time"

	"github.com/cidas/job-scheduler/pkg/job"
)

// FIFOList ("deque") preserves arrival order; Pop returns the head. Used
// when priority ordering is deferred entirely to the queue/job selector
// layer rather than enforced within a level.
type FIFOList struct {
	level int
	jobs  []*job.Job
}

func NewFIFOList(level int) *FIFOList {
	return &FIFOList{level: level}
}

func (l *FIFOList) Level() int { return l.level }

func (l *FIFOList) Insert(j *job.Job) {
	l.jobs = append(l.jobs, j)
}

func (l *FIFOList) Pop() (*job.Job, bool) {
	if len(l.jobs) == 0 {
		return nil, false
	}
	j := l.jobs[0]
	l.jobs = l.jobs[1:]
	return j, true
}

func (l *FIFOList) Peek() (*job.Job, bool) {
	if len(l.jobs) == 0 {
		return nil, false
	}
	return l.jobs[0], true
}

func (l *FIFOList) Remove(target *job.Job) bool {
	for i, j := range l.jobs {
		if j == target {
			l.jobs = append(l.jobs[:i], l.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (l *FIFOList) RenewJobsPriority(now time.Time) {
	for _, j := range l.jobs {
		j.RenewPriority(now)
	}
}

func (l *FIFOList) ToList() []*job.Job {
	out := make([]*job.Job, len(l.jobs))
	copy(out, l.jobs)
	return out
}

func (l *FIFOList) Len() int { return len(l.jobs) }
