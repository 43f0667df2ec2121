package staging

import (
	"sort"
	"time"

	"github.com/cidas/job-scheduler/pkg/job"
)

// SortedList ("bisect") maintains jobs in ascending sort_key order via an
// O(n) ordered insertion.
//
// Pop returns the *tail* element — highest slack, i.e. least urgent — not
// the head. That is the original repository's literal behavior, and
// spec.md §9 flags it as possibly inconsistent with "most urgent first"
// without resolving it; this implementation preserves it rather than
// silently fixing it. ToList still returns the list in ascending order,
// so the job selector (which scans ToList) sees most-urgent-first
// regardless of what Pop does. See DESIGN.md "bisect pop-from-tail".
type SortedList struct {
	level int
	jobs  []*job.Job
}

func NewSortedList(level int) *SortedList {
	return &SortedList{level: level}
}

func (l *SortedList) Level() int { return l.level }

func (l *SortedList) Insert(j *job.Job) {
	idx := sort.Search(len(l.jobs), func(i int) bool { return l.jobs[i].SortKey > j.SortKey })
	l.jobs = append(l.jobs, nil)
	copy(l.jobs[idx+1:], l.jobs[idx:])
	l.jobs[idx] = j
}

func (l *SortedList) Pop() (*job.Job, bool) {
	n := len(l.jobs)
	if n == 0 {
		return nil, false
	}
	j := l.jobs[n-1]
	l.jobs = l.jobs[:n-1]
	return j, true
}

func (l *SortedList) Peek() (*job.Job, bool) {
	n := len(l.jobs)
	if n == 0 {
		return nil, false
	}
	return l.jobs[n-1], true
}

func (l *SortedList) Remove(target *job.Job) bool {
	for i, j := range l.jobs {
		if j == target {
			l.jobs = append(l.jobs[:i], l.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (l *SortedList) RenewJobsPriority(now time.Time) {
	for _, j := range l.jobs {
		j.RenewPriority(now)
	}
	sort.SliceStable(l.jobs, func(i, k int) bool { return l.jobs[i].SortKey < l.jobs[k].SortKey })
}

// ToList returns a copy of the backing slice, ascending by sort_key; the
// container itself is not mutated.
func (l *SortedList) ToList() []*job.Job {
	out := make([]*job.Job, len(l.jobs))
	copy(out, l.jobs)
	return out
}

func (l *SortedList) Len() int { return len(l.jobs) }
