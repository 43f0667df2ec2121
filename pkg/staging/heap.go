package staging

import (
	"container/heap"
	"time"

	"github.com/cidas/job-scheduler/pkg/job"
)

type heapEntry struct {
	job *job.Job
	seq uint64 // insertion order, breaks sort_key ties per I2
}

type jobHeap []*heapEntry

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, k int) bool {
	if h[i].job.SortKey != h[k].job.SortKey {
		return h[i].job.SortKey < h[k].job.SortKey
	}
	return h[i].seq < h[k].seq
}

func (h jobHeap) Swap(i, k int) { h[i], h[k] = h[k], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*heapEntry)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// HeapList is a per-level binary min-heap keyed by Job.SortKey, with
// insertion order breaking ties (I2). RenewJobsPriority takes the
// rewrite-then-re-heapify approach the design notes call for, in place of
// a mutable-key heap with lazy invalidation.
type HeapList struct {
	level int
	h     jobHeap
	seq   uint64
}

func NewHeapList(level int) *HeapList {
	return &HeapList{level: level}
}

func (l *HeapList) Level() int { return l.level }

func (l *HeapList) Insert(j *job.Job) {
	l.seq++
	heap.Push(&l.h, &heapEntry{job: j, seq: l.seq})
}

func (l *HeapList) Pop() (*job.Job, bool) {
	if len(l.h) == 0 {
		return nil, false
	}
	e := heap.Pop(&l.h).(*heapEntry)
	return e.job, true
}

func (l *HeapList) Peek() (*job.Job, bool) {
	if len(l.h) == 0 {
		return nil, false
	}
	return l.h[0].job, true
}

func (l *HeapList) Remove(target *job.Job) bool {
	for i, e := range l.h {
		if e.job == target {
			heap.Remove(&l.h, i)
			return true
		}
	}
	return false
}

func (l *HeapList) RenewJobsPriority(now time.Time) {
	for _, e := range l.h {
		e.job.RenewPriority(now)
	}
	heap.Init(&l.h)
}

// ToList returns a freshly sorted copy without mutating the heap.
func (l *HeapList) ToList() []*job.Job {
	cp := make(jobHeap, len(l.h))
	copy(cp, l.h)
	heap.Init(&cp)
	out := make([]*job.Job, 0, len(cp))
	for cp.Len() > 0 {
		e := heap.Pop(&cp).(*heapEntry)
		out = append(out, e.job)
	}
	return out
}

func (l *HeapList) Len() int { return len(l.h) }
