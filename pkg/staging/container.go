// Package staging implements the per-level job container: a pluggable
// ordered collection (heap / bisect / deque) that the scheduling core uses
// to hold jobs classified into one priority level.
package staging

import (
	"time"

	"github.com/cidas/job-scheduler/pkg/job"
)

// Container is the per-level ordered collection of staged jobs. All three
// variants (heap, sorted/"bisect", FIFO/"deque") satisfy it; the
// scheduling core is agnostic to which one backs a given level.
type Container interface {
	// Level reports the 0-based priority level this container serves;
	// 0 is most urgent.
	Level() int
	Insert(j *job.Job)
	// Pop removes and returns the container's next job to serve, or
	// false if empty. Which end of the ordering "next" means is
	// variant-specific (see SortedList).
	Pop() (*job.Job, bool)
	// Peek returns the same job Pop would remove, without removing it.
	Peek() (*job.Job, bool)
	Remove(target *job.Job) bool
	// RenewJobsPriority recomputes every job's schedule_time/sort_key
	// against now and restores the container's ordering invariant.
	RenewJobsPriority(now time.Time)
	// ToList returns an ordered snapshot for the job selector to scan;
	// must not mutate the container.
	ToList() []*job.Job
	Len() int
}

// Variant names the three pluggable container implementations, matching
// the STAGE_QUEUE configuration values.
type Variant string

const (
	VariantHeap   Variant = "heap"
	VariantDeque  Variant = "deque"
	VariantBisect Variant = "bisect"
)

// New builds the container for one staging level under the given variant.
// The variant is chosen once at startup; every level in a scheduler shares
// it (spec.md §4.2: "all levels share the same variant").
func New(variant Variant, level int) Container {
	switch variant {
	case VariantDeque:
		return NewFIFOList(level)
	case VariantBisect:
		return NewSortedList(level)
	default:
		return NewHeapList(level)
	}
}

// ExtractLevel implements extract_level(job) = min{k : sortKey <
// levelLimit[k]}, or len(levelLimit) (the overflow level) if sortKey is
// not below any limit. levelLimit must be strictly increasing and of length
// TotalLevel-1; that invariant is enforced once at config load, not here.
func ExtractLevel(sortKey int, levelLimit []int) int {
	for k, limit := range levelLimit {
		if sortKey < limit {
			return k
		}
	}
	return len(levelLimit)
}
