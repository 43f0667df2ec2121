// Package queueselect implements the pluggable queue-selector strategies
// that choose which staging level to serve next on each dispatch attempt.
package queueselect

import "github.com/cidas/job-scheduler/pkg/staging"

// Selector is consulted once per dispatch attempt; it must always return
// some level, even if every level is empty (the caller then observes the
// empty level and aborts the attempt).
type Selector interface {
	SelectQueue(levels []staging.Container) staging.Container
	// Advance updates any selector-owned cursor state after a
	// successful serve from the level SelectQueue last returned.
	// Stateless selectors (TopLevel, WeightedRandom) no-op.
	Advance()
}

// Method names the three pluggable strategies, matching the
// QUEUE_SELECT_METHOD configuration values.
type Method string

const (
	MethodTopLevel     Method = "top_level_select"
	MethodWeightRandom Method = "env_weight_random_select"
	MethodZip          Method = "env_zip_select"
)

// TopLevel returns the lowest-indexed non-empty level; if all levels are
// empty, it returns level 0.
type TopLevel struct{}

func (TopLevel) SelectQueue(levels []staging.Container) staging.Container {
	for _, l := range levels {
		if l.Len() > 0 {
			return l
		}
	}
	return levels[0]
}

func (TopLevel) Advance() {}
