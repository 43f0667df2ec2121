package queueselect

import "github.com/cidas/job-scheduler/pkg/staging"

// Zip is the round-robin-with-per-level-quotas selector (env_zip_select).
// A fixed order vector O encodes "serve level 0 O[0] times, level 1 O[1]
// times, ... repeat". cross is the level currently being served; curr is
// the 1-based count served at that level so far.
type Zip struct {
	order []int
	cross int
	curr  int
}

// NewOrder builds a Zip selector from the SELECT_ORDER quota vector.
func NewOrder(order []int) *Zip {
	o := make([]int, len(order))
	copy(o, order)
	return &Zip{order: o, cross: 0, curr: 1}
}

// SelectQueue returns the current cross level if non-empty. If it is
// empty, cross is pre-advanced forward (wrapping at most once) until a
// non-empty level is found, resetting curr for the new level; if the scan
// returns to the starting level without finding one, that (still empty)
// level is returned so the caller can observe the empty condition.
func (s *Zip) SelectQueue(levels []staging.Container) staging.Container {
	n := len(levels)
	if levels[s.cross].Len() > 0 {
		return levels[s.cross]
	}

	start := s.cross
	for {
		s.cross = (s.cross + 1) % n
		if levels[s.cross].Len() > 0 {
			if s.order[s.cross] > 1 {
				s.curr = 2
			} else {
				s.curr = 1
			}
			return levels[s.cross]
		}
		if s.cross == start {
			return levels[s.cross]
		}
	}
}

// Advance records a successful serve from the level SelectQueue last
// returned, incrementing curr and rolling cross forward once curr
// exceeds that level's quota.
func (s *Zip) Advance() {
	s.curr++
	if s.curr > s.order[s.cross] {
		s.cross = (s.cross + 1) % len(s.order)
		s.curr = 1
	}
}
