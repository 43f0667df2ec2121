// Package core implements the scheduling core: it owns the N staging
// containers, the capacity monitor, and the three pluggable strategies,
// and runs admission, selection, reallocation, and the dispatch loop.
package core

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cidas/job-scheduler/pkg/bus"
	"github.com/cidas/job-scheduler/pkg/capacity"
	"github.com/cidas/job-scheduler/pkg/dispatch"
	"github.com/cidas/job-scheduler/pkg/job"
	"github.com/cidas/job-scheduler/pkg/jobselect"
	"github.com/cidas/job-scheduler/pkg/log"
	"github.com/cidas/job-scheduler/pkg/metrics"
	"github.com/cidas/job-scheduler/pkg/queueselect"
	"github.com/cidas/job-scheduler/pkg/staging"
)

// Config wires every collaborator and policy knob the core needs. All
// fields except Now and the two topic names are required; Now defaults to
// time.Now and exists so tests can control the reallocation clock.
type Config struct {
	TotalLevel          int
	LevelLimit          []int
	Variant             staging.Variant
	IsRenewBeforeInsert bool
	IsReallocate        bool
	SortKeyName         job.SortKeyName
	DateFormat          string

	// NewJobTopic/JobCompleteTopic are the bus topic names ConsumeMessage
	// routes on. They must match whatever the Consumer actually stamps
	// onto Message.Topic — for KafkaConsumer that's the configured
	// TOPIC_NEW_JOB_NOTIFY/TOPIC_JOB_COMPLETE_NOTIFY value, not a
	// hardcoded constant. Empty fields default to bus.TopicNewJob/
	// bus.TopicJobComplete.
	NewJobTopic      string
	JobCompleteTopic string

	Monitor       *capacity.Monitor
	QueueSelector queueselect.Selector
	JobSelector   jobselect.Selector
	Dispatcher    dispatch.Dispatcher

	ExperimentSnapshot map[string]any
	Now                func() time.Time
}

// Core owns the staging containers, the capacity monitor, and the three
// pluggable strategies. It has no internal lock: callers must serialize
// access at the message-consumer boundary (spec.md §5).
type Core struct {
	levels     []staging.Container
	levelLimit []int

	isRenewBeforeInsert bool
	isReallocate        bool
	sortKeyName         job.SortKeyName
	dateFormat          string

	newJobTopic      string
	jobCompleteTopic string

	monitor       *capacity.Monitor
	queueSelector queueselect.Selector
	jobSelector   jobselect.Selector
	dispatcher    dispatch.Dispatcher

	experimentSnapshot map[string]any
	now                func() time.Time
	logger             zerolog.Logger
}

// New builds a scheduling core with TotalLevel staging containers of the
// configured Variant.
func New(cfg Config) *Core {
	levels := make([]staging.Container, cfg.TotalLevel)
	for i := range levels {
		levels[i] = staging.New(cfg.Variant, i)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newJobTopic := cfg.NewJobTopic
	if newJobTopic == "" {
		newJobTopic = bus.TopicNewJob
	}
	jobCompleteTopic := cfg.JobCompleteTopic
	if jobCompleteTopic == "" {
		jobCompleteTopic = bus.TopicJobComplete
	}

	return &Core{
		levels:              levels,
		levelLimit:          cfg.LevelLimit,
		isRenewBeforeInsert: cfg.IsRenewBeforeInsert,
		isReallocate:        cfg.IsReallocate,
		sortKeyName:         cfg.SortKeyName,
		dateFormat:          cfg.DateFormat,
		newJobTopic:         newJobTopic,
		jobCompleteTopic:    jobCompleteTopic,
		monitor:             cfg.Monitor,
		queueSelector:       cfg.QueueSelector,
		jobSelector:         cfg.JobSelector,
		dispatcher:          cfg.Dispatcher,
		experimentSnapshot:  cfg.ExperimentSnapshot,
		now:                 now,
		logger:              log.WithComponent("core"),
	}
}

func (c *Core) extractLevel(sortKey int) int {
	return staging.ExtractLevel(sortKey, c.levelLimit)
}

// LevelLen reports how many jobs are currently staged at a level; used by
// tests.
func (c *Core) LevelLen(level int) int {
	return c.levels[level].Len()
}

// ConsumeMessage dispatches a bus message to the new-job or job-complete
// handler by topic.
func (c *Core) ConsumeMessage(ctx context.Context, msg bus.Message) {
	switch msg.Topic {
	case c.newJobTopic:
		c.consumeNewJob(ctx, msg)
	case c.jobCompleteTopic:
		c.consumeJobComplete(ctx, msg)
	default:
		c.logger.Warn().Str("topic", msg.Topic).Msg("unrecognized topic, dropping message")
	}
}

func (c *Core) consumeNewJob(ctx context.Context, msg bus.Message) {
	payload, err := bus.DecodeNewJob(msg.Value)
	if err != nil {
		metrics.JobsIngested.WithLabelValues("malformed").Inc()
		c.logger.Warn().Err(err).Str("job_id", msg.Key).Msg("malformed job, dropping")
		return
	}

	j, err := job.New(msg.Key, payload, c.sortKeyName, c.dateFormat)
	if err != nil {
		metrics.JobsIngested.WithLabelValues("malformed").Inc()
		c.logger.Warn().Err(err).Str("job_id", msg.Key).Msg("malformed job, dropping")
		return
	}

	resources, err := c.resolveResources(j.Type, payload.JobParameters)
	if err != nil {
		metrics.JobsIngested.WithLabelValues("unknown_job_type").Inc()
		c.logger.Warn().Err(err).Str("job_id", j.ID).Str("job_type", j.Type).Msg("unknown job type, dropping")
		return
	}
	j.SetResources(resources)

	level := c.extractLevel(j.SortKey)
	if c.isRenewBeforeInsert {
		c.levels[level].RenewJobsPriority(c.now())
	}
	c.levels[level].Insert(j)

	metrics.JobsIngested.WithLabelValues("accepted").Inc()
	metrics.QueueDepth.WithLabelValues(strconv.Itoa(level)).Set(float64(c.levels[level].Len()))
	c.logger.Info().Str("job_id", j.ID).Int("level", level).Int("schedule_time", j.Times.ScheduleTime).Msg("job staged")

	c.drainLoop(ctx)
}

func (c *Core) consumeJobComplete(ctx context.Context, msg bus.Message) {
	jc, err := bus.DecodeJobComplete(msg.Value)
	if err != nil {
		c.logger.Warn().Err(err).Msg("malformed job-complete event, dropping")
		return
	}

	c.monitor.UpdateCurrentSystemResources(jc.CPU, jc.Mem)
	metrics.JobsCompleted.Inc()
	c.updateFreeGauges()
	c.sendNext(ctx)
}

// drainLoop dispatches jobs until free CPU drops below 1 or a dispatch
// attempt finds no feasible job anywhere (spec.md §5: "greedy ... until
// either free.cpu < 1 or the selector returns empty").
func (c *Core) drainLoop(ctx context.Context) {
	for c.monitor.Snapshot().Total.CPU >= 1 {
		if !c.sendNext(ctx) {
			metrics.DrainLoopEmpty.Inc()
			return
		}
	}
}

// sendNext runs one selection attempt: pick a queue, pick a feasible job
// from it (falling back across levels on NoValidJobInList), dispatch, and
// debit capacity. Returns false if no job was found anywhere.
func (c *Core) sendNext(ctx context.Context) bool {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SelectionLatency)

	queue := c.queueSelector.SelectQueue(c.levels)
	snapshot := c.monitor.Snapshot()

	next, err := c.jobSelector.SelectJob(queue.ToList(), snapshot)
	if err != nil {
		var noValid *jobselect.NoValidJobError
		if errors.As(err, &noValid) {
			return c.crossLevelFallback(ctx, queue.Level(), snapshot)
		}
		if errors.Is(err, jobselect.ErrEmptyList) {
			return false
		}
		c.logger.Error().Err(err).Msg("unexpected job selection error")
		return false
	}

	queue.Remove(next)
	c.queueSelector.Advance()
	c.dispatchJob(ctx, next)
	return true
}

// crossLevelFallback iterates the remaining levels in numeric order,
// skipping the one already tried, dispatching the first feasible job it
// finds.
func (c *Core) crossLevelFallback(ctx context.Context, skipLevel int, snapshot capacity.Snapshot) bool {
	for level, container := range c.levels {
		if level == skipLevel || container.Len() == 0 {
			continue
		}
		next, err := c.jobSelector.SelectJob(container.ToList(), snapshot)
		if err != nil {
			continue
		}
		container.Remove(next)
		c.dispatchJob(ctx, next)
		return true
	}
	return false
}

func (c *Core) dispatchJob(ctx context.Context, j *job.Job) {
	timer := metrics.NewTimer()
	err := c.dispatcher.Send(ctx, j, c.experimentSnapshot)
	timer.ObserveDuration(metrics.DispatchLatency)

	if err != nil {
		metrics.JobsDispatched.WithLabelValues("transport_error").Inc()
	} else {
		metrics.JobsDispatched.WithLabelValues("ok").Inc()
	}

	// Capacity is debited regardless of transport outcome: dispatch is
	// at-most-once and best-effort (spec.md §4.6).
	c.monitor.UpdateCurrentSystemResources(-j.Resources.CPU, -j.Resources.Mem)
	c.updateFreeGauges()
	c.logger.Info().Str("job_id", j.ID).Str("job_type", j.Type).Msg("job dispatched")
}

func (c *Core) updateFreeGauges() {
	snap := c.monitor.Snapshot()
	metrics.FreeCPU.Set(float64(snap.Total.CPU))
	metrics.FreeMem.Set(float64(snap.Total.Mem))
}

// Reallocate recomputes every job's schedule_time and migrates any job
// whose new level is more urgent than its current one. Demotion never
// happens: schedule_time only decreases as real time advances (barring
// the non-monotonic-clock edge case spec.md §9 leaves unresolved), so a
// job already classified into level k can only ever need to move to a
// lower-numbered (more urgent) level, never a higher one.
//
// Unlike the literal "pop the top job while its level is too low"
// phrasing in spec.md §4.7 — which only makes sense for a heap, where
// the top is well-defined as the most urgent job — this scans each
// level's full ToList() snapshot. That generalizes correctly across all
// three container variants (heap, bisect, deque), whose Peek/Pop do not
// all surface the most-urgent job first. See DESIGN.md.
func (c *Core) Reallocate() {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReallocationDuration)
		metrics.ReallocationCyclesTotal.Inc()
	}()

	now := c.now()
	for _, lvl := range c.levels {
		lvl.RenewJobsPriority(now)
	}

	for level := 1; level < len(c.levels); level++ {
		container := c.levels[level]
		for _, j := range container.ToList() {
			newLevel := c.extractLevel(j.SortKey)
			if newLevel >= level {
				continue
			}
			if container.Remove(j) {
				c.levels[newLevel].Insert(j)
				metrics.JobsPromoted.Inc()
			}
		}
		metrics.QueueDepth.WithLabelValues(strconv.Itoa(level)).Set(float64(container.Len()))
	}
	metrics.QueueDepth.WithLabelValues("0").Set(float64(c.levels[0].Len()))
}
