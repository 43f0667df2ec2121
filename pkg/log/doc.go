/*
Package log provides structured logging for the job scheduler using zerolog.

The package wraps zerolog to give every subsystem (bus consumer, scheduling
core, dispatcher, capacity monitor) a component-scoped child logger, JSON or
console output, and level filtering, without routing every call site through
a process-global logger directly.

# Usage

	import "github.com/cidas/job-scheduler/pkg/log"

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("core")
	logger.Info().Str("job_id", job.ID).Int("level", level).Msg("job staged")

# Levels

Debug is for development tracing (e.g. per-job schedule_time recomputation).
Info is the default production level (ingestion, dispatch, reallocation
cycles). Warn covers recoverable per-message conditions (malformed job,
unknown job type, dispatch transport error, empty/no-valid-job selection
outcomes). Error/Fatal are reserved for conditions that abort the consume
loop (bus errors, bad configuration).
*/
package log
