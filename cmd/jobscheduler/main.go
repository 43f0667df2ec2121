package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cidas/job-scheduler/pkg/bus"
	"github.com/cidas/job-scheduler/pkg/capacity"
	"github.com/cidas/job-scheduler/pkg/config"
	"github.com/cidas/job-scheduler/pkg/core"
	"github.com/cidas/job-scheduler/pkg/dispatch"
	"github.com/cidas/job-scheduler/pkg/jobselect"
	"github.com/cidas/job-scheduler/pkg/log"
	"github.com/cidas/job-scheduler/pkg/metrics"
	"github.com/cidas/job-scheduler/pkg/queueselect"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "jobscheduler",
	Short: "Deadline-aware, multi-level priority job scheduler",
	Long: `jobscheduler consumes new-job and job-complete events from a
message bus, stages each job in one of several priority levels derived
from its deadline slack, and dispatches staged jobs to an execution
backend as cluster capacity frees up.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"jobscheduler version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler's consume loop until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

// configError marks a startup failure caused by a rejected configuration
// (exit code 2 per SPEC_FULL.md §6), distinct from every other runtime
// failure (exit code 1).
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if _, ok := err.(*configError); ok {
		return 2
	}
	return 1
}

func run(parentCtx context.Context) error {
	logger := log.WithComponent("main")

	cfg, err := config.Load()
	if err != nil {
		return &configError{err}
	}

	catalog, err := capacity.LoadCatalog(cfg.JobCatalog)
	if err != nil {
		return &configError{err}
	}
	monitor := capacity.NewMonitor(capacity.Resources{CPU: cfg.SystemCPU, Mem: cfg.SystemMem}, catalog)

	queueSelector, err := queueselect.New(cfg.QueueSelectMethod, cfg.SelectWeight, cfg.SelectOrder)
	if err != nil {
		return &configError{err}
	}
	jobSelector, err := jobselect.New(cfg.JobSelectMethod)
	if err != nil {
		return &configError{err}
	}

	dispatchURL := cfg.JobTriggerURL
	if cfg.JobTriggerMethod == dispatch.MethodAirflow {
		dispatchURL = cfg.AirflowURL
	}
	dispatcher, err := dispatch.New(dispatch.Config{
		Method:     cfg.JobTriggerMethod,
		URL:        dispatchURL,
		DateFormat: cfg.DateFormat,
		Timeout:    cfg.DispatchTimeout,
		RetryMax:   cfg.DispatchRetryMax,
	})
	if err != nil {
		return &configError{err}
	}

	svc := core.New(core.Config{
		TotalLevel:          cfg.TotalLevel,
		LevelLimit:          cfg.LevelLimit,
		Variant:             cfg.StageQueue,
		IsRenewBeforeInsert: cfg.IsRenewBeforeInsert,
		IsReallocate:        cfg.IsReallocate,
		SortKeyName:         cfg.JobSortKey,
		DateFormat:          cfg.DateFormat,
		NewJobTopic:         cfg.TopicNewJob,
		JobCompleteTopic:    cfg.TopicJobComplete,
		Monitor:             monitor,
		QueueSelector:       queueSelector,
		JobSelector:         jobSelector,
		Dispatcher:          dispatcher,
		ExperimentSnapshot:  cfg.ExperimentSnapshot(),
	})

	consumer := bus.NewKafkaConsumer(bus.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topics:  []string{cfg.TopicNewJob, cfg.TopicJobComplete},
	})

	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer consumer.Close()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux()}
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	metrics.RegisterComponent("bus", true, "")
	metrics.RegisterComponent("core", true, "")

	var reallocateTicker *time.Ticker
	if cfg.IsReallocate {
		reallocateTicker = time.NewTicker(30 * time.Second)
		defer reallocateTicker.Stop()
	}

	logger.Info().Str("exp_id", cfg.ExpID).Msg("jobscheduler starting consume loop")
	return consumeLoop(ctx, svc, consumer, reallocateTicker, logger)
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	return mux
}

// consumeLoop is the single-threaded cooperative model from SPEC_FULL.md
// §5: one goroutine alternates between polling the bus and, when a
// reallocation ticker is set, running a reallocation pass — interleaved
// via select on the same goroutine, never concurrently. It returns nil on
// a clean shutdown (ctx cancelled) and a non-nil error on a fatal bus
// condition (bus.ErrFatal), matching exit code 1 per SPEC_FULL.md §6.
func consumeLoop(ctx context.Context, svc *core.Core, consumer bus.Consumer, reallocateTicker *time.Ticker, logger zerolog.Logger) error {
	var reallocateChan <-chan time.Time
	if reallocateTicker != nil {
		reallocateChan = reallocateTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutdown signal received, stopping consume loop")
			return nil
		case <-reallocateChan:
			svc.Reallocate()
		default:
			msgs, err := consumer.Poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error().Err(err).Msg("fatal bus error, stopping consume loop")
				return err
			}
			for _, msg := range msgs {
				svc.ConsumeMessage(ctx, msg)
			}
		}
	}
}
