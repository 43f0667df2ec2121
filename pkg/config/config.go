// Package config loads the scheduler's typed configuration from the
// process environment (optionally pre-loaded from a .env file), mirroring
// the original service's config.py module: every SCHEDULER_CONFIG /
// QUEUE_SELECTION_CONFIG / JOB_SELECTION_CONFIG / QUEUE_SCHEDULE_CONFIG
// entry becomes a field on a single typed Config struct built once in
// main and passed down, instead of a process-global dict.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cidas/job-scheduler/pkg/dispatch"
	"github.com/cidas/job-scheduler/pkg/job"
	"github.com/cidas/job-scheduler/pkg/jobselect"
	"github.com/cidas/job-scheduler/pkg/queueselect"
	"github.com/cidas/job-scheduler/pkg/staging"
)

// ErrInvalid marks a configuration that fails validation at startup
// (process exit code 2 per spec.md §6), distinct from a bus or runtime
// error.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the scheduler's full typed configuration, loaded once at
// startup.
type Config struct {
	TotalLevel          int
	LevelLimit          []int
	IsRenewBeforeInsert bool
	IsReallocate        bool
	JobSortKey          job.SortKeyName

	QueueSelectMethod queueselect.Method
	SelectWeight      []float64
	SelectOrder       []int

	JobSelectMethod jobselect.Method
	StageQueue      staging.Variant

	JobTriggerMethod dispatch.Method
	JobTriggerURL    string
	AirflowURL       string
	DispatchTimeout  time.Duration
	DispatchRetryMax int

	SystemCPU int
	SystemMem int

	DateFormat string

	TopicNewJob      string
	TopicJobComplete string
	KafkaBrokers     []string
	KafkaGroupID     string

	MetricsAddr string

	JobCatalog string

	ExpID string
}

// Load reads configuration from the process environment, with an
// optional .env file pre-loaded the way the original service's
// load_dotenv() call does. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		TotalLevel:          v.GetInt("TOTAL_LEVEL"),
		LevelLimit:          parseIntList(v.GetString("LEVEL_LIMIT")),
		IsRenewBeforeInsert: v.GetBool("IS_RENEW_BEFORE_INSERT"),
		IsReallocate:        v.GetBool("IS_REALLOCATE"),
		JobSortKey:          job.SortKeyName(v.GetString("JOB_SORT_KEY")),

		QueueSelectMethod: queueselect.Method(v.GetString("QUEUE_SELECT_METHOD")),
		SelectWeight:      parseFloatList(v.GetString("SELECT_WEIGHT")),
		SelectOrder:       parseIntList(v.GetString("SELECT_ORDER")),

		JobSelectMethod: jobselect.Method(v.GetString("JOB_SELECT_METHOD")),
		StageQueue:      staging.Variant(v.GetString("STAGE_QUEUE")),

		JobTriggerMethod: dispatch.Method(v.GetString("JOB_TRIGGER_METHOD")),
		JobTriggerURL:    v.GetString("JOB_TRIGGER_URL"),
		AirflowURL:       v.GetString("AIRFLOW_URL"),
		DispatchTimeout:  time.Duration(v.GetInt("DISPATCH_TIMEOUT_SECONDS")) * time.Second,
		DispatchRetryMax: v.GetInt("DISPATCH_RETRY_MAX"),

		SystemCPU: v.GetInt("SYSTEM_CPU"),
		SystemMem: v.GetInt("SYSTEM_MEM"),

		DateFormat: v.GetString("DATE_FORMAT"),

		TopicNewJob:      v.GetString("TOPIC_NEW_JOB_NOTIFY"),
		TopicJobComplete: v.GetString("TOPIC_JOB_COMPLETE_NOTIFY"),
		KafkaBrokers:     []string{v.GetString("KAFKA_IP")},
		KafkaGroupID:     v.GetString("GROUP_ID"),

		MetricsAddr: v.GetString("METRICS_ADDR"),

		JobCatalog: v.GetString("JOB_CATALOG"),
	}
	cfg.ExpID = buildExpID(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TOTAL_LEVEL", 3)
	v.SetDefault("LEVEL_LIMIT", "600,1200")
	v.SetDefault("IS_RENEW_BEFORE_INSERT", true)
	v.SetDefault("IS_REALLOCATE", true)
	v.SetDefault("JOB_SORT_KEY", "schedule_time")

	v.SetDefault("QUEUE_SELECT_METHOD", "env_weight_random_select")
	v.SetDefault("SELECT_WEIGHT", "10,7,3")
	v.SetDefault("SELECT_ORDER", "3,2,1")

	v.SetDefault("JOB_SELECT_METHOD", "basic_check_resource")
	v.SetDefault("STAGE_QUEUE", "heap")

	v.SetDefault("JOB_TRIGGER_METHOD", "api")
	v.SetDefault("JOB_TRIGGER_URL", "http://localhost:5000/trigger/spark")
	v.SetDefault("AIRFLOW_URL", "http://localhost:8080/api/experimental/dags/basic_test_job/dag_runs")
	v.SetDefault("DISPATCH_TIMEOUT_SECONDS", 5)
	v.SetDefault("DISPATCH_RETRY_MAX", 2)

	v.SetDefault("SYSTEM_CPU", 1)
	v.SetDefault("SYSTEM_MEM", 1)

	v.SetDefault("DATE_FORMAT", "%Y-%m-%dT%H:%M:%S")

	v.SetDefault("TOPIC_NEW_JOB_NOTIFY", "new_job")
	v.SetDefault("TOPIC_JOB_COMPLETE_NOTIFY", "job_finish")
	v.SetDefault("KAFKA_IP", "localhost:9092")
	v.SetDefault("GROUP_ID", "qol")

	v.SetDefault("METRICS_ADDR", ":9090")

	v.SetDefault("JOB_CATALOG", "")

	v.SetDefault("EXP_ID", "0.0.0")
}

// Validate enforces the one startup-time invariant the scheduling core
// depends on: LEVEL_LIMIT must be strictly increasing and of length
// TotalLevel-1 (process exit code 2 per spec.md §6).
func (c *Config) Validate() error {
	if len(c.LevelLimit) != c.TotalLevel-1 {
		return fmt.Errorf("%w: LEVEL_LIMIT has %d entries, want %d (TOTAL_LEVEL-1)",
			ErrInvalid, len(c.LevelLimit), c.TotalLevel-1)
	}
	for i := 1; i < len(c.LevelLimit); i++ {
		if c.LevelLimit[i] <= c.LevelLimit[i-1] {
			return fmt.Errorf("%w: LEVEL_LIMIT must be strictly increasing, got %v", ErrInvalid, c.LevelLimit)
		}
	}
	return nil
}

// ExperimentSnapshot mirrors the original service's get_exp_config(): a
// small record of which scheduling configuration produced a dispatch,
// merged into job_params at send time.
func (c *Config) ExperimentSnapshot() map[string]any {
	return map[string]any{
		"exp_id": c.ExpID,
		"method": map[string]any{
			"queue_select_method": string(c.QueueSelectMethod),
			"job_select_method":   string(c.JobSelectMethod),
			"stage_queue":         string(c.StageQueue),
			"total_level":         c.TotalLevel,
			"level_limit":         c.LevelLimit,
		},
	}
}

func buildExpID(v *viper.Viper) string {
	return fmt.Sprintf("%s_c%d_m%d_queueSelect-%s_queue-%s",
		v.GetString("EXP_ID"), v.GetInt("SYSTEM_CPU"), v.GetInt("SYSTEM_MEM"),
		v.GetString("QUEUE_SELECT_METHOD"), v.GetString("STAGE_QUEUE"))
}

func parseIntList(s string) []int {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func parseFloatList(s string) []float64 {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err == nil {
			out = append(out, f)
		}
	}
	return out
}
