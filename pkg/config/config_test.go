package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TotalLevel)
	assert.Equal(t, []int{600, 1200}, cfg.LevelLimit)
	assert.Equal(t, []float64{10, 7, 3}, cfg.SelectWeight)
	assert.Equal(t, "heap", string(cfg.StageQueue))
	assert.Equal(t, "%Y-%m-%dT%H:%M:%S", cfg.DateFormat)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("TOTAL_LEVEL", "4")
	t.Setenv("LEVEL_LIMIT", "100,200,300")
	t.Setenv("STAGE_QUEUE", "bisect")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TotalLevel)
	assert.Equal(t, []int{100, 200, 300}, cfg.LevelLimit)
	assert.Equal(t, "bisect", string(cfg.StageQueue))
}

func TestValidateRejectsWrongLength(t *testing.T) {
	cfg := &Config{TotalLevel: 3, LevelLimit: []int{600}}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsNonIncreasing(t *testing.T) {
	cfg := &Config{TotalLevel: 3, LevelLimit: []int{600, 500}}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	cfg := &Config{TotalLevel: 3, LevelLimit: []int{600, 1200}}
	assert.NoError(t, cfg.Validate())
}

func TestExperimentSnapshot(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	snap := cfg.ExperimentSnapshot()
	assert.Contains(t, snap, "exp_id")
	assert.Contains(t, snap, "method")
}
