package capacity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalogLookup(t *testing.T) {
	c := StaticCatalog{
		"demand_forecasting_1hr": {Executors: 1, CPU: 1, Mem: 1, ComputingTime: 5},
	}

	entry, err := c.Lookup("demand_forecasting_1hr")
	require.NoError(t, err)
	assert.Equal(t, 5, entry.ComputingTime)

	_, err = c.Lookup("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownJobType))
}

func TestMonitorUpdateCurrentSystemResources(t *testing.T) {
	m := NewMonitor(Resources{CPU: 2, Mem: 2}, StaticCatalog{})
	m.UpdateCurrentSystemResources(-1, -1)
	assert.Equal(t, Snapshot{Total: Resources{CPU: 1, Mem: 1}}, m.Snapshot())

	m.UpdateCurrentSystemResources(1, 1)
	assert.Equal(t, Snapshot{Total: Resources{CPU: 2, Mem: 2}}, m.Snapshot())
}

func TestMonitorGetSingleJobResources(t *testing.T) {
	m := NewMonitor(Resources{}, StaticCatalog{
		"t": {CPU: 4},
	})
	entry, err := m.GetSingleJobResources("t")
	require.NoError(t, err)
	assert.Equal(t, 4, entry.CPU)

	_, err = m.GetSingleJobResources("unknown")
	assert.True(t, errors.Is(err, ErrUnknownJobType))
}

func TestLoadCatalogEmptyFallsBackToDefault(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	entry, err := catalog.Lookup("demand_forecasting_1hr")
	require.NoError(t, err)
	assert.Equal(t, 5, entry.ComputingTime)
}

func TestLoadCatalogParsesJSON(t *testing.T) {
	raw := `{"ingest": {"Executors": 2, "CPU": 3, "Mem": 4, "ComputingTime": 10}}`
	catalog, err := LoadCatalog(raw)
	require.NoError(t, err)
	entry, err := catalog.Lookup("ingest")
	require.NoError(t, err)
	assert.Equal(t, CatalogEntry{Executors: 2, CPU: 3, Mem: 4, ComputingTime: 10}, entry)
}

func TestLoadCatalogRejectsMalformedJSON(t *testing.T) {
	_, err := LoadCatalog("not json")
	require.Error(t, err)
}
