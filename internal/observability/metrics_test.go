package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector, err := NewCollector(registry)
	require.NoError(t, err)

	collector.IncPairsDelivered()
	collector.IncPairsDelivered()
	collector.IncAllocRetries()
	collector.IncProcessesCompleted()
	collector.IncSchedulerCycles()
	collector.IncSchedulerExhausted()
	collector.SetOpenSlots(3)
	collector.SetQueueDepth(7)
	collector.ObservePairGeneration(250 * time.Microsecond)

	families, err := registry.Gather()
	require.NoError(t, err)
	byName := map[string]*dto.MetricFamily{}
	for _, family := range families {
		byName[family.GetName()] = family
	}

	assert.EqualValues(t, 2, counterValue(t, byName, "qnos_pairs_delivered_total"))
	assert.EqualValues(t, 1, counterValue(t, byName, "qnos_alloc_retries_total"))
	assert.EqualValues(t, 1, counterValue(t, byName, "qnos_processes_completed_total"))
	assert.EqualValues(t, 1, counterValue(t, byName, "qnos_link_cycles_total"))
	assert.EqualValues(t, 1, counterValue(t, byName, "qnos_link_scheduler_exhausted_total"))
	assert.EqualValues(t, 3, gaugeValue(t, byName, "qnos_link_open_slots"))
	assert.EqualValues(t, 7, gaugeValue(t, byName, "qnos_link_queue_depth"))

	generation, ok := byName["qnos_pair_generation_duration_seconds"]
	require.True(t, ok)
	require.Len(t, generation.GetMetric(), 1)
	assert.EqualValues(t, 1, generation.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestNewCollectorIdempotent(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := NewCollector(registry)
	require.NoError(t, err)
	second, err := NewCollector(registry)
	require.NoError(t, err)

	first.IncPairsDelivered()
	second.IncPairsDelivered()

	families, err := registry.Gather()
	require.NoError(t, err)
	byName := map[string]*dto.MetricFamily{}
	for _, family := range families {
		byName[family.GetName()] = family
	}
	assert.EqualValues(t, 2, counterValue(t, byName, "qnos_pairs_delivered_total"))
}

func TestNilCollectorSafe(t *testing.T) {
	var collector *Collector
	collector.IncPairsDelivered()
	collector.IncAllocRetries()
	collector.IncSessionsFailed()
	collector.IncProcessesCompleted()
	collector.IncSchedulerCycles()
	collector.IncSchedulerExhausted()
	collector.SetOpenSlots(1)
	collector.SetQueueDepth(1)
	collector.ObservePairGeneration(time.Millisecond)
	assert.Nil(t, collector.Gatherer())
}

func counterValue(t *testing.T, families map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	family, ok := families[name]
	require.True(t, ok, "metric family %s not gathered", name)
	require.Len(t, family.GetMetric(), 1)
	return family.GetMetric()[0].GetCounter().GetValue()
}

func gaugeValue(t *testing.T, families map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	family, ok := families[name]
	require.True(t, ok, "metric family %s not gathered", name)
	require.Len(t, family.GetMetric(), 1)
	return family.GetMetric()[0].GetGauge().GetValue()
}
