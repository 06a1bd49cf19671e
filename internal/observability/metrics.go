// Package observability exposes the control plane's Prometheus metrics:
// delivered pairs, allocation backpressure, link scheduler cycles and slot
// occupancy.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the node metrics registered against one registerer.
type Collector struct {
	gatherer prometheus.Gatherer

	PairsDelivered     prometheus.Counter
	AllocRetries       prometheus.Counter
	SessionsFailed     prometheus.Counter
	ProcessesComplete  prometheus.Counter
	SchedulerCycles    prometheus.Counter
	SchedulerExhausted prometheus.Counter
	OpenSlots          prometheus.Gauge
	QueueDepth         prometheus.Gauge
	PairGeneration     prometheus.Histogram
}

// NewCollector registers the node metrics against reg. Registering twice
// against the same registerer reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	pairs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qnos_pairs_delivered_total",
		Help: "Cumulative number of entangled pairs delivered to local processes.",
	})
	pairs, err := registerCounter(reg, pairs, "qnos_pairs_delivered_total")
	if err != nil {
		return nil, err
	}

	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qnos_alloc_retries_total",
		Help: "Cumulative number of allocation retries caused by memory backpressure.",
	})
	retries, err = registerCounter(reg, retries, "qnos_alloc_retries_total")
	if err != nil {
		return nil, err
	}

	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qnos_sessions_failed_total",
		Help: "Cumulative number of entanglement sessions ended by a fatal error.",
	})
	failed, err = registerCounter(reg, failed, "qnos_sessions_failed_total")
	if err != nil {
		return nil, err
	}

	complete := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qnos_processes_completed_total",
		Help: "Cumulative number of processes that ran their program to the end.",
	})
	complete, err = registerCounter(reg, complete, "qnos_processes_completed_total")
	if err != nil {
		return nil, err
	}

	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qnos_link_cycles_total",
		Help: "Cumulative number of scheduling cycles started by link schedulers.",
	})
	cycles, err = registerCounter(reg, cycles, "qnos_link_cycles_total")
	if err != nil {
		return nil, err
	}

	exhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qnos_link_scheduler_exhausted_total",
		Help: "Number of times a link scheduler hit its repeat bound and stopped.",
	})
	exhausted, err = registerCounter(reg, exhausted, "qnos_link_scheduler_exhausted_total")
	if err != nil {
		return nil, err
	}

	open := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qnos_link_open_slots",
		Help: "Number of currently open link time slots.",
	})
	open, err = registerGauge(reg, open, "qnos_link_open_slots")
	if err != nil {
		return nil, err
	}

	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qnos_link_queue_depth",
		Help: "Outstanding pairing requests across link scheduler queues.",
	})
	depth, err = registerGauge(reg, depth, "qnos_link_queue_depth")
	if err != nil {
		return nil, err
	}

	generation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "qnos_pair_generation_duration_seconds",
		Help:    "Simulated duration between pair submission and delivery.",
		Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1},
	})
	generation, err = registerHistogram(reg, generation, "qnos_pair_generation_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		PairsDelivered:     pairs,
		AllocRetries:       retries,
		SessionsFailed:     failed,
		ProcessesComplete:  complete,
		SchedulerCycles:    cycles,
		SchedulerExhausted: exhausted,
		OpenSlots:          open,
		QueueDepth:         depth,
		PairGeneration:     generation,
	}, nil
}

// Gatherer returns the gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// IncPairsDelivered records one delivered pair.
func (c *Collector) IncPairsDelivered() {
	if c == nil || c.PairsDelivered == nil {
		return
	}
	c.PairsDelivered.Inc()
}

// IncAllocRetries records one backpressure retry.
func (c *Collector) IncAllocRetries() {
	if c == nil || c.AllocRetries == nil {
		return
	}
	c.AllocRetries.Inc()
}

// IncSessionsFailed records one fatally ended session.
func (c *Collector) IncSessionsFailed() {
	if c == nil || c.SessionsFailed == nil {
		return
	}
	c.SessionsFailed.Inc()
}

// IncProcessesCompleted records one process that finished its program.
func (c *Collector) IncProcessesCompleted() {
	if c == nil || c.ProcessesComplete == nil {
		return
	}
	c.ProcessesComplete.Inc()
}

// IncSchedulerCycles records one started scheduling cycle.
func (c *Collector) IncSchedulerCycles() {
	if c == nil || c.SchedulerCycles == nil {
		return
	}
	c.SchedulerCycles.Inc()
}

// IncSchedulerExhausted records one repeat-bound stop.
func (c *Collector) IncSchedulerExhausted() {
	if c == nil || c.SchedulerExhausted == nil {
		return
	}
	c.SchedulerExhausted.Inc()
}

// SetOpenSlots updates the open slot gauge.
func (c *Collector) SetOpenSlots(n int) {
	if c == nil || c.OpenSlots == nil {
		return
	}
	c.OpenSlots.Set(float64(n))
}

// SetQueueDepth updates the outstanding request gauge.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil || c.QueueDepth == nil {
		return
	}
	c.QueueDepth.Set(float64(n))
}

// ObservePairGeneration records the simulated generation latency of one
// pair.
func (c *Collector) ObservePairGeneration(d time.Duration) {
	if c == nil || c.PairGeneration == nil {
		return
	}
	c.PairGeneration.Observe(d.Seconds())
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
