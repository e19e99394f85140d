package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the simulation loop and the
// observer, and serves them over HTTP.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks             prometheus.Counter
	TickDurations     prometheus.Histogram
	SimTime           prometheus.Gauge
	Journeys          *prometheus.CounterVec
	JourneysCompleted prometheus.Counter
	CacheLookups      *prometheus.CounterVec
	Bodies            prometheus.Gauge
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_sim_ticks_total",
		Help: "Total number of simulation updates.",
	}), "orrery_sim_ticks_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_sim_tick_duration_seconds",
		Help:    "Wall time spent in one simulation update.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "orrery_sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_sim_time_jd",
		Help: "Current simulation time as a TDB Julian date.",
	}), "orrery_sim_time_jd")
	if err != nil {
		return nil, err
	}

	journeys := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_observer_journeys_total",
		Help: "Observer journeys started, labeled by kind.",
	}, []string{"kind"})
	journeys, err = registerCounterVec(reg, journeys, "orrery_observer_journeys_total")
	if err != nil {
		return nil, err
	}

	completed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_observer_journeys_completed_total",
		Help: "Observer journeys that ran to completion.",
	}), "orrery_observer_journeys_completed_total")
	if err != nil {
		return nil, err
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_orbit_cache_lookups_total",
		Help: "Orbit position cache lookups, labeled by result (hit or miss).",
	}, []string{"result"})
	lookups, err = registerCounterVec(reg, lookups, "orrery_orbit_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_universe_bodies",
		Help: "Current number of bodies in the universe.",
	}), "orrery_universe_bodies")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		Ticks:             ticks,
		TickDurations:     durations,
		SimTime:           simTime,
		Journeys:          journeys,
		JourneysCompleted: completed,
		CacheLookups:      lookups,
		Bodies:            bodies,
	}, nil
}

// ObserveTick records one simulation update.
func (c *SimCollector) ObserveTick(jd float64, d time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.TickDurations.Observe(d.Seconds())
	c.SimTime.Set(jd)
}

// AddCacheLookups adds hit and miss counts gathered since the last call.
func (c *SimCollector) AddCacheLookups(hits, misses int) {
	if c == nil {
		return
	}
	if hits > 0 {
		c.CacheLookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		c.CacheLookups.WithLabelValues("miss").Add(float64(misses))
	}
}

// SetBodyCount sets the universe size gauge.
func (c *SimCollector) SetBodyCount(n int) {
	if c == nil {
		return
	}
	c.Bodies.Set(float64(n))
}

// JourneyStarted satisfies the observer's Recorder interface.
func (c *SimCollector) JourneyStarted(kind string) {
	if c == nil {
		return
	}
	c.Journeys.WithLabelValues(kind).Inc()
}

// JourneyCompleted satisfies the observer's Recorder interface.
func (c *SimCollector) JourneyCompleted() {
	if c == nil {
		return
	}
	c.JourneysCompleted.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
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

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
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
