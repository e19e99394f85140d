package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveTickRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.ObserveTick(2451545.5, 2*time.Millisecond)
	collector.ObserveTick(2451546.0, time.Millisecond)

	if got := testutil.ToFloat64(collector.Ticks); got != 2 {
		t.Fatalf("orrery_sim_ticks_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SimTime); got != 2451546.0 {
		t.Fatalf("orrery_sim_time_jd = %v, want 2451546", got)
	}
	if count := histogramSampleCount(t, reg, "orrery_sim_tick_duration_seconds", nil); count != 2 {
		t.Fatalf("orrery_sim_tick_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestJourneyAndCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.JourneyStarted("goto")
	collector.JourneyStarted("goto")
	collector.JourneyStarted("center")
	collector.JourneyCompleted()
	collector.AddCacheLookups(5, 2)
	collector.AddCacheLookups(0, 1)

	if got := testutil.ToFloat64(collector.Journeys.WithLabelValues("goto")); got != 2 {
		t.Fatalf("journeys{goto} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.JourneysCompleted); got != 1 {
		t.Fatalf("journeys completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.CacheLookups.WithLabelValues("miss")); got != 3 {
		t.Fatalf("cache misses = %v, want 3", got)
	}
}

func TestRegistrationIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("second NewSimCollector: %v", err)
	}
	second.JourneyCompleted()
	if got := testutil.ToFloat64(first.JourneysCompleted); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *SimCollector
	c.ObserveTick(0, time.Second)
	c.JourneyStarted("goto")
	c.JourneyCompleted()
	c.AddCacheLookups(1, 1)
	c.SetBodyCount(3)
}

func TestMetricsHandlerExposesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.SetBodyCount(11)
	collector.JourneyStarted("location")
	collector.AddCacheLookups(1, 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"orrery_sim_ticks_total",
		"orrery_sim_time_jd",
		"orrery_observer_journeys_total",
		"orrery_orbit_cache_lookups_total",
		"orrery_universe_bodies 11",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
