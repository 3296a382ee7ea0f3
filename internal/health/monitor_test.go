package health

import (
	"testing"
	"time"

	"github.com/mimicgate/mimicgate/internal/domain"
)

func sample(latency float64) domain.HealthSample {
	return domain.HealthSample{LatencyMs: latency, StatusCode: 200, BodySizeBytes: 100, Timestamp: time.Now()}
}

func TestScoreStaysInBounds(t *testing.T) {
	m := New(DefaultWindowSize)
	for i := 0; i < 20; i++ {
		metric := m.Observe("/x", sample(float64(90+i)))
		if metric.Score < 0 || metric.Score > 100 {
			t.Fatalf("score out of bounds: %v", metric.Score)
		}
	}
}

func TestLatencySpikeFlagsAnomaly(t *testing.T) {
	m := New(DefaultWindowSize)
	// nine samples at ~100ms with small jitter
	jitter := []float64{100, 105, 95, 110, 90, 100, 108, 92, 100}
	var last domain.HealthMetric
	for _, l := range jitter {
		last = m.Observe("/search", sample(l))
	}
	// one big spike
	last = m.Observe("/search", sample(2000))
	if !last.LatencyAnomaly {
		t.Fatalf("expected a latency anomaly on 2000ms spike, metric=%+v", last)
	}
	if last.Score >= 80 {
		t.Errorf("expected degraded health after spike, got score %v", last.Score)
	}
}

func TestHighCVSuppressesAnomaly(t *testing.T) {
	m := New(DefaultWindowSize)
	// Highly variable latencies uniformly spread widely; CV should push
	// z_thr near 6, so a 3500ms sample after this history should not fire.
	latencies := []float64{200, 3000, 400, 2800, 600, 2600, 800, 2400, 1000, 2200,
		1200, 2000, 1400, 1800, 1600, 1700, 1500, 1900, 1300, 2100,
		1100, 2300, 900, 2500, 700, 2700, 500, 2900, 300, 2999,
		250, 2950, 450, 2750, 650, 2550, 850, 2350, 1050, 2150,
		1250, 1950, 1450, 1750, 1650, 1650, 1550, 1850, 1350, 2050}
	var last domain.HealthMetric
	for _, l := range latencies {
		last = m.Observe("/llm", sample(l))
	}
	last = m.Observe("/llm", sample(3500))
	if last.LatencyAnomaly {
		t.Errorf("expected no anomaly under high CV, got metric=%+v", last)
	}
}

func TestGlobalHealthDefaultsTo100WithNoEndpoints(t *testing.T) {
	m := New(DefaultWindowSize)
	g := m.Global()
	if g.Score != 100 {
		t.Errorf("expected default global score of 100, got %v", g.Score)
	}
}

func TestSetDriftActiveAppliesPenalty(t *testing.T) {
	m := New(DefaultWindowSize)
	m.Observe("/x", sample(100))
	m.SetDriftActive("/x", true)
	metric := m.Observe("/x", sample(100))
	if metric.Score > 80 {
		t.Errorf("expected active-drift penalty to reduce score, got %v", metric.Score)
	}
}
