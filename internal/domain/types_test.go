package domain

import (
	"testing"
	"time"
)

func TestObserveLatencyMsEMA(t *testing.T) {
	e := NewEndpoint("1", "GET", "/users/{id}", time.Now())
	e.ObserveLatencyMs(100, 0.1)
	e.SampleCount++
	if e.LatencyMeanMs != 100 {
		t.Fatalf("first sample should seed mean exactly, got %v", e.LatencyMeanMs)
	}
	e.ObserveLatencyMs(200, 0.1)
	e.SampleCount++
	want := 0.9*100 + 0.1*200
	if e.LatencyMeanMs != want {
		t.Fatalf("EMA mean = %v, want %v", e.LatencyMeanMs, want)
	}
	if e.LatencySigma() < 0 {
		t.Errorf("sigma must never be negative")
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 301: "3xx", 404: "4xx", 503: "5xx", 100: "1xx"}
	for code, want := range cases {
		if got := StatusClass(code); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
