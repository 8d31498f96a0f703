package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAssistantMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAssistantMetrics(reg)
	m.ObserveInvocation("payload", "booked")
	m.ObserveInvocation("payload", "booked")
	m.ObserveInvocation("", "error")
	m.ObserveCompletion("ok", 0.25)
	m.ObserveBooking("success")

	if got := testutil.ToFloat64(m.invocationsTotal.WithLabelValues("payload", "booked")); got != 2 {
		t.Fatalf("expected 2 booked invocations, got %v", got)
	}
	if got := testutil.ToFloat64(m.invocationsTotal.WithLabelValues("unknown", "error")); got != 1 {
		t.Fatalf("expected unknown variant label, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookingTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 booking, got %v", got)
	}
	if n := testutil.CollectAndCount(m.completionLatency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestAssistantMetricsNilSafe(t *testing.T) {
	var m *AssistantMetrics
	m.ObserveInvocation("payload", "text_reply")
	m.ObserveCompletion("error", 0.1)
	m.ObserveBooking("failure")
}

func TestPusherDisabledWithoutURL(t *testing.T) {
	if p := NewPusher("", "assistant", prometheus.NewRegistry()); p != nil {
		t.Fatalf("expected nil pusher, got %#v", p)
	}
	var p *Pusher
	if err := p.Push(context.Background()); err != nil {
		t.Fatalf("nil pusher should be a no-op, got %v", err)
	}
}

func TestPusherSendsToGateway(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	NewAssistantMetrics(reg).ObserveInvocation("session", "text_reply")

	if err := NewPusher(srv.URL, "appointment_assistant", reg).Push(context.Background()); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(gotPath, "/metrics/job/appointment_assistant") {
		t.Fatalf("unexpected push path %q", gotPath)
	}
}
