package diag

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/gray-logic-node/internal/connectivity"
)

func TestMetricsEndpointExposesSources(t *testing.T) {
	env := newTestEnv(t)
	env.platform.Begin()

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		"graylogic_node_broker_connected 1",
		`graylogic_node_link_services_initialized{interface="eth0"} 1`,
		`graylogic_node_link_stable{interface="eth0"} 0`,
		`graylogic_node_platform_begins_total{interface="eth0"} 1`,
		`graylogic_node_platform_route_requests_total{interface="eth0"} 1`,
		"graylogic_node_bridge_published_total 5",
		"graylogic_node_bridge_publish_failures_total 1",
		"graylogic_node_rules_events_enqueued_total 1",
		"graylogic_node_rules_events_pending 1",
		"graylogic_node_commands_executed_total 2",
		"graylogic_node_discovery_messages_sent_total 4",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRequestsAreCounted(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/api/v1/health", "")
	env.do(t, http.MethodGet, "/api/v1/health", "")
	env.do(t, http.MethodGet, "/api/v1/interfaces/wlan9", "")

	c := env.server.Metrics()
	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("/api/v1/health", "200")); got != 2 {
		t.Errorf("health requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("/api/v1/interfaces/{name}", "404")); got != 1 {
		t.Errorf("interface 404s = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.HTTPDurations); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestObserveLinkChange(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	tr := connectivity.NewTracker(connectivity.TrackerOptions{Interface: "eth0"})
	c.ObserveLinkChange(tr.Snapshot())
	tr.MarkConnected()
	tr.ProcessConnected()
	c.ObserveLinkChange(tr.Snapshot())
	c.ObserveLinkChange(tr.Snapshot())

	if got := testutil.ToFloat64(c.LinkTransitions.WithLabelValues("eth0", "DISCONNECTED")); got != 1 {
		t.Errorf("DISCONNECTED transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.LinkTransitions.WithLabelValues("eth0", "Conn.")); got != 2 {
		t.Errorf("Conn. transitions = %v, want 2", got)
	}
}

func TestNewCollectorReusesRegisteredVectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewCollector(reg, nil)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg, nil)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	if first.HTTPRequests != second.HTTPRequests {
		t.Error("second collector should reuse the registered request counter")
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveRequest("/x", 200, time.Millisecond)
	c.ObserveLinkChange(connectivity.Snapshot{})
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, nil)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.ObserveRequest("/api/v1/health", 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `graylogic_node_http_requests_total{code="200",route="/api/v1/health"} 1`) {
		t.Errorf("request counter not exposed:\n%s", rec.Body.String())
	}
}
