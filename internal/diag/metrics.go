package diag

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-node/internal/connectivity"
)

// namespace prefixes every node metric.
const namespace = "graylogic_node"

// Collector bundles the node's Prometheus metrics.
//
// Request and link-transition metrics are event driven. Everything else is
// read from the server's sources at scrape time.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests    *prometheus.CounterVec
	HTTPDurations   *prometheus.HistogramVec
	LinkTransitions *prometheus.CounterVec
}

// NewCollector registers the node metrics against reg, defaulting to a
// private registry when nil.
func NewCollector(reg prometheus.Registerer, src *Server) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Diagnostics HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}), "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Diagnostics HTTP request latency in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"route"}), "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_transitions_total",
		Help:      "Link status changes, labeled by interface and the new status.",
	}, []string{"interface", "status"}), "link_transitions_total")
	if err != nil {
		return nil, err
	}

	if src != nil {
		if err := reg.Register(newSourceCollector(src)); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("registering source collector: %w", err)
			}
		}
	}

	return &Collector{
		gatherer:        gatherer,
		HTTPRequests:    requests,
		HTTPDurations:   durations,
		LinkTransitions: transitions,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveLinkChange records a link status change. It has the signature of
// a connectivity.Monitor state-change callback.
func (c *Collector) ObserveLinkChange(s connectivity.Snapshot) {
	if c == nil {
		return
	}
	c.LinkTransitions.WithLabelValues(s.Interface, s.Status.String()).Inc()
}

// sourceCollector reads the server's stat sources on every scrape.
type sourceCollector struct {
	src *Server

	brokerConnected     *prometheus.Desc
	linkConnected       *prometheus.Desc
	linkAddress         *prometheus.Desc
	linkServices        *prometheus.Desc
	linkStable          *prometheus.Desc
	linkConnectAttempts *prometheus.Desc
	platformBegins      *prometheus.Desc
	platformRoutes      *prometheus.Desc
	platformIPv6        *prometheus.Desc
	bridgeReceived      *prometheus.Desc
	bridgeHandled       *prometheus.Desc
	bridgeIgnored       *prometheus.Desc
	bridgePublished     *prometheus.Desc
	bridgeFailed        *prometheus.Desc
	bridgeAnnouncements *prometheus.Desc
	rulesEnqueued       *prometheus.Desc
	rulesDuplicates     *prometheus.Desc
	rulesDropped        *prometheus.Desc
	rulesPending        *prometheus.Desc
	commandsExecuted    *prometheus.Desc
	commandsFailed      *prometheus.Desc
	discoverySent       *prometheus.Desc
}

func newSourceCollector(src *Server) *sourceCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &sourceCollector{
		src:                 src,
		brokerConnected:     desc("broker_connected", "1 when the broker connection is up."),
		linkConnected:       desc("link_connected", "1 when the interface link is up.", "interface"),
		linkAddress:         desc("link_address_acquired", "1 when the interface has an address.", "interface"),
		linkServices:        desc("link_services_initialized", "1 when network services are initialized.", "interface"),
		linkStable:          desc("link_stable", "1 when the link is considered stable.", "interface"),
		linkConnectAttempts: desc("link_connect_attempts", "Connect attempts since the last successful connect.", "interface"),
		platformBegins:      desc("platform_begins_total", "Connection attempts started by the tracker.", "interface"),
		platformRoutes:      desc("platform_route_requests_total", "Default route requests.", "interface"),
		platformIPv6:        desc("platform_ipv6_requests_total", "IPv6 enable requests.", "interface"),
		bridgeReceived:      desc("bridge_messages_received_total", "Inbound broker messages."),
		bridgeHandled:       desc("bridge_messages_handled_total", "Inbound messages routed to a command or event."),
		bridgeIgnored:       desc("bridge_messages_ignored_total", "Inbound messages with an unresolved topic."),
		bridgePublished:     desc("bridge_published_total", "Messages accepted by the broker."),
		bridgeFailed:        desc("bridge_publish_failures_total", "Messages the broker did not accept."),
		bridgeAnnouncements: desc("bridge_announcements_total", "Discovery and state announcements."),
		rulesEnqueued:       desc("rules_events_enqueued_total", "Rule events queued."),
		rulesDuplicates:     desc("rules_events_duplicates_total", "Rule events dropped as duplicates of a pending event."),
		rulesDropped:        desc("rules_events_dropped_total", "Rule events dropped on a full queue."),
		rulesPending:        desc("rules_events_pending", "Rule events waiting to be handled."),
		commandsExecuted:    desc("commands_executed_total", "Commands executed."),
		commandsFailed:      desc("commands_failed_total", "Commands that failed."),
		discoverySent:       desc("discovery_messages_sent_total", "Discovery messages sent."),
	}
}

// Describe implements prometheus.Collector.
func (c *sourceCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.brokerConnected, c.linkConnected, c.linkAddress, c.linkServices, c.linkStable,
		c.linkConnectAttempts, c.platformBegins, c.platformRoutes, c.platformIPv6,
		c.bridgeReceived, c.bridgeHandled, c.bridgeIgnored, c.bridgePublished, c.bridgeFailed,
		c.bridgeAnnouncements, c.rulesEnqueued, c.rulesDuplicates, c.rulesDropped, c.rulesPending,
		c.commandsExecuted, c.commandsFailed, c.discoverySent,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *sourceCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	if s.broker != nil {
		gauge(c.brokerConnected, boolValue(s.broker.IsConnected()))
	}

	for _, t := range s.trackers {
		snap := t.Snapshot()
		gauge(c.linkConnected, boolValue(snap.Status.Connected()), snap.Interface)
		gauge(c.linkAddress, boolValue(snap.Status.AddressAcquired()), snap.Interface)
		gauge(c.linkServices, boolValue(snap.Status.ServicesInitialized()), snap.Interface)
		gauge(c.linkStable, boolValue(snap.ConsideredStable), snap.Interface)
		gauge(c.linkConnectAttempts, float64(snap.ConnectAttempts), snap.Interface)
	}

	for name, p := range s.platforms {
		if p == nil {
			continue
		}
		st := p.Stats()
		counter(c.platformBegins, st.Begins, name)
		counter(c.platformRoutes, st.RouteRequests, name)
		counter(c.platformIPv6, st.IPv6Requests, name)
	}

	if s.bridge != nil {
		st := s.bridge.Stats()
		counter(c.bridgeReceived, st.Received)
		counter(c.bridgeHandled, st.Handled)
		counter(c.bridgeIgnored, st.Ignored)
		counter(c.bridgePublished, st.Published)
		counter(c.bridgeFailed, st.PublishFailed)
		counter(c.bridgeAnnouncements, st.Announcements)
	}

	if s.queue != nil {
		st := s.queue.Stats()
		counter(c.rulesEnqueued, st.Enqueued)
		counter(c.rulesDuplicates, st.Duplicates)
		counter(c.rulesDropped, st.Dropped)
		gauge(c.rulesPending, float64(st.Pending))
	}

	if s.executor != nil {
		st := s.executor.Stats()
		counter(c.commandsExecuted, st.Executed)
		counter(c.commandsFailed, st.Failed)
	}

	if s.discovery != nil {
		counter(c.discoverySent, s.discovery.Sent())
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
