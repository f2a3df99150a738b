package diag

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-node/internal/connectivity"
)

// Health status values.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status          string            `json:"status"`
	Node            string            `json:"node"`
	Version         string            `json:"version"`
	UptimeSeconds   int64             `json:"uptime_seconds"`
	BrokerConnected *bool             `json:"broker_connected,omitempty"`
	Interfaces      map[string]string `json:"interfaces,omitempty"`
}

// InterfaceView is the JSON form of a tracker snapshot.
type InterfaceView struct {
	Interface            string        `json:"interface"`
	Status               string        `json:"status"`
	Connected            bool          `json:"connected"`
	AddressAcquired      bool          `json:"address_acquired"`
	ServicesInitialized  bool          `json:"services_initialized"`
	Stable               bool          `json:"stable"`
	ConnectInProgress    bool          `json:"connect_in_progress"`
	ConnectAttempts      uint32        `json:"connect_attempts"`
	LastConnect          *time.Time    `json:"last_connect,omitempty"`
	LastDisconnect       *time.Time    `json:"last_disconnect,omitempty"`
	LastAddressAcquired  *time.Time    `json:"last_address_acquired,omitempty"`
	LastConnectedSeconds float64       `json:"last_connected_seconds"`
	Nameservers          []string      `json:"nameservers,omitempty"`
	Pending              PendingView   `json:"pending"`
	Platform             *PlatformView `json:"platform,omitempty"`
}

// PendingView lists unconsumed link notifications.
type PendingView struct {
	Connect           bool `json:"connect"`
	Disconnect        bool `json:"disconnect"`
	AddressAcquired   bool `json:"address_acquired"`
	AddressAcquiredV6 bool `json:"address_acquired_v6"`
	AddressTimeout    bool `json:"address_timeout"`
}

// PlatformView counts the tracker's platform requests.
type PlatformView struct {
	Begins        uint64 `json:"begins"`
	RouteRequests uint64 `json:"route_requests"`
	IPv6Requests  uint64 `json:"ipv6_requests"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Bridge        *BridgeView   `json:"bridge,omitempty"`
	Rules         *RulesView    `json:"rules,omitempty"`
	Commands      *CommandsView `json:"commands,omitempty"`
	DiscoverySent *uint64       `json:"discovery_sent,omitempty"`
}

// BridgeView holds the bridge counters.
type BridgeView struct {
	Received      uint64 `json:"received"`
	Handled       uint64 `json:"handled"`
	Ignored       uint64 `json:"ignored"`
	Published     uint64 `json:"published"`
	PublishFailed uint64 `json:"publish_failed"`
	Announcements uint64 `json:"announcements"`
}

// RulesView holds the rule queue counters.
type RulesView struct {
	Enqueued   uint64 `json:"enqueued"`
	Duplicates uint64 `json:"duplicates"`
	Dropped    uint64 `json:"dropped"`
	Pending    int    `json:"pending"`
}

// CommandsView holds the executor counters.
type CommandsView struct {
	Executed uint64 `json:"executed"`
	Failed   uint64 `json:"failed"`
}

// LogLevel is the body of the log level endpoints.
type LogLevel struct {
	Level string `json:"level"`
}

// handleHealth reports overall health. A disconnected broker or an
// interface without initialized services is reported as degraded with 503.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:        statusOK,
		Node:          s.node,
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if s.broker != nil {
		connected := s.broker.IsConnected()
		resp.BrokerConnected = &connected
		if !connected {
			resp.Status = statusDegraded
		}
	}

	if len(s.trackers) > 0 {
		resp.Interfaces = make(map[string]string, len(s.trackers))
		for _, t := range s.trackers {
			snap := t.Snapshot()
			resp.Interfaces[snap.Interface] = snap.Status.String()
			if !snap.Status.ServicesInitialized() {
				resp.Status = statusDegraded
			}
		}
	}

	code := http.StatusOK
	if resp.Status != statusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleListInterfaces(w http.ResponseWriter, _ *http.Request) {
	views := make([]InterfaceView, 0, len(s.trackers))
	for _, t := range s.trackers {
		views = append(views, s.interfaceView(t.Snapshot()))
	}
	writeJSON(w, http.StatusOK, map[string]any{"interfaces": views})
}

func (s *Server) handleGetInterface(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, t := range s.trackers {
		snap := t.Snapshot()
		if snap.Interface == name {
			writeJSON(w, http.StatusOK, s.interfaceView(snap))
			return
		}
	}
	writeNotFound(w, "interface not found: "+name)
}

func (s *Server) interfaceView(snap connectivity.Snapshot) InterfaceView {
	v := InterfaceView{
		Interface:            snap.Interface,
		Status:               snap.Status.String(),
		Connected:            snap.Status.Connected(),
		AddressAcquired:      snap.Status.AddressAcquired(),
		ServicesInitialized:  snap.Status.ServicesInitialized(),
		Stable:               snap.ConsideredStable,
		ConnectInProgress:    snap.ConnectInProgress,
		ConnectAttempts:      snap.ConnectAttempts,
		LastConnect:          optionalTime(snap.LastConnect),
		LastDisconnect:       optionalTime(snap.LastDisconnect),
		LastAddressAcquired:  optionalTime(snap.LastAddressAcquired),
		LastConnectedSeconds: snap.LastConnectedDuration.Seconds(),
		Pending: PendingView{
			Connect:           snap.Pending.Connect,
			Disconnect:        snap.Pending.Disconnect,
			AddressAcquired:   snap.Pending.AddressAcquired,
			AddressAcquiredV6: snap.Pending.AddressAcquiredV6,
			AddressTimeout:    snap.Pending.AddressTimeout,
		},
	}

	if snap.Nameserver0.IsValid() {
		v.Nameservers = append(v.Nameservers, snap.Nameserver0.String())
	}
	if snap.Nameserver1.IsValid() {
		v.Nameservers = append(v.Nameservers, snap.Nameserver1.String())
	}

	if p, ok := s.platforms[snap.Interface]; ok && p != nil {
		st := p.Stats()
		v.Platform = &PlatformView{
			Begins:        st.Begins,
			RouteRequests: st.RouteRequests,
			IPv6Requests:  st.IPv6Requests,
		}
	}
	return v
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var resp StatsResponse

	if s.bridge != nil {
		st := s.bridge.Stats()
		resp.Bridge = &BridgeView{
			Received:      st.Received,
			Handled:       st.Handled,
			Ignored:       st.Ignored,
			Published:     st.Published,
			PublishFailed: st.PublishFailed,
			Announcements: st.Announcements,
		}
	}
	if s.queue != nil {
		st := s.queue.Stats()
		resp.Rules = &RulesView{
			Enqueued:   st.Enqueued,
			Duplicates: st.Duplicates,
			Dropped:    st.Dropped,
			Pending:    st.Pending,
		}
	}
	if s.executor != nil {
		st := s.executor.Stats()
		resp.Commands = &CommandsView{Executed: st.Executed, Failed: st.Failed}
	}
	if s.discovery != nil {
		sent := s.discovery.Sent()
		resp.DiscoverySent = &sent
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LogLevel{Level: s.logger.Level()})
}

func (s *Server) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevel
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	level := strings.TrimSpace(req.Level)
	if err := s.logger.SetLevel(level); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	s.logger.Info("log level changed", "level", s.logger.Level())
	writeJSON(w, http.StatusOK, LogLevel{Level: s.logger.Level()})
}
