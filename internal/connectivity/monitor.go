package connectivity

import (
	"context"
	"sync"
	"time"
)

// Monitor defaults.
const (
	// DefaultPollInterval is how often pending events are consumed.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultStableAfter is how long a connection must last to count as stable.
	DefaultStableAfter = 60 * time.Second
)

// Logger defines the logging interface used by the Monitor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MonitorConfig holds configuration for a Monitor.
type MonitorConfig struct {
	// Interval between ticks. Default: DefaultPollInterval.
	Interval time.Duration

	// StableAfter is the uptime after which the link is considered stable.
	// Default: DefaultStableAfter.
	StableAfter time.Duration
}

// Monitor is the poll loop consuming tracker events.
//
// Each tick it processes pending notifications, attempts the services
// transition and starts a reconnect when allowed. Subscribers registered with
// OnStateChange are called whenever the status bits change.
type Monitor struct {
	tracker     *Tracker
	interval    time.Duration
	stableAfter time.Duration
	now         func() time.Time

	handlersMu sync.RWMutex
	handlers   []func(Snapshot)

	logger Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewMonitor creates a monitor for the tracker. Call Start to run it.
func NewMonitor(tracker *Tracker, cfg MonitorConfig) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	stableAfter := cfg.StableAfter
	if stableAfter <= 0 {
		stableAfter = DefaultStableAfter
	}

	return &Monitor{
		tracker:     tracker,
		interval:    interval,
		stableAfter: stableAfter,
		now:         tracker.now,
		logger:      noopLogger{},
		done:        make(chan struct{}),
	}
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Tracker returns the monitored tracker.
func (m *Monitor) Tracker() *Tracker {
	return m.tracker
}

// OnStateChange registers a callback for status changes.
// Callbacks run on the monitor goroutine and should return quickly.
func (m *Monitor) OnStateChange(fn func(Snapshot)) {
	m.handlersMu.Lock()
	m.handlers = append(m.handlers, fn)
	m.handlersMu.Unlock()
}

// Start runs the poll loop until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.loop(ctx)
}

// Stop halts the poll loop. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.step()
		}
	}
}

// step runs one poll iteration.
func (m *Monitor) step() {
	t := m.tracker
	before := t.Snapshot()
	iface := before.Interface

	if before.Pending.Disconnect {
		t.ProcessDisconnected()
		m.logger.Info("link down",
			"interface", iface,
			"connected_for", t.LastConnectedDuration().String())
	}

	pending := t.Snapshot().Pending

	if pending.Connect {
		t.ProcessConnected()
		m.logger.Info("link up", "interface", iface)
	}

	if pending.AddressAcquired {
		if t.Snapshot().LastAddressAcquired.IsZero() {
			t.ProcessAddressLost()
			m.logger.Warn("address lost", "interface", iface)
		} else {
			t.ProcessAddressAcquired()
			m.logger.Info("address acquired", "interface", iface)
		}
	}

	if pending.AddressAcquiredV6 {
		if addr, ok := t.ProcessAddressAcquiredV6(); ok {
			m.logger.Info("IPv6 address acquired", "interface", iface, "address", addr.String())
		}
	}

	if pending.AddressTimeout {
		t.ProcessAddressTimeout()
		m.logger.Warn("address acquisition timed out", "interface", iface)
	}

	if t.TrySetServicesInitialized() {
		ns0, ns1 := t.Nameservers()
		m.logger.Info("services initialised",
			"interface", iface,
			"dns0", ns0.String(),
			"dns1", ns1.String())
	}

	after := t.Snapshot()

	if after.Status.Disconnected() && !after.Pending.Any() && t.ConnectAllowed() {
		m.logger.Debug("starting connect attempt",
			"interface", iface,
			"attempt", after.ConnectAttempts+1)
		t.MarkBegin()
		after = t.Snapshot()
	}

	if after.Status.ServicesInitialized() && !after.ConsideredStable &&
		!after.LastConnect.IsZero() && m.now().Sub(after.LastConnect) >= m.stableAfter {
		t.SetConsideredStable()
		m.logger.Info("link considered stable", "interface", iface)
		after = t.Snapshot()
	}

	if after.Status != before.Status || after.ConsideredStable != before.ConsideredStable {
		m.notify(after)
	}
}

func (m *Monitor) notify(s Snapshot) {
	m.handlersMu.RLock()
	handlers := make([]func(Snapshot), len(m.handlers))
	copy(handlers, m.handlers)
	m.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(s)
	}
}
