package connectivity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshotRecorder struct {
	mu    sync.Mutex
	items []Snapshot
}

func (r *snapshotRecorder) record(s Snapshot) {
	r.mu.Lock()
	r.items = append(r.items, s)
	r.mu.Unlock()
}

func (r *snapshotRecorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.items))
	copy(out, r.items)
	return out
}

func (r *snapshotRecorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[len(r.items)-1]
}

func TestMonitor_Defaults(t *testing.T) {
	tr, _, _ := newTestTracker(false)
	m := NewMonitor(tr, MonitorConfig{})

	assert.Equal(t, DefaultPollInterval, m.interval)
	assert.Equal(t, DefaultStableAfter, m.stableAfter)
	assert.Same(t, tr, m.Tracker())
}

func TestMonitor_StepLifecycle(t *testing.T) {
	tr, clock, platform := newTestTracker(false)
	m := NewMonitor(tr, MonitorConfig{StableAfter: time.Minute})
	rec := &snapshotRecorder{}
	m.OnStateChange(rec.record)

	// Fresh tracker: first tick starts a connect attempt.
	m.step()
	assert.Equal(t, 1, platform.Begins())
	assert.Empty(t, rec.all(), "no status change yet")

	// Driver reports link and address.
	tr.MarkConnected()
	tr.MarkAddressAcquired()
	m.step()

	require.NotEmpty(t, rec.all())
	s := rec.last()
	assert.Equal(t, "Conn. IP Init", s.Status.String())
	assert.False(t, s.ConsideredStable)
	assert.False(t, s.ConnectInProgress)

	// Nothing changes on an idle tick.
	n := len(rec.all())
	m.step()
	assert.Len(t, rec.all(), n)

	// Stable after the configured uptime.
	clock.Advance(time.Minute)
	m.step()
	assert.True(t, rec.last().ConsideredStable)
	assert.True(t, tr.ConsideredStable())

	// Link drops: status resets and a new attempt starts (cooldown elapsed).
	tr.MarkDisconnected()
	m.step()
	assert.True(t, rec.last().Status.Disconnected())
	assert.False(t, rec.last().ConsideredStable)
	assert.Equal(t, 2, platform.Begins())
	assert.Equal(t, uint32(2), tr.ConnectAttempts())
}

func TestMonitor_StepAddressLost(t *testing.T) {
	tr, _, _ := newTestTracker(false)
	m := NewMonitor(tr, MonitorConfig{})

	tr.MarkConnected()
	tr.MarkAddressAcquired()
	m.step()
	require.True(t, tr.Status().ServicesInitialized())

	tr.MarkAddressLost()
	m.step()

	assert.Equal(t, "Conn.", tr.String())
	assert.False(t, tr.UnprocessedEvents())
}

func TestMonitor_StepRespectsCooldown(t *testing.T) {
	tr, clock, platform := newTestTracker(false)
	m := NewMonitor(tr, MonitorConfig{})

	m.step()
	require.Equal(t, 1, platform.Begins())

	// The attempt fails silently; no new attempt inside the cooldown.
	clock.Advance(5 * time.Second)
	m.step()
	assert.Equal(t, 1, platform.Begins())

	clock.Advance(5 * time.Second)
	m.step()
	assert.Equal(t, 2, platform.Begins())
}

func TestMonitor_StartStop(t *testing.T) {
	tr, _, _ := newTestTracker(false)
	m := NewMonitor(tr, MonitorConfig{Interval: 5 * time.Millisecond})

	changed := make(chan Snapshot, 16)
	m.OnStateChange(func(s Snapshot) {
		select {
		case changed <- s:
		default:
		}
	})

	m.Start(context.Background())
	defer m.Stop()

	tr.MarkConnected()
	tr.MarkAddressAcquired()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-changed:
			if s.Status.ServicesInitialized() {
				m.Stop()
				m.Stop() // idempotent
				return
			}
		case <-deadline:
			t.Fatal("monitor did not initialise services")
		}
	}
}

func TestMonitor_ContextCancelStopsLoop(t *testing.T) {
	tr, _, _ := newTestTracker(false)
	m := NewMonitor(tr, MonitorConfig{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after context cancellation")
	}
}
