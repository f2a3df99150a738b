package connectivity

import (
	"net/netip"
	"sync"
	"time"
)

// DefaultConnectCooldown is the minimum time between two connect attempts.
const DefaultConnectCooldown = 10 * time.Second

// Platform is the link driver side of the tracker.
//
// Calls are made after the tracker lock is released and must not block.
type Platform interface {
	// Begin asks the driver to start physical association.
	Begin()

	// SetDefaultRoute asks the platform to prefer this interface.
	SetDefaultRoute()

	// EnableIPv6 enables IPv6 on the interface (dual-stack only).
	EnableIPv6()

	// Nameservers returns the currently configured DNS servers.
	// Unset entries are returned as the zero netip.Addr.
	Nameservers() (netip.Addr, netip.Addr)
}

// TrackerOptions holds configuration for creating a Tracker.
type TrackerOptions struct {
	// Interface is the monitored interface name, used in logs and diagnostics.
	Interface string

	// Platform receives begin/default-route requests. Optional.
	Platform Platform

	// DualStack enables tracking of secondary (IPv6) addresses.
	DualStack bool

	// ConnectCooldown throttles reconnects. Default: DefaultConnectCooldown.
	ConnectCooldown time.Duration

	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

// Tracker owns the connectivity state of one interface.
//
// The zero value is not usable; create with NewTracker.
type Tracker struct {
	iface     string
	platform  Platform
	dualStack bool
	cooldown  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	status Status

	lastDisconnect      time.Time
	lastConnect         time.Time
	lastAddressAcquired time.Time
	lastConnectAttempt  time.Time
	lastReset           time.Time

	lastConnectedDuration time.Duration
	connectAttempts       uint32

	connectInProgress    bool
	connectAttemptNeeded bool
	consideredStable     bool

	processedConnect           bool
	processedDisconnect        bool
	processedAddressAcquired   bool
	processedAddressAcquiredV6 bool
	processedAddressTimeout    bool

	pendingV6   netip.Addr
	nameserver0 netip.Addr
	nameserver1 netip.Addr
}

// NewTracker creates a tracker in the pristine, disconnected state.
func NewTracker(opts TrackerOptions) *Tracker {
	cooldown := opts.ConnectCooldown
	if cooldown <= 0 {
		cooldown = DefaultConnectCooldown
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	t := &Tracker{
		iface:     opts.Interface,
		platform:  opts.Platform,
		dualStack: opts.DualStack,
		cooldown:  cooldown,
		now:       now,
	}
	t.ClearAll()
	return t
}

// Interface returns the monitored interface name.
func (t *Tracker) Interface() string {
	return t.iface
}

// =============================================================================
// Driver side
// =============================================================================

// MarkBegin records the start of a connect attempt and asks the driver to
// begin association.
func (t *Tracker) MarkBegin() {
	t.mu.Lock()
	t.lastDisconnect = time.Time{}
	t.lastConnect = time.Time{}
	t.lastAddressAcquired = time.Time{}
	t.lastConnectAttempt = t.now()
	t.consideredStable = false
	t.connectInProgress = true
	t.connectAttempts++
	t.mu.Unlock()

	if t.platform != nil {
		t.platform.Begin()
	}
}

// ConnectAllowed reports whether a new connect attempt may start now.
// It returns false when no attempt is needed or when the previous attempt is
// more recent than the cooldown.
func (t *Tracker) ConnectAllowed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connectAttemptNeeded {
		return false
	}
	if !t.lastConnectAttempt.IsZero() && t.now().Sub(t.lastConnectAttempt) < t.cooldown {
		return false
	}
	return true
}

// MarkConnected records a link-up notification.
func (t *Tracker) MarkConnected() {
	t.mu.Lock()
	t.lastConnect = t.now()
	t.processedConnect = false
	t.mu.Unlock()

	if t.platform != nil {
		t.platform.SetDefaultRoute()
		if t.dualStack {
			t.platform.EnableIPv6()
		}
	}
}

// MarkDisconnected records a link-down notification.
//
// The connected duration is measured from the last successful connect, or from
// the last attempt if the attempt never succeeded.
func (t *Tracker) MarkDisconnected() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.lastDisconnect = now

	switch {
	case !t.lastConnectAttempt.IsZero() && t.lastConnect.IsZero():
		// Unsuccessful attempt
		t.lastConnectedDuration = now.Sub(t.lastConnectAttempt)
	case !t.lastConnect.IsZero():
		t.lastConnectedDuration = now.Sub(t.lastConnect)
	default:
		t.lastConnectedDuration = 0
	}
	t.lastConnect = time.Time{}
	t.processedDisconnect = false
}

// MarkAddressAcquired records an address-acquired notification.
// A new address means services must re-initialise, so both the address and the
// services bits are cleared until the event is processed.
func (t *Tracker) MarkAddressAcquired() {
	t.mu.Lock()
	t.lastAddressAcquired = t.now()
	t.status.clear(bitAddressAcquired)
	t.status.clear(bitServicesInitialized)
	t.processedAddressAcquired = false
	t.mu.Unlock()
}

// MarkAddressAcquiredV6 records a secondary (IPv6) address notification.
// Ignored unless the tracker was created with DualStack.
func (t *Tracker) MarkAddressAcquiredV6(addr netip.Addr) {
	if !t.dualStack {
		return
	}
	t.mu.Lock()
	t.processedAddressAcquiredV6 = false
	t.pendingV6 = addr
	t.mu.Unlock()
}

// MarkAddressLost records an address-lost notification.
func (t *Tracker) MarkAddressLost() {
	t.mu.Lock()
	t.status.clear(bitAddressAcquired)
	t.status.clear(bitServicesInitialized)
	t.lastAddressAcquired = time.Time{}
	t.processedAddressAcquired = false
	t.mu.Unlock()
}

// MarkAddressTimeout records that address acquisition (DHCP) timed out.
func (t *Tracker) MarkAddressTimeout() {
	t.mu.Lock()
	t.processedAddressTimeout = false
	t.mu.Unlock()
}

// =============================================================================
// Poll-loop side
// =============================================================================

// UnprocessedEvents reports whether any notification is still pending.
func (t *Tracker) UnprocessedEvents() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unprocessedLocked()
}

func (t *Tracker) unprocessedLocked() bool {
	all := t.processedConnect &&
		t.processedDisconnect &&
		t.processedAddressAcquired &&
		t.processedAddressTimeout
	if t.dualStack {
		all = all && t.processedAddressAcquiredV6
	}
	return !all
}

// ProcessConnected consumes a pending link-up event.
func (t *Tracker) ProcessConnected() bool {
	t.mu.Lock()
	t.processedConnect = true
	t.connectAttemptNeeded = false
	t.status.set(bitConnected)
	t.mu.Unlock()

	return t.TrySetServicesInitialized()
}

// ProcessAddressAcquired consumes a pending address-acquired event.
func (t *Tracker) ProcessAddressAcquired() bool {
	t.mu.Lock()
	t.processedAddressAcquired = true
	t.status.set(bitAddressAcquired)
	t.mu.Unlock()

	return t.TrySetServicesInitialized()
}

// ProcessAddressLost consumes a pending address-lost event.
// The status bits were already cleared by MarkAddressLost.
func (t *Tracker) ProcessAddressLost() {
	t.mu.Lock()
	t.processedAddressAcquired = true
	t.mu.Unlock()
}

// ProcessAddressAcquiredV6 consumes a pending secondary address and returns it.
func (t *Tracker) ProcessAddressAcquiredV6() (netip.Addr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.processedAddressAcquiredV6 {
		return netip.Addr{}, false
	}
	t.processedAddressAcquiredV6 = true
	addr := t.pendingV6
	t.pendingV6 = netip.Addr{}
	return addr, addr.IsValid()
}

// ProcessAddressTimeout consumes a pending address timeout event.
func (t *Tracker) ProcessAddressTimeout() {
	t.mu.Lock()
	t.processedAddressTimeout = true
	t.mu.Unlock()
}

// ProcessDisconnected consumes a pending link-down event and resets the
// status to disconnected. Every pending event is dropped, except a link-up
// that was observed after the link-down.
func (t *Tracker) ProcessDisconnected() {
	t.mu.Lock()
	defer t.mu.Unlock()

	reconnected := !t.processedConnect && !t.lastConnect.IsZero()

	t.processedConnect = !reconnected
	t.processedDisconnect = true
	t.processedAddressAcquired = true
	t.processedAddressAcquiredV6 = true
	t.processedAddressTimeout = true
	t.pendingV6 = netip.Addr{}

	t.status.reset()
	t.connectAttemptNeeded = true
	t.consideredStable = false
}

// TrySetServicesInitialized performs the single "fully up" transition.
//
// It succeeds only if no event is pending, services are not yet initialised
// and both the connected and address bits are set. Repeated calls without new
// events return false.
func (t *Tracker) TrySetServicesInitialized() bool {
	t.mu.Lock()
	ready := t.readyLocked()
	t.mu.Unlock()
	if !ready {
		return false
	}

	var ns0, ns1 netip.Addr
	if t.platform != nil {
		ns0, ns1 = t.platform.Nameservers()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// State may have moved while the platform was queried.
	if !t.readyLocked() {
		return false
	}
	if validNameserver(ns0) {
		t.nameserver0 = ns0
	}
	if validNameserver(ns1) {
		t.nameserver1 = ns1
	}
	t.status.set(bitServicesInitialized)
	t.connectInProgress = false
	return true
}

func (t *Tracker) readyLocked() bool {
	return !t.unprocessedLocked() &&
		!t.status.ServicesInitialized() &&
		t.status.Connected() &&
		t.status.AddressAcquired()
}

// ClearAll resets the tracker to the pristine, disconnected baseline.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.reset()
	t.lastDisconnect = time.Time{}
	t.lastConnect = time.Time{}
	t.lastAddressAcquired = time.Time{}
	t.lastConnectAttempt = time.Time{}
	t.lastReset = t.now()
	t.lastConnectedDuration = 0

	t.connectInProgress = false
	t.connectAttemptNeeded = true
	t.consideredStable = false

	t.processedConnect = true
	t.processedDisconnect = true
	t.processedAddressAcquired = true
	t.processedAddressAcquiredV6 = true
	t.processedAddressTimeout = true

	t.pendingV6 = netip.Addr{}
	t.nameserver0 = netip.Addr{}
	t.nameserver1 = netip.Addr{}
}

// =============================================================================
// Accessors
// =============================================================================

// Status returns the current status bits.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// String renders the status for diagnostics.
func (t *Tracker) String() string {
	return t.Status().String()
}

// ConnectAttempts returns the number of connect attempts since boot.
func (t *Tracker) ConnectAttempts() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectAttempts
}

// LastConnectedDuration returns how long the previous connection lasted.
func (t *Tracker) LastConnectedDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastConnectedDuration
}

// ConsideredStable reports whether the link has been up long enough.
func (t *Tracker) ConsideredStable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consideredStable
}

// SetConsideredStable marks the current connection as stable.
func (t *Tracker) SetConsideredStable() {
	t.mu.Lock()
	t.consideredStable = true
	t.mu.Unlock()
}

// SetConnectAttemptNeeded enables or disables reconnect attempts.
func (t *Tracker) SetConnectAttemptNeeded(needed bool) {
	t.mu.Lock()
	t.connectAttemptNeeded = needed
	t.mu.Unlock()
}

// Nameservers returns the DNS servers cached at the last services init.
func (t *Tracker) Nameservers() (netip.Addr, netip.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nameserver0, t.nameserver1
}

// Pending lists the notifications not yet consumed by the poll loop.
type Pending struct {
	Connect           bool
	Disconnect        bool
	AddressAcquired   bool
	AddressAcquiredV6 bool
	AddressTimeout    bool
}

// Any reports whether any notification is pending.
func (p Pending) Any() bool {
	return p.Connect || p.Disconnect || p.AddressAcquired || p.AddressAcquiredV6 || p.AddressTimeout
}

// Snapshot is a copy of the observable tracker state.
type Snapshot struct {
	Interface             string
	Status                Status
	Pending               Pending
	LastConnect           time.Time
	LastDisconnect        time.Time
	LastAddressAcquired   time.Time
	LastConnectAttempt    time.Time
	LastReset             time.Time
	LastConnectedDuration time.Duration
	ConnectAttempts       uint32
	ConnectInProgress     bool
	ConsideredStable      bool
	Nameserver0           netip.Addr
	Nameserver1           netip.Addr
}

// Snapshot returns a consistent copy of the tracker state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Interface: t.iface,
		Status:    t.status,
		Pending: Pending{
			Connect:           !t.processedConnect,
			Disconnect:        !t.processedDisconnect,
			AddressAcquired:   !t.processedAddressAcquired,
			AddressAcquiredV6: t.dualStack && !t.processedAddressAcquiredV6,
			AddressTimeout:    !t.processedAddressTimeout,
		},
		LastConnect:           t.lastConnect,
		LastDisconnect:        t.lastDisconnect,
		LastAddressAcquired:   t.lastAddressAcquired,
		LastConnectAttempt:    t.lastConnectAttempt,
		LastReset:             t.lastReset,
		LastConnectedDuration: t.lastConnectedDuration,
		ConnectAttempts:       t.connectAttempts,
		ConnectInProgress:     t.connectInProgress,
		ConsideredStable:      t.consideredStable,
		Nameserver0:           t.nameserver0,
		Nameserver1:           t.nameserver1,
	}
}

// validNameserver rejects unset, unspecified and broadcast addresses.
func validNameserver(a netip.Addr) bool {
	if !a.IsValid() || a.IsUnspecified() {
		return false
	}
	if a.Is4() && a == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return false
	}
	return true
}
