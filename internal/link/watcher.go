package link

import (
	"context"
	"net/netip"
	"sync"
	"time"
)

// Watcher defaults.
const (
	// DefaultWatchInterval is how often the interface is sampled.
	DefaultWatchInterval = time.Second

	// DefaultAddressTimeout is how long a link may stay up without an IPv4
	// address before an address timeout is reported.
	DefaultAddressTimeout = 30 * time.Second
)

// Notifier receives link notifications. *connectivity.Tracker implements it.
type Notifier interface {
	MarkConnected()
	MarkDisconnected()
	MarkAddressAcquired()
	MarkAddressAcquiredV6(addr netip.Addr)
	MarkAddressLost()
	MarkAddressTimeout()
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Interface string

	// Source samples the interface. Default: DefaultSource(). A Source that
	// is also a Subscriber is sampled on every reported change in addition
	// to the interval.
	Source Source

	// Interval between samples. Default: DefaultWatchInterval.
	Interval time.Duration

	// AddressTimeout. Default: DefaultAddressTimeout.
	AddressTimeout time.Duration

	// Kicks triggers an immediate resync, typically Platform.Kicks(). Optional.
	Kicks <-chan struct{}

	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

// Watcher samples an interface and reports edges to a Notifier.
//
// With a Subscriber source the interface is sampled as soon as the kernel
// reports a change; the interval sample still runs so address timeouts fire.
// If the subscription fails or ends the watcher keeps polling.
//
// Only changes are reported: link up/down, IPv4 address gained/lost, a new
// global IPv6 address, and one address timeout per link-up. A kick forgets the
// previous sample so the current state is reported again as fresh edges.
type Watcher struct {
	iface          string
	source         Source
	notifier       Notifier
	interval       time.Duration
	addressTimeout time.Duration
	kicks          <-chan struct{}
	now            func() time.Time
	logger         Logger

	// Previous sample; owned by the watch goroutine.
	up              bool
	v4              bool
	v6              netip.Addr
	upSince         time.Time
	timeoutReported bool
	lookupFailing   bool

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher reporting to n. Call Start to run it.
func NewWatcher(n Notifier, cfg WatcherConfig) *Watcher {
	src := cfg.Source
	if src == nil {
		src = DefaultSource()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	timeout := cfg.AddressTimeout
	if timeout <= 0 {
		timeout = DefaultAddressTimeout
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Watcher{
		iface:          cfg.Interface,
		source:         src,
		notifier:       n,
		interval:       interval,
		addressTimeout: timeout,
		kicks:          cfg.Kicks,
		now:            now,
		logger:         noopLogger{},
		done:           make(chan struct{}),
	}
}

// SetLogger sets the logger for the watcher.
func (w *Watcher) SetLogger(logger Logger) {
	w.logger = logger
}

// Start samples once and then runs the watch loop until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop halts the watch loop. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	changes := w.subscribe(subCtx)

	w.sample()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("link event subscription ended, polling", "interface", w.iface)
				changes = nil
				continue
			}
			w.sample()
		case <-ticker.C:
			w.sample()
		case <-w.kicks:
			w.resync()
		}
	}
}

// subscribe returns the change channel of a Subscriber source, or nil when
// the watcher has to poll.
func (w *Watcher) subscribe(ctx context.Context) <-chan struct{} {
	sub, ok := w.source.(Subscriber)
	if !ok {
		return nil
	}
	changes, err := sub.Subscribe(ctx, w.iface)
	if err != nil {
		w.logger.Warn("link event subscription failed, polling", "interface", w.iface, "error", err)
		return nil
	}
	w.logger.Debug("link events subscribed", "interface", w.iface)
	return changes
}

// resync forgets the previous sample and samples again.
func (w *Watcher) resync() {
	w.up = false
	w.v4 = false
	w.v6 = netip.Addr{}
	w.sample()
}

// sample reads the interface once and reports edges.
func (w *Watcher) sample() {
	st, err := w.source.Lookup(w.iface)
	if err != nil {
		if !w.lookupFailing {
			w.logger.Warn("interface lookup failed", "interface", w.iface, "error", err)
		}
		w.lookupFailing = true
		st = State{}
	} else {
		w.lookupFailing = false
	}

	if !st.Up {
		if w.up {
			w.notifier.MarkDisconnected()
			w.logger.Debug("link down observed", "interface", w.iface)
		}
		w.up = false
		w.v4 = false
		w.v6 = netip.Addr{}
		return
	}

	if !w.up {
		w.notifier.MarkConnected()
		w.up = true
		w.upSince = w.now()
		w.timeoutReported = false
		w.logger.Debug("link up observed", "interface", w.iface)
	}

	v4 := st.IPv4()
	switch {
	case v4 && !w.v4:
		w.notifier.MarkAddressAcquired()
	case !v4 && w.v4:
		w.notifier.MarkAddressLost()
		w.upSince = w.now()
		w.timeoutReported = false
	}
	w.v4 = v4

	if addr, ok := st.GlobalIPv6(); ok {
		if addr != w.v6 {
			w.notifier.MarkAddressAcquiredV6(addr)
		}
		w.v6 = addr
	} else {
		w.v6 = netip.Addr{}
	}

	if !v4 && !w.timeoutReported && w.now().Sub(w.upSince) >= w.addressTimeout {
		w.notifier.MarkAddressTimeout()
		w.timeoutReported = true
	}
}
