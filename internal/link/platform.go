package link

import (
	"net/netip"
	"strings"
	"sync/atomic"

	"github.com/miekg/dns"
)

// DefaultResolvConf is the resolver configuration read for nameservers.
const DefaultResolvConf = "/etc/resolv.conf"

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Platform is the host side of a tracked interface.
//
// It implements connectivity.Platform. Association is owned by the operating
// system, so Begin only asks the Watcher for an immediate re-sample; route and
// IPv6 requests are recorded and logged for the operator.
type Platform struct {
	iface      string
	resolvConf string
	logger     Logger

	kick chan struct{}

	begins        atomic.Uint64
	routeRequests atomic.Uint64
	ipv6Requests  atomic.Uint64
}

// PlatformConfig configures a Platform.
type PlatformConfig struct {
	Interface string

	// ResolvConf is the resolver file. Default: DefaultResolvConf.
	ResolvConf string
}

// NewPlatform creates a platform for one interface.
func NewPlatform(cfg PlatformConfig) *Platform {
	resolv := cfg.ResolvConf
	if resolv == "" {
		resolv = DefaultResolvConf
	}
	return &Platform{
		iface:      cfg.Interface,
		resolvConf: resolv,
		logger:     noopLogger{},
		kick:       make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the platform.
func (p *Platform) SetLogger(logger Logger) {
	p.logger = logger
}

// Begin requests an immediate interface re-sample. Never blocks.
func (p *Platform) Begin() {
	p.begins.Add(1)
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// SetDefaultRoute records a default-route preference request.
func (p *Platform) SetDefaultRoute() {
	p.routeRequests.Add(1)
	p.logger.Debug("default route requested", "interface", p.iface)
}

// EnableIPv6 records an IPv6 enable request.
func (p *Platform) EnableIPv6() {
	p.ipv6Requests.Add(1)
	p.logger.Debug("IPv6 requested", "interface", p.iface)
}

// Nameservers returns the first two nameservers of the resolver file.
// Missing or unparsable entries are the zero netip.Addr.
func (p *Platform) Nameservers() (netip.Addr, netip.Addr) {
	cfg, err := dns.ClientConfigFromFile(p.resolvConf)
	if err != nil {
		p.logger.Warn("reading nameservers failed", "file", p.resolvConf, "error", err)
		return netip.Addr{}, netip.Addr{}
	}

	var found []netip.Addr
	for _, s := range cfg.Servers {
		addr, err := netip.ParseAddr(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		found = append(found, addr)
		if len(found) == 2 {
			break
		}
	}

	var ns0, ns1 netip.Addr
	if len(found) > 0 {
		ns0 = found[0]
	}
	if len(found) > 1 {
		ns1 = found[1]
	}
	return ns0, ns1
}

// Kicks delivers a value after each Begin, coalescing bursts.
func (p *Platform) Kicks() <-chan struct{} {
	return p.kick
}

// PlatformStats counts requests received from the tracker.
type PlatformStats struct {
	Begins        uint64
	RouteRequests uint64
	IPv6Requests  uint64
}

// Stats returns the request counters.
func (p *Platform) Stats() PlatformStats {
	return PlatformStats{
		Begins:        p.begins.Load(),
		RouteRequests: p.routeRequests.Load(),
		IPv6Requests:  p.ipv6Requests.Load(),
	}
}
