package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ErrInterfaceNotFound is returned by a Source for unknown interfaces.
var ErrInterfaceNotFound = errors.New("link: interface not found")

// State is one sample of an interface.
type State struct {
	// Up is true when the interface is administratively up and running.
	Up bool

	// Addrs are the interface's unicast addresses.
	Addrs []netip.Addr
}

// IPv4 reports whether the state carries a usable IPv4 address.
func (s State) IPv4() bool {
	for _, a := range s.Addrs {
		if a.Is4() && !a.IsLinkLocalUnicast() && !a.IsUnspecified() {
			return true
		}
	}
	return false
}

// GlobalIPv6 returns the first global unicast IPv6 address, if any.
func (s State) GlobalIPv6() (netip.Addr, bool) {
	for _, a := range s.Addrs {
		if a.Is6() && !a.Is4In6() && a.IsGlobalUnicast() {
			return a, true
		}
	}
	return netip.Addr{}, false
}

// Source samples interface state.
type Source interface {
	Lookup(name string) (State, error)
}

// Subscriber is a Source that also reports changes as they happen. The
// channel receives a value after any link or address change of the named
// interface and is closed when ctx ends or the subscription breaks.
type Subscriber interface {
	Source
	Subscribe(ctx context.Context, name string) (<-chan struct{}, error)
}

// SystemSource reads interface state through the portable net package. It
// cannot subscribe, so a watcher over it polls.
type SystemSource struct{}

// Lookup implements Source.
func (SystemSource) Lookup(name string) (State, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return State{}, fmt.Errorf("%w: %s: %w", ErrInterfaceNotFound, name, err)
	}

	st := State{Up: ifi.Flags&net.FlagUp != 0 && ifi.Flags&net.FlagRunning != 0}

	addrs, err := ifi.Addrs()
	if err != nil {
		return st, fmt.Errorf("reading addresses of %s: %w", name, err)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(ipnet.IP); ok {
			st.Addrs = append(st.Addrs, addr.Unmap())
		}
	}
	return st, nil
}
