//go:build linux

package link

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// DefaultSource returns the rtnetlink-backed source.
func DefaultSource() Source {
	return NetlinkSource{}
}

// NetlinkSource reads interfaces over rtnetlink and subscribes to the
// kernel's link and address multicast groups. Neither needs privileges.
type NetlinkSource struct{}

// Lookup implements Source.
func (NetlinkSource) Lookup(name string) (State, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		return State{}, fmt.Errorf("%w: %s: %w", ErrInterfaceNotFound, name, err)
	}
	addrs, err := netlink.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return State{}, fmt.Errorf("listing addresses of %s: %w", name, err)
	}
	return stateFromLink(l.Attrs(), addrs), nil
}

// Subscribe implements Subscriber.
func (NetlinkSource) Subscribe(ctx context.Context, name string) (<-chan struct{}, error) {
	done := make(chan struct{})
	links := make(chan netlink.LinkUpdate, 16)
	addrs := make(chan netlink.AddrUpdate, 16)

	if err := netlink.LinkSubscribe(links, done); err != nil {
		close(done)
		return nil, fmt.Errorf("subscribing to link updates: %w", err)
	}
	if err := netlink.AddrSubscribe(addrs, done); err != nil {
		close(done)
		drain(links)
		return nil, fmt.Errorf("subscribing to address updates: %w", err)
	}

	// Address updates carry only the link index. It is refreshed from link
	// updates in case the interface is recreated.
	index := 0
	if l, err := netlink.LinkByName(name); err == nil {
		index = l.Attrs().Index
	}

	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(out)
		defer func() {
			close(done)
			drain(links)
			drain(addrs)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-links:
				if !ok {
					return
				}
				if a := u.Attrs(); a != nil && a.Name == name {
					index = a.Index
					notify()
				}
			case u, ok := <-addrs:
				if !ok {
					return
				}
				if index != 0 && u.LinkIndex == index {
					notify()
				}
			}
		}
	}()

	return out, nil
}

// drain empties ch in the background until netlink closes it.
func drain[T any](ch chan T) {
	go func() {
		for range ch {
		}
	}()
}

// stateFromLink converts netlink attributes. Interfaces reporting an
// unknown operational state (loopback, tunnels) count as up when
// administratively up.
func stateFromLink(attrs *netlink.LinkAttrs, addrs []netlink.Addr) State {
	if attrs == nil {
		return State{}
	}
	oper := attrs.OperState == netlink.OperUp || attrs.OperState == netlink.OperUnknown
	st := State{Up: attrs.Flags&net.FlagUp != 0 && oper}

	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		if addr, ok := netip.AddrFromSlice(a.IP); ok {
			st.Addrs = append(st.Addrs, addr.Unmap())
		}
	}
	return st
}
