package connectivity

import "strings"

// statusBit numbers the flags held in a Status.
type statusBit uint8

const (
	bitConnected statusBit = iota
	bitAddressAcquired
	bitServicesInitialized
)

// Status is the connection status of an interface.
//
// The zero value is the disconnected state. The bit layout is private; use the
// accessor methods.
type Status struct {
	bits uint8
}

// Connected reports whether the link layer is up.
func (s Status) Connected() bool { return s.has(bitConnected) }

// AddressAcquired reports whether the interface holds an address.
func (s Status) AddressAcquired() bool { return s.has(bitAddressAcquired) }

// ServicesInitialized reports whether the interface is ready for upper layers.
func (s Status) ServicesInitialized() bool { return s.has(bitServicesInitialized) }

// Disconnected reports whether no flag is set at all.
func (s Status) Disconnected() bool { return s.bits == 0 }

// String renders the status for diagnostics: "DISCONNECTED", or a combination
// of the "Conn.", "IP" and "Init" tokens.
func (s Status) String() string {
	if s.Disconnected() {
		return "DISCONNECTED"
	}

	parts := make([]string, 0, 3)
	if s.Connected() {
		parts = append(parts, "Conn.")
	}
	if s.AddressAcquired() {
		parts = append(parts, "IP")
	}
	if s.ServicesInitialized() {
		parts = append(parts, "Init")
	}
	return strings.Join(parts, " ")
}

func (s Status) has(b statusBit) bool {
	return s.bits&(1<<b) != 0
}

func (s *Status) set(b statusBit) {
	s.bits |= 1 << b
}

func (s *Status) clear(b statusBit) {
	s.bits &^= 1 << b
}

func (s *Status) reset() {
	s.bits = 0
}
