// Package connectivity tracks the logical connection state of a network
// interface on the node.
//
// Link drivers report raw notifications (link up, link down, address acquired,
// address lost) from their own goroutine. Those notifications may arrive out of
// order or more than once. The Tracker turns them into a consistent state using
// a two-phase handshake:
//
//   - Mark* methods are called from the driver side. They stamp timestamps and
//     clear a "processed" flag, marking a new event as pending.
//   - Process* methods are called from the poll loop (Monitor). They consume a
//     pending event, update the status bits and set the flag back.
//
// The "fully up" transition (ServicesInitialized) only happens through
// TrySetServicesInitialized, which is idempotent and safe to call on every tick.
//
// # State Machine
//
//	Disconnected → Connecting → Connected → AddressAcquired → ServicesInitialized
//	      ↑______________________________________________________________|
//	                         (link down from any state)
//
// # Thread Safety
//
// All Tracker methods are safe for concurrent use. Mark* methods perform only
// constant-time field writes under the lock, so they are safe to call from a
// driver callback.
package connectivity
