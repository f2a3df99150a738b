// Package link is the host-side driver of a tracked network interface.
//
// A Watcher samples the interface and turns changes into tracker
// notifications (link up/down, address acquired/lost, IPv6
// address, address timeout). A Platform answers the tracker's requests:
// Begin triggers a resync of the watcher, and Nameservers reads the resolver
// configuration.
//
// On Linux the default Source is NetlinkSource, which reads links over
// rtnetlink and subscribes to link and address events so the watcher samples
// on change. Elsewhere SystemSource is polled through the net package.
//
//	tracker := connectivity.NewTracker(connectivity.TrackerOptions{Interface: "eth0", Platform: platform})
//	watcher := link.NewWatcher(tracker, link.WatcherConfig{Interface: "eth0", Kicks: platform.Kicks()})
//	watcher.Start(ctx)
package link
