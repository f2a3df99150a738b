// Package bridge ties a broker connection to the node's tasks.
//
// The Bridge owns the command router, the value publisher and the discovery
// emitter of one controller. It subscribes to the inbound topic, publishes a
// task's readings when the executor reports a change, and announces discovery
// plus the current readings whenever the broker connection or the network
// services come back.
//
// The bridge is also the transport of its own publisher and emitter and the
// raw publisher of the command executor:
//
//	exec := command.NewExecutor(command.Config{Store: registry})
//	b, err := bridge.NewBridge(bridge.Options{Config: cfg, MQTT: client, Registry: registry, Executor: exec})
//	exec.SetRawPublisher(b)
//	exec.SetOnTaskChanged(func(ctx context.Context, idx task.Index) { b.PublishTask(ctx, idx) })
package bridge
