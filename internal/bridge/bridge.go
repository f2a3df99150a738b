package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-node/internal/broker"
	"github.com/nerrad567/gray-logic-node/internal/connectivity"
	"github.com/nerrad567/gray-logic-node/internal/discovery"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Bridge connects one broker connection to the node's tasks.
// It handles:
//   - Routing inbound messages to commands and rule events
//   - Publishing task readings whenever a task changes
//   - Announcing discovery and current readings on (re)connect
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg       Config
	mqtt      MQTTClient
	registry  Registry
	recorder  Recorder
	templater *broker.Templater
	router    *broker.Router
	publisher *broker.Publisher
	emitter   *discovery.Emitter

	subscribeTopic string
	publishTopic   string

	// servicesUp holds the last services-initialized state per interface.
	linkMu     sync.Mutex
	servicesUp map[string]bool

	received      atomic.Uint64
	handled       atomic.Uint64
	ignored       atomic.Uint64
	published     atomic.Uint64
	publishFailed atomic.Uint64
	announcements atomic.Uint64

	// Shutdown coordination. stopMu orders wg.Add against Stop.
	stopMu    sync.Mutex
	stopped   bool
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger Logger
}

// MQTTClient is the broker connection used by the bridge.
// *mqtt.Client satisfies it through an adapter in main.go.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic filter.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Registry is the task registry surface used by the bridge.
// *task.Registry satisfies it.
type Registry interface {
	broker.Registry
	broker.TemplateRegistry
	discovery.Registry

	Task(idx task.Index) (*task.Task, bool)
	Values(idx task.Index) ([]float64, bool)
	Text(idx task.Index) string
}

// Recorder mirrors published readings, e.g. to a time-series database.
// It is optional - if nil, readings are only published to the broker.
type Recorder interface {
	RecordReading(t *task.Task, values []float64, text string)
}

// Logger defines the logging interface used by the bridge.
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

// Config selects the topics and handling modes of a broker connection.
type Config struct {
	// SystemName and Unit expand %sysname% and %unit%.
	SystemName string
	Unit       int

	// Controller is the connection's controller index. Only tasks
	// selecting it are published or announced.
	Controller int

	QoS byte

	// SubscribeTopic is the inbound filter template.
	SubscribeTopic string

	// PublishTopic is the outbound value topic template.
	PublishTopic string

	Retain bool

	// Handle selects the accepted inbound topic forms.
	Handle broker.Options

	DiscoveryEnabled bool
	DiscoveryTopic   string
}

// ConfigFrom builds the bridge configuration from the node configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		SystemName:     cfg.Node.Name,
		Unit:           cfg.Node.Unit,
		Controller:     cfg.MQTT.ControllerIndex,
		QoS:            byte(cfg.MQTT.QoS),
		SubscribeTopic: cfg.MQTT.SubscribeTopic,
		PublishTopic:   cfg.MQTT.PublishTopic,
		Retain:         cfg.MQTT.Retain,
		Handle: broker.Options{
			HandleCmd:       cfg.MQTT.HandleCmd,
			HandleSet:       cfg.MQTT.HandleSet,
			TryRemoteConfig: cfg.MQTT.TryRemoteConfig,
		},
		DiscoveryEnabled: cfg.MQTT.Discovery.Enabled,
		DiscoveryTopic:   cfg.MQTT.Discovery.Topic,
	}
}

// Options holds the collaborators for creating a bridge.
type Options struct {
	Config Config

	// MQTT is the broker connection.
	MQTT MQTTClient

	// Registry holds the configured tasks.
	Registry Registry

	// Executor runs inbound commands.
	Executor broker.Executor

	// Events receives rule events. Optional when rules are disabled.
	Events broker.EventQueue

	// Settings are the router's global switches.
	Settings broker.Settings

	// Recorder is optional.
	Recorder Recorder

	// Logger is optional structured logger.
	Logger Logger
}

// Stats are the bridge counters.
type Stats struct {
	Received      uint64
	Handled       uint64
	Ignored       uint64
	Published     uint64
	PublishFailed uint64
	Announcements uint64
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, errors.New("MQTT client is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("task registry is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("command executor is required")
	}
	if opts.Config.SubscribeTopic == "" {
		return nil, errors.New("subscribe topic is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		cfg:        opts.Config,
		mqtt:       opts.MQTT,
		registry:   opts.Registry,
		recorder:   opts.Recorder, // May be nil (optional)
		templater:  broker.NewTemplater(opts.Registry, opts.Config.SystemName, opts.Config.Unit),
		servicesUp: make(map[string]bool),
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     logger,
	}

	b.router = broker.NewRouter(broker.RouterConfig{
		Registry: opts.Registry,
		Executor: opts.Executor,
		Events:   opts.Events,
		Settings: opts.Settings,
	})
	b.router.SetLogger(logger)

	b.publisher = broker.NewPublisher(opts.Registry, b, b.templater)
	b.publisher.SetLogger(logger)

	b.emitter = discovery.NewEmitter(discovery.EmitterConfig{
		Registry: opts.Registry,
		Sender:   b,
		Subst:    b.templater,
		Enabled:  opts.Config.DiscoveryEnabled,
		Topic:    opts.Config.DiscoveryTopic,
	})
	b.emitter.SetLogger(logger)

	b.subscribeTopic = b.templater.SubstituteNode(opts.Config.SubscribeTopic, task.InvalidIndex)
	b.publishTopic = opts.Config.PublishTopic

	return b, nil
}

// Start subscribes to the inbound topic and announces the node.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.mqtt.Subscribe(b.subscribeTopic, b.cfg.QoS, b.handleMessage); err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subscribeTopic, err)
	}
	b.logger.Info("subscribed to commands", "topic", b.subscribeTopic)

	if b.mqtt.IsConnected() {
		b.Announce(ctx)
	}

	b.logger.Info("bridge started",
		"controller", b.cfg.Controller,
		"discovery", b.emitter.Enabled())
	return nil
}

// Stop cancels in-flight work and waits for background announcements.
// Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.stopMu.Lock()
		b.stopped = true
		b.stopMu.Unlock()

		b.ctxCancel()
		b.wg.Wait()
		b.logger.Info("bridge stopped")
	})
}

// Emitter returns the discovery emitter.
func (b *Bridge) Emitter() *discovery.Emitter {
	return b.emitter
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Received:      b.received.Load(),
		Handled:       b.handled.Load(),
		Ignored:       b.ignored.Load(),
		Published:     b.published.Load(),
		PublishFailed: b.publishFailed.Load(),
		Announcements: b.announcements.Load(),
	}
}

// handleMessage routes one inbound message.
func (b *Bridge) handleMessage(topic string, payload []byte) {
	b.received.Add(1)
	if b.router.Handle(b.ctx, topic, string(payload), b.cfg.Handle) {
		b.handled.Add(1)
		return
	}
	b.ignored.Add(1)
	b.logger.Debug("message not handled", "topic", topic)
}

// PublishTask publishes the current readings of a task.
// It reports whether at least one value was accepted by the broker.
func (b *Bridge) PublishTask(ctx context.Context, idx task.Index) bool {
	t, ok := b.registry.Task(idx)
	if !ok || !t.Enabled || !t.SelectedFor(b.cfg.Controller) {
		return false
	}

	values, _ := b.registry.Values(idx)
	text := b.registry.Text(idx)

	if b.recorder != nil {
		b.recorder.RecordReading(t, values, text)
	}

	if b.publishTopic == "" {
		return false
	}
	return b.publisher.Publish(ctx, broker.Reading{
		Controller: b.cfg.Controller,
		Task:       idx,
		Kind:       t.ValueKind,
		Values:     values,
		Text:       text,
	}, b.publishTopic, b.cfg.Retain)
}

// PublishAll publishes every task selected for this connection and returns
// how many published at least one value.
func (b *Bridge) PublishAll(ctx context.Context) int {
	n := 0
	for _, t := range b.registry.Tasks() {
		if ctx.Err() != nil {
			break
		}
		if b.PublishTask(ctx, t.Index) {
			n++
		}
	}
	return n
}

// SendAutoDiscovery sends discovery messages for this connection.
// It reports whether any task produced a message.
func (b *Bridge) SendAutoDiscovery(ctx context.Context) (bool, error) {
	if !b.emitter.Enabled() {
		return false, nil
	}
	return b.emitter.Emit(ctx, b.cfg.Controller)
}

// Announce sends discovery followed by the current readings.
func (b *Bridge) Announce(ctx context.Context) {
	b.announcements.Add(1)

	if announced, err := b.SendAutoDiscovery(ctx); err != nil {
		b.logger.Warn("discovery incomplete", "error", err)
	} else if announced {
		b.logger.Debug("discovery sent", "controller", b.cfg.Controller)
	}

	n := b.PublishAll(ctx)
	b.logger.Info("node announced", "controller", b.cfg.Controller, "tasks_published", n)
}

// OnConnect is the broker connect callback. It announces the node in the
// background so the client's callback returns immediately.
func (b *Bridge) OnConnect() {
	b.announceAsync("broker connected")
}

// OnLinkChange is the connectivity callback, registered on every interface's
// monitor. Edges are tracked per interface: any interface whose services come
// up announces the node again, and services count as lost only once no
// interface has them.
func (b *Bridge) OnLinkChange(s connectivity.Snapshot) {
	up := s.Status.ServicesInitialized()

	b.linkMu.Lock()
	was := b.servicesUp[s.Interface]
	b.servicesUp[s.Interface] = up
	anyUp := false
	for _, u := range b.servicesUp {
		anyUp = anyUp || u
	}
	b.linkMu.Unlock()

	switch {
	case up == was:
		return
	case !up && anyUp:
		b.logger.Debug("network services lost on interface", "interface", s.Interface)
	case !up:
		b.logger.Info("network services lost", "interface", s.Interface)
	case b.mqtt.IsConnected():
		b.announceAsync("network services initialized on " + s.Interface)
	}
}

func (b *Bridge) announceAsync(reason string) {
	b.stopMu.Lock()
	defer b.stopMu.Unlock()
	if b.stopped {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.logger.Debug("announcing node", "reason", reason)
		b.Announce(b.ctx)
	}()
}
