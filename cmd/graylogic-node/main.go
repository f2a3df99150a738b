// Gray Logic Node - network bring-up and MQTT bridge for a building controller.
//
// The node tracks the link, address and network services of its interfaces
// and bridges its configured tasks to an MQTT broker: task values are
// published, inbound topics become commands or rule events, and discovery
// messages announce every task to the home automation controller.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/bridge"
	"github.com/nerrad567/gray-logic-node/internal/broker"
	"github.com/nerrad567/gray-logic-node/internal/command"
	"github.com/nerrad567/gray-logic-node/internal/connectivity"
	"github.com/nerrad567/gray-logic-node/internal/diag"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/link"
	"github.com/nerrad567/gray-logic-node/internal/rules"
	"github.com/nerrad567/gray-logic-node/internal/task"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/node.yaml"

// healthCheckTimeout bounds the startup infrastructure check.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the node together and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, cfg.Node.Name, version)
	log.Info("configuration loaded",
		"node", cfg.Node.Name,
		"unit", cfg.Node.Unit,
		"interfaces", len(cfg.Interfaces),
		"tasks", len(cfg.Tasks),
	)

	registry, err := task.NewRegistry(cfg.Tasks)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	registry.SetLogger(log)

	queue := rules.NewEventQueue(cfg.Rules.QueueSize)
	queue.SetLogger(log)
	if cfg.Rules.Enabled {
		worker := rules.NewWorker(queue, rules.HandlerFunc(func(_ context.Context, event string) {
			log.Info("rule event", "event", event)
		}))
		worker.SetLogger(log)
		worker.Start(ctx)
		defer worker.Stop()
	}

	executor := command.NewExecutor(command.Config{Store: registry})
	executor.SetLogger(log)

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Node.Name)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Warn("InfluxDB write failed", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL)
	}

	statusTopic := broker.NewTemplater(registry, cfg.Node.Name, cfg.Node.Unit).
		SubstituteNode(cfg.MQTT.LWTTopic, task.InvalidIndex)
	mqttClient, err := mqtt.Connect(cfg.MQTT, statusTopic)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"host", cfg.MQTT.Broker.Host,
		"port", cfg.MQTT.Broker.Port,
		"status_topic", statusTopic,
	)

	opts := bridge.Options{
		Config:   bridge.ConfigFrom(cfg),
		MQTT:     &mqttBridgeAdapter{client: mqttClient},
		Registry: registry,
		Executor: executor,
		Events:   queue,
		Settings: broker.StaticSettings{
			Rules:            cfg.Rules.Enabled,
			ValueSetAllKinds: cfg.Rules.AllowValueSetAllKinds,
		},
		Logger: log,
	}
	if influxClient != nil {
		opts.Recorder = influxRecorder{client: influxClient}
	}
	b, err := bridge.NewBridge(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	executor.SetRawPublisher(b)
	executor.SetOnTaskChanged(func(ctx context.Context, idx task.Index) {
		b.PublishTask(ctx, idx)
	})

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		b.OnConnect()
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
	})

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer b.Stop()
	log.Info("bridge started", "subscribe_topic", cfg.MQTT.SubscribeTopic)

	links := newLinks(cfg.Interfaces, log)
	for _, l := range links {
		l.monitor.OnStateChange(b.OnLinkChange)
		if influxClient != nil {
			l.monitor.OnStateChange(func(s connectivity.Snapshot) {
				influxClient.WriteLinkState(linkStateFrom(s))
			})
		}
	}

	if cfg.Diagnostics.Enabled {
		srv, err := startDiagnostics(ctx, cfg, log, links, mqttClient, b, queue, executor)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing diagnostics server", "error", closeErr)
			}
		}()
	}

	for _, l := range links {
		l.start(ctx)
		defer l.stop()
	}

	healthCtx, healthCancel := context.WithTimeout(ctx, healthCheckTimeout)
	err = healthCheck(healthCtx, mqttClient, influxClient)
	healthCancel()
	if err != nil {
		log.Warn("health check failed", "error", err)
	}

	log.Info("Gray Logic Node started")

	<-ctx.Done()

	log.Info("shutting down Gray Logic Node")
	return nil
}

// getConfigPath returns the configuration file path from the environment
// or the default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_NODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections. influxClient may be nil.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// startDiagnostics builds the diagnostics server over the running node and
// starts it. Link changes are counted in its metrics.
func startDiagnostics(
	ctx context.Context,
	cfg *config.Config,
	log *logging.Logger,
	links []*linkStack,
	mqttClient *mqtt.Client,
	b *bridge.Bridge,
	queue *rules.EventQueue,
	executor *command.Executor,
) (*diag.Server, error) {
	deps := diag.Deps{
		Config:    cfg.Diagnostics,
		Logger:    log,
		Node:      cfg.Node.Name,
		Version:   version,
		Platforms: make(map[string]diag.PlatformStats, len(links)),
		Broker:    mqttClient,
		Bridge:    b,
		Queue:     queue,
		Executor:  executor,
		Discovery: b.Emitter(),
	}
	for _, l := range links {
		deps.Trackers = append(deps.Trackers, l.tracker)
		deps.Platforms[l.name] = l.platform
	}

	srv, err := diag.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating diagnostics server: %w", err)
	}
	for _, l := range links {
		l.monitor.OnStateChange(srv.Metrics().ObserveLinkChange)
	}

	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting diagnostics server: %w", err)
	}
	log.Info("diagnostics server started", "address", cfg.Diagnostics.ListenAddr())
	return srv, nil
}

// linkStack is the connectivity machinery of one interface.
type linkStack struct {
	name     string
	platform *link.Platform
	tracker  *connectivity.Tracker
	monitor  *connectivity.Monitor
	watcher  *link.Watcher
}

// newLinks builds one stack per configured interface without starting it.
func newLinks(ifaces []config.InterfaceConfig, log *logging.Logger) []*linkStack {
	links := make([]*linkStack, 0, len(ifaces))
	for _, iface := range ifaces {
		platform := link.NewPlatform(link.PlatformConfig{
			Interface:  iface.Name,
			ResolvConf: iface.ResolvConf,
		})
		platform.SetLogger(log)

		tracker := connectivity.NewTracker(connectivity.TrackerOptions{
			Interface:       iface.Name,
			Platform:        platform,
			DualStack:       iface.DualStack,
			ConnectCooldown: iface.ConnectCooldown,
		})

		monitor := connectivity.NewMonitor(tracker, connectivity.MonitorConfig{
			Interval:    iface.PollInterval,
			StableAfter: iface.StableAfter,
		})
		monitor.SetLogger(log)

		watcher := link.NewWatcher(tracker, link.WatcherConfig{
			Interface: iface.Name,
			Interval:  iface.WatchInterval,
			Kicks:     platform.Kicks(),
		})
		watcher.SetLogger(log)

		links = append(links, &linkStack{
			name:     iface.Name,
			platform: platform,
			tracker:  tracker,
			monitor:  monitor,
			watcher:  watcher,
		})
	}
	return links
}

func (l *linkStack) start(ctx context.Context) {
	l.monitor.Start(ctx)
	l.watcher.Start(ctx)
}

func (l *linkStack) stop() {
	l.watcher.Stop()
	l.monitor.Stop()
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. Infrastructure handlers return an error, bridge
// handlers do not.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// influxRecorder mirrors published readings into InfluxDB.
type influxRecorder struct {
	client *influxdb.Client
}

// RecordReading implements bridge.Recorder.
func (r influxRecorder) RecordReading(t *task.Task, values []float64, text string) {
	r.client.WriteTaskReading(taskReadingFrom(t, values, text))
}

// taskReadingFrom keys values by their configured names. Unnamed values are
// hidden and skipped.
func taskReadingFrom(t *task.Task, values []float64, text string) influxdb.TaskReading {
	reading := influxdb.TaskReading{
		Task:      t.Name,
		TaskIndex: int(t.Index),
		Values:    make(map[string]float64, len(t.Values)),
		Text:      text,
	}
	for i, v := range t.Values {
		if v.Name == "" || i >= len(values) {
			continue
		}
		reading.Values[v.Name] = values[i]
	}
	return reading
}

func linkStateFrom(s connectivity.Snapshot) influxdb.LinkState {
	return influxdb.LinkState{
		Interface:             s.Interface,
		Connected:             s.Status.Connected(),
		AddressAcquired:       s.Status.AddressAcquired(),
		ServicesInitialized:   s.Status.ServicesInitialized(),
		Stable:                s.ConsideredStable,
		ConnectAttempts:       s.ConnectAttempts,
		LastConnectedDuration: s.LastConnectedDuration,
	}
}
