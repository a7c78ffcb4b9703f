package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/controller"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/version"
)

// Config configures an Exporter.
type Config struct {
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`

	// Addr is the listen address for Start (e.g. ":9108").
	Addr string `yaml:"addr"`

	// Path is the scrape path.
	Path string `yaml:"path"`

	// Logger is the optional logger for server errors.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Namespace: "dtpctrl",
		Addr:      ":9108",
		Path:      "/metrics",
	}
}

// Exporter collects controller activity into its own registry.
type Exporter struct {
	cfg      Config
	registry *prometheus.Registry

	buildInfo       *prometheus.GaugeVec
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	state           *prometheus.GaugeVec
	transitions     *prometheus.CounterVec
	packets         *prometheus.GaugeVec
	thresholds      *prometheus.GaugeVec
	snapshots       prometheus.Counter
	snapshotErrors  prometheus.Counter

	mu     sync.Mutex
	server *http.Server
}

// New creates an Exporter with every metric registered. The state gauge
// starts at UNCONFIGURED.
func New(cfg Config) (*Exporter, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultConfig().Namespace
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}

	e := &Exporter{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}
	e.buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "build_info",
		Help:      "Build and command interface version; always 1.",
	}, []string{"version", "interface"})
	e.commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "commands_total",
		Help:      "Lifecycle commands by outcome (ok or error code).",
	}, []string{"command", "outcome"})
	e.commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "command_duration_seconds",
		Help:      "Duration of lifecycle commands.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"command"})
	e.state = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "state",
		Help:      "1 for the current lifecycle state, 0 otherwise.",
	}, []string{"state"})
	e.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "transitions_total",
		Help:      "Lifecycle state transitions.",
	}, []string{"from", "to"})
	e.packets = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "stream_packets",
		Help:      "Packet counter of each stream at the last get_info.",
	}, []string{"link", "stream"})
	e.thresholds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Name:      "stream_threshold",
		Help:      "Threshold of each stream at the last verbose get_info.",
	}, []string{"link", "stream"})
	e.snapshots = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "snapshots_total",
		Help:      "get_info calls.",
	})
	e.snapshotErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "snapshot_errors_total",
		Help:      "get_info calls that returned a partial snapshot.",
	})

	for _, c := range []prometheus.Collector{
		e.buildInfo, e.commands, e.commandDuration, e.state, e.transitions,
		e.packets, e.thresholds, e.snapshots, e.snapshotErrors,
	} {
		if err := e.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	e.buildInfo.WithLabelValues(version.String(), version.Interface).Set(1)
	e.setState(controller.StateUnconfigured)
	return e, nil
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveCommand implements controller.Observer.
func (e *Exporter) ObserveCommand(name string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = issue.KindOf(err).Code()
	}
	e.commands.WithLabelValues(name, outcome).Inc()
	e.commandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveState implements controller.Observer.
func (e *Exporter) ObserveState(from, to controller.State) {
	e.transitions.WithLabelValues(from.String(), to.String()).Inc()
	e.setState(to)
}

// ObserveSnapshot implements controller.Observer. Stream gauges are
// replaced, so links that disappear from the snapshot are dropped.
func (e *Exporter) ObserveSnapshot(s controller.Snapshot) {
	e.snapshots.Inc()
	if s.Partial() {
		e.snapshotErrors.Inc()
	}
	e.packets.Reset()
	e.thresholds.Reset()
	for _, st := range s.Streams {
		link, stream := strconv.Itoa(st.Link), strconv.Itoa(st.Stream)
		e.packets.WithLabelValues(link, stream).Set(float64(st.PacketCounter))
		if st.Threshold != nil {
			e.thresholds.WithLabelValues(link, stream).Set(float64(*st.Threshold))
		}
	}
}

func (e *Exporter) setState(current controller.State) {
	for _, s := range []controller.State{controller.StateUnconfigured, controller.StateConfigured, controller.StateRunning} {
		v := 0.0
		if s == current {
			v = 1
		}
		e.state.WithLabelValues(s.String()).Set(v)
	}
}

// Start serves Handler on cfg.Addr in the background.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.server != nil {
		return errors.New("metrics server already started")
	}

	mux := http.NewServeMux()
	mux.Handle(e.cfg.Path, e.Handler())
	e.server = &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := e.server
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && e.cfg.Logger != nil {
			e.cfg.Logger.Error("metrics server stopped", "addr", srv.Addr, "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	srv := e.server
	e.server = nil
	e.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Compile-time interface satisfaction check.
var _ controller.Observer = (*Exporter)(nil)
