package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

const metricsNamespace = "hydrohub"

// Config holds monitoring configuration
type Config struct {
	MetricsPath string
}

// Service provides monitoring functionality backed by a private prometheus registry
type Service struct {
	config   Config
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	simulatorTicks *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	dropped        prometheus.Counter
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	s := &Service{
		config:   config,
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_total",
				Help:      "The number of domain events recorded, by event name.",
			}, []string{"event"},
		),
		simulatorTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "simulator_ticks_total",
				Help:      "The number of simulator ticks, by result.",
			}, []string{"result"},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "simulator_tick_seconds",
				Help:      "The time taken by one simulator tick.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		dropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "realtime_dropped_total",
				Help:      "The number of realtime messages dropped for slow subscribers.",
			},
		),
	}
	s.registry.MustRegister(s.events, s.simulatorTicks, s.tickDuration, s.dropped)
	return s
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	s.events.WithLabelValues(eventName).Inc()
	nuts.L.Infof("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
}

// ObserveTick records the outcome and duration of one simulator tick
func (s *Service) ObserveTick(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.simulatorTicks.WithLabelValues(result).Inc()
	s.tickDuration.Observe(d.Seconds())
}

// RecordDropped counts realtime messages that were not delivered
func (s *Service) RecordDropped(n int) {
	s.dropped.Add(float64(n))
}

// RegisterGauge exposes a value sampled at scrape time
func (s *Service) RegisterGauge(name, help string, fn func() float64) {
	s.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler serves the registry in the prometheus exposition format
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Path is where Handler should be mounted
func (s *Service) Path() string {
	if s.config.MetricsPath == "" {
		return "/metrics"
	}
	return s.config.MetricsPath
}
