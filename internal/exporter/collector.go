// Package exporter exposes air-Q readings as Prometheus metrics.
package exporter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/zberg/go-airq/pkg/airq"
)

const namespace = "airq"

// DefaultScrapeTimeout bounds one scrape of the device.
const DefaultScrapeTimeout = 10 * time.Second

// Source is the subset of *airq.Client the collector reads from.
type Source interface {
	LatestData(ctx context.Context, opts airq.LatestDataOptions) (airq.Response, error)
	FetchDeviceInfo(ctx context.Context) (airq.DeviceInfo, error)
}

// Collector scrapes a device on every Prometheus collection.
type Collector struct {
	source  Source
	opts    airq.LatestDataOptions
	timeout time.Duration
	logger  *slog.Logger

	// mu serialises scrapes; the gauges below are shared state.
	mu sync.Mutex

	scrapeSuccess prometheus.Gauge
	lastSuccess   prometheus.Gauge
	scrapeSeconds prometheus.Gauge
	info          *prometheus.GaugeVec
	sensor        *prometheus.GaugeVec
	warmingUp     *prometheus.GaugeVec
}

// NewCollector creates a collector reading LatestData with opts.
// logger may be nil.
func NewCollector(source Source, opts airq.LatestDataOptions, logger *slog.Logger) *Collector {
	return &Collector{
		source:  source,
		opts:    opts,
		timeout: DefaultScrapeTimeout,
		logger:  logger,
		scrapeSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scrape_success",
			Help:      "Last scrape success (1=ok, 0=error)",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Last successful scrape timestamp (epoch seconds)",
		}),
		scrapeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scrape_duration_seconds",
			Help:      "Duration of the last scrape (seconds)",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "info",
			Help:      "air-Q device info",
		}, []string{"id", "name", "model", "sw_version", "hw_version"}),
		sensor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Latest sensor reading in the unit reported by the device",
		}, []string{"sensor"}),
		warmingUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_warming_up",
			Help:      "1 if the device reports the sensor as warming up",
		}, []string{"sensor"}),
	}
}

// SetTimeout overrides DefaultScrapeTimeout.
func (c *Collector) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.scrapeSuccess.Describe(ch)
	c.lastSuccess.Describe(ch)
	c.scrapeSeconds.Describe(ch)
	c.info.Describe(ch)
	c.sensor.Describe(ch)
	c.warmingUp.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	err := c.scrape(ctx)
	c.scrapeSeconds.Set(time.Since(start).Seconds())
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("scrape failed", "error", err)
		}
		c.scrapeSuccess.Set(0)
	} else {
		c.scrapeSuccess.Set(1)
		c.lastSuccess.Set(float64(time.Now().Unix()))
	}
	c.collectAll(ch)
}

func (c *Collector) scrape(ctx context.Context) error {
	var (
		data airq.Response
		info airq.DeviceInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = c.source.LatestData(gctx, c.opts)
		return err
	})
	g.Go(func() error {
		var err error
		info, err = c.source.FetchDeviceInfo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.info.Reset()
	c.info.With(prometheus.Labels{
		"id":         info.ID,
		"name":       deref(info.Name),
		"model":      deref(info.Model),
		"sw_version": deref(info.SWVersion),
		"hw_version": deref(info.HWVersion),
	}).Set(1)

	c.sensor.Reset()
	for name, value := range data {
		if v, ok := sensorValue(value); ok {
			c.sensor.WithLabelValues(name).Set(v)
		}
	}

	c.warmingUp.Reset()
	for _, name := range airq.WarmingUpSensors(data) {
		c.warmingUp.WithLabelValues(name).Set(1)
	}
	return nil
}

func (c *Collector) collectAll(ch chan<- prometheus.Metric) {
	c.scrapeSuccess.Collect(ch)
	c.lastSuccess.Collect(ch)
	c.scrapeSeconds.Collect(ch)
	c.info.Collect(ch)
	c.sensor.Collect(ch)
	c.warmingUp.Collect(ch)
}

// sensorValue extracts a reading from a plain number or a
// [value, uncertainty] pair. The timestamp is exported too; it lets
// dashboards spot a stale device.
func sensorValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case []any:
		if len(v) == 0 {
			return 0, false
		}
		f, ok := v[0].(float64)
		return f, ok
	default:
		return 0, false
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
