package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajayykmr/sms-dispatch-go/internal/gateway"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
)

const namespace = "sms_gateway"

// Collector records gateway activity in Prometheus metrics. It implements
// gateway.Observer.
type Collector struct {
	registry *prometheus.Registry

	exchanges  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	batches    *prometheus.CounterVec
	recipients *prometheus.CounterVec
	reports    *prometheus.CounterVec
}

var _ gateway.Observer = (*Collector)(nil)

// New registers the gateway metrics on a fresh registry. Process and Go
// runtime collectors are registered alongside.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Provider HTTP exchanges by command and outcome.",
		}, []string{"provider", "command", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Duration of provider HTTP exchanges.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "command"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Send batches submitted to a provider.",
		}, []string{"provider"}),
		recipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipients_total",
			Help:      "Recipients submitted to a provider.",
		}, []string{"provider"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_reports_total",
			Help:      "Normalized delivery reports by canonical status.",
		}, []string{"provider", "status"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.exchanges,
		c.duration,
		c.batches,
		c.recipients,
		c.reports,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes Handler at /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ObserveExchange implements gateway.Observer.
func (c *Collector) ObserveExchange(provider string, cmd gateway.Command, outcome string, elapsed time.Duration) {
	c.exchanges.WithLabelValues(provider, string(cmd), outcome).Inc()
	if elapsed > 0 {
		c.duration.WithLabelValues(provider, string(cmd)).Observe(elapsed.Seconds())
	}
}

// ObserveBatch implements gateway.Observer.
func (c *Collector) ObserveBatch(provider string, recipients int) {
	c.batches.WithLabelValues(provider).Inc()
	c.recipients.WithLabelValues(provider).Add(float64(recipients))
}

// ObserveReport implements gateway.Observer.
func (c *Collector) ObserveReport(provider string, status models.DeliveryStatus) {
	c.reports.WithLabelValues(provider, string(status)).Inc()
}
