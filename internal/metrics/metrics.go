package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"sd-transit/internal/traffic"
)

type Collector struct {
	reg *prometheus.Registry

	Vehicles     prometheus.Gauge
	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram

	TrafficTier      prometheus.Gauge // 0 good, 1 neutral, 2 heavy
	TrafficRefreshes prometheus.Counter

	Published       prometheus.Counter
	PublishErrs     prometheus.Counter
	BrokerConnected prometheus.Gauge
	PublishDuration prometheus.Histogram

	AuthRequests *prometheus.CounterVec // endpoint, outcome
	TripPlans    prometheus.Counter

	TickInterval    prometheus.Gauge // seconds
	TrafficInterval prometheus.Gauge // seconds
}

func NewCollector(tickInterval, trafficInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Vehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_simulated_vehicles",
			Help: "Number of vehicles in the live simulator.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_simulator_ticks_total",
			Help: "Total simulator ticks applied.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transit_simulator_tick_duration_seconds",
			Help:    "Duration of simulator tick computations.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		TrafficTier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_traffic_tier",
			Help: "Current traffic tier (0 good, 1 neutral, 2 heavy).",
		}),
		TrafficRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_traffic_refreshes_total",
			Help: "Total traffic snapshot recomputations.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_published_total",
			Help: "Total broker messages published.",
		}),
		PublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_publish_errors_total",
			Help: "Total broker publish errors.",
		}),
		BrokerConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_broker_connected",
			Help: "1 if the broker connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transit_publish_duration_seconds",
			Help:    "Duration to marshal and publish a broker message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		AuthRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transit_auth_requests_total",
			Help: "Registration and login requests by outcome.",
		}, []string{"endpoint", "outcome"}),
		TripPlans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_trip_plans_total",
			Help: "Total trip plans estimated.",
		}),
		TickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_simulator_tick_interval_seconds",
			Help: "Simulator tick interval in seconds.",
		}),
		TrafficInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transit_traffic_refresh_interval_seconds",
			Help: "Traffic refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Vehicles, c.Ticks, c.TickDuration,
		c.TrafficTier, c.TrafficRefreshes,
		c.Published, c.PublishErrs, c.BrokerConnected, c.PublishDuration,
		c.AuthRequests, c.TripPlans,
		c.TickInterval, c.TrafficInterval,
	)

	c.TickInterval.Set(tickInterval.Seconds())
	c.TrafficInterval.Set(trafficInterval.Seconds())

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server error")
		}
	}()
	log.WithField("addr", addr).Info("metrics listening")
	return srv
}

func (c *Collector) TickObserve(d time.Duration, vehicles int) {
	c.Ticks.Inc()
	c.TickDuration.Observe(d.Seconds())
	c.Vehicles.Set(float64(vehicles))
}

func (c *Collector) TrafficObserve(t traffic.Tier) {
	c.TrafficRefreshes.Inc()
	c.TrafficTier.Set(t.Level())
}

func (c *Collector) AuthObserve(endpoint, outcome string) {
	c.AuthRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (c *Collector) TripPlanned() { c.TripPlans.Inc() }

func (c *Collector) PublishedInc()                  { c.Published.Inc() }
func (c *Collector) PublishErrInc()                 { c.PublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) SetConnected(connected bool) {
	if connected {
		c.BrokerConnected.Set(1)
	} else {
		c.BrokerConnected.Set(0)
	}
}
