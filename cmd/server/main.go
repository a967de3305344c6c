package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"sd-transit/internal/api"
	"sd-transit/internal/auth"
	"sd-transit/internal/config"
	"sd-transit/internal/db"
	"sd-transit/internal/metrics"
	"sd-transit/internal/publisher"
	"sd-transit/internal/sim"
	"sd-transit/internal/traffic"
	"sd-transit/internal/transit"
)

const publishQueue = 8

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}
	logger := newLogger(cfg)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sqlDB, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db open error")
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		logger.WithError(err).Fatal("db ping error")
	}
	users := db.NewUserRepository(sqlDB)
	if err := users.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("db schema error")
	}
	logger.WithField("driver", cfg.DBDriver).Info("database ready")

	// Metrics setup. Interfaces stay nil when metrics are disabled.
	var (
		simMetrics     sim.Metrics
		trafficMetrics traffic.Metrics
		pubMetrics     publisher.Metrics
		apiMetrics     api.Metrics
	)
	if cfg.MetricsAddr != "" {
		mcol := metrics.NewCollector(cfg.TickInterval, cfg.TrafficInterval)
		simMetrics, trafficMetrics, pubMetrics, apiMetrics = mcol, mcol, mcol, mcol
		msrv := mcol.Serve(cfg.MetricsAddr, logger)
		defer shutdown(msrv, 3*time.Second)
	}

	clk := clockwork.NewRealClock()
	simulator := sim.New(sim.Options{
		Bounds:   cfg.SimBounds,
		MaxStep:  cfg.MaxStepDeg,
		Interval: cfg.TickInterval,
		Clock:    clk,
		Rand:     newRand(cfg.SimSeed),
		Metrics:  simMetrics,
		Logger:   logger,
	})
	estimator := traffic.NewEstimator(clk, cfg.Location, cfg.TrafficInterval, trafficMetrics, logger)

	pub, err := newPublisher(cfg, pubMetrics, logger)
	if err != nil {
		logger.WithError(err).WithField("publisher", cfg.Publisher).Fatal("publisher error")
	}
	if pub != nil {
		defer pub.Close()
		simulator.Subscribe(publisher.Async(ctx, publishQueue, publisher.SnapshotSink(pub, logger)))
		estimator.Subscribe(publisher.Async(ctx, publishQueue, publisher.TrafficSink(pub, logger)))
		estimator.Refresh()
	}

	if err := simulator.Start(ctx); err != nil {
		logger.WithError(err).Fatal("simulator start error")
	}
	estimator.Start(ctx)
	logger.WithFields(logrus.Fields{
		"tick_interval":    cfg.TickInterval,
		"traffic_interval": cfg.TrafficInterval,
	}).Info("live services started")

	router := api.NewRouter(api.Deps{
		Auth:     auth.NewService(users, cfg.JWTSecret, cfg.TokenTTL),
		Catalog:  transit.DefaultCatalog(),
		Fleet:    simulator,
		Traffic:  estimator,
		Metrics:  apiMetrics,
		Logger:   logger,
		Clock:    clk,
		Location: cfg.Location,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with the process so live streams close on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server error")
			cancel()
		}
	}()

	// Block until context cancelled
	<-ctx.Done()
	shutdown(srv, 10*time.Second)
	simulator.Stop()
	estimator.Stop()
	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// newPublisher returns nil when publishing is disabled.
func newPublisher(cfg *config.Config, m publisher.Metrics, log logrus.FieldLogger) (publisher.Publisher, error) {
	switch cfg.Publisher {
	case "nats":
		return publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSStreamName, cfg.LogPublishSubjects, m, log)
	case "amqp":
		return publisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.LogPublishSubjects, m, log)
	}
	return nil, nil
}

func newRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return nil
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}

func shutdown(srv *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
