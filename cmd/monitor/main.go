package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/sedentary/internal/alert"
	"example.com/sedentary/internal/api"
	"example.com/sedentary/internal/auth"
	"example.com/sedentary/internal/config"
	"example.com/sedentary/internal/consumer"
	"example.com/sedentary/internal/motion"
	"example.com/sedentary/internal/observability"
	"example.com/sedentary/internal/persistence/postgres"
	"example.com/sedentary/internal/persistence/sqlite"
	"example.com/sedentary/internal/steps"
	"example.com/sedentary/internal/tracker"
	httptransport "example.com/sedentary/internal/transport/http"
)

// stepStore is satisfied by both persistence backends.
type stepStore interface {
	steps.Source
	consumer.StepRecorder
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	base, err := observability.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = base.Sync() }()
	logger := base.Sugar().With("service", "sedentary-monitor", "user_id", cfg.UserID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStepStore(ctx, cfg)
	if err != nil {
		logger.Fatalw("failed to open step store", "store", cfg.StepStore, "error", err)
	}
	defer closeStore()

	aggregator := steps.NewAggregator(store,
		steps.WithLocation(cfg.Location),
		steps.WithLogger(logger.Named("steps")),
	)
	reporter := steps.NewReporter(aggregator, logger.Named("steps"))
	if err := reporter.Start(cfg.StepReportSchedule); err != nil {
		logger.Fatalw("invalid step report schedule", "schedule", cfg.StepReportSchedule, "error", err)
	}

	var alertWriter *kafka.Writer
	if cfg.AlertSink == config.AlertSinkKafka {
		alertWriter = alert.NewKafkaWriter(cfg.KafkaBrokers, cfg.AlertTopic)
		defer alertWriter.Close()
	}
	dispatcher := newDispatcher(cfg, alertWriter, logger.Named("alert"))

	t := tracker.New(dispatcher,
		tracker.WithLogger(logger.Named("tracker")),
		tracker.WithFilter(motion.NewFilter(cfg.MovingThresholdG, cfg.SedentaryEpsilonG)),
		tracker.WithStaleness(cfg.StalenessWindow),
		tracker.WithAlertThreshold(cfg.AlertThresholdMinutes),
		tracker.WithDeliveryTimeout(cfg.AlertTimeout),
	)
	monitor := tracker.NewMonitor(t, cfg.TickInterval, tracker.WithMonitorLogger(logger.Named("monitor")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorw("monitor stopped with error", "error", err)
		}
	}()

	sampleHandler := consumer.NewSampleHandler(monitor, cfg.UserID, logger.Named("consumer"))
	topics := map[string]consumer.Handler{
		cfg.ActivityTopic: sampleHandler,
		cfg.MotionTopic:   sampleHandler,
	}
	// Local mode has no separate ingester, so the monitor records steps itself.
	if cfg.StepStore == config.StepStoreSQLite {
		topics[cfg.StepTopic] = consumer.NewStepHandler(store)
	}
	for topic, handler := range topics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroup,
			Topic:           topic,
			MinBytes:        1,
			MaxBytes:        10e6,
			MaxWait:         500 * time.Millisecond,
			CommitInterval:  time.Second,
			ReadLagInterval: -1,
		})
		proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(logger.Named("consumer").With("topic", topic)))

		wg.Add(1)
		go func(topic string, r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()

			logger.Infow("consumer started", "topic", topic, "group", cfg.ConsumerGroup)
			if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorw("consumer stopped with error", "topic", topic, "error", err)
			}
		}(topic, reader)
	}

	handlerOpts := []api.Option{}
	if cfg.JWTSecret == "" {
		logger.Warnw("jwt-secret not set, API is unauthenticated")
		handlerOpts = append(handlerOpts, api.WithoutAuth())
	}
	mux := http.NewServeMux()
	api.NewHandler(monitor, aggregator, handlerOpts...).RegisterRoutes(mux)

	var root http.Handler = requestLogger(logger.Named("http"), mux)
	if cfg.JWTSecret != "" {
		root = auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}).Wrap(root)
	}
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), root, base)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), metricsMux, base)

	for _, srv := range []*http.Server{server, metricsSrv} {
		go func(srv *http.Server) {
			logger.Infow("http listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalw("server error", "address", srv.Addr, "error", err)
			}
		}(srv)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Infow("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	for _, srv := range []*http.Server{server, metricsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("graceful shutdown failed", "address", srv.Addr, "error", err)
		}
	}
	<-reporter.Stop().Done()
	wg.Wait()
}

func openStepStore(ctx context.Context, cfg config.Config) (stepStore, func(), error) {
	if cfg.StepStore == config.StepStoreSQLite {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.UserID)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return postgres.NewStepRepository(pool, cfg.UserID), pool.Close, nil
}

func newDispatcher(cfg config.Config, writer *kafka.Writer, logger *zap.SugaredLogger) tracker.Dispatcher {
	switch cfg.AlertSink {
	case config.AlertSinkKafka:
		if cfg.SchemaRegistryURL == "" {
			return alert.NewKafkaDispatcher(writer, nil, cfg.AlertTopic, cfg.UserID)
		}
		return alert.NewKafkaDispatcher(writer, alert.NewSchemaRegistryClient(cfg.SchemaRegistryURL), cfg.AlertTopic, cfg.UserID)
	case config.AlertSinkWebhook:
		return alert.NewWebhookDispatcher(cfg.AlertWebhookURL, cfg.AlertWebhookToken, cfg.UserID, cfg.AlertTimeout)
	default:
		return alert.NewLogDispatcher(logger, cfg.UserID)
	}
}

func requestLogger(logger *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debugw("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
