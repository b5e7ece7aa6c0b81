package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/cache"
	"github.com/md-rashed-zaman/salondesk/libs/cache/rediscache"
	"github.com/md-rashed-zaman/salondesk/libs/cache/ristretto"
	"github.com/md-rashed-zaman/salondesk/libs/config"
	"github.com/md-rashed-zaman/salondesk/libs/db"
	"github.com/md-rashed-zaman/salondesk/libs/httpx"
	"github.com/md-rashed-zaman/salondesk/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salondesk/libs/otel"
	"github.com/md-rashed-zaman/salondesk/libs/runtime"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/appointments"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/apptcache"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/events"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/handlers"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/session"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "appointment-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	if config.Bool("MIGRATE_ON_START", false) {
		if err := storage.Migrate(ctx, dbURL); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	pool, err := db.Open(ctx, dbURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	sessionTTL := config.Duration("SESSION_TTL", apptcache.DefaultSessionTTL)
	l1, err := ristretto.New(int64(config.Int("CACHE_MAX_BYTES", 64<<20)))
	if err != nil {
		logger.Error("l1 cache init failed", "err", err)
		panic(err)
	}
	defer l1.Close()

	var (
		backend cache.Cache = l1
		gens    apptcache.Generations
		rdb     *redis.Client
		groupID = config.String("KAFKA_GROUP_ID", "")
	)
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		backend = cache.NewTiered(l1, rediscache.New(rdb, "salondesk"), time.Minute)
		gens = apptcache.NewRedisGenerations(rdb, "salondesk")
		if groupID == "" {
			groupID = service
		}
	} else {
		// Process-local generations: every instance must see every event.
		gens = apptcache.NewMemoryGenerations()
		if groupID == "" {
			host, _ := os.Hostname()
			groupID = service + "-" + host
		}
	}
	store := apptcache.NewStore(backend, gens, sessionTTL)

	brokers := config.String("KAFKA_BROKERS", "")
	topic := config.String("KAFKA_APPOINTMENT_TOPIC", events.DefaultTopic)
	publisher := events.NewPublisher(events.PublisherConfig{Brokers: brokers, Topic: topic}, logger)
	defer func() { _ = publisher.Close() }()

	repo := storage.NewAppointmentRepository(pool)
	svc := appointments.NewService(repo, store, publisher, logger)

	if consumer := events.NewConsumer(events.ConsumerConfig{Brokers: brokers, GroupID: groupID, Topic: topic}, svc, logger); consumer != nil {
		go consumer.Run(ctx)
	}

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Optional: true, Check: kafkaCheck(brokers)},
	}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Optional: true, Check: rediscache.ReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)

	apiHandler := handlers.NewAppointmentHandler(svc, logger)
	mux.Handle("/api/", handlers.NewRouter(apiHandler,
		session.Middleware(sessionTTL, config.Bool("SESSION_COOKIE_SECURE", false)),
		handlers.RequireMembership(repo, logger),
	))

	timeout := time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(timeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "appointments")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := startGrpcServer(ctx, logger); err != nil {
		logger.Error("grpc server init failed", "err", err)
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func kafkaCheck(brokers string) func(context.Context) error {
	if brokers == "" {
		return nil
	}
	return kafkax.ReadyCheck(brokers)
}
