package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"pestbook/backend/internal/config"
	"pestbook/backend/internal/customers"
	"pestbook/backend/internal/lock"
	"pestbook/backend/internal/observability/metrics"
	"pestbook/backend/internal/service/appointments"
	"pestbook/backend/internal/service/availability"
	"pestbook/backend/internal/store"
	"pestbook/backend/internal/store/file"
	"pestbook/backend/internal/store/memory"
	"pestbook/backend/internal/store/postgres"
	"pestbook/backend/internal/telemetry"
	grpcTransport "pestbook/backend/internal/transport/grpc"
	httpTransport "pestbook/backend/internal/transport/http"
)

const serviceName = "pestbook-server"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	if err := config.LoadDotEnv(); err != nil {
		log.Error("dotenv load failed", slog.Any("err", err))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr()),
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("telemetry setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", slog.Any("err", err))
		}
	}()

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Error("slot catalog invalid", slog.Any("err", err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	repo, closeRepo, err := openStore(ctx, log, cfg)
	if err != nil {
		log.Error("store open failed", slog.Any("err", err), slog.String("store_driver", cfg.StoreDriver))
		os.Exit(1)
	}
	defer closeRepo()

	locker, closeLocker, err := openLocker(ctx, log, cfg)
	if err != nil {
		log.Error("lock backend failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer closeLocker()

	svc := appointments.NewService(repo, catalog,
		appointments.WithLocker(locker),
		appointments.WithMetrics(bookingMetrics),
	)
	resolver := availability.NewResolver(repo, catalog, bookingMetrics)
	directory := customers.NewClient(customers.Config{
		UseMock: cfg.FieldsterUseMock,
		BaseURL: cfg.FieldsterBaseURL,
		APIKey:  cfg.FieldsterAPIKey,
		Timeout: cfg.FieldsterTimeout,
	}, log, bookingMetrics)

	handler := httpTransport.NewRouter(httpTransport.Config{
		Logger:         log,
		Appointments:   httpTransport.NewAppointmentsHandler(svc, log),
		Availability:   httpTransport.NewAvailabilityHandler(resolver, log),
		Customers:      httpTransport.NewCustomersHandler(directory, log),
		Catalog:        catalog,
		Store:          repo,
		DirectoryEnv:   directory.Health,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORS:           httpTransport.CORSPolicy{AllowedOrigins: cfg.CORSAllowedOrigins, MaxAge: 10 * time.Minute},
		RequestTimeout: cfg.HTTPRequestTimeout,
		BodyLimit:      cfg.HTTPBodyLimit,
		Tracing:        cfg.OTelEnabled,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr()))

	var (
		grpcServer *grpc.Server
		health     *grpcTransport.HealthServer
	)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
			os.Exit(1)
		}
		grpcServer = grpc.NewServer(
			grpc.UnaryInterceptor(defaultRequestTimeoutInterceptor(cfg.HTTPRequestTimeout)),
		)
		health = grpcTransport.NewHealthServer(repo, cfg.GRPCHealthInterval, log)
		health.Register(grpcServer)
		go health.Run(ctx)
		go func() {
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		log.Info("grpc health server started", slog.String("grpc_addr", cfg.GRPCAddr))
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server stopped with error", slog.Any("err", err))
		stop()
	}

	if health != nil {
		health.Shutdown()
	}
	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
}

func openStore(ctx context.Context, log *slog.Logger, cfg config.Config) (store.AppointmentRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store; appointments are lost on restart")
		return memory.NewAppointmentRepo(), func() {}, nil
	case config.StorePostgres:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}
		return postgres.NewAppointmentRepo(db), closeFn, nil
	default:
		repo := file.NewAppointmentRepo(cfg.StoreFilePath)
		if err := repo.Ping(ctx); err != nil {
			return nil, nil, err
		}
		log.Info("using file store", slog.String("path", repo.Path()))
		return repo, func() {}, nil
	}
}

func openLocker(ctx context.Context, log *slog.Logger, cfg config.Config) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("using redis date lock", slog.String("redis_addr", opts.Addr))
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close failed", slog.Any("err", err))
		}
	}
	return lock.NewRedisLocker(rdb, lock.RedisConfig{TTL: cfg.LockTTL, Wait: cfg.LockWait}, log), closeFn, nil
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, hs *http.Server, gs *grpc.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if gs != nil {
			gs.GracefulStop()
		}
		close(done)
	}()

	if err := hs.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	} else {
		log.Info("http server stopped")
	}

	select {
	case <-done:
		if gs != nil {
			log.Info("grpc server stopped")
		}
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		gs.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
