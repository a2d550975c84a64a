package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"barberpro/backend/internal/cache"
	"barberpro/backend/internal/config"
	"barberpro/backend/internal/service/availability"
	"barberpro/backend/internal/service/booking"
	"barberpro/backend/internal/service/schedule"
	"barberpro/backend/internal/service/timeoff"
	"barberpro/backend/internal/store"
	"barberpro/backend/internal/store/memory"
	"barberpro/backend/internal/store/postgres"
	"barberpro/backend/internal/telemetry"
	grpcTransport "barberpro/backend/internal/transport/grpc"
	httpTransport "barberpro/backend/internal/transport/http"
)

const healthPollInterval = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)
	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("store", cfg.StoreDriver),
		slog.String("cache", cfg.CacheDriver),
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
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	slotCache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	resolver := availability.NewResolver(st,
		availability.WithStep(cfg.SlotStep),
		availability.WithCache(slotCache),
	)
	bookings := booking.NewManager(st, slotCache, log)
	workflow := timeoff.NewWorkflow(st, log,
		timeoff.WithLocation(loc),
		timeoff.WithMinReasonLength(cfg.MinTimeOffReasonLen),
		timeoff.WithInvalidator(slotCache),
	)
	planner := schedule.NewPlanner(st, slotCache, log)

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcTransport.UnaryServerRequestIDInterceptor(),
			grpcTransport.DefaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
		),
	}
	if cfg.OTelEnabled {
		serverOpts = append(serverOpts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	grpcServer := grpc.NewServer(serverOpts...)
	grpcTransport.RegisterBookingEngineServer(grpcServer, grpcTransport.NewBookingServer(grpcTransport.Services{
		Slots:    resolver,
		Bookings: bookings,
		TimeOff:  workflow,
		Schedule: planner,
	}, log))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	httpServer := &stdhttp.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpTransport.NewServer(httpTransport.Services{
			Slots:    resolver,
			Bookings: bookings,
			TimeOff:  workflow,
			Store:    st,
		}, log, httpTransport.Options{
			RateLimit: cfg.HTTPRateLimit,
			Tracing:   cfg.OTelEnabled,
		}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", cfg.GRPCAddr(), err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		watchHealth(gctx, log, st, healthServer)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		healthServer.Shutdown()
		shutdownHTTP(log, httpServer, cfg.ShutdownTimeout)
		shutdownGRPC(log, grpcServer, cfg.ShutdownTimeout)
		return nil
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closeFn := func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}
	return postgres.NewStore(db, postgres.Options{
		Timeout:    cfg.StoreTimeout,
		MaxRetries: cfg.StoreMaxRetries,
		Logger:     log,
	}), closeFn, nil
}

func openCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.SlotCache, func(), error) {
	switch cfg.CacheDriver {
	case "lru":
		c, err := cache.NewLRU(cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("create lru cache: %w", err)
		}
		return c, func() {}, nil
	case "redis":
		rdb := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		c := cache.NewRedis(rdb, cfg.CacheTTL, log)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			// The cache is optional; keep serving from the store.
			log.Warn("redis unreachable at startup", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
		}
		return c, func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}, nil
	}
	return cache.Nop{}, func() {}, nil
}

// watchHealth mirrors store reachability into the gRPC health service.
func watchHealth(ctx context.Context, log *slog.Logger, st store.Store, hs *health.Server) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if err := st.Ping(pingCtx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("store ping failed", slog.Any("err", err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(grpcTransport.ServiceName, status)
	}

	check()
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func shutdownHTTP(log *slog.Logger, s *stdhttp.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
		return
	}
	log.Info("http server stopped")
}

func shutdownGRPC(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}
