package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"timeblock/internal/config"
	"timeblock/internal/domain"
	"timeblock/internal/ics"
	"timeblock/internal/platform/otel"
	"timeblock/internal/service/agenda"
	"timeblock/internal/service/appointments"
	"timeblock/internal/service/slots"
	"timeblock/internal/store/sqldb"
	grpcTransport "timeblock/internal/transport/grpc"
)

const serviceName = "timeblock-server"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.String("series_validation", string(cfg.SeriesValidation)),
		slog.String("timezone", cfg.Location.String()),
	)

	otelShutdown, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Error("telemetry setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := sqldb.Open(cfg.DatabaseURL, sqldb.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := sqldb.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if err := sqldb.Migrate(ctx, db); err != nil {
		log.Error("database migration failed", slog.Any("err", err))
		os.Exit(1)
	}

	clock := domain.SystemClock{Location: cfg.Location}
	repo := sqldb.NewCalendarRepo(db)
	svc := appointments.NewService(repo,
		appointments.WithClock(clock),
		appointments.WithSeriesPolicy(cfg.SeriesValidation),
		appointments.WithLogger(log.With(slog.String("component", "appointments"))),
	)
	agendaSvc := agenda.NewService(repo, clock, agenda.WorkDay{StartHour: cfg.WorkStartHour, EndHour: cfg.WorkEndHour})

	if len(cfg.FeedSources) > 0 {
		fetcher := ics.NewFetcher(&http.Client{Timeout: 30 * time.Second}, log)
		syncer := slots.NewSyncer(repo, fetcher, clock, slots.Config{
			Sources:     cfg.FeedSources,
			Location:    cfg.Location,
			HorizonDays: cfg.FeedHorizonDays,
			SyncTimeout: cfg.FeedSyncTimeout,
		}, log)

		initialSync(ctx, log, syncer, cfg.FeedSyncTimeout)
		c, err := syncer.Schedule(ctx, cfg.FeedRefresh)
		if err != nil {
			log.Error("feed schedule failed", slog.Any("err", err), slog.String("spec", cfg.FeedRefresh))
			os.Exit(1)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		log.Info("feed sync scheduled", slog.Int("sources", len(cfg.FeedSources)), slog.String("spec", cfg.FeedRefresh))
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout)),
	)
	grpcTransport.RegisterAppointmentsServiceServer(grpcServer, grpcTransport.NewAppointmentsServer(svc, agendaSvc, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

type feedSyncer interface {
	Sync(ctx context.Context) ([]slots.Result, error)
}

// initialSync fills the slot table once before serving, bounded like a
// scheduled run so an unreachable feed cannot hold up start-up.
func initialSync(ctx context.Context, log *slog.Logger, s feedSyncer, timeout time.Duration) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := s.Sync(ctx); err != nil {
		log.Warn("initial feed sync incomplete", slog.Any("err", err))
	}
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

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
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

// databaseLogArgs describes the target database without credentials.
func databaseLogArgs(databaseURL string) []any {
	if strings.HasPrefix(databaseURL, "sqlite:") || strings.HasPrefix(databaseURL, "file:") {
		path := strings.TrimPrefix(strings.TrimPrefix(databaseURL, "sqlite:"), "//")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		return []any{slog.String("db_driver", "sqlite"), slog.String("db_path", path)}
	}

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
		slog.String("db_driver", "postgres"),
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
