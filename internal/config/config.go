package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"timeblock/internal/domain"
	"timeblock/internal/ics"
)

type Config struct {
	GRPCHost           string
	GRPCPort           int
	DatabaseURL        string
	ShutdownTimeout    time.Duration
	LogLevel           string
	GRPCRequestTimeout time.Duration
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetime  time.Duration
	DBConnMaxIdleTime  time.Duration

	SeriesValidation domain.SeriesPolicy
	WorkStartHour    int
	WorkEndHour      int
	Location         *time.Location

	FeedSources     []ics.Source
	FeedRefresh     string
	FeedHorizonDays int
	FeedSyncTimeout time.Duration

	OTelEndpoint string
}

func (c Config) GRPCAddr() string {
	return net.JoinHostPort(c.GRPCHost, strconv.Itoa(c.GRPCPort))
}

// Load reads the environment, after an optional .env in the working
// directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TIMEBLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.addr", "")
	v.SetDefault("grpc.request_timeout", "10s")
	v.SetDefault("database.url", "sqlite:timeblock.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("calendar.series_validation", string(domain.SeriesPolicyFirstOccurrence))
	v.SetDefault("calendar.work_start_hour", 9)
	v.SetDefault("calendar.work_end_hour", 20)
	v.SetDefault("calendar.timezone", "Local")
	v.SetDefault("feeds.sources", "")
	v.SetDefault("feeds.refresh", "@every 15m")
	v.SetDefault("feeds.horizon_days", 84)
	v.SetDefault("feeds.sync_timeout", "1m")
	v.SetDefault("otel.endpoint", "")

	_ = v.BindEnv("grpc.host", "TIMEBLOCK_GRPC_HOST", "GRPC_HOST")
	_ = v.BindEnv("grpc.port", "TIMEBLOCK_GRPC_PORT", "GRPC_PORT", "PORT")
	_ = v.BindEnv("grpc.addr", "TIMEBLOCK_GRPC_ADDR", "GRPC_ADDR")
	_ = v.BindEnv("grpc.request_timeout", "TIMEBLOCK_GRPC_REQUEST_TIMEOUT")
	_ = v.BindEnv("database.url", "TIMEBLOCK_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("database.max_open_conns", "TIMEBLOCK_DATABASE_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.max_idle_conns", "TIMEBLOCK_DATABASE_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.conn_max_lifetime", "TIMEBLOCK_DATABASE_CONN_MAX_LIFETIME")
	_ = v.BindEnv("database.conn_max_idle_time", "TIMEBLOCK_DATABASE_CONN_MAX_IDLE_TIME")
	_ = v.BindEnv("shutdown.timeout", "TIMEBLOCK_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("log.level", "TIMEBLOCK_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("calendar.series_validation", "TIMEBLOCK_CALENDAR_SERIES_VALIDATION")
	_ = v.BindEnv("calendar.work_start_hour", "TIMEBLOCK_CALENDAR_WORK_START_HOUR")
	_ = v.BindEnv("calendar.work_end_hour", "TIMEBLOCK_CALENDAR_WORK_END_HOUR")
	_ = v.BindEnv("calendar.timezone", "TIMEBLOCK_CALENDAR_TIMEZONE", "TZ")
	_ = v.BindEnv("feeds.sources", "TIMEBLOCK_FEEDS_SOURCES")
	_ = v.BindEnv("feeds.refresh", "TIMEBLOCK_FEEDS_REFRESH")
	_ = v.BindEnv("feeds.horizon_days", "TIMEBLOCK_FEEDS_HORIZON_DAYS")
	_ = v.BindEnv("feeds.sync_timeout", "TIMEBLOCK_FEEDS_SYNC_TIMEOUT")
	_ = v.BindEnv("otel.endpoint", "TIMEBLOCK_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")

	var cfg Config
	durations := map[string]*time.Duration{
		"shutdown.timeout":            &cfg.ShutdownTimeout,
		"grpc.request_timeout":        &cfg.GRPCRequestTimeout,
		"database.conn_max_lifetime":  &cfg.DBConnMaxLifetime,
		"database.conn_max_idle_time": &cfg.DBConnMaxIdleTime,
		"feeds.sync_timeout":          &cfg.FeedSyncTimeout,
	}
	for key, dst := range durations {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if addr := strings.TrimSpace(v.GetString("grpc.addr")); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err == nil {
			if host != "" {
				v.Set("grpc.host", host)
			}
			if port, err := strconv.Atoi(portStr); err == nil {
				v.Set("grpc.port", port)
			}
		}
	}

	policy, err := domain.ParseSeriesPolicy(strings.TrimSpace(v.GetString("calendar.series_validation")))
	if err != nil {
		return Config{}, fmt.Errorf("calendar.series_validation: %w", err)
	}

	loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("calendar.timezone")))
	if err != nil {
		return Config{}, fmt.Errorf("calendar.timezone: %w", err)
	}

	sources, err := ParseFeedSources(v.GetString("feeds.sources"))
	if err != nil {
		return Config{}, fmt.Errorf("feeds.sources: %w", err)
	}

	cfg.GRPCHost = strings.TrimSpace(v.GetString("grpc.host"))
	cfg.GRPCPort = v.GetInt("grpc.port")
	cfg.DatabaseURL = v.GetString("database.url")
	cfg.LogLevel = v.GetString("log.level")
	cfg.DBMaxOpenConns = v.GetInt("database.max_open_conns")
	cfg.DBMaxIdleConns = v.GetInt("database.max_idle_conns")
	cfg.SeriesValidation = policy
	cfg.WorkStartHour = v.GetInt("calendar.work_start_hour")
	cfg.WorkEndHour = v.GetInt("calendar.work_end_hour")
	cfg.Location = loc
	cfg.FeedSources = sources
	cfg.FeedRefresh = strings.TrimSpace(v.GetString("feeds.refresh"))
	cfg.FeedHorizonDays = v.GetInt("feeds.horizon_days")
	cfg.OTelEndpoint = strings.TrimSpace(v.GetString("otel.endpoint"))
	return cfg, nil
}

// ParseFeedSources reads a comma separated list of id=url pairs. Ids must be
// unique because each one owns its rows in the slot table.
func ParseFeedSources(raw string) ([]ics.Source, error) {
	var out []ics.Source
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, url, ok := strings.Cut(part, "=")
		id, url = strings.TrimSpace(id), strings.TrimSpace(url)
		if !ok || id == "" || url == "" {
			return nil, fmt.Errorf("invalid feed %q, want id=url", part)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate feed id %q", id)
		}
		seen[id] = struct{}{}
		out = append(out, ics.Source{ID: id, URL: url})
	}
	return out, nil
}
