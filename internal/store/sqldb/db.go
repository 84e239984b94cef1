package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"timeblock/internal/domain"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open connects to Postgres (postgres:// or postgresql://) or SQLite
// (sqlite:<path>, file:<path>). An in-memory SQLite database is pinned to a
// single connection so every query sees the same data.
func Open(databaseURL string, pool PoolConfig) (*bun.DB, error) {
	driver, dsn, err := driverFor(databaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		pool = PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if driver == "sqlite" {
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

func driverFor(databaseURL string) (driver, dsn string, err error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return "pgx", u, nil
	case strings.HasPrefix(u, "sqlite://"):
		return "sqlite", strings.TrimPrefix(u, "sqlite://"), nil
	case strings.HasPrefix(u, "sqlite:"):
		return "sqlite", strings.TrimPrefix(u, "sqlite:"), nil
	case strings.HasPrefix(u, "file:"):
		return "sqlite", u, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme: %q", redact(u))
	}
}

func redact(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[:i+3] + "..."
	}
	if i := strings.Index(u, ":"); i >= 0 {
		return u[:i+1] + "..."
	}
	return "..."
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Migrate creates the calendar tables and indexes if they do not exist.
func Migrate(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*domain.Appointment)(nil),
		(*domain.UnavailableSlot)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*domain.Appointment)(nil), "appointments_date_idx", "date"},
		{(*domain.Appointment)(nil), "appointments_series_id_idx", "series_id"},
		{(*domain.UnavailableSlot)(nil), "unavailable_slots_date_idx", "date"},
		{(*domain.UnavailableSlot)(nil), "unavailable_slots_source_idx", "source"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
