package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeblock/internal/domain"
	"timeblock/internal/ics"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TIMEBLOCK_CALENDAR_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:50051", cfg.GRPCAddr())
	assert.Equal(t, "sqlite:timeblock.db", cfg.DatabaseURL)
	assert.Equal(t, 10*time.Second, cfg.GRPCRequestTimeout)
	assert.Equal(t, domain.SeriesPolicyFirstOccurrence, cfg.SeriesValidation)
	assert.Equal(t, 9, cfg.WorkStartHour)
	assert.Equal(t, 20, cfg.WorkEndHour)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 84, cfg.FeedHorizonDays)
	assert.Empty(t, cfg.FeedSources)
	assert.Empty(t, cfg.OTelEndpoint)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TIMEBLOCK_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("TIMEBLOCK_CALENDAR_SERIES_VALIDATION", "every")
	t.Setenv("TIMEBLOCK_CALENDAR_TIMEZONE", "Europe/Moscow")
	t.Setenv("TIMEBLOCK_FEEDS_SOURCES", "work=https://example.com/a.ics, home=https://example.com/b.ics")
	t.Setenv("TIMEBLOCK_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", cfg.GRPCAddr())
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.DatabaseURL)
	assert.Equal(t, domain.SeriesPolicyEveryOccurrence, cfg.SeriesValidation)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []ics.Source{
		{ID: "work", URL: "https://example.com/a.ics"},
		{ID: "home", URL: "https://example.com/b.ics"},
	}, cfg.FeedSources)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"TIMEBLOCK_CALENDAR_SERIES_VALIDATION": "sometimes",
		"TIMEBLOCK_CALENDAR_TIMEZONE":          "Mars/Olympus",
		"TIMEBLOCK_GRPC_REQUEST_TIMEOUT":       "soon",
		"TIMEBLOCK_FEEDS_SOURCES":              "no-url",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv("TIMEBLOCK_CALENDAR_TIMEZONE", "UTC")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseFeedSources(t *testing.T) {
	got, err := ParseFeedSources(" a=https://x/1.ics ,,b=https://x/2.ics")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ParseFeedSources("a=https://x/1.ics,a=https://x/2.ics")
	assert.ErrorContains(t, err, "duplicate")

	_, err = ParseFeedSources("=https://x/1.ics")
	assert.Error(t, err)
}
