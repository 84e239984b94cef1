// Package slots keeps the unavailable slots of each configured feed in step
// with the feed.
package slots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"timeblock/internal/domain"
	"timeblock/internal/ics"
	"timeblock/internal/store"
)

const DefaultHorizonDays = 84

type Fetcher interface {
	Fetch(ctx context.Context, src ics.Source) (ics.FetchResult, error)
}

type Config struct {
	Sources     []ics.Source
	Location    *time.Location
	HorizonDays int
	// SyncTimeout bounds one scheduled run. Zero means one minute.
	SyncTimeout time.Duration
}

type Syncer struct {
	repo    store.CalendarRepository
	fetcher Fetcher
	clock   domain.Clock
	cfg     Config
	log     *slog.Logger
}

func NewSyncer(repo store.CalendarRepository, fetcher Fetcher, clock domain.Clock, cfg Config, log *slog.Logger) *Syncer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = time.Minute
	}
	if clock == nil {
		clock = domain.SystemClock{Location: cfg.Location}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{repo: repo, fetcher: fetcher, clock: clock, cfg: cfg, log: log}
}

// Result describes one source of a sync run.
type Result struct {
	Source    string
	Slots     int
	FromCache bool
	Err       error
}

// Window is [today, today+horizon) as local midnights.
func (s *Syncer) Window() ics.Window {
	t := s.clock.Today().Time()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
	return ics.Window{Start: start, End: start.AddDate(0, 0, s.cfg.HorizonDays)}
}

// Sync refreshes every source. A failing source keeps its previous slots;
// the returned error joins every source failure.
func (s *Syncer) Sync(ctx context.Context) ([]Result, error) {
	w := s.Window()
	results := make([]Result, 0, len(s.cfg.Sources))
	var errs []error
	for _, src := range s.cfg.Sources {
		res := s.syncSource(ctx, src, w)
		if res.Err != nil {
			errs = append(errs, res.Err)
			s.log.WarnContext(ctx, "feed sync failed", slog.String("source", src.ID), slog.Any("err", res.Err))
		} else {
			s.log.InfoContext(ctx, "feed synced", slog.String("source", src.ID), slog.Int("slots", res.Slots), slog.Bool("from_cache", res.FromCache))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Syncer) syncSource(ctx context.Context, src ics.Source, w ics.Window) Result {
	res := Result{Source: src.ID}

	fetched, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		res.Err = err
		return res
	}
	res.FromCache = fetched.FromCache

	parsed, err := ics.Parse(fetched.Body, s.cfg.Location)
	if err != nil {
		res.Err = fmt.Errorf("source %s: %w", src.ID, err)
		return res
	}
	if parsed.Skipped > 0 {
		s.log.WarnContext(ctx, "feed events skipped", slog.String("source", src.ID), slog.Int("skipped", parsed.Skipped))
	}

	slots, err := ics.Slots(parsed.Events, w, s.cfg.Location)
	if err != nil {
		res.Err = fmt.Errorf("source %s: %w", src.ID, err)
		return res
	}

	err = s.repo.InCalendarTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
		return tx.ReplaceUnavailableSlots(ctx, src.ID, slots)
	})
	if err != nil {
		res.Err = fmt.Errorf("source %s: store slots: %w", src.ID, err)
		return res
	}
	res.Slots = len(slots)
	return res
}

// Schedule runs Sync on spec (standard five-field cron syntax). Runs never
// overlap. The caller starts and stops the returned scheduler.
func (s *Syncer) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, s.cfg.SyncTimeout)
		defer cancel()
		_, _ = s.Sync(runCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("feed refresh schedule %q: %w", spec, err)
	}
	return c, nil
}
