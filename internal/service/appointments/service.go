package appointments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"timeblock/internal/domain"
	"timeblock/internal/store"
)

const maxIdempotencyKeyLength = 256

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type uuidV7 struct{}

func (uuidV7) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// keyedIDs derives the n-th id of a create request from its idempotency key,
// so a replay reproduces the same ids in the same order.
type keyedIDs struct {
	key string
	n   int
}

func (k *keyedIDs) NewID() (string, error) {
	name := "timeblock:create_appointment:" + k.key + ":" + strconv.Itoa(k.n)
	k.n++
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(), nil
}

type Service struct {
	repo   store.CalendarRepository
	clock  domain.Clock
	ids    domain.IDGenerator
	policy domain.SeriesPolicy
	log    *slog.Logger
}

type Option func(*Service)

func WithClock(c domain.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithIDGenerator(g domain.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

func WithSeriesPolicy(p domain.SeriesPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(repo store.CalendarRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		clock:  domain.SystemClock{},
		ids:    uuidV7{},
		policy: domain.SeriesPolicyFirstOccurrence,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
	IsRecurring     bool
	IdempotencyKey  string
}

// Create validates and persists a one-off appointment or a weekly series and
// returns what was written: one appointment, or every occurrence in date
// order.
func (s *Service) Create(ctx context.Context, in CreateInput) ([]domain.Appointment, error) {
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLength {
		return nil, validationError("idempotency_key too long")
	}

	c := domain.Candidate{
		Title:           in.Title,
		Date:            in.Date,
		StartTime:       in.StartTime,
		DurationMinutes: in.DurationMinutes,
		IsRecurring:     in.IsRecurring,
	}
	today := s.clock.Today()

	var out []domain.Appointment
	err := s.repo.InCalendarTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
		ids := s.ids
		if key != "" {
			ids = &keyedIDs{key: key}
		}

		if c.IsRecurring {
			if _, err := domain.ParseDay(c.Date); err != nil {
				return domain.Validate(c, domain.ConflictSet{}, today).Err()
			}
		}
		batch, err := build(c, ids)
		if err != nil {
			return err
		}

		if key != "" {
			stored, found, err := replay(ctx, tx, batch)
			if err != nil {
				return err
			}
			if found {
				out = stored
				return nil
			}
		}

		checked := s.policy.Occurrences(batch)
		set, err := snapshot(ctx, tx, dates(checked))
		if err != nil {
			return err
		}
		for i, occ := range checked {
			v := domain.Validate(occ.Candidate(), set, today)
			if v.OK() {
				continue
			}
			rej := &domain.RejectedError{Reason: v.Reason}
			if i > 0 {
				rej.Date = occ.Date
			}
			return rej
		}

		if err := tx.InsertAppointments(ctx, batch); err != nil {
			return err
		}
		out = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out) > 1 {
		s.log.InfoContext(ctx, "series created",
			slog.String("series_id", out[0].SeriesID),
			slog.Int("occurrences", len(out)),
			slog.String("first_date", out[0].Date),
		)
	}
	return out, nil
}

func build(c domain.Candidate, ids domain.IDGenerator) ([]domain.Appointment, error) {
	template := domain.Appointment{
		Title:           domain.NormalizeTitle(c.Title),
		Date:            c.Date,
		StartTime:       c.StartTime,
		DurationMinutes: c.DurationMinutes,
	}
	if c.IsRecurring {
		return domain.ExpandWeekly(template, ids)
	}
	id, err := ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("appointment id: %w", err)
	}
	template.ID = id
	return []domain.Appointment{template}, nil
}

// replay looks up a batch written earlier under the same idempotency key.
// The first keyed id anchors the batch: it is the appointment id of a one-off
// and the series id of a weekly series, so either shape of an earlier request
// is found whatever the new request looks like. Anything stored that is not
// exactly the expected batch is ErrIdempotencyConflict.
func replay(ctx context.Context, tx store.CalendarTx, expected []domain.Appointment) ([]domain.Appointment, bool, error) {
	anchor := expected[0].ID
	if expected[0].SeriesID != "" {
		anchor = expected[0].SeriesID
	}

	var stored []domain.Appointment
	one, err := tx.GetAppointment(ctx, anchor)
	switch {
	case err == nil:
		stored = append(stored, one)
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	}
	series, err := tx.ListSeries(ctx, anchor)
	if err != nil {
		return nil, false, err
	}
	stored = append(stored, series...)

	if len(stored) == 0 {
		return nil, false, nil
	}
	if len(stored) != len(expected) {
		return nil, false, store.ErrIdempotencyConflict
	}

	byID := make(map[string]domain.Appointment, len(expected))
	for _, e := range expected {
		byID[e.ID] = e
	}
	for _, r := range stored {
		e, ok := byID[r.ID]
		if !ok || !sameContent(r, e) {
			return nil, false, store.ErrIdempotencyConflict
		}
		delete(byID, r.ID)
	}
	return stored, true, nil
}

func sameContent(a, b domain.Appointment) bool {
	return a.Title == b.Title &&
		a.Date == b.Date &&
		a.StartTime == b.StartTime &&
		a.DurationMinutes == b.DurationMinutes &&
		a.IsRecurring == b.IsRecurring &&
		a.SeriesID == b.SeriesID
}

func dates(appts []domain.Appointment) []string {
	out := make([]string, 0, len(appts))
	seen := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		if _, ok := seen[a.Date]; ok {
			continue
		}
		seen[a.Date] = struct{}{}
		out = append(out, a.Date)
	}
	return out
}

func snapshot(ctx context.Context, tx store.CalendarTx, dates []string) (domain.ConflictSet, error) {
	appts, err := tx.ListAppointments(ctx, dates)
	if err != nil {
		return domain.ConflictSet{}, err
	}
	slots, err := tx.ListUnavailableSlots(ctx, dates)
	if err != nil {
		return domain.ConflictSet{}, err
	}
	if slots == nil {
		slots = []domain.UnavailableSlot{}
	}
	return domain.ConflictSet{Appointments: appts, Unavailable: slots}, nil
}

type UpdateInput struct {
	ID              string
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
}

// Update edits one stored appointment. The recurrence flag and series id of
// the stored record are kept.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Appointment, error) {
	if strings.TrimSpace(in.ID) == "" {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	today := s.clock.Today()

	var out domain.Appointment
	err := s.repo.InCalendarTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
		current, err := tx.GetAppointment(ctx, in.ID)
		if err != nil {
			return err
		}

		c := current.Candidate()
		c.Title = in.Title
		c.Date = in.Date
		c.StartTime = in.StartTime
		c.DurationMinutes = in.DurationMinutes

		set, err := snapshot(ctx, tx, []string{c.Date})
		if err != nil {
			return err
		}
		set.ExcludeID = current.ID
		if err := domain.Validate(c, set, today).Err(); err != nil {
			return err
		}

		out, err = tx.UpdateAppointment(ctx, domain.Apply(current, c))
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

// Move reschedules one appointment. A rejected move leaves the stored
// placement untouched.
func (s *Service) Move(ctx context.Context, id, date, startTime string) (domain.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	today := s.clock.Today()

	var out domain.Appointment
	err := s.repo.InCalendarTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
		current, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		set, err := snapshot(ctx, tx, []string{date})
		if err != nil {
			return err
		}
		if err := domain.ValidateMove(current, date, startTime, set, today).Err(); err != nil {
			return err
		}

		out, err = tx.UpdateAppointment(ctx, domain.Apply(current, domain.Moved(current, date, startTime)))
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("appointment_id is required")
	}
	return s.repo.InCalendarTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
		return tx.DeleteAppointment(ctx, id)
	})
}

// DeleteSeries removes every appointment of the series in one transaction and
// returns how many were removed.
func (s *Service) DeleteSeries(ctx context.Context, seriesID string) (int, error) {
	if strings.TrimSpace(seriesID) == "" {
		return 0, validationError("series_id is required")
	}
	var n int
	err := s.repo.InCalendarTransaction(ctx, func(ctx context.Context, tx store.CalendarTx) error {
		var err error
		n, err = tx.DeleteSeries(ctx, seriesID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.InfoContext(ctx, "series deleted", slog.String("series_id", seriesID), slog.Int("occurrences", n))
	return n, nil
}

func (s *Service) List(ctx context.Context, from, to string) ([]domain.Appointment, error) {
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}
	return s.repo.ListAppointmentsBetween(ctx, from, to)
}

func (s *Service) ListUnavailable(ctx context.Context, from, to string) ([]domain.UnavailableSlot, error) {
	if err := validateWindow(from, to); err != nil {
		return nil, err
	}
	return s.repo.ListUnavailableSlotsBetween(ctx, from, to)
}

func validateWindow(from, to string) error {
	start, err := domain.ParseDay(from)
	if err != nil {
		return validationError("invalid from date")
	}
	end, err := domain.ParseDay(to)
	if err != nil {
		return validationError("invalid to date")
	}
	if end < start {
		return validationError("to must not be before from")
	}
	return nil
}
