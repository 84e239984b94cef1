package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"timeblock/internal/domain"
	"timeblock/internal/store"
)

const calendarLockKey = "timeblock:calendar"

type CalendarRepo struct {
	db *bun.DB
}

func NewCalendarRepo(db *bun.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

// calendarTx runs queries against either the database handle or an open
// transaction.
type calendarTx struct {
	db bun.IDB
}

var _ store.CalendarRepository = (*CalendarRepo)(nil)

func (r *CalendarRepo) InCalendarTransaction(ctx context.Context, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.db.Dialect().Name() == dialect.PG {
			if err := lockCalendar(ctx, tx); err != nil {
				return err
			}
		}
		return fn(ctx, calendarTx{db: tx})
	})
}

func (r *CalendarRepo) ListAppointmentsBetween(ctx context.Context, from, to string) ([]domain.Appointment, error) {
	return calendarTx{db: r.db}.ListAppointmentsBetween(ctx, from, to)
}

func (r *CalendarRepo) ListUnavailableSlotsBetween(ctx context.Context, from, to string) ([]domain.UnavailableSlot, error) {
	return calendarTx{db: r.db}.ListUnavailableSlotsBetween(ctx, from, to)
}

// lockCalendar serializes writers on Postgres for the rest of the
// transaction. SQLite takes a database-wide write lock on its own.
func lockCalendar(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", calendarLockKey).Exec(ctx)
	return err
}

func (r calendarTx) ListAppointments(ctx context.Context, dates []string) ([]domain.Appointment, error) {
	rows := make([]domain.Appointment, 0)
	if len(dates) == 0 {
		return rows, nil
	}
	err := r.db.NewSelect().
		Model(&rows).
		Where("date IN (?)", bun.In(dates)).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) ListAppointmentsBetween(ctx context.Context, from, to string) ([]domain.Appointment, error) {
	rows := make([]domain.Appointment, 0)
	err := r.db.NewSelect().
		Model(&rows).
		Where("date >= ?", from).
		Where("date <= ?", to).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) GetAppointment(ctx context.Context, id string) (domain.Appointment, error) {
	var row domain.Appointment
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return row, nil
}

func (r calendarTx) ListSeries(ctx context.Context, seriesID string) ([]domain.Appointment, error) {
	rows := make([]domain.Appointment, 0)
	err := r.db.NewSelect().
		Model(&rows).
		Where("series_id = ?", seriesID).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) InsertAppointments(ctx context.Context, batch []domain.Appointment) error {
	if len(batch) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&batch).Exec(ctx)
	return err
}

func (r calendarTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("title", "date", "start_time", "duration_minutes", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func (r calendarTx) DeleteAppointment(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r calendarTx) DeleteSeries(ctx context.Context, seriesID string) (int, error) {
	res, err := r.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("series_id = ?", seriesID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, store.ErrNotFound
	}
	return int(affected), nil
}

func (r calendarTx) ListUnavailableSlots(ctx context.Context, dates []string) ([]domain.UnavailableSlot, error) {
	rows := make([]domain.UnavailableSlot, 0)
	if len(dates) == 0 {
		return rows, nil
	}
	err := r.db.NewSelect().
		Model(&rows).
		Where("date IN (?)", bun.In(dates)).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) ListUnavailableSlotsBetween(ctx context.Context, from, to string) ([]domain.UnavailableSlot, error) {
	rows := make([]domain.UnavailableSlot, 0)
	err := r.db.NewSelect().
		Model(&rows).
		Where("date >= ?", from).
		Where("date <= ?", to).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) ReplaceUnavailableSlots(ctx context.Context, source string, slots []domain.UnavailableSlot) error {
	_, err := r.db.NewDelete().
		Model((*domain.UnavailableSlot)(nil)).
		Where("source = ?", source).
		Exec(ctx)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}

	rows := make([]domain.UnavailableSlot, 0, len(slots))
	for _, s := range slots {
		s.ID = 0
		s.Source = source
		rows = append(rows, s)
	}
	_, err = r.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}
