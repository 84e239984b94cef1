package store

import (
	"context"

	"timeblock/internal/domain"
)

// CalendarTx is the view of the calendar inside one transaction. The
// validate-then-persist sequence of every write runs against a single
// CalendarTx so concurrent writers cannot both pass validation.
type CalendarTx interface {
	ListAppointments(ctx context.Context, dates []string) ([]domain.Appointment, error)
	ListAppointmentsBetween(ctx context.Context, from, to string) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, id string) (domain.Appointment, error)
	// ListSeries returns every appointment of the series in date order.
	ListSeries(ctx context.Context, seriesID string) ([]domain.Appointment, error)
	// InsertAppointments writes the batch and stamps its timestamps in place.
	InsertAppointments(ctx context.Context, batch []domain.Appointment) error
	UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, seriesID string) (int, error)

	ListUnavailableSlots(ctx context.Context, dates []string) ([]domain.UnavailableSlot, error)
	ListUnavailableSlotsBetween(ctx context.Context, from, to string) ([]domain.UnavailableSlot, error)
	ReplaceUnavailableSlots(ctx context.Context, source string, slots []domain.UnavailableSlot) error
}

// CalendarRepository is the persistence collaborator. Date bounds are
// inclusive YYYY-MM-DD strings.
type CalendarRepository interface {
	InCalendarTransaction(ctx context.Context, fn func(ctx context.Context, tx CalendarTx) error) error
	ListAppointmentsBetween(ctx context.Context, from, to string) ([]domain.Appointment, error)
	ListUnavailableSlotsBetween(ctx context.Context, from, to string) ([]domain.UnavailableSlot, error)
}
