package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"timeblock/internal/domain"
	"timeblock/internal/i18n"
	"timeblock/internal/service/agenda"
	"timeblock/internal/service/appointments"
	"timeblock/internal/store"
)

// RejectionReasonTrailer carries the machine-readable reason of a rejected
// candidate next to the localized status message.
const RejectionReasonTrailer = "x-rejection-reason"

type AppointmentsServer struct {
	svc    appointmentsService
	agenda agendaService
	log    *slog.Logger
}

var _ AppointmentsServiceServer = (*AppointmentsServer)(nil)

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) ([]domain.Appointment, error)
	Update(ctx context.Context, in appointments.UpdateInput) (domain.Appointment, error)
	Move(ctx context.Context, id, date, startTime string) (domain.Appointment, error)
	Delete(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, seriesID string) (int, error)
	List(ctx context.Context, from, to string) ([]domain.Appointment, error)
	ListUnavailable(ctx context.Context, from, to string) ([]domain.UnavailableSlot, error)
}

type agendaService interface {
	Get(ctx context.Context, from, to string, duration int) (agenda.Agenda, error)
}

func NewAppointmentsServer(svc appointmentsService, agendaSvc agendaService, log *slog.Logger) *AppointmentsServer {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsServer{
		svc:    svc,
		agenda: agendaSvc,
		log:    log.With(slog.String("component", "grpc.appointments")),
	}
}

func (s *AppointmentsServer) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*CreateAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appts, err := s.svc.Create(ctx, appointments.CreateInput{
		Title:           req.Title,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		IsRecurring:     req.IsRecurring,
		IdempotencyKey:  idempotencyKey(ctx),
	})
	if err != nil {
		return nil, s.statusError(ctx, log, "appointment create", err,
			slog.String("date", req.Date),
			slog.String("start_time", req.StartTime),
			slog.Bool("is_recurring", req.IsRecurring),
		)
	}

	if len(appts) > 0 {
		log.Info(
			"appointment created",
			slog.String("appointment_id", appts[0].ID),
			slog.String("date", appts[0].Date),
			slog.String("start_time", appts[0].StartTime),
			slog.Int("count", len(appts)),
		)
	}

	return &CreateAppointmentResponse{Appointments: toWireAppointments(appts)}, nil
}

func (s *AppointmentsServer) UpdateAppointment(ctx context.Context, req *UpdateAppointmentRequest) (*UpdateAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appt, err := s.svc.Update(ctx, appointments.UpdateInput{
		ID:              req.ID,
		Title:           req.Title,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return nil, s.statusError(ctx, log, "appointment update", err, slog.String("appointment_id", req.ID))
	}

	log.Info("appointment updated", slog.String("appointment_id", appt.ID), slog.String("date", appt.Date))
	return &UpdateAppointmentResponse{Appointment: toWireAppointment(appt)}, nil
}

func (s *AppointmentsServer) MoveAppointment(ctx context.Context, req *MoveAppointmentRequest) (*MoveAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "MoveAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appt, err := s.svc.Move(ctx, req.ID, req.Date, req.StartTime)
	if err != nil {
		return nil, s.statusError(ctx, log, "appointment move", err,
			slog.String("appointment_id", req.ID),
			slog.String("date", req.Date),
			slog.String("start_time", req.StartTime),
		)
	}

	log.Info(
		"appointment moved",
		slog.String("appointment_id", appt.ID),
		slog.String("date", appt.Date),
		slog.String("start_time", appt.StartTime),
	)
	return &MoveAppointmentResponse{Appointment: toWireAppointment(appt)}, nil
}

func (s *AppointmentsServer) DeleteAppointment(ctx context.Context, req *DeleteAppointmentRequest) (*DeleteAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := s.svc.Delete(ctx, req.ID); err != nil {
		return nil, s.statusError(ctx, log, "appointment delete", err, slog.String("appointment_id", req.ID))
	}

	log.Info("appointment deleted", slog.String("appointment_id", req.ID))
	return &DeleteAppointmentResponse{}, nil
}

func (s *AppointmentsServer) DeleteSeries(ctx context.Context, req *DeleteSeriesRequest) (*DeleteSeriesResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteSeries"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	n, err := s.svc.DeleteSeries(ctx, req.SeriesID)
	if err != nil {
		return nil, s.statusError(ctx, log, "series delete", err, slog.String("series_id", req.SeriesID))
	}

	log.Info("series deleted", slog.String("series_id", req.SeriesID), slog.Int("count", n))
	return &DeleteSeriesResponse{Deleted: n}, nil
}

func (s *AppointmentsServer) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appts, err := s.svc.List(ctx, req.From, req.To)
	if err != nil {
		return nil, s.statusError(ctx, log, "appointments list", err, slog.String("from", req.From), slog.String("to", req.To))
	}

	log.Debug(
		"appointments listed",
		slog.Int("count", len(appts)),
		slog.String("from", req.From),
		slog.String("to", req.To),
	)
	return &ListAppointmentsResponse{Appointments: toWireAppointments(appts)}, nil
}

func (s *AppointmentsServer) ListUnavailableSlots(ctx context.Context, req *ListUnavailableSlotsRequest) (*ListUnavailableSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListUnavailableSlots"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	slots, err := s.svc.ListUnavailable(ctx, req.From, req.To)
	if err != nil {
		return nil, s.statusError(ctx, log, "unavailable slots list", err, slog.String("from", req.From), slog.String("to", req.To))
	}

	log.Debug("unavailable slots listed", slog.Int("count", len(slots)))
	return &ListUnavailableSlotsResponse{Slots: toWireSlots(slots)}, nil
}

func (s *AppointmentsServer) GetAgenda(ctx context.Context, req *GetAgendaRequest) (*GetAgendaResponse, error) {
	log := s.log.With(slog.String("rpc", "GetAgenda"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	a, err := s.agenda.Get(ctx, req.From, req.To, req.DurationMinutes)
	if err != nil {
		return nil, s.statusError(ctx, log, "agenda", err, slog.String("from", req.From), slog.String("to", req.To))
	}

	log.Debug("agenda served", slog.Int("days", len(a.Days)), slog.Bool("first_free", a.HasFirstFree))
	return toWireAgenda(a), nil
}

// statusError maps a service error to a gRPC status and logs it at a level
// matching its cause.
func (s *AppointmentsServer) statusError(ctx context.Context, log *slog.Logger, op string, err error, attrs ...any) error {
	var rej *domain.RejectedError
	if errors.As(err, &rej) {
		log.Info(op+" rejected", append(attrs, slog.String("reason", string(rej.Reason)), slog.String("rejected_date", rej.Date))...)
		_ = grpclib.SetTrailer(ctx, metadata.Pairs(RejectionReasonTrailer, string(rej.Reason)))

		msg := i18n.Reason(i18n.Match(acceptLanguage(ctx)), rej.Reason)
		if rej.Date != "" {
			msg += " (" + rej.Date + ")"
		}
		code := codes.InvalidArgument
		if rej.Reason.IsConflict() {
			code = codes.FailedPrecondition
		}
		return status.Error(code, msg)
	}
	if errors.Is(err, store.ErrNotFound) {
		log.Info(op+" not found", attrs...)
		return status.Error(codes.NotFound, "not found")
	}
	if errors.Is(err, store.ErrIdempotencyConflict) {
		log.Info(op+" idempotency conflict", attrs...)
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different appointment. Try again.")
	}
	var vErr *appointments.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", append(attrs, slog.Any("err", err))...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	}
	if errors.Is(err, agenda.ErrInvalidRange) {
		log.Warn("invalid request", append(attrs, slog.Any("err", err))...)
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn(op+" timed out", attrs...)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "request canceled")
	}
	log.Error(op+" failed", append(attrs, slog.Any("err", err))...)
	return status.Error(codes.Internal, "internal error")
}

func idempotencyKey(ctx context.Context) string {
	return firstMetadata(ctx, "idempotency-key", "x-idempotency-key")
}

func acceptLanguage(ctx context.Context) string {
	return firstMetadata(ctx, "accept-language")
}

func firstMetadata(ctx context.Context, keys ...string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, k := range keys {
		if values := md.Get(k); len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

func toWireAppointment(a domain.Appointment) Appointment {
	return Appointment{
		ID:              a.ID,
		Title:           a.Title,
		Date:            a.Date,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		IsRecurring:     a.IsRecurring,
		SeriesID:        a.SeriesID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toWireAppointments(appts []domain.Appointment) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, toWireAppointment(a))
	}
	return out
}

func toWireSlots(slots []domain.UnavailableSlot) []UnavailableSlot {
	out := make([]UnavailableSlot, 0, len(slots))
	for _, sl := range slots {
		out = append(out, UnavailableSlot{
			Source:      sl.Source,
			ExternalUID: sl.ExternalUID,
			Title:       sl.Title,
			Date:        sl.Date,
			StartTime:   sl.StartTime,
			EndTime:     sl.EndTime,
		})
	}
	return out
}

func toWireAgenda(a agenda.Agenda) *GetAgendaResponse {
	out := &GetAgendaResponse{
		Today:         a.Today,
		WorkStartHour: a.WorkDay.StartHour,
		WorkEndHour:   a.WorkDay.EndHour,
		Days:          make([]AgendaDay, 0, len(a.Days)),
	}
	for _, d := range a.Days {
		out.Days = append(out.Days, AgendaDay{
			Date:              d.Date,
			Weekday:           d.Weekday.String(),
			Appointments:      toWireAppointments(d.Appointments),
			Unavailable:       toWireSlots(d.Unavailable),
			OccupiedMinutes:   d.OccupiedMinutes,
			HasAvailableSlots: d.HasAvailableSlots,
			FullyBooked:       d.FullyBooked,
		})
	}
	if a.HasFirstFree {
		out.FirstFree = &FreeSlot{Date: a.FirstFree.Date, StartTime: a.FirstFree.StartTime}
	}
	return out
}
