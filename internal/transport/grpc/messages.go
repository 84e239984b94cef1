package grpc

import (
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Wire messages of timeblock.v1.Appointments. Dates are YYYY-MM-DD and
// clock times HH:MM in the calendar's wall-clock zone.

// wireMessage is a top-level request or response that maps onto its message
// in the timeblock.v1 schema.
type wireMessage interface {
	protoName() string
	writeProto(m protoreflect.Message)
	readProto(m protoreflect.Message)
}

type Appointment struct {
	ID              string
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
	IsRecurring     bool
	SeriesID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a *Appointment) writeProto(m protoreflect.Message) {
	setString(m, "id", a.ID)
	setString(m, "title", a.Title)
	setString(m, "date", a.Date)
	setString(m, "start_time", a.StartTime)
	setInt(m, "duration_minutes", a.DurationMinutes)
	setBool(m, "is_recurring", a.IsRecurring)
	setString(m, "series_id", a.SeriesID)
	setTime(m, "created_at", a.CreatedAt)
	setTime(m, "updated_at", a.UpdatedAt)
}

func (a *Appointment) readProto(m protoreflect.Message) {
	a.ID = getString(m, "id")
	a.Title = getString(m, "title")
	a.Date = getString(m, "date")
	a.StartTime = getString(m, "start_time")
	a.DurationMinutes = getInt(m, "duration_minutes")
	a.IsRecurring = getBool(m, "is_recurring")
	a.SeriesID = getString(m, "series_id")
	a.CreatedAt = getTime(m, "created_at")
	a.UpdatedAt = getTime(m, "updated_at")
}

type UnavailableSlot struct {
	Source      string
	ExternalUID string
	Title       string
	Date        string
	StartTime   string
	EndTime     string
}

func (s *UnavailableSlot) writeProto(m protoreflect.Message) {
	setString(m, "source", s.Source)
	setString(m, "external_uid", s.ExternalUID)
	setString(m, "title", s.Title)
	setString(m, "date", s.Date)
	setString(m, "start_time", s.StartTime)
	setString(m, "end_time", s.EndTime)
}

func (s *UnavailableSlot) readProto(m protoreflect.Message) {
	s.Source = getString(m, "source")
	s.ExternalUID = getString(m, "external_uid")
	s.Title = getString(m, "title")
	s.Date = getString(m, "date")
	s.StartTime = getString(m, "start_time")
	s.EndTime = getString(m, "end_time")
}

func writeAppointments(m protoreflect.Message, name string, appts []Appointment) {
	for i := range appts {
		appendMessage(m, name, appts[i].writeProto)
	}
}

func readAppointments(m protoreflect.Message, name string) []Appointment {
	out := []Appointment{}
	eachMessage(m, name, func(e protoreflect.Message) {
		var a Appointment
		a.readProto(e)
		out = append(out, a)
	})
	return out
}

func writeSlots(m protoreflect.Message, name string, slots []UnavailableSlot) {
	for i := range slots {
		appendMessage(m, name, slots[i].writeProto)
	}
}

func readSlots(m protoreflect.Message, name string) []UnavailableSlot {
	out := []UnavailableSlot{}
	eachMessage(m, name, func(e protoreflect.Message) {
		var s UnavailableSlot
		s.readProto(e)
		out = append(out, s)
	})
	return out
}

type CreateAppointmentRequest struct {
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
	IsRecurring     bool
}

func (*CreateAppointmentRequest) protoName() string { return "CreateAppointmentRequest" }

func (r *CreateAppointmentRequest) writeProto(m protoreflect.Message) {
	setString(m, "title", r.Title)
	setString(m, "date", r.Date)
	setString(m, "start_time", r.StartTime)
	setInt(m, "duration_minutes", r.DurationMinutes)
	setBool(m, "is_recurring", r.IsRecurring)
}

func (r *CreateAppointmentRequest) readProto(m protoreflect.Message) {
	r.Title = getString(m, "title")
	r.Date = getString(m, "date")
	r.StartTime = getString(m, "start_time")
	r.DurationMinutes = getInt(m, "duration_minutes")
	r.IsRecurring = getBool(m, "is_recurring")
}

type CreateAppointmentResponse struct {
	Appointments []Appointment
}

func (*CreateAppointmentResponse) protoName() string { return "CreateAppointmentResponse" }

func (r *CreateAppointmentResponse) writeProto(m protoreflect.Message) {
	writeAppointments(m, "appointments", r.Appointments)
}

func (r *CreateAppointmentResponse) readProto(m protoreflect.Message) {
	r.Appointments = readAppointments(m, "appointments")
}

type UpdateAppointmentRequest struct {
	ID              string
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
}

func (*UpdateAppointmentRequest) protoName() string { return "UpdateAppointmentRequest" }

func (r *UpdateAppointmentRequest) writeProto(m protoreflect.Message) {
	setString(m, "id", r.ID)
	setString(m, "title", r.Title)
	setString(m, "date", r.Date)
	setString(m, "start_time", r.StartTime)
	setInt(m, "duration_minutes", r.DurationMinutes)
}

func (r *UpdateAppointmentRequest) readProto(m protoreflect.Message) {
	r.ID = getString(m, "id")
	r.Title = getString(m, "title")
	r.Date = getString(m, "date")
	r.StartTime = getString(m, "start_time")
	r.DurationMinutes = getInt(m, "duration_minutes")
}

type UpdateAppointmentResponse struct {
	Appointment Appointment
}

func (*UpdateAppointmentResponse) protoName() string { return "UpdateAppointmentResponse" }

func (r *UpdateAppointmentResponse) writeProto(m protoreflect.Message) {
	r.Appointment.writeProto(mutableMessage(m, "appointment"))
}

func (r *UpdateAppointmentResponse) readProto(m protoreflect.Message) {
	if a, ok := getMessage(m, "appointment"); ok {
		r.Appointment.readProto(a)
	}
}

type MoveAppointmentRequest struct {
	ID        string
	Date      string
	StartTime string
}

func (*MoveAppointmentRequest) protoName() string { return "MoveAppointmentRequest" }

func (r *MoveAppointmentRequest) writeProto(m protoreflect.Message) {
	setString(m, "id", r.ID)
	setString(m, "date", r.Date)
	setString(m, "start_time", r.StartTime)
}

func (r *MoveAppointmentRequest) readProto(m protoreflect.Message) {
	r.ID = getString(m, "id")
	r.Date = getString(m, "date")
	r.StartTime = getString(m, "start_time")
}

type MoveAppointmentResponse struct {
	Appointment Appointment
}

func (*MoveAppointmentResponse) protoName() string { return "MoveAppointmentResponse" }

func (r *MoveAppointmentResponse) writeProto(m protoreflect.Message) {
	r.Appointment.writeProto(mutableMessage(m, "appointment"))
}

func (r *MoveAppointmentResponse) readProto(m protoreflect.Message) {
	if a, ok := getMessage(m, "appointment"); ok {
		r.Appointment.readProto(a)
	}
}

type DeleteAppointmentRequest struct {
	ID string
}

func (*DeleteAppointmentRequest) protoName() string { return "DeleteAppointmentRequest" }

func (r *DeleteAppointmentRequest) writeProto(m protoreflect.Message) { setString(m, "id", r.ID) }

func (r *DeleteAppointmentRequest) readProto(m protoreflect.Message) { r.ID = getString(m, "id") }

type DeleteAppointmentResponse struct{}

func (*DeleteAppointmentResponse) protoName() string { return "DeleteAppointmentResponse" }

func (*DeleteAppointmentResponse) writeProto(protoreflect.Message) {}

func (*DeleteAppointmentResponse) readProto(protoreflect.Message) {}

type DeleteSeriesRequest struct {
	SeriesID string
}

func (*DeleteSeriesRequest) protoName() string { return "DeleteSeriesRequest" }

func (r *DeleteSeriesRequest) writeProto(m protoreflect.Message) {
	setString(m, "series_id", r.SeriesID)
}

func (r *DeleteSeriesRequest) readProto(m protoreflect.Message) {
	r.SeriesID = getString(m, "series_id")
}

type DeleteSeriesResponse struct {
	Deleted int
}

func (*DeleteSeriesResponse) protoName() string { return "DeleteSeriesResponse" }

func (r *DeleteSeriesResponse) writeProto(m protoreflect.Message) { setInt(m, "deleted", r.Deleted) }

func (r *DeleteSeriesResponse) readProto(m protoreflect.Message) { r.Deleted = getInt(m, "deleted") }

type ListAppointmentsRequest struct {
	From string
	To   string
}

func (*ListAppointmentsRequest) protoName() string { return "ListAppointmentsRequest" }

func (r *ListAppointmentsRequest) writeProto(m protoreflect.Message) {
	setString(m, "from", r.From)
	setString(m, "to", r.To)
}

func (r *ListAppointmentsRequest) readProto(m protoreflect.Message) {
	r.From = getString(m, "from")
	r.To = getString(m, "to")
}

type ListAppointmentsResponse struct {
	Appointments []Appointment
}

func (*ListAppointmentsResponse) protoName() string { return "ListAppointmentsResponse" }

func (r *ListAppointmentsResponse) writeProto(m protoreflect.Message) {
	writeAppointments(m, "appointments", r.Appointments)
}

func (r *ListAppointmentsResponse) readProto(m protoreflect.Message) {
	r.Appointments = readAppointments(m, "appointments")
}

type ListUnavailableSlotsRequest struct {
	From string
	To   string
}

func (*ListUnavailableSlotsRequest) protoName() string { return "ListUnavailableSlotsRequest" }

func (r *ListUnavailableSlotsRequest) writeProto(m protoreflect.Message) {
	setString(m, "from", r.From)
	setString(m, "to", r.To)
}

func (r *ListUnavailableSlotsRequest) readProto(m protoreflect.Message) {
	r.From = getString(m, "from")
	r.To = getString(m, "to")
}

type ListUnavailableSlotsResponse struct {
	Slots []UnavailableSlot
}

func (*ListUnavailableSlotsResponse) protoName() string { return "ListUnavailableSlotsResponse" }

func (r *ListUnavailableSlotsResponse) writeProto(m protoreflect.Message) {
	writeSlots(m, "slots", r.Slots)
}

func (r *ListUnavailableSlotsResponse) readProto(m protoreflect.Message) {
	r.Slots = readSlots(m, "slots")
}

type GetAgendaRequest struct {
	From string
	To   string
	// DurationMinutes, when positive, asks for the first free start of that
	// length.
	DurationMinutes int
}

func (*GetAgendaRequest) protoName() string { return "GetAgendaRequest" }

func (r *GetAgendaRequest) writeProto(m protoreflect.Message) {
	setString(m, "from", r.From)
	setString(m, "to", r.To)
	setInt(m, "duration_minutes", r.DurationMinutes)
}

func (r *GetAgendaRequest) readProto(m protoreflect.Message) {
	r.From = getString(m, "from")
	r.To = getString(m, "to")
	r.DurationMinutes = getInt(m, "duration_minutes")
}

type AgendaDay struct {
	Date              string
	Weekday           string
	Appointments      []Appointment
	Unavailable       []UnavailableSlot
	OccupiedMinutes   int
	HasAvailableSlots bool
	FullyBooked       bool
}

func (d *AgendaDay) writeProto(m protoreflect.Message) {
	setString(m, "date", d.Date)
	setString(m, "weekday", d.Weekday)
	writeAppointments(m, "appointments", d.Appointments)
	writeSlots(m, "unavailable", d.Unavailable)
	setInt(m, "occupied_minutes", d.OccupiedMinutes)
	setBool(m, "has_available_slots", d.HasAvailableSlots)
	setBool(m, "fully_booked", d.FullyBooked)
}

func (d *AgendaDay) readProto(m protoreflect.Message) {
	d.Date = getString(m, "date")
	d.Weekday = getString(m, "weekday")
	d.Appointments = readAppointments(m, "appointments")
	d.Unavailable = readSlots(m, "unavailable")
	d.OccupiedMinutes = getInt(m, "occupied_minutes")
	d.HasAvailableSlots = getBool(m, "has_available_slots")
	d.FullyBooked = getBool(m, "fully_booked")
}

type FreeSlot struct {
	Date      string
	StartTime string
}

type GetAgendaResponse struct {
	Today         string
	WorkStartHour int
	WorkEndHour   int
	Days          []AgendaDay
	// FirstFree is nil when no duration was asked for or nothing fits.
	FirstFree *FreeSlot
}

func (*GetAgendaResponse) protoName() string { return "GetAgendaResponse" }

func (r *GetAgendaResponse) writeProto(m protoreflect.Message) {
	setString(m, "today", r.Today)
	setInt(m, "work_start_hour", r.WorkStartHour)
	setInt(m, "work_end_hour", r.WorkEndHour)
	for i := range r.Days {
		appendMessage(m, "days", r.Days[i].writeProto)
	}
	if r.FirstFree != nil {
		free := mutableMessage(m, "first_free")
		setString(free, "date", r.FirstFree.Date)
		setString(free, "start_time", r.FirstFree.StartTime)
	}
}

func (r *GetAgendaResponse) readProto(m protoreflect.Message) {
	r.Today = getString(m, "today")
	r.WorkStartHour = getInt(m, "work_start_hour")
	r.WorkEndHour = getInt(m, "work_end_hour")
	r.Days = []AgendaDay{}
	eachMessage(m, "days", func(e protoreflect.Message) {
		var d AgendaDay
		d.readProto(e)
		r.Days = append(r.Days, d)
	})
	if free, ok := getMessage(m, "first_free"); ok {
		r.FirstFree = &FreeSlot{Date: getString(free, "date"), StartTime: getString(free, "start_time")}
	}
}
