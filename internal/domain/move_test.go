package domain

import (
	"reflect"
	"testing"
)

func TestValidateMove_RejectedMoveLeavesPlacementUntouched(t *testing.T) {
	today := mustDay(t, "2024-06-15")
	x := Appointment{ID: "x", Title: "x", Date: "2024-06-20", StartTime: "09:00", DurationMinutes: 60}
	y := Appointment{ID: "y", Title: "y", Date: "2024-06-21", StartTime: "14:00", DurationMinutes: 60}
	before := x

	v := ValidateMove(x, "2024-06-21", "14:30", ConflictSet{Appointments: []Appointment{x, y}}, today)
	if v.Reason != ReasonEventOverlap {
		t.Fatalf("reason = %q, want %q", v.Reason, ReasonEventOverlap)
	}
	if !reflect.DeepEqual(x, before) {
		t.Fatalf("appointment mutated by rejected move: %+v", x)
	}
}

func TestValidateMove_ExcludesOwnPlacement(t *testing.T) {
	today := mustDay(t, "2024-06-15")
	x := Appointment{ID: "x", Title: "x", Date: "2024-06-20", StartTime: "09:00", DurationMinutes: 60}

	v := ValidateMove(x, "2024-06-20", "09:30", ConflictSet{Appointments: []Appointment{x}}, today)
	if !v.OK() {
		t.Fatalf("reason = %q, want accepted", v.Reason)
	}

	moved := Apply(x, Moved(x, "2024-06-20", "09:30"))
	if moved.StartTime != "09:30" || moved.Date != "2024-06-20" || moved.ID != "x" {
		t.Fatalf("moved = %+v", moved)
	}
	if x.StartTime != "09:00" {
		t.Fatalf("Apply mutated its input")
	}
}

func TestValidateMove_RunsFullPipeline(t *testing.T) {
	today := mustDay(t, "2024-06-15")
	x := Appointment{ID: "x", Title: "x", Date: "2024-06-20", StartTime: "09:00", DurationMinutes: 60}

	if v := ValidateMove(x, "2024-06-01", "09:00", ConflictSet{}, today); v.Reason != ReasonPastDate {
		t.Fatalf("reason = %q, want %q", v.Reason, ReasonPastDate)
	}
	slots := []UnavailableSlot{{Date: "2024-06-22", StartTime: "08:00", EndTime: "12:00"}}
	if v := ValidateMove(x, "2024-06-22", "11:00", ConflictSet{Unavailable: slots}, today); v.Reason != ReasonSlotUnavailable {
		t.Fatalf("reason = %q, want %q", v.Reason, ReasonSlotUnavailable)
	}
}
