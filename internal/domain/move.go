package domain

// Moved returns a as a candidate placed on date at startTime. a itself is
// left untouched.
func Moved(a Appointment, date, startTime string) Candidate {
	c := a.Candidate()
	c.Date = date
	c.StartTime = startTime
	return c
}

// ValidateMove re-runs the full pipeline on the moved record, excluding a's
// own id from the conflict set.
func ValidateMove(a Appointment, date, startTime string, set ConflictSet, today Day) Verdict {
	set.ExcludeID = a.ID
	return Validate(Moved(a, date, startTime), set, today)
}

// Apply returns a copy of a with the candidate's fields. Callers apply it only
// after an accepted verdict.
func Apply(a Appointment, c Candidate) Appointment {
	a.Title = NormalizeTitle(c.Title)
	a.Date = c.Date
	a.StartTime = c.StartTime
	a.DurationMinutes = c.DurationMinutes
	return a
}
