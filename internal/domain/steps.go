package domain

import "time"

// StepEvent is a discrete step count observed at Timestamp.
type StepEvent struct {
	UserID    string
	Timestamp time.Time
	Count     uint32
}

// StepWindow is the step total for [Start, End).
type StepWindow struct {
	Start       time.Time
	End         time.Time
	Total       uint32
	Unavailable bool
}

// StartOfDay returns midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
