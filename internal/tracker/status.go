package tracker

import (
	"strconv"
	"strings"
	"time"

	"example.com/sedentary/internal/domain"
)

const noEpisodeText = "No inactivity recorded"

// Status is a point-in-time view of the tracker.
type Status struct {
	Kind                    domain.ActivityKind
	Sedentary               bool
	SedentarySince          time.Time
	EpisodeID               string
	ElapsedSedentarySeconds uint64
	HumanReadableElapsed    string
	AlertThresholdMinutes   uint32
	AlertFired              bool
	ClassifierAvailable     bool
	MotionAvailable         bool
}

var elapsedUnits = [...]struct {
	name    string
	seconds uint64
}{
	{"hour", 3600},
	{"minute", 60},
	{"second", 1},
}

// FormatElapsed renders seconds using the two largest non-zero units,
// e.g. 3725 becomes "1 hour, 2 minutes".
func FormatElapsed(seconds uint64) string {
	parts := make([]string, 0, 2)
	rem := seconds
	for _, unit := range elapsedUnits {
		n := rem / unit.seconds
		rem %= unit.seconds
		if n == 0 {
			continue
		}
		parts = append(parts, pluralise(n, unit.name))
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}

func pluralise(n uint64, unit string) string {
	s := strconv.FormatUint(n, 10) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
