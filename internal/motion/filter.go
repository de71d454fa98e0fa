// Package motion turns raw acceleration readings into a coarse moving/sedentary signal.
package motion

import (
	"math"

	"example.com/sedentary/internal/domain"
)

const (
	// DefaultMovingThreshold is the acceleration magnitude, in g, above which the user is moving.
	DefaultMovingThreshold = 2.0
	// DefaultSedentaryEpsilon bounds |x|+|y|+|z| for a reading to count as sedentary.
	DefaultSedentaryEpsilon = 0.05
)

// IsMoving reports whether the reading's magnitude exceeds threshold.
// Non-finite readings are never moving.
func IsMoving(r domain.MotionReading, threshold float64) bool {
	if !finite(r) {
		return false
	}
	return math.Sqrt(r.X*r.X+r.Y*r.Y+r.Z*r.Z) > threshold
}

// IsSedentaryMagnitude reports whether |x|+|y|+|z| < epsilon.
// Non-finite readings count as sedentary so they never suppress an alert.
func IsSedentaryMagnitude(r domain.MotionReading, epsilon float64) bool {
	if !finite(r) {
		return true
	}
	return math.Abs(r.X)+math.Abs(r.Y)+math.Abs(r.Z) < epsilon
}

// Filter holds the thresholds used to classify readings.
type Filter struct {
	MovingThreshold  float64
	SedentaryEpsilon float64
}

// NewFilter returns a Filter, substituting defaults for non-positive values.
func NewFilter(movingThreshold, sedentaryEpsilon float64) Filter {
	if movingThreshold <= 0 {
		movingThreshold = DefaultMovingThreshold
	}
	if sedentaryEpsilon <= 0 {
		sedentaryEpsilon = DefaultSedentaryEpsilon
	}
	return Filter{MovingThreshold: movingThreshold, SedentaryEpsilon: sedentaryEpsilon}
}

// Classify maps a reading onto a synthetic activity kind. Readings between the
// sedentary and moving bands are Unknown and leave the tracker state untouched.
func (f Filter) Classify(r domain.MotionReading) domain.ActivityKind {
	switch {
	case IsMoving(r, f.MovingThreshold):
		return domain.KindWalking
	case IsSedentaryMagnitude(r, f.SedentaryEpsilon):
		return domain.KindStationary
	default:
		return domain.KindUnknown
	}
}

func finite(r domain.MotionReading) bool {
	for _, v := range [...]float64{r.X, r.Y, r.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
