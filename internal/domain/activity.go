// Package domain defines the sedentary monitoring vocabulary shared by every component.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityKind is the classified motion activity of the user.
type ActivityKind uint8

const (
	KindUnknown ActivityKind = iota
	KindStationary
	KindWalking
	KindRunning
	KindCycling
	KindAutomotive
)

// IsMoving reports whether the kind counts as motion resumption.
func (k ActivityKind) IsMoving() bool {
	switch k {
	case KindWalking, KindRunning, KindCycling, KindAutomotive:
		return true
	case KindStationary, KindUnknown:
		return false
	default:
		return false
	}
}

func (k ActivityKind) String() string {
	switch k {
	case KindStationary:
		return "stationary"
	case KindWalking:
		return "walking"
	case KindRunning:
		return "running"
	case KindCycling:
		return "cycling"
	case KindAutomotive:
		return "automotive"
	default:
		return "unknown"
	}
}

// ParseActivityKind maps a wire value onto an ActivityKind.
func ParseActivityKind(value string) (ActivityKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "unknown", "":
		return KindUnknown, nil
	case "stationary":
		return KindStationary, nil
	case "walking":
		return KindWalking, nil
	case "running":
		return KindRunning, nil
	case "cycling":
		return KindCycling, nil
	case "automotive", "driving":
		return KindAutomotive, nil
	}
	return KindUnknown, fmt.Errorf("unknown activity kind %q", value)
}

// Confidence is the classifier's confidence in a sample.
type Confidence uint8

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseConfidence maps a wire value onto a Confidence.
func ParseConfidence(value string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	}
	return ConfidenceLow, fmt.Errorf("unknown confidence %q", value)
}

// ActivitySample is one classified motion activity observation.
type ActivitySample struct {
	Timestamp  time.Time
	Kind       ActivityKind
	Confidence Confidence
}

// MotionReading is a gravity-removed acceleration reading in g.
type MotionReading struct {
	Timestamp time.Time
	X         float64
	Y         float64
	Z         float64
}

// SensorSource identifies an input capability of the engine.
type SensorSource string

const (
	SourceClassifier SensorSource = "classifier"
	SourceMotion     SensorSource = "motion"
)

// ParseSensorSource validates a wire value.
func ParseSensorSource(value string) (SensorSource, error) {
	switch SensorSource(strings.ToLower(strings.TrimSpace(value))) {
	case SourceClassifier:
		return SourceClassifier, nil
	case SourceMotion:
		return SourceMotion, nil
	}
	return "", fmt.Errorf("unknown sensor source %q", value)
}
