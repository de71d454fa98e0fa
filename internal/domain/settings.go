package domain

import "fmt"

// Alert threshold bounds in minutes, mirroring the settings stepper.
const (
	DefaultAlertThresholdMinutes = 45
	MinAlertThresholdMinutes     = 15
	MaxAlertThresholdMinutes     = 120
	AlertThresholdStepMinutes    = 15
)

// ValidateAlertThreshold checks minutes against the recognised range and step.
func ValidateAlertThreshold(minutes int) error {
	if minutes < MinAlertThresholdMinutes || minutes > MaxAlertThresholdMinutes {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidThreshold, minutes, MinAlertThresholdMinutes, MaxAlertThresholdMinutes)
	}
	if minutes%AlertThresholdStepMinutes != 0 {
		return fmt.Errorf("%w: %d is not a multiple of %d", ErrInvalidThreshold, minutes, AlertThresholdStepMinutes)
	}
	return nil
}
