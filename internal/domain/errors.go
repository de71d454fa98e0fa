package domain

import "errors"

var (
	// ErrSensorUnavailable indicates the classifier or motion capability is absent.
	ErrSensorUnavailable = errors.New("sensor unavailable")
	// ErrDataUnavailable is returned by step sources lacking data or permission.
	ErrDataUnavailable = errors.New("step data unavailable")
	// ErrDeliveryFailed wraps alert dispatch failures.
	ErrDeliveryFailed = errors.New("alert delivery failed")
	// ErrInvalidThreshold is returned for thresholds outside the recognised bounds.
	ErrInvalidThreshold = errors.New("invalid alert threshold")
)
