// Package events defines the Kafka payloads consumed and produced by the monitor.
package events

import "time"

// Event types carried in the event_type record header.
const (
	TypeActivitySample     = "activity.sample"
	TypeMotionReading      = "motion.reading"
	TypeSensorAvailability = "sensor.availability"
	TypeStepRecorded       = "step.recorded"
	TypeAlertRaised        = "alert.raised"
)

// ActivitySample is emitted by the on-device activity classifier.
type ActivitySample struct {
	UserID     string    `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"`
	Confidence string    `json:"confidence"`
}

// MotionReading carries one gravity-removed accelerometer reading in g.
type MotionReading struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
}

// SensorAvailability reports a capability appearing or disappearing.
type SensorAvailability struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Available bool      `json:"available"`
}

// StepRecorded is a discrete step count from the pedometer.
type StepRecorded struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Count     uint32    `json:"count"`
}

// AlertRaised is published when an inactivity alert is dispatched.
type AlertRaised struct {
	AlertID string    `json:"alert_id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}
