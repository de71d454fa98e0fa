package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"example.com/sedentary/internal/domain"
	"example.com/sedentary/internal/events"
)

// SampleSink receives classifier samples, motion readings, and availability changes.
type SampleSink interface {
	OnActivitySample(domain.ActivitySample)
	OnMotionReading(domain.MotionReading) bool
	SetSensorAvailability(domain.SensorSource, bool)
}

// SampleHandler decodes sensor events for a single user and feeds them to a SampleSink.
type SampleHandler struct {
	sink   SampleSink
	userID string
	logger *zap.SugaredLogger
}

// NewSampleHandler constructs a handler. An empty userID accepts every user.
func NewSampleHandler(sink SampleSink, userID string, logger *zap.SugaredLogger) *SampleHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SampleHandler{sink: sink, userID: userID, logger: logger}
}

// Handle implements Handler.
func (h *SampleHandler) Handle(_ context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeActivitySample:
		var payload events.ActivitySample
		if err := unmarshal(msg, &payload); err != nil {
			return err
		}
		if !h.accepts(payload.UserID) {
			return nil
		}
		kind, err := domain.ParseActivityKind(payload.Kind)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		confidence, err := domain.ParseConfidence(payload.Confidence)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		h.sink.OnActivitySample(domain.ActivitySample{
			Timestamp:  timestampOr(payload.Timestamp, msg),
			Kind:       kind,
			Confidence: confidence,
		})
	case events.TypeMotionReading:
		var payload events.MotionReading
		if err := unmarshal(msg, &payload); err != nil {
			return err
		}
		if !h.accepts(payload.UserID) {
			return nil
		}
		h.sink.OnMotionReading(domain.MotionReading{
			Timestamp: timestampOr(payload.Timestamp, msg),
			X:         payload.X,
			Y:         payload.Y,
			Z:         payload.Z,
		})
	case events.TypeSensorAvailability:
		var payload events.SensorAvailability
		if err := unmarshal(msg, &payload); err != nil {
			return err
		}
		if !h.accepts(payload.UserID) {
			return nil
		}
		source, err := domain.ParseSensorSource(payload.Source)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		h.logger.Infow("sensor availability changed", "source", source, "available", payload.Available)
		h.sink.SetSensorAvailability(source, payload.Available)
	default:
		recordIgnored("event_type")
	}
	return nil
}

func (h *SampleHandler) accepts(userID string) bool {
	if h.userID == "" || userID == h.userID {
		return true
	}
	recordIgnored("user")
	return false
}

// StepRecorder persists discrete step events.
type StepRecorder interface {
	Record(ctx context.Context, event domain.StepEvent) error
}

// StepHandler stores step.recorded events through a StepRecorder.
type StepHandler struct {
	recorder StepRecorder
}

// NewStepHandler constructs a handler backed by recorder.
func NewStepHandler(recorder StepRecorder) *StepHandler {
	return &StepHandler{recorder: recorder}
}

// Handle implements Handler. Recorder failures are returned so the record is retried.
func (h *StepHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeStepRecorded {
		recordIgnored("event_type")
		return nil
	}
	var payload events.StepRecorded
	if err := unmarshal(msg, &payload); err != nil {
		return err
	}
	if payload.UserID == "" {
		payload.UserID = msg.UserID
	}
	if payload.UserID == "" {
		return fmt.Errorf("%w: step event without user", ErrMalformedPayload)
	}
	return h.recorder.Record(ctx, domain.StepEvent{
		UserID:    payload.UserID,
		Timestamp: timestampOr(payload.Timestamp, msg),
		Count:     payload.Count,
	})
}

func unmarshal(msg Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, msg.EventType, err)
	}
	return nil
}

func timestampOr(ts time.Time, msg Message) time.Time {
	if ts.IsZero() {
		return msg.Timestamp
	}
	return ts
}
