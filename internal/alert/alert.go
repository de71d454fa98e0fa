// Package alert delivers inactivity alerts to the user through a configurable sink.
package alert

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"example.com/sedentary/internal/domain"
)

// DeliveryError describes a failed delivery attempt. It matches domain.ErrDeliveryFailed.
type DeliveryError struct {
	Sink   string
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s sink responded %d %s", domain.ErrDeliveryFailed, e.Sink, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s sink: %v", domain.ErrDeliveryFailed, e.Sink, e.Err)
	default:
		return fmt.Sprintf("%s: %s sink", domain.ErrDeliveryFailed, e.Sink)
	}
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *DeliveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrDeliveryFailed}
	}
	return []error{domain.ErrDeliveryFailed, e.Err}
}

// LogDispatcher writes alerts to the log. Used for local runs.
type LogDispatcher struct {
	logger *zap.SugaredLogger
	userID string
}

// NewLogDispatcher constructs a LogDispatcher.
func NewLogDispatcher(logger *zap.SugaredLogger, userID string) *LogDispatcher {
	return &LogDispatcher{logger: logger, userID: userID}
}

// Deliver logs the alert.
func (d *LogDispatcher) Deliver(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		recordDelivery("log", err)
		return &DeliveryError{Sink: "log", Err: err}
	}
	d.logger.Infow("inactivity alert", "user_id", d.userID, "title", title, "body", body)
	recordDelivery("log", nil)
	return nil
}
