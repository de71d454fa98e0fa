// Package api exposes HTTP handlers for the sedentary monitor.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"example.com/sedentary/internal/auth"
	"example.com/sedentary/internal/domain"
	"example.com/sedentary/internal/tracker"
)

// Monitor is the slice of the inactivity monitor the API drives.
type Monitor interface {
	Status() tracker.Status
	SetAlertThreshold(minutes uint32)
	SendTestAlert(ctx context.Context) error
}

// StepWindows answers step total queries.
type StepWindows interface {
	Today(ctx context.Context) domain.StepWindow
	LastHour(ctx context.Context) domain.StepWindow
	SumSteps(ctx context.Context, start, end time.Time) domain.StepWindow
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithoutAuth serves every route without checking claims, for deployments
// where the API is only reachable on the device.
func WithoutAuth() Option {
	return func(h *Handler) {
		h.requireAuth = false
	}
}

// Handler coordinates HTTP requests with the monitor and step aggregator.
type Handler struct {
	monitor     Monitor
	steps       StepWindows
	requireAuth bool
}

// NewHandler builds a Handler.
func NewHandler(monitor Monitor, steps StepWindows, opts ...Option) *Handler {
	h := &Handler{monitor: monitor, steps: steps, requireAuth: true}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/status", h.status)
	mux.HandleFunc("/v1/settings/alert-threshold", h.alertThreshold)
	mux.HandleFunc("/v1/steps", h.stepTotals)
	mux.HandleFunc("/v1/alerts/test", h.testAlert)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.authorize(w, r, auth.ScopeSedentaryRead) {
		return
	}
	writeJSON(w, http.StatusOK, toStatusView(h.monitor.Status()))
}

func (h *Handler) alertThreshold(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !h.authorize(w, r, auth.ScopeSedentaryRead) {
			return
		}
		writeJSON(w, http.StatusOK, AlertThresholdRequest{Minutes: int(h.monitor.Status().AlertThresholdMinutes)})
	case http.MethodPut:
		if !h.authorize(w, r, auth.ScopeSedentaryWrite) {
			return
		}
		var req AlertThresholdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := domain.ValidateAlertThreshold(req.Minutes); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		h.monitor.SetAlertThreshold(uint32(req.Minutes))
		writeJSON(w, http.StatusOK, req)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) stepTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.authorize(w, r, auth.ScopeSedentaryRead) {
		return
	}

	query := r.URL.Query()
	rawStart, rawEnd := query.Get("start"), query.Get("end")

	var window domain.StepWindow
	switch {
	case rawStart != "" || rawEnd != "":
		start, end, err := parseRange(rawStart, rawEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		window = h.steps.SumSteps(r.Context(), start, end)
	case query.Get("window") == "" || query.Get("window") == "today":
		window = h.steps.Today(r.Context())
	case query.Get("window") == "last_hour":
		window = h.steps.LastHour(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "window must be today or last_hour")
		return
	}

	writeJSON(w, http.StatusOK, StepWindowView{
		Start:       window.Start,
		End:         window.End,
		Total:       window.Total,
		Unavailable: window.Unavailable,
	})
}

func (h *Handler) testAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !h.authorize(w, r, auth.ScopeSedentaryWrite) {
		return
	}
	if err := h.monitor.SendTestAlert(r.Context()); err != nil {
		if errors.Is(err, domain.ErrDeliveryFailed) {
			writeError(w, http.StatusBadGateway, "delivery_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, scope string) bool {
	if !h.requireAuth {
		return true
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	// Write access implies read access.
	if !claims.HasScope(scope) && !(scope == auth.ScopeSedentaryRead && claims.HasScope(auth.ScopeSedentaryWrite)) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return false
	}
	return true
}

func parseRange(rawStart, rawEnd string) (time.Time, time.Time, error) {
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, errors.New("start and end are both required")
	}
	start, err := time.Parse(time.RFC3339, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end must not be before start")
	}
	return start, end, nil
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
