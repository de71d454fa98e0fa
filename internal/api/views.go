package api

import (
	"time"

	"example.com/sedentary/internal/tracker"
)

// StatusView is the body of GET /v1/status.
type StatusView struct {
	Activity                string     `json:"activity"`
	Sedentary               bool       `json:"sedentary"`
	SedentarySince          *time.Time `json:"sedentary_since,omitempty"`
	EpisodeID               string     `json:"episode_id,omitempty"`
	ElapsedSedentarySeconds uint64     `json:"elapsed_sedentary_seconds"`
	HumanReadableElapsed    string     `json:"human_readable_elapsed"`
	AlertThresholdMinutes   uint32     `json:"alert_threshold_minutes"`
	AlertFired              bool       `json:"alert_fired"`
	ClassifierAvailable     bool       `json:"classifier_available"`
	MotionAvailable         bool       `json:"motion_available"`
}

// AlertThresholdRequest is the body of PUT /v1/settings/alert-threshold.
type AlertThresholdRequest struct {
	Minutes int `json:"minutes"`
}

// StepWindowView is the body of GET /v1/steps.
type StepWindowView struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Total       uint32    `json:"total"`
	Unavailable bool      `json:"unavailable"`
}

func toStatusView(s tracker.Status) StatusView {
	view := StatusView{
		Activity:                s.Kind.String(),
		Sedentary:               s.Sedentary,
		EpisodeID:               s.EpisodeID,
		ElapsedSedentarySeconds: s.ElapsedSedentarySeconds,
		HumanReadableElapsed:    s.HumanReadableElapsed,
		AlertThresholdMinutes:   s.AlertThresholdMinutes,
		AlertFired:              s.AlertFired,
		ClassifierAvailable:     s.ClassifierAvailable,
		MotionAvailable:         s.MotionAvailable,
	}
	if !s.SedentarySince.IsZero() {
		since := s.SedentarySince
		view.SedentarySince = &since
	}
	return view
}
