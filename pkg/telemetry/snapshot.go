package telemetry

import (
	"time"

	"github.com/rtkfield/basestation/pkg/gnss"
	"github.com/rtkfield/basestation/pkg/stationcfg"
)

// Position is a display-layer position.  Unlike the station config
// wire format, the dashboard JSON uses lower-case keys.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// SurveyIn summarizes the service-reported survey-in lifecycle.
// Converged is the collaborator's convergence signal; the dashboard
// never recomputes it.
type SurveyIn struct {
	Active         bool    `json:"active"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	Converged      bool    `json:"converged"`
}

// RTCMActivity summarizes correction message flow as counted by the
// service.
type RTCMActivity struct {
	MessagesPerMinute     float64           `json:"messages_per_minute"`
	LastMessageAgeSeconds float64           `json:"last_message_age_seconds"`
	TotalMessages         uint64            `json:"total_messages"`
	ByType                map[string]uint64 `json:"by_type,omitempty"`
}

// Snapshot is the dashboard's view of the station at one instant.
// It is replaced wholesale on every poll cycle and has no identity
// beyond "most recent".
type Snapshot struct {
	Time       time.Time       `json:"time"`
	Mode       stationcfg.Mode `json:"mode"`
	Position   Position        `json:"position"`
	FixQuality gnss.FixQuality `json:"fix_quality"`
	FixLabel   string          `json:"fix_quality_label"`
	Satellites int             `json:"satellites"`

	// SurveyIn is nil outside of survey-in visibility.
	SurveyIn *SurveyIn `json:"survey_in"`

	RTCM RTCMActivity `json:"rtcm"`

	// Stale is set when the snapshot is being served past a failed
	// poll rather than erroring the whole dashboard.
	Stale bool `json:"stale"`
}
