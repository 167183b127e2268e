package eventstream

import (
	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

// EventType is used to identify what type of event is crossing the
// wire.
type EventType uint8

const (
	// EventTypeUnknown is used as a zero value to ensure that this
	// always has to be set to something.
	EventTypeUnknown EventType = iota

	// EventTypeError is pushed across the wire in the event that
	// the system has encountered some kind of error that was
	// non-recoverable.
	EventTypeError

	// EventTypeLogLine is used to signify that the event in
	// question is a log line, which may be associated with one or
	// more other events.
	EventTypeLogLine

	// EventTypeTelemetry carries a full telemetry snapshot, pushed
	// on every poll cycle.
	EventTypeTelemetry

	// EventTypeModeChange is fired when the coordinator has
	// written a new operating mode to disk.
	EventTypeModeChange

	// EventTypeRestart reports the outcome of a correction-service
	// restart request.
	EventTypeRestart
)

// EventError contains the underlying error that occured.
type EventError struct {
	Type  EventType
	Error string
}

// EventLogLine contains a message from a log.
type EventLogLine struct {
	Type    EventType
	Message string
}

// EventTelemetry contains the snapshot the dashboard should render.
type EventTelemetry struct {
	Type     EventType
	Snapshot telemetry.Snapshot
}

// EventModeChange announces the newly configured operating mode.
type EventModeChange struct {
	Type      EventType
	Mode      stationcfg.Mode
	RequestID string
}

// EventRestart reports a restart request result.  Status is one of
// "ok", "pending", or "failed".
type EventRestart struct {
	Type      EventType
	RequestID string
	Status    string
	Error     string `json:",omitempty"`
}
