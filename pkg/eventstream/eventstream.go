// Package eventstream fans live dashboard events out to any number
// of websocket subscribers: telemetry snapshots, mode changes, and
// restart outcomes.
package eventstream

import (
	"encoding/json"

	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

// PublishError pushes an error out into the event stream.
func (es *EventStream) PublishError(err error) {
	es.marshalAndPublish(EventError{
		Type:  EventTypeError,
		Error: err.Error(),
	})
}

// PublishLogLine pushes a log message into the event stream.
func (es *EventStream) PublishLogLine(msg string) {
	es.marshalAndPublish(EventLogLine{
		Type:    EventTypeLogLine,
		Message: msg,
	})
}

// ConsumeTelemetry pushes a telemetry snapshot into the event stream.
// The name satisfies the telemetry aggregator's Sink interface.
func (es *EventStream) ConsumeTelemetry(s telemetry.Snapshot) {
	es.marshalAndPublish(EventTelemetry{
		Type:     EventTypeTelemetry,
		Snapshot: s,
	})
}

// PublishModeChange announces a newly written operating mode.
func (es *EventStream) PublishModeChange(mode stationcfg.Mode, requestID string) {
	es.marshalAndPublish(EventModeChange{
		Type:      EventTypeModeChange,
		Mode:      mode,
		RequestID: requestID,
	})
}

// PublishRestart reports the outcome of a restart request.  Status is
// "ok", "pending", or "failed".
func (es *EventStream) PublishRestart(requestID, status string, err error) {
	e := EventRestart{
		Type:      EventTypeRestart,
		RequestID: requestID,
		Status:    status,
	}
	if err != nil {
		e.Error = err.Error()
	}
	es.marshalAndPublish(e)
}

func (es *EventStream) marshalAndPublish(e interface{}) {
	bytes, err := json.Marshal(e)
	if err != nil {
		es.l.Warn("Error marshaling event", "error", err)
		return
	}
	es.publish(bytes)
}
