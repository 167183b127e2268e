package eventstream

import (
	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

// NullStream doesn't publish events anywhere and is mostly for
// testing or non-server CLI cmdlets.
type NullStream struct{}

// NewNullStreamer hands back a null stream instance that discards
// everything.
func NewNullStreamer() *NullStream {
	return new(NullStream)
}

// PublishError discards all errors.
func (ns *NullStream) PublishError(_ error) {}

// PublishLogLine discards all log lines.
func (ns *NullStream) PublishLogLine(_ string) {}

// ConsumeTelemetry discards all snapshots.
func (ns *NullStream) ConsumeTelemetry(_ telemetry.Snapshot) {}

// PublishModeChange discards all mode changes.
func (ns *NullStream) PublishModeChange(_ stationcfg.Mode, _ string) {}

// PublishRestart discards all restart reports.
func (ns *NullStream) PublishRestart(_, _ string, _ error) {}
