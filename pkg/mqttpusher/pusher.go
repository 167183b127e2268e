// Package mqttpusher mirrors the station's telemetry and mode state
// into an MQTT broker so that rovers and farm automation on the same
// network can watch the base station without polling the dashboard.
package mqttpusher

import (
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/coordinator"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

// TelemetrySource provides the most recent telemetry snapshot.
type TelemetrySource interface {
	Snapshot() (telemetry.Snapshot, bool)
}

// StateSource provides the coordinator's operational state.
type StateSource interface {
	State() coordinator.State
}

// Pusher connects to the broker and pushes station data out on a
// fixed cadence.
type Pusher struct {
	l hclog.Logger
	m mqtt.Client

	tlm   TelemetrySource
	state StateSource

	addr     string
	interval time.Duration

	stopFeed chan struct{}
}

// New configures and returns a pusher that is not yet connected.
func New(opts ...Option) (*Pusher, error) {
	p := new(Pusher)
	p.l = hclog.NewNullLogger()
	p.interval = time.Second * 5
	// Buffered so Stop never blocks when the feed was never started.
	p.stopFeed = make(chan (struct{}), 1)

	for _, o := range opts {
		if err := o(p); err != nil {
			return nil, err
		}
	}

	copts := mqtt.NewClientOptions().
		AddBroker(p.addr).
		SetAutoReconnect(true).
		SetClientID("basestation-pusher").
		SetConnectRetry(true).
		SetConnectTimeout(time.Second).
		SetConnectRetryInterval(time.Second)
	client := mqtt.NewClient(copts)
	p.m = client
	return p, nil
}

// Connect allows for setting up the connection later, after the
// pusher is initialized.
func (p *Pusher) Connect() error {
	connFunc := func() error {
		if tok := p.m.Connect(); tok.Wait() && tok.Error() != nil {
			p.l.Warn("Error connecting to broker", "error", tok.Error())
			return tok.Error()
		}
		return nil
	}
	if err := backoff.Retry(connFunc, backoff.NewExponentialBackOff()); err != nil {
		p.l.Error("Permanent error encountered while connecting", "error", err)
		return err
	}
	p.l.Info("Connected to broker")
	return nil
}

func (p *Pusher) publishTelemetry() {
	if p.tlm == nil {
		return
	}
	snap, ok := p.tlm.Snapshot()
	if !ok {
		return
	}

	bytes, err := json.Marshal(snap)
	if err != nil {
		p.l.Warn("Error marshalling telemetry snapshot", "error", err)
		return
	}

	if tok := p.m.Publish("basestation/telemetry", 1, false, bytes); tok.Wait() && tok.Error() != nil {
		p.l.Warn("Error publishing telemetry", "error", tok.Error())
	}
}

func (p *Pusher) publishState() {
	if p.state == nil {
		return
	}

	bytes, err := json.Marshal(p.state.State())
	if err != nil {
		p.l.Warn("Error marshalling station state", "error", err)
		return
	}

	// State is retained so a rover that connects between pushes
	// still sees the current mode.
	if tok := p.m.Publish("basestation/state", 1, true, bytes); tok.Wait() && tok.Error() != nil {
		p.l.Warn("Error publishing station state", "error", tok.Error())
	}
}

// StartStationPusher starts up a worker that publishes telemetry and
// mode state into the broker until Stop is called.
func (p *Pusher) StartStationPusher() {
	feedTicker := time.NewTicker(p.interval)

	go func() {
		for {
			select {
			case <-p.stopFeed:
				feedTicker.Stop()
				return
			case <-feedTicker.C:
				p.publishTelemetry()
				p.publishState()
			}
		}
	}()
}

// Stop closes down the worker that publishes information into the
// mqtt streams and disconnects from the broker.
func (p *Pusher) Stop() {
	p.l.Info("Stopping...")
	p.stopFeed <- struct{}{}
	p.m.Disconnect(250)
}
