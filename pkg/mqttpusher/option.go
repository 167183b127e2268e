package mqttpusher

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option enables variadic option passing to the pusher on startup.
type Option func(*Pusher) error

// WithLogger sets the logger for the pusher.
func WithLogger(l hclog.Logger) Option {
	return func(p *Pusher) error {
		p.l = l.Named("pusher")
		return nil
	}
}

// WithMQTTServer handles setting up the mqtt server address.
func WithMQTTServer(addr string) Option {
	return func(p *Pusher) error {
		p.addr = addr
		return nil
	}
}

// WithTelemetrySource sets where the pusher reads snapshots from.
func WithTelemetrySource(t TelemetrySource) Option {
	return func(p *Pusher) error {
		p.tlm = t
		return nil
	}
}

// WithStateSource sets where the pusher reads the mode state from.
func WithStateSource(s StateSource) Option {
	return func(p *Pusher) error {
		p.state = s
		return nil
	}
}

// WithPushInterval overrides the default publish cadence.
func WithPushInterval(d time.Duration) Option {
	return func(p *Pusher) error {
		p.interval = d
		return nil
	}
}
