package coordinator

import (
	"github.com/hashicorp/go-hclog"
)

// Option enables variadic option passing to the coordinator.
type Option func(*Coordinator) error

// WithLogger sets the logger for the coordinator.
func WithLogger(l hclog.Logger) Option {
	return func(c *Coordinator) error {
		c.l = l.Named("coordinator")
		return nil
	}
}

// WithConfigStore sets the station configuration store.
func WithConfigStore(s ConfigStore) Option {
	return func(c *Coordinator) error {
		c.cfg = s
		return nil
	}
}

// WithLocationStore sets the known-locations store.
func WithLocationStore(s LocationStore) Option {
	return func(c *Coordinator) error {
		c.locs = s
		return nil
	}
}

// WithSupervisor sets the service supervisor that restarts the
// correction-broadcast service.
func WithSupervisor(s Supervisor) Option {
	return func(c *Coordinator) error {
		c.sup = s
		return nil
	}
}

// WithPositionSource sets where save-current-position reads the live
// position from.
func WithPositionSource(p PositionSource) Option {
	return func(c *Coordinator) error {
		c.pos = p
		return nil
	}
}

// WithEventStreamer sets the sink for mode-change and restart
// events.
func WithEventStreamer(s Streamer) Option {
	return func(c *Coordinator) error {
		c.es = s
		return nil
	}
}
