// Package coordinator orchestrates mode switches for the base
// station.  It is the only writer of the station configuration, and
// it owns the contract that the on-disk config and the running
// correction service never silently diverge: a config write that
// fails stops the transition cold, and a restart that fails is
// surfaced as a pending flag the operator has to act on.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/locations"
	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/sysconf"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

var (
	// ErrBusy is returned while another transition's restart is
	// still in flight.  Two concurrent restarts could leave the
	// service and the config file in divergent states, so exactly
	// one transition runs at a time.
	ErrBusy = errors.New("a mode transition is already in progress")

	// ErrNoPosition is returned when the operator tries to save
	// the current position but telemetry has nothing trustworthy
	// to offer.
	ErrNoPosition = errors.New("no current position available")
)

// ConfigStore is the slice of the station config layer the
// coordinator drives.
type ConfigStore interface {
	Read() (stationcfg.Config, error)
	Write(stationcfg.Config) error
}

// LocationStore is the slice of the location layer the coordinator
// consults when a fixed-mode switch selects a saved location, and
// updates when the operator saves the current position.
type LocationStore interface {
	Get(name string) (locations.Location, error)
	Save(locations.Location) error
}

// Supervisor restarts the correction-broadcast service and probes
// its run state.
type Supervisor interface {
	Restart(ctx context.Context) error
	Status(ctx context.Context) sysconf.State
}

// PositionSource provides the latest telemetry snapshot for the
// save-current-position flow.
type PositionSource interface {
	Snapshot() (telemetry.Snapshot, bool)
}

// Streamer receives coordinator lifecycle events for the dashboard.
type Streamer interface {
	PublishModeChange(mode stationcfg.Mode, requestID string)
	PublishRestart(requestID, status string, err error)
}

// State is the coordinator's combined operational state as surfaced
// to the presentation layer.
type State struct {
	// Mode and Coordinates mirror the configuration on disk as of
	// the last read or write through this coordinator.
	Mode        stationcfg.Mode    `json:"mode"`
	Coordinates coords.Coordinates `json:"coordinates"`

	// RestartPending means the config on disk reflects a new mode
	// that the running service has not yet picked up.  The
	// operator must re-trigger the restart.
	RestartPending bool   `json:"restart_pending"`
	RestartError   string `json:"restart_error,omitempty"`

	// Service is the supervisor's best-effort view of the run
	// state, filled in by the web layer at render time.
	Service string `json:"service,omitempty"`

	// LastRequestID identifies the transition that produced this
	// state, for correlating with the event stream and logs.
	LastRequestID  string    `json:"last_request_id,omitempty"`
	LastTransition time.Time `json:"last_transition,omitzero"`

	// Busy is a point-in-time hint that a transition is running.
	Busy bool `json:"busy"`
}

// Coordinator serializes mode transitions.
type Coordinator struct {
	l hclog.Logger

	cfg  ConfigStore
	locs LocationStore
	sup  Supervisor
	pos  PositionSource
	es   Streamer

	// gate holds the single in-flight transition token.
	gate chan struct{}

	stateMutex sync.RWMutex
	state      State
}

// New configures a Coordinator and returns it.  Reload should be
// called once at startup to prime the state from disk.
func New(opts ...Option) (*Coordinator, error) {
	c := new(Coordinator)
	c.l = hclog.NewNullLogger()
	c.gate = make(chan struct{}, 1)

	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}

	if c.cfg == nil {
		return nil, errors.New("coordinator requires a config store")
	}
	if c.locs == nil {
		return nil, errors.New("coordinator requires a location store")
	}
	if c.sup == nil {
		return nil, errors.New("coordinator requires a service supervisor")
	}
	return c, nil
}

// Reload re-reads the station configuration from disk and folds it
// into the reported state.  This is the only path that refreshes the
// in-memory view other than the coordinator's own writes.
func (c *Coordinator) Reload() error {
	cfg, err := c.cfg.Read()
	if err != nil {
		return err
	}

	c.stateMutex.Lock()
	c.state.Mode = cfg.Mode()
	c.state.Coordinates = cfg.Coordinates
	c.stateMutex.Unlock()
	return nil
}

// State returns a copy of the current operational state.
func (c *Coordinator) State() State {
	c.stateMutex.RLock()
	s := c.state
	c.stateMutex.RUnlock()
	s.Busy = len(c.gate) > 0
	return s
}

// SwitchToFixedLocation switches the station to fixed mode at a
// saved location.  An unknown name fails before anything is written.
func (c *Coordinator) SwitchToFixedLocation(ctx context.Context, name string) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	loc, err := c.locs.Get(name)
	if err != nil {
		return err
	}
	c.l.Info("Switching to fixed mode", "location", name)
	return c.apply(ctx, stationcfg.Config{
		UseFixedMode: true,
		Coordinates:  loc.Coordinates(),
	})
}

// SwitchToFixedCoordinates switches the station to fixed mode at a
// literal position.
func (c *Coordinator) SwitchToFixedCoordinates(ctx context.Context, pos coords.Coordinates) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := pos.Validate(); err != nil {
		return err
	}
	c.l.Info("Switching to fixed mode", "coordinates", pos)
	return c.apply(ctx, stationcfg.Config{
		UseFixedMode: true,
		Coordinates:  pos,
	})
}

// SwitchToSurveyIn switches the station back to surveying its own
// position.  The coordinates are zeroed; the service ignores them in
// this mode.
func (c *Coordinator) SwitchToSurveyIn(ctx context.Context) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	c.l.Info("Switching to survey-in mode")
	return c.apply(ctx, stationcfg.Config{UseFixedMode: false})
}

// RetryRestart re-triggers the service restart after a previous
// transition was left in the partial-apply state.  Restarts are
// never retried automatically.
func (c *Coordinator) RetryRestart(ctx context.Context) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	c.stateMutex.RLock()
	id := c.state.LastRequestID
	c.stateMutex.RUnlock()
	if id == "" {
		id = uuid.New().String()
	}

	c.l.Info("Re-triggering service restart", "request", id)
	return c.restart(ctx, id)
}

// SaveCurrentPosition copies the most recent telemetry position into
// the location store under the given name.  Stale telemetry is
// refused: the operator would be saving a position nobody can vouch
// for.
func (c *Coordinator) SaveCurrentPosition(name string) (locations.Location, error) {
	if c.pos == nil {
		return locations.Location{}, ErrNoPosition
	}
	snap, ok := c.pos.Snapshot()
	if !ok || snap.Stale {
		return locations.Location{}, ErrNoPosition
	}

	loc := locations.Location{
		Name:      name,
		Latitude:  snap.Position.Latitude,
		Longitude: snap.Position.Longitude,
		Altitude:  snap.Position.Altitude,
	}
	if err := c.locs.Save(loc); err != nil {
		return locations.Location{}, err
	}
	c.l.Info("Saved current position", "name", name, "position", loc.Coordinates())
	return loc, nil
}

// apply writes the new configuration and then restarts the service.
// Callers hold the transition gate.  The restart is never attempted
// if the write fails, and a failed restart leaves the state showing
// the new mode with the pending flag raised.
func (c *Coordinator) apply(ctx context.Context, cfg stationcfg.Config) error {
	id := uuid.New().String()

	if err := c.cfg.Write(cfg); err != nil {
		c.l.Error("Config write failed, service untouched", "request", id, "error", err)
		return err
	}

	c.stateMutex.Lock()
	c.state.Mode = cfg.Mode()
	c.state.Coordinates = cfg.Coordinates
	c.state.RestartPending = true
	c.state.RestartError = ""
	c.state.LastRequestID = id
	c.state.LastTransition = time.Now()
	c.stateMutex.Unlock()

	if c.es != nil {
		c.es.PublishModeChange(cfg.Mode(), id)
	}

	return c.restart(ctx, id)
}

// restart asks the supervisor to bounce the service and records the
// outcome.  Callers hold the transition gate.
func (c *Coordinator) restart(ctx context.Context, id string) error {
	err := c.sup.Restart(ctx)

	c.stateMutex.Lock()
	if err != nil {
		c.state.RestartPending = true
		c.state.RestartError = err.Error()
	} else {
		c.state.RestartPending = false
		c.state.RestartError = ""
	}
	c.stateMutex.Unlock()

	if c.es != nil {
		if err != nil {
			c.es.PublishRestart(id, "failed", err)
		} else {
			c.es.PublishRestart(id, "ok", nil)
		}
	}

	if err != nil {
		c.l.Error("Service restart failed; config applied but not live", "request", id, "error", err)
		return fmt.Errorf("configuration written but service restart failed: %w", err)
	}
	return nil
}

// acquire takes the single transition token, or reports Busy.
func (c *Coordinator) acquire() (func(), error) {
	select {
	case c.gate <- struct{}{}:
		return func() { <-c.gate }, nil
	default:
		return nil, ErrBusy
	}
}
