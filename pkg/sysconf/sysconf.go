// Package sysconf talks to the host's service manager on behalf of
// the dashboard.  The correction-broadcast service only re-reads its
// configuration on restart, so every mode change funnels through
// here.
package sysconf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ErrRestartFailed wraps any failure or timeout while asking the
// service manager to restart the unit.
var ErrRestartFailed = errors.New("service restart failed")

// State describes the run state of the managed unit as best the
// service manager could report it.
type State int

const (
	// StateUnknown means the manager could not answer promptly.
	// The dashboard stays responsive and shows it as-is rather
	// than treating it as an error.
	StateUnknown State = iota

	// StateRunning means the unit is active.
	StateRunning

	// StateStopped means the unit is loaded but not running, or
	// has failed.
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// runFunc executes a command and returns its combined output.  It is
// swappable so tests never shell out.
type runFunc func(ctx context.Context, name string, args ...string) (string, error)

func defaultRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Systemd controls a single systemd unit.
type Systemd struct {
	l hclog.Logger

	unit           string
	userMode       bool
	restartTimeout time.Duration
	statusTimeout  time.Duration

	run runFunc
}

// Option configures the Systemd controller.
type Option func(*Systemd)

// WithLogger sets the parent logger for the controller.
func WithLogger(l hclog.Logger) Option { return func(s *Systemd) { s.l = l.Named("sysconf") } }

// WithUnit names the unit to manage.
func WithUnit(u string) Option { return func(s *Systemd) { s.unit = u } }

// WithUserMode selects the per-user systemd instance rather than the
// system one.  The GNSS service on the Brain runs as a user unit.
func WithUserMode(user bool) Option { return func(s *Systemd) { s.userMode = user } }

// WithRestartTimeout bounds how long Restart waits for the manager to
// acknowledge.
func WithRestartTimeout(d time.Duration) Option { return func(s *Systemd) { s.restartTimeout = d } }

// withRunner swaps the command runner, for tests.
func withRunner(r runFunc) Option { return func(s *Systemd) { s.run = r } }

// New configures a Systemd controller and returns it.
func New(opts ...Option) *Systemd {
	s := new(Systemd)
	s.l = hclog.NewNullLogger()
	s.unit = "farmng-gps.service"
	s.restartTimeout = time.Second * 10
	s.statusTimeout = time.Second * 2
	s.run = defaultRunner

	for _, o := range opts {
		o(s)
	}
	return s
}

// Unit returns the name of the managed unit.
func (s *Systemd) Unit() string { return s.unit }

func (s *Systemd) args(verb string) []string {
	if s.userMode {
		return []string{"--user", verb, s.unit}
	}
	return []string{verb, s.unit}
}

// Restart asks the service manager to restart the unit and waits,
// bounded, for the acknowledgment.  There is no retry here: a failed
// restart is surfaced so the operator can re-trigger it explicitly.
func (s *Systemd) Restart(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.restartTimeout)
	defer cancel()

	s.l.Info("Restarting service", "unit", s.unit)
	out, err := s.run(ctx, "systemctl", s.args("restart")...)
	if err != nil {
		s.l.Error("Restart failed", "unit", s.unit, "output", strings.TrimSpace(out), "error", err)
		return fmt.Errorf("%w: %s: %v", ErrRestartFailed, strings.TrimSpace(out), err)
	}
	s.l.Info("Service restarted", "unit", s.unit)
	return nil
}

// Status is a best-effort probe of the unit's run state.  A slow or
// confused manager yields StateUnknown rather than an error so a
// hung systemd cannot wedge the dashboard.
func (s *Systemd) Status(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, s.statusTimeout)
	defer cancel()

	out, err := s.run(ctx, "systemctl", s.args("is-active")...)
	state := parseActiveState(out)
	if err != nil && state == StateUnknown {
		s.l.Debug("Status probe failed", "unit", s.unit, "error", err)
	}
	return state
}

// parseActiveState maps `systemctl is-active` output onto a State.
// is-active exits non-zero for anything but "active", so the output
// text is authoritative, not the exit code.
func parseActiveState(out string) State {
	switch strings.TrimSpace(out) {
	case "active", "activating", "reloading":
		return StateRunning
	case "inactive", "failed", "deactivating":
		return StateStopped
	default:
		return StateUnknown
	}
}
