// Package stationcfg owns the single configuration file that tells
// the correction-broadcast service how to run: either broadcasting
// from a fixed, known-good position, or surveying its own position
// in.  The file is the contract with that service, so its keys and
// shape are fixed.
package stationcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/fsutil"
)

// StorageError wraps any failure to read, decode, or replace the
// station configuration file.  A missing file is a StorageError too:
// the operating mode must always be explicit, never defaulted.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("station config %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error { return e.Err }

// Mode names the station's operating mode.
type Mode string

const (
	// ModeFixed broadcasts corrections from a manually specified,
	// known-good coordinate.
	ModeFixed Mode = "fixed"

	// ModeSurveyIn averages the observed position over time to
	// estimate the station's own coordinates before broadcasting.
	ModeSurveyIn Mode = "survey-in"
)

// ModeFor translates the configuration flag into a Mode.
func ModeFor(useFixed bool) Mode {
	if useFixed {
		return ModeFixed
	}
	return ModeSurveyIn
}

// Config is the station's desired operating state.  The JSON keys
// are read by the correction-broadcast service and must not change.
type Config struct {
	UseFixedMode bool               `json:"USE_FIXED_MODE"`
	Coordinates  coords.Coordinates `json:"COORDINATES"`
}

// Mode returns the operating mode the configuration describes.
func (c Config) Mode() Mode { return ModeFor(c.UseFixedMode) }

// Store reads and writes the station configuration file.  Writes are
// atomic whole-file replacements; a crash mid-write leaves the
// previous configuration intact.
type Store struct {
	l    hclog.Logger
	path string
	mu   sync.Mutex
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the parent logger for the store.
func WithLogger(l hclog.Logger) Option { return func(s *Store) { s.l = l.Named("stationcfg") } }

// WithPath sets the path of the configuration file.
func WithPath(p string) Option { return func(s *Store) { s.path = p } }

// NewStore configures a station configuration store and returns it.
func NewStore(opts ...Option) *Store {
	s := new(Store)
	s.l = hclog.NewNullLogger()
	s.path = "/mnt/service_config/basestation.json"

	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

// Read loads the configuration from disk.  Unlike the location
// store, a missing file is a hard error here.
func (s *Store) Read() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return Config{}, &StorageError{Op: "open", Path: s.path, Err: err}
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, &StorageError{Op: "decode", Path: s.path, Err: err}
	}
	return cfg, nil
}

// Write validates the configuration and atomically replaces the file
// on disk.  Validation failures leave the file byte-for-byte
// unchanged.
func (s *Store) Write(cfg Config) error {
	if err := cfg.Coordinates.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bytes, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}
	if err := fsutil.WriteFileAtomic(s.path, bytes, 0o644); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	s.l.Info("Wrote station config", "fixed", cfg.UseFixedMode, "coordinates", cfg.Coordinates)
	return nil
}
