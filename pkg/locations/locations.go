// Package locations persists the operator's named survey points.  The
// station keeps these in a single JSON document so that a known-good
// mount position can be re-selected without running a fresh survey.
package locations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/fsutil"
)

// ErrNotFound is returned when a named location does not exist in the
// store.
var ErrNotFound = errors.New("no location with that name")

// StorageError wraps any I/O or decode failure on the backing file so
// callers can tell a corrupt store apart from an empty one.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("location store %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error { return e.Err }

// Location is a named geodetic position.  The JSON keys are the wire
// format of known-locations.json and must not change.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Coordinates returns the position portion of the location.
func (l Location) Coordinates() coords.Coordinates {
	return coords.Coordinates{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Altitude:  l.Altitude,
	}
}

// Validate checks the location for an acceptable name and coordinate
// ranges before it is allowed anywhere near the disk.
func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return &coords.FieldError{Field: "name", Reason: "must not be empty"}
	}
	return l.Coordinates().Validate()
}

// document is the on-disk shape of the store.
type document struct {
	Locations []Location `json:"locations"`
}

// Store provides CRUD access to the known locations file.  All
// mutations rewrite the file in full and atomically; a reader can
// never observe a half-written document.
type Store struct {
	l    hclog.Logger
	path string
	mu   sync.Mutex
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the parent logger for the store.
func WithLogger(l hclog.Logger) Option { return func(s *Store) { s.l = l.Named("locations") } }

// WithPath sets the path of the backing file.
func WithPath(p string) Option { return func(s *Store) { s.path = p } }

// NewStore configures a location store and returns it.  The backing
// file is created lazily on first write.
func NewStore(opts ...Option) *Store {
	s := new(Store)
	s.l = hclog.NewNullLogger()
	s.path = "known-locations.json"

	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns all stored locations in the order the operator saved
// them.  A store that has never been written to is empty, not an
// error; anything else that goes wrong reading or decoding the file
// is a *StorageError.
func (s *Store) List() ([]Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Locations, nil
}

// Get returns the location with the given name, or ErrNotFound.
func (s *Store) Get(name string) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return Location{}, err
	}
	for _, loc := range doc.Locations {
		if loc.Name == name {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Save upserts a location.  A location with the same name is replaced
// in place, preserving its position in the list; a new name is
// appended.
func (s *Store) Save(loc Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Locations {
		if doc.Locations[i].Name == loc.Name {
			doc.Locations[i] = loc
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Locations = append(doc.Locations, loc)
	}

	if err := s.persist(doc); err != nil {
		return err
	}
	s.l.Info("Saved location", "name", loc.Name, "replaced", replaced)
	return nil
}

// Delete removes the named location, or returns ErrNotFound.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}

	kept := doc.Locations[:0]
	found := false
	for _, loc := range doc.Locations {
		if loc.Name == name {
			found = true
			continue
		}
		kept = append(kept, loc)
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	doc.Locations = kept

	if err := s.persist(doc); err != nil {
		return err
	}
	s.l.Info("Deleted location", "name", name)
	return nil
}

// load reads the document under the store lock.  Callers hold s.mu.
func (s *Store) load() (document, error) {
	doc := document{Locations: []Location{}}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, &StorageError{Op: "open", Path: s.path, Err: err}
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return document{}, &StorageError{Op: "decode", Path: s.path, Err: err}
	}
	if doc.Locations == nil {
		doc.Locations = []Location{}
	}
	return doc, nil
}

// persist rewrites the whole document atomically.  Callers hold s.mu.
func (s *Store) persist(doc document) error {
	bytes, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}
	if err := fsutil.WriteFileAtomic(s.path, bytes, 0o644); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
