package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/locations"
	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/sysconf"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

type fakeConfigStore struct {
	mu       sync.Mutex
	cfg      stationcfg.Config
	writes   int
	writeErr error
}

func (f *fakeConfigStore) Read() (stationcfg.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, nil
}

func (f *fakeConfigStore) Write(cfg stationcfg.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.cfg = cfg
	f.writes++
	return nil
}

type fakeLocations struct {
	locs  map[string]locations.Location
	saved []locations.Location
}

func (f *fakeLocations) Get(name string) (locations.Location, error) {
	loc, ok := f.locs[name]
	if !ok {
		return locations.Location{}, locations.ErrNotFound
	}
	return loc, nil
}

func (f *fakeLocations) Save(loc locations.Location) error {
	f.saved = append(f.saved, loc)
	return nil
}

type fakeSupervisor struct {
	mu       sync.Mutex
	restarts int
	err      error

	// block, when set, holds Restart until released.
	block chan struct{}
}

func (f *fakeSupervisor) Restart(ctx context.Context) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	return f.err
}

func (f *fakeSupervisor) Status(ctx context.Context) sysconf.State {
	return sysconf.StateRunning
}

type fakePosition struct {
	snap telemetry.Snapshot
	have bool
}

func (f *fakePosition) Snapshot() (telemetry.Snapshot, bool) { return f.snap, f.have }

func newTestCoordinator(t *testing.T, cfg *fakeConfigStore, sup *fakeSupervisor, opts ...Option) *Coordinator {
	t.Helper()
	opts = append([]Option{
		WithConfigStore(cfg),
		WithSupervisor(sup),
		WithLocationStore(&fakeLocations{locs: map[string]locations.Location{
			"barn": {Name: "barn", Latitude: 44.1, Longitude: -123.2, Altitude: 80},
		}}),
	}, opts...)

	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{}
	locs := &fakeLocations{}

	cases := []struct {
		name string
		opts []Option
	}{
		{"no config store", []Option{WithLocationStore(locs), WithSupervisor(sup)}},
		{"no location store", []Option{WithConfigStore(cfg), WithSupervisor(sup)}},
		{"no supervisor", []Option{WithConfigStore(cfg), WithLocationStore(locs)}},
	}

	for _, c := range cases {
		if _, err := New(c.opts...); err == nil {
			t.Errorf("New() with %s succeeded", c.name)
		}
	}
}

func TestSwitchToFixedLocation(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{}
	c := newTestCoordinator(t, cfg, sup)

	if err := c.SwitchToFixedLocation(context.Background(), "barn"); err != nil {
		t.Fatalf("SwitchToFixedLocation() error: %v", err)
	}

	if !cfg.cfg.UseFixedMode {
		t.Fatal("config not in fixed mode after switch")
	}
	if cfg.cfg.Coordinates.Latitude != 44.1 {
		t.Fatalf("config coordinates = %+v, want barn's", cfg.cfg.Coordinates)
	}
	if sup.restarts != 1 {
		t.Fatalf("restarts = %d, want 1", sup.restarts)
	}

	s := c.State()
	if s.Mode != stationcfg.ModeFixed {
		t.Fatalf("State().Mode = %v, want fixed", s.Mode)
	}
	if s.RestartPending {
		t.Fatal("restart still pending after successful switch")
	}
	if s.LastRequestID == "" {
		t.Fatal("transition did not record a request ID")
	}
}

func TestSwitchUnknownLocationWritesNothing(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{}
	c := newTestCoordinator(t, cfg, sup)

	err := c.SwitchToFixedLocation(context.Background(), "nowhere")
	if !errors.Is(err, locations.ErrNotFound) {
		t.Fatalf("SwitchToFixedLocation() = %v, want ErrNotFound", err)
	}
	if cfg.writes != 0 {
		t.Fatal("failed lookup still wrote the config")
	}
	if sup.restarts != 0 {
		t.Fatal("failed lookup still restarted the service")
	}
}

func TestSwitchInvalidCoordinatesWritesNothing(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{}
	c := newTestCoordinator(t, cfg, sup)

	err := c.SwitchToFixedCoordinates(context.Background(), coords.Coordinates{Latitude: 200})
	var fe *coords.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("SwitchToFixedCoordinates() = %v, want *FieldError", err)
	}
	if cfg.writes != 0 || sup.restarts != 0 {
		t.Fatal("invalid coordinates still reached the config or service")
	}
}

func TestFailedWriteNeverRestarts(t *testing.T) {
	cfg := &fakeConfigStore{writeErr: errors.New("disk full")}
	sup := &fakeSupervisor{}
	c := newTestCoordinator(t, cfg, sup)

	if err := c.SwitchToSurveyIn(context.Background()); err == nil {
		t.Fatal("SwitchToSurveyIn() succeeded despite write failure")
	}
	if sup.restarts != 0 {
		t.Fatal("service restarted after a failed config write")
	}
	if c.State().RestartPending {
		t.Fatal("failed write left a pending restart")
	}
}

func TestFailedRestartIsPartialApply(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{err: sysconf.ErrRestartFailed}
	c := newTestCoordinator(t, cfg, sup)

	err := c.SwitchToSurveyIn(context.Background())
	if !errors.Is(err, sysconf.ErrRestartFailed) {
		t.Fatalf("SwitchToSurveyIn() = %v, want ErrRestartFailed", err)
	}

	s := c.State()
	if s.Mode != stationcfg.ModeSurveyIn {
		t.Fatalf("State().Mode = %v, want survey-in (config did apply)", s.Mode)
	}
	if !s.RestartPending {
		t.Fatal("failed restart not reported as pending")
	}
	if s.RestartError == "" {
		t.Fatal("failed restart lost its error detail")
	}
}

func TestRetryRestartClearsPending(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{err: sysconf.ErrRestartFailed}
	c := newTestCoordinator(t, cfg, sup)

	if err := c.SwitchToSurveyIn(context.Background()); err == nil {
		t.Fatal("expected first restart to fail")
	}
	firstID := c.State().LastRequestID

	sup.mu.Lock()
	sup.err = nil
	sup.mu.Unlock()

	if err := c.RetryRestart(context.Background()); err != nil {
		t.Fatalf("RetryRestart() error: %v", err)
	}

	s := c.State()
	if s.RestartPending {
		t.Fatal("retry did not clear the pending flag")
	}
	if s.RestartError != "" {
		t.Fatalf("retry left RestartError = %q", s.RestartError)
	}
	if s.LastRequestID != firstID {
		t.Fatalf("retry used request %q, want the original %q", s.LastRequestID, firstID)
	}
}

func TestBusySerializesTransitions(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{block: make(chan struct{})}
	c := newTestCoordinator(t, cfg, sup)

	done := make(chan error, 1)
	go func() {
		done <- c.SwitchToSurveyIn(context.Background())
	}()

	// Wait until the first transition holds the gate.
	for !c.State().Busy {
		runtime.Gosched()
	}

	if err := c.SwitchToFixedLocation(context.Background(), "barn"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second transition = %v, want ErrBusy", err)
	}

	close(sup.block)
	if err := <-done; err != nil {
		t.Fatalf("first transition error: %v", err)
	}
	if c.State().Busy {
		t.Fatal("gate not released after transition")
	}
}

func TestSaveCurrentPosition(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{}
	locs := &fakeLocations{locs: map[string]locations.Location{}}
	pos := &fakePosition{}

	c, err := New(
		WithConfigStore(cfg),
		WithSupervisor(sup),
		WithLocationStore(locs),
		WithPositionSource(pos),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := c.SaveCurrentPosition("spot"); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("SaveCurrentPosition() with no telemetry = %v, want ErrNoPosition", err)
	}

	pos.have = true
	pos.snap.Stale = true
	if _, err := c.SaveCurrentPosition("spot"); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("SaveCurrentPosition() with stale telemetry = %v, want ErrNoPosition", err)
	}

	pos.snap.Stale = false
	pos.snap.Position = telemetry.Position{Latitude: 44.5, Longitude: -123.1, Altitude: 70}
	loc, err := c.SaveCurrentPosition("spot")
	if err != nil {
		t.Fatalf("SaveCurrentPosition() error: %v", err)
	}
	if loc.Latitude != 44.5 || loc.Name != "spot" {
		t.Fatalf("SaveCurrentPosition() = %+v", loc)
	}
	if len(locs.saved) != 1 {
		t.Fatalf("saved %d locations, want 1", len(locs.saved))
	}
}

func TestStateJSONOmitsZeroTransitionTime(t *testing.T) {
	cfg := &fakeConfigStore{}
	sup := &fakeSupervisor{}
	c := newTestCoordinator(t, cfg, sup)

	bytes, err := json.Marshal(c.State())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if strings.Contains(string(bytes), "last_transition") {
		t.Fatalf("pre-transition state serialized a transition time: %s", bytes)
	}

	if err := c.SwitchToSurveyIn(context.Background()); err != nil {
		t.Fatalf("SwitchToSurveyIn() error: %v", err)
	}
	bytes, err = json.Marshal(c.State())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(bytes), "last_transition") {
		t.Fatalf("post-transition state lost its transition time: %s", bytes)
	}
}

func TestReloadPrimesState(t *testing.T) {
	cfg := &fakeConfigStore{cfg: stationcfg.Config{
		UseFixedMode: true,
		Coordinates:  coords.Coordinates{Latitude: 1, Longitude: 2, Altitude: 3},
	}}
	c := newTestCoordinator(t, cfg, &fakeSupervisor{})

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	s := c.State()
	if s.Mode != stationcfg.ModeFixed {
		t.Fatalf("State().Mode = %v, want fixed", s.Mode)
	}
	if s.Coordinates.Latitude != 1 {
		t.Fatalf("State().Coordinates = %+v", s.Coordinates)
	}
}
