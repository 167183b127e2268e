package telemetry

import (
	"testing"
	"time"

	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/gnss"
)

// scriptedSource plays back a fixed sequence of reports and errors.
type scriptedSource struct {
	reports []gnss.Report
	errs    []error
	i       int
}

func (s *scriptedSource) Poll() (gnss.Report, error) {
	if s.i >= len(s.reports) {
		return gnss.Report{}, gnss.ErrNoFreshData
	}
	r, err := s.reports[s.i], s.errs[s.i]
	s.i++
	return r, err
}

func goodReport(at time.Time) gnss.Report {
	return gnss.Report{
		Time:       at,
		FixedMode:  true,
		Position:   coords.Coordinates{Latitude: 44.5, Longitude: -123.1, Altitude: 70},
		Fix:        gnss.FixRTKFixed,
		Satellites: 14,
	}
}

func TestNoSnapshotBeforeFirstSuccess(t *testing.T) {
	src := &scriptedSource{
		reports: []gnss.Report{{}},
		errs:    []error{gnss.ErrNoFreshData},
	}
	a := New(WithSource(src))

	a.pollOnce()
	if _, have := a.Snapshot(); have {
		t.Fatal("Snapshot() available before any successful poll")
	}
}

func TestFailedPollServesStaleSnapshot(t *testing.T) {
	at := time.Now()
	src := &scriptedSource{
		reports: []gnss.Report{goodReport(at), {}},
		errs:    []error{nil, gnss.ErrNoFreshData},
	}
	a := New(WithSource(src))

	a.pollOnce()
	snap, have := a.Snapshot()
	if !have {
		t.Fatal("Snapshot() missing after successful poll")
	}
	if snap.Stale {
		t.Fatal("fresh snapshot marked stale")
	}

	a.pollOnce()
	snap, _ = a.Snapshot()
	if !snap.Stale {
		t.Fatal("snapshot not marked stale after failed poll")
	}
	if snap.Position.Latitude != 44.5 {
		t.Fatal("stale snapshot lost the last position")
	}
	if snap.FixQuality != gnss.FixRTKFixed {
		t.Fatalf("fix = %v after one failure, want last known", snap.FixQuality)
	}
}

func TestFixUnavailableAfterFailureLimit(t *testing.T) {
	at := time.Now()
	src := &scriptedSource{
		reports: []gnss.Report{goodReport(at), {}, {}, {}},
		errs:    []error{nil, gnss.ErrNoFreshData, gnss.ErrNoFreshData, gnss.ErrNoFreshData},
	}
	a := New(WithSource(src), WithFailureLimit(3))

	for i := 0; i < 4; i++ {
		a.pollOnce()
	}

	snap, _ := a.Snapshot()
	if snap.FixQuality != gnss.FixUnavailable {
		t.Fatalf("fix = %v after %d failures, want Unavailable", snap.FixQuality, 3)
	}
	if snap.FixLabel != "Unavailable" {
		t.Fatalf("fix label = %q, want Unavailable", snap.FixLabel)
	}
}

func TestRecoveryClearsStale(t *testing.T) {
	at := time.Now()
	src := &scriptedSource{
		reports: []gnss.Report{goodReport(at), {}, goodReport(at.Add(2 * time.Second))},
		errs:    []error{nil, gnss.ErrNoFreshData, nil},
	}
	a := New(WithSource(src))

	for i := 0; i < 3; i++ {
		a.pollOnce()
	}

	snap, _ := a.Snapshot()
	if snap.Stale {
		t.Fatal("recovered snapshot still marked stale")
	}
}

func TestSurveyInPassthrough(t *testing.T) {
	at := time.Now()
	r := goodReport(at)
	r.FixedMode = false
	r.SurveyIn = &gnss.SurveyInStatus{
		Active:         true,
		Elapsed:        90 * time.Second,
		AccuracyMeters: 0.035,
		Valid:          true,
	}
	src := &scriptedSource{reports: []gnss.Report{r}, errs: []error{nil}}
	a := New(WithSource(src))

	a.pollOnce()
	snap, _ := a.Snapshot()
	if snap.SurveyIn == nil {
		t.Fatal("survey-in report dropped")
	}
	if snap.SurveyIn.ElapsedSeconds != 90 {
		t.Fatalf("elapsed = %v, want 90", snap.SurveyIn.ElapsedSeconds)
	}
	if !snap.SurveyIn.Converged {
		t.Fatal("service's convergence signal not passed through")
	}
	if snap.Mode != "survey-in" {
		t.Fatalf("mode = %q, want survey-in", snap.Mode)
	}
}

func TestRTCMRate(t *testing.T) {
	t0 := time.Now()
	mk := func(at time.Time, total uint64) gnss.Report {
		r := goodReport(at)
		r.RTCM = &gnss.RTCMStats{TotalMessages: total, LastMessage: at}
		return r
	}

	src := &scriptedSource{
		reports: []gnss.Report{
			mk(t0, 100),
			mk(t0.Add(30*time.Second), 160),
		},
		errs: []error{nil, nil},
	}
	a := New(WithSource(src))
	a.now = func() time.Time { return t0.Add(30 * time.Second) }

	a.pollOnce()
	a.pollOnce()

	snap, _ := a.Snapshot()
	// 60 messages over 30 seconds is 120 per minute.
	if got := snap.RTCM.MessagesPerMinute; got != 120 {
		t.Fatalf("rate = %v, want 120", got)
	}
	if snap.RTCM.TotalMessages != 160 {
		t.Fatalf("total = %d, want 160", snap.RTCM.TotalMessages)
	}
	if snap.RTCM.LastMessageAgeSeconds != 0 {
		t.Fatalf("last message age = %v, want 0", snap.RTCM.LastMessageAgeSeconds)
	}
}

func TestRTCMCounterResetRestartsWindow(t *testing.T) {
	t0 := time.Now()
	mk := func(at time.Time, total uint64) gnss.Report {
		r := goodReport(at)
		r.RTCM = &gnss.RTCMStats{TotalMessages: total, LastMessage: at}
		return r
	}

	src := &scriptedSource{
		reports: []gnss.Report{
			mk(t0, 500),
			mk(t0.Add(10*time.Second), 3),
		},
		errs: []error{nil, nil},
	}
	a := New(WithSource(src))
	a.now = func() time.Time { return t0.Add(10 * time.Second) }

	a.pollOnce()
	a.pollOnce()

	snap, _ := a.Snapshot()
	if got := snap.RTCM.MessagesPerMinute; got != 0 {
		t.Fatalf("rate after counter reset = %v, want 0", got)
	}
}

func TestSinksReceiveEverySnapshot(t *testing.T) {
	at := time.Now()
	src := &scriptedSource{
		reports: []gnss.Report{goodReport(at), {}},
		errs:    []error{nil, gnss.ErrNoFreshData},
	}

	var got []Snapshot
	a := New(WithSource(src), WithSink(SinkFunc(func(s Snapshot) {
		got = append(got, s)
	})))

	a.pollOnce()
	a.pollOnce()

	if len(got) != 2 {
		t.Fatalf("sinks saw %d snapshots, want 2", len(got))
	}
	if got[0].Stale || !got[1].Stale {
		t.Fatalf("stale flags = %v/%v, want false/true", got[0].Stale, got[1].Stale)
	}
}
