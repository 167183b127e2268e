// Package telemetry polls the receiver data source and aggregates
// what it reports into the snapshot the presentation layer renders.
// A slow or failed poll never blocks anything else: the last-known
// snapshot keeps being served, flagged stale.
package telemetry

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/gnss"
	"github.com/rtkfield/basestation/pkg/stationcfg"
)

// Sink receives every snapshot the aggregator produces.  The event
// stream and the metrics registry both hang off of this.
type Sink interface {
	ConsumeTelemetry(Snapshot)
}

// SinkFunc adapts a plain function into a Sink.
type SinkFunc func(Snapshot)

// ConsumeTelemetry calls the wrapped function.
func (f SinkFunc) ConsumeTelemetry(s Snapshot) { f(s) }

// rtcmSample is one point in the sliding window used to derive the
// correction message rate from the service's cumulative counter.
type rtcmSample struct {
	at    time.Time
	total uint64
}

// Aggregator owns the poll loop.
type Aggregator struct {
	l   hclog.Logger
	src gnss.Source

	interval  time.Duration
	failLimit int
	rtcmSpan  time.Duration

	sinks []Sink

	mu       sync.RWMutex
	snap     Snapshot
	have     bool
	failures int

	rtcmWindow []rtcmSample

	stopOnce sync.Once
	stop     chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithLogger sets the parent logger for the aggregator.
func WithLogger(l hclog.Logger) Option { return func(a *Aggregator) { a.l = l.Named("telemetry") } }

// WithSource sets the receiver data source to poll.
func WithSource(s gnss.Source) Option { return func(a *Aggregator) { a.src = s } }

// WithInterval sets the poll cadence.
func WithInterval(d time.Duration) Option { return func(a *Aggregator) { a.interval = d } }

// WithFailureLimit sets how many consecutive failed polls flip the
// fix quality to Unavailable.
func WithFailureLimit(n int) Option { return func(a *Aggregator) { a.failLimit = n } }

// WithSink registers a consumer for every produced snapshot.  May be
// given more than once.
func WithSink(s Sink) Option { return func(a *Aggregator) { a.sinks = append(a.sinks, s) } }

// New configures an Aggregator and returns it.  Call Run to start
// the poll loop.
func New(opts ...Option) *Aggregator {
	a := new(Aggregator)
	a.l = hclog.NewNullLogger()
	a.interval = time.Second
	a.failLimit = 10
	a.rtcmSpan = time.Minute
	a.stop = make(chan struct{})
	a.now = time.Now

	for _, o := range opts {
		o(a)
	}
	return a
}

// Run starts the poll loop in the background.
func (a *Aggregator) Run() {
	ticker := time.NewTicker(a.interval)
	go func() {
		for {
			select {
			case <-a.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				a.pollOnce()
			}
		}
	}()
}

// Stop shuts the poll loop down.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Snapshot returns the most recent snapshot.  The second return is
// false until the first successful poll.
func (a *Aggregator) Snapshot() (Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap, a.have
}

// pollOnce takes one sample from the source and folds it into the
// served snapshot.
func (a *Aggregator) pollOnce() {
	report, err := a.src.Poll()

	a.mu.Lock()
	if err != nil {
		a.failures++
		if a.have {
			a.snap.Stale = true
			if a.failures >= a.failLimit && a.snap.FixQuality != gnss.FixUnavailable {
				a.l.Warn("Telemetry feed unavailable", "consecutive_failures", a.failures)
				a.snap.FixQuality = gnss.FixUnavailable
				a.snap.FixLabel = gnss.FixUnavailable.String()
			}
		}
		snap, have := a.snap, a.have
		a.mu.Unlock()
		if have {
			a.publish(snap)
		}
		return
	}

	if a.failures > 0 {
		a.l.Info("Telemetry feed recovered", "after_failures", a.failures)
	}
	a.failures = 0
	a.snap = a.assemble(report)
	a.have = true
	snap := a.snap
	a.mu.Unlock()

	a.publish(snap)
}

// assemble converts one source report into a Snapshot.  Callers hold
// a.mu for the rtcm window.
func (a *Aggregator) assemble(r gnss.Report) Snapshot {
	s := Snapshot{
		Time: r.Time,
		Mode: stationcfg.ModeFor(r.FixedMode),
		Position: Position{
			Latitude:  r.Position.Latitude,
			Longitude: r.Position.Longitude,
			Altitude:  r.Position.Altitude,
		},
		FixQuality: r.Fix,
		FixLabel:   r.Fix.String(),
		Satellites: r.Satellites,
	}

	if r.SurveyIn != nil {
		s.SurveyIn = &SurveyIn{
			Active:         r.SurveyIn.Active,
			ElapsedSeconds: r.SurveyIn.Elapsed.Seconds(),
			AccuracyMeters: r.SurveyIn.AccuracyMeters,
			Converged:      r.SurveyIn.Valid,
		}
	}

	s.RTCM.LastMessageAgeSeconds = -1
	if r.RTCM != nil {
		s.RTCM.TotalMessages = r.RTCM.TotalMessages
		s.RTCM.ByType = r.RTCM.ByType
		if !r.RTCM.LastMessage.IsZero() {
			s.RTCM.LastMessageAgeSeconds = a.now().Sub(r.RTCM.LastMessage).Seconds()
			if s.RTCM.LastMessageAgeSeconds < 0 {
				s.RTCM.LastMessageAgeSeconds = 0
			}
		}
		s.RTCM.MessagesPerMinute = a.rtcmRate(r.Time, r.RTCM.TotalMessages)
	}

	return s
}

// rtcmRate derives a per-minute message rate from the cumulative
// counter over a sliding window.  A counter that goes backwards
// means the service restarted, so the window starts over.
func (a *Aggregator) rtcmRate(at time.Time, total uint64) float64 {
	if n := len(a.rtcmWindow); n > 0 && total < a.rtcmWindow[n-1].total {
		a.rtcmWindow = a.rtcmWindow[:0]
	}
	a.rtcmWindow = append(a.rtcmWindow, rtcmSample{at: at, total: total})

	cutoff := at.Add(-a.rtcmSpan)
	trim := 0
	for trim < len(a.rtcmWindow)-1 && a.rtcmWindow[trim].at.Before(cutoff) {
		trim++
	}
	a.rtcmWindow = a.rtcmWindow[trim:]

	first, last := a.rtcmWindow[0], a.rtcmWindow[len(a.rtcmWindow)-1]
	span := last.at.Sub(first.at)
	if span < time.Second {
		return 0
	}
	return float64(last.total-first.total) / span.Minutes()
}

func (a *Aggregator) publish(s Snapshot) {
	for _, sink := range a.sinks {
		sink.ConsumeTelemetry(s)
	}
}
