// Package gnss provides the data sources the dashboard reads its
// live telemetry from.  Nothing in here computes positions; every
// field is relabeled from what the receiver or the correction
// service reported.
package gnss

import (
	"errors"
	"sync"
	"time"

	"github.com/rtkfield/basestation/pkg/coords"
)

// ErrNoFreshData is returned from Poll when the source has not heard
// from its feed recently enough to vouch for the data.
var ErrNoFreshData = errors.New("no fresh data from receiver")

// FixQuality labels the receiver's reported fix type.
type FixQuality int

const (
	// FixUnknown is the zero value, before the first report.
	FixUnknown FixQuality = iota

	// FixNone means the receiver reports no usable fix.
	FixNone

	// FixGPS is a plain autonomous fix.
	FixGPS

	// FixDGPS is a differentially corrected fix.
	FixDGPS

	// FixRTKFixed is an RTK fix with resolved ambiguities.
	FixRTKFixed

	// FixRTKFloat is an RTK fix with float ambiguities.
	FixRTKFloat

	// FixEstimated is a dead-reckoning estimate.
	FixEstimated

	// FixUnavailable means the telemetry feed itself is down.  It
	// is set by the aggregator, never reported by a source.
	FixUnavailable
)

// String implements fmt.Stringer.
func (q FixQuality) String() string {
	switch q {
	case FixNone:
		return "No Fix"
	case FixGPS:
		return "GPS"
	case FixDGPS:
		return "DGPS"
	case FixRTKFixed:
		return "RTK Fixed"
	case FixRTKFloat:
		return "RTK Float"
	case FixEstimated:
		return "Estimated"
	case FixUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// SurveyInStatus is the correction service's own report of survey-in
// progress.  Valid is the service's convergence signal and is taken
// at face value.
type SurveyInStatus struct {
	Active         bool
	Elapsed        time.Duration
	AccuracyMeters float64
	Valid          bool
}

// RTCMStats carries the correction service's message counters.  The
// dashboard counts and labels messages, it does not decode them.
type RTCMStats struct {
	TotalMessages uint64
	ByType        map[string]uint64
	LastMessage   time.Time
}

// Report is one normalized status sample from a source.
type Report struct {
	Time       time.Time
	FixedMode  bool
	Position   coords.Coordinates
	Fix        FixQuality
	Satellites int

	// SurveyIn is nil when the source has no survey-in visibility,
	// such as a bare NMEA feed.
	SurveyIn *SurveyInStatus

	// RTCM is nil when the source has no correction counters.
	RTCM *RTCMStats
}

// Source is the pull contract the telemetry aggregator polls.  A
// Source keeps itself current in the background; Poll returns the
// most recent report or ErrNoFreshData.
type Source interface {
	Poll() (Report, error)
}

// latest holds the most recent report under a lock, shared by the
// source implementations.
type latest struct {
	mu     sync.RWMutex
	report Report
	ok     bool
	maxAge time.Duration
}

func (l *latest) set(r Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report = r
	l.ok = true
}

func (l *latest) get() (Report, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.ok || time.Since(l.report.Time) > l.maxAge {
		return Report{}, ErrNoFreshData
	}
	return l.report, nil
}
