// Package metrics exposes the station's live state to Prometheus.
// Everything in here is a relabeling of the telemetry snapshot and
// coordinator state; nothing is measured independently.
package metrics

import (
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rtkfield/basestation/pkg/coordinator"
	"github.com/rtkfield/basestation/pkg/stationcfg"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

// Metrics owns the registry and the instruments registered in it.
type Metrics struct {
	l hclog.Logger
	r *prometheus.Registry

	latitude  prometheus.Gauge
	longitude prometheus.Gauge
	altitude  prometheus.Gauge

	fixQuality prometheus.Gauge
	satellites prometheus.Gauge
	stale      prometheus.Gauge

	surveyActive    prometheus.Gauge
	surveyElapsed   prometheus.Gauge
	surveyAccuracy  prometheus.Gauge
	surveyConverged prometheus.Gauge

	rtcmRate           prometheus.Gauge
	rtcmLastMessageAge prometheus.Gauge
	rtcmTotal          prometheus.Gauge

	fixedMode      prometheus.Gauge
	restartPending prometheus.Gauge
}

// Option configures the metrics instance.
type Option func(*Metrics)

// WithLogger sets the parent logger for the metrics system.
func WithLogger(l hclog.Logger) Option { return func(m *Metrics) { m.l = l.Named("metrics") } }

// New returns an initialized instance of the metrics system.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		l: hclog.NewNullLogger(),
		r: prometheus.NewRegistry(),

		latitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "position",
			Name:      "latitude_degrees",
			Help:      "Receiver-reported latitude.",
		}),

		longitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "position",
			Name:      "longitude_degrees",
			Help:      "Receiver-reported longitude.",
		}),

		altitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "position",
			Name:      "altitude_meters",
			Help:      "Receiver-reported altitude above the ellipsoid.",
		}),

		fixQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "receiver",
			Name:      "fix_quality",
			Help:      "Receiver fix quality label as a numeric code.",
		}),

		satellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "receiver",
			Name:      "satellites",
			Help:      "Satellites used in the current solution.",
		}),

		stale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "receiver",
			Name:      "telemetry_stale",
			Help:      "Set when the served snapshot outlived its poll.",
		}),

		surveyActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "survey_in",
			Name:      "active",
			Help:      "Survey-in is currently running.",
		}),

		surveyElapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "survey_in",
			Name:      "elapsed_seconds",
			Help:      "Service-reported survey-in duration.",
		}),

		surveyAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "survey_in",
			Name:      "accuracy_meters",
			Help:      "Service-reported survey-in accuracy estimate.",
		}),

		surveyConverged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "survey_in",
			Name:      "converged",
			Help:      "Service-reported convergence signal.",
		}),

		rtcmRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "rtcm",
			Name:      "messages_per_minute",
			Help:      "Correction messages counted by the service, per minute.",
		}),

		rtcmLastMessageAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "rtcm",
			Name:      "last_message_age_seconds",
			Help:      "Time since the service last saw a correction message.",
		}),

		rtcmTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "rtcm",
			Name:      "messages_total",
			Help:      "Cumulative correction messages counted by the service.",
		}),

		fixedMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "mode",
			Name:      "fixed",
			Help:      "Set when the station operates in fixed mode.",
		}),

		restartPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "basestation",
			Subsystem: "mode",
			Name:      "restart_pending",
			Help:      "Config on disk is ahead of the running service.",
		}),
	}

	m.r.MustRegister(m.latitude)
	m.r.MustRegister(m.longitude)
	m.r.MustRegister(m.altitude)
	m.r.MustRegister(m.fixQuality)
	m.r.MustRegister(m.satellites)
	m.r.MustRegister(m.stale)
	m.r.MustRegister(m.surveyActive)
	m.r.MustRegister(m.surveyElapsed)
	m.r.MustRegister(m.surveyAccuracy)
	m.r.MustRegister(m.surveyConverged)
	m.r.MustRegister(m.rtcmRate)
	m.r.MustRegister(m.rtcmLastMessageAge)
	m.r.MustRegister(m.rtcmTotal)
	m.r.MustRegister(m.fixedMode)
	m.r.MustRegister(m.restartPending)

	for _, o := range opts {
		o(m)
	}
	return m
}

// Registry provides access to the registry that this instance
// manages.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.r
}

// ConsumeTelemetry folds a snapshot into the gauges.  The name
// satisfies the telemetry aggregator's Sink interface.
func (m *Metrics) ConsumeTelemetry(s telemetry.Snapshot) {
	m.latitude.Set(s.Position.Latitude)
	m.longitude.Set(s.Position.Longitude)
	m.altitude.Set(s.Position.Altitude)
	m.fixQuality.Set(float64(s.FixQuality))
	m.satellites.Set(float64(s.Satellites))
	m.stale.Set(boolGauge(s.Stale))

	if s.SurveyIn != nil {
		m.surveyActive.Set(boolGauge(s.SurveyIn.Active))
		m.surveyElapsed.Set(s.SurveyIn.ElapsedSeconds)
		m.surveyAccuracy.Set(s.SurveyIn.AccuracyMeters)
		m.surveyConverged.Set(boolGauge(s.SurveyIn.Converged))
	} else {
		m.surveyActive.Set(0)
		m.surveyElapsed.Set(0)
		m.surveyAccuracy.Set(0)
		m.surveyConverged.Set(0)
	}

	m.rtcmRate.Set(s.RTCM.MessagesPerMinute)
	m.rtcmLastMessageAge.Set(s.RTCM.LastMessageAgeSeconds)
	m.rtcmTotal.Set(float64(s.RTCM.TotalMessages))
}

// UpdateModeState folds the coordinator's state into the gauges.
func (m *Metrics) UpdateModeState(s coordinator.State) {
	m.fixedMode.Set(boolGauge(s.Mode == stationcfg.ModeFixed))
	m.restartPending.Set(boolGauge(s.RestartPending))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
