package web

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option enables variadic option passing to the server on startup.
type Option func(*Server) error

// WithLogger sets the logger for the server.
func WithLogger(l hclog.Logger) Option {
	return func(s *Server) error {
		s.l = l.Named("web")
		return nil
	}
}

// WithCoordinator sets the mode coordinator the API drives.
func WithCoordinator(c Controller) Option {
	return func(s *Server) error {
		s.ctrl = c
		return nil
	}
}

// WithLocationStore sets the location store the API exposes.
func WithLocationStore(ls LocationStore) Option {
	return func(s *Server) error {
		s.locs = ls
		return nil
	}
}

// WithTelemetrySource sets where the API reads snapshots from.
func WithTelemetrySource(t TelemetrySource) Option {
	return func(s *Server) error {
		s.tlm = t
		return nil
	}
}

// WithSupervisor sets the supervisor used to fill in the service run
// state on /api/state.
func WithSupervisor(sup Supervisor) Option {
	return func(s *Server) error {
		s.sup = sup
		return nil
	}
}

// WithEventStreamHandler mounts the websocket event stream at
// /api/eventstream.
func WithEventStreamHandler(h http.HandlerFunc) Option {
	return func(s *Server) error {
		s.esHandler = h
		return nil
	}
}

// WithPrometheusRegistry sets the Prometheus registry served at
// /metrics.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) error {
		s.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		return nil
	}
}
