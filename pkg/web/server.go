// Package web is the presentation boundary for the base station
// dashboard.  It serves the single-page UI, the JSON API the page
// talks to, the live event stream, and the metrics endpoint.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/coordinator"
	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/docs"
	"github.com/rtkfield/basestation/pkg/locations"
	"github.com/rtkfield/basestation/pkg/sysconf"
	"github.com/rtkfield/basestation/pkg/telemetry"
)

//go:embed ui/*
var uifs embed.FS

// Controller is the slice of the coordinator the web layer drives.
type Controller interface {
	State() coordinator.State
	SwitchToFixedLocation(ctx context.Context, name string) error
	SwitchToFixedCoordinates(ctx context.Context, pos coords.Coordinates) error
	SwitchToSurveyIn(ctx context.Context) error
	RetryRestart(ctx context.Context) error
	SaveCurrentPosition(name string) (locations.Location, error)
}

// LocationStore is the slice of the location layer the web API
// exposes.
type LocationStore interface {
	List() ([]locations.Location, error)
	Save(locations.Location) error
	Delete(name string) error
}

// TelemetrySource provides the most recent telemetry snapshot.
type TelemetrySource interface {
	Snapshot() (telemetry.Snapshot, bool)
}

// Supervisor probes the correction service's run state for display.
type Supervisor interface {
	Status(ctx context.Context) sysconf.State
}

// Server manages the HTTP serving components.
type Server struct {
	r   chi.Router
	n   *http.Server
	l   hclog.Logger
	tpl *pongo2.TemplateSet

	ctrl Controller
	locs LocationStore
	tlm  TelemetrySource
	sup  Supervisor

	esHandler http.HandlerFunc
	metrics   http.Handler
}

// NewServer returns a configured dashboard server.
func NewServer(opts ...Option) (*Server, error) {
	sub, _ := fs.Sub(uifs, "ui/p2")
	ldr := pongo2.NewFSLoader(sub)

	x := new(Server)
	x.r = chi.NewRouter()
	x.n = &http.Server{}
	x.l = hclog.NewNullLogger()
	x.tpl = pongo2.NewSet("html", ldr)

	for _, o := range opts {
		if err := o(x); err != nil {
			return nil, err
		}
	}

	if x.ctrl == nil {
		return nil, fmt.Errorf("web server requires a coordinator")
	}

	if x.metrics != nil {
		x.r.Handle("/metrics", x.metrics)
	}

	sfs, _ := fs.Sub(uifs, "ui")
	x.r.Handle("/static/*", http.FileServer(http.FS(sfs)))
	x.r.Handle("/docs/*", docs.MakeHandler("/docs/"))
	x.r.Get("/", x.uiViewDashboard)

	x.r.Route("/api", func(r chi.Router) {
		r.Get("/state", x.apiGetState)
		r.Get("/telemetry", x.apiGetTelemetry)

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", x.apiListLocations)
			r.Post("/", x.apiSaveLocation)
			r.Delete("/{name}", x.apiDeleteLocation)
			r.Post("/save-current", x.apiSaveCurrentPosition)
		})

		r.Route("/mode", func(r chi.Router) {
			r.Post("/fixed", x.apiSwitchFixed)
			r.Post("/survey-in", x.apiSwitchSurveyIn)
		})

		r.Post("/restart", x.apiRestart)

		if x.esHandler != nil {
			r.Get("/eventstream", x.esHandler)
		}
	})

	return x, nil
}

// Serve binds and serves http on the bound socket.  An error will be
// returned if the server cannot initialize.
func (s *Server) Serve(bind string) error {
	s.l.Info("HTTP is starting", "bind", bind)
	s.n.Addr = bind
	s.n.Handler = s.r
	return s.n.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.l.Info("Stopping...")
	return s.n.Shutdown(ctx)
}

// Router exposes the assembled routes, primarily for handler tests.
func (s *Server) Router() http.Handler { return s.r }

func (s *Server) uiViewDashboard(w http.ResponseWriter, r *http.Request) {
	state := s.ctrl.State()
	locs := []locations.Location{}
	if s.locs != nil {
		if l, err := s.locs.List(); err == nil {
			locs = l
		}
	}

	s.doTemplate(w, r, "index.p2", pongo2.Context{
		"state":     state,
		"locations": locs,
	})
}

func (s *Server) templateErrorHandler(w http.ResponseWriter, err error) {
	fmt.Fprintf(w, "Error while rendering template: %s\n", err)
}

func (s *Server) doTemplate(w http.ResponseWriter, r *http.Request, tmpl string, ctx pongo2.Context) {
	if ctx == nil {
		ctx = pongo2.Context{}
	}
	t, err := s.tpl.FromCache(tmpl)
	if err != nil {
		s.templateErrorHandler(w, err)
		return
	}
	if err := t.ExecuteWriter(ctx, w); err != nil {
		s.templateErrorHandler(w, err)
	}
}
