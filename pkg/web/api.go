package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rtkfield/basestation/pkg/coordinator"
	"github.com/rtkfield/basestation/pkg/coords"
	"github.com/rtkfield/basestation/pkg/locations"
	"github.com/rtkfield/basestation/pkg/sysconf"
)

type apiError struct {
	Error string `json:"error"`
}

// writeError maps the domain error taxonomy onto HTTP status codes.
// Validation problems are the caller's fault, a busy coordinator is a
// conflict, and a restart failure means the service behind us broke.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var fe *coords.FieldError
	switch {
	case errors.As(err, &fe):
		status = http.StatusBadRequest
	case errors.Is(err, locations.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, coordinator.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, coordinator.ErrNoPosition):
		status = http.StatusConflict
	case errors.Is(err, sysconf.ErrRestartFailed):
		status = http.StatusBadGateway
	}

	s.writeStatusJSON(w, status, apiError{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	s.writeStatusJSON(w, http.StatusOK, v)
}

func (s *Server) writeStatusJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) apiGetState(w http.ResponseWriter, r *http.Request) {
	state := s.ctrl.State()
	if s.sup != nil {
		state.Service = s.sup.Status(r.Context()).String()
	}
	s.writeJSON(w, state)
}

func (s *Server) apiGetTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.tlm == nil {
		s.writeStatusJSON(w, http.StatusServiceUnavailable, apiError{Error: "telemetry is not configured"})
		return
	}
	snap, ok := s.tlm.Snapshot()
	if !ok {
		s.writeStatusJSON(w, http.StatusServiceUnavailable, apiError{Error: "no telemetry received yet"})
		return
	}
	s.writeJSON(w, snap)
}

func (s *Server) apiListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.locs.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if locs == nil {
		locs = []locations.Location{}
	}
	s.writeJSON(w, locs)
}

func (s *Server) apiSaveLocation(w http.ResponseWriter, r *http.Request) {
	var loc locations.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		s.writeStatusJSON(w, http.StatusBadRequest, apiError{Error: "request body must be a location"})
		return
	}
	if err := loc.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.locs.Save(loc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, loc)
}

func (s *Server) apiDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := s.locs.Delete(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) apiSaveCurrentPosition(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Name string `json:"name"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		s.writeStatusJSON(w, http.StatusBadRequest, apiError{Error: "request body must name the location"})
		return
	}

	loc, err := s.ctrl.SaveCurrentPosition(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, loc)
}

func (s *Server) apiSwitchFixed(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Location    string              `json:"location"`
		Coordinates *coords.Coordinates `json:"coordinates"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatusJSON(w, http.StatusBadRequest, apiError{Error: "request body must select a location or coordinates"})
		return
	}

	var err error
	switch {
	case req.Location != "" && req.Coordinates != nil:
		s.writeStatusJSON(w, http.StatusBadRequest, apiError{Error: "select a location or coordinates, not both"})
		return
	case req.Location != "":
		err = s.ctrl.SwitchToFixedLocation(r.Context(), req.Location)
	case req.Coordinates != nil:
		err = s.ctrl.SwitchToFixedCoordinates(r.Context(), *req.Coordinates)
	default:
		s.writeStatusJSON(w, http.StatusBadRequest, apiError{Error: "select a location or coordinates"})
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, s.ctrl.State())
}

func (s *Server) apiSwitchSurveyIn(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SwitchToSurveyIn(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, s.ctrl.State())
}

func (s *Server) apiRestart(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.RetryRestart(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, s.ctrl.State())
}
