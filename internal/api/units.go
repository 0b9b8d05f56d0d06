package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/adr-core/internal/state"
)

// unitSummary is one entry of GET /adrs.
type unitSummary struct {
	Name      string       `json:"name"`
	Status    state.Status `json:"status"`
	Recording bool         `json:"recording"`
	Orphans   int          `json:"orphans"`
}

// setParameterRequest is the body of PUT /parameters/{key}.
type setParameterRequest struct {
	Value json.RawMessage `json:"value"`
}

// parameterResponse is one parameter value.
type parameterResponse struct {
	Key   string      `json:"key"`
	Kind  string      `json:"kind"`
	Value state.Value `json:"value"`
}

// setStatusRequest is the body of PUT /status.
type setStatusRequest struct {
	Status string `json:"status"`
}

// handleListUnits returns every configured unit with its status.
func (s *Server) handleListUnits(w http.ResponseWriter, _ *http.Request) {
	controllers := s.units.Controllers()
	out := make([]unitSummary, 0, len(controllers))
	for _, c := range controllers {
		out = append(out, unitSummary{
			Name:      c.Name(),
			Status:    c.Status(),
			Recording: c.RecordingInfo().Active,
			Orphans:   len(c.OrphanedPeripherals()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"units": out,
		"count": len(out),
	})
}

// handleListParameters returns every set parameter of the unit.
func (s *Server) handleListParameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, unitFrom(r).Parameters())
}

// handleGetParameter returns one parameter.
func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, err := unitFrom(r).Parameter(key)
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParameterResponse(key, v))
}

// handleSetParameter writes one parameter. A null value clears it.
func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	var req setParameterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	c := unitFrom(r)
	key := chi.URLParam(r, "key")
	if err := c.SetParameter(key, req.Value); err != nil {
		writeControllerError(w, err)
		return
	}

	v, err := c.Parameter(key)
	if err != nil {
		writeControllerError(w, err)
		return
	}
	s.logger.Info("parameter set", "unit", c.Name(), "key", key, "value", v.String())
	writeJSON(w, http.StatusOK, newParameterResponse(key, v))
}

func newParameterResponse(key string, v state.Value) parameterResponse {
	kind, _ := state.Key(key).Kind()
	return parameterResponse{Key: key, Kind: kind.String(), Value: v}
}

// handleRevertParameters restores the configured defaults.
func (s *Server) handleRevertParameters(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	if err := c.RevertDefaults(r.Context()); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Parameters())
}

// handleGetStatus returns the unit's cycle status.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": unitFrom(r).Status()})
}

// handleSetStatus moves the unit's cycle to the requested status.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	c := unitFrom(r)
	if err := c.SetStatus(r.Context(), req.Status); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": c.Status()})
}

// handleListStatuses returns the closed set of cycle statuses.
func (s *Server) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"statuses": unitFrom(r).Statuses()})
}
