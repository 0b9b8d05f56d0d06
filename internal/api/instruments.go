package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleReadings reads every instrument of the unit once.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, unitFrom(r).Readings(r.Context()))
}

// handleHeatSwitch opens or closes the heat switch.
func (s *Server) handleHeatSwitch(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	action := chi.URLParam(r, "action")

	var err error
	switch action {
	case "open":
		err = c.OpenHeatSwitch(r.Context())
	case "close":
		err = c.CloseHeatSwitch(r.Context())
	default:
		writeBadRequest(w, "action must be open or close")
		return
	}
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"heatswitch": action})
}

// handleCompressor starts or stops the compressor.
func (s *Server) handleCompressor(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	action := chi.URLParam(r, "action")

	var err error
	switch action {
	case "start":
		err = c.StartCompressor(r.Context())
	case "stop":
		err = c.StopCompressor(r.Context())
	default:
		writeBadRequest(w, "action must be start or stop")
		return
	}
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"compressor": action})
}
