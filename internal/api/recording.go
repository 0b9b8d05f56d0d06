package api

import "net/http"

// handleRecordingInfo describes the unit's recording session.
func (s *Server) handleRecordingInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, unitFrom(r).RecordingInfo())
}

// handleStartRecording starts a recording session.
func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	if err := c.StartRecording(); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, c.RecordingInfo())
}

// handleStopRecording stops the active recording session.
func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	if err := c.StopRecording(); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.RecordingInfo())
}
