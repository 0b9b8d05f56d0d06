package api

import (
	"net/http"

	"github.com/nerrad567/adr-core/internal/adr"
	"github.com/nerrad567/adr-core/internal/state"
)

// handleRecentLog returns the bounded in-memory log.
func (s *Server) handleRecentLog(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	writeLog(w, c.Name(), c.RecentLog())
}

// handleFullLog returns the durable log.
func (s *Server) handleFullLog(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	entries, err := c.FullLog(r.Context())
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeLog(w, c.Name(), entries)
}

func writeLog(w http.ResponseWriter, unit string, entries []state.Entry) {
	out := make([]adr.LogEvent, len(entries))
	for i, e := range entries {
		out[i] = adr.NewLogEvent(unit, e)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"count":   len(out),
	})
}
