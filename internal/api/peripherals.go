package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListPeripherals returns every declared peripheral.
func (s *Server) handleListPeripherals(w http.ResponseWriter, r *http.Request) {
	list := unitFrom(r).Peripherals()
	writeJSON(w, http.StatusOK, map[string]any{
		"peripherals": list,
		"count":       len(list),
	})
}

// handleConnectedPeripherals returns the bound peripherals.
func (s *Server) handleConnectedPeripherals(w http.ResponseWriter, r *http.Request) {
	list := unitFrom(r).ConnectedPeripherals()
	writeJSON(w, http.StatusOK, map[string]any{
		"peripherals": list,
		"count":       len(list),
	})
}

// handleOrphanedPeripherals returns the declared peripherals with no binding.
func (s *Server) handleOrphanedPeripherals(w http.ResponseWriter, r *http.Request) {
	list := unitFrom(r).OrphanedPeripherals()
	writeJSON(w, http.StatusOK, map[string]any{
		"peripherals": list,
		"count":       len(list),
	})
}

// handleRefreshPeripherals re-reads the declarations and reconnects all.
func (s *Server) handleRefreshPeripherals(w http.ResponseWriter, r *http.Request) {
	c := unitFrom(r)
	if err := c.RefreshPeripherals(r.Context()); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": c.ConnectedPeripherals(),
		"orphaned":  c.OrphanedPeripherals(),
	})
}

// handleConnectPeripheral attempts to bind one peripheral.
func (s *Server) handleConnectPeripheral(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "peripheral")
	ok, err := unitFrom(r).ConnectPeripheral(r.Context(), name)
	if err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"peripheral": name,
		"connected":  ok,
	})
}
