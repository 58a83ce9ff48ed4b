package handlers

import "net/http"

// Alerts handles GET /ws/alerts: upgrades to a WebSocket connection on the
// conflict alert feed.
func (h *Handlers) Alerts(w http.ResponseWriter, r *http.Request) {
	h.deps.Hub.ServeWS(w, r)
}
