package handlers

import (
	"net/http"
	"time"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/response"
)

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"service":       "heimdall",
		"traffic_count": h.deps.Engine.TrafficCount(),
	})
}
