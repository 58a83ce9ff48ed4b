package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/validation"
	"github.com/PossumXI/Asgard/Heimdall/internal/utils"
)

// Report handles GET /api/v1/report?mission=<id>: replays the most recently
// archived text report for a drone id without re-running the pipeline.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	if h.deps.Archive == nil {
		handleError(w, utils.NewAPIError("NO_ARCHIVE", "report archive is not configured", http.StatusServiceUnavailable))
		return
	}

	missionID := r.URL.Query().Get("mission")
	if err := validation.ValidateNonEmpty(missionID, "mission"); err != nil {
		handleError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report, err := h.deps.Archive.LatestReport(ctx, missionID)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "NOT_FOUND", "no archived report for mission", http.StatusNotFound))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report))
}
