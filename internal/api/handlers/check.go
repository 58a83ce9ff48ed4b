package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/response"
	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/pkg/logging"
)

// Check handles POST /api/v1/check: runs the three-stage pipeline for the
// posted primary mission and returns the pinned deconfliction result. The
// response body is the bare result object, not wrapped in an envelope,
// per the external interface contract.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	var primary mission.Mission
	if err := json.NewDecoder(r.Body).Decode(&primary); err != nil {
		response.SendError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed mission payload")
		return
	}

	result := h.deps.Engine.CheckMission(r.Context(), &primary)

	if h.deps.Metrics != nil {
		h.deps.Metrics.Observe(result)
	}
	if h.deps.Hub != nil {
		h.deps.Hub.PublishConflicts(primary.DroneID, result.Conflicts)
	}
	if h.deps.Bus != nil {
		h.deps.Bus.PublishConflicts(primary.DroneID, result.Conflicts)
	}
	if h.deps.Archive != nil {
		h.archiveResult(primary, result)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logging.Logger.Errorf("check: encode response: %v", err)
	}
}

func (h *Handlers) archiveResult(primary mission.Mission, result engine.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := engine.GenerateReport(&primary, h.deps.Engine.TrafficCount(), result)
	if _, err := h.deps.Archive.Save(ctx, primary.DroneID, report, result); err != nil {
		logging.Logger.Warnf("check: archive save failed for %s: %v", primary.DroneID, err)
	}
}
