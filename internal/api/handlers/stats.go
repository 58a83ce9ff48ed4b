package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/response"
	"github.com/PossumXI/Asgard/Heimdall/internal/statsummary"
	"github.com/PossumXI/Asgard/Heimdall/internal/utils"
)

const defaultStatsSampleLimit = 500
const maxStatsSampleLimit = 5000

// Stats handles GET /api/v1/stats: p50/p95/p99 of total_ms and risk_score
// across recently archived checks.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Archive == nil {
		handleError(w, utils.NewAPIError("NO_ARCHIVE", "stats archive is not configured", http.StatusServiceUnavailable))
		return
	}

	limit := parseLimit(r, defaultStatsSampleLimit, maxStatsSampleLimit)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := statsummary.Compute(ctx, h.deps.Archive, int64(limit))
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "STATS_ERROR", "failed to compute stats", http.StatusInternalServerError))
		return
	}

	response.Success(w, http.StatusOK, summary)
}
