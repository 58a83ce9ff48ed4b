// Package handlers provides HTTP handlers for Heimdall's deconfliction API.
package handlers

import (
	"net/http"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/response"
	"github.com/PossumXI/Asgard/Heimdall/internal/api/validation"
	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
	"github.com/PossumXI/Asgard/Heimdall/internal/mavlinkimport"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
	"github.com/PossumXI/Asgard/Heimdall/internal/utils"
	"github.com/PossumXI/Asgard/Heimdall/pkg/logging"
)

// handleError processes errors and sends appropriate HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*utils.APIError); ok {
		response.SendError(w, apiErr.Status, apiErr.Code, apiErr.Message)
		return
	}

	if valErr, ok := err.(*validation.ValidationError); ok {
		response.SendError(w, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Message)
		return
	}

	if invErr, ok := err.(*mission.InvalidMissionError); ok {
		response.SendError(w, http.StatusBadRequest, "INVALID_MISSION", invErr.Error())
		return
	}

	if frameErr, ok := err.(*mavlinkimport.FrameError); ok {
		response.SendError(w, http.StatusBadRequest, "MALFORMED_MAVLINK_FRAME", frameErr.Error())
		return
	}

	if dupErr, ok := err.(*engine.DuplicateDroneIDError); ok {
		response.SendError(w, http.StatusConflict, "DUPLICATE_DRONE_ID", dupErr.Error())
		return
	}

	if cfgErr, ok := err.(*engine.ConfigurationError); ok {
		response.SendError(w, http.StatusInternalServerError, "CONFIGURATION_ERROR", cfgErr.Error())
		return
	}

	logging.Logger.Errorf("unexpected handler error: %v", err)
	response.SendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
