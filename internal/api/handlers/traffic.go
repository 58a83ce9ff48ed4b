package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/response"
	"github.com/PossumXI/Asgard/Heimdall/internal/api/validation"
	"github.com/PossumXI/Asgard/Heimdall/internal/mavlinkimport"
	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
)

const mavlinkContentType = "application/octet-stream"

// RegisterTraffic handles POST /api/v1/traffic: adds one traffic mission to
// the engine's registry. A JSON body registers a mission.Mission directly.
// Content-Type: application/octet-stream instead decodes a MAVLink v2
// MISSION_ITEM_INT stream, with drone_id, ref_lat, ref_lon, start_time,
// end_time and cruise_speed supplied as query parameters since the request
// body then carries nothing but the binary frames.
func (h *Handlers) RegisterTraffic(w http.ResponseWriter, r *http.Request) {
	var m *mission.Mission
	var err error

	if r.Header.Get("Content-Type") == mavlinkContentType {
		m, err = decodeMAVLinkTraffic(r)
	} else {
		m, err = decodeJSONTraffic(r)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.deps.Engine.RegisterMission(m); err != nil {
		handleError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, map[string]string{"drone_id": m.DroneID})
}

func decodeJSONTraffic(r *http.Request) (*mission.Mission, error) {
	var m mission.Mission
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		return nil, &mission.InvalidMissionError{Reason: "malformed mission payload"}
	}
	return &m, nil
}

func decodeMAVLinkTraffic(r *http.Request) (*mission.Mission, error) {
	droneID := r.URL.Query().Get("drone_id")
	if err := validation.ValidateNonEmpty(droneID, "drone_id"); err != nil {
		return nil, err
	}

	refLat, err := parseFloatQuery(r, "ref_lat")
	if err != nil {
		return nil, err
	}
	refLon, err := parseFloatQuery(r, "ref_lon")
	if err != nil {
		return nil, err
	}
	startTime, err := parseFloatQuery(r, "start_time")
	if err != nil {
		return nil, err
	}
	endTime, err := parseFloatQuery(r, "end_time")
	if err != nil {
		return nil, err
	}
	cruiseSpeed, err := parseFloatQuery(r, "cruise_speed")
	if err != nil {
		return nil, err
	}

	stream, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &mission.InvalidMissionError{Reason: fmt.Sprintf("reading mavlink body: %v", err)}
	}

	ref := mavlinkimport.GeoReference{Latitude: refLat, Longitude: refLon}
	return mavlinkimport.Decode(stream, droneID, ref, startTime, endTime, cruiseSpeed)
}

func parseFloatQuery(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &validation.ValidationError{Field: name, Message: fmt.Sprintf("%s is required", name)}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &validation.ValidationError{Field: name, Message: fmt.Sprintf("%s must be a number", name)}
	}
	return v, nil
}
