package handlers

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
)

// buildMAVLinkFrame assembles one MAVLink v2 MISSION_ITEM_INT frame for lat,
// lon (degrees) and relative altitude (meters), with a placeholder checksum
// (mavlinkimport.Decode does not verify it).
func buildMAVLinkFrame(lat, lon, relAlt float64) []byte {
	const missionItemIntMsgID = 73
	const payloadLen = 37

	payload := make([]byte, payloadLen)
	binary.LittleEndian.PutUint32(payload[16:20], uint32(int32(lat*1e7)))
	binary.LittleEndian.PutUint32(payload[20:24], uint32(int32(lon*1e7)))
	binary.LittleEndian.PutUint32(payload[24:28], math.Float32bits(float32(relAlt)))

	frame := make([]byte, 0, 10+payloadLen+2)
	frame = append(frame, 0xFD, byte(payloadLen), 0, 0, 0, 1, 1)
	frame = append(frame, byte(missionItemIntMsgID), byte(missionItemIntMsgID>>8), byte(missionItemIntMsgID>>16))
	frame = append(frame, payload...)
	frame = append(frame, 0, 0)
	return frame
}

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	return New(Deps{Engine: eng})
}

func TestHealth_ReportsOK(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
}

func TestRegisterTraffic_AcceptsValidMission(t *testing.T) {
	h := newTestHandlers(t)
	payload := `{"drone_id":"T1","start_time":0,"end_time":100,"cruise_speed":10,
		"waypoints":[{"x":0,"y":0,"z":0},{"x":100,"y":0,"z":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/traffic", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.RegisterTraffic(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegisterTraffic_RejectsDuplicate(t *testing.T) {
	h := newTestHandlers(t)
	payload := `{"drone_id":"T1","start_time":0,"end_time":100,"cruise_speed":10,
		"waypoints":[{"x":0,"y":0,"z":0},{"x":100,"y":0,"z":0}]}`

	first := httptest.NewRequest(http.MethodPost, "/api/v1/traffic", strings.NewReader(payload))
	h.RegisterTraffic(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/traffic", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.RegisterTraffic(rec, second)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 for duplicate drone_id", rec.Code)
	}
}

func TestRegisterTraffic_AcceptsMAVLinkStream(t *testing.T) {
	h := newTestHandlers(t)
	var stream bytes.Buffer
	stream.Write(buildMAVLinkFrame(47.0, 8.0, 50))
	stream.Write(buildMAVLinkFrame(47.001, 8.0, 50))

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/traffic?drone_id=M1&ref_lat=47.0&ref_lon=8.0&start_time=0&end_time=100&cruise_speed=10",
		&stream)
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()

	h.RegisterTraffic(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}
}

func TestRegisterTraffic_RejectsMAVLinkStreamMissingRefParam(t *testing.T) {
	h := newTestHandlers(t)
	var stream bytes.Buffer
	stream.Write(buildMAVLinkFrame(47.0, 8.0, 50))

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/traffic?drone_id=M2&start_time=0&end_time=100&cruise_speed=10",
		&stream)
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()

	h.RegisterTraffic(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when ref_lat is missing", rec.Code)
	}
}

func TestRegisterTraffic_RejectsMalformedJSON(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/traffic", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	h.RegisterTraffic(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCheck_ReturnsPinnedResultShape(t *testing.T) {
	h := newTestHandlers(t)
	payload := `{"drone_id":"P1","start_time":0,"end_time":100,"cruise_speed":10,
		"waypoints":[{"x":0,"y":0,"z":0},{"x":100,"y":0,"z":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	for _, field := range []string{"cleared", "metrics", "conflicts"} {
		if _, ok := body[field]; !ok {
			t.Errorf("response missing field %q: %v", field, body)
		}
	}
}

func TestReport_WithoutArchiveIsUnavailable(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/report?mission=P1", nil)
	rec := httptest.NewRecorder()

	h.Report(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no archive is configured", rec.Code)
	}
}

func TestStats_WithoutArchiveIsUnavailable(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()

	h.Stats(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no archive is configured", rec.Code)
	}
}
