// Package mavlinkimport decodes a MAVLink v2 MISSION_ITEM_INT byte stream
// into a mission.Mission, giving the traffic-register front door a binary
// wire format alongside plain JSON. The frame layout and magic byte follow
// the same hand-rolled encoding/binary approach Valkyrie's actuator package
// uses to talk to autopilots, not a MISSION_ITEM_INT decoder import. The
// trailing checksum bytes are skipped; they are not verified.
package mavlinkimport

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/PossumXI/Asgard/Heimdall/internal/mission"
)

// mavlinkV2Magic is the MAVLink v2 frame start byte.
const mavlinkV2Magic = 0xFD

// missionItemIntMsgID is MISSION_ITEM_INT's message ID in the common
// dialect.
const missionItemIntMsgID = 73

// missionItemIntPayloadLen is MISSION_ITEM_INT's fixed payload length:
// param1-4 (4x float32), x (int32 lat*1e7), y (int32 lon*1e7), z (float32
// relative altitude), seq (uint16), command (uint16), target_system,
// target_component, frame, current, autocontinue (5x uint8).
const missionItemIntPayloadLen = 37

// metersPerDegLat mirrors the equirectangular local-tangent-plane constant
// Valkyrie's decision engine uses to go the other way, from local meters to
// lat/lon.
const metersPerDegLat = 111320.0

// GeoReference is the local-frame origin a stream of global MISSION_ITEM_INT
// waypoints is projected against.
type GeoReference struct {
	Latitude  float64
	Longitude float64
}

// FrameError reports a malformed or short MAVLink v2 frame.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("mavlinkimport: malformed frame: %s", e.Reason)
}

// frame is one parsed MAVLink v2 frame, header and payload only; the trailer
// checksum is neither verified nor retained.
type frame struct {
	messageID uint32
	payload   []byte
}

// Decode walks a MAVLink v2 byte stream, extracts every MISSION_ITEM_INT
// frame, projects each into the local meter frame around ref, and builds a
// Mission flown at cruiseSpeed between startTime and endTime. Frames for
// other message IDs are skipped; they're an expected byproduct of a real
// telemetry stream that also carries heartbeats and attitude reports.
func Decode(stream []byte, droneID string, ref GeoReference, startTime, endTime, cruiseSpeed float64) (*mission.Mission, error) {
	var waypoints []mission.Waypoint

	refLatRad := ref.Latitude * math.Pi / 180.0
	metersPerDegLon := metersPerDegLat * math.Cos(refLatRad)

	for len(stream) > 0 {
		f, rest, err := readFrame(stream)
		if err != nil {
			return nil, err
		}
		stream = rest

		if f.messageID != missionItemIntMsgID {
			continue
		}
		wp, err := decodeMissionItemInt(f.payload, ref, metersPerDegLon)
		if err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}

	speed := cruiseSpeed
	return mission.New(droneID, waypoints, startTime, endTime, &speed)
}

// readFrame consumes one MAVLink v2 frame from the front of stream and
// returns the unconsumed remainder.
func readFrame(stream []byte) (frame, []byte, error) {
	// magic(1) len(1) incompat(1) compat(1) seq(1) sysid(1) compid(1) msgid(3)
	const headerLen = 10
	const checksumLen = 2

	if len(stream) < 1 {
		return frame{}, nil, &FrameError{Reason: "empty stream"}
	}
	if stream[0] != mavlinkV2Magic {
		return frame{}, nil, &FrameError{Reason: fmt.Sprintf("expected magic 0x%02x, got 0x%02x", mavlinkV2Magic, stream[0])}
	}
	if len(stream) < headerLen {
		return frame{}, nil, &FrameError{Reason: "truncated header"}
	}

	payloadLen := int(stream[1])
	total := headerLen + payloadLen + checksumLen
	if len(stream) < total {
		return frame{}, nil, &FrameError{Reason: "truncated payload or checksum"}
	}

	header := stream[:headerLen]
	messageID := uint32(header[7]) | uint32(header[8])<<8 | uint32(header[9])<<16
	payload := stream[headerLen : headerLen+payloadLen]

	return frame{messageID: messageID, payload: payload}, stream[total:], nil
}

// decodeMissionItemInt parses one MISSION_ITEM_INT payload and projects its
// 1e7-scaled lat/lon and relative altitude into the local meter frame around
// ref.
func decodeMissionItemInt(payload []byte, ref GeoReference, metersPerDegLon float64) (mission.Waypoint, error) {
	if len(payload) < missionItemIntPayloadLen {
		return mission.Waypoint{}, &FrameError{Reason: "MISSION_ITEM_INT payload too short"}
	}

	latE7 := int32(binary.LittleEndian.Uint32(payload[16:20]))
	lonE7 := int32(binary.LittleEndian.Uint32(payload[20:24]))
	relAlt := math.Float32frombits(binary.LittleEndian.Uint32(payload[24:28]))

	lat := float64(latE7) / 1e7
	lon := float64(lonE7) / 1e7

	y := (lat - ref.Latitude) * metersPerDegLat
	var x float64
	if metersPerDegLon != 0 {
		x = (lon - ref.Longitude) * metersPerDegLon
	}

	return mission.Waypoint{X: x, Y: y, Z: float64(relAlt)}, nil
}
