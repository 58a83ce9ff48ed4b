package mavlinkimport

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildFrame assembles a MAVLink v2 frame carrying payload for messageID,
// with a placeholder checksum (Decode does not verify it).
func buildFrame(messageID uint32, payload []byte) []byte {
	frame := make([]byte, 0, 10+len(payload)+2)
	frame = append(frame, mavlinkV2Magic)
	frame = append(frame, byte(len(payload)))
	frame = append(frame, 0, 0) // incompat, compat
	frame = append(frame, 0)    // sequence
	frame = append(frame, 1, 1) // system id, component id
	frame = append(frame,
		byte(messageID),
		byte(messageID>>8),
		byte(messageID>>16),
	)
	frame = append(frame, payload...)
	frame = append(frame, 0, 0) // checksum, unchecked
	return frame
}

// buildMissionItemIntPayload encodes a MISSION_ITEM_INT payload carrying
// the given lat/lon (degrees) and relative altitude (meters).
func buildMissionItemIntPayload(lat, lon, relAlt float64) []byte {
	p := make([]byte, missionItemIntPayloadLen)
	binary.LittleEndian.PutUint32(p[16:20], uint32(int32(lat*1e7)))
	binary.LittleEndian.PutUint32(p[20:24], uint32(int32(lon*1e7)))
	binary.LittleEndian.PutUint32(p[24:28], math.Float32bits(float32(relAlt)))
	return p
}

func TestDecode_WaypointAtReferenceOrigin(t *testing.T) {
	ref := GeoReference{Latitude: 47.0, Longitude: 8.0}
	stream := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(47.0, 8.0, 50))
	stream = append(stream, buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(47.0, 8.0, 50))...)

	m, err := Decode(stream, "D1", ref, 0, 100, 10)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m.Waypoints) != 2 {
		t.Fatalf("len(Waypoints) = %d, want 2", len(m.Waypoints))
	}
	wp := m.Waypoints[0]
	if math.Abs(wp.X) > 1e-6 || math.Abs(wp.Y) > 1e-6 {
		t.Errorf("waypoint at reference origin = (%v,%v), want (0,0)", wp.X, wp.Y)
	}
	if wp.Z != 50 {
		t.Errorf("Z = %v, want 50", wp.Z)
	}
}

func TestDecode_ProjectsOffsetWaypoint(t *testing.T) {
	ref := GeoReference{Latitude: 0.0, Longitude: 0.0}
	// One degree of latitude north of the reference, at the equator where
	// the longitude scale factor is exactly metersPerDegLat.
	stream := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(1.0, 0.0, 100))
	stream = append(stream, buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(1.0, 1.0, 100))...)

	m, err := Decode(stream, "D2", ref, 0, 100, 10)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m.Waypoints) != 2 {
		t.Fatalf("len(Waypoints) = %d, want 2", len(m.Waypoints))
	}
	if got, want := m.Waypoints[0].Y, metersPerDegLat; math.Abs(got-want) > 1.0 {
		t.Errorf("Y = %v, want ~%v", got, want)
	}
	if got, want := m.Waypoints[1].X, metersPerDegLat; math.Abs(got-want) > 1.0 {
		t.Errorf("X = %v, want ~%v", got, want)
	}
}

func TestDecode_SkipsNonMissionFrames(t *testing.T) {
	ref := GeoReference{Latitude: 47.0, Longitude: 8.0}
	heartbeat := buildFrame(0, make([]byte, 9))
	item := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(47.0, 8.0, 10))
	item2 := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(47.001, 8.0, 10))

	stream := append(append(heartbeat, item...), item2...)

	m, err := Decode(stream, "D3", ref, 0, 100, 10)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m.Waypoints) != 2 {
		t.Fatalf("len(Waypoints) = %d, want 2 (heartbeat should be skipped)", len(m.Waypoints))
	}
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	stream := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(0, 0, 0))
	stream[0] = 0xAA

	_, err := Decode(stream, "D4", GeoReference{}, 0, 100, 10)
	if err == nil {
		t.Fatal("Decode() error = nil, want error for bad magic byte")
	}
}

func TestDecode_RejectsTruncatedStream(t *testing.T) {
	stream := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(47, 8, 10))
	stream = stream[:len(stream)-5]

	_, err := Decode(stream, "D5", GeoReference{}, 0, 100, 10)
	if err == nil {
		t.Fatal("Decode() error = nil, want error for truncated frame")
	}
}

func TestDecode_FewerThanTwoWaypointsFailsMissionValidation(t *testing.T) {
	ref := GeoReference{Latitude: 47.0, Longitude: 8.0}
	stream := buildFrame(missionItemIntMsgID, buildMissionItemIntPayload(47.0, 8.0, 10))

	_, err := Decode(stream, "D6", ref, 0, 100, 10)
	if err == nil {
		t.Fatal("Decode() error = nil, want mission validation error for a single waypoint")
	}
}
