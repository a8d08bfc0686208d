package acmi

import "math"

// samplePayloads covers every catalog tag with non-trivial field values so
// round-trip and length tests exercise each payload schema once.
func samplePayloads() []Payload {
	return []Payload{
		GenPosition{Kind: 3, UID: 42, X: 100, Y: 200, Z: 300, Yaw: 1.5, Pitch: -0.25, Roll: 0.125},
		MissilePosition{GenPosition{Kind: 7, UID: 1001, X: -5000, Y: 12000, Z: -1500, Yaw: 3.1, Pitch: 0.5, Roll: -1}},
		FeaturePosition{Kind: 9, UID: 2000, LeadUID: 1999, Slot: 4, SpecialFlags: 0x10, X: 1, Y: 2, Z: 3, Yaw: 0.1, Pitch: 0.2, Roll: 0.3},
		AircraftPosition{GenPosition: GenPosition{Kind: 3, UID: 42, X: 100, Y: 200, Z: 300}, RadarTarget: 7},
		TracerStart{X: 10, Y: 20, Z: 30, DX: 0.5, DY: -0.5, DZ: 900},
		StationarySfx{Kind: 2, X: 7, Y: 8, Z: 9, TimeToLive: 4.5, Scale: 1.25},
		MovingSfx{Kind: 1, User: 6, Flags: 0x3, X: 1, Y: 2, Z: 3, DX: 4, DY: 5, DZ: 6, TimeToLive: 2.5, Scale: 0.75},
		Switch{Kind: 3, UID: 42, SwitchNum: 2, SwitchVal: 1, PrevSwitchVal: 0},
		DOF{Kind: 3, UID: 42, DOFNum: 11, DOFVal: 0.7, PrevDOFVal: 0.6},
		ChaffPosition{GenPosition{Kind: 4, UID: 77, X: 1, Y: 1, Z: 1}},
		FlarePosition{GenPosition{Kind: 5, UID: 78, X: 2, Y: 2, Z: 2}},
		TodOffset{},
		FeatureStatus{UID: 2000, NewStatus: 2, PrevStatus: 1},
		CallsignList{Callsigns: []Callsign{
			{Label: padLabel("Falcon 1-1"), TeamColor: 2},
			{Label: padLabel("Cowboy 2"), TeamColor: 4},
		}},
	}
}

// padLabel zero-pads s to the full LabelLen bytes, matching what a decode
// of the same label produces.
func padLabel(s string) []byte {
	label := make([]byte, LabelLen)
	copy(label, s)
	return label
}

// extremeFloats are the float32 values most likely to shake out encoding
// bugs: signed zeros, subnormals, infinities, and NaN payloads.
func extremeFloats() []float32 {
	return []float32{
		0,
		float32(math.Copysign(0, -1)),
		math.Float32frombits(0x00000001), // smallest subnormal
		math.Float32frombits(0x7f800000), // +Inf
		math.Float32frombits(0xff800000), // -Inf
		math.Float32frombits(0x7fc00001), // quiet NaN with payload
		math.Float32frombits(0x7f800001), // signaling NaN
		math.MaxFloat32,
		-math.SmallestNonzeroFloat32,
	}
}
