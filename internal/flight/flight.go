// Package flight folds a raw ACMI record stream into per-entity and
// per-feature histories suitable for playback conversion and analysis.
package flight

import "github.com/fltvhs/recorder/pkg/acmi"

// Entity category flags, stored per entity in playback files.
const (
	FlagMissile uint32 = 1 << iota
	FlagFeature
	FlagAircraft
	FlagChaff
	FlagFlare
)

// PositionUpdate is one time-stamped position sample for an entity.
// RadarTarget is the UID of the current radar target, or -1 for none.
type PositionUpdate struct {
	Time        float32
	X           float32
	Y           float32
	Z           float32
	Pitch       float32
	Roll        float32
	Yaw         float32
	RadarTarget int32
}

// SwitchEvent is a switch value change on an entity.
type SwitchEvent struct {
	SwitchNum     int32
	SwitchVal     int32
	PrevSwitchVal int32
}

// DOFEvent is a degree-of-freedom value change on an entity.
type DOFEvent struct {
	DOFNum     int32
	DOFVal     float32
	PrevDOFVal float32
}

// EntityEvent is a time-stamped switch or DOF change. Exactly one of
// Switch and DOF is set.
type EntityEvent struct {
	Time   float32
	Switch *SwitchEvent
	DOF    *DOFEvent
}

// Entity is one moving object and everything recorded about it. Events can
// arrive before the first position update, so Defined reports whether the
// kind/flags have been filled in yet; undefined entities are dropped at the
// end of parsing.
type Entity struct {
	Defined bool
	Kind    int32
	Flags   uint32
	Updates []PositionUpdate
	Events  []EntityEvent
}

// Feature is one static object. Features are defined once; later
// definitions for the same UID are ignored.
type Feature struct {
	Kind         int32
	LeadUID      int32
	Slot         int32
	SpecialFlags int32
	Time         float32
	X            float32
	Y            float32
	Z            float32
	Pitch        float32
	Roll         float32
	Yaw          float32
}

// FeatureEvent is a feature status change, kept in file order because
// playback wants them chronological.
type FeatureEvent struct {
	Time       float32
	FeatureUID int32
	NewStatus  int32
	PrevStatus int32
}

// GeneralEvent is a tracer or SFX occurrence not tied to any entity.
type GeneralEvent struct {
	Tag   acmi.Tag
	Start float32
	Stop  float32
	Kind  int32
	User  int32
	Flags int32
	Scale float32
	X     float32
	Y     float32
	Z     float32
	DX    float32
	DY    float32
	DZ    float32
	Roll  float32
	Pitch float32
	Yaw   float32
}

// Flight is everything parsed from one recording.
type Flight struct {
	// Corrupted is set when the stream ended mid-record or on a framing
	// error. Everything read up to that point is still usable.
	Corrupted bool

	TodOffset float32
	StartTime float32
	EndTime   float32

	Entities map[int32]*Entity
	Features map[int32]*Feature

	// Callsigns maps entity and feature UIDs to their callsign entries.
	Callsigns map[int32]acmi.Callsign

	GeneralEvents []GeneralEvent
	FeatureEvents []FeatureEvent
}

// NewFlight returns an empty flight with initialized maps.
func NewFlight() *Flight {
	return &Flight{
		Entities:  make(map[int32]*Entity),
		Features:  make(map[int32]*Feature),
		Callsigns: make(map[int32]acmi.Callsign),
	}
}

// PositionCount returns the total number of entity position updates plus
// one per feature (features carry a single implicit position).
func (f *Flight) PositionCount() int {
	n := len(f.Features)
	for _, e := range f.Entities {
		n += len(e.Updates)
	}
	return n
}

// EventCount returns the total number of entity events.
func (f *Flight) EventCount() int {
	n := 0
	for _, e := range f.Entities {
		n += len(e.Events)
	}
	return n
}

// Duration returns the recorded play time in seconds.
func (f *Flight) Duration() float32 {
	return f.EndTime - f.StartTime
}
