package acmi

import (
	"bytes"
	"fmt"
)

// Payload is one of the fourteen record payload shapes. The set is closed:
// every implementation lives in this package, one per catalog tag, so
// switches over the concrete types can be exhaustive.
type Payload interface {
	// Tag returns the catalog tag for this payload shape.
	Tag() Tag
}

// Record is one decoded record: the header timestamp plus its payload.
// Records are transient values; the codec never retains them.
type Record struct {
	Time float32
	Data Payload
}

// GenPosition is the position update shared by general entities. Missile,
// chaff, and flare updates carry the same fields under their own tags.
type GenPosition struct {
	Kind  int32 // base type for creating the sim object
	UID   int32 // identifier of the instance
	X     float32
	Y     float32
	Z     float32
	Yaw   float32
	Pitch float32
	Roll  float32
}

// MissilePosition is a position update for a missile entity.
type MissilePosition struct {
	GenPosition
}

// ChaffPosition is a position update for a chaff bundle.
type ChaffPosition struct {
	GenPosition
}

// FlarePosition is a position update for a flare.
type FlarePosition struct {
	GenPosition
}

// AircraftPosition is a position update for an aircraft, which additionally
// reports the UID of its current radar target (-1 for none).
type AircraftPosition struct {
	GenPosition
	RadarTarget int32
}

// FeaturePosition defines a static feature (bridge, building, base
// component) and its placement.
type FeaturePosition struct {
	Kind         int32
	UID          int32
	LeadUID      int32 // UID of the lead component, for multi-part features
	Slot         int32 // slot number in the component list
	SpecialFlags int32
	X            float32
	Y            float32
	Z            float32
	Yaw          float32
	Pitch        float32
	Roll         float32
}

// TracerStart is the initial position and velocity of a tracer round.
type TracerStart struct {
	X  float32
	Y  float32
	Z  float32
	DX float32
	DY float32
	DZ float32
}

// StationarySfx is a special effect spawned at a fixed position.
type StationarySfx struct {
	Kind       int32
	X          float32
	Y          float32
	Z          float32
	TimeToLive float32
	Scale      float32
}

// MovingSfx is a special effect with a velocity vector.
type MovingSfx struct {
	Kind       int32
	User       int32
	Flags      int32
	X          float32
	Y          float32
	Z          float32
	DX         float32
	DY         float32
	DZ         float32
	TimeToLive float32
	Scale      float32
}

// Switch records a cockpit/airframe switch changing value on an entity.
type Switch struct {
	Kind          int32
	UID           int32
	SwitchNum     int32
	SwitchVal     int32
	PrevSwitchVal int32
}

// DOF records an animated degree of freedom changing value on an entity.
type DOF struct {
	Kind       int32
	UID        int32
	DOFNum     int32
	DOFVal     float32
	PrevDOFVal float32
}

// TodOffset carries the time-of-day offset in the header timestamp; it has
// no payload of its own.
type TodOffset struct{}

// FeatureStatus records a feature changing status (destroyed, repaired...).
type FeatureStatus struct {
	UID        int32
	NewStatus  int32
	PrevStatus int32
}

// Callsign is one entry of a CallsignList: a label and a team color,
// indexed by entity/feature UID. Label holds at most LabelLen bytes; the
// encoder zero-pads it and the decoder always returns the full LabelLen
// bytes without assuming null termination.
type Callsign struct {
	Label     []byte
	TeamColor int32
}

// LabelString returns the label up to the first NUL byte.
func (c Callsign) LabelString() string {
	if i := bytes.IndexByte(c.Label, 0); i >= 0 {
		return string(c.Label[:i])
	}
	return string(c.Label)
}

// NewCallsign builds a callsign entry from a label string, rejecting labels
// longer than LabelLen.
func NewCallsign(label string, teamColor int32) (Callsign, error) {
	if len(label) > LabelLen {
		return Callsign{}, fmt.Errorf("callsign %q: %w", label, ErrLabelTooLong)
	}
	return Callsign{Label: []byte(label), TeamColor: teamColor}, nil
}

// CallsignList is the sparse callsign array written at the end of a
// recording. Entry i names the entity or feature with UID i.
type CallsignList struct {
	Callsigns []Callsign
}

func (GenPosition) Tag() Tag      { return TagGenPosition }
func (MissilePosition) Tag() Tag  { return TagMissilePosition }
func (FeaturePosition) Tag() Tag  { return TagFeaturePosition }
func (AircraftPosition) Tag() Tag { return TagAircraftPosition }
func (TracerStart) Tag() Tag      { return TagTracerStart }
func (StationarySfx) Tag() Tag    { return TagStationarySfx }
func (MovingSfx) Tag() Tag        { return TagMovingSfx }
func (Switch) Tag() Tag           { return TagSwitch }
func (DOF) Tag() Tag              { return TagDOF }
func (ChaffPosition) Tag() Tag    { return TagChaffPosition }
func (FlarePosition) Tag() Tag    { return TagFlarePosition }
func (TodOffset) Tag() Tag        { return TagTodOffset }
func (FeatureStatus) Tag() Tag    { return TagFeatureStatus }
func (CallsignList) Tag() Tag     { return TagCallsignList }
