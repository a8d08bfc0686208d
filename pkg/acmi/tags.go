package acmi

import "fmt"

// Tag is the 1-byte discriminator at the start of every record. It selects
// the payload shape and, for all tags but CallsignList, the payload length.
type Tag uint8

// The record types of the ACMI format, in wire order.
const (
	TagGenPosition Tag = iota
	TagMissilePosition
	TagFeaturePosition
	TagAircraftPosition
	TagTracerStart
	TagStationarySfx
	TagMovingSfx
	TagSwitch
	TagDOF
	TagChaffPosition
	TagFlarePosition
	TagTodOffset
	TagFeatureStatus
	TagCallsignList

	tagCount
)

// HeaderLen is the length of the tag+time header present on every record.
const HeaderLen = 5

// CallsignEntryLen is the encoded length of one callsign list entry.
const CallsignEntryLen = 20

// LabelLen is the capacity of a callsign label. Shorter labels are
// zero-padded on encode; longer ones are rejected with ErrLabelTooLong.
const LabelLen = 16

// payloadLengths maps each known tag to its fixed payload byte length.
// CallsignList has no fixed length; its entry holds the size of the leading
// entry count, and the true length is count*CallsignEntryLen more.
var payloadLengths = [tagCount]int{
	TagGenPosition:      32,
	TagMissilePosition:  32,
	TagFeaturePosition:  44,
	TagAircraftPosition: 36,
	TagTracerStart:      24,
	TagStationarySfx:    24,
	TagMovingSfx:        44,
	TagSwitch:           20,
	TagDOF:              20,
	TagChaffPosition:    32,
	TagFlarePosition:    32,
	TagTodOffset:        0,
	TagFeatureStatus:    12,
	TagCallsignList:     4,
}

var tagNames = [tagCount]string{
	TagGenPosition:      "GenPosition",
	TagMissilePosition:  "MissilePosition",
	TagFeaturePosition:  "FeaturePosition",
	TagAircraftPosition: "AircraftPosition",
	TagTracerStart:      "TracerStart",
	TagStationarySfx:    "StationarySfx",
	TagMovingSfx:        "MovingSfx",
	TagSwitch:           "Switch",
	TagDOF:              "DOF",
	TagChaffPosition:    "ChaffPosition",
	TagFlarePosition:    "FlarePosition",
	TagTodOffset:        "TodOffset",
	TagFeatureStatus:    "FeatureStatus",
	TagCallsignList:     "CallsignList",
}

// Known reports whether t is one of the catalogued record types.
func Known(t Tag) bool {
	return t < tagCount
}

// PayloadLength returns the payload byte length for a known tag. For
// CallsignList it returns the minimum payload length (the entry count field)
// and variable=true. ok is false for tags outside the catalog.
func PayloadLength(t Tag) (n int, variable, ok bool) {
	if !Known(t) {
		return 0, false, false
	}
	return payloadLengths[t], t == TagCallsignList, true
}

// RecordLength returns the total encoded length, header included, of a
// fixed-length record type. It returns ok=false for unknown tags and for
// CallsignList, whose length depends on the entry count.
func RecordLength(t Tag) (n int, ok bool) {
	if !Known(t) || t == TagCallsignList {
		return 0, false
	}
	return HeaderLen + payloadLengths[t], true
}

// String returns the catalog name of the tag.
func (t Tag) String() string {
	if !Known(t) {
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
	return tagNames[t]
}
