// Package model defines the database schema for archived flights.
package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every struct that maps to a table, in migration
// order.
var DatabaseModels = []interface{}{
	&Recording{},
	&Entity{},
	&Feature{},
	&GeneralEvent{},
}

// Recording is one converted flight recording.
type Recording struct {
	gorm.Model
	FileName        string  `json:"fileName" gorm:"size:255;index"`
	Theater         string  `json:"theater" gorm:"size:127"`
	TodOffset       float32 `json:"todOffset"`
	StartTime       float32 `json:"startTime"`
	EndTime         float32 `json:"endTime"`
	DurationSeconds float32 `json:"durationSeconds"`
	Corrupted       bool    `json:"corrupted"`
	EntityCount     int     `json:"entityCount"`
	FeatureCount    int     `json:"featureCount"`
	PositionCount   int     `json:"positionCount"`
}

// Entity is one moving object in a recording. The full position history
// is stored twice: as JSON for replay and as a web-mercator WKB
// LineString for map queries.
type Entity struct {
	gorm.Model
	RecordingID uint   `json:"recordingId" gorm:"index"`
	UID         int32  `json:"uid"`
	Kind        int32  `json:"kind"`
	Flags       uint32 `json:"flags"`
	Callsign    string `json:"callsign" gorm:"size:16"`
	TeamColor   int32  `json:"teamColor"`
	UpdateCount int    `json:"updateCount"`

	Updates datatypes.JSON `json:"updates"`
	Events  datatypes.JSON `json:"events"`
	Path    []byte         `json:"-" gorm:"type:bytes"`
}

// Feature is one static object in a recording.
type Feature struct {
	gorm.Model
	RecordingID  uint    `json:"recordingId" gorm:"index"`
	UID          int32   `json:"uid"`
	Kind         int32   `json:"kind"`
	LeadUID      int32   `json:"leadUid"`
	Slot         int32   `json:"slot"`
	SpecialFlags int32   `json:"specialFlags"`
	Callsign     string  `json:"callsign" gorm:"size:16"`
	TeamColor    int32   `json:"teamColor"`
	Time         float32 `json:"time"`
	X            float32 `json:"x"`
	Y            float32 `json:"y"`
	Z            float32 `json:"z"`

	Events datatypes.JSON `json:"events"`
}

// GeneralEvent is a tracer or SFX occurrence in a recording.
type GeneralEvent struct {
	gorm.Model
	RecordingID uint    `json:"recordingId" gorm:"index"`
	Tag         uint8   `json:"tag"`
	Start       float32 `json:"start"`
	Stop        float32 `json:"stop"`
	Kind        int32   `json:"kind"`
	Scale       float32 `json:"scale"`
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
	Z           float32 `json:"z"`
}
