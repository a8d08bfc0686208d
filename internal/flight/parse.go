package flight

import (
	"log/slog"

	"github.com/fltvhs/recorder/pkg/acmi"
)

// Tracers have no time-to-live of their own; give them a few seconds of
// playback life like the original converter does.
const tracerLifetime = 5.0

// Parser folds decoded records into a Flight. It is pure conversion with a
// logger as its only dependency.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser that logs through the given logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads every record in buf and aggregates it into a Flight. A
// corrupt tail marks the flight Corrupted but does not discard what was
// already read; the caller decides whether a partial flight is acceptable.
func (p *Parser) Parse(buf []byte) *Flight {
	f := NewFlight()

	haveStart := false
	s := acmi.NewStream(buf)
	for s.Next() {
		rec := s.Record()

		if _, isTod := rec.Data.(acmi.TodOffset); !isTod {
			if !haveStart {
				f.StartTime = rec.Time
				f.EndTime = rec.Time
				haveStart = true
			} else if rec.Time > f.EndTime {
				f.EndTime = rec.Time
			}
		}

		p.apply(f, rec)
	}
	if err := s.Err(); err != nil {
		p.logger.Warn("recording is corrupt, keeping what was read",
			"error", err, "offset", s.Offset())
		f.Corrupted = true
	}

	p.dropUndefinedEntities(f)
	return f
}

func (p *Parser) apply(f *Flight, rec acmi.Record) {
	switch v := rec.Data.(type) {
	case acmi.GenPosition:
		p.applyPosition(f, rec.Time, v, 0, -1)
	case acmi.MissilePosition:
		p.applyPosition(f, rec.Time, v.GenPosition, FlagMissile, -1)
	case acmi.AircraftPosition:
		p.applyPosition(f, rec.Time, v.GenPosition, FlagAircraft, v.RadarTarget)
	case acmi.ChaffPosition:
		p.applyPosition(f, rec.Time, v.GenPosition, FlagChaff, -1)
	case acmi.FlarePosition:
		p.applyPosition(f, rec.Time, v.GenPosition, FlagFlare, -1)

	case acmi.FeaturePosition:
		if _, exists := f.Features[v.UID]; exists {
			// First definition wins.
			return
		}
		f.Features[v.UID] = &Feature{
			Kind:         v.Kind,
			LeadUID:      v.LeadUID,
			Slot:         v.Slot,
			SpecialFlags: v.SpecialFlags,
			Time:         rec.Time,
			X:            v.X,
			Y:            v.Y,
			Z:            v.Z,
			Pitch:        v.Pitch,
			Roll:         v.Roll,
			Yaw:          v.Yaw,
		}

	case acmi.TracerStart:
		f.GeneralEvents = append(f.GeneralEvents, GeneralEvent{
			Tag:   acmi.TagTracerStart,
			Start: rec.Time,
			Stop:  rec.Time + tracerLifetime,
			X:     v.X, Y: v.Y, Z: v.Z,
			DX: v.DX, DY: v.DY, DZ: v.DZ,
		})

	case acmi.StationarySfx:
		f.GeneralEvents = append(f.GeneralEvents, GeneralEvent{
			Tag:   acmi.TagStationarySfx,
			Start: rec.Time,
			Stop:  rec.Time + v.TimeToLive,
			Kind:  v.Kind,
			Scale: v.Scale,
			X:     v.X, Y: v.Y, Z: v.Z,
		})

	case acmi.MovingSfx:
		f.GeneralEvents = append(f.GeneralEvents, GeneralEvent{
			Tag:   acmi.TagMovingSfx,
			Start: rec.Time,
			Stop:  rec.Time + v.TimeToLive,
			Kind:  v.Kind,
			User:  v.User,
			Flags: v.Flags,
			Scale: v.Scale,
			X:     v.X, Y: v.Y, Z: v.Z,
			DX: v.DX, DY: v.DY, DZ: v.DZ,
		})

	case acmi.Switch:
		e := p.entity(f, v.UID)
		e.Events = append(e.Events, EntityEvent{
			Time: rec.Time,
			Switch: &SwitchEvent{
				SwitchNum:     v.SwitchNum,
				SwitchVal:     v.SwitchVal,
				PrevSwitchVal: v.PrevSwitchVal,
			},
		})

	case acmi.DOF:
		e := p.entity(f, v.UID)
		e.Events = append(e.Events, EntityEvent{
			Time: rec.Time,
			DOF: &DOFEvent{
				DOFNum:     v.DOFNum,
				DOFVal:     v.DOFVal,
				PrevDOFVal: v.PrevDOFVal,
			},
		})

	case acmi.TodOffset:
		f.TodOffset = rec.Time

	case acmi.FeatureStatus:
		if _, known := f.Features[v.UID]; !known {
			p.logger.Debug("status event for unknown feature", "uid", v.UID)
			return
		}
		f.FeatureEvents = append(f.FeatureEvents, FeatureEvent{
			Time:       rec.Time,
			FeatureUID: v.UID,
			NewStatus:  v.NewStatus,
			PrevStatus: v.PrevStatus,
		})

	case acmi.CallsignList:
		p.applyCallsigns(f, v)
	}
}

func (p *Parser) applyPosition(f *Flight, time float32, pos acmi.GenPosition, flags uint32, radarTarget int32) {
	e := p.entity(f, pos.UID)
	if !e.Defined {
		e.Defined = true
		e.Kind = pos.Kind
		e.Flags = flags
	} else if e.Kind != pos.Kind || e.Flags != flags {
		p.logger.Debug("entity switched kind or flags mid-recording",
			"uid", pos.UID, "kind", pos.Kind, "flags", flags)
	}
	e.Updates = append(e.Updates, PositionUpdate{
		Time:        time,
		X:           pos.X,
		Y:           pos.Y,
		Z:           pos.Z,
		Pitch:       pos.Pitch,
		Roll:        pos.Roll,
		Yaw:         pos.Yaw,
		RadarTarget: radarTarget,
	})
}

// applyCallsigns resolves the sparse callsign array (indexed by UID) against
// the entities and features seen so far. The list is written at the end of
// a recording, so both maps are filled out by the time it arrives.
func (p *Parser) applyCallsigns(f *Flight, list acmi.CallsignList) {
	if len(f.Callsigns) > 0 {
		p.logger.Warn("multiple callsign lists found, using the latest")
		f.Callsigns = make(map[int32]acmi.Callsign)
	}

	assign := func(uid int32) {
		idx := int(uid)
		if idx < 0 || idx >= len(list.Callsigns) {
			return
		}
		c := list.Callsigns[idx]
		if c.LabelString() == "" && c.TeamColor == 0 {
			return
		}
		f.Callsigns[uid] = c
	}
	for uid := range f.Entities {
		assign(uid)
	}
	for uid := range f.Features {
		assign(uid)
	}
}

func (p *Parser) entity(f *Flight, uid int32) *Entity {
	e, ok := f.Entities[uid]
	if !ok {
		e = &Entity{}
		f.Entities[uid] = e
	}
	return e
}

// dropUndefinedEntities removes entities that collected events but never a
// position update; nothing can be done with an entity that was never placed
// in the world.
func (p *Parser) dropUndefinedEntities(f *Flight) {
	dropped := 0
	for uid, e := range f.Entities {
		if !e.Defined {
			delete(f.Entities, uid)
			dropped++
		}
	}
	if dropped > 0 {
		p.logger.Debug("dropped entities with events but no position data",
			"count", dropped)
	}
}
