package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fltvhs/recorder/internal/flight"
	"github.com/fltvhs/recorder/internal/geo"
)

// Archive is a flight flattened into database rows.
type Archive struct {
	Recording     Recording
	Entities      []Entity
	Features      []Feature
	GeneralEvents []GeneralEvent
}

// FromFlight converts a parsed flight into database rows. Entity paths
// are projected through the theater; entities with a single position get
// no path, which is not an error.
func FromFlight(fileName, theaterName string, theater geo.Theater, f *flight.Flight) (*Archive, error) {
	a := &Archive{
		Recording: Recording{
			FileName:        fileName,
			Theater:         theaterName,
			TodOffset:       f.TodOffset,
			StartTime:       f.StartTime,
			EndTime:         f.EndTime,
			DurationSeconds: f.Duration(),
			Corrupted:       f.Corrupted,
			EntityCount:     len(f.Entities),
			FeatureCount:    len(f.Features),
			PositionCount:   f.PositionCount(),
		},
	}

	for uid, e := range f.Entities {
		updates, err := json.Marshal(e.Updates)
		if err != nil {
			return nil, fmt.Errorf("marshaling updates for entity %d: %w", uid, err)
		}
		events, err := json.Marshal(e.Events)
		if err != nil {
			return nil, fmt.Errorf("marshaling events for entity %d: %w", uid, err)
		}

		path, err := theater.PathWKB(e.Updates)
		if err != nil && !errors.Is(err, geo.ErrShortPath) {
			return nil, fmt.Errorf("building path for entity %d: %w", uid, err)
		}

		row := Entity{
			UID:         uid,
			Kind:        e.Kind,
			Flags:       e.Flags,
			UpdateCount: len(e.Updates),
			Updates:     updates,
			Events:      events,
			Path:        path,
		}
		if c, ok := f.Callsigns[uid]; ok {
			row.Callsign = c.LabelString()
			row.TeamColor = c.TeamColor
		}
		a.Entities = append(a.Entities, row)
	}

	for uid, ft := range f.Features {
		var events []flight.FeatureEvent
		for _, ev := range f.FeatureEvents {
			if ev.FeatureUID == uid {
				events = append(events, ev)
			}
		}
		eventsJSON, err := json.Marshal(events)
		if err != nil {
			return nil, fmt.Errorf("marshaling events for feature %d: %w", uid, err)
		}

		row := Feature{
			UID:          uid,
			Kind:         ft.Kind,
			LeadUID:      ft.LeadUID,
			Slot:         ft.Slot,
			SpecialFlags: ft.SpecialFlags,
			Time:         ft.Time,
			X:            ft.X,
			Y:            ft.Y,
			Z:            ft.Z,
			Events:       eventsJSON,
		}
		if c, ok := f.Callsigns[uid]; ok {
			row.Callsign = c.LabelString()
			row.TeamColor = c.TeamColor
		}
		a.Features = append(a.Features, row)
	}

	for _, ev := range f.GeneralEvents {
		a.GeneralEvents = append(a.GeneralEvents, GeneralEvent{
			Tag:   uint8(ev.Tag),
			Start: ev.Start,
			Stop:  ev.Stop,
			Kind:  ev.Kind,
			Scale: ev.Scale,
			X:     ev.X,
			Y:     ev.Y,
			Z:     ev.Z,
		})
	}

	return a, nil
}
