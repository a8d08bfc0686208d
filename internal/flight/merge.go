package flight

import (
	"math"
	"sort"
)

const (
	// Flights more than a second apart are separate sorties.
	mergeMaxGap = 1.0
	// An entity of the same kind within a mile (in feet) of where its
	// counterpart left off is treated as the same object.
	mergeMaxDistance = 5280.0
)

// CanMerge reports whether next is a continuation of f: same time of day,
// uncorrupted predecessor, and no more than a second between f's last
// record and next's first.
func (f *Flight) CanMerge(next *Flight) bool {
	if f.Corrupted {
		return false
	}
	if f.TodOffset != next.TodOffset {
		return false
	}
	return float64(next.StartTime-f.EndTime) <= mergeMaxGap
}

// Merge folds next into f. Entities are matched by kind and proximity
// (next's first position against f's last); features by everything except
// time and lead UID. Unmatched objects get fresh UIDs, and radar-target and
// lead references from next are remapped accordingly.
func (f *Flight) Merge(next *Flight) {
	f.Corrupted = f.Corrupted || next.Corrupted
	f.EndTime = next.EndTime

	nextUID := f.maxUID() + 1
	f.mergeEntities(next, &nextUID)
	f.mergeFeatures(next, &nextUID)
	f.GeneralEvents = append(f.GeneralEvents, next.GeneralEvents...)
}

func (f *Flight) maxUID() int32 {
	var uid int32
	for k := range f.Entities {
		if k > uid {
			uid = k
		}
	}
	for k := range f.Features {
		if k > uid {
			uid = k
		}
	}
	return uid
}

// sortedUIDs returns map keys in ascending order so merging is
// deterministic regardless of map iteration order.
func sortedUIDs[V any](m map[int32]V) []int32 {
	uids := make([]int32, 0, len(m))
	for uid := range m {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}

func (f *Flight) mergeEntities(next *Flight, nextUID *int32) {
	used := make(map[int32]bool, len(f.Entities))
	remap := make(map[int32]int32, len(next.Entities))

	for _, nid := range sortedUIDs(next.Entities) {
		ne := next.Entities[nid]
		first := ne.Updates[0]

		var closest int32
		closestDist := math.Inf(1)
		for _, pid := range sortedUIDs(f.Entities) {
			pe := f.Entities[pid]
			if pe.Kind != ne.Kind || used[pid] {
				continue
			}
			last := pe.Updates[len(pe.Updates)-1]
			dist := math.Sqrt(
				math.Pow(float64(first.X-last.X), 2) +
					math.Pow(float64(first.Y-last.Y), 2) +
					math.Pow(float64(first.Z-last.Z), 2))
			if dist < closestDist {
				closest = pid
				closestDist = dist
			}
			if dist == 0 {
				break
			}
		}

		if closestDist < mergeMaxDistance {
			used[closest] = true
			remap[nid] = closest
		} else {
			remap[nid] = *nextUID
			if c, ok := next.Callsigns[nid]; ok {
				f.Callsigns[*nextUID] = c
			}
			*nextUID++
		}
	}

	// With the mapping settled, copy positions and events over, fixing up
	// radar targets to the merged UIDs.
	for nid, ne := range next.Entities {
		pid := remap[nid]
		pe, ok := f.Entities[pid]
		if !ok {
			pe = &Entity{Defined: true, Kind: ne.Kind, Flags: ne.Flags}
			f.Entities[pid] = pe
		}
		for _, u := range ne.Updates {
			target, ok := remap[u.RadarTarget]
			if !ok {
				target = -1
			}
			u.RadarTarget = target
			pe.Updates = append(pe.Updates, u)
		}
		pe.Events = append(pe.Events, ne.Events...)
	}
}

func (f *Flight) mergeFeatures(next *Flight, nextUID *int32) {
	remap := make(map[int32]int32, len(next.Features))
	firstNew := *nextUID

	for _, nid := range sortedUIDs(next.Features) {
		nf := next.Features[nid]

		matched := false
		for _, pid := range sortedUIDs(f.Features) {
			pf := f.Features[pid]
			// Everything but time and lead UID (which change between
			// files) has to match; features don't move.
			if pf.Kind == nf.Kind && pf.Slot == nf.Slot &&
				pf.SpecialFlags == nf.SpecialFlags &&
				pf.X == nf.X && pf.Y == nf.Y && pf.Z == nf.Z &&
				pf.Pitch == nf.Pitch && pf.Roll == nf.Roll && pf.Yaw == nf.Yaw {
				remap[nid] = pid
				matched = true
				break
			}
		}
		if !matched {
			remap[nid] = *nextUID
			if c, ok := next.Callsigns[nid]; ok {
				f.Callsigns[*nextUID] = c
			}
			*nextUID++
		}
	}

	for nid, nf := range next.Features {
		pid := remap[nid]
		if pid < firstNew {
			continue // already present in f
		}
		copied := *nf
		if lead, ok := remap[nf.LeadUID]; ok {
			copied.LeadUID = lead
		}
		f.Features[pid] = &copied
	}

	for _, ev := range next.FeatureEvents {
		ev.FeatureUID = remap[ev.FeatureUID]
		f.FeatureEvents = append(f.FeatureEvents, ev)
	}
}
