// Package vhs writes a parsed flight into the VHS playback file format
// consumed by the simulator's ACMI viewer.
package vhs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/fltvhs/recorder/internal/flight"
)

// Section sizes and the fixed header length. Entities and features share
// the 36-byte directory format; position updates and entity events share
// the 41-byte update union.
const (
	entityOffset        = 80
	entitySize          = 36
	entityUpdateSize    = 41
	generalEventSize    = 65
	generalEventTrailer = 8
	featureEventSize    = 16
	callsignRecordSize  = 20
)

// Update union discriminants inside the 41-byte update node.
const (
	updatePosition = 0
	updateSwitch   = 1
	updateDOF      = 2
)

// layout holds the section offsets and counts derived from a flight before
// anything is written. Offsets are 32-bit; recordings from 1998 never get
// near 4 GB.
type layout struct {
	entityCount        uint32
	featureCount       uint32
	positionCount      uint32
	entityEventCount   uint32
	generalEventCount  uint32
	featureEventCount  uint32
	featureOffset      uint32
	positionOffset     uint32
	entityEventOffset  uint32
	generalEventOffset uint32
	trailerOffset      uint32
	featureEventOffset uint32
	textEventOffset    uint32
	fileLength         uint32
}

func layoutFor(f *flight.Flight) layout {
	var l layout
	l.entityCount = uint32(len(f.Entities))
	l.featureCount = uint32(len(f.Features))
	l.positionCount = uint32(f.PositionCount())
	l.entityEventCount = uint32(f.EventCount())
	l.generalEventCount = uint32(len(f.GeneralEvents))
	l.featureEventCount = uint32(len(f.FeatureEvents))

	l.featureOffset = entityOffset + entitySize*l.entityCount
	l.positionOffset = l.featureOffset + entitySize*l.featureCount
	l.entityEventOffset = l.positionOffset + entityUpdateSize*l.positionCount
	l.generalEventOffset = l.entityEventOffset + entityUpdateSize*l.entityEventCount
	l.trailerOffset = l.generalEventOffset + generalEventSize*l.generalEventCount
	l.featureEventOffset = l.trailerOffset + generalEventTrailer*l.generalEventCount
	l.textEventOffset = l.featureEventOffset + featureEventSize*l.featureEventCount
	l.fileLength = l.textEventOffset + 4 + callsignRecordSize*uint32(len(f.Callsigns))
	return l
}

// Write serializes f as a VHS file. Output is deterministic: entities,
// features, and callsigns are written in ascending UID order.
func Write(f *flight.Flight, w io.Writer) error {
	l := layoutFor(f)

	entityUIDs := sortedKeys(f.Entities)
	featureUIDs := sortedKeys(f.Features)

	bw := &countedWriter{w: bufio.NewWriterSize(w, bufSize(l.fileLength))}

	writeHeader(f, l, bw)
	if bw.pos != entityOffset {
		return fmt.Errorf("vhs: header is %d bytes, want %d", bw.pos, entityOffset)
	}

	featurePositionOffset := writeEntities(f, entityUIDs, l, bw)

	// Feature directory entries refer to other features by index.
	featureIndexes := make(map[int32]int32, len(featureUIDs))
	for i, uid := range featureUIDs {
		featureIndexes[uid] = int32(i)
	}
	writeFeatures(f, featureUIDs, featureIndexes, featurePositionOffset, bw)

	if bw.pos != l.positionOffset {
		return fmt.Errorf("vhs: directory ends at %d, want %d", bw.pos, l.positionOffset)
	}
	writeEntityPositions(f, entityUIDs, bw)
	writeFeaturePositions(f, featureUIDs, bw)

	if bw.pos != l.entityEventOffset {
		return fmt.Errorf("vhs: positions end at %d, want %d", bw.pos, l.entityEventOffset)
	}
	writeEntityEvents(f, entityUIDs, bw)

	if bw.pos != l.generalEventOffset {
		return fmt.Errorf("vhs: entity events end at %d, want %d", bw.pos, l.generalEventOffset)
	}
	writeGeneralEvents(f, l, bw)

	if bw.pos != l.featureEventOffset {
		return fmt.Errorf("vhs: general events end at %d, want %d", bw.pos, l.featureEventOffset)
	}
	writeFeatureEvents(f, featureIndexes, bw)

	if bw.pos != l.textEventOffset {
		return fmt.Errorf("vhs: feature events end at %d, want %d", bw.pos, l.textEventOffset)
	}
	writeCallsigns(f, bw)

	if bw.err == nil && bw.pos != l.fileLength {
		return fmt.Errorf("vhs: wrote %d bytes, want %d", bw.pos, l.fileLength)
	}
	return bw.close()
}

func writeHeader(f *flight.Flight, l layout, w *countedWriter) {
	// The magic is "TAPE" read as a little-endian word.
	w.bytes([]byte("EPAT"))

	// The original viewers store the text event offset in the length
	// field instead of the real file length; TacView insists on it.
	w.u32(l.textEventOffset)
	w.u32(l.entityCount)
	w.u32(l.featureCount)
	w.u32(entityOffset)
	w.u32(l.featureOffset)
	w.u32(l.positionCount)
	w.u32(l.positionOffset)
	w.u32(l.entityEventOffset)
	w.u32(l.generalEventOffset)
	w.u32(l.trailerOffset)
	w.u32(l.textEventOffset)
	w.u32(l.featureEventOffset)
	w.u32(l.generalEventCount)
	w.u32(l.entityEventCount)
	w.u32(0) // text event count, unused since FreeFalcon
	w.u32(l.featureEventCount)
	w.f32(f.StartTime)
	w.f32(f.Duration())
	w.f32(f.TodOffset)
}

// writeEntities emits the entity directory. Each entry points at the head
// of a doubly-linked list of position updates and one of events. Returns
// the offset where feature positions will start.
func writeEntities(f *flight.Flight, uids []int32, l layout, w *countedWriter) uint32 {
	kindIndexes := make(map[int32]int32)
	var positionIndex, eventIndex uint32

	for _, uid := range uids {
		e := f.Entities[uid]
		w.i32(uid)
		w.i32(e.Kind)

		// Each entity stores its 1-based index among entities of the
		// same kind.
		kindIndexes[e.Kind]++
		w.i32(kindIndexes[e.Kind])

		w.u32(e.Flags)
		// Lead index, slot, special flags: only meaningful for features.
		w.i32(0)
		w.i32(0)
		w.u32(0)

		w.u32(l.positionOffset + entityUpdateSize*positionIndex)

		if len(e.Events) == 0 {
			w.u32(0)
		} else {
			w.u32(l.entityEventOffset + entityUpdateSize*eventIndex)
		}

		positionIndex += uint32(len(e.Updates))
		eventIndex += uint32(len(e.Events))
	}

	return l.positionOffset + entityUpdateSize*positionIndex
}

func writeFeatures(f *flight.Flight, uids []int32, indexes map[int32]int32, firstPosition uint32, w *countedWriter) {
	for i, uid := range uids {
		ft := f.Features[uid]
		w.i32(uid)
		w.i32(ft.Kind)
		// Features skip the per-kind index game.
		w.i32(0)
		w.u32(flight.FlagFeature)

		lead, ok := indexes[ft.LeadUID]
		if !ok {
			lead = -1
		}
		w.i32(lead)
		w.i32(ft.Slot)
		w.i32(ft.SpecialFlags)

		w.u32(firstPosition + entityUpdateSize*uint32(i))
		// Feature events live in their own section.
		w.u32(0)
	}
}

func writeEntityPositions(f *flight.Flight, uids []int32, w *countedWriter) {
	// Radar targets are stored as entity indexes, not UIDs.
	entityIndexes := make(map[int32]int32, len(uids))
	for i, uid := range uids {
		entityIndexes[uid] = int32(i)
	}

	for _, uid := range uids {
		e := f.Entities[uid]
		var previousOffset uint32

		for i, u := range e.Updates {
			currentOffset := w.pos
			w.f32(u.Time)
			w.u8(updatePosition)
			w.f32(u.X)
			w.f32(u.Y)
			w.f32(u.Z)
			w.f32(u.Pitch)
			w.f32(u.Roll)
			w.f32(u.Yaw)

			target, ok := entityIndexes[u.RadarTarget]
			if !ok {
				target = -1
			}
			w.i32(target)

			// Updates for one entity are contiguous, which keeps the
			// linked-list bookkeeping trivial.
			if i < len(e.Updates)-1 {
				w.u32(currentOffset + entityUpdateSize)
			} else {
				w.u32(0)
			}
			w.u32(previousOffset)
			previousOffset = currentOffset
		}
	}
}

func writeFeaturePositions(f *flight.Flight, uids []int32, w *countedWriter) {
	for _, uid := range uids {
		ft := f.Features[uid]
		w.f32(ft.Time)
		w.u8(updatePosition)
		w.f32(ft.X)
		w.f32(ft.Y)
		w.f32(ft.Z)
		w.f32(ft.Pitch)
		w.f32(ft.Roll)
		w.f32(ft.Yaw)
		w.i32(-1) // radar target
		w.u32(0)  // single position: no next
		w.u32(0)  // ...and no previous
	}
}

func writeEntityEvents(f *flight.Flight, uids []int32, w *countedWriter) {
	for _, uid := range uids {
		e := f.Entities[uid]
		var previousOffset uint32

		for i, ev := range e.Events {
			currentOffset := w.pos
			w.f32(ev.Time)
			switch {
			case ev.Switch != nil:
				w.u8(updateSwitch)
				w.i32(ev.Switch.SwitchNum)
				w.i32(ev.Switch.SwitchVal)
				w.i32(ev.Switch.PrevSwitchVal)
			case ev.DOF != nil:
				w.u8(updateDOF)
				w.i32(ev.DOF.DOFNum)
				w.f32(ev.DOF.DOFVal)
				w.f32(ev.DOF.PrevDOFVal)
			}
			// The rest of the union is position-update space.
			w.u32(0)
			w.u32(0)
			w.u32(0)
			w.u32(0)

			if i < len(e.Events)-1 {
				w.u32(currentOffset + entityUpdateSize)
			} else {
				w.u32(0)
			}
			w.u32(previousOffset)
			previousOffset = currentOffset
		}
	}
}

func writeGeneralEvents(f *flight.Flight, l layout, w *countedWriter) {
	type trailer struct {
		stop  float32
		index uint32
	}
	trailers := make([]trailer, 0, len(f.GeneralEvents))

	for i, ev := range f.GeneralEvents {
		trailers = append(trailers, trailer{stop: ev.Stop, index: uint32(i)})

		w.u8(uint8(ev.Tag))
		w.u32(uint32(i))
		w.f32(ev.Start)
		w.f32(ev.Stop)
		w.i32(ev.Kind)
		w.i32(ev.User)
		w.i32(ev.Flags)
		w.f32(ev.Scale)
		w.f32(ev.X)
		w.f32(ev.Y)
		w.f32(ev.Z)
		w.f32(ev.DX)
		w.f32(ev.DY)
		w.f32(ev.DZ)
		w.f32(ev.Roll)
		w.f32(ev.Pitch)
		w.f32(ev.Yaw)
	}

	// The trailer list is sorted by stop time so the viewer can expire
	// events chronologically.
	sort.SliceStable(trailers, func(i, j int) bool {
		return trailers[i].stop < trailers[j].stop
	})
	for _, t := range trailers {
		w.f32(t.stop)
		w.u32(t.index)
	}
}

func writeFeatureEvents(f *flight.Flight, indexes map[int32]int32, w *countedWriter) {
	for _, ev := range f.FeatureEvents {
		idx, ok := indexes[ev.FeatureUID]
		if !ok {
			idx = -1
		}
		w.f32(ev.Time)
		w.i32(idx)
		w.i32(ev.NewStatus)
		w.i32(ev.PrevStatus)
	}
}

func writeCallsigns(f *flight.Flight, w *countedWriter) {
	uids := sortedKeys(f.Callsigns)
	w.u32(uint32(len(uids)))
	for _, uid := range uids {
		c := f.Callsigns[uid]
		label := make([]byte, 16)
		copy(label, c.Label)
		w.bytes(label)
		w.i32(c.TeamColor)
	}
}

func sortedKeys[V any](m map[int32]V) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// bufSize caps the write buffer at 100 MB or the file size.
func bufSize(fileLength uint32) int {
	const maxBuf = 100 * 1024 * 1024
	if fileLength < maxBuf {
		return int(fileLength)
	}
	return maxBuf
}

// countedWriter tracks the output position and the first write error so
// the section writers don't have to thread error returns everywhere.
type countedWriter struct {
	w   *bufio.Writer
	pos uint32
	err error
}

func (c *countedWriter) bytes(b []byte) {
	if c.err != nil {
		return
	}
	n, err := c.w.Write(b)
	c.pos += uint32(n)
	c.err = err
}

func (c *countedWriter) u8(v uint8) {
	c.bytes([]byte{v})
}

func (c *countedWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	c.bytes(b[:])
}

func (c *countedWriter) i32(v int32) {
	c.u32(uint32(v))
}

func (c *countedWriter) f32(v float32) {
	c.u32(math.Float32bits(v))
}

func (c *countedWriter) close() error {
	if c.err != nil {
		return fmt.Errorf("vhs: write failed: %w", c.err)
	}
	return c.w.Flush()
}
