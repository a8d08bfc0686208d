package acmi

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes one record: the 1-byte tag, the 4-byte timestamp, then
// the payload fields in catalog order. Every field is written individually
// at its declared width, little-endian; the layout is a wire contract, not
// a struct memory layout. For fixed-length tags the output length always
// equals the catalog total.
func Encode(p Payload, time float32) ([]byte, error) {
	size, err := encodedSize(p)
	if err != nil {
		return nil, err
	}

	b := appender{buf: make([]byte, 0, size)}
	b.u8(uint8(p.Tag()))
	b.f32(time)

	switch v := p.(type) {
	case GenPosition:
		b.position(v)
	case MissilePosition:
		b.position(v.GenPosition)
	case ChaffPosition:
		b.position(v.GenPosition)
	case FlarePosition:
		b.position(v.GenPosition)
	case AircraftPosition:
		b.position(v.GenPosition)
		b.i32(v.RadarTarget)
	case FeaturePosition:
		b.i32(v.Kind)
		b.i32(v.UID)
		b.i32(v.LeadUID)
		b.i32(v.Slot)
		b.i32(v.SpecialFlags)
		b.f32(v.X)
		b.f32(v.Y)
		b.f32(v.Z)
		b.f32(v.Yaw)
		b.f32(v.Pitch)
		b.f32(v.Roll)
	case TracerStart:
		b.f32(v.X)
		b.f32(v.Y)
		b.f32(v.Z)
		b.f32(v.DX)
		b.f32(v.DY)
		b.f32(v.DZ)
	case StationarySfx:
		b.i32(v.Kind)
		b.f32(v.X)
		b.f32(v.Y)
		b.f32(v.Z)
		b.f32(v.TimeToLive)
		b.f32(v.Scale)
	case MovingSfx:
		b.i32(v.Kind)
		b.i32(v.User)
		b.i32(v.Flags)
		b.f32(v.X)
		b.f32(v.Y)
		b.f32(v.Z)
		b.f32(v.DX)
		b.f32(v.DY)
		b.f32(v.DZ)
		b.f32(v.TimeToLive)
		b.f32(v.Scale)
	case Switch:
		b.i32(v.Kind)
		b.i32(v.UID)
		b.i32(v.SwitchNum)
		b.i32(v.SwitchVal)
		b.i32(v.PrevSwitchVal)
	case DOF:
		b.i32(v.Kind)
		b.i32(v.UID)
		b.i32(v.DOFNum)
		b.f32(v.DOFVal)
		b.f32(v.PrevDOFVal)
	case TodOffset:
		// header only
	case FeatureStatus:
		b.i32(v.UID)
		b.i32(v.NewStatus)
		b.i32(v.PrevStatus)
	case CallsignList:
		b.i32(int32(len(v.Callsigns)))
		for _, c := range v.Callsigns {
			b.label(c.Label)
			b.i32(c.TeamColor)
		}
	default:
		return nil, fmt.Errorf("acmi: cannot encode payload type %T", p)
	}

	if len(b.buf) != size {
		return nil, fmt.Errorf("acmi: encoded %s to %d bytes, want %d",
			p.Tag(), len(b.buf), size)
	}
	return b.buf, nil
}

// encodedSize returns the total record length for p, validating callsign
// labels up front so a too-long label never clips into the next entry.
func encodedSize(p Payload) (int, error) {
	if v, ok := p.(CallsignList); ok {
		for _, c := range v.Callsigns {
			if len(c.Label) > LabelLen {
				return 0, fmt.Errorf("callsign %q: %w", c.Label, ErrLabelTooLong)
			}
		}
		return HeaderLen + 4 + CallsignEntryLen*len(v.Callsigns), nil
	}
	n, ok := RecordLength(p.Tag())
	if !ok {
		return 0, &UnknownRecordTypeError{Tag: p.Tag()}
	}
	return n, nil
}

// appender writes wire primitives to a growing buffer.
type appender struct {
	buf []byte
}

func (a *appender) u8(v uint8) {
	a.buf = append(a.buf, v)
}

func (a *appender) i32(v int32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(v))
}

// f32 writes the exact bit pattern of v; NaN payloads survive verbatim.
func (a *appender) f32(v float32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, math.Float32bits(v))
}

func (a *appender) position(v GenPosition) {
	a.i32(v.Kind)
	a.i32(v.UID)
	a.f32(v.X)
	a.f32(v.Y)
	a.f32(v.Z)
	a.f32(v.Yaw)
	a.f32(v.Pitch)
	a.f32(v.Roll)
}

// label writes v zero-padded to LabelLen bytes. Length is validated by
// encodedSize before any bytes are written.
func (a *appender) label(v []byte) {
	a.buf = append(a.buf, v...)
	for i := len(v); i < LabelLen; i++ {
		a.buf = append(a.buf, 0)
	}
}
