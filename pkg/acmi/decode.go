package acmi

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Decoder reads records from a byte buffer, one per call. Between calls the
// cursor always sits on a record boundary; decoding never looks past the
// current record's declared length and never backtracks.
//
// Corruption errors are sticky: once the framing is lost there is no
// self-delimiting marker to resynchronize on, so every later call returns
// the same error.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder returns a decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the cursor position: the number of bytes consumed by
// successfully decoded records.
func (d *Decoder) Offset() int {
	return d.off
}

// Decode reads the next record. It returns ErrEndOfStream when the buffer
// is exhausted, and a corruption error (which it remembers) when the stream
// cannot be decoded further. On error no bytes are consumed.
func (d *Decoder) Decode() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}

	remaining := len(d.buf) - d.off
	if remaining == 0 {
		return Record{}, ErrEndOfStream
	}
	if remaining < HeaderLen {
		return Record{}, d.fail(ErrTruncatedHeader)
	}

	tag := Tag(d.buf[d.off])
	time := math.Float32frombits(binary.LittleEndian.Uint32(d.buf[d.off+1:]))

	want, variable, ok := PayloadLength(tag)
	if !ok {
		return Record{}, d.fail(&UnknownRecordTypeError{Tag: tag})
	}
	if remaining-HeaderLen < want {
		return Record{}, d.fail(fmt.Errorf("%s: %w", tag, ErrTruncatedPayload))
	}

	r := reader{buf: d.buf[d.off+HeaderLen:]}
	var data Payload
	if variable {
		list, err := d.decodeCallsigns(&r)
		if err != nil {
			return Record{}, d.fail(err)
		}
		data = list
	} else {
		data = decodeFixed(tag, &r)
	}

	d.off += HeaderLen + r.off
	return Record{Time: time, Data: data}, nil
}

// decodeCallsigns frames the variable-length CallsignList payload from its
// leading entry count.
func (d *Decoder) decodeCallsigns(r *reader) (CallsignList, error) {
	count := r.i32()
	if count < 0 {
		return CallsignList{}, fmt.Errorf("%w: %d", ErrCallsignCount, count)
	}
	if r.remaining() < int(count)*CallsignEntryLen {
		return CallsignList{}, fmt.Errorf("%s: %w", TagCallsignList, ErrTruncatedPayload)
	}
	callsigns := make([]Callsign, count)
	for i := range callsigns {
		callsigns[i] = Callsign{
			Label:     r.bytes(LabelLen),
			TeamColor: r.i32(),
		}
	}
	return CallsignList{Callsigns: callsigns}, nil
}

// decodeFixed parses a fixed-length payload. The caller has already checked
// that enough bytes remain, so the reader cannot overrun.
func decodeFixed(tag Tag, r *reader) Payload {
	switch tag {
	case TagGenPosition:
		return r.position()
	case TagMissilePosition:
		return MissilePosition{GenPosition: r.position()}
	case TagChaffPosition:
		return ChaffPosition{GenPosition: r.position()}
	case TagFlarePosition:
		return FlarePosition{GenPosition: r.position()}
	case TagAircraftPosition:
		return AircraftPosition{GenPosition: r.position(), RadarTarget: r.i32()}
	case TagFeaturePosition:
		return FeaturePosition{
			Kind:         r.i32(),
			UID:          r.i32(),
			LeadUID:      r.i32(),
			Slot:         r.i32(),
			SpecialFlags: r.i32(),
			X:            r.f32(),
			Y:            r.f32(),
			Z:            r.f32(),
			Yaw:          r.f32(),
			Pitch:        r.f32(),
			Roll:         r.f32(),
		}
	case TagTracerStart:
		return TracerStart{
			X:  r.f32(),
			Y:  r.f32(),
			Z:  r.f32(),
			DX: r.f32(),
			DY: r.f32(),
			DZ: r.f32(),
		}
	case TagStationarySfx:
		return StationarySfx{
			Kind:       r.i32(),
			X:          r.f32(),
			Y:          r.f32(),
			Z:          r.f32(),
			TimeToLive: r.f32(),
			Scale:      r.f32(),
		}
	case TagMovingSfx:
		return MovingSfx{
			Kind:       r.i32(),
			User:       r.i32(),
			Flags:      r.i32(),
			X:          r.f32(),
			Y:          r.f32(),
			Z:          r.f32(),
			DX:         r.f32(),
			DY:         r.f32(),
			DZ:         r.f32(),
			TimeToLive: r.f32(),
			Scale:      r.f32(),
		}
	case TagSwitch:
		return Switch{
			Kind:          r.i32(),
			UID:           r.i32(),
			SwitchNum:     r.i32(),
			SwitchVal:     r.i32(),
			PrevSwitchVal: r.i32(),
		}
	case TagDOF:
		return DOF{
			Kind:       r.i32(),
			UID:        r.i32(),
			DOFNum:     r.i32(),
			DOFVal:     r.f32(),
			PrevDOFVal: r.f32(),
		}
	case TagTodOffset:
		return TodOffset{}
	case TagFeatureStatus:
		return FeatureStatus{
			UID:        r.i32(),
			NewStatus:  r.i32(),
			PrevStatus: r.i32(),
		}
	}
	// Unreachable: the tag was validated against the catalog.
	panic(fmt.Sprintf("acmi: no decoder for tag %d", uint8(tag)))
}

func (d *Decoder) fail(err error) error {
	d.err = err
	return err
}

// reader walks a payload slice field by field.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) i32() int32 {
	v := int32(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}

// f32 reads the exact bit pattern; NaN payloads survive verbatim.
func (r *reader) f32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	v := make([]byte, n)
	copy(v, r.buf[r.off:r.off+n])
	r.off += n
	return v
}

func (r *reader) position() GenPosition {
	return GenPosition{
		Kind:  r.i32(),
		UID:   r.i32(),
		X:     r.f32(),
		Y:     r.f32(),
		Z:     r.f32(),
		Yaw:   r.f32(),
		Pitch: r.f32(),
		Roll:  r.f32(),
	}
}
