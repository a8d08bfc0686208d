package acmi

import "errors"

// Stream iterates over all records in a buffer, bufio.Scanner style:
//
//	s := acmi.NewStream(buf)
//	for s.Next() {
//	    use(s.Record())
//	}
//	if err := s.Err(); err != nil {
//	    // the recording is corrupt past s.Offset()
//	}
//
// The sequence is lazy, finite, and forward-only; it terminates on the
// first corruption error without attempting resynchronization.
type Stream struct {
	d   *Decoder
	rec Record
	err error
}

// NewStream returns a stream over buf.
func NewStream(buf []byte) *Stream {
	return &Stream{d: NewDecoder(buf)}
}

// Next advances to the next record. It returns false at end of stream and
// on the first decode error; Err distinguishes the two.
func (s *Stream) Next() bool {
	if s.err != nil {
		return false
	}
	rec, err := s.d.Decode()
	if err != nil {
		s.err = err
		return false
	}
	s.rec = rec
	return true
}

// Record returns the record read by the last successful Next.
func (s *Stream) Record() Record {
	return s.rec
}

// Err returns nil if the stream ended normally, or the corruption error
// that terminated it.
func (s *Stream) Err() error {
	if s.err == nil || errors.Is(s.err, ErrEndOfStream) {
		return nil
	}
	return s.err
}

// Offset returns the number of bytes successfully decoded so far.
func (s *Stream) Offset() int {
	return s.d.Offset()
}
