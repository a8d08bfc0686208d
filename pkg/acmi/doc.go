// Package acmi implements the binary record codec for Falcon ACMI flight
// recordings (.flt streams).
//
// # Record Format
//
// A recording is an unframed concatenation of records. Every record starts
// with a 5-byte header:
//
//	[tag(1)][time(4, float32)]
//
// followed by a payload whose layout and length are fixed by the tag. All
// integers are signed 32-bit two's-complement, all reals are IEEE-754
// binary32, everything is little-endian, and no padding is ever inserted.
// There is no length prefix, magic number, or checksum: the tag byte is the
// only framing information, so a stream is unrecoverable past the first
// unknown tag or truncated record.
//
// The one variable-length record is CallsignList (tag 13): its payload is an
// int32 entry count followed by that many 20-byte callsign entries
// (16-byte zero-padded label + int32 team color).
//
// # Errors
//
// Decoding distinguishes the expected end of a well-formed stream
// (ErrEndOfStream) from corruption (ErrTruncatedHeader, ErrTruncatedPayload,
// UnknownRecordTypeError). Corruption errors are terminal: the decoder will
// return the same error for every subsequent call. ErrLabelTooLong is the
// only encode-time error and is local to the offending record.
//
// # Thread Safety
//
// The catalog is immutable data. Encode is a pure function. Decoder and
// Stream instances assume exclusive access to their buffer for the duration
// of a call; independent instances never need coordination.
package acmi
