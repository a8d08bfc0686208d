package acmi

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream signals that decoding reached the end of well-formed
	// input. It is the expected terminal condition, not corruption.
	ErrEndOfStream = errors.New("acmi: end of stream")

	// ErrTruncatedHeader signals that fewer than HeaderLen bytes remain, so
	// not even the tag and timestamp can be read.
	ErrTruncatedHeader = errors.New("acmi: truncated record header")

	// ErrTruncatedPayload signals a known tag whose payload is cut short.
	ErrTruncatedPayload = errors.New("acmi: truncated record payload")

	// ErrLabelTooLong signals a callsign label longer than LabelLen bytes.
	// Encode-time only, and recoverable: the caller may shorten and retry.
	ErrLabelTooLong = errors.New("acmi: callsign label exceeds 16 bytes")

	// ErrCallsignCount signals a CallsignList entry count that cannot be
	// valid (negative). Fatal, like any other framing corruption.
	ErrCallsignCount = errors.New("acmi: callsign count out of range")
)

// UnknownRecordTypeError reports a tag outside the catalog. Since record
// framing depends on the tag, the stream cannot be decoded past this point.
type UnknownRecordTypeError struct {
	Tag Tag
}

func (e *UnknownRecordTypeError) Error() string {
	return fmt.Sprintf("acmi: unknown record type %d", uint8(e.Tag))
}
