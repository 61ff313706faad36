// Package fluxionerr defines the tagged error taxonomy shared by every
// Fluxion codec. Every failure mode named by the format is represented
// by exactly one Kind, so callers can recover with errors.Is/errors.As
// instead of string matching.
package fluxionerr

import "fmt"

// Kind identifies which format-level failure occurred.
type Kind int

// The error variants named by the format core.
const (
	KindInvalidHeader Kind = iota
	KindEndOfStream
	KindUnsupportedVersion
	KindUnknownEncoding
	KindUnknownValueType
	KindValueTypeMismatch
	KindInvalidParent
	KindAnalyzedDataMissing
	KindEstimationMismatch
	KindDisorientedRead
	KindUnexpectedItemType
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHeader:
		return "InvalidHeader"
	case KindEndOfStream:
		return "EndOfStream"
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	case KindUnknownEncoding:
		return "UnknownEncoding"
	case KindUnknownValueType:
		return "UnknownValueType"
	case KindValueTypeMismatch:
		return "ValueTypeMismatch"
	case KindInvalidParent:
		return "InvalidParent"
	case KindAnalyzedDataMissing:
		return "AnalyzedDataMissing"
	case KindEstimationMismatch:
		return "EstimationMismatch"
	case KindDisorientedRead:
		return "DisorientedRead"
	case KindUnexpectedItemType:
		return "UnexpectedItemType"
	default:
		return "Unknown"
	}
}

// Error is the single tagged error type exposed by every Fluxion codec.
// Fields beyond Kind and Msg are populated only where the variant carries
// extra context (byte values, offsets, indices).
type Error struct {
	Kind     Kind
	Msg      string
	Byte     byte
	Expected uint64
	Actual   uint64
	Index    int
	Wanted   string
	cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("fluxion: %s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("fluxion: %s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *Error with the same Kind, so callers
// can match with errors.Is(err, fluxionerr.New(fluxionerr.KindInvalidParent, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New constructs a bare Error of the given Kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an Error of the given Kind wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

// InvalidHeader reports a magic-byte mismatch.
func InvalidHeader(msg string) *Error {
	return New(KindInvalidHeader, msg)
}

// EndOfStream reports a short read at an expected field.
func EndOfStream(context string) *Error {
	return New(KindEndOfStream, context)
}

// UnsupportedVersion reports a version byte outside the supported range.
func UnsupportedVersion(version byte) *Error {
	return &Error{Kind: KindUnsupportedVersion, Msg: fmt.Sprintf("version byte %d is not supported", version), Byte: version}
}

// UnknownEncoding reports an encoding byte not in {0,1,2}.
func UnknownEncoding(b byte) *Error {
	return &Error{Kind: KindUnknownEncoding, Msg: fmt.Sprintf("encoding byte %d is not recognized", b), Byte: b}
}

// UnknownValueType reports a value-type id outside 0..15.
func UnknownValueType(b byte) *Error {
	return &Error{Kind: KindUnknownValueType, Msg: fmt.Sprintf("value type id %d is not recognized", b), Byte: b}
}

// ValueTypeMismatch reports a v3 declared type disagreeing with the pool entry's type.
func ValueTypeMismatch(expected, actual byte) *Error {
	return &Error{
		Kind:     KindValueTypeMismatch,
		Msg:      fmt.Sprintf("declared value type %d does not match pool entry type %d", expected, actual),
		Expected: uint64(expected),
		Actual:   uint64(actual),
	}
}

// InvalidParent reports a cycle or self-parent attempt.
func InvalidParent(msg string) *Error {
	return New(KindInvalidParent, msg)
}

// AnalyzedDataMissing reports a writer invariant violation: a referenced
// pool entry was not found during v2/v3 analysis.
func AnalyzedDataMissing(what string) *Error {
	return New(KindAnalyzedDataMissing, what)
}

// EstimationMismatch reports that the v2 pool size prediction did not
// match the actual emission.
func EstimationMismatch(expected, actual uint64) *Error {
	return &Error{
		Kind:     KindEstimationMismatch,
		Msg:      fmt.Sprintf("predicted pool end %d, actual %d", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

// DisorientedRead reports a v3 item control byte outside the defined set.
func DisorientedRead(value byte) *Error {
	return &Error{Kind: KindDisorientedRead, Msg: fmt.Sprintf("control byte 0x%02x is not a defined item tag", value), Byte: value}
}

// UnexpectedItemType reports a v3 root or container index referencing the wrong item kind.
func UnexpectedItemType(index int, wantedKind string) *Error {
	return &Error{Kind: KindUnexpectedItemType, Msg: fmt.Sprintf("item %d is not a %s", index, wantedKind), Index: index, Wanted: wantedKind}
}
