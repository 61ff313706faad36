package fluxion

import "github.com/fluxionfmt/fluxion/internal/fluxionerr"

// Error is the tagged error type returned by Encode and Decode. Use
// errors.As to recover it and inspect Kind, or errors.Is against one of
// the Err* sentinels below to match a failure class.
type Error = fluxionerr.Error

// ErrorKind identifies which format-level failure occurred.
type ErrorKind = fluxionerr.Kind

// The failure classes a Fluxion codec can report. Match with
// errors.Is(err, fluxion.ErrInvalidHeader) and so on; the byte, offset,
// or index that accompanies a given failure is only on the concrete
// *Error value, via errors.As.
var (
	ErrInvalidHeader       = fluxionerr.New(fluxionerr.KindInvalidHeader, "")
	ErrEndOfStream         = fluxionerr.New(fluxionerr.KindEndOfStream, "")
	ErrUnsupportedVersion  = fluxionerr.New(fluxionerr.KindUnsupportedVersion, "")
	ErrUnknownEncoding     = fluxionerr.New(fluxionerr.KindUnknownEncoding, "")
	ErrUnknownValueType    = fluxionerr.New(fluxionerr.KindUnknownValueType, "")
	ErrValueTypeMismatch   = fluxionerr.New(fluxionerr.KindValueTypeMismatch, "")
	ErrInvalidParent       = fluxionerr.New(fluxionerr.KindInvalidParent, "")
	ErrAnalyzedDataMissing = fluxionerr.New(fluxionerr.KindAnalyzedDataMissing, "")
	ErrEstimationMismatch  = fluxionerr.New(fluxionerr.KindEstimationMismatch, "")
	ErrDisorientedRead     = fluxionerr.New(fluxionerr.KindDisorientedRead, "")
	ErrUnexpectedItemType  = fluxionerr.New(fluxionerr.KindUnexpectedItemType, "")
)
