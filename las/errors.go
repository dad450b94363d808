package las

import "errors"

// Decoding errors. Every failure returned by this package wraps exactly one
// of these, so callers can branch with errors.Is.
var (
	ErrInvalidFile        = errors.New("unknown file format")
	ErrInvalidRange       = errors.New("invalid point range")
	ErrVersionUnsupported = errors.New("unsupported version, supported versions: 1.0, 1.1, 1.2 and 1.3")
	ErrFormatUnsupported  = errors.New("unknown point format, known formats: 0, 1, 2, 3, 4 and 5")
	ErrIORead             = errors.New("truncated read")

	ErrAttributeUnsupported = errors.New("attribute not present in point format")
	ErrShortBuffer          = errors.New("destination buffer too small")
	ErrInvalidProjection    = errors.New("invalid attribute projection")
)

// Legacy result codes, as returned by Code.
const (
	CodeSuccess              = 0
	CodeInvalidFile          = -1
	CodeInvalidRange         = -2
	CodeVersionUnsupported   = -3
	CodeFormatUnsupported    = -4
	CodeIORead               = -5
	CodeAttributeUnsupported = -6
	CodeShortBuffer          = -7
	CodeInvalidProjection    = -8
	CodeUnknown              = -100
)

var codes = []struct {
	err  error
	code int
}{
	{ErrInvalidFile, CodeInvalidFile},
	{ErrInvalidRange, CodeInvalidRange},
	{ErrVersionUnsupported, CodeVersionUnsupported},
	{ErrFormatUnsupported, CodeFormatUnsupported},
	{ErrIORead, CodeIORead},
	{ErrAttributeUnsupported, CodeAttributeUnsupported},
	{ErrShortBuffer, CodeShortBuffer},
	{ErrInvalidProjection, CodeInvalidProjection},
}

// Code maps err to the numeric result code used by the historical API of
// this decoder. A nil error maps to CodeSuccess and an error that wraps none
// of the package sentinels maps to CodeUnknown.
func Code(err error) int {
	if err == nil {
		return CodeSuccess
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
