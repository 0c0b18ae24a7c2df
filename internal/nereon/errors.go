package nereon

import (
	"errors"
	"fmt"
)

var (
	// ErrOpenFailed is returned when the foreign library refuses to build a
	// context. The library does not say why (missing file, parse error).
	ErrOpenFailed = errors.New("nereon: failed to get configuration")

	// ErrUnknownTag matches any *UnknownTagError.
	ErrUnknownTag = errors.New("nereon: unknown record type")

	// ErrInvalidText is returned when a key, string value or path is not
	// valid nul-terminated UTF-8.
	ErrInvalidText = errors.New("nereon: invalid text")

	// ErrSessionClosed is returned by Session methods called after Close.
	ErrSessionClosed = errors.New("nereon: session closed")

	// ErrNativeUnavailable is returned by NewNativeLibrary when the binary was
	// built without the cgo binding.
	ErrNativeUnavailable = errors.New("nereon: built without libnereon (use -tags nereon)")
)

// UnknownTagError reports a record whose type tag is outside the known set.
// The whole decode is abandoned when one is found.
type UnknownTagError struct {
	Tag int32
	Key string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("nereon: unknown record type %d for key %q", e.Tag, e.Key)
}

// Is makes errors.Is(err, ErrUnknownTag) true.
func (e *UnknownTagError) Is(target error) bool {
	return target == ErrUnknownTag
}

// faultKind labels err for metrics.
func faultKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrInvalidText):
		return "invalid_text"
	default:
		return "other"
	}
}
