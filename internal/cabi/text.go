package cabi

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
	"unsafe"
)

var (
	// ErrUnterminated is returned when a fixed buffer has no nul byte.
	ErrUnterminated = errors.New("buffer is not nul-terminated")
	// ErrNotUTF8 is returned when foreign bytes are not valid UTF-8.
	ErrNotUTF8 = errors.New("not valid UTF-8")
	// ErrNilString is returned for a nil string reference.
	ErrNilString = errors.New("nil string reference")
	// ErrTooLong is returned when text does not fit a fixed buffer.
	ErrTooLong = errors.New("text exceeds buffer capacity")
	// ErrEmbeddedNul is returned when text to be stored contains a nul byte.
	ErrEmbeddedNul = errors.New("text contains a nul byte")
)

// CString returns a copy of the text in a fixed-capacity, nul-terminated
// buffer such as Record.Key.
func CString(buf []byte) (string, error) {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		return "", ErrUnterminated
	}
	if !utf8.Valid(buf[:n]) {
		return "", ErrNotUTF8
	}
	return string(buf[:n]), nil
}

// GoString copies the nul-terminated string at p. The foreign buffer is not
// retained.
func GoString(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", ErrNilString
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	b := unsafe.Slice((*byte)(p), n)
	if !utf8.Valid(b) {
		return "", ErrNotUTF8
	}
	return string(b), nil
}

// PutCString writes s and a terminating nul into dst, zeroing the remainder.
func PutCString(dst []byte, s string) error {
	if len(s) >= len(dst) {
		return fmt.Errorf("%w: %d bytes into %d", ErrTooLong, len(s), len(dst))
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return ErrEmbeddedNul
	}
	n := copy(dst, s)
	clear(dst[n:])
	return nil
}
