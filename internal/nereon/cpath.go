package nereon

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// cPath is a path marshalled for the foreign API. It owns its buffer, so the
// pointer from ptr stays valid for as long as the cPath itself is reachable.
type cPath struct {
	buf []byte
}

// newCPath marshals path. The empty string stands for "no path" and yields a
// nil pointer, which libnereon reads as "not supplied".
func newCPath(path string) (cPath, error) {
	if path == "" {
		return cPath{}, nil
	}
	if !utf8.ValidString(path) {
		return cPath{}, fmt.Errorf("%w: path %q is not valid UTF-8", ErrInvalidText, path)
	}
	buf, err := unix.ByteSliceFromString(path)
	if err != nil {
		return cPath{}, fmt.Errorf("%w: path %q contains a nul byte", ErrInvalidText, path)
	}
	return cPath{buf: buf}, nil
}

func (p cPath) ptr() *byte {
	if p.buf == nil {
		return nil
	}
	return &p.buf[0]
}
