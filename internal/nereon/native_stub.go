//go:build !cgo || !nereon

package nereon

// NewNativeLibrary reports that libnereon was not linked into this build.
func NewNativeLibrary() (Library, error) {
	return nil, ErrNativeUnavailable
}
