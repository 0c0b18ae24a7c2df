// Package nereon decodes configuration trees built by libnereon into owned
// tree.Node values.
//
// # Overview
//
// libnereon parses a configuration file (and an optional metadata file) and
// hands back a context whose cfg field points at a tree of tagged records
// linked by child and sibling pointers. That memory belongs to the library and
// is only valid until the context is finalized. This package:
//   - marshals the two optional paths for the C API
//   - opens and always finalizes the context ([Session], [WithSession])
//   - copies the record tree into a [tree.Node] while the context is open
//
// The foreign side is reached through the [Library] interface. Builds with
// -tags nereon (and cgo) link the real libnereon; every build also carries the
// in-process HCL engine from internal/engine, which lays out records the same
// way.
//
// # Example
//
//	root, err := nereon.Decode(nereon.DefaultLibrary(), "/etc/app/app.hcl", "")
//	if err != nil {
//	    return err
//	}
//	if root == nil {
//	    // no configuration supplied
//	}
package nereon

import (
	"fmt"
	"os"

	"grimm.is/nereon/internal/brand"
	"grimm.is/nereon/internal/cabi"
	"grimm.is/nereon/internal/engine"
)

// Library is the foreign boundary: nereon_ctx_init and nereon_ctx_finalize.
//
// Init fills ctx and returns cabi.StatusFailed on failure. A nil path means
// the path was not supplied. Finalize releases everything Init allocated and
// must be called exactly once per successful Init.
type Library interface {
	Init(ctx *cabi.Ctx, cfgPath, metaPath *byte) int32
	Finalize(ctx *cabi.Ctx)
}

// Backend names accepted by LibraryByName.
const (
	BackendNative = "native"
	BackendHCL    = "hcl"
)

// DefaultLibrary returns the backend selected by the NEREON_BACKEND
// environment variable, falling back to libnereon when linked in and the HCL
// engine otherwise.
func DefaultLibrary() Library {
	if name := os.Getenv(brand.ConfigEnvPrefix + "_BACKEND"); name != "" {
		if lib, err := LibraryByName(name); err == nil {
			return lib
		}
	}
	if lib, err := NewNativeLibrary(); err == nil {
		return lib
	}
	return engine.New()
}

// LibraryByName returns the named backend. An empty name means DefaultLibrary.
func LibraryByName(name string) (Library, error) {
	switch name {
	case "":
		return DefaultLibrary(), nil
	case BackendNative:
		return NewNativeLibrary()
	case BackendHCL:
		return engine.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", name, BackendNative, BackendHCL)
	}
}
