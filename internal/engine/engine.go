// Package engine is an in-process stand-in for libnereon.
//
// It parses configuration and metadata files with HCL and lays the result out
// as nereon_cfg_options / nereon_meta_options records, exactly as the C
// library does, so the decoder in internal/nereon cannot tell the two apart.
// Memory behind each context is tracked in an arena until Finalize.
//
// # Configuration mapping
//
//   - whole numbers that fit int64 become int records, other numbers float
//   - strings, bools, tuples/lists (array) and objects/maps map directly
//   - a block becomes an object keyed by its type; each label nests one more
//     object, and repeated blocks merge into the same object in source order
//   - expressions may read the process environment through env.NAME
//
// # Metadata files
//
//	option "listen_port" {
//	    type         = "int"
//	    switch_short = "p"
//	    switch_long  = "port"
//	    env          = "APP_PORT"
//	    config_key   = "port"
//	    default      = 8080
//	}
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"golang.org/x/sys/unix"

	"grimm.is/nereon/internal/cabi"
	"grimm.is/nereon/internal/logging"
)

// Engine implements the libnereon entry points in Go. It is safe for
// concurrent use with distinct contexts.
type Engine struct {
	mu      sync.Mutex
	arenas  map[*cabi.Ctx]*arena
	logger  *logging.Logger
	environ func() []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithEnviron replaces os.Environ as the source of the env variable.
func WithEnviron(fn func() []string) Option {
	return func(e *Engine) {
		e.environ = fn
	}
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		arenas:  make(map[*cabi.Ctx]*arena),
		logger:  logging.WithComponent("engine"),
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats describes memory held by contexts that have not been finalized.
type Stats struct {
	Contexts int
	Records  int
	Bytes    uintptr
}

// Stats returns the current live allocation totals.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	var s Stats
	for _, a := range e.arenas {
		s.Contexts++
		s.Records += len(a.records) + len(a.metas)
		s.Bytes += a.bytes
	}
	return s
}

// Init builds a context from the given nul-terminated paths; either may be
// nil. It returns cabi.StatusFailed if a file cannot be read or parsed.
func (e *Engine) Init(ctx *cabi.Ctx, cfgPath, metaPath *byte) int32 {
	e.mu.Lock()
	_, busy := e.arenas[ctx]
	e.mu.Unlock()
	if busy {
		e.logger.Warn("context initialized twice without finalize")
		return cabi.StatusFailed
	}
	*ctx = cabi.Ctx{}

	a := &arena{}
	if cfgPath != nil {
		path := unix.BytePtrToString(cfgPath)
		root, err := e.loadConfig(a, path)
		if err != nil {
			e.logger.Warn("config load failed", "path", path, "error", err)
			return cabi.StatusFailed
		}
		ctx.Cfg = unsafe.Pointer(root)
	}
	if metaPath != nil {
		path := unix.BytePtrToString(metaPath)
		metas, err := e.loadMeta(a, path)
		if err != nil {
			e.logger.Warn("meta load failed", "path", path, "error", err)
			*ctx = cabi.Ctx{}
			return cabi.StatusFailed
		}
		if len(metas) > 0 {
			ctx.Meta = unsafe.Pointer(&metas[0])
			ctx.MetaCount = int32(len(metas))
		}
	}

	e.mu.Lock()
	e.arenas[ctx] = a
	e.mu.Unlock()

	e.logger.Debug("context initialized", "records", len(a.records), "meta", ctx.MetaCount, "bytes", a.bytes)
	return 0
}

// Finalize releases the arena behind ctx. Unknown contexts are ignored.
func (e *Engine) Finalize(ctx *cabi.Ctx) {
	e.mu.Lock()
	a, ok := e.arenas[ctx]
	delete(e.arenas, ctx)
	e.mu.Unlock()

	if !ok {
		e.logger.Warn("finalize of unknown context")
		return
	}
	*ctx = cabi.Ctx{}
	e.logger.Debug("context finalized", "records", len(a.records), "bytes", a.bytes)
}

// parseFile reads an HCL file, or its JSON variant when the name ends in .json.
func parseFile(path string) (*hcl.File, error) {
	parser := hclparse.NewParser()

	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse error: %s", diags.Error())
	}
	return file, nil
}

// loadConfig parses path and returns the defunct wrapper record.
func (e *Engine) loadConfig(a *arena, path string) (*cabi.Record, error) {
	file, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	wrapper, err := a.record("", cabi.TagObject)
	if err != nil {
		return nil, err
	}
	root, err := a.record("", cabi.TagObject)
	if err != nil {
		return nil, err
	}
	appendChildren(wrapper, root)

	b := &builder{arena: a, eval: e.evalContext()}
	if err := b.body(root, file.Body); err != nil {
		return nil, err
	}
	return wrapper, nil
}
