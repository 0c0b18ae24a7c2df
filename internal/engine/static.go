package engine

import (
	"sync"
	"unsafe"

	"grimm.is/nereon/internal/cabi"
)

// Builder assembles record trees by hand, including layouts the HCL front
// end never produces such as bool, ipport or unknown tags. Records stay valid
// while the Builder is reachable.
type Builder struct {
	a arena
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) must(key string, tag cabi.Tag) *cabi.Record {
	rec, err := b.a.record(key, tag)
	if err != nil {
		panic(err)
	}
	return rec
}

func (b *Builder) Int(key string, v int64) *cabi.Record {
	rec := b.must(key, cabi.TagInt)
	rec.Data.PutInt64(v)
	return rec
}

func (b *Builder) Bool(key string, v bool) *cabi.Record {
	rec := b.must(key, cabi.TagBool)
	rec.Data.PutBool(v)
	return rec
}

func (b *Builder) IPPort(key string, v int32) *cabi.Record {
	rec := b.must(key, cabi.TagIPPort)
	rec.Data.PutInt32(v)
	return rec
}

func (b *Builder) Float(key string, v float32) *cabi.Record {
	rec := b.must(key, cabi.TagFloat)
	rec.Data.PutFloat32(v)
	return rec
}

func (b *Builder) String(key, v string) *cabi.Record {
	rec, err := b.a.stringRecord(key, v)
	if err != nil {
		panic(err)
	}
	return rec
}

// Bytes stores arbitrary bytes, nul-terminated, as a string record. It can
// produce text that is not valid UTF-8.
func (b *Builder) Bytes(key string, v []byte) *cabi.Record {
	rec := b.must(key, cabi.TagString)
	buf := append(append([]byte(nil), v...), 0)
	b.a.strings = append(b.a.strings, buf)
	rec.Data.PutPointer(unsafe.Pointer(&buf[0]))
	return rec
}

// Raw returns a record with an arbitrary tag and payload.
func (b *Builder) Raw(key string, tag cabi.Tag, data cabi.Payload) *cabi.Record {
	rec := b.must(key, tag)
	rec.Data = data
	return rec
}

func (b *Builder) Array(key string, items ...*cabi.Record) *cabi.Record {
	rec := b.must(key, cabi.TagArray)
	appendChildren(rec, items...)
	return rec
}

func (b *Builder) Object(key string, fields ...*cabi.Record) *cabi.Record {
	rec := b.must(key, cabi.TagObject)
	appendChildren(rec, fields...)
	return rec
}

// Wrap returns the defunct wrapper node the library places above the root.
// A nil root gives a wrapper without children.
func (b *Builder) Wrap(root *cabi.Record) *cabi.Record {
	w := b.must("", cabi.TagObject)
	if root != nil {
		appendChildren(w, root)
	}
	return w
}

// Static returns a Library whose contexts all point at cfg, which is normally
// a Wrap result. A nil cfg yields contexts with no tree.
func (b *Builder) Static(cfg *cabi.Record) *Static {
	return &Static{owner: b, cfg: cfg, live: make(map[*cabi.Ctx]bool)}
}

// Static serves a prebuilt tree and counts calls into it.
type Static struct {
	// FailInit makes every Init report cabi.StatusFailed.
	FailInit bool
	// Metas is exposed through Ctx.Meta when non-empty.
	Metas []cabi.Meta

	owner *Builder
	cfg   *cabi.Record

	mu        sync.Mutex
	inits     int
	finalizes int
	live      map[*cabi.Ctx]bool
}

func (s *Static) Init(ctx *cabi.Ctx, _, _ *byte) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	*ctx = cabi.Ctx{}
	if s.FailInit {
		return cabi.StatusFailed
	}
	s.inits++
	s.live[ctx] = true
	ctx.Cfg = unsafe.Pointer(s.cfg)
	if len(s.Metas) > 0 {
		ctx.Meta = unsafe.Pointer(&s.Metas[0])
		ctx.MetaCount = int32(len(s.Metas))
	}
	return 0
}

func (s *Static) Finalize(ctx *cabi.Ctx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finalizes++
	delete(s.live, ctx)
	*ctx = cabi.Ctx{}
}

// Inits returns the number of successful Init calls.
func (s *Static) Inits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inits
}

// Finalizes returns the number of Finalize calls.
func (s *Static) Finalizes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizes
}

// Live returns the number of contexts initialized and not yet finalized.
func (s *Static) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
