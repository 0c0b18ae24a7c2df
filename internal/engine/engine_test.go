package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"grimm.is/nereon/internal/cabi"
	"grimm.is/nereon/internal/logging"
)

func writeFile(t *testing.T, name, content string) *byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	p, err := unix.BytePtrFromString(path)
	require.NoError(t, err)
	return p
}

func newTestEngine(env ...string) *Engine {
	return New(
		WithLogger(logging.Discard()),
		WithEnviron(func() []string { return env }),
	)
}

func key(t *testing.T, r *cabi.Record) string {
	t.Helper()
	k, err := cabi.CString(r.Key[:])
	require.NoError(t, err)
	return k
}

func children(r *cabi.Record) []*cabi.Record {
	var out []*cabi.Record
	for c := r.FirstChild(); c != nil; c = c.NextRecord() {
		out = append(out, c)
	}
	return out
}

func rootOf(t *testing.T, ctx *cabi.Ctx) *cabi.Record {
	t.Helper()
	require.NotNil(t, ctx.Cfg)
	wrapper := (*cabi.Record)(ctx.Cfg)
	kids := children(wrapper)
	require.Len(t, kids, 1)
	return kids[0]
}

func TestInitScalars(t *testing.T) {
	cfg := writeFile(t, "app.hcl", `
port    = 8080
ratio   = 0.5
name    = "edge"
enabled = true
`)
	e := newTestEngine()
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, cfg, nil))
	defer e.Finalize(&ctx)

	kids := children(rootOf(t, &ctx))
	require.Len(t, kids, 4)

	assert.Equal(t, "port", key(t, kids[0]))
	assert.Equal(t, cabi.TagInt, kids[0].Type)
	assert.Equal(t, int64(8080), kids[0].Data.Int64())

	assert.Equal(t, "ratio", key(t, kids[1]))
	assert.Equal(t, cabi.TagFloat, kids[1].Type)
	assert.Equal(t, float32(0.5), kids[1].Data.Float32())

	assert.Equal(t, cabi.TagString, kids[2].Type)
	s, err := cabi.GoString(kids[2].Data.Pointer())
	require.NoError(t, err)
	assert.Equal(t, "edge", s)

	assert.Equal(t, cabi.TagBool, kids[3].Type)
	assert.True(t, kids[3].Data.Bool())
}

func TestInitBlocksAndCollections(t *testing.T) {
	cfg := writeFile(t, "app.hcl", `
first = 1

server "main" {
  listen = ["a", "b"]
}

limits = { cpu = 2 }

server "main" {
  extra = true
}
`)
	e := newTestEngine()
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, cfg, nil))
	defer e.Finalize(&ctx)

	kids := children(rootOf(t, &ctx))
	require.Len(t, kids, 3)
	assert.Equal(t, "first", key(t, kids[0]))
	assert.Equal(t, "server", key(t, kids[1]))
	assert.Equal(t, "limits", key(t, kids[2]))

	labeled := children(kids[1])
	require.Len(t, labeled, 1)
	assert.Equal(t, "main", key(t, labeled[0]))

	body := children(labeled[0])
	require.Len(t, body, 2, "repeated blocks merge")
	assert.Equal(t, "listen", key(t, body[0]))
	assert.Equal(t, cabi.TagArray, body[0].Type)
	items := children(body[0])
	require.Len(t, items, 2)
	assert.Equal(t, "", key(t, items[0]))
	assert.Equal(t, "extra", key(t, body[1]))

	assert.Equal(t, cabi.TagObject, kids[2].Type)
	cpu := children(kids[2])
	require.Len(t, cpu, 1)
	assert.Equal(t, int64(2), cpu[0].Data.Int64())
}

func TestInitEnvironment(t *testing.T) {
	cfg := writeFile(t, "app.hcl", `region = env.REGION`)
	e := newTestEngine("REGION=eu-west", "BROKEN")
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, cfg, nil))
	defer e.Finalize(&ctx)

	kids := children(rootOf(t, &ctx))
	require.Len(t, kids, 1)
	s, err := cabi.GoString(kids[0].Data.Pointer())
	require.NoError(t, err)
	assert.Equal(t, "eu-west", s)
}

func TestInitJSON(t *testing.T) {
	cfg := writeFile(t, "app.json", `{"b": 1, "a": "x"}`)
	e := newTestEngine()
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, cfg, nil))
	defer e.Finalize(&ctx)

	kids := children(rootOf(t, &ctx))
	require.Len(t, kids, 2)
	assert.Equal(t, "b", key(t, kids[0]), "source order is kept")
	assert.Equal(t, "a", key(t, kids[1]))
}

func TestInitObjectKeysKeepSourceOrder(t *testing.T) {
	cfg := writeFile(t, "app.hcl", `
x = { zeta = 1, alpha = 2, "mid" = { y = true, b = false } }
list = [{ zeta = 1, alpha = 2 }]
`)
	e := newTestEngine()
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, cfg, nil))
	defer e.Finalize(&ctx)

	kids := children(rootOf(t, &ctx))
	require.Len(t, kids, 2)

	var got []string
	for _, c := range children(kids[0]) {
		got = append(got, key(t, c))
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, got)

	nested := children(children(kids[0])[2])
	require.Len(t, nested, 2)
	assert.Equal(t, "y", key(t, nested[0]))
	assert.Equal(t, "b", key(t, nested[1]))

	elems := children(kids[1])
	require.Len(t, elems, 1)
	inner := children(elems[0])
	require.Len(t, inner, 2)
	assert.Equal(t, "zeta", key(t, inner[0]))
	assert.Equal(t, "alpha", key(t, inner[1]))
}

func TestInitFailures(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"syntax error", "bad.hcl", `port = `},
		{"null value", "null.hcl", `port = null`},
		{"unknown variable", "var.hcl", `port = env.MISSING`},
		{"key too long", "long.hcl", longIdent(200) + " = 1"},
		{"float overflow", "big.hcl", "big = 1" + strings.Repeat("0", 50)},
		{"fractional overflow", "frac.hcl", "big = 1" + strings.Repeat("0", 50) + ".5"},
		{"duplicate object key", "dup.hcl", `x = { a = 1, a = 2 }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFile(t, tt.file, tt.body)
			e := newTestEngine()
			var ctx cabi.Ctx
			assert.Equal(t, cabi.StatusFailed, e.Init(&ctx, cfg, nil))
			assert.Nil(t, ctx.Cfg)
			assert.Equal(t, Stats{}, e.Stats())
		})
	}

	t.Run("missing file", func(t *testing.T) {
		p, err := unix.BytePtrFromString(filepath.Join(t.TempDir(), "nope.hcl"))
		require.NoError(t, err)
		var ctx cabi.Ctx
		assert.Equal(t, cabi.StatusFailed, newTestEngine().Init(&ctx, p, nil))
	})
}

func longIdent(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'k'
	}
	return string(b)
}

func TestInitNoPaths(t *testing.T) {
	e := newTestEngine()
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, nil, nil))
	assert.Nil(t, ctx.Cfg)
	assert.Nil(t, ctx.Meta)
	assert.Equal(t, 1, e.Stats().Contexts)
	e.Finalize(&ctx)
	assert.Equal(t, Stats{}, e.Stats())
}

func TestInitTwice(t *testing.T) {
	e := newTestEngine()
	var ctx cabi.Ctx
	cfg := writeFile(t, "app.hcl", `port = 80`)
	require.Equal(t, int32(0), e.Init(&ctx, cfg, nil))
	before := ctx
	require.NotNil(t, before.Cfg)

	assert.Equal(t, cabi.StatusFailed, e.Init(&ctx, nil, nil))
	assert.Equal(t, before, ctx, "busy context keeps its tree")
	assert.Equal(t, int64(80), children(rootOf(t, &ctx))[0].Data.Int64())

	e.Finalize(&ctx)
	assert.Equal(t, cabi.Ctx{}, ctx)
}

func TestStatsTrackContexts(t *testing.T) {
	cfg := writeFile(t, "app.hcl", `a = "hello"`)
	e := newTestEngine()

	var c1, c2 cabi.Ctx
	require.Equal(t, int32(0), e.Init(&c1, cfg, nil))
	require.Equal(t, int32(0), e.Init(&c2, cfg, nil))

	st := e.Stats()
	assert.Equal(t, 2, st.Contexts)
	assert.Equal(t, 6, st.Records, "wrapper, root and one attribute per context")
	assert.Equal(t, 2*(3*cabi.RecordSize+6), st.Bytes)

	e.Finalize(&c1)
	assert.Equal(t, 1, e.Stats().Contexts)
	e.Finalize(&c2)
	assert.Equal(t, Stats{}, e.Stats())

	// unknown context is ignored
	e.Finalize(&c2)
	assert.Equal(t, Stats{}, e.Stats())
}

func TestInitMeta(t *testing.T) {
	meta := writeFile(t, "meta.hcl", `
option "listen_port" {
  type         = "int"
  switch_short = "p"
  switch_long  = "port"
  env          = "APP_PORT"
  config_key   = "port"
  default      = 8080
}

option "name" {
  type    = "STRING"
  helper  = true
  default = "edge"
}

option "tls" {
  type = "bool"
}
`)
	e := newTestEngine()
	var ctx cabi.Ctx
	require.Equal(t, int32(0), e.Init(&ctx, nil, meta))
	defer e.Finalize(&ctx)

	require.Equal(t, int32(3), ctx.MetaCount)
	require.NotNil(t, ctx.Meta)

	m0 := cabi.MetaAt(ctx.Meta, 0)
	name, err := cabi.CString(m0.Name[:])
	require.NoError(t, err)
	assert.Equal(t, "listen_port", name)
	assert.Equal(t, cabi.TagInt, m0.Type)
	sw, err := cabi.CString(m0.SwLong[:])
	require.NoError(t, err)
	assert.Equal(t, "port", sw)
	assert.Equal(t, byte('p'), m0.SwShort[0])
	assert.Equal(t, int64(8080), m0.Data.Int64())

	m1 := cabi.MetaAt(ctx.Meta, 1)
	assert.Equal(t, cabi.TagString, m1.Type)
	assert.True(t, m1.Helper)
	s, err := cabi.GoString(m1.Data.Pointer())
	require.NoError(t, err)
	assert.Equal(t, "edge", s)

	m2 := cabi.MetaAt(ctx.Meta, 2)
	assert.Equal(t, cabi.TagBool, m2.Type)
	assert.False(t, m2.Data.Bool())
}

func TestInitMetaFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `option "x" { type = "duration" }`},
		{"missing type", `option "x" {}`},
		{"wrong default", `option "x" {
  type    = "int"
  default = "eighty"
}`},
		{"fractional int", `option "x" {
  type    = "int"
  default = 1.5
}`},
		{"port range", `option "x" {
  type    = "ipport"
  default = 70000
}`},
		{"short switch too long", `option "x" {
  type         = "int"
  switch_short = "pp"
}`},
		{"unexpected block", `thing {}`},
		{"float overflow", `option "x" {
  type    = "float"
  default = 1` + strings.Repeat("0", 50) + `
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := writeFile(t, "meta.hcl", tt.body)
			e := newTestEngine()
			var ctx cabi.Ctx
			assert.Equal(t, cabi.StatusFailed, e.Init(&ctx, nil, meta))
			assert.Equal(t, cabi.Ctx{}, ctx)
			assert.Equal(t, Stats{}, e.Stats())
		})
	}
}
