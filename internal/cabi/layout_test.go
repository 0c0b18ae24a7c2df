package cabi

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestLayout64(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("layout offsets are asserted for 64-bit targets")
	}

	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"ctx.meta", unsafe.Offsetof(Ctx{}.Meta), 0},
		{"ctx.meta_count", unsafe.Offsetof(Ctx{}.MetaCount), 8},
		{"ctx.cfg", unsafe.Offsetof(Ctx{}.Cfg), 16},
		{"sizeof(ctx)", unsafe.Sizeof(Ctx{}), 24},

		{"cfg.cfg_key", unsafe.Offsetof(Record{}.Key), 0},
		{"cfg.cfg_type", unsafe.Offsetof(Record{}.Type), 128},
		{"cfg.childs", unsafe.Offsetof(Record{}.Childs), 136},
		{"cfg.next", unsafe.Offsetof(Record{}.Next), 144},
		{"cfg.cfg_data", unsafe.Offsetof(Record{}.Data), 152},
		{"sizeof(cfg)", RecordSize, 160},

		{"meta.cfg_name", unsafe.Offsetof(Meta{}.Name), 0},
		{"meta.cfg_type", unsafe.Offsetof(Meta{}.Type), 64},
		{"meta.helper", unsafe.Offsetof(Meta{}.Helper), 68},
		{"meta.sw_short", unsafe.Offsetof(Meta{}.SwShort), 69},
		{"meta.sw_long", unsafe.Offsetof(Meta{}.SwLong), 71},
		{"meta.desc_short", unsafe.Offsetof(Meta{}.DescShort), 103},
		{"meta.desc_long", unsafe.Offsetof(Meta{}.DescLong), 135},
		{"meta.cfg_env", unsafe.Offsetof(Meta{}.Env), 263},
		{"meta.cfg_key", unsafe.Offsetof(Meta{}.Key), 327},
		{"meta.cfg_data", unsafe.Offsetof(Meta{}.Data), 456},
		{"sizeof(meta)", MetaSize, 464},

		{"sizeof(payload)", unsafe.Sizeof(Payload{}), 8},
		{"alignof(payload)", unsafe.Alignof(Payload{}), 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	var p Payload

	p.PutInt64(math.MinInt64 + 7)
	assert.Equal(t, int64(math.MinInt64+7), p.Int64())

	p.PutInt64(-1)
	p.PutInt32(-42)
	assert.Equal(t, int32(-42), p.Int32())
	assert.Equal(t, [4]byte{}, [4]byte(p.Raw[4:]), "upper bytes cleared")

	p.PutFloat32(3.25)
	assert.Equal(t, float32(3.25), p.Float32())
	assert.Equal(t, math.Float32bits(3.25), *(*uint32)(unsafe.Pointer(&p.Raw)))

	p.PutBool(true)
	assert.True(t, p.Bool())
	p.PutBool(false)
	assert.False(t, p.Bool())

	buf := []byte("hello\x00")
	p.PutPointer(unsafe.Pointer(&buf[0]))
	assert.Equal(t, unsafe.Pointer(&buf[0]), p.Pointer())
}

func TestMetaAt(t *testing.T) {
	metas := make([]Meta, 3)
	for i := range metas {
		metas[i].Type = Tag(i + 10)
	}
	base := unsafe.Pointer(&metas[0])
	for i := range metas {
		assert.Equal(t, Tag(i+10), MetaAt(base, i).Type)
	}
}
