// Package cabi mirrors the C structures published by libnereon.
//
// The types here are read in place over memory owned by the foreign library, so
// field order, sizes and alignment must match the C declarations exactly. The
// layout is asserted in layout_test.go and, when built against the real
// library, against the C definitions at init time.
package cabi

import "unsafe"

// Buffer capacities from nereon.h.
const (
	MaxName       = 64
	MaxLongSwitch = 32
	MaxShortDesc  = 32
	MaxLongDesc   = 128
	MaxEnvName    = 64
	MaxKeyName    = 128
	MaxErrMsg     = 1024
)

// StatusFailed is the value nereon_ctx_init returns when it could not build a
// context. Any other value means success.
const StatusFailed int32 = -1

// Tag is the type discriminant of a configuration record.
type Tag = int32

// Record tags. Bool and IPPort are part of the published enum but the
// current parser never emits them.
const (
	TagInt    Tag = 0
	TagBool   Tag = 1
	TagString Tag = 2
	TagArray  Tag = 3
	TagIPPort Tag = 4
	TagFloat  Tag = 5
	TagObject Tag = 6
)

// Ctx mirrors struct nereon_ctx.
type Ctx struct {
	Meta      unsafe.Pointer
	MetaCount int32
	Cfg       unsafe.Pointer
}

// Record mirrors struct nereon_cfg_options, one node of the configuration
// tree. Childs points at the first child and Next at the following sibling.
type Record struct {
	Key    [MaxKeyName]byte
	Type   Tag
	Childs unsafe.Pointer
	Next   unsafe.Pointer
	Data   Payload
}

// Meta mirrors struct nereon_meta_options. Only its size matters to the
// decoder; the fields are laid out for the in-process engine.
type Meta struct {
	Name      [MaxName]byte
	Type      Tag
	Helper    bool
	SwShort   [2]byte
	SwLong    [MaxLongSwitch]byte
	DescShort [MaxShortDesc]byte
	DescLong  [MaxLongDesc]byte
	Env       [MaxEnvName]byte
	Key       [MaxKeyName]byte
	Data      Payload
}

// RecordSize and MetaSize are the byte sizes of one foreign record.
const (
	RecordSize = unsafe.Sizeof(Record{})
	MetaSize   = unsafe.Sizeof(Meta{})
)

// NextRecord returns the record following r in its sibling list, or nil.
func (r *Record) NextRecord() *Record {
	return (*Record)(r.Next)
}

// FirstChild returns the first child of r, or nil.
func (r *Record) FirstChild() *Record {
	return (*Record)(r.Childs)
}

// MetaAt returns the i-th metadata record of an array starting at base.
func MetaAt(base unsafe.Pointer, i int) *Meta {
	return (*Meta)(unsafe.Add(base, uintptr(i)*MetaSize))
}
