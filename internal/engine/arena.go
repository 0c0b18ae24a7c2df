package engine

import (
	"fmt"
	"unsafe"

	"grimm.is/nereon/internal/cabi"
)

// arena owns every allocation behind one context. Records are individually
// heap-allocated so their addresses never change. String payloads are stored
// in record Data, which the garbage collector does not scan, so the arena
// also holds the buffers themselves.
type arena struct {
	records []*cabi.Record
	strings [][]byte
	metas   []cabi.Meta
	bytes   uintptr
}

func (a *arena) record(key string, tag cabi.Tag) (*cabi.Record, error) {
	rec := &cabi.Record{Type: tag}
	if err := cabi.PutCString(rec.Key[:], key); err != nil {
		return nil, fmt.Errorf("key %q: %w", key, err)
	}
	a.records = append(a.records, rec)
	a.bytes += cabi.RecordSize
	return rec, nil
}

// cstring copies s into a nul-terminated buffer owned by the arena.
func (a *arena) cstring(s string) (unsafe.Pointer, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return nil, cabi.ErrEmbeddedNul
		}
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	a.strings = append(a.strings, buf)
	a.bytes += uintptr(len(buf))
	return unsafe.Pointer(&buf[0]), nil
}

func (a *arena) stringRecord(key, value string) (*cabi.Record, error) {
	rec, err := a.record(key, cabi.TagString)
	if err != nil {
		return nil, err
	}
	p, err := a.cstring(value)
	if err != nil {
		return nil, fmt.Errorf("value of %q: %w", key, err)
	}
	rec.Data.PutPointer(p)
	return rec, nil
}

// metaArray allocates n contiguous metadata records.
func (a *arena) metaArray(n int) []cabi.Meta {
	a.metas = make([]cabi.Meta, n)
	a.bytes += uintptr(n) * cabi.MetaSize
	return a.metas
}

// appendChildren links kids under parent in order, after any existing children.
func appendChildren(parent *cabi.Record, kids ...*cabi.Record) {
	if len(kids) == 0 {
		return
	}
	for i := 0; i+1 < len(kids); i++ {
		kids[i].Next = unsafe.Pointer(kids[i+1])
	}
	if parent.Childs == nil {
		parent.Childs = unsafe.Pointer(kids[0])
		return
	}
	last := parent.FirstChild()
	for last.Next != nil {
		last = last.NextRecord()
	}
	last.Next = unsafe.Pointer(kids[0])
}
