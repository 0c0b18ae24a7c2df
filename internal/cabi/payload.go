package cabi

import "unsafe"

// Payload is the 8-byte cfg_data field of a record. Its meaning depends on the
// record's tag. The zero-length float64 array gives it the alignment of the C
// double it stands in for.
type Payload struct {
	_   [0]float64
	Raw [8]byte
}

// Int64 reads the payload as a native-endian 64-bit signed integer.
func (p *Payload) Int64() int64 {
	return *(*int64)(unsafe.Pointer(&p.Raw))
}

// Int32 reads the leading four bytes as a native-endian 32-bit signed integer.
func (p *Payload) Int32() int32 {
	return *(*int32)(unsafe.Pointer(&p.Raw))
}

// Float32 reads the leading four bytes as a 32-bit float.
func (p *Payload) Float32() float32 {
	return *(*float32)(unsafe.Pointer(&p.Raw))
}

// Bool reads the first byte; any non-zero value is true.
func (p *Payload) Bool() bool {
	return p.Raw[0] != 0
}

// Pointer reads the payload as a foreign pointer.
func (p *Payload) Pointer() unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&p.Raw))
}

// PutInt64 stores v in all eight bytes.
func (p *Payload) PutInt64(v int64) {
	*(*int64)(unsafe.Pointer(&p.Raw)) = v
}

// PutInt32 stores v in the leading four bytes and clears the rest.
func (p *Payload) PutInt32(v int32) {
	p.Raw = [8]byte{}
	*(*int32)(unsafe.Pointer(&p.Raw)) = v
}

// PutFloat32 stores v in the leading four bytes and clears the rest.
func (p *Payload) PutFloat32(v float32) {
	p.Raw = [8]byte{}
	*(*float32)(unsafe.Pointer(&p.Raw)) = v
}

// PutBool stores v in the first byte and clears the rest.
func (p *Payload) PutBool(v bool) {
	p.Raw = [8]byte{}
	if v {
		p.Raw[0] = 1
	}
}

// PutPointer stores ptr as a foreign pointer. The payload is not scanned by the
// garbage collector: whoever stores a Go pointer here must keep the target
// reachable some other way.
func (p *Payload) PutPointer(ptr unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Pointer(&p.Raw)) = ptr
}
