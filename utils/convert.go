package utils

import (
	"encoding/binary"
	"unsafe"
)

// RefPointer returns a pointer to v, for passing optional arguments inline.
func RefPointer[T any](v T) *T {
	return &v
}

// DerefPointer returns the value v points to, or the zero value of T when v
// is nil.
func DerefPointer[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// BytesToT32 reinterprets a little-endian byte stream as a slice of 32-bit
// values, the layout Triton uses for raw tensor contents. Trailing bytes that
// do not fill a full value are dropped.
func BytesToT32[T float32 | int32 | uint32](data []byte) []T {
	out := make([]T, len(data)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = *(*T)(unsafe.Pointer(&bits))
	}
	return out
}
