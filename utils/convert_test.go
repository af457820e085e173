package utils

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesToT32_Float32(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(-2.25))

	assert.Equal(t, []float32{1.5, -2.25}, BytesToT32[float32](data))
}

func TestBytesToT32_Int32(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(data[4:], 7)

	assert.Equal(t, []int32{-1, 7}, BytesToT32[int32](data))
}

func TestBytesToT32_DropsTrailingBytes(t *testing.T) {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint32(data[0:], 3)

	assert.Equal(t, []uint32{3}, BytesToT32[uint32](data))
}

func TestRefPointerDerefPointer(t *testing.T) {
	v := RefPointer(42)
	assert.Equal(t, 42, *v)
	assert.Equal(t, 42, DerefPointer(v))

	assert.Equal(t, "", DerefPointer[string](nil))
	assert.Equal(t, float32(0), DerefPointer[float32](nil))
}
