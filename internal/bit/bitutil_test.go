package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSetAndSetAndReset(t *testing.T) {
	v := uint32(0)
	assert.False(t, IsSet(3, v))

	v = Set(3, v)
	assert.True(t, IsSet(3, v))

	v = Reset(3, v)
	assert.False(t, IsSet(3, v))
}

func TestAssign(t *testing.T) {
	v := Assign(0, 0, true)
	assert.Equal(t, uint32(1), v)
	v = Assign(0, v, false)
	assert.Equal(t, uint32(0), v)
}

func TestExtractBits(t *testing.T) {
	v := uint32(0xABCD1234)
	assert.Equal(t, uint32(0xABCD), ExtractBits(v, 31, 16))
	assert.Equal(t, uint32(0x1234), ExtractBits(v, 15, 0))
}

func TestCombine16And32(t *testing.T) {
	assert.Equal(t, uint16(0x1234), Combine16(0x12, 0x34))
	assert.Equal(t, uint32(0x04030201), Combine32(1, 2, 3, 4))
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int32(-1), SignExtend(0x1FF, 9))
	assert.Equal(t, int32(255), SignExtend(0xFF, 9))
}

func TestClamp16(t *testing.T) {
	assert.Equal(t, int16(0x7FFF), Clamp16(100000))
	assert.Equal(t, int16(-0x8000), Clamp16(-100000))
	assert.Equal(t, int16(42), Clamp16(42))
}

func TestClamp32(t *testing.T) {
	v, sat := Clamp32(1000, -100, 100)
	assert.Equal(t, int64(100), v)
	assert.True(t, sat)

	v, sat = Clamp32(50, -100, 100)
	assert.Equal(t, int64(50), v)
	assert.False(t, sat)
}
