package ram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMain_WordRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := NewMain()
		addr := rapid.Uint32Range(0, uint32(2*1024*1024-4)).Draw(rt, "addr")
		value := rapid.Uint32().Draw(rt, "value")

		m.WriteWord(addr, value)
		assert.Equal(t, value, m.ReadWord(addr))
	})
}

func TestMain_MirroredAbove2MiB(t *testing.T) {
	m := NewMain()
	m.WriteWord(0x100, 0xCAFEBABE)
	assert.Equal(t, uint32(0xCAFEBABE), m.ReadWord(0x100+2*1024*1024))
}

func TestMain_HalfAndByteAccessorsAgree(t *testing.T) {
	m := NewMain()
	m.WriteWord(0, 0x11223344)
	assert.Equal(t, uint16(0x3344), m.ReadHalf(0))
	assert.Equal(t, uint16(0x1122), m.ReadHalf(2))
	assert.Equal(t, byte(0x44), m.ReadByte(0))
	assert.Equal(t, byte(0x11), m.ReadByte(3))
}

func TestNewBIOS_RejectsWrongSize(t *testing.T) {
	_, err := NewBIOS(make([]byte, 100))
	assert.Error(t, err)
}

func TestNewBIOS_ReadsLoadedImage(t *testing.T) {
	img := make([]byte, BIOSSize)
	img[0] = 0xAA
	img[1] = 0xBB
	b, err := NewBIOS(img)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xBBAA), b.ReadHalf(0))
}

func TestScratchPad_WrapsModulo4KiB(t *testing.T) {
	s := NewScratchPad()
	s.WriteWord(4092, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), s.ReadWord(4092))
	assert.Equal(t, s.ReadByte(4092), s.ReadByte(4092+4096))
}
