// Package ram implements the console's byte-addressed stores: main RAM, the
// read-only BIOS, and the 4KiB scratch store used when the CPU isolates the
// instruction cache. All three share the same little-endian accessor shape,
// grounded on jeebie/memory/mem.go's direct byte-slice indexing.
package ram

import "fmt"

// Main is the console's main memory: 2MiB, mirrored up to 8MiB by the bus.
type Main struct {
	data [2 * 1024 * 1024]byte
}

func NewMain() *Main { return &Main{} }

func (m *Main) ReadByte(addr uint32) byte {
	return m.data[addr&(uint32(len(m.data))-1)]
}

func (m *Main) WriteByte(addr uint32, v byte) {
	m.data[addr&(uint32(len(m.data))-1)] = v
}

func (m *Main) ReadHalf(addr uint32) uint16 {
	a := addr & (uint32(len(m.data)) - 1)
	return uint16(m.data[a]) | uint16(m.data[a+1])<<8
}

func (m *Main) WriteHalf(addr uint32, v uint16) {
	a := addr & (uint32(len(m.data)) - 1)
	m.data[a] = byte(v)
	m.data[a+1] = byte(v >> 8)
}

func (m *Main) ReadWord(addr uint32) uint32 {
	a := addr & (uint32(len(m.data)) - 1)
	return uint32(m.data[a]) | uint32(m.data[a+1])<<8 | uint32(m.data[a+2])<<16 | uint32(m.data[a+3])<<24
}

func (m *Main) WriteWord(addr uint32, v uint32) {
	a := addr & (uint32(len(m.data)) - 1)
	m.data[a] = byte(v)
	m.data[a+1] = byte(v >> 8)
	m.data[a+2] = byte(v >> 16)
	m.data[a+3] = byte(v >> 24)
}

// BIOSSize is the fixed size of a valid BIOS image: 512KiB.
const BIOSSize = 512 * 1024

// BIOS is a read-only store loaded once at startup.
type BIOS struct {
	data [BIOSSize]byte
}

// NewBIOS loads exactly BIOSSize bytes of image data.
func NewBIOS(image []byte) (*BIOS, error) {
	if len(image) != BIOSSize {
		return nil, fmt.Errorf("ram: BIOS image must be exactly %d bytes, got %d", BIOSSize, len(image))
	}
	b := &BIOS{}
	copy(b.data[:], image)
	return b, nil
}

func (b *BIOS) ReadByte(addr uint32) byte { return b.data[addr&(BIOSSize-1)] }

func (b *BIOS) ReadHalf(addr uint32) uint16 {
	a := addr & (BIOSSize - 1)
	return uint16(b.data[a]) | uint16(b.data[a+1])<<8
}

func (b *BIOS) ReadWord(addr uint32) uint32 {
	a := addr & (BIOSSize - 1)
	return uint32(b.data[a]) | uint32(b.data[a+1])<<8 | uint32(b.data[a+2])<<16 | uint32(b.data[a+3])<<24
}

// ScratchPad models both the 1KiB fast scratchpad RAM region and, when cache
// isolation is active, the 4KiB instruction-cache-as-data-store behavior
// described in spec.md Bus & Memory Map: CPU accesses address modulo 4KiB.
type ScratchPad struct {
	data [4096]byte
}

func NewScratchPad() *ScratchPad { return &ScratchPad{} }

func (s *ScratchPad) ReadByte(addr uint32) byte { return s.data[addr&4095] }
func (s *ScratchPad) WriteByte(addr uint32, v byte) { s.data[addr&4095] = v }

func (s *ScratchPad) ReadHalf(addr uint32) uint16 {
	a := addr & 4095
	return uint16(s.data[a]) | uint16(s.data[(a+1)&4095])<<8
}

func (s *ScratchPad) WriteHalf(addr uint32, v uint16) {
	a := addr & 4095
	s.data[a] = byte(v)
	s.data[(a+1)&4095] = byte(v >> 8)
}

func (s *ScratchPad) ReadWord(addr uint32) uint32 {
	a := addr & 4095
	return uint32(s.data[a]) | uint32(s.data[(a+1)&4095])<<8 |
		uint32(s.data[(a+2)&4095])<<16 | uint32(s.data[(a+3)&4095])<<24
}

func (s *ScratchPad) WriteWord(addr uint32, v uint32) {
	a := addr & 4095
	s.data[a] = byte(v)
	s.data[(a+1)&4095] = byte(v >> 8)
	s.data[(a+2)&4095] = byte(v >> 16)
	s.data[(a+3)&4095] = byte(v >> 24)
}
