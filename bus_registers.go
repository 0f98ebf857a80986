package stationcore

import (
	"fmt"

	"github.com/jsbaxter/stationcore/internal/dma"
	"github.com/jsbaxter/stationcore/internal/peripheral"
)

// --- DMA: 7 channels x 0x10 bytes (MADR, BCR, CHCR, unused), plus the
// global DPCR/DICR pair at 0x1F8010F0/F4, per spec.md §4.3.

func (b *Bus) readDMA(p uint32) uint32 {
	off := p - 0x1F801080
	if off == 0x70 {
		return b.DMA.ReadDPCR()
	}
	if off == 0x74 {
		return b.DMA.ReadDICR()
	}
	ch := dma.Port(off / 0x10)
	c := b.DMA.Channel(ch)
	switch off % 0x10 {
	case 0x0:
		return c.ReadBase()
	case 0x4:
		return c.ReadBlockControl()
	case 0x8:
		return c.ReadControl()
	default:
		return 0
	}
}

func (b *Bus) writeDMA(p uint32, v uint32) {
	off := p - 0x1F801080
	if off == 0x70 {
		b.DMA.WriteDPCR(v)
		return
	}
	if off == 0x74 {
		b.DMA.WriteDICR(v)
		return
	}
	ch := dma.Port(off / 0x10)
	c := b.DMA.Channel(ch)
	switch off % 0x10 {
	case 0x0:
		c.WriteBase(v)
	case 0x4:
		c.WriteBlockControl(v)
	case 0x8:
		c.WriteControl(v)
	}
}

// --- Timers: 3 banks x 0x10 bytes (counter, mode, target), per spec.md §4.8.

func (b *Bus) readTimer(p uint32) uint32 {
	off := p - 0x1F801100
	t := b.Timers.Timers[off/0x10]
	switch off % 0x10 {
	case 0x0:
		return uint32(t.ReadCounter())
	case 0x4:
		return uint32(t.ReadMode())
	case 0x8:
		return uint32(t.ReadTarget())
	default:
		return 0
	}
}

func (b *Bus) writeTimer(p uint32, v uint32) {
	off := p - 0x1F801100
	t := b.Timers.Timers[off/0x10]
	switch off % 0x10 {
	case 0x0:
		t.WriteCounter(uint16(v))
	case 0x4:
		t.WriteMode(uint16(v))
	case 0x8:
		t.WriteTarget(uint16(v))
	}
}

// --- Peripheral + Serial I/O: JOY_DATA/STAT/MODE/CTRL/BAUD at
// 0x1F80_1040-104F; the SIO link-cable port at 0x1F80_1050-105F is wired to
// no device (no multiplayer link modeled) and reads back inert per
// spec.md's peripheral Non-goals.

const joyBase = 0x1F801040

func (b *Bus) readPeripheralHalf(p uint32) uint16 {
	off := p - joyBase
	switch off {
	case 0x0:
		return uint16(b.Peripheral.ReadData())
	case 0x4:
		return b.joyStat()
	case 0x8:
		return b.joyMode
	case 0xA:
		return b.joyCtrl
	case 0xE:
		return b.joyBaud
	default:
		return 0 // SIO registers: unmodeled, reads inert
	}
}

func (b *Bus) writePeripheralHalf(p uint32, v uint16) {
	off := p - joyBase
	switch off {
	case 0x0:
		b.Peripheral.WriteData(byte(v))
	case 0x8:
		b.joyMode = v
	case 0xA:
		b.writeJoyCtrl(v)
	case 0xE:
		b.joyBaud = v
		b.Peripheral.SetBaudDivisor(int(v) * joyBaudFactor(b.joyMode))
	default:
		// JOY_STAT is read-only; SIO registers are unmodeled.
	}
}

// joyStat assembles JOY_STAT from the port's behavioral flags. Bit 7 (ACK
// input level) isn't tracked as a continuous signal by peripheral.Port
// (which only reports the edge via RequestIRQ), so it reads back 0; no
// software is expected to poll it directly, only its associated interrupt.
func (b *Bus) joyStat() uint16 {
	var v uint16
	if b.Peripheral.TXReady() {
		v |= 1 << 0
		v |= 1 << 2
	}
	if b.Peripheral.RXReady() {
		v |= 1 << 1
	}
	return v
}

// joyBaudFactor maps JOY_MODE's 2-bit reload-factor field to its multiplier
// (1/1/16/64), matching the real register's baud-rate-timer scaling.
func joyBaudFactor(mode uint16) int {
	switch mode & 0x3 {
	case 2:
		return 16
	case 3:
		return 64
	default:
		return 1
	}
}

// writeJoyCtrl decodes JOY_CTRL's behaviorally-relevant bits: TXEN (0),
// /SEL-assert-select (1, chooses the port via bit 13), and ACK (4, a
// software-triggered acknowledge with no modeled effect since
// peripheral.Port already self-clears its ACK line after each Tick).
func (b *Bus) writeJoyCtrl(v uint16) {
	b.joyCtrl = v
	b.Peripheral.SetTXEnable(v&1 != 0)

	if v&(1<<1) == 0 {
		b.Peripheral.Deselect()
		return
	}
	port := 0
	if v&(1<<13) != 0 {
		port = 1
	}
	mode := peripheral.ModeController
	b.Peripheral.Select(b.Slots[port], mode)
}

func init() {
	// Guard against silently misreading dma's channel-count assumption if
	// the package ever changes its layout.
	if dma.NumChannels != 7 {
		panic(fmt.Sprintf("bus: expected 7 DMA channels, got %d", dma.NumChannels))
	}
}
