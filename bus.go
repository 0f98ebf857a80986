// Package stationcore ties every device package into one address space and
// drives the per-cycle tick loop. Structurally grounded on
// jeebie/memory/mem.go's region-table dispatch, generalized from the Game
// Boy's 16-bit map to the console's 32-bit physical map (spec.md §4.1) and
// widened from byte-only accesses to byte/halfword/word.
package stationcore

import (
	"fmt"

	"github.com/jsbaxter/stationcore/internal/cdrom"
	"github.com/jsbaxter/stationcore/internal/dma"
	"github.com/jsbaxter/stationcore/internal/gpu"
	"github.com/jsbaxter/stationcore/internal/irq"
	"github.com/jsbaxter/stationcore/internal/mdec"
	"github.com/jsbaxter/stationcore/internal/peripheral"
	"github.com/jsbaxter/stationcore/internal/ram"
	"github.com/jsbaxter/stationcore/internal/spu"
	"github.com/jsbaxter/stationcore/internal/timer"
)

// region identifies a slice of the physical address space the bus dispatches to.
type region uint8

const (
	regionRAM region = iota
	regionExpansion1
	regionMemControl
	regionPeripheral
	regionIRQ
	regionDMA
	regionTimer
	regionCDROM
	regionGPU
	regionMDEC
	regionSPU
	regionBIOS
	regionCacheControl
	regionScratchPad
	regionUnmapped
)

// physAddr strips the KUSEG/KSEG0/KSEG1 segment bits, collapsing the three
// 0x0/0x8000_0000/0xA000_0000 mirrors spec.md §4.1 describes into one
// 29-bit physical address.
func physAddr(addr uint32) uint32 { return addr & 0x1FFFFFFF }

func classify(p uint32) region {
	switch {
	case p < 0x00200000:
		return regionRAM
	case p >= 0x1F000000 && p < 0x1F080000:
		return regionExpansion1
	case p >= 0x1F800000 && p < 0x1F800400:
		return regionScratchPad
	case p >= 0x1F801000 && p <= 0x1F801024:
		return regionMemControl
	case p >= 0x1F801040 && p <= 0x1F80105F:
		return regionPeripheral
	case p >= 0x1F801070 && p <= 0x1F801077:
		return regionIRQ
	case p >= 0x1F801080 && p <= 0x1F8010FF:
		return regionDMA
	case p >= 0x1F801100 && p <= 0x1F80112F:
		return regionTimer
	case p >= 0x1F801800 && p <= 0x1F801803:
		return regionCDROM
	case p >= 0x1F801810 && p <= 0x1F801817:
		return regionGPU
	case p >= 0x1F801820 && p <= 0x1F801827:
		return regionMDEC
	case p >= 0x1F801C00 && p <= 0x1F801FFF:
		return regionSPU
	case p >= 0x1FC00000 && p < 0x1FC80000:
		return regionBIOS
	case p == 0xFFFE0130:
		return regionCacheControl
	default:
		return regionUnmapped
	}
}

// Bus wires every component together and implements dma.Bus and cpu.Core's
// memory-side contract. Ownership matches spec.md's "Ownership" note: VRAM,
// SPU RAM, main RAM, BIOS, and each channel's registers belong to their own
// component; Bus only holds references plus the handful of bus-only latches
// (cache isolation, memory-control scratch regs, peripheral slot select).
type Bus struct {
	RAM        *ram.Main
	BIOS       *ram.BIOS
	Scratch    *ram.ScratchPad
	IRQ        *irq.Controller
	DMA        *dma.Engine
	Timers     *timer.Bank
	CDROM      *cdrom.Drive
	GPU        *gpu.GPU
	MDEC       *mdec.Decoder
	SPU        *spu.SPU
	Peripheral *peripheral.Port

	Slots [2]*peripheral.Slot

	memControl    [10]uint32 // 0x1F801000-0x1F801024, 4-byte stride, raw passthrough
	cacheControl  uint32
	cacheIsolated bool

	joyMode uint16
	joyCtrl uint16
	joyBaud uint16
}

// NewBus assembles the bus from freshly constructed components, wiring every
// device's RequestIRQ callback into the shared interrupt aggregator and
// every DMA channel's pseudo-device into the engine, per spec.md §3's
// "devices append by OR-ing their interrupt into pending" ownership model.
func NewBus(bios *ram.BIOS) *Bus {
	b := &Bus{
		RAM:        ram.NewMain(),
		BIOS:       bios,
		Scratch:    ram.NewScratchPad(),
		IRQ:        irq.New(),
		Timers:     timer.NewBank(),
		CDROM:      cdrom.New(),
		GPU:        gpu.New(),
		MDEC:       mdec.New(),
		SPU:        spu.New(),
		Peripheral: peripheral.New(),
		Slots: [2]*peripheral.Slot{
			peripheral.NewSlot(peripheral.NewDigitalPad(), peripheral.NewMemCard()),
			peripheral.NewSlot(peripheral.NewDigitalPad(), peripheral.NewMemCard()),
		},
	}

	b.CDROM.RequestIRQ = func() { b.IRQ.Raise(irq.CDROM) }
	b.SPU.RequestIRQ = func() { b.IRQ.Raise(irq.SPU) }
	b.Peripheral.RequestIRQ = func() { b.IRQ.Raise(irq.Peripheral) }
	for i, t := range b.Timers.Timers {
		src := [3]irq.Source{irq.Timer0, irq.Timer1, irq.Timer2}[i]
		t.RequestIRQ = func() { b.IRQ.Raise(src) }
	}

	devices := [dma.NumChannels]dma.Device{
		dma.PortMDECIn:  mdec.NewInPort(b.MDEC),
		dma.PortMDECOut: mdec.NewOutPort(b.MDEC),
		dma.PortGPU:     gpu.NewDMAPort(b.GPU),
		dma.PortCDROM:   b.CDROM,
		dma.PortSPU:     b.SPU,
		dma.PortPIO:     dma.NewPIODevice(),
	}
	b.DMA = dma.NewEngine(devices)
	b.DMA.SetDevice(dma.PortOTC, dma.NewOTCGenerator(b.DMA))
	b.DMA.RequestIRQ = func() { b.IRQ.Raise(irq.DMA) }

	return b
}

// ReadWord and WriteWord implement dma.Bus, used by the DMA engine for both
// linked-list header fetches and per-word RAM<->device transfers.
func (b *Bus) ReadWord(addr uint32) uint32  { return b.Read32(addr) }
func (b *Bus) WriteWord(addr uint32, v uint32) { b.Write32(addr, v) }

func (b *Bus) Read8(addr uint32) byte {
	p := physAddr(addr)
	if b.cacheIsolated {
		return b.Scratch.ReadByte(p)
	}
	switch classify(p) {
	case regionRAM:
		return b.RAM.ReadByte(p)
	case regionScratchPad:
		return b.Scratch.ReadByte(p)
	case regionBIOS:
		return b.BIOS.ReadByte(p - 0x1FC00000)
	case regionExpansion1:
		return 0
	case regionCDROM:
		return b.CDROM.ReadByte(p - 0x1F801800)
	default:
		return byte(b.Read32(p &^ 3) >> ((p & 3) * 8))
	}
}

func (b *Bus) Write8(addr uint32, v byte) {
	p := physAddr(addr)
	if b.cacheIsolated {
		b.Scratch.WriteByte(p, v)
		return
	}
	switch classify(p) {
	case regionRAM:
		b.RAM.WriteByte(p, v)
	case regionScratchPad:
		b.Scratch.WriteByte(p, v)
	case regionBIOS:
		// read-only
	case regionExpansion1:
		// writes ignored
	case regionCDROM:
		b.CDROM.WriteByte(p-0x1F801800, v)
	default:
		shift := (p & 3) * 8
		mask := uint32(0xFF) << shift
		word := b.Read32(p &^ 3)
		word = (word &^ mask) | uint32(v)<<shift
		b.Write32(p&^3, word)
	}
}

func (b *Bus) Read16(addr uint32) uint16 {
	p := physAddr(addr)
	if b.cacheIsolated {
		return b.Scratch.ReadHalf(p)
	}
	switch classify(p) {
	case regionRAM:
		return b.RAM.ReadHalf(p)
	case regionScratchPad:
		return b.Scratch.ReadHalf(p)
	case regionBIOS:
		return b.BIOS.ReadHalf(p - 0x1FC00000)
	case regionSPU:
		return b.SPU.ReadHalfword(p - 0x1F801C00)
	case regionPeripheral:
		return b.readPeripheralHalf(p)
	default:
		return uint16(b.Read32(p&^3) >> ((p & 2) * 8))
	}
}

func (b *Bus) Write16(addr uint32, v uint16) {
	p := physAddr(addr)
	if b.cacheIsolated {
		b.Scratch.WriteHalf(p, v)
		return
	}
	switch classify(p) {
	case regionRAM:
		b.RAM.WriteHalf(p, v)
	case regionScratchPad:
		b.Scratch.WriteHalf(p, v)
	case regionBIOS:
		// read-only
	case regionSPU:
		b.SPU.WriteHalfword(p-0x1F801C00, v)
	case regionPeripheral:
		b.writePeripheralHalf(p, v)
	default:
		shift := (p & 2) * 8
		mask := uint32(0xFFFF) << shift
		word := b.Read32(p &^ 3)
		word = (word &^ mask) | uint32(v)<<shift
		b.Write32(p&^3, word)
	}
}

func (b *Bus) Read32(addr uint32) uint32 {
	p := physAddr(addr)
	if b.cacheIsolated {
		return b.Scratch.ReadWord(p)
	}
	switch classify(p) {
	case regionRAM:
		return b.RAM.ReadWord(p)
	case regionScratchPad:
		return b.Scratch.ReadWord(p)
	case regionBIOS:
		return b.BIOS.ReadWord(p - 0x1FC00000)
	case regionExpansion1:
		return 0
	case regionMemControl:
		return b.memControl[(p-0x1F801000)/4]
	case regionPeripheral:
		return uint32(b.readPeripheralHalf(p)) | uint32(b.readPeripheralHalf(p+2))<<16
	case regionIRQ:
		return b.readIRQ(p)
	case regionDMA:
		return b.readDMA(p)
	case regionTimer:
		return b.readTimer(p)
	case regionGPU:
		return b.readGPU(p)
	case regionMDEC:
		return b.readMDEC(p)
	case regionSPU:
		return b.SPU.ReadBusWord(p - 0x1F801C00)
	case regionCacheControl:
		return b.cacheControl
	default:
		panic(fmt.Sprintf("bus: unmapped read at 0x%08X", p))
	}
}

func (b *Bus) Write32(addr uint32, v uint32) {
	p := physAddr(addr)
	if b.cacheIsolated {
		b.Scratch.WriteWord(p, v)
		return
	}
	switch classify(p) {
	case regionRAM:
		b.RAM.WriteWord(p, v)
	case regionScratchPad:
		b.Scratch.WriteWord(p, v)
	case regionBIOS:
		// read-only
	case regionExpansion1:
		// writes ignored
	case regionMemControl:
		b.memControl[(p-0x1F801000)/4] = v
	case regionPeripheral:
		b.writePeripheralHalf(p, uint16(v))
		b.writePeripheralHalf(p+2, uint16(v>>16))
	case regionIRQ:
		b.writeIRQ(p, v)
	case regionDMA:
		b.writeDMA(p, v)
	case regionTimer:
		b.writeTimer(p, v)
	case regionGPU:
		b.writeGPU(p, v)
	case regionMDEC:
		b.writeMDEC(p, v)
	case regionSPU:
		b.SPU.WriteBusWord(p-0x1F801C00, v)
	case regionCacheControl:
		b.cacheControl = v
		b.cacheIsolated = v&(1<<16) != 0
	default:
		panic(fmt.Sprintf("bus: unmapped write at 0x%08X", p))
	}
}

func (b *Bus) readIRQ(p uint32) uint32 {
	switch (p - 0x1F801070) / 4 {
	case 0:
		return b.IRQ.ReadPending()
	case 1:
		return b.IRQ.ReadMask()
	default:
		return 0
	}
}

func (b *Bus) writeIRQ(p uint32, v uint32) {
	switch (p - 0x1F801070) / 4 {
	case 0:
		b.IRQ.WritePending(v)
	case 1:
		b.IRQ.WriteMask(v)
	}
}

// readGPU/writeGPU never touch GPU state directly: GP0/GP1 words and VRAM
// readback go through CommandCh/GP1Ch/vramReadCh so the render goroutine
// started by Console.Start is the sole mutator of GPU.State, matching
// spec.md §5/§9's two-thread isolation model. StatusWord is the one piece
// of GPU state safe to read lock-free from the bus thread.
func (b *Bus) readGPU(p uint32) uint32 {
	switch p - 0x1F801810 {
	case 0:
		return b.GPU.RequestVRAMRead()
	case 4:
		return b.GPU.StatusWord.Load()
	default:
		panic(fmt.Sprintf("bus: invalid GPU register read at 0x%08X", p))
	}
}

func (b *Bus) writeGPU(p uint32, v uint32) {
	switch p - 0x1F801810 {
	case 0:
		b.GPU.Enqueue(v)
	case 4:
		b.GPU.EnqueueGP1(v)
	default:
		panic(fmt.Sprintf("bus: invalid GPU register write at 0x%08X", p))
	}
}

func (b *Bus) readMDEC(p uint32) uint32 {
	switch p - 0x1F801820 {
	case 0:
		w, _ := b.MDEC.PopOutput()
		return w
	case 4:
		return b.MDEC.StatusRegister()
	default:
		panic(fmt.Sprintf("bus: invalid MDEC register read at 0x%08X", p))
	}
}

func (b *Bus) writeMDEC(p uint32, v uint32) {
	switch p - 0x1F801820 {
	case 0:
		b.MDEC.WriteCommand(v)
	case 4:
		if v&(1<<31) != 0 {
			b.MDEC.Reset()
		}
	default:
		panic(fmt.Sprintf("bus: invalid MDEC register write at 0x%08X", p))
	}
}

// Tick advances every device by cycles system clocks and lets the DMA
// engine steal as many bus cycles as it can arbitrate this tick, matching
// spec.md §4.3's per-word-per-tick arbitration.
func (b *Bus) Tick(cycles int, hblank, vblank bool) {
	b.Timers.TickSystemAll(cycles, hblank, vblank)
	b.CDROM.Clock(cycles)
	b.SPU.Clock(cycles)
	b.Peripheral.Tick(cycles)

	b.SPU.PushCDAudio(b.CDROM.FetchDecodedAudio())

	remaining := cycles
	for remaining > 0 {
		used := b.DMA.Tick(b)
		if used == 0 {
			break
		}
		remaining -= used
	}
}
