package stationcore

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jsbaxter/stationcore/internal/cpu"
	"github.com/jsbaxter/stationcore/internal/disc"
	"github.com/jsbaxter/stationcore/internal/gpu"
	"github.com/jsbaxter/stationcore/internal/gte"
	"github.com/jsbaxter/stationcore/internal/ram"
	"github.com/jsbaxter/stationcore/internal/timing"
)

// Console is the root struct and entry point for running the emulation,
// mirroring jeebie/core.go's Emulator: own the CPU and bus, and advance
// them together one frame at a time. Geometry Coprocessor (COP2/GTE)
// access is not bus-mapped real hardware routes it through dedicated MFC2/
// MTC2/COP2 instructions rather than load/store so it is exposed directly
// rather than dispatched through Bus.
type Console struct {
	CPU cpu.Core
	Bus *Bus
	GTE *gte.GTE

	render *gpu.Render

	frameCount      uint64
	instructionCount uint64
}

// New creates a Console around a caller-supplied CPU core (or cpu.NewStub()
// for headless/bus-fabric testing) and a loaded BIOS image.
func New(core cpu.Core, bios *ram.BIOS) *Console {
	c := &Console{
		CPU: core,
		Bus: NewBus(bios),
		GTE: gte.New(),
	}
	return c
}

// NewWithBIOSFile loads a BIOS image from disk before constructing the Console.
func NewWithBIOSFile(core cpu.Core, path string) (*Console, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stationcore: reading BIOS file: %w", err)
	}
	bios, err := ram.NewBIOS(data)
	if err != nil {
		return nil, fmt.Errorf("stationcore: loading BIOS: %w", err)
	}
	slog.Debug("loaded BIOS image", "size", len(data))
	return New(core, bios), nil
}

// InsertDisc mounts a disc image on the CD-ROM drive (nil ejects).
func (c *Console) InsertDisc(img disc.Image) {
	c.Bus.CDROM.InsertDisc(img)
}

// Start launches the GPU's dedicated render goroutine under ctx, matching
// spec.md §5's two-thread concurrency model. Call Stop to drain it.
func (c *Console) Start(ctx context.Context) {
	c.render = c.Bus.GPU.Start(ctx)
}

// Stop closes the render goroutine's command channel and waits for it to drain.
func (c *Console) Stop() error {
	if c.render == nil {
		return nil
	}
	return c.render.Stop()
}

// RunUntilFrame steps the CPU and ticks every device until one NTSC
// frame's worth of cycles has elapsed, matching jeebie/core.go's
// RunUntilFrame's cycle-budget loop structure generalized from the Game
// Boy's fixed 70224-cycle frame to scanline-granular vblank tracking.
// hblank is not modeled and is always passed to the devices as false.
func (c *Console) RunUntilFrame() {
	total := 0
	scanline := 0

	for total < timing.CyclesPerFrameNTSC {
		consumed := c.CPU.Step(1)
		c.instructionCount++

		hblank := false
		vblank := scanline >= 243 // NTSC active scanlines before vertical blank
		c.Bus.Tick(consumed, hblank, vblank)

		total += consumed
		scanline = total / timing.CyclesPerScanlineNTSC

		c.CPU.SetInterruptLine(c.Bus.IRQ.Active())
	}

	c.frameCount++
	if c.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", c.frameCount, "instructions", c.instructionCount)
	}
}

// FrameCount reports how many complete frames RunUntilFrame has produced.
func (c *Console) FrameCount() uint64 { return c.frameCount }
