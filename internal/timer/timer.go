// Package timer implements the three programmable timers. Structurally
// grounded on jeebie/memory/timer.go (a Timer type with Read/Write/Tick and
// an injected interrupt callback) generalized from the Game Boy's single
// DIV/TIMA/TMA/TAC unit to three independent counters with selectable clock
// sources and blanking sync modes, per spec.md §4.8.
package timer

// ClockSource selects what drives a timer's counter.
type ClockSource int

const (
	ClockSystem ClockSource = iota
	ClockSystemDiv8
	ClockDot
	ClockHBlank
)

// SyncMode selects how blanking affects the counter (only meaningful for
// Timer0 w.r.t. hblank and Timer1 w.r.t. vblank; Timer2 ignores sync).
type SyncMode int

const (
	SyncFreeRun SyncMode = iota
	SyncPauseDuringBlank
	SyncResetAtBlank
	SyncResetAndPause
	SyncPauseUntilBlankThenFreeRun
)

// Mode mirrors the 16-bit mode register layout.
type Mode struct {
	SyncEnable      bool
	Sync            SyncMode
	ResetOnTarget   bool // false: reset at 0xFFFF
	IRQOnTarget     bool
	IRQOnMax        bool
	OneShot         bool // false: repeat
	PulseIRQ        bool // false: toggle
	ClockSrc        ClockSource
	reachedTarget   bool
	reachedMax      bool
	irqLineInverted bool // toggle mode's current output level
}

// Timer is one of the three programmable counters.
type Timer struct {
	index   int
	counter uint16
	target  uint16
	mode    Mode
	div8Acc int

	paused       bool
	oneShotFired bool

	// RequestIRQ is invoked (edge-style, once) whenever the timer's
	// condition fires and its line transitions to asserted.
	RequestIRQ func()
}

// New creates timer `index` (0, 1, or 2). The index is stored but not
// consulted: ClockSrc decodes the same way for all three timers.
func New(index int) *Timer {
	t := &Timer{index: index}
	t.mode.irqLineInverted = true
	return t
}

// ReadCounter returns the current 16-bit counter value.
func (t *Timer) ReadCounter() uint16 { return t.counter }

// WriteCounter zeroes the counter per spec.md §4.8 ("Writes to counter zero it").
func (t *Timer) WriteCounter(uint16) { t.counter = 0 }

// WriteTarget sets the target/compare value.
func (t *Timer) WriteTarget(v uint16) { t.target = v }

// ReadTarget returns the target/compare value.
func (t *Timer) ReadTarget() uint16 { return t.target }

// ReadMode returns the packed mode register and atomically clears the
// reached-target/reached-max bits, per spec.md §4.8.
func (t *Timer) ReadMode() uint16 {
	var v uint16
	if t.mode.SyncEnable {
		v |= 1 << 0
	}
	v |= uint16(t.mode.Sync&0x3) << 1
	if t.mode.ResetOnTarget {
		v |= 1 << 3
	}
	if t.mode.IRQOnTarget {
		v |= 1 << 4
	}
	if t.mode.IRQOnMax {
		v |= 1 << 5
	}
	if t.mode.OneShot {
		v |= 1 << 6
	}
	if t.mode.PulseIRQ {
		v |= 1 << 7
	}
	v |= uint16(t.mode.ClockSrc&0x3) << 8
	if t.mode.reachedTarget {
		v |= 1 << 11
	}
	if t.mode.reachedMax {
		v |= 1 << 12
	}
	if t.mode.irqLineInverted {
		v |= 1 << 10
	}

	t.mode.reachedTarget = false
	t.mode.reachedMax = false

	return v
}

// WriteMode decodes the mode register and resets the counter and IRQ
// latch, matching real hardware: any write to the mode register restarts
// the timer's current cycle.
func (t *Timer) WriteMode(v uint16) {
	t.mode.SyncEnable = v&1 != 0
	t.mode.Sync = SyncMode((v >> 1) & 0x3)
	t.mode.ResetOnTarget = v&(1<<3) != 0
	t.mode.IRQOnTarget = v&(1<<4) != 0
	t.mode.IRQOnMax = v&(1<<5) != 0
	t.mode.OneShot = v&(1<<6) != 0
	t.mode.PulseIRQ = v&(1<<7) != 0
	t.mode.ClockSrc = ClockSource((v >> 8) & 0x3)
	t.mode.irqLineInverted = true
	t.counter = 0
	t.paused = false
	t.oneShotFired = false
}

// TickSystem advances the timer by `cycles` system clock ticks if its clock
// source is the plain system clock, and does nothing otherwise (system/8
// timers are fed through tickDiv8, dot-clock and hblank timers through
// TickExternal or the Bank helpers). inBlank reports whether the
// relevant blanking region (hblank for timer 0, vblank for timer 1) is
// currently active, for sync-mode handling.
func (t *Timer) TickSystem(cycles int, inBlank bool) {
	src := t.clockDivisor()
	if src != 1 {
		return // this timer is clocked by system/8, dot or hblank, fed elsewhere
	}
	t.advance(cycles, inBlank)
}

// TickExternal advances a dot-clock or hblank-clocked timer by `ticks`
// pulses of its external source (already divided by the GPU/video state
// machine), respecting sync-mode blanking rules.
func (t *Timer) TickExternal(ticks int, inBlank bool) {
	t.advance(ticks, inBlank)
}

func (t *Timer) clockDivisor() int {
	switch t.mode.ClockSrc {
	case ClockSystem:
		return 1
	case ClockSystemDiv8:
		return 8
	default:
		return 0 // externally fed
	}
}

func (t *Timer) advance(ticks int, inBlank bool) {
	if ticks <= 0 {
		return
	}

	if t.mode.SyncEnable {
		switch t.mode.Sync {
		case SyncPauseDuringBlank:
			if inBlank {
				return
			}
		case SyncResetAtBlank:
			if inBlank {
				t.counter = 0
			}
		case SyncResetAndPause:
			if inBlank {
				t.counter = 0
				return
			}
		case SyncPauseUntilBlankThenFreeRun:
			if t.paused && !inBlank {
				return
			}
			if inBlank {
				t.paused = false
			}
		}
	}

	// System/8 timers are divided in tickDiv8 before reaching here, so
	// every caller passes whole ticks of the timer's own clock and a plain
	// per-tick loop is exact for every clock source.
	for i := 0; i < ticks; i++ {
		prev := t.counter
		t.counter++

		reachedTarget := prev != t.target && t.counter == t.target
		reachedMax := t.counter == 0xFFFF

		if reachedTarget {
			t.mode.reachedTarget = true
			if t.mode.ResetOnTarget {
				t.counter = 0
			}
		}
		if reachedMax {
			t.mode.reachedMax = true
		}

		fire := (reachedTarget && t.mode.IRQOnTarget) || (reachedMax && t.mode.IRQOnMax)
		if fire {
			t.fireIRQ()
		}

		if reachedMax && !t.mode.ResetOnTarget {
			t.counter = 0
		}
	}
}

// fireIRQ is invoked once per matched condition (target or max, subject to
// the IRQOnTarget/IRQOnMax gates already applied by the caller). One-shot
// mode requests exactly one interrupt per arm (i.e. per WriteMode); repeat
// mode requests one per occurrence. PulseIRQ vs toggle only changes the
// cosmetic waveform read back from bit 10 of the mode register, not how
// many interrupts reach the aggregator — on real hardware the request line
// is latched into IF on every qualifying edge regardless of waveform shape.
func (t *Timer) fireIRQ() {
	if t.mode.OneShot && t.oneShotFired {
		return
	}

	if t.RequestIRQ != nil {
		t.RequestIRQ()
	}

	if t.mode.PulseIRQ {
		t.mode.irqLineInverted = true // momentary pulse, reads back high almost immediately
	} else {
		t.mode.irqLineInverted = !t.mode.irqLineInverted
	}

	if t.mode.OneShot {
		t.oneShotFired = true
	}
}

// Bank holds the three timers and feeds Timer 0's dot clock (TickDot),
// Timer 1's hblank (TickHBlank) and Timer 2's system/8 clock
// (TickSystemAll) to them.
type Bank struct {
	Timers [3]*Timer
}

// NewBank creates the three-timer bank with interrupt sources pre-wired by
// the caller via each Timer's RequestIRQ field.
func NewBank() *Bank {
	return &Bank{Timers: [3]*Timer{New(0), New(1), New(2)}}
}

// TickSystemAll advances timers 0 and 1 when they run on the system clock
// and timer 2 when it runs on the system clock or system/8, by one system
// tick batch; a timer 0 or 1 set to system/8 is not advanced. Callers
// additionally drive Timer0 with TickDot and Timer1 with TickHBlank from
// the video state machine.
func (b *Bank) TickSystemAll(cycles int, hblank, vblank bool) {
	b.Timers[0].TickSystem(cycles, hblank)
	b.Timers[1].TickSystem(cycles, vblank)
	b.Timers[2].tickDiv8(cycles)
}

func (t *Timer) tickDiv8(cycles int) {
	if t.clockDivisor() != 8 {
		if t.mode.ClockSrc == ClockSystem {
			t.advance(cycles, false)
		}
		return
	}
	t.div8Acc += cycles
	whole := t.div8Acc / 8
	t.div8Acc -= whole * 8
	if whole > 0 {
		t.advance(whole, false)
	}
}

// TickDot feeds Timer0 dot-clock pulses (already converted from GPU pixel
// clock by the caller).
func (b *Bank) TickDot(ticks int, hblank bool) {
	if b.Timers[0].mode.ClockSrc == ClockDot {
		b.Timers[0].advance(ticks, hblank)
	}
}

// TickHBlank feeds Timer1 hblank pulses (one per scanline).
func (b *Bank) TickHBlank(ticks int, vblank bool) {
	if b.Timers[1].mode.ClockSrc == ClockHBlank {
		b.Timers[1].advance(ticks, vblank)
	}
}
