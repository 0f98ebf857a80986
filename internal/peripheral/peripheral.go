// Package peripheral implements the controller/memory-card serial port: a
// byte-at-a-time transfer engine with a baud-rate countdown timer.
// Structurally grounded on jeebie/serial/logsink.go's countdown-then-
// callback pattern, generalized from a fixed 8-cycle Game Boy serial clock
// to the configurable JOY_BAUD divisor and the controller/memory-card
// protocol state machine.
package peripheral

// Mode identifies which device family the current transfer addresses.
type Mode int

const (
	ModeNone Mode = iota
	ModeController
	ModeMemCard
	ModeMultitap
)

// Device is implemented by a controller pad or memory card: given the
// current transfer step and the byte just sent, it returns the byte to
// shift back and whether it wants to keep the transfer alive (ACK).
type Device interface {
	// Transfer advances the device's internal protocol state by one byte.
	// step is 0 on the first byte of a transfer. Returns the response byte
	// and whether the device pulls /ACK afterward (keeping CTS asserted).
	Transfer(step int, in byte) (out byte, ack bool)
	// Reset returns the device to its idle (pre-select) state.
	Reset()
}

// Port is the serial engine itself: baud timer, transfer-mode state
// machine, and the currently selected device pair (pad 1/2 ports share one
// physical bus, arbitrated by the TXEnable/select bits upstream).
type Port struct {
	baudDivisor int
	baudCounter int

	mode Mode
	step int

	txEnable  bool
	selectDev Device

	rxData    byte
	rxReady   bool
	txReady   bool
	ackLine   bool

	// RequestIRQ fires once per ACK pulse, per spec.md's ACK-driven
	// interrupt model.
	RequestIRQ func()
}

func New() *Port {
	p := &Port{txReady: true}
	return p
}

// SetBaudDivisor sets JOY_BAUD's reload value (in system clocks per bit,
// already pre-multiplied by the divider factor the register encodes).
func (p *Port) SetBaudDivisor(v int) {
	if v <= 0 {
		v = 1
	}
	p.baudDivisor = v
}

// Select attaches the device addressed by the next transfer (controller
// slot or memory card), based on the first byte's address nibble, per
// spec.md §4.9's mode dispatch (0x01 pad1, 0x81 memcard1, 0x80|n multitap).
func (p *Port) Select(d Device, mode Mode) {
	p.selectDev = d
	p.mode = mode
	p.step = 0
}

// Deselect ends the current transfer, returning the port to idle.
func (p *Port) Deselect() {
	if p.selectDev != nil {
		p.selectDev.Reset()
	}
	p.mode = ModeNone
	p.selectDev = nil
	p.step = 0
	p.ackLine = false
}

// WriteData begins shifting out byte v; the response is latched
// immediately (the baud timer models only the byte-transfer delay before
// RXReady asserts, matching how software actually observes this port).
func (p *Port) WriteData(v byte) {
	p.txReady = false
	if p.selectDev == nil {
		p.rxData = 0xFF
		p.rxReady = true
		p.baudCounter = p.baudDivisor
		return
	}

	out, ack := p.selectDev.Transfer(p.step, v)
	p.step++
	p.rxData = out
	p.ackLine = ack
	p.baudCounter = p.baudDivisor
	p.rxReady = false // becomes ready once Tick drains the baud counter
}

// ReadData returns the last shifted-in byte.
func (p *Port) ReadData() byte { return p.rxData }

// SetTXEnable models the TXEN control bit; disabling mid-transfer cancels
// it per spec.md's "mid-transfer cancellation on TXEnable=0".
func (p *Port) SetTXEnable(on bool) {
	p.txEnable = on
	if !on {
		p.Deselect()
	}
}

// Tick advances the baud-rate countdown by cycles system clocks, posting
// RXReady/TXReady and the ACK-driven interrupt once the current byte's
// transfer time elapses.
func (p *Port) Tick(cycles int) {
	if p.baudCounter <= 0 {
		return
	}
	p.baudCounter -= cycles
	if p.baudCounter <= 0 {
		p.baudCounter = 0
		p.rxReady = true
		p.txReady = true
		if p.ackLine {
			p.ackLine = false
			if p.RequestIRQ != nil {
				p.RequestIRQ()
			}
		}
	}
}

func (p *Port) RXReady() bool { return p.rxReady }
func (p *Port) TXReady() bool { return p.txReady }
