package peripheral

// Buttons is the digital-pad button bitmask, active-low on the wire (a set
// bit here means "pressed"; Transfer inverts it before shifting out).
type Buttons uint16

const (
	BtnSelect Buttons = 1 << 0
	BtnL3     Buttons = 1 << 1
	BtnR3     Buttons = 1 << 2
	BtnStart  Buttons = 1 << 3
	BtnUp     Buttons = 1 << 4
	BtnRight  Buttons = 1 << 5
	BtnDown   Buttons = 1 << 6
	BtnLeft   Buttons = 1 << 7
	BtnL2     Buttons = 1 << 8
	BtnR2     Buttons = 1 << 9
	BtnL1     Buttons = 1 << 10
	BtnR1     Buttons = 1 << 11
	BtnTri    Buttons = 1 << 12
	BtnCircle Buttons = 1 << 13
	BtnCross  Buttons = 1 << 14
	BtnSquare Buttons = 1 << 15
)

// DigitalPad implements Device for a standard digital controller (ID
// 0x41), per spec.md §4.9's protocol: header 0xFF, ID byte, two button
// bytes.
type DigitalPad struct {
	Held Buttons
}

func NewDigitalPad() *DigitalPad { return &DigitalPad{} }

func (p *DigitalPad) Transfer(step int, in byte) (byte, bool) {
	switch step {
	case 0:
		if in != 0x01 {
			return 0xFF, false
		}
		return 0xFF, true // header echo, ACK to continue
	case 1:
		return 0x41, true // ID low byte
	case 2:
		return 0x5A, true // ID high byte
	case 3:
		return byte(^p.Held), true // button byte 0 (active low)
	case 4:
		return byte(^p.Held >> 8), false // button byte 1, last byte: no further ACK
	default:
		return 0xFF, false
	}
}

func (p *DigitalPad) Reset() {}
