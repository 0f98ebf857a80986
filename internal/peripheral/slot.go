package peripheral

// Slot multiplexes a controller pad and a memory card onto one physical
// port, matching real hardware where both devices see every transferred
// byte and only the one whose address byte matches (0x01 pad, 0x81 memory
// card) pulls ACK. Port.Select only tracks a single Device, so bus wiring
// attaches one Slot per physical port instead of the pad/card directly.
type Slot struct {
	Pad  *DigitalPad
	Card *MemCard

	active Device
}

// NewSlot pairs a pad and memory card behind one port connector.
func NewSlot(pad *DigitalPad, card *MemCard) *Slot {
	return &Slot{Pad: pad, Card: card}
}

func (s *Slot) Transfer(step int, in byte) (byte, bool) {
	if step == 0 {
		s.active = nil
		if out, ack := s.Pad.Transfer(0, in); ack {
			s.active = s.Pad
			return out, true
		}
		if out, ack := s.Card.Transfer(0, in); ack {
			s.active = s.Card
			return out, true
		}
		return 0xFF, false
	}
	if s.active == nil {
		return 0xFF, false
	}
	return s.active.Transfer(step, in)
}

func (s *Slot) Reset() {
	s.Pad.Reset()
	s.Card.Reset()
	s.active = nil
}
