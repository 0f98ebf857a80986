package peripheral

import "testing"

func TestDigitalPad_RespondsWithHeaderAndID(t *testing.T) {
	p := NewDigitalPad()
	if out, ack := p.Transfer(0, 0x01); out != 0xFF || !ack {
		t.Fatalf("header: got (0x%02X, %v)", out, ack)
	}
	if out, ack := p.Transfer(1, 0x00); out != 0x41 || !ack {
		t.Fatalf("id lo: got (0x%02X, %v)", out, ack)
	}
	if out, ack := p.Transfer(2, 0x00); out != 0x5A || !ack {
		t.Fatalf("id hi: got (0x%02X, %v)", out, ack)
	}
}

func TestDigitalPad_ButtonBytesAreActiveLow(t *testing.T) {
	p := NewDigitalPad()
	p.Held = BtnCross | BtnUp
	_, _ = p.Transfer(0, 0x01)
	_, _ = p.Transfer(1, 0)
	_, _ = p.Transfer(2, 0)
	lo, ack := p.Transfer(3, 0)
	if !ack {
		t.Fatal("button byte 0 should ACK")
	}
	if lo != byte(^(BtnCross | BtnUp) & 0xFF) {
		t.Fatalf("button byte 0 = 0x%02X", lo)
	}
	hi, ack := p.Transfer(4, 0)
	if ack {
		t.Fatal("final button byte should not ACK")
	}
	if hi != 0xBF {
		t.Fatalf("button byte 1 = 0x%02X, want 0xBF (Cross, bit 14, held)", hi)
	}
}

func TestDigitalPad_WrongHeaderRejects(t *testing.T) {
	p := NewDigitalPad()
	if _, ack := p.Transfer(0, 0x81); ack {
		t.Fatal("pad should not ACK a memory-card header byte")
	}
}

// transferMemCardWrite runs the full write protocol from spec.md §8
// scenario 4: 0x81, 0x57, 0x00, 0x02, <128 data>, XOR-checksum.
func transferMemCardWrite(t *testing.T, m *MemCard, sector byte, data [128]byte) {
	t.Helper()
	seq := []byte{0x81, 0x57, 0x00, sector}
	for i, b := range seq {
		if _, ack := m.Transfer(i, b); !ack {
			t.Fatalf("write header step %d: no ACK", i)
		}
	}
	for i, b := range data {
		if _, ack := m.Transfer(4+i, b); !ack {
			t.Fatalf("write data byte %d: no ACK", i)
		}
	}
	var x byte
	for _, b := range data {
		x ^= b
	}
	x ^= 0x00 ^ sector
	m.Transfer(4+128, x)
}

func TestMemCard_WriteThenReadRoundTrips(t *testing.T) {
	m := NewMemCard()
	var data [128]byte
	for i := range data {
		data[i] = byte(i * 3)
	}
	transferMemCardWrite(t, m, 2, data)

	seq := []byte{0x81, 0x52, 0x00, 0x02}
	var responses []byte
	for i, b := range seq {
		out, ack := m.Transfer(i, b)
		if !ack {
			t.Fatalf("read header step %d: no ACK", i)
		}
		responses = append(responses, out)
	}
	for i := range data {
		out, ack := m.Transfer(4+i, 0)
		if !ack {
			t.Fatalf("read data byte %d: no ACK", i)
		}
		if out != data[i] {
			t.Fatalf("read byte %d = 0x%02X, want 0x%02X", i, out, data[i])
		}
	}
	_ = responses
}

func TestMemCard_ChecksumMismatchPanicsAndDoesNotCommit(t *testing.T) {
	m := NewMemCard()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on checksum mismatch")
		}
		if m.Data[2*sectorSize] != 0 {
			t.Fatal("sector write must not be committed on checksum mismatch")
		}
	}()

	seq := []byte{0x81, 0x57, 0x00, 0x02}
	for i, b := range seq {
		m.Transfer(i, b)
	}
	for i := 0; i < sectorSize; i++ {
		m.Transfer(4+i, byte(i))
	}
	m.Transfer(4+sectorSize, 0xFF) // deliberately wrong checksum
}

func TestSlot_RoutesByAddressByte(t *testing.T) {
	s := NewSlot(NewDigitalPad(), NewMemCard())

	if out, ack := s.Transfer(0, 0x01); out != 0xFF || !ack {
		t.Fatalf("pad header: got (0x%02X, %v)", out, ack)
	}
	if out, ack := s.Transfer(1, 0); out != 0x41 || !ack {
		t.Fatalf("pad id routed after select: got (0x%02X, %v)", out, ack)
	}

	s.Reset()
	if out, ack := s.Transfer(0, 0x81); out != 0xFF || !ack {
		t.Fatalf("card header: got (0x%02X, %v)", out, ack)
	}
	if out, ack := s.Transfer(1, 0); out != 0x5A || !ack {
		t.Fatalf("card id routed after select: got (0x%02X, %v)", out, ack)
	}
}

func TestSlot_UnknownAddressByteGetsNoACK(t *testing.T) {
	s := NewSlot(NewDigitalPad(), NewMemCard())
	if _, ack := s.Transfer(0, 0xFF); ack {
		t.Fatal("unrecognized address byte must not ACK")
	}
}

func TestPort_WriteDataLatchesResponseAfterBaudDelay(t *testing.T) {
	p := New()
	pad := NewDigitalPad()
	p.Select(pad, ModeController)
	p.SetBaudDivisor(88)

	p.WriteData(0x01)
	if p.RXReady() {
		t.Fatal("RXReady should be false immediately after WriteData")
	}
	p.Tick(44)
	if p.RXReady() {
		t.Fatal("RXReady should still be false before the baud divisor elapses")
	}
	p.Tick(44)
	if !p.RXReady() {
		t.Fatal("RXReady should be true once the baud divisor elapses")
	}
	if p.ReadData() != 0xFF {
		t.Fatalf("ReadData() = 0x%02X, want 0xFF (pad header echo)", p.ReadData())
	}
}

func TestPort_ACKRaisesIRQOnce(t *testing.T) {
	p := New()
	pad := NewDigitalPad()
	p.Select(pad, ModeController)
	p.SetBaudDivisor(10)

	count := 0
	p.RequestIRQ = func() { count++ }

	p.WriteData(0x01) // ACKs
	p.Tick(10)
	if count != 1 {
		t.Fatalf("IRQ fired %d times, want 1", count)
	}

	p.WriteData(0x00) // id lo byte, still ACKs
	p.Tick(10)
	if count != 2 {
		t.Fatalf("IRQ fired %d times after second ACK byte, want 2", count)
	}
}

func TestPort_SetTXEnableFalseCancelsTransfer(t *testing.T) {
	p := New()
	card := NewMemCard()
	p.Select(card, ModeMemCard)
	p.WriteData(0x81)

	p.SetTXEnable(false)
	// Deselect resets the card and clears the selected device; a byte sent
	// afterward with no device selected reads back 0xFF and does not ACK.
	p.WriteData(0x57)
	if p.ackLine {
		t.Fatal("ackLine should be cleared once the port is deselected")
	}
}
