package spu

import "github.com/jsbaxter/stationcore/internal/adpcm"

const (
	pitchOne     = 0x1000
	blockSamples = 28
	blockBytes   = 16
)

// voice is one of the SPU's 24 ADPCM playback channels: pitch-counter
// driven BRR decode, ADSR envelope, pitch modulation, and noise
// substitution. The register layout (vol_left/vol_right/sample_rate/
// start_addr/adsr_lo/adsr_hi/adsr_vol/repeat_addr at offsets 0x0-0xE) is
// grounded on phase/src/spu/voice.rs's Voice struct, but the per-sample
// algorithm itself has no original to port from: Voice::clock and
// Voice::get_sample are both unfinished placeholders there. This file
// instead implements the per-sample algorithm spec.md Sec 4.7 describes
// directly, reusing the adpcm, adsr, and sweep building blocks the way
// the original's mod.rs wires them together.
type voice struct {
	vol        sweepVolume
	sampleRate uint16
	startAddr  uint16
	repeatAddr uint16

	adsr adsrEnvelope

	pitchMod bool
	noise    bool
	active   bool
	endx     bool

	currentAddr  uint32
	pitchCounter uint32
	blockPos     int
	decoder      adpcm.Decoder
}

func (v *voice) readHalfword(addr uint32) uint16 {
	switch addr {
	case 0x0:
		return uint16(v.vol.left)
	case 0x2:
		return uint16(v.vol.right)
	case 0x4:
		return v.sampleRate
	case 0x6:
		return v.startAddr
	case 0x8:
		return v.adsr.readLo()
	case 0xA:
		return v.adsr.readHi()
	case 0xC:
		return uint16(v.adsr.level)
	case 0xE:
		return v.repeatAddr
	}
	panic("spu: invalid voice register read")
}

func (v *voice) writeHalfword(addr uint32, data uint16) {
	switch addr {
	case 0x0:
		v.vol.setLeft(data)
	case 0x2:
		v.vol.setRight(data)
	case 0x4:
		v.sampleRate = data
	case 0x6:
		v.startAddr = data
		v.clearEndx()
	case 0x8:
		v.adsr.writeLo(data)
	case 0xA:
		v.adsr.writeHi(data)
	case 0xC:
		v.adsr.level = int16(data)
	case 0xE:
		v.repeatAddr = data
	default:
		panic("spu: invalid voice register write")
	}
}

// keyOn restarts ADPCM decode from start_addr and re-enters the attack
// phase, matching a write to the KON register.
func (v *voice) keyOn() {
	v.active = true
	v.endx = false
	v.currentAddr = uint32(v.startAddr) << 3
	v.pitchCounter = 0
	v.blockPos = blockSamples - 1
	v.decoder.Reset()
	v.adsr.init()
}

// keyOff forces the envelope into release; decode continues so the tail
// of the current loop still plays out, matching a write to the KOFF
// register.
func (v *voice) keyOff() {
	if v.active {
		v.adsr.release()
	}
}

func (v *voice) getEndx() bool { return v.endx }

// clearEndx is invoked when the CPU rewrites this voice's start address,
// matching spec.md's "remains set until explicitly cleared by a write to
// the start-address register of that voice".
func (v *voice) clearEndx() { v.endx = false }

func (v *voice) getAdsrVol() int16 { return v.adsr.level }

// clock advances the voice by one 44.1kHz sample tick. prevLevel is the
// previous voice's current ADSR level, used for pitch modulation;
// noiseSample is this tick's SPU-wide noise generator output, substituted
// in place of the decoded ADPCM sample when the voice's noise flag is set.
// Returns the voice's left/right contribution and whether it read the
// SPU's IRQ-watch address this tick.
func (v *voice) clock(ram *soundRAM, irqAddr uint32, prevLevel int16, noiseSample int16) (int32, int32, bool) {
	if !v.active {
		return 0, 0, false
	}

	rate := uint32(v.sampleRate & 0x3FFF)
	if v.pitchMod {
		factor := int32(prevLevel) + 0x8000
		rate = uint32(clampU16((int32(rate) * factor) >> 15))
	}

	irq := false
	v.pitchCounter += rate
	for v.pitchCounter >= pitchOne {
		v.pitchCounter -= pitchOne
		v.blockPos++
		if v.blockPos >= blockSamples {
			v.blockPos = 0
			if v.currentAddr == irqAddr {
				irq = true
			}
			block := ram.readBlock(v.currentAddr, blockBytes)
			loopStart := v.decoder.DecodeBlock(block)
			if loopStart {
				v.repeatAddr = uint16(v.currentAddr >> 3)
			}
			v.currentAddr += blockBytes
			if v.decoder.IsLoopEnd() {
				v.endx = true
				if v.decoder.ShouldRelease() {
					v.adsr.end()
				}
				v.currentAddr = uint32(v.repeatAddr) << 3
			}
		}
	}

	raw := v.decoder.Sample(v.blockPos)
	if v.noise {
		raw = noiseSample
	}

	level := v.adsr.step()
	sample := (int32(raw) * int32(level)) >> 15

	vl, vr := v.vol.vol()
	left := (sample * int32(vl)) >> 15
	right := (sample * int32(vr)) >> 15
	return left, right, irq
}

func clampU16(v int32) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0x3FFF {
		return 0x3FFF
	}
	return uint16(v)
}
