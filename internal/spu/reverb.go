package spu

// reverbUnit implements the Schroeder-style comb/all-pass reverb tail that
// runs over a configurable region of SPU RAM. Grounded on
// phase/src/spu/reverb.rs's ReverbUnit, ported as closely as the register
// layout allows; dRAM addressing is in units of 8 bytes as in the original.
type reverbUnit struct {
	inputVolLeft, inputVolRight int16

	baseAddr        uint16
	apfOffset       [2]uint16
	apfVol          [2]uint16
	apfAddrLeft     [2]uint16
	apfAddrRight    [2]uint16
	impulseResponse uint16
	wallResponse    uint16
	combVol         [4]uint16
	combAddrLeft    [4]uint16
	combAddrRight   [4]uint16

	sameSideReflectAddrLeft, sameSideReflectAddrRight   [2]uint16
	diffSideReflectAddrLeft, diffSideReflectAddrRight    [2]uint16

	bufferAddr uint32
	bufferSize uint32
}

func (r *reverbUnit) offsetAddr(addr uint16) uint32 {
	a := r.bufferAddr + uint32(addr)*8
	if a > 0x7FFFF {
		return a - r.bufferSize
	}
	return a
}

func (r *reverbUnit) offsetPrevAddr(addr uint16) uint32 {
	a := r.bufferAddr + uint32(addr)*8 - 2
	if a > 0x7FFFF {
		return a - r.bufferSize
	}
	return a
}

func (r *reverbUnit) setBaseAddr(addr uint16) {
	r.baseAddr = addr
	r.bufferSize = 0x80000 - uint32(r.baseAddr)*8
	r.resetBufferAddr()
}

func (r *reverbUnit) resetBufferAddr() { r.bufferAddr = uint32(r.baseAddr) * 8 }

func (r *reverbUnit) incBufferAddr() {
	start := uint32(r.baseAddr) * 8
	next := (r.bufferAddr + 2) & 0x7FFFF
	if next < start {
		next = start
	}
	r.bufferAddr = next
}

// sameSideAddrLeft returns (m_prev, d, m) addresses for the left same-side
// reflection stage; the final m is written back to by the caller.
func (r *reverbUnit) sameSideAddrLeft() (uint32, uint32, uint32) {
	return r.offsetPrevAddr(r.sameSideReflectAddrLeft[0]),
		r.offsetAddr(r.sameSideReflectAddrLeft[1]),
		r.offsetAddr(r.sameSideReflectAddrLeft[0])
}

func (r *reverbUnit) sameSideAddrRight() (uint32, uint32, uint32) {
	return r.offsetPrevAddr(r.sameSideReflectAddrRight[0]),
		r.offsetAddr(r.sameSideReflectAddrRight[1]),
		r.offsetAddr(r.sameSideReflectAddrRight[0])
}

func (r *reverbUnit) diffSideAddrLeft() (uint32, uint32, uint32) {
	return r.offsetPrevAddr(r.diffSideReflectAddrLeft[0]),
		r.offsetAddr(r.diffSideReflectAddrLeft[1]),
		r.offsetAddr(r.diffSideReflectAddrLeft[0])
}

func (r *reverbUnit) diffSideAddrRight() (uint32, uint32, uint32) {
	return r.offsetPrevAddr(r.diffSideReflectAddrRight[0]),
		r.offsetAddr(r.diffSideReflectAddrRight[1]),
		r.offsetAddr(r.diffSideReflectAddrRight[0])
}

// applyReverbInput implements the "input" reflection filter:
// out = clamp(((in + ((d*wall)>>15) - m) * impulse) >> 15 + m).
func (r *reverbUnit) applyReverbInput(input int32, dVal, mVal uint16) uint16 {
	wall := int32(int16(r.wallResponse))
	impulse := int32(int16(r.impulseResponse))
	d := int32(int16(dVal))
	m := int32(int16(mVal))
	out := (((input + ((d * wall) >> 15) - m) * impulse) >> 15) + m
	return uint16(int16(clamp32(out, -0x8000, 0x7FFF)))
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (r *reverbUnit) combFilterAddrLeft() [4]uint32 {
	var out [4]uint32
	for n := range out {
		out[n] = r.offsetAddr(r.combAddrLeft[n])
	}
	return out
}

func (r *reverbUnit) combFilterAddrRight() [4]uint32 {
	var out [4]uint32
	for n := range out {
		out[n] = r.offsetAddr(r.combAddrRight[n])
	}
	return out
}

// applyCombFilter sums the 4 comb taps weighted by combVol, clamped to i16.
func (r *reverbUnit) applyCombFilter(combVal [4]uint16) int32 {
	var acc int32
	for n := 0; n < 4; n++ {
		v := int32(int16(combVal[n]))
		vol := int32(int16(r.combVol[n]))
		acc += (v * vol) >> 15
	}
	return clamp32(acc, -0x8000, 0x7FFF)
}

func (r *reverbUnit) apfSrcAddrLeft(n int) uint32 {
	return r.offsetAddr(r.apfAddrLeft[n] - r.apfOffset[n])
}

func (r *reverbUnit) apfSrcAddrRight(n int) uint32 {
	return r.offsetAddr(r.apfAddrRight[n] - r.apfOffset[n])
}

func (r *reverbUnit) apfDstAddrLeft(n int) uint32  { return r.offsetAddr(r.apfAddrLeft[n]) }
func (r *reverbUnit) apfDstAddrRight(n int) uint32 { return r.offsetAddr(r.apfAddrRight[n]) }

func (r *reverbUnit) applyAPF(data int32, n int) int32 {
	vol := int32(int16(r.apfVol[n]))
	return (data * vol) >> 15
}

// readReverbReg and writeReverbReg implement the 32-register reverb block
// at SPU offsets 0x1C0-0x1FE. The register-to-field assignment below
// follows the well-documented public PS1 register names (dAPF1/2, vIIR,
// vCOMB1-4, vWALL, vAPF1/2, mLSAME/mRSAME, dLSAME/dRSAME, mLDIFF/mRDIFF,
// dLDIFF/dRDIFF, mLCOMB1-4/mRCOMB1-4, mLAPF1-2/mRAPF1-2, vLIN/vRIN); the
// comb/APF/reflection math above is grounded on reverb.rs's helper shapes,
// which these offsets feed.
func (s *SPU) readReverbReg(addr uint32) (uint16, bool) {
	r := &s.reverb
	switch addr {
	case 0x1C0:
		return r.apfOffset[0], true
	case 0x1C2:
		return r.apfOffset[1], true
	case 0x1C4:
		return r.impulseResponse, true
	case 0x1C6, 0x1C8, 0x1CA, 0x1CC:
		return r.combVol[(addr-0x1C6)/2], true
	case 0x1CE:
		return r.wallResponse, true
	case 0x1D0:
		return r.apfVol[0], true
	case 0x1D2:
		return r.apfVol[1], true
	case 0x1D4:
		return r.sameSideReflectAddrLeft[0], true
	case 0x1D6:
		return r.sameSideReflectAddrRight[0], true
	case 0x1D8:
		return r.combAddrLeft[0], true
	case 0x1DA:
		return r.combAddrRight[0], true
	case 0x1DC:
		return r.combAddrLeft[1], true
	case 0x1DE:
		return r.combAddrRight[1], true
	case 0x1E0:
		return r.sameSideReflectAddrLeft[1], true
	case 0x1E2:
		return r.sameSideReflectAddrRight[1], true
	case 0x1E4:
		return r.diffSideReflectAddrLeft[0], true
	case 0x1E6:
		return r.diffSideReflectAddrRight[0], true
	case 0x1E8:
		return r.combAddrLeft[2], true
	case 0x1EA:
		return r.combAddrRight[2], true
	case 0x1EC:
		return r.combAddrLeft[3], true
	case 0x1EE:
		return r.combAddrRight[3], true
	case 0x1F0:
		return r.diffSideReflectAddrRight[1], true
	case 0x1F2:
		return r.diffSideReflectAddrLeft[1], true
	case 0x1F4:
		return r.apfAddrLeft[0], true
	case 0x1F6:
		return r.apfAddrRight[0], true
	case 0x1F8:
		return r.apfAddrLeft[1], true
	case 0x1FA:
		return r.apfAddrRight[1], true
	case 0x1FC:
		return uint16(r.inputVolLeft), true
	case 0x1FE:
		return uint16(r.inputVolRight), true
	}
	return 0, false
}

func (s *SPU) writeReverbReg(addr uint32, data uint16) bool {
	r := &s.reverb
	switch addr {
	case 0x1C0:
		r.apfOffset[0] = data
	case 0x1C2:
		r.apfOffset[1] = data
	case 0x1C4:
		r.impulseResponse = data
	case 0x1C6, 0x1C8, 0x1CA, 0x1CC:
		r.combVol[(addr-0x1C6)/2] = data
	case 0x1CE:
		r.wallResponse = data
	case 0x1D0:
		r.apfVol[0] = data
	case 0x1D2:
		r.apfVol[1] = data
	case 0x1D4:
		r.sameSideReflectAddrLeft[0] = data
	case 0x1D6:
		r.sameSideReflectAddrRight[0] = data
	case 0x1D8:
		r.combAddrLeft[0] = data
	case 0x1DA:
		r.combAddrRight[0] = data
	case 0x1DC:
		r.combAddrLeft[1] = data
	case 0x1DE:
		r.combAddrRight[1] = data
	case 0x1E0:
		r.sameSideReflectAddrLeft[1] = data
	case 0x1E2:
		r.sameSideReflectAddrRight[1] = data
	case 0x1E4:
		r.diffSideReflectAddrLeft[0] = data
	case 0x1E6:
		r.diffSideReflectAddrRight[0] = data
	case 0x1E8:
		r.combAddrLeft[2] = data
	case 0x1EA:
		r.combAddrRight[2] = data
	case 0x1EC:
		r.combAddrLeft[3] = data
	case 0x1EE:
		r.combAddrRight[3] = data
	case 0x1F0:
		r.diffSideReflectAddrRight[1] = data
	case 0x1F2:
		r.diffSideReflectAddrLeft[1] = data
	case 0x1F4:
		r.apfAddrLeft[0] = data
	case 0x1F6:
		r.apfAddrRight[0] = data
	case 0x1F8:
		r.apfAddrLeft[1] = data
	case 0x1FA:
		r.apfAddrRight[1] = data
	case 0x1FC:
		r.inputVolLeft = int16(data)
	case 0x1FE:
		r.inputVolRight = int16(data)
	default:
		return false
	}
	return true
}

// processReverb runs one sample tick of the comb/all-pass reverb network
// over SPU RAM and returns its wet left/right contribution, already scaled
// by the reverb output volume (the reverb_vol register at 0x1D84/0x1D86,
// owned by SPU rather than reverbUnit — matching phase/src/spu/mod.rs,
// which keeps reverb_vol outside its ReverbUnit struct).
func (s *SPU) processReverb(leftIn, rightIn int32) (int32, int32) {
	r := &s.reverb

	linLeft := (leftIn * int32(r.inputVolLeft)) >> 15
	linRight := (rightIn * int32(r.inputVolRight)) >> 15

	reflect := func(prevM, d, m uint32, input int32) {
		dVal := s.ram.readHalf(d)
		mVal := s.ram.readHalf(prevM)
		out := r.applyReverbInput(input, dVal, mVal)
		s.ram.writeHalf(m, out)
	}
	reflect2 := func(tuple func() (uint32, uint32, uint32), input int32) {
		prevM, d, m := tuple()
		reflect(prevM, d, m, input)
	}
	reflect2(r.sameSideAddrLeft, linLeft)
	reflect2(r.sameSideAddrRight, linRight)
	reflect2(r.diffSideAddrLeft, linLeft)
	reflect2(r.diffSideAddrRight, linRight)

	combL := r.combFilterAddrLeft()
	combR := r.combFilterAddrRight()
	var cvL, cvR [4]uint16
	for i := 0; i < 4; i++ {
		cvL[i] = s.ram.readHalf(combL[i])
		cvR[i] = s.ram.readHalf(combR[i])
	}
	lout := r.applyCombFilter(cvL)
	rout := r.applyCombFilter(cvR)

	for n := 0; n < 2; n++ {
		srcL, dstL := r.apfSrcAddrLeft(n), r.apfDstAddrLeft(n)
		sL := int32(int16(s.ram.readHalf(srcL)))
		lout -= r.applyAPF(sL, n)
		s.ram.writeHalf(dstL, uint16(clamp16(lout)))
		lout = r.applyAPF(lout, n) + sL

		srcR, dstR := r.apfSrcAddrRight(n), r.apfDstAddrRight(n)
		sR := int32(int16(s.ram.readHalf(srcR)))
		rout -= r.applyAPF(sR, n)
		s.ram.writeHalf(dstR, uint16(clamp16(rout)))
		rout = r.applyAPF(rout, n) + sR
	}

	r.incBufferAddr()

	left := (lout * int32(s.reverbVolLeft)) >> 15
	right := (rout * int32(s.reverbVolRight)) >> 15
	return left, right
}
