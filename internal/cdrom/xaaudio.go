package cdrom

import "github.com/jsbaxter/stationcore/internal/adpcm"

// codingInfo is the CD-XA sub-header's "coding info" byte.
type codingInfo uint8

const (
	codingEmphasis      codingInfo = 1 << 6
	codingBitsPerSample codingInfo = 1 << 4
	codingSampleRate    codingInfo = 1 << 2
	codingStereo        codingInfo = 1 << 0
)

// volumeMap is the four-entry {LL,LR,RL,RR} mix matrix applied per sector.
type volumeMap struct {
	leftToLeft, leftToRight, rightToLeft, rightToRight int8
}

func (v volumeMap) applyStereo(left, right int16) (int16, int16) {
	ll := (int32(left) * int32(v.leftToLeft)) >> 7
	lr := (int32(left) * int32(v.leftToRight)) >> 7
	rl := (int32(right) * int32(v.rightToLeft)) >> 7
	rr := (int32(right) * int32(v.rightToRight)) >> 7
	return clamp16(ll + rl), clamp16(lr + rr)
}

func (v volumeMap) applyMono(sample int16) (int16, int16) {
	leftMul := int32(v.leftToLeft) + int32(v.rightToLeft)
	rightMul := int32(v.leftToRight) + int32(v.rightToRight)
	left := (int32(sample) * leftMul) >> 7
	right := (int32(sample) * rightMul) >> 7
	return clamp16(left), clamp16(right)
}

func clamp16(v int32) int16 {
	switch {
	case v > 0x7FFF:
		return 0x7FFF
	case v < -0x8000:
		return -0x8000
	default:
		return int16(v)
	}
}

// xaAudio decodes CD-XA ADPCM sectors and CD-DA passthrough into a 44.1kHz
// stereo buffer the SPU mixer drains each sample. Grounded on
// phase/src/cdrom/xaaudio.rs.
type xaAudio struct {
	currentVol, stagingVol volumeMap

	fileFilter, channelFilter uint8
	soundMapInfo              codingInfo
	mute                      bool

	sampleBuf    [][2]int16 // decoded at source rate
	convBuf      [][2]int16 // resampled to 44.1kHz
	pendingReady bool
	leftDecoder  adpcm.Decoder
	rightDecoder adpcm.Decoder
}

func (x *xaAudio) setFilters(file, channel byte) {
	x.fileFilter, x.channelFilter = file, channel
}

func (x *xaAudio) getFilters() (byte, byte) { return x.fileFilter, x.channelFilter }

func (x *xaAudio) testFilter(file, channel byte) bool {
	return x.fileFilter == file && x.channelFilter == channel
}

// writeXAADPCMSector decodes one XA-ADPCM audio sector (the 0x900-byte data
// region following the sector header) per coding.
func (x *xaAudio) writeXAADPCMSector(buffer []byte, coding codingInfo) {
	stereo := coding&codingStereo != 0
	if coding&codingBitsPerSample != 0 {
		x.decode8BitSamples(buffer, stereo)
	} else {
		x.decode4BitSamples(buffer, stereo)
	}
	x.resampleAudio(coding&codingSampleRate != 0)
	x.pendingReady = true
}

// writeCDAudioSector passes a raw CD-DA sector through the volume matrix
// without ADPCM decode (16-bit PCM, little-endian, interleaved stereo).
func (x *xaAudio) writeCDAudioSector(buffer []byte) {
	x.sampleBuf = x.sampleBuf[:0]
	for i := 0; i+3 < len(buffer); i += 4 {
		left := int16(uint16(buffer[i]) | uint16(buffer[i+1])<<8)
		right := int16(uint16(buffer[i+2]) | uint16(buffer[i+3])<<8)
		l, r := x.currentVol.applyStereo(left, right)
		x.sampleBuf = append(x.sampleBuf, [2]int16{l, r})
	}
	x.resampleAudio(false)
	x.pendingReady = true
}

// FetchDecodedAudio returns the resampled 44.1kHz samples produced by the
// most recent sector, if any are pending.
func (x *xaAudio) FetchDecodedAudio() [][2]int16 {
	if !x.pendingReady {
		return nil
	}
	x.pendingReady = false
	return x.convBuf
}

func (x *xaAudio) applyChanges(data byte) {
	x.mute = data&1 != 0
	if data&(1<<5) != 0 {
		x.currentVol = x.stagingVol
	}
	x.leftDecoder.Reset()
	x.rightDecoder.Reset()
}

func (x *xaAudio) setSoundMapInfo(data byte) { x.soundMapInfo = codingInfo(data) }
func (x *xaAudio) setLeftToLeft(data byte)   { x.stagingVol.leftToLeft = int8(data) }
func (x *xaAudio) setLeftToRight(data byte)  { x.stagingVol.leftToRight = int8(data) }
func (x *xaAudio) setRightToLeft(data byte)  { x.stagingVol.rightToLeft = int8(data) }
func (x *xaAudio) setRightToRight(data byte) { x.stagingVol.rightToRight = int8(data) }
func (x *xaAudio) writeData(byte)            {}

// decode4BitSamples decodes 18 chunks of 128 bytes, each holding 4
// interleaved sound units of 28 4-bit samples per channel.
func (x *xaAudio) decode4BitSamples(buffer []byte, stereo bool) {
	x.sampleBuf = x.sampleBuf[:0]
	for c := 0; c+128 <= len(buffer); c += 128 {
		chunk := buffer[c : c+128]
		if stereo {
			for block := 0; block < 4; block++ {
				headerOff := 4 + block*2
				data := chunk[0x10+block:]
				x.leftDecoder.DecodeXABlock(data, chunk[headerOff], 0)
				x.rightDecoder.DecodeXABlock(data, chunk[headerOff+1], 4)
				for i := 0; i < 28; i++ {
					l, r := x.currentVol.applyStereo(x.leftDecoder.Sample(i), x.rightDecoder.Sample(i))
					x.sampleBuf = append(x.sampleBuf, [2]int16{l, r})
				}
			}
		} else {
			for block := 0; block < 4; block++ {
				headerOff := 4 + block*2
				data := chunk[0x10+block:]
				x.leftDecoder.DecodeXABlock(data, chunk[headerOff], 0)
				for i := 0; i < 28; i++ {
					l, r := x.currentVol.applyMono(x.leftDecoder.Sample(i))
					x.sampleBuf = append(x.sampleBuf, [2]int16{l, r})
				}
				x.leftDecoder.DecodeXABlock(data, chunk[headerOff+1], 4)
				for i := 0; i < 28; i++ {
					l, r := x.currentVol.applyMono(x.leftDecoder.Sample(i))
					x.sampleBuf = append(x.sampleBuf, [2]int16{l, r})
				}
			}
		}
	}
}

// decode8BitSamples is the 8-bit XA-ADPCM path. Per spec.md's Open
// Questions, it is not exercised anywhere in the grounding source and is
// documented-only in this implementation.
func (x *xaAudio) decode8BitSamples([]byte, bool) {
	panic("cdrom: 8-bit XA-ADPCM is not implemented (undocumented in source)")
}

// linearInterpolateTable are the 6 forward-mix weights for the 6-in/7-out
// resampler (Q15), grounded on phase/src/cdrom/xaaudio.rs.
var linearInterpolateTable = [6]int32{4681, 9362, 14043, 18725, 23406, 28087}

// resampleAudio upsamples 37.8kHz XA audio to 44.1kHz using a 6-in/7-out
// linear interpolation ratio. The 18.9kHz half-rate path is, per spec.md's
// Open Questions, undocumented in the grounding source.
func (x *xaAudio) resampleAudio(lowSampleRate bool) {
	if lowSampleRate {
		panic("cdrom: 18.9kHz XA-ADPCM resampling is not implemented (undocumented in source)")
	}
	x.convBuf = x.convBuf[:0]
	for base := 0; base < len(x.sampleBuf); base += 6 {
		x.convBuf = append(x.convBuf, x.sampleBuf[base])
		for i := 0; i < 6; i++ {
			aIdx := base + i
			bIdx := aIdx + 1
			if bIdx == len(x.sampleBuf) {
				bIdx = aIdx
			}
			if aIdx >= len(x.sampleBuf) {
				break
			}
			a := x.sampleBuf[aIdx]
			b := x.sampleBuf[bIdx]
			aFactor := linearInterpolateTable[i]
			bFactor := 32768 - aFactor
			left := int32(a[0])*aFactor + int32(b[0])*bFactor
			right := int32(a[1])*aFactor + int32(b[1])*bFactor
			x.convBuf = append(x.convBuf, [2]int16{int16(left >> 15), int16(right >> 15)})
		}
	}
}
