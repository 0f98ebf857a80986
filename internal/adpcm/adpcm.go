// Package adpcm implements the BRR (bit-rate-reduced) ADPCM decoder shared
// by the SPU's 24 voices and the CD-ROM's XA-ADPCM audio path. Grounded on
// phase/src/spu/adpcm.rs's ADPCMDecoder: a 4-tap history-based predictor
// selected by a per-block filter index, generalized here to also decode the
// CD-XA sound-group layout (phase/src/cdrom/xaaudio.rs references the same
// decoder type without retrieving its XA-specific method).
package adpcm

// posFilter/negFilter are the four predictor-pair coefficients (plus the
// "no filter" zero entry), shared verbatim by SPU voice blocks and XA
// sound units.
var posFilter = [5]int32{0, 60, 115, 98, 122}
var negFilter = [5]int32{0, 0, -52, -55, -60}

// Decoder holds the two-sample predictor history and loop flags for one
// ADPCM channel (one SPU voice, or one XA left/right channel). History is
// never shared across decoders (spec.md §9, "ADPCM state").
type Decoder struct {
	samples  [28]int16
	decoded  bool
	loopEnd  bool
	release  bool
	loopAddr bool

	hist0, hist1 int32
}

// Reset clears decode history, matching phase/src/spu/adpcm.rs's reset().
func (d *Decoder) Reset() {
	d.decoded = false
	d.samples = [28]int16{}
	d.hist0, d.hist1 = 0, 0
}

// NeedsBlock reports whether the decoder has exhausted its current block
// of 28 samples and must decode another.
func (d *Decoder) NeedsBlock() bool { return !d.decoded }

func decodeSample(nybble int16, shift uint8, prev0, prev1 int32, pos, neg int32) int16 {
	shifted := int32(nybble) >> shift
	sample := shifted + (prev1*pos+prev0*neg+32)/64
	return clamp16(sample)
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

// DecodeBlock decodes a standard 16-byte SPU ADPCM block: byte 0 is
// shift/filter, byte 1 is loop flags, bytes 2-15 hold 28 packed 4-bit
// samples. Returns true if the block's loop-start flag is set.
func (d *Decoder) DecodeBlock(data []byte) bool {
	shift := data[0] & 0xF
	filter := (data[0] >> 4) & 0x7
	pos, neg := posFilter[filter], negFilter[filter]
	prev0, prev1 := d.hist0, d.hist1
	for i := 0; i < 14; i++ {
		in := data[i+2]
		lo := int16(in) << 12
		hi := int16(in&0xF0) << 8
		s0 := decodeSample(lo, shift, prev0, prev1, pos, neg)
		prev0, prev1 = prev1, int32(s0)
		s1 := decodeSample(hi, shift, prev0, prev1, pos, neg)
		prev0, prev1 = prev1, int32(s1)
		d.samples[i*2] = s0
		d.samples[i*2+1] = s1
	}
	d.hist0, d.hist1 = prev0, prev1
	d.decoded = true
	flags := data[1]
	d.loopEnd = flags&1 != 0
	if d.loopEnd {
		d.release = flags&2 == 0
	}
	d.loopAddr = flags&4 != 0
	return d.loopAddr
}

// DecodeXABlock decodes one 4-bit sound unit from a CD-XA sound group.
// header is the per-unit shift/filter byte; data is the chunk's sample
// region (from 0x10) already offset by the caller to the unit's byte
// column, so the 28 samples live at data[i*4], with the 4-bit value taken
// from the low nybble when bitOffset is 0, or the high nybble when
// bitOffset is 4.
func (d *Decoder) DecodeXABlock(data []byte, header byte, bitOffset uint) {
	shift := header & 0xF
	filter := (header >> 4) & 0x7
	pos, neg := posFilter[filter], negFilter[filter]
	prev0, prev1 := d.hist0, d.hist1
	for i := 0; i < 28; i++ {
		b := data[i*4]
		var nybble int16
		if bitOffset == 0 {
			nybble = int16(b) << 12
		} else {
			nybble = int16(b&0xF0) << 8
		}
		s := decodeSample(nybble, shift, prev0, prev1, pos, neg)
		prev0, prev1 = prev1, int32(s)
		d.samples[i] = s
	}
	d.hist0, d.hist1 = prev0, prev1
	d.decoded = true
}

// IsLoopEnd reports whether the last decoded block ended a loop.
func (d *Decoder) IsLoopEnd() bool { return d.loopEnd }

// ShouldRelease reports whether the loop-end block forces envelope release.
func (d *Decoder) ShouldRelease() bool { return d.release }

// IsLoopStart reports whether the last decoded block started a loop.
func (d *Decoder) IsLoopStart() bool { return d.loopAddr }

// Sample returns the nth decoded sample (0-27) of the current block.
func (d *Decoder) Sample(n int) int16 { return d.samples[n] }
