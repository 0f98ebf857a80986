// Package mdec implements the macroblock decoder: RLE/dequantize decode,
// separable IDCT, and YCbCr-to-RGB conversion. Grounded structurally on
// jeebie/video/gpu.go's FIFO-plus-state-machine command processing,
// generalized to MDEC's block-pipeline semantics per spec.md §4.7.
package mdec

import "math"

const blockSize = 64

// zigzag maps the 64 coefficients from their bitstream (zig-zag) order to
// natural row-major 8x8 block order.
var zigzag = [blockSize]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// OutputMode selects the decoded block format delivered to the output FIFO.
type OutputMode int

const (
	ModeMono4 OutputMode = iota
	ModeMono8
	ModeRGB15
	ModeRGB24
)

// Decoder holds the MDEC's FIFOs, quantization tables, and running state
// for one in-progress command.
type Decoder struct {
	InputFIFO  []uint32
	OutputFIFO []uint32

	LumaQuant  [blockSize]uint8
	ColorQuant [blockSize]uint8
	IDCTScale  [blockSize]int16

	mode       OutputMode
	signed     bool
	bit15Set   bool
	busy       bool

	blockCount int // 32-bit parameter words remaining in the current command
	bitBuf     []uint16

	statusWord uint32

	// Streaming command state (stream.go): curOp identifies which of the
	// three commands is in flight; seq tracks position within the Cr, Cb,
	// Y0-Y3 sequence for color decode; pendingCr/pendingCb hold the two
	// chroma blocks until the matching luma block arrives.
	curOp      uint32
	seq        int
	pendingCr  []int16
	pendingCb  []int16
	tableColor bool
	tableBuf   []byte

	outBuf []byte // packed output bytes not yet popped as 32-bit words
}

// New returns a Decoder with power-on-reset state (tables zeroed until the
// host loads them via LoadQuantTable/LoadIDCTTable).
func New() *Decoder { return &Decoder{} }

// LoadQuantTables loads the 64-entry luminance table and, if color is true,
// also the following 64-entry color (chroma) table, matching MDEC's
// single-command dual-table load.
func (d *Decoder) LoadQuantTables(data []byte, color bool) {
	for i := 0; i < blockSize && i < len(data); i++ {
		d.LumaQuant[i] = data[i]
	}
	if color && len(data) >= 2*blockSize {
		for i := 0; i < blockSize; i++ {
			d.ColorQuant[i] = data[blockSize+i]
		}
	}
}

// LoadIDCTTable loads the 64 signed 16-bit IDCT scale coefficients.
func (d *Decoder) LoadIDCTTable(words []int16) {
	copy(d.IDCTScale[:], words)
}

// StatusRegister packs the MDEC status word: bit 29 command busy, bits
// 28-27 output mode, bit 26 signed, bit 25 bit-15 set (those three from
// the last decode command), bits 15-0 parameter words remaining. FIFO
// empty/full, data-in/out request and current-block bits are not reported
// and read as zero.
func (d *Decoder) StatusRegister() uint32 {
	v := uint32(0)
	if d.busy {
		v |= 1 << 29
	}
	if d.bit15Set {
		v |= 1 << 25
	}
	if d.signed {
		v |= 1 << 26
	}
	v |= uint32(d.mode) << 27
	v |= uint32(d.blockCount) & 0xFFFF
	return v
}

// DecodeCommand dispatches on a command word's top three bits: 1 = decode
// macroblock(s), 2 = set quant table, 3 = set IDCT table.
func (d *Decoder) DecodeCommand(command uint32, params []uint32) [][]int16 {
	op := command >> 29
	switch op {
	case 1:
		d.mode = OutputMode((command >> 27) & 0x3)
		d.signed = command&(1<<26) != 0
		d.bit15Set = command&(1<<25) != 0
		return d.decodeMacroblocks(params)
	case 2:
		color := command&1 != 0
		buf := make([]byte, 0, len(params)*4)
		for _, w := range params {
			buf = append(buf, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
		}
		d.LoadQuantTables(buf, color)
		return nil
	case 3:
		vals := make([]int16, 0, len(params)*2)
		for _, w := range params {
			vals = append(vals, int16(w&0xFFFF), int16(w>>16))
		}
		d.LoadIDCTTable(vals)
		return nil
	default:
		return nil
	}
}

// decodeMacroblocks consumes RLE-encoded parameter words and returns one
// decoded 8x8 block (in natural order, IDCT output before YCbCr
// conversion, for luma and chroma alike) per macroblock component,
// matching the 4:2:0 Cr/Cb/Y0-Y3 layout.
func (d *Decoder) decodeMacroblocks(params []uint32) [][]int16 {
	var blocks [][]int16
	halfwords := wordsToHalves(params)
	i := 0
	componentsPerMacroblock := 6 // Cr, Cb, Y0, Y1, Y2, Y3 (4:2:0)
	if d.mode == ModeMono4 || d.mode == ModeMono8 {
		componentsPerMacroblock = 1
	}

	for i < len(halfwords) {
		component := len(blocks) % componentsPerMacroblock
		isLuma := component >= 2 || componentsPerMacroblock == 1
		quant := d.ColorQuant
		if isLuma {
			quant = d.LumaQuant
		}

		block, consumed, ok := decodeBlock(halfwords[i:], quant, d.IDCTScale)
		if !ok {
			break
		}
		i += consumed
		blocks = append(blocks, block)
	}
	return blocks
}

func wordsToHalves(words []uint32) []uint16 {
	out := make([]uint16, 0, len(words)*2)
	for _, w := range words {
		out = append(out, uint16(w&0xFFFF), uint16(w>>16))
	}
	return out
}

// decodeBlock reads one RLE-coded block: the first halfword is (quant_scale
// << 10 | DC coefficient), subsequent halfwords are (zero_run << 10 |
// AC_coefficient) pairs terminated by the 0xFE00 end marker.
func decodeBlock(halves []uint16, quant [blockSize]uint8, idctScale [blockSize]int16) ([]int16, int, bool) {
	if len(halves) == 0 {
		return nil, 0, false
	}

	var coeffs [blockSize]int32
	dc := int32(int16(halves[0] << 6)) >> 6 // sign-extend 10-bit DC
	coeffs[0] = dc

	pos := 1
	idx := 0
	for pos < len(halves) {
		h := halves[pos]
		pos++
		if h == 0xFE00 {
			break
		}
		run := int((h >> 10) & 0x3F)
		ac := int32(int16(h<<6)) >> 6
		idx += run + 1
		if idx >= blockSize {
			break
		}
		coeffs[zigzag[idx]] = ac * int32(quant[idx]) >> 3
	}

	block := idct(coeffs, idctScale)
	return block, pos, true
}

// idct runs the separable 8x8 inverse DCT using the loaded scale table,
// matching the two-pass (rows then columns) structure of the real decoder.
func idct(coeffs [blockSize]int32, scale [blockSize]int16) []int16 {
	var scaled [8][8]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			scaled[y][x] = float64(coeffs[y*8+x]) * float64(scale[y*8+x])
		}
	}

	var tmp [8][8]float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			var sum float64
			for u := 0; u < 8; u++ {
				sum += scaled[y][u] * basis(u, x)
			}
			tmp[y][x] = sum
		}
	}

	var out [8][8]float64
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			var sum float64
			for v := 0; v < 8; v++ {
				sum += tmp[v][x] * basis(v, y)
			}
			out[y][x] = sum
		}
	}

	result := make([]int16, blockSize)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := out[y][x] / 8
			if v > 32767 {
				v = 32767
			}
			if v < -32768 {
				v = -32768
			}
			result[y*8+x] = int16(v)
		}
	}
	return result
}

func basis(freq, pos int) float64 {
	c := 1.0
	if freq == 0 {
		c = 1.0 / math.Sqrt2
	}
	return c * math.Cos(float64((2*pos+1)*freq)*math.Pi/16)
}

// YCbCrToRGB converts one pixel's Y, Cb and Cr samples to 8-bit RGB using
// the coefficients 1.402, -0.3437, -0.7143 and 1.772 in floating point,
// then adds 128 to each channel and clamps it to 0-255.
func YCbCrToRGB(y, cb, cr int16) (r, g, b uint8) {
	const (
		coeffCr2R = 1.402
		coeffCb2G = -0.3437
		coeffCr2G = -0.7143
		coeffCb2B = 1.772
	)
	yf := float64(y)
	cbf := float64(cb)
	crf := float64(cr)

	rf := yf + coeffCr2R*crf
	gf := yf + coeffCb2G*cbf + coeffCr2G*crf
	bf := yf + coeffCb2B*cbf

	return clampByte(rf + 128), clampByte(gf + 128), clampByte(bf + 128)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
