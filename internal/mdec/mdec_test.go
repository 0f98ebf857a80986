package mdec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// trivialBlockWord is one 32-bit command-stream word carrying a block whose
// only content is a zero DC coefficient immediately followed by the 0xFE00
// end-of-block marker: the minimal well-formed RLE block, decoding to a
// flat (all-zero) 8x8 block regardless of the loaded quant/IDCT tables.
const trivialBlockWord = 0xFE000000

func decodeCommandHeader(mode OutputMode, blockWords int) uint32 {
	return (1 << 29) | uint32(mode)<<27 | uint32(blockWords)&0xFFFF
}

// TestMono8Block_EmitsExactly64Bytes exercises the per-block output byte
// count spec.md ties to the MDEC FIFO: 64 bytes for one 8-bit monochrome
// block.
func TestMono8Block_EmitsExactly64Bytes(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeMono8, 1))
	d.WriteCommand(trivialBlockWord)

	assert.Equal(t, 64, d.PendingOutputBytes())
}

// TestMono4Block_EmitsExactly32Bytes covers the 4-bit packed variant: two
// samples per output byte halves the count.
func TestMono4Block_EmitsExactly32Bytes(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeMono4, 1))
	d.WriteCommand(trivialBlockWord)

	assert.Equal(t, 32, d.PendingOutputBytes())
}

// TestRGB15ColorBlock_EmitsExactly128BytesPerLumaBlock feeds the Cr, Cb,
// and first luma block of a 4:2:0 macroblock; only the luma block actually
// appends output (chroma blocks are buffered, not emitted), and it must
// produce 128 bytes (64 pixels x 2 bytes) once combined with the buffered
// chroma.
func TestRGB15ColorBlock_EmitsExactly128BytesPerLumaBlock(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeRGB15, 3))
	d.WriteCommand(trivialBlockWord) // Cr
	d.WriteCommand(trivialBlockWord) // Cb
	d.WriteCommand(trivialBlockWord) // Y0

	assert.Equal(t, 128, d.PendingOutputBytes())
	assert.False(t, d.busy, "command completes after its declared word count")
}

// TestRGB24ColorBlock_EmitsExactly192BytesPerLumaBlock is RGB15's 3-
// bytes-per-pixel sibling.
func TestRGB24ColorBlock_EmitsExactly192BytesPerLumaBlock(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeRGB24, 3))
	d.WriteCommand(trivialBlockWord) // Cr
	d.WriteCommand(trivialBlockWord) // Cb
	d.WriteCommand(trivialBlockWord) // Y0

	assert.Equal(t, 192, d.PendingOutputBytes())
}

func TestPopOutput_ReturnsWordsInOrderAndDrainsBuffer(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeMono8, 1))
	d.WriteCommand(trivialBlockWord)

	for i := 0; i < 16; i++ {
		_, cycles := d.PopOutput()
		assert.Equal(t, 8, cycles)
	}
	assert.Equal(t, 0, d.PendingOutputBytes())
}

func TestPopOutput_PanicsOnUnderflow(t *testing.T) {
	d := New()
	assert.Panics(t, func() { d.PopOutput() })
}

func TestLoadQuantTables_SplitsLumaAndColorHalves(t *testing.T) {
	d := New()
	data := make([]byte, 2*blockSize)
	for i := range data {
		data[i] = byte(i)
	}
	d.LoadQuantTables(data, true)

	assert.Equal(t, uint8(0), d.LumaQuant[0])
	assert.Equal(t, uint8(blockSize), d.ColorQuant[0])
}

func TestYCbCrToRGB_ZeroChromaIsGrayscale(t *testing.T) {
	r, g, b := YCbCrToRGB(0, 0, 0)
	assert.Equal(t, uint8(128), r)
	assert.Equal(t, uint8(128), g)
	assert.Equal(t, uint8(128), b)
}

func TestStatusRegister_ReportsBusyAndRemainingWords(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeMono8, 2))
	status := d.StatusRegister()
	assert.NotZero(t, status&(1<<29), "command with undelivered body words must report busy")
	assert.Equal(t, uint32(2), status&0xFFFF)
}

func TestReset_ClearsInFlightStateAndFIFOs(t *testing.T) {
	d := New()
	d.WriteCommand(decodeCommandHeader(ModeMono8, 1))
	d.WriteCommand(trivialBlockWord)
	d.Reset()

	assert.Equal(t, 0, d.PendingOutputBytes())
	assert.False(t, d.busy)
}
