package mdec

import "fmt"

// componentsPerMacroblock returns how many 8x8 blocks make up one
// macroblock in the decoder's current output mode: one Y block for the two
// monochrome modes, or the 4:2:0 Cr, Cb, Y0-Y3 sequence for RGB15/RGB24.
func (d *Decoder) componentsPerMacroblock() int {
	if d.mode == ModeMono4 || d.mode == ModeMono8 {
		return 1
	}
	return 6
}

// WriteCommand feeds one 32-bit word of the MDEC command/data stream,
// matching both the CPU's direct writes to 0x1F80_1820 and DMA channel 0
// (MDEC-in). The first word after Reset or after a command completes is
// the command header; every word after that is parameter/block data.
func (d *Decoder) WriteCommand(word uint32) {
	if !d.busy {
		d.beginCommand(word)
		return
	}
	d.feed(word)
	d.blockCount--
	if d.blockCount <= 0 {
		d.busy = false
	}
}

func (d *Decoder) beginCommand(word uint32) {
	d.curOp = word >> 29
	d.blockCount = int(word & 0xFFFF)
	switch d.curOp {
	case 1:
		d.mode = OutputMode((word >> 27) & 0x3)
		d.signed = word&(1<<26) != 0
		d.bit15Set = word&(1<<25) != 0
		d.bitBuf = d.bitBuf[:0]
		d.pendingCr = nil
		d.pendingCb = nil
		d.seq = 0
	case 2:
		d.tableColor = word&1 != 0
		d.tableBuf = d.tableBuf[:0]
	case 3:
		d.tableBuf = d.tableBuf[:0]
	default:
		d.blockCount = 0
	}
	d.busy = d.blockCount > 0
}

func (d *Decoder) feed(word uint32) {
	switch d.curOp {
	case 1:
		d.bitBuf = append(d.bitBuf, uint16(word), uint16(word>>16))
		d.drainBlocks()
	case 2:
		d.tableBuf = append(d.tableBuf, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
		need := blockSize
		if d.tableColor {
			need = 2 * blockSize
		}
		if len(d.tableBuf) >= need {
			d.LoadQuantTables(d.tableBuf, d.tableColor)
		}
	case 3:
		d.tableBuf = append(d.tableBuf, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
		if len(d.tableBuf) >= 2*blockSize {
			vals := make([]int16, blockSize)
			for i := 0; i < blockSize; i++ {
				vals[i] = int16(uint16(d.tableBuf[2*i]) | uint16(d.tableBuf[2*i+1])<<8)
			}
			d.LoadIDCTTable(vals)
		}
	default:
		panic(fmt.Sprintf("mdec: data word fed with no command in flight (op %d)", d.curOp))
	}
}

// drainBlocks decodes as many complete 8x8 blocks as the accumulated
// halfwords allow, emitting packed output bytes per block per spec.md
// §4.5/§8's byte-count invariant (Mono4=32, Mono8=64, RGB15=128,
// RGB24=192 bytes per emitted luma block).
func (d *Decoder) drainBlocks() {
	comps := d.componentsPerMacroblock()
	for {
		quant := d.LumaQuant
		isColor := comps == 6
		component := d.seq % comps
		isLuma := !isColor || component >= 2
		if isColor && !isLuma {
			quant = d.ColorQuant
		}

		block, consumed, ok := decodeBlock(d.bitBuf, quant, d.IDCTScale)
		if !ok {
			return
		}
		d.bitBuf = d.bitBuf[consumed:]
		d.seq++

		if !isColor {
			d.emitMonoBlock(block)
			continue
		}

		switch component {
		case 0:
			d.pendingCr = block
		case 1:
			d.pendingCb = block
		default:
			// Y0..Y3: component-2 identifies the quadrant within the
			// macroblock (0=top-left, 1=top-right, 2=bottom-left,
			// 3=bottom-right), used to pick the matching half-resolution
			// chroma samples.
			d.emitColorBlock(block, component-2)
		}
	}
}

func (d *Decoder) emitMonoBlock(y []int16) {
	switch d.mode {
	case ModeMono4:
		for i := 0; i < blockSize; i += 2 {
			lo := monoSample(y[i], d.signed)
			hi := monoSample(y[i+1], d.signed)
			d.outBuf = append(d.outBuf, (hi<<4)|(lo&0xF))
		}
	case ModeMono8:
		for i := 0; i < blockSize; i++ {
			d.outBuf = append(d.outBuf, monoSample(y[i], d.signed))
		}
	default:
		// Monochrome component sequencing only applies in Mono4/Mono8.
	}
}

func monoSample(v int16, signed bool) byte {
	b := byte(v + 128)
	if signed {
		b ^= 0x80
	}
	return b
}

func (d *Decoder) emitColorBlock(y []int16, quadrant int) {
	qx, qy := 0, 0
	if quadrant&1 != 0 {
		qx = 8
	}
	if quadrant&2 != 0 {
		qy = 8
	}

	for py := 0; py < 8; py++ {
		for px := 0; px < 8; px++ {
			cx := (qx + px) / 2
			cy := (qy + py) / 2
			cb := d.pendingCb[cy*8+cx]
			cr := d.pendingCr[cy*8+cx]
			r, g, b := YCbCrToRGB(y[py*8+px], cb, cr)
			d.appendPixel(r, g, b)
		}
	}
}

func (d *Decoder) appendPixel(r, g, b uint8) {
	switch d.mode {
	case ModeRGB24:
		d.outBuf = append(d.outBuf, r, g, b)
	case ModeRGB15:
		v := uint16(r>>3) | uint16(g>>3)<<5 | uint16(b>>3)<<10
		if d.bit15Set {
			v |= 1 << 15
		}
		d.outBuf = append(d.outBuf, byte(v), byte(v>>8))
	}
}

// PendingOutputBytes reports how many undelivered output bytes are
// currently buffered, used by tests asserting the per-block byte-count
// invariant.
func (d *Decoder) PendingOutputBytes() int { return len(d.outBuf) }

// PopOutput removes and returns the next 32-bit output word (little-endian
// byte order), implementing both the CPU-facing data-out port and DMA
// channel 1 (MDEC-out). Panics if called with fewer than 4 bytes buffered,
// matching spec.md §7's "missing input data mid-block is fatal" policy
// applied symmetrically to output underflow.
func (d *Decoder) PopOutput() (uint32, int) {
	if len(d.outBuf) < 4 {
		panic("mdec: output FIFO underflow (read past decoded data)")
	}
	w := uint32(d.outBuf[0]) | uint32(d.outBuf[1])<<8 | uint32(d.outBuf[2])<<16 | uint32(d.outBuf[3])<<24
	d.outBuf = d.outBuf[4:]
	return w, 8
}

// Reset flushes all FIFOs and in-flight command state, matching GP1(00h)'s
// MDEC-side equivalent (the command register's reset bit).
func (d *Decoder) Reset() {
	d.busy = false
	d.bitBuf = nil
	d.outBuf = nil
	d.tableBuf = nil
	d.pendingCr = nil
	d.pendingCb = nil
	d.seq = 0
	d.blockCount = 0
}
