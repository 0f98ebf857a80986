package mdec

// InPort adapts the decoder's command/data stream to dma.Device for DMA
// channel 0 (MDEC-in): the engine's FromRAM words feed WriteCommand in
// sequence. MDEC-in is a write-only DMA port on real hardware.
type InPort struct{ d *Decoder }

// NewInPort wraps d for channel 0.
func NewInPort(d *Decoder) *InPort { return &InPort{d: d} }

func (p *InPort) WriteWord(word uint32) int {
	p.d.WriteCommand(word)
	return 8
}

func (p *InPort) ReadWord() (uint32, int) {
	panic("mdec: DMA read from write-only MDEC-in port")
}

// OutPort adapts the decoder's output FIFO to dma.Device for DMA channel 1
// (MDEC-out), a read-only DMA port on real hardware.
type OutPort struct{ d *Decoder }

// NewOutPort wraps d for channel 1.
func NewOutPort(d *Decoder) *OutPort { return &OutPort{d: d} }

func (p *OutPort) ReadWord() (uint32, int) { return p.d.PopOutput() }

func (p *OutPort) WriteWord(uint32) int {
	panic("mdec: DMA write to read-only MDEC-out port")
}
