package dma

// OTCGenerator is the channel-6 pseudo-device: it never touches real RAM
// contents on its own, it only answers the DMA engine's ReadWord calls with
// the synthetic reverse-linked-list pattern used to build an empty ordering
// table. Grounded on spec.md §4.3's OTC description: "the generator answers
// each ReadWord with the address of the previous entry, and the final entry
// with 0x00FFFFFF."
type OTCGenerator struct {
	engine *Engine
}

// NewOTCGenerator returns a Device for channel 6. It needs no state of its
// own beyond the channel's currentAddr/currentWords, which the engine
// already tracks; it derives the terminator purely from currentWords.
func NewOTCGenerator(e *Engine) *OTCGenerator {
	return &OTCGenerator{engine: e}
}

// ReadWord is called once per transferred word, before the caller
// decrements c.currentWords, so the generator inspects the engine's own
// channel state and treats currentWords == 1 as the last entry.
func (o *OTCGenerator) ReadWord() (uint32, int) {
	c := o.engine.Channel(PortOTC)
	if c.currentWords == 1 {
		return 0x00FFFFFF, 1
	}
	return (c.currentAddr - 4) & 0x00FFFFFF, 1
}

// WriteWord is never called: the OTC generator is ToRAM only.
func (o *OTCGenerator) WriteWord(uint32) int { return 1 }
