package dma

// PIODevice is channel 5's pseudo-device: the parallel I/O/expansion port.
// No common software drives it; it stands in for unpopulated expansion
// hardware: reads return all-ones (unlike the bus's Expansion 1 region,
// which reads 0) and writes are discarded.
type PIODevice struct{}

// NewPIODevice returns the channel-5 stand-in device.
func NewPIODevice() *PIODevice { return &PIODevice{} }

func (PIODevice) ReadWord() (uint32, int) { return 0xFFFFFFFF, 1 }
func (PIODevice) WriteWord(uint32) int    { return 1 }
