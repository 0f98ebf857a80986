package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaise_SetsPendingBitForSource(t *testing.T) {
	c := New()
	c.Raise(DMA)
	assert.Equal(t, uint32(1<<DMA), c.ReadPending())
}

func TestActive_RequiresBothPendingAndMask(t *testing.T) {
	c := New()
	c.Raise(Timer1)
	assert.False(t, c.Active(), "unmasked pending bit must not report active")

	c.WriteMask(1 << Timer1)
	assert.True(t, c.Active())
}

func TestWritePending_ClearsOnlyAcknowledgedBits(t *testing.T) {
	c := New()
	c.Raise(VBlank)
	c.Raise(CDROM)

	c.WritePending(^uint32(1 << VBlank)) // ack VBlank, leave CDROM set
	assert.Zero(t, c.ReadPending()&(1<<VBlank))
	assert.NotZero(t, c.ReadPending()&(1<<CDROM))
}

func TestWriteMask_ClampsToElevenBits(t *testing.T) {
	c := New()
	c.WriteMask(0xFFFFFFFF)
	assert.Equal(t, uint32(0x7FF), c.ReadMask())
}

func TestAcknowledge_ClearsSingleSource(t *testing.T) {
	c := New()
	c.Raise(SPU)
	c.Raise(DMA)
	c.Acknowledge(SPU)

	assert.Zero(t, c.ReadPending()&(1<<SPU))
	assert.NotZero(t, c.ReadPending()&(1<<DMA))
}
