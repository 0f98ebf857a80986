package spu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSweepVolume_VolAlwaysReturnsFixedMax(t *testing.T) {
	var v sweepVolume
	l, r := v.vol()
	assert.Equal(t, int16(0x7FFF), l)
	assert.Equal(t, int16(0x7FFF), r)

	// Even after configuring an active sweep, vol() still returns the fixed
	// pair: this is a deliberately preserved quirk, not a bug to fix.
	v.setLeft(uint16(sweepBit | sweepDirBit))
	v.setRight(uint16(sweepBit | sweepPhaseBit))
	l, r = v.vol()
	assert.Equal(t, int16(0x7FFF), l)
	assert.Equal(t, int16(0x7FFF), r)
}

func TestSweepVolume_SetLeftRightStoreRawRegister(t *testing.T) {
	var v sweepVolume
	v.setLeft(0x1234)
	v.setRight(0x5678)
	assert.Equal(t, int16(0x1234), v.left)
	assert.Equal(t, int16(0x5678), v.right)
}

func TestSweepSettings_StartVolDependsOnDirectionAndPhase(t *testing.T) {
	fixed := sweepSettings(0)
	assert.Equal(t, int16(0), fixed.startVol())

	decreasing := sweepSettings(sweepDirBit)
	assert.Equal(t, int16(0x7FFF), decreasing.startVol())

	decreasingInverted := sweepSettings(sweepDirBit | sweepPhaseBit)
	assert.Equal(t, int16(-0x7FFF), decreasingInverted.startVol())
}

func TestSweepSettings_StepValueSignMatchesDirection(t *testing.T) {
	positive := sweepSettings(0)
	assert.Equal(t, int16(7), positive.stepValue())

	negative := sweepSettings(sweepDirBit)
	assert.Equal(t, int16(-8), negative.stepValue())
}
