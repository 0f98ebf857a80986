package spu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdsrEnvelope_InitStartsAttackAtZero(t *testing.T) {
	var e adsrEnvelope
	e.init()
	assert.Equal(t, adsrAttack, e.state)
	assert.Equal(t, int16(0), e.level)
}

func TestAdsrEnvelope_AttackRampsTowardDecay(t *testing.T) {
	var e adsrEnvelope
	e.init()
	for i := 0; i < 10 && e.state == adsrAttack; i++ {
		e.step()
	}
	assert.NotEqual(t, adsrAttack, e.state, "envelope should leave attack after enough ticks with shift=0")
}

func TestAdsrEnvelope_SettlesInSustainAtSustainLevel(t *testing.T) {
	var e adsrEnvelope
	e.writeHi(0x1F00) // sustain shift 31: no sustain step within these 50 ticks
	e.init()
	for i := 0; i < 50; i++ {
		e.step()
	}
	assert.Equal(t, adsrSustain, e.state)
	assert.Equal(t, e.sustainLevel(), e.level)
}

func TestAdsrEnvelope_ReleaseDrivesLevelToZero(t *testing.T) {
	var e adsrEnvelope
	e.init()
	for i := 0; i < 50; i++ {
		e.step()
	}
	e.release()
	assert.Equal(t, adsrRelease, e.state)
	for i := 0; i < 5; i++ {
		e.step()
	}
	assert.Equal(t, int16(0), e.level)
}

func TestAdsrEnvelope_EndForcesZeroImmediately(t *testing.T) {
	var e adsrEnvelope
	e.init()
	e.step()
	e.end()
	assert.Equal(t, adsrRelease, e.state)
	assert.Equal(t, int16(0), e.level)
}

func TestAdsrEnvelope_LoHiRoundTrip(t *testing.T) {
	var e adsrEnvelope
	e.writeLo(0x1234)
	e.writeHi(0x5678)
	assert.Equal(t, uint16(0x1234), e.readLo())
	assert.Equal(t, uint16(0x5678), e.readHi())
}

func TestAdsrEnvelope_SustainLevelField(t *testing.T) {
	var e adsrEnvelope
	e.writeLo(0xF) // sustain level field = 0xF -> (0xF+1)*0x800 = 0x8000, clamped to 0x7FFF
	assert.Equal(t, int16(0x7FFF), e.sustainLevel())
}
