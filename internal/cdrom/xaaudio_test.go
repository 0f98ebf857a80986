package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeMap_ApplyStereoIdentityPassesThrough(t *testing.T) {
	v := volumeMap{leftToLeft: 127, rightToRight: 127}
	l, r := v.applyStereo(1000, -1000)
	assert.InDelta(t, 1000, int32(l), 8)
	assert.InDelta(t, -1000, int32(r), 8)
}

func TestVolumeMap_ApplyMonoMixesBothChannelsIntoEach(t *testing.T) {
	v := volumeMap{leftToLeft: 64, rightToRight: 64}
	l, r := v.applyMono(1000)
	assert.Greater(t, l, int16(0))
	assert.Greater(t, r, int16(0))
}

func TestApplyChanges_CommitsStagingVolumeOnBit5(t *testing.T) {
	var x xaAudio
	x.setLeftToLeft(100)
	assert.Equal(t, int8(0), x.currentVol.leftToLeft, "staged volume must not apply until committed")

	x.applyChanges(1 << 5)
	assert.Equal(t, int8(100), x.currentVol.leftToLeft)
}

func TestApplyChanges_MuteBitTracked(t *testing.T) {
	var x xaAudio
	x.applyChanges(1)
	assert.True(t, x.mute)
	x.applyChanges(0)
	assert.False(t, x.mute)
}

func TestFilters_SetAndGetRoundTrip(t *testing.T) {
	var x xaAudio
	x.setFilters(3, 7)
	file, channel := x.getFilters()
	assert.Equal(t, byte(3), file)
	assert.Equal(t, byte(7), channel)
	assert.True(t, x.testFilter(3, 7))
	assert.False(t, x.testFilter(3, 8))
}

func TestWriteCDAudioSector_ProducesResampledOutputAndMarksReady(t *testing.T) {
	var x xaAudio
	x.currentVol = volumeMap{leftToLeft: 127, rightToRight: 127}
	buf := make([]byte, 4*6)
	for i := 0; i < len(buf); i += 4 {
		buf[i] = 0x00
		buf[i+1] = 0x10 // left = 0x1000
		buf[i+2] = 0x00
		buf[i+3] = 0x20 // right = 0x2000
	}
	x.writeCDAudioSector(buf)

	samples := x.FetchDecodedAudio()
	assert.NotEmpty(t, samples)
	assert.Nil(t, x.FetchDecodedAudio(), "a second fetch before the next sector should return nothing")
}

func TestDecode8BitSamples_PanicsAsUndocumented(t *testing.T) {
	var x xaAudio
	assert.Panics(t, func() { x.decode8BitSamples(nil, false) })
}

func TestResampleAudio_LowSampleRatePanicsAsUndocumented(t *testing.T) {
	var x xaAudio
	assert.Panics(t, func() { x.resampleAudio(true) })
}

func TestClamp16_SaturatesBothDirections(t *testing.T) {
	assert.Equal(t, int16(0x7FFF), clamp16(100000))
	assert.Equal(t, int16(-0x8000), clamp16(-100000))
}
