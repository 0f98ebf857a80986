package gte

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func identity() Matrix3 {
	return Matrix3{{4096, 0, 0}, {0, 4096, 0}, {0, 0, 4096}}
}

// TestRTPS_IdentityTransformPassesVertexThrough checks that an identity
// rotation with zero translation and a projection plane at the vertex's
// depth reproduces the vertex's X/Y in screen space and its Z in
// the SZ FIFO unchanged, the simplest possible end-to-end perspective
// projection check.
func TestRTPS_IdentityTransformPassesVertexThrough(t *testing.T) {
	g := New()
	g.Rotation = identity()
	g.V[0] = Vec3{X: 256, Y: 128, Z: 1024}
	g.H = 1024

	g.RTPS()

	assert.Equal(t, uint16(1024), g.SZ[3])
	assert.Equal(t, int16(256), g.SXY[2][0])
	assert.Equal(t, int16(128), g.SXY[2][1])
	assert.Zero(t, g.Flag&FlagErrorMask, "well-formed identity projection should not saturate any register")
}

func TestRTPS_DivideByZeroSZLatchesOverflowAndSaturatesDivider(t *testing.T) {
	g := New()
	g.Rotation = identity()
	g.V[0] = Vec3{X: 10, Y: 10, Z: 0}
	g.H = 512

	g.RTPS()

	assert.NotZero(t, g.Flag&FlagDivOverflow)
}

func TestRTPT_OnlyLastVertexUpdatesMAC0IR0(t *testing.T) {
	g := New()
	g.Rotation = identity()
	g.V[0] = Vec3{X: 10, Y: 10, Z: 100}
	g.V[1] = Vec3{X: 20, Y: 20, Z: 100}
	g.V[2] = Vec3{X: 30, Y: 30, Z: 100}
	g.H = 50
	g.DQA = 1
	g.DQB = 0

	g.RTPT()

	assert.NotZero(t, g.SXY[2][0], "third vertex's transform should have run")
}

func TestNCLIP_SignIndicatesWinding(t *testing.T) {
	g := New()
	g.SXY[0] = [2]int16{0, 0}
	g.SXY[1] = [2]int16{10, 0}
	g.SXY[2] = [2]int16{0, 10}
	g.NCLIP()
	assert.Positive(t, g.MAC0, "counter-clockwise triangle yields a positive cross product")

	g.SXY[1], g.SXY[2] = g.SXY[2], g.SXY[1]
	g.NCLIP()
	assert.Negative(t, g.MAC0, "reversing two vertices flips winding sign")
}

func TestAVSZ3_AveragesLastThreeSZEntriesByZSF3(t *testing.T) {
	g := New()
	g.SZ = [4]uint16{0, 100, 200, 300}
	g.ZSF3 = 4096 // Q12 1.0
	g.AVSZ3()
	assert.Equal(t, uint16(600), g.OTZ)
}

func TestWriteLZCS_CountsLeadingZerosOfSignExtendedValue(t *testing.T) {
	g := New()
	g.WriteLZCS(0x0000FFFF)
	assert.Equal(t, uint32(16), g.LZCR)

	g.WriteLZCS(0)
	assert.Equal(t, uint32(32), g.LZCR)

	g.WriteLZCS(0xFFFFFFFF) // all-ones: sign-extended negative, complement is 0
	assert.Equal(t, uint32(32), g.LZCR)

	g.WriteLZCS(0x80000000) // negative, complement is 0x7FFFFFFF (1 leading zero)
	assert.Equal(t, uint32(1), g.LZCR)
}
