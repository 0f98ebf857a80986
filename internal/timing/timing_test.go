package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetFPS_DerivesFromClockConstants(t *testing.T) {
	want := float64(CPUClockHz) / float64(CyclesPerFrameNTSC)
	assert.InDelta(t, want, TargetFPS(), 1e-9)
}

func TestFrameDuration_MatchesTargetFPS(t *testing.T) {
	d := FrameDuration()
	assert.InDelta(t, 1.0/TargetFPS(), d.Seconds(), 1e-9)
}

func TestNoOpLimiter_NeverBlocks(t *testing.T) {
	l := NewNoOpLimiter()
	done := make(chan struct{})
	go func() {
		l.WaitForNextFrame()
		l.Reset()
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done
}
