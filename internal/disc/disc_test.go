package disc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBCD_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 99).Draw(rt, "n")
		assert.Equal(t, n, FromBCD(ToBCD(n)))
	})
}

func TestDriveLoc_LBARoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lba := rapid.IntRange(0, 60*60*SectorsPerSecond).Draw(rt, "lba")
		assert.Equal(t, lba, FromLBA(lba).LBA())
	})
}

func TestDriveLoc_NextRollsSectorIntoSecondIntoMinute(t *testing.T) {
	loc := NewDriveLoc(0, 0, SectorsPerSecond-1)
	next := loc.Next()
	assert.Equal(t, NewDriveLoc(0, 1, 0), next)

	loc = NewDriveLoc(0, 59, SectorsPerSecond-1)
	next = loc.Next()
	assert.Equal(t, NewDriveLoc(1, 0, 0), next)
}

func TestLBA_MatchesRedBookLeadInOffset(t *testing.T) {
	loc := NewDriveLoc(0, 2, 0)
	assert.Equal(t, 0, loc.LBA())
}

func TestMemImage_ReadSectorOutOfRange(t *testing.T) {
	img := &MemImage{Sectors: make([][]byte, 1)}
	err := img.ReadSector(FromLBA(5), make([]byte, SectorSize))
	assert.Error(t, err)
}

func TestMemImage_TrackStartAndLeadOut(t *testing.T) {
	img := &MemImage{
		Sectors: make([][]byte, 100),
		Tracks:  []DriveLoc{NewDriveLoc(0, 2, 0)},
	}
	start, err := img.TrackStart(1)
	assert.NoError(t, err)
	assert.Equal(t, NewDriveLoc(0, 2, 0), start)

	_, err = img.TrackStart(2)
	assert.Error(t, err)

	assert.Equal(t, FromLBA(100), img.LeadOut())
}
