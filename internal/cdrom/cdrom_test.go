package cdrom

import (
	"testing"

	"github.com/jsbaxter/stationcore/internal/disc"
	"github.com/stretchr/testify/assert"
)

func TestNew_StartsWithEmptyParamFIFO(t *testing.T) {
	d := New()
	assert.NotZero(t, d.status&statusParamFIFOEmpty)
	assert.NotZero(t, d.status&statusParamFIFONotFull)
}

func TestInsertDisc_SetsShellOpen(t *testing.T) {
	d := New()
	img := &disc.MemImage{Sectors: make([][]byte, 1), Tracks: []disc.DriveLoc{disc.NewDriveLoc(0, 2, 0)}}
	d.InsertDisc(img)
	assert.NotZero(t, d.driveStatus&dsShellOpen)
}

func TestWriteCommand_LatchesBusyAndStartsCounter(t *testing.T) {
	d := New()
	d.WriteByte(1, 0x01) // index 0, command register: GetStat
	assert.NotZero(t, d.status&statusBusy)
	assert.Equal(t, commandCycles, d.counter)
}

func TestClock_RunsLatchedCommandAndPostsResponse(t *testing.T) {
	d := New()
	d.WriteByte(1, 0x01) // GetStat
	d.Clock(commandCycles)

	assert.NotZero(t, d.status&statusResFIFONotEmpty)
	resp := d.ReadByte(1)
	assert.Equal(t, byte(d.driveStatus), resp)
	assert.Zero(t, d.status&statusResFIFONotEmpty, "response FIFO should drain after reading its only byte")
}

func TestWriteParameter_FillsFIFOAndClearsEmptyFlag(t *testing.T) {
	d := New()
	d.WriteByte(2, 0x12) // index 0, parameter register
	assert.Zero(t, d.status&statusParamFIFOEmpty)
	assert.Equal(t, []byte{0x12}, d.paramFIFO)
}

func TestReadParameter_MissingParamSignalsError(t *testing.T) {
	d := New()
	_, err := d.readParameter()
	assert.Equal(t, errMissingParam, err)
	assert.NotZero(t, d.driveStatus&dsError)
}

func TestSetLoc_StagesPendingSeek(t *testing.T) {
	d := New()
	d.paramFIFO = []byte{disc.ToBCD(1), disc.ToBCD(2), disc.ToBCD(3)}
	err := d.setLoc()

	assert.NoError(t, err)
	assert.NotNil(t, d.pendingSeek)
	assert.Equal(t, disc.ToBCD(1), d.pendingSeek.Minute)
	assert.Equal(t, disc.ToBCD(2), d.pendingSeek.Second)
	assert.Equal(t, disc.ToBCD(3), d.pendingSeek.Sector)
}

func TestPlay_WhileAlreadyPlayingJustResendsStatus(t *testing.T) {
	d := New()
	d.playing = true
	d.driveStatus |= dsPlaying

	err := d.play()

	assert.NoError(t, err)
	assert.True(t, d.playing, "re-issuing play while already playing must not restart the seek/read cadence")
	assert.NotZero(t, d.driveStatus&dsPlaying)
}

func TestGetTN_WithoutDiscReportsOneTrack(t *testing.T) {
	d := New()
	err := d.getTN()
	assert.NoError(t, err)
	assert.Equal(t, []byte{byte(d.driveStatus), disc.ToBCD(1), disc.ToBCD(1)}, d.responseFIFO)
}

func TestGetID_NoDiscReportsErrorPayload(t *testing.T) {
	d := New()
	err := d.getID() // first call: just posts status and arms the second response
	assert.NoError(t, err)
	assert.Equal(t, 1, d.responseCount)

	err = d.getID() // second call: responseCount != 0, so the full ID payload follows
	assert.NoError(t, err)
	assert.Equal(t, byte(0x08), d.responseFIFO[len(d.responseFIFO)-8])
}

func TestDMAReadWord_PacksFourDataBytesLittleEndian(t *testing.T) {
	d := New()
	img := &disc.MemImage{
		Sectors: [][]byte{make([]byte, disc.SectorSize)},
		Tracks:  []disc.DriveLoc{disc.NewDriveLoc(0, 2, 0)},
	}
	copy(img.Sectors[0][sectorHeader:], []byte{0x11, 0x22, 0x33, 0x44})
	d.InsertDisc(img)
	copy(d.sectorBuf[:], img.Sectors[0])
	d.sectorCursor = sectorHeader
	d.dataFIFOSize = 4

	word, cycles := d.ReadWord()
	assert.Equal(t, uint32(0x44332211), word)
	assert.Equal(t, 8, cycles)
}

func TestDMAWriteWord_PanicsOnReadOnlyPort(t *testing.T) {
	d := New()
	assert.Panics(t, func() { d.WriteWord(0) })
}

func TestSetIntFlags_ClearingResetsParamFIFOOnAckBit(t *testing.T) {
	d := New()
	d.paramFIFO = []byte{0x01, 0x02}
	d.status &^= statusParamFIFOEmpty
	d.setIntFlags(1 << 6)

	assert.Len(t, d.paramFIFO, 0)
	assert.NotZero(t, d.status&statusParamFIFOEmpty)
	assert.False(t, d.irqLatched)
}
