// Package cdrom implements the CD-ROM subsystem: the byte-wide indexed
// register file, the command FIFO/counter state machine, the sector read
// cadence, and the drive-status/error model. Structurally grounded on
// phase/src/cdrom/mod.rs's CDROM struct and command dispatch table, fitted
// to the timer/DMA RequestIRQ callback idiom used across this codebase
// (timer.Timer, dma.Engine) instead of the Rust source's return-an-Interrupt
// style. XA-ADPCM decode lives in xaaudio.go.
package cdrom

import (
	"fmt"

	"github.com/jsbaxter/stationcore/internal/disc"
)

const (
	sectorSyncBytes = 12
	sectorHeader    = 24
	sectorDataSize  = 2048

	commandCycles = 24000
	readCycles    = 451584
	seekCycles    = 300000
)

// Status is the byte-wide status register at 0x1F80_1800.
type status uint8

const (
	statusBusy             status = 1 << 7
	statusDataFIFONotEmpty status = 1 << 6
	statusResFIFONotEmpty  status = 1 << 5
	statusParamFIFONotFull status = 1 << 4
	statusParamFIFOEmpty   status = 1 << 3
	statusADPBusy          status = 1 << 2
	statusPortIndex        status = 0x3
)

// driveStatus is the drive-status byte most command responses echo back.
type driveStatus uint8

const (
	dsPlaying      driveStatus = 1 << 7
	dsSeeking      driveStatus = 1 << 6
	dsReading      driveStatus = 1 << 5
	dsShellOpen    driveStatus = 1 << 4
	dsIDError      driveStatus = 1 << 3
	dsSeekError    driveStatus = 1 << 2
	dsSpindleMotor driveStatus = 1 << 1
	dsError        driveStatus = 1 << 0

	dsReadBits = dsPlaying | dsSeeking | dsReading
)

// driveError is the payload byte sent alongside interrupt code 5.
type driveError uint8

const (
	errCantRespondYet driveError = 1 << 7
	errInvalidCmd     driveError = 1 << 6
	errMissingParam   driveError = 1 << 5
	errInvalidParam   driveError = 1 << 4
	errDriveOpen      driveError = 1 << 3
	errSeekFailed     driveError = 1 << 2
)

// driveMode is the mode byte set by command 0x0E (SetMode).
type driveMode uint8

const (
	modeSpeed      driveMode = 1 << 7
	modeXAADPCM    driveMode = 1 << 6
	modeSectorSize driveMode = 1 << 5
	modeIgnoreBit  driveMode = 1 << 4
	modeXAFilter   driveMode = 1 << 3
	modeReport     driveMode = 1 << 2
	modeAutoPause  driveMode = 1 << 1
	modeCDDA       driveMode = 1 << 0
)

// submode is the CD-XA sector sub-header's submode byte.
type submode uint8

const (
	submodeEOF      submode = 1 << 7
	submodeRealTime submode = 1 << 6
	submodeForm2    submode = 1 << 5
	submodeTrigger  submode = 1 << 4
	submodeData     submode = 1 << 3
	submodeAudio    submode = 1 << 2
	submodeVideo    submode = 1 << 1
	submodeEOR      submode = 1 << 0
)

type sectorHeaderInfo struct {
	minute, second, sector byte // BCD
	mode                   byte
	file, channel          byte
	submode                submode
	coding                 codingInfo
}

// Drive is the CD-ROM command/state machine and register file.
type Drive struct {
	disc       disc.Image
	currentLoc disc.DriveLoc

	status     status
	intEnable  uint8
	intFlags   uint8
	request    uint8
	irqLatched bool

	xa xaAudio

	paramFIFO    []byte
	responseFIFO []byte

	driveStatus    driveStatus
	mode           driveMode
	pendingSeek    *disc.DriveLoc
	seeking        bool
	playing        bool
	readDataCycles int
	currentHeader  sectorHeaderInfo

	counter       int
	command       byte
	responseCount int
	dataFIFOSize  int
	sectorBuf     [disc.SectorSize]byte
	sectorCursor  int

	// RequestIRQ is invoked once per rising edge of (int_enable & int_flags),
	// matching the timer/DMA RequestIRQ callback convention.
	RequestIRQ func()
}

// New creates a drive with no disc inserted.
func New() *Drive {
	d := &Drive{
		status: statusParamFIFOEmpty | statusParamFIFONotFull,
	}
	return d
}

// InsertDisc mounts (or, if img is nil, ejects) a disc image. A non-nil
// insertion always opens the shell-open status bit, matching the original
// source's insert_disc, until the next GetStat clears it.
func (d *Drive) InsertDisc(img disc.Image) {
	d.driveStatus |= dsShellOpen
	d.disc = img
}

// Clock advances the command counter and sector-read cadence by cycles.
func (d *Drive) Clock(cycles int) {
	if d.counter > 0 {
		d.counter -= cycles
		if d.counter <= 0 {
			d.counter = 0
			d.execCommand()
		}
	}
	if d.readDataCycles > 0 {
		d.readDataCycles -= cycles
		if d.readDataCycles <= 0 {
			d.readDataCycles = 0
			if d.seeking {
				d.driveStatus &^= dsReadBits
				if d.playing {
					d.driveStatus |= dsPlaying
				} else {
					d.driveStatus |= dsReading
				}
				d.readDataCycles = d.readCyclesForMode()
				d.seeking = false
			} else if d.readSector() {
				d.sendResponse(byte(d.driveStatus), 1)
			}
			d.status &^= statusADPBusy
		}
	}
	d.checkIRQ()
}

// FetchDecodedAudio returns newly decoded CD audio samples for the SPU's CD
// input mixing stage (spec.md §4.7 step 2), if a sector finished decoding
// since the last call.
func (d *Drive) FetchDecodedAudio() [][2]int16 { return d.xa.FetchDecodedAudio() }

// checkIRQ reports and clears a pending edge, then invokes RequestIRQ if
// armed. Called once per tick, at the end of Clock.
func (d *Drive) checkIRQ() {
	if d.irqLatched {
		d.irqLatched = false
		if d.RequestIRQ != nil {
			d.RequestIRQ()
		}
	}
}

func (d *Drive) readCyclesForMode() int {
	if d.mode&modeSpeed != 0 {
		return readCycles / 2
	}
	return readCycles
}

// --- register file ---

func (d *Drive) index() uint8 { return uint8(d.status & statusPortIndex) }

func (d *Drive) ReadByte(addr uint32) byte {
	switch addr & 0xF {
	case 0:
		return byte(d.status)
	case 1:
		return d.readResponse()
	case 2:
		return d.readData()
	case 3:
		switch d.index() {
		case 0, 2:
			return d.intEnable
		case 1, 3:
			return d.intFlags
		}
	}
	panic(fmt.Sprintf("cdrom: invalid read at offset %d.%d", addr&0xF, d.index()))
}

func (d *Drive) WriteByte(addr uint32, v byte) {
	switch addr & 0xF {
	case 0:
		d.writeStatus(v)
		return
	case 1:
		switch d.index() {
		case 0:
			d.writeCommand(v)
			return
		case 1:
			d.xa.writeData(v)
			return
		case 2:
			d.xa.setSoundMapInfo(v)
			return
		case 3:
			d.xa.setRightToRight(v)
			return
		}
	case 2:
		switch d.index() {
		case 0:
			d.writeParameter(v)
			return
		case 1:
			d.setIntEnable(v)
			return
		case 2:
			d.xa.setLeftToLeft(v)
			return
		case 3:
			d.xa.setRightToLeft(v)
			return
		}
	case 3:
		switch d.index() {
		case 0:
			d.request = v
			return
		case 1:
			d.setIntFlags(v)
			return
		case 2:
			d.xa.setLeftToRight(v)
			return
		case 3:
			d.xa.applyChanges(v)
			return
		}
	}
	panic(fmt.Sprintf("cdrom: invalid write at offset %d.%d", addr&0xF, d.index()))
}

func (d *Drive) writeStatus(v byte) {
	d.status &^= statusPortIndex
	d.status |= status(v) & statusPortIndex
}

func (d *Drive) writeCommand(v byte) {
	d.counter = commandCycles
	d.responseCount = 0
	d.command = v
	d.status |= statusBusy
}

func (d *Drive) writeParameter(v byte) {
	if len(d.paramFIFO) >= 16 {
		panic("cdrom: parameter FIFO overflow")
	}
	d.paramFIFO = append(d.paramFIFO, v)
	d.status &^= statusParamFIFOEmpty
	if len(d.paramFIFO) >= 16 {
		d.status &^= statusParamFIFONotFull
	}
}

func (d *Drive) readParameter() (byte, error) {
	if len(d.paramFIFO) == 0 {
		d.driveStatus |= dsError
		return 0, errMissingParam
	}
	p := d.paramFIFO[0]
	d.paramFIFO = d.paramFIFO[1:]
	if len(d.paramFIFO) == 0 {
		d.status |= statusParamFIFOEmpty
	}
	if len(d.paramFIFO) < 16 {
		d.status |= statusParamFIFONotFull
	}
	return p, nil
}

func (d *Drive) setIntEnable(v byte) {
	d.intEnable = v
	if d.intEnable&d.intFlags&0x1F != 0 {
		d.irqLatched = true
	}
}

func (d *Drive) setIntFlags(v byte) {
	if v&(1<<6) != 0 {
		d.paramFIFO = d.paramFIFO[:0]
		d.status |= statusParamFIFOEmpty | statusParamFIFONotFull
	}
	d.intFlags &^= v
	d.irqLatched = false
}

func (d *Drive) readResponse() byte {
	if len(d.responseFIFO) == 0 {
		return 0
	}
	r := d.responseFIFO[0]
	d.responseFIFO = d.responseFIFO[1:]
	if len(d.responseFIFO) == 0 {
		d.status &^= statusResFIFONotEmpty
	}
	return r
}

// sendResponse pushes data onto the response FIFO and latches int (1-5).
func (d *Drive) sendResponse(data byte, int uint8) {
	d.responseFIFO = append(d.responseFIFO, data)
	d.status |= statusResFIFONotEmpty
	d.intFlags &^= 0x7
	d.intFlags |= int & 0x7
	if d.intEnable&d.intFlags&0x1F != 0 {
		d.irqLatched = true
	}
}

// ReadWord implements dma.Device for DMA channel 3 (CD-ROM): four
// data-FIFO bytes packed little-endian, matching phase/src/cdrom/mod.rs's
// dma_read_word.
func (d *Drive) ReadWord() (uint32, int) {
	b0 := d.readData()
	b1 := d.readData()
	b2 := d.readData()
	b3 := d.readData()
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24, 8
}

// WriteWord is invalid: the CD-ROM's DMA port is read-only, per spec.md §7
// "DMA misuse" (fatal, represents an emulator/program bug).
func (d *Drive) WriteWord(uint32) int {
	panic("cdrom: DMA write to a read-only CD-ROM data port")
}

func (d *Drive) readData() byte {
	var b byte
	if d.disc != nil {
		b = d.sectorBuf[d.sectorCursor]
		d.sectorCursor++
	}
	d.dataFIFOSize--
	if d.dataFIFOSize <= 0 {
		d.status &^= statusDataFIFONotEmpty
	}
	return b
}
