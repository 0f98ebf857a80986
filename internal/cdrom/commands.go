package cdrom

import "github.com/jsbaxter/stationcore/internal/disc"

// readSector loads the sector at currentLoc and routes it to XA-ADPCM,
// CD-DA, or the data FIFO. Returns true if interrupt code 1 must be raised:
// for a sector delivered as data, or for a CD-DA sector while report mode
// is on.
func (d *Drive) readSector() bool {
	if d.disc == nil {
		return false
	}
	if err := d.disc.ReadSector(d.currentLoc, d.sectorBuf[:]); err != nil {
		d.driveStatus |= dsError
		return false
	}
	d.currentHeader = parseSectorHeader(d.sectorBuf[sectorSyncBytes : sectorSyncBytes+8])

	triggerInt1 := false
	switch {
	case d.sendDASector():
		triggerInt1 = d.mode&modeReport != 0
	case d.sendXAADPCMSector():
		triggerInt1 = false
	default:
		if d.mode&modeSectorSize != 0 {
			d.sectorCursor = sectorSyncBytes
			d.dataFIFOSize = disc.SectorSize - sectorSyncBytes
		} else {
			d.sectorCursor = sectorHeader
			d.dataFIFOSize = sectorDataSize
		}
		d.status |= statusDataFIFONotEmpty
		triggerInt1 = true
	}

	d.readDataCycles = d.readCyclesForMode()
	d.currentLoc = d.currentLoc.Next()

	if d.mode&(modeCDDA|modeAutoPause) == modeCDDA|modeAutoPause && d.disc != nil {
		if d.currentLoc == d.disc.LeadOut() {
			d.driveStatus &^= dsReadBits
			d.playing = false
			d.readDataCycles = 0
		}
	}
	return triggerInt1
}

func (d *Drive) sendXAADPCMSector() bool {
	if d.mode&modeXAADPCM == 0 {
		return false
	}
	if d.currentHeader.submode&(submodeAudio|submodeRealTime) != (submodeAudio | submodeRealTime) {
		return false
	}
	d.status |= statusADPBusy
	if d.mode&modeXAFilter != 0 {
		if !d.xa.testFilter(d.currentHeader.file, d.currentHeader.channel) {
			return true // skip this sector, but it was still "handled" as XA
		}
	}
	d.xa.writeXAADPCMSector(d.sectorBuf[sectorHeader:sectorHeader+0x900], d.currentHeader.coding)
	return true
}

func (d *Drive) sendDASector() bool {
	if !(d.playing && d.mode&modeCDDA != 0) {
		return false
	}
	d.xa.writeCDAudioSector(d.sectorBuf[:0x930])
	return true
}

func parseSectorHeader(data []byte) sectorHeaderInfo {
	return sectorHeaderInfo{
		minute:  data[0],
		second:  data[1],
		sector:  data[2],
		mode:    data[3],
		file:    data[4],
		channel: data[5],
		submode: submode(data[6]),
		coding:  codingInfo(data[7]),
	}
}

// execCommand dispatches the latched command byte.
func (d *Drive) execCommand() {
	var err error
	switch d.command {
	case 0x00:
		err = d.sync()
	case 0x01:
		err = d.getStat()
	case 0x02:
		err = d.setLoc()
	case 0x03:
		err = d.play()
	case 0x06:
		err = d.readN()
	case 0x07:
		err = d.motorOn()
	case 0x08:
		err = d.stop()
	case 0x09:
		err = d.pause()
	case 0x0A:
		err = d.init()
	case 0x0B:
		err = d.mute()
	case 0x0C:
		err = d.demute()
	case 0x0D:
		err = d.setFilter()
	case 0x0E:
		err = d.setMode()
	case 0x0F:
		err = d.getParam()
	case 0x10:
		err = d.getLocL()
	case 0x11:
		err = d.getLocP()
	case 0x12:
		err = d.setSession()
	case 0x13:
		err = d.getTN()
	case 0x14:
		err = d.getTD()
	case 0x15:
		err = d.seekL()
	case 0x16:
		err = d.seekP()
	case 0x19:
		err = d.subfunction()
	case 0x1A:
		err = d.getID()
	case 0x1B:
		err = d.readN()
	case 0x1D:
		err = d.getQ()
	case 0x1E:
		err = d.readTOC()
	default:
		panic("cdrom: unknown command")
	}
	if err != nil {
		de, _ := err.(driveError)
		d.sendResponse(byte(de), 5)
		d.status &^= statusBusy
	}
}

func (e driveError) Error() string { return "cdrom: drive error" }

func (d *Drive) firstResponse() error {
	d.counter = commandCycles
	d.responseCount++
	return nil
}

func (d *Drive) beginSeek() error {
	d.counter = seekCycles
	d.responseCount++
	return nil
}

func (d *Drive) commandComplete() error {
	d.command = 0
	d.status &^= statusBusy
	return nil
}

func (d *Drive) sync() error { return d.commandComplete() }

func (d *Drive) setFilter() error {
	file, err := d.readParameter()
	if err != nil {
		return err
	}
	channel, err := d.readParameter()
	if err != nil {
		return err
	}
	d.xa.setFilters(file, channel)
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}

func (d *Drive) setMode() error {
	v, err := d.readParameter()
	if err != nil {
		return err
	}
	newMode := driveMode(v)
	if newMode != d.mode {
		d.readDataCycles = 0
	}
	d.mode = newMode
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}

func (d *Drive) init() error {
	if d.responseCount == 0 {
		d.driveStatus &^= dsReadBits
		d.readDataCycles = 0
		d.seeking = false
		d.playing = false
		d.sendResponse(byte(d.driveStatus), 3)
		return d.firstResponse()
	}
	d.mode = modeSectorSize
	d.driveStatus |= dsSpindleMotor
	d.sendResponse(byte(d.driveStatus), 2)
	return d.commandComplete()
}

func (d *Drive) motorOn() error {
	if d.responseCount == 0 {
		d.sendResponse(byte(d.driveStatus), 3)
		return d.firstResponse()
	}
	d.driveStatus |= dsSpindleMotor
	d.sendResponse(byte(d.driveStatus), 2)
	return d.commandComplete()
}

func (d *Drive) stop() error {
	if d.responseCount == 0 {
		d.driveStatus &^= dsReadBits
		d.readDataCycles = 0
		d.playing = false
		d.sendResponse(byte(d.driveStatus), 3)
		return d.firstResponse()
	}
	d.driveStatus &^= dsSpindleMotor
	d.sendResponse(byte(d.driveStatus), 2)
	return d.commandComplete()
}

func (d *Drive) pause() error {
	if d.responseCount == 0 {
		d.sendResponse(byte(d.driveStatus), 3)
		d.readDataCycles = 0
		d.playing = false
		return d.beginSeek()
	}
	d.driveStatus &^= dsReadBits
	d.sendResponse(byte(d.driveStatus), 2)
	return d.commandComplete()
}

func (d *Drive) setLoc() error {
	minute, err := d.readParameter()
	if err != nil {
		return err
	}
	second, err := d.readParameter()
	if err != nil {
		return err
	}
	sector, err := d.readParameter()
	if err != nil {
		return err
	}
	loc := disc.DriveLoc{Minute: minute, Second: second, Sector: sector}
	d.pendingSeek = &loc
	d.driveStatus &^= dsReadBits
	d.readDataCycles = 0
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}

func (d *Drive) seekL() error {
	if d.responseCount == 0 {
		d.seeking = true
		d.driveStatus &^= dsReadBits
		d.driveStatus |= dsSeeking | dsSpindleMotor
		d.sendResponse(byte(d.driveStatus), 3)
		return d.beginSeek()
	}
	if d.pendingSeek != nil {
		d.currentLoc = *d.pendingSeek
		d.pendingSeek = nil
	}
	d.seeking = false
	d.driveStatus &^= dsReadBits
	d.sendResponse(byte(d.driveStatus), 2)
	return d.commandComplete()
}

func (d *Drive) seekP() error { return d.seekL() }

func (d *Drive) setSession() error {
	session, err := d.readParameter()
	if err != nil {
		return err
	}
	switch {
	case session == 0x00:
		d.sendResponse(0x03, 5)
		return errInvalidParam
	case session > 0x01:
		d.sendResponse(byte(d.driveStatus), 3)
		d.sendResponse(0x06, 5)
		return errInvalidCmd
	default:
		d.sendResponse(byte(d.driveStatus), 3)
		d.sendResponse(byte(d.driveStatus), 2)
		return d.commandComplete()
	}
}

func (d *Drive) readN() error {
	d.driveStatus &^= dsReadBits
	d.playing = false
	if d.pendingSeek != nil {
		d.currentLoc = *d.pendingSeek
		d.pendingSeek = nil
		d.seeking = true
		d.driveStatus |= dsSeeking
		d.readDataCycles = seekCycles
	} else {
		d.seeking = false
		d.driveStatus |= dsReading
		d.readDataCycles = d.readCyclesForMode()
	}
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}

func (d *Drive) play() error {
	if d.playing {
		d.sendResponse(byte(d.driveStatus), 3)
		return d.commandComplete()
	}
	d.driveStatus &^= dsReadBits
	d.playing = true
	switch {
	case len(d.paramFIFO) > 0:
		trackBCD, err := d.readParameter()
		if err != nil {
			return err
		}
		if d.disc == nil {
			return errInvalidCmd
		}
		start, err2 := d.disc.TrackStart(disc.FromBCD(trackBCD))
		if err2 != nil {
			return errInvalidParam
		}
		d.currentLoc = start
		d.seeking = true
		d.driveStatus |= dsSeeking
		d.readDataCycles = seekCycles
	case d.pendingSeek != nil:
		d.currentLoc = *d.pendingSeek
		d.pendingSeek = nil
		d.seeking = true
		d.driveStatus |= dsSeeking
		d.readDataCycles = seekCycles
	default:
		d.seeking = false
		d.driveStatus |= dsPlaying
		d.readDataCycles = d.readCyclesForMode()
	}
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}

func (d *Drive) readTOC() error {
	if d.responseCount == 0 {
		d.sendResponse(byte(d.driveStatus), 3)
		return d.firstResponse()
	}
	d.sendResponse(byte(d.driveStatus), 2)
	return d.commandComplete()
}

func (d *Drive) getStat() error {
	d.sendResponse(byte(d.driveStatus), 3)
	d.driveStatus &^= dsShellOpen
	return d.commandComplete()
}

func (d *Drive) getParam() error {
	d.sendResponse(byte(d.driveStatus), 3)
	d.sendResponse(byte(d.mode), 3)
	d.sendResponse(0x00, 3)
	file, channel := d.xa.getFilters()
	d.sendResponse(file, 3)
	d.sendResponse(channel, 3)
	return d.commandComplete()
}

func (d *Drive) getLocL() error {
	d.sendResponse(d.currentHeader.minute, 3)
	d.sendResponse(d.currentHeader.second, 3)
	d.sendResponse(d.currentHeader.sector, 3)
	d.sendResponse(d.currentHeader.mode, 3)
	d.sendResponse(d.currentHeader.file, 3)
	d.sendResponse(d.currentHeader.channel, 3)
	d.sendResponse(byte(d.currentHeader.submode), 3)
	d.sendResponse(byte(d.currentHeader.coding), 3)
	return d.commandComplete()
}

func (d *Drive) getLocP() error {
	if d.disc == nil {
		return errInvalidCmd
	}
	// Track/index computation is not modeled beyond the pre-gap boundary;
	// spec.md's Open Questions leave sub-sector-accurate Q data undefined.
	index := byte(0x01)
	if d.currentLoc.Second < disc.ToBCD(2) && d.currentLoc.Minute == 0 {
		index = 0x00
	}
	d.sendResponse(disc.ToBCD(1), 3)
	d.sendResponse(index, 3)
	d.sendResponse(d.currentLoc.Minute, 3)
	d.sendResponse(d.currentLoc.Second, 3)
	d.sendResponse(d.currentLoc.Sector, 3)
	d.sendResponse(d.currentLoc.Minute, 3)
	d.sendResponse(d.currentLoc.Second, 3)
	d.sendResponse(d.currentLoc.Sector, 3)
	return d.commandComplete()
}

func (d *Drive) getTN() error {
	trackCount := 1
	if d.disc != nil {
		trackCount = d.disc.TrackCount()
	}
	d.sendResponse(byte(d.driveStatus), 3)
	d.sendResponse(disc.ToBCD(1), 3)
	d.sendResponse(disc.ToBCD(trackCount), 3)
	return d.commandComplete()
}

func (d *Drive) getTD() error {
	trackBCD, err := d.readParameter()
	if err != nil {
		return err
	}
	if d.disc == nil {
		return errInvalidCmd
	}
	track := disc.FromBCD(trackBCD)
	trackCount := d.disc.TrackCount()
	if track == 0 || track > trackCount {
		end := d.disc.LeadOut()
		d.sendResponse(byte(d.driveStatus), 3)
		d.sendResponse(end.Minute, 3)
		d.sendResponse(end.Second, 3)
		return d.commandComplete()
	}
	start, err2 := d.disc.TrackStart(track)
	if err2 != nil {
		return errInvalidParam
	}
	d.sendResponse(byte(d.driveStatus), 3)
	d.sendResponse(start.Minute, 3)
	d.sendResponse(start.Second, 3)
	return d.commandComplete()
}

func (d *Drive) getQ() error {
	panic("cdrom: get-Q subchannel is not implemented")
}

func (d *Drive) getID() error {
	if d.responseCount == 0 {
		d.sendResponse(byte(d.driveStatus), 3)
		return d.firstResponse()
	}
	if d.disc != nil {
		d.sendResponse(0x02, 2)
		d.sendResponse(0x00, 2)
		d.sendResponse(0x20, 2)
		d.sendResponse(0x00, 2)
		d.sendResponse('S', 2)
		d.sendResponse('C', 2)
		d.sendResponse('E', 2)
		d.sendResponse('A', 2)
	} else {
		d.sendResponse(0x08, 5)
		d.sendResponse(0x40, 5)
		d.sendResponse(0x00, 5)
		d.sendResponse(0x00, 5)
		d.sendResponse(0x00, 5)
		d.sendResponse(0x00, 5)
		d.sendResponse(0x00, 5)
		d.sendResponse(0x00, 5)
	}
	return d.commandComplete()
}

func (d *Drive) subfunction() error {
	op, err := d.readParameter()
	if err != nil {
		return err
	}
	switch op {
	case 0x20:
		d.sendResponse(0x95, 3)
		d.sendResponse(0x05, 3)
		d.sendResponse(0x16, 3)
		d.sendResponse(0xC1, 3)
		return d.commandComplete()
	default:
		panic("cdrom: unsupported subfunction")
	}
}

func (d *Drive) mute() error {
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}

func (d *Drive) demute() error {
	d.sendResponse(byte(d.driveStatus), 3)
	return d.commandComplete()
}
