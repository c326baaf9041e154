package atxt

// Init performs BAT auto-detection and returns the protocol of the
// attached keyboard. A fresh keyboard announces itself with a BAT
// pass frame (0xAA); its shape — 9 clocked bits or 11 — identifies XT
// versus AT. A keyboard that stays silent for the safety window is
// assumed to be a legacy XT board that needs a forced reset before it
// reports.
//
// Init blocks, sleeping in the port's Wait between interrupts. On
// success the bus is left inhibited; call Resume once the main loop
// is ready to consume scan codes.
func (e *Engine) Init() (Protocol, error) {
	e.port.Critical(e.beginDetect)
	for {
		var (
			done bool
			err  error
			p    Protocol
		)
		e.port.Critical(func() {
			done, err, p = e.batDone, e.batErr, e.proto
		})
		if err != nil {
			return 0, err
		}
		if done {
			return p, nil
		}
		e.port.Wait()
	}
}

func (e *Engine) beginDetect() {
	e.state = stateDetect
	e.clocking = false
	e.batDone = false
	e.batErr = nil
	e.head, e.tail = 0, 0
	e.willOverflow = false
	e.fail = false
	e.hasCommand = false
	e.release()
	e.port.SetEdge(EdgeRising)
	e.port.StartFrameTimer(batTimeout)
}

// detectEdge accumulates the BAT frame under an unknown protocol. The
// first rising edge is the keyboard's request-to-send; every falling
// edge after that samples a bit, up to the AT frame length.
func (e *Engine) detectEdge() {
	if !e.clocking {
		e.clocking = true
		e.shift = 0
		e.clockedBits = 0
		e.port.SetEdge(EdgeFalling)
		e.port.StartFrameTimer(frameTimeout(numCyclesAT))
		return
	}
	bit := !e.port.ReadData()
	if e.legacy {
		e.port.Sleep(glitchResample)
		if e.port.ReadClock() {
			return
		}
	}
	if bit {
		e.shift |= 1 << e.clockedBits
	}
	e.clockedBits++
	if e.clockedBits == numCyclesAT {
		e.port.CancelFrameTimer()
		e.finishDetect(ProtocolAT)
	}
}

// detectTimeout distinguishes the three silent outcomes: an XT frame
// that stopped after nine bits, a keyboard that never spoke, and a
// retry that failed.
func (e *Engine) detectTimeout() {
	if !e.clocking {
		if e.legacy {
			e.batErr = ErrFailedToGetXTBAT
			e.inhibit()
			return
		}
		// No BAT at all: force a reset and retry once as a legacy XT
		// board.
		e.legacy = true
		e.port.SetEdge(EdgeNone)
		e.port.DriveClock(true)
		e.port.StartCommandTimer(xtResetPulse)
		return
	}
	// Boards that bounce the clock after a frame leave one stray bit
	// past the nine of a real XT frame; the data byte is unaffected.
	xtBits := e.clockedBits == numCyclesXT || e.clockedBits == numCyclesXT+1
	if xtBits && e.shift&1 == 1 {
		e.finishDetect(ProtocolXT)
		return
	}
	e.batErr = ErrFailedToReadBAT
	e.inhibit()
}

func (e *Engine) finishDetect(p Protocol) {
	if !validFrame(p, e.shift) || byte(e.shift>>1) != RespBATPass {
		e.batErr = ErrFailedToReadBAT
		e.inhibit()
		return
	}
	e.proto = p
	e.batDone = true
	e.finalEdge = e.port.Micros()
	// Hold the bus until the main loop is ready.
	e.inhibit()
}

func (e *Engine) inhibit() {
	e.port.CancelFrameTimer()
	e.port.SetEdge(EdgeNone)
	e.port.DriveClock(true)
	e.port.DriveData(true)
	e.state = stateInhibit
}
