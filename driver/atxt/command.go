package atxt

import "fmt"

// Command is a byte written to the keyboard. The low range doubles as
// raw data payloads, such as the lock-light bitmask that follows
// CmdSetLockLights.
type Command byte

const (
	CmdReset           Command = 0xff
	CmdResend          Command = 0xfe
	CmdSetLockLights   Command = 0xed
	CmdEcho            Command = 0xee
	CmdSetDelay        Command = 0xf3
	CmdEnableScanning  Command = 0xf4
	CmdDisableScanning Command = 0xf5
	CmdResetChanges    Command = 0xf6
)

// Send queues a protocol command. XT keyboards are write-only except
// for the reset pulse, so everything but CmdReset fails with ErrAtXt
// there.
func (e *Engine) Send(cmd Command) error {
	switch cmd {
	case CmdReset, CmdResend, CmdSetLockLights, CmdEcho, CmdSetDelay,
		CmdEnableScanning, CmdDisableScanning, CmdResetChanges:
	default:
		return fmt.Errorf("atxt: unknown command %#02x", byte(cmd))
	}
	if e.proto == ProtocolXT && cmd != CmdReset {
		return ErrAtXt
	}
	return e.write(byte(cmd))
}

// SendData clocks a raw byte out, for command payloads. AT only.
func (e *Engine) SendData(b byte) error {
	if e.proto == ProtocolXT {
		return ErrAtXt
	}
	return e.write(b)
}

// write starts the request-to-send handshake. It requires an empty
// ring, no outstanding command and a bus that is not mid-frame past
// the point of no return.
func (e *Engine) write(b byte) (err error) {
	e.port.Critical(func() {
		switch {
		case e.hasCommand || e.state == stateWriteRequest || e.state == stateWriting:
			err = ErrContention
		case e.head != e.tail || e.willOverflow:
			err = ErrRingNotEmpty
		case e.state == stateFraming && e.clockedBits > 8:
			err = ErrClocking
		}
		if err != nil {
			return
		}
		e.port.CancelFrameTimer()
		e.port.SetEdge(EdgeNone)
		e.lastCommand = Command(b)
		e.hasCommand = true
		e.state = stateWriteRequest
		// Inhibit: CLK forced low, DATA released until the start bit.
		e.port.DriveData(false)
		e.port.DriveClock(true)
		if e.proto == ProtocolXT {
			// The only XT write is the reset pulse; the keyboard
			// restarts and reports BAT as an ordinary frame.
			e.port.StartCommandTimer(xtResetPulse)
			return
		}
		e.writeData = b
		e.writeBits = 0
		e.port.StartCommandTimer(rtsHold)
	})
	return
}

// CommandTimeout is the write-handshake one-shot handler.
func (e *Engine) CommandTimeout() {
	switch e.state {
	case stateDetect:
		// End of the forced-reset pulse during legacy detection.
		e.port.DriveClock(false)
		e.port.SetEdge(EdgeRising)
		e.clocking = false
		e.port.StartFrameTimer(batTimeout)
	case stateWriteRequest:
		if e.proto == ProtocolXT {
			e.port.DriveClock(false)
			e.state = stateIdle
			e.port.SetEdge(EdgeRising)
			e.finalEdge = e.port.Micros()
			return
		}
		// Start bit, then let the keyboard clock.
		e.port.DriveData(true)
		e.port.Sleep(writeSetup)
		e.port.DriveClock(false)
		e.state = stateWriting
		e.port.SetEdge(EdgeFalling)
		e.port.StartFrameTimer(frameTimeout(numCyclesAT))
	}
}

// writeBit drives the next outgoing bit on a keyboard clock edge:
// eight data bits LSB first, odd parity, the released stop bit, and
// finally the keyboard's ACK pulled over DATA.
func (e *Engine) writeBit() {
	e.port.Sleep(writeSetup)
	switch {
	case e.writeBits < 8:
		bit := e.writeData >> e.writeBits & 1
		// Driving high forces the bus line low, so a zero bit is the
		// asserted state.
		e.port.DriveData(bit == 0)
	case e.writeBits == 8:
		// Odd parity: the parity bit is clear, and therefore driven,
		// exactly when the data bits already have odd weight.
		e.port.DriveData(oddParity9(uint16(e.writeData)))
	case e.writeBits == 9:
		e.port.DriveData(false)
	case e.writeBits == 10:
		e.port.CancelFrameTimer()
		if !e.port.ReadData() {
			// No ACK. Latch a recoverable failure; the command stays
			// attached and the main loop decides between a retry and
			// re-running detection.
			e.failLine()
			return
		}
		e.finalEdge = e.port.Micros()
		e.state = stateIdle
		e.port.SetEdge(EdgeRising)
		return
	}
	e.writeBits++
}
