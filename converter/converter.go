// Package converter is the main-loop policy tying the line engine,
// the scan-code translator and the report state together: it drains
// received packets, orchestrates keyboard commands and their replies,
// keeps the lock lights in sync with the host, and emits one HID
// report per millisecond tick.
package converter

import (
	"fmt"

	"github.com/drew-gpf/picoatxt/driver/atxt"
	"github.com/drew-gpf/picoatxt/hid"
	"github.com/drew-gpf/picoatxt/scancode"
)

// Output is the USB HID device the converter reports through.
type Output interface {
	// Ready reports whether the interface can accept a report.
	Ready() bool
	// Send queues one input report, 22 bytes in bitmap mode or 8 in
	// boot mode.
	Send(report []byte) error
	// Disconnect drops off the bus ahead of the bootloader escape.
	Disconnect()
}

// maxWriteFailures is the count of consecutive line failures at which
// the keyboard is considered gone and detection must rerun; the
// failures before it are retried.
const maxWriteFailures = 3

type Converter struct {
	eng   *atxt.Engine
	dec   scancode.Decoder
	state hid.State
	out   Output
	proto atxt.Protocol

	bootProtocol      bool
	inhibitDuplicates bool

	changeLEDs    bool
	pending       bool
	waitingBAT    bool
	writeFailures int

	rebooting bool
	sentEmpty bool
}

func New(eng *atxt.Engine, out Output, proto atxt.Protocol) *Converter {
	set := scancode.SetXT
	if proto == atxt.ProtocolAT {
		set = scancode.SetAT
	}
	return &Converter{
		eng:   eng,
		dec:   scancode.NewDecoder(set),
		out:   out,
		proto: proto,
	}
}

// SetLEDs takes the host's lock-light output report. The new state is
// pushed to the keyboard once the bus is quiet.
func (c *Converter) SetLEDs(report byte) {
	c.state.LEDs = hid.LEDsFromReport(report)
	if c.proto == atxt.ProtocolAT {
		c.changeLEDs = true
	}
}

// SetIdle takes the host's Set_Idle rate. A zero rate means reports
// are wanted on change only.
func (c *Converter) SetIdle(rate byte) {
	c.inhibitDuplicates = rate == 0
	c.state.Invalidate()
}

// SetBootProtocol switches between the boot report and the full
// bitmap.
func (c *Converter) SetBootProtocol(boot bool) {
	c.bootProtocol = boot
	c.state.Invalidate()
}

// Report renders the current state in the active mode, for Get_Report.
func (c *Converter) Report() []byte {
	if c.bootProtocol {
		var buf [hid.BootReportSize]byte
		c.state.BootReport(&buf)
		return buf[:]
	}
	var buf [hid.ReportSize]byte
	c.state.Report(&buf)
	return buf[:]
}

// Process drains the receive ring and, when the bus is quiet, pushes
// a pending lock-light change. It returns an error only when the
// keyboard has stopped acknowledging writes and detection must rerun.
func (c *Converter) Process() error {
	for {
		pkt, ok := c.eng.Poll()
		if !ok {
			break
		}
		if err := c.handle(pkt); err != nil {
			return err
		}
	}
	if c.changeLEDs && !c.pending && c.proto == atxt.ProtocolAT {
		c.send(atxt.CmdSetLockLights)
	}
	return nil
}

func (c *Converter) handle(pkt atxt.Packet) error {
	if !pkt.Valid {
		// Line failure: the bus is inhibited until we start a write.
		c.writeFailures++
		if c.writeFailures >= maxWriteFailures {
			return fmt.Errorf("converter: keyboard unresponsive: %w", atxt.ErrContention)
		}
		if pkt.HasCommand {
			c.pending = false
			c.resend(pkt.Command)
			return nil
		}
		if c.proto == atxt.ProtocolAT {
			c.send(atxt.CmdResend)
		} else {
			c.send(atxt.CmdReset)
		}
		return nil
	}
	c.writeFailures = 0
	if pkt.HasCommand {
		c.pending = false
		c.reply(pkt.Command, pkt.Data)
		return nil
	}
	c.data(pkt.Data)
	return nil
}

// data takes a received byte outside any command exchange.
func (c *Converter) data(b byte) {
	if c.waitingBAT {
		c.waitingBAT = false
		if b == atxt.RespBATPass {
			c.resetComplete()
		} else {
			c.send(atxt.CmdReset)
		}
		return
	}
	c.decode(b)
}

// reply handles the packet answering a write.
func (c *Converter) reply(cmd atxt.Command, data byte) {
	if data == atxt.RespResend {
		c.resend(cmd)
		return
	}
	switch {
	case cmd == atxt.CmdResend:
		// The reply to a resend is the re-sent byte itself.
		c.data(data)
	case cmd == atxt.CmdReset:
		if c.proto == atxt.ProtocolAT {
			// ACK now, BAT as a later ordinary frame.
			if data == atxt.RespAck {
				c.waitingBAT = true
			} else {
				c.send(atxt.CmdReset)
			}
			return
		}
		// XT restarts straight into its BAT report.
		if data == atxt.RespBATPass {
			c.resetComplete()
		} else {
			c.send(atxt.CmdReset)
		}
	case cmd == atxt.CmdSetLockLights:
		if data == atxt.RespAck {
			c.sendData(c.state.LEDs.ATByte())
		} else {
			c.send(atxt.CmdSetLockLights)
		}
	case byte(cmd)&0x80 == 0:
		// The lock-light payload byte itself.
		if data == atxt.RespAck {
			c.changeLEDs = false
		} else {
			c.send(atxt.CmdSetLockLights)
		}
	default:
		// Echo, scanning control: the body does not matter.
	}
}

func (c *Converter) resend(cmd atxt.Command) {
	if byte(cmd)&0x80 == 0 {
		c.sendData(byte(cmd))
		return
	}
	c.send(cmd)
}

// send queues a command, tolerating a busy bus; the retry happens on
// the next Process pass.
func (c *Converter) send(cmd atxt.Command) {
	if err := c.eng.Send(cmd); err == nil {
		c.pending = true
	}
}

func (c *Converter) sendData(b byte) {
	if err := c.eng.SendData(b); err == nil {
		c.pending = true
	}
}

// resetComplete is a confirmed keyboard reset: every key is released
// and the lock lights are restored if any were lit.
func (c *Converter) resetComplete() {
	c.state.Clear()
	c.dec.Reset()
	if c.state.LEDs.Any() && c.proto == atxt.ProtocolAT {
		c.changeLEDs = true
	}
}

func (c *Converter) decode(b byte) {
	ev, res := c.dec.Decode(b)
	switch res {
	case scancode.Overrun:
		c.state.Clear()
	case scancode.Key:
		c.state.Key(ev.Usage, ev.Make)
	}
}

// escapeHeld is the bootloader chord: Scroll Lock, keypad minus and
// right Shift held together.
func (c *Converter) escapeHeld() bool {
	return c.state.Held(hid.KeyScrollLock) &&
		c.state.Held(hid.KeyKpMinus) &&
		c.state.Held(hid.KeyRightShift)
}

// Rebooting reports that the converter has finished its final report
// and the platform should disconnect and enter the bootloader.
func (c *Converter) Rebooting() bool {
	return c.rebooting && c.sentEmpty
}

// Tick runs the 1 ms heartbeat: the bootloader escape, report
// emission with duplicate suppression, and the Pause countdown.
func (c *Converter) Tick() error {
	if !c.rebooting && c.escapeHeld() {
		c.rebooting = true
		c.state.Clear()
	}
	if c.rebooting && c.sentEmpty {
		c.out.Disconnect()
		return nil
	}
	if c.out.Ready() && !(c.state.Duplicate() && c.inhibitDuplicates) {
		if err := c.out.Send(c.Report()); err != nil {
			return err
		}
		c.state.MarkSent()
		if c.rebooting {
			c.sentEmpty = true
		}
	}
	c.state.Tick()
	return nil
}
