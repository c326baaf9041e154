//go:build tinygo && rp

package atxt

import (
	"device/arm"
	"machine"
	"runtime/interrupt"

	"github.com/drew-gpf/picoatxt/driver/alarm"
)

// Converter pin map. All four lines pass through the inverting level
// shifter: inputs read high when the 5 V bus line is low, and driving
// an output high forces the bus line low.
const (
	pinClockIn  = machine.GPIO21
	pinDataIn   = machine.GPIO20
	pinClockOut = machine.GPIO11
	pinDataOut  = machine.GPIO10
)

type rpPort struct {
	eng   *Engine
	edge  Edge
	frame *alarm.Alarm
	cmd   *alarm.Alarm
}

// Open configures the converter pins and timers and returns the line
// engine. Interrupts stay quiet until Init runs.
func Open() *Engine {
	p := &rpPort{}
	p.eng = New(p)

	pinClockOut.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinDataOut.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinClockOut.Low()
	pinDataOut.Low()
	alarm.FastPad(uint8(pinClockOut))
	alarm.FastPad(uint8(pinDataOut))
	pinClockIn.Configure(machine.PinConfig{Mode: machine.PinInput})
	pinDataIn.Configure(machine.PinConfig{Mode: machine.PinInput})

	p.frame = alarm.New(0, p.eng.FrameTimeout)
	p.cmd = alarm.New(1, p.eng.CommandTimeout)

	// Both edges are registered once; SetEdge filters in the handler.
	// Re-registering inside an interrupt is not reliable on this
	// part, reading the pin level back is.
	pinClockIn.SetInterrupt(machine.PinRising|machine.PinFalling, p.clockIRQ)
	return p.eng
}

func (p *rpPort) clockIRQ(machine.Pin) {
	switch p.edge {
	case EdgeRising:
		if pinClockIn.Get() {
			p.eng.ClockEdge()
		}
	case EdgeFalling:
		if !pinClockIn.Get() {
			p.eng.ClockEdge()
		}
	}
}

func (p *rpPort) ReadClock() bool { return pinClockIn.Get() }
func (p *rpPort) ReadData() bool  { return pinDataIn.Get() }

func (p *rpPort) DriveClock(assert bool) { pinClockOut.Set(assert) }
func (p *rpPort) DriveData(assert bool)  { pinDataOut.Set(assert) }

func (p *rpPort) SetEdge(e Edge) { p.edge = e }

func (p *rpPort) StartFrameTimer(micros int64) { p.frame.Arm(micros) }
func (p *rpPort) CancelFrameTimer()            { p.frame.Cancel() }

func (p *rpPort) StartCommandTimer(micros int64) { p.cmd.Arm(micros) }

func (p *rpPort) Micros() int64 { return alarm.Now() }

func (p *rpPort) Sleep(micros int64) {
	end := alarm.Now() + micros
	for alarm.Now() < end {
	}
}

func (p *rpPort) Critical(fn func()) {
	mask := interrupt.Disable()
	fn()
	interrupt.Restore(mask)
}

func (p *rpPort) Wait() {
	arm.Asm("wfi")
}
