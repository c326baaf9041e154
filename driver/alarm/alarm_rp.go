//go:build tinygo && rp

package alarm

import (
	"device/rp"
	"runtime/interrupt"
	"unsafe"
)

// Alarm is one of the four TIMER compare channels, armed as a
// one-shot.
type Alarm struct {
	n  uint8
	fn func()
}

var alarms [4]*Alarm

// New claims alarm channel n and routes its interrupt to fn. The
// channels are a fixed resource; claiming one twice is a bug.
func New(n int, fn func()) *Alarm {
	if alarms[n] != nil {
		panic("alarm: channel already claimed")
	}
	a := &Alarm{n: uint8(n), fn: fn}
	alarms[n] = a
	var in interrupt.Interrupt
	switch n {
	case 0:
		in = interrupt.New(rp.IRQ_TIMER_IRQ_0, func(interrupt.Interrupt) { fire(0) })
	case 1:
		in = interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) { fire(1) })
	case 2:
		in = interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) { fire(2) })
	case 3:
		in = interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) { fire(3) })
	}
	rp.TIMER.INTE.SetBits(1 << n)
	in.Enable()
	return a
}

func fire(n uint8) {
	rp.TIMER.INTR.Set(1 << n)
	if a := alarms[n]; a != nil {
		a.fn()
	}
}

// Arm schedules the alarm micros from now, replacing any pending
// deadline. Only the low 32 bits of the counter take part in the
// compare, which is fine for the sub-second deadlines used here.
func (a *Alarm) Arm(micros int64) {
	target := uint32(Now() + micros)
	switch a.n {
	case 0:
		rp.TIMER.ALARM0.Set(target)
	case 1:
		rp.TIMER.ALARM1.Set(target)
	case 2:
		rp.TIMER.ALARM2.Set(target)
	case 3:
		rp.TIMER.ALARM3.Set(target)
	}
}

// Cancel disarms the alarm and drops any latched interrupt.
func (a *Alarm) Cancel() {
	rp.TIMER.ARMED.Set(1 << a.n)
	rp.TIMER.INTR.Set(1 << a.n)
}

// Now reads the full 64-bit microsecond counter without the latching
// side effects of TIMELR/TIMEHR.
func Now() int64 {
	for {
		hi := rp.TIMER.TIMERAWH.Get()
		lo := rp.TIMER.TIMERAWL.Get()
		if rp.TIMER.TIMERAWH.Get() == hi {
			return int64(hi)<<32 | int64(lo)
		}
	}
}

// FastPad sets a GPIO pad to fast slew and 2 mA drive, matching the
// level shifter's loading.
func FastPad(pin uint8) {
	pads := unsafe.Slice(&rp.PADS_BANK0.GPIO0, 30)
	reg := &pads[pin]
	v := reg.Get()
	v &^= rp.PADS_BANK0_GPIO0_DRIVE_Msk
	v |= rp.PADS_BANK0_GPIO0_DRIVE_2MA << rp.PADS_BANK0_GPIO0_DRIVE_Pos
	v |= rp.PADS_BANK0_GPIO0_SLEWFAST
	reg.Set(v)
}
