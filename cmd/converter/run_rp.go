//go:build tinygo && rp

package main

import (
	"device/arm"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"

	"github.com/drew-gpf/picoatxt/converter"
	"github.com/drew-gpf/picoatxt/driver/alarm"
	"github.com/drew-gpf/picoatxt/driver/atxt"
)

// tickInterval is the HID heartbeat.
const tickInterval = 1_000

var (
	tickPending volatile.Register32
	usbTick     *alarm.Alarm
)

func run() {
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	eng := atxt.Open()
	proto, err := eng.Init()
	if err != nil {
		fatal(err)
	}
	println("picoatxt: detected", proto.String(), "keyboard")

	out := openUSB()
	conv := converter.New(eng, out, proto)
	out.conv = conv

	usbTick = alarm.New(2, onTick)
	usbTick.Arm(tickInterval)
	eng.Resume()

	for {
		if tickPending.Get() != 0 {
			tickPending.Set(0)
			conv.Tick()
			if conv.Rebooting() {
				machine.EnterBootloader()
			}
		}
		if err := conv.Process(); err != nil {
			// The keyboard stopped answering; run detection again.
			println("picoatxt:", err.Error())
			if _, err := eng.Init(); err != nil {
				fatal(err)
			}
			eng.Resume()
			continue
		}
		waitForEvent()
	}
}

func onTick() {
	tickPending.Set(1)
	usbTick.Arm(tickInterval)
}

// waitForEvent sleeps until an interrupt, without missing one that
// lands between the main loop's checks and the sleep: with interrupts
// masked a pending one still wakes wfi.
func waitForEvent() {
	mask := interrupt.Disable()
	if tickPending.Get() == 0 {
		arm.Asm("wfi")
	}
	interrupt.Restore(mask)
}

// fatal blinks the LED and repeats the error on the serial console
// until power cycle.
func fatal(err error) {
	for {
		machine.LED.High()
		sleepMicros(500_000)
		machine.LED.Low()
		sleepMicros(500_000)
		println("picoatxt:", err.Error())
	}
}

func sleepMicros(us int64) {
	end := alarm.Now() + us
	for alarm.Now() < end {
	}
}
