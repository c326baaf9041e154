//go:build tinygo && rp

package main

import (
	"machine"
	"machine/usb"
	usbhid "machine/usb/hid"
	"runtime/volatile"

	"github.com/drew-gpf/picoatxt/converter"
	"github.com/drew-gpf/picoatxt/hid"
)

// USB class requests on the HID interface.
const (
	reqGetReport   = 0x01
	reqGetProtocol = 0x03
	reqSetIdle     = 0x0a
	reqSetProtocol = 0x0b

	descHIDReport = 0x22
)

// usbOutput adapts the TinyGo HID port to converter.Output. The stock
// HID interface is kept; our report descriptor is served by
// intercepting the class GET_DESCRIPTOR request, and the protocol,
// idle and LED requests are routed to the converter.
type usbOutput struct {
	conv *converter.Converter
	busy volatile.Register32
	boot bool
}

func openUSB() *usbOutput {
	o := &usbOutput{}
	usbhid.SetHandler(o)
	return o
}

func (o *usbOutput) Ready() bool {
	return machine.USBDev.Configured() && o.busy.Get() == 0
}

func (o *usbOutput) Send(report []byte) error {
	o.busy.Set(1)
	usbhid.Port().SendUSBPacket(report)
	return nil
}

func (o *usbOutput) Disconnect() {
	machine.USBDev.Detach()
}

// TxHandler runs when the IN endpoint frees up.
func (o *usbOutput) TxHandler() bool {
	o.busy.Set(0)
	return false
}

// RxHandler takes the lock-light output report.
func (o *usbOutput) RxHandler(b []byte) bool {
	if len(b) > 0 {
		o.conv.SetLEDs(b[0])
	}
	return true
}

func (o *usbOutput) SetupHandler(setup usb.Setup) bool {
	switch setup.BRequest {
	case usb.GET_DESCRIPTOR:
		if setup.WValueH == descHIDReport {
			machine.SendUSBInPacket(0, hid.ReportDescriptor)
			return true
		}
	case reqSetProtocol:
		o.boot = setup.WValueL == 0
		o.conv.SetBootProtocol(o.boot)
		machine.SendZlp()
		return true
	case reqGetProtocol:
		p := byte(1)
		if o.boot {
			p = 0
		}
		machine.SendUSBInPacket(0, []byte{p})
		return true
	case reqSetIdle:
		o.conv.SetIdle(setup.WValueH)
		machine.SendZlp()
		return true
	case reqGetReport:
		machine.SendUSBInPacket(0, o.conv.Report())
		return true
	}
	return false
}
