package converter

import (
	"errors"
	"testing"

	"github.com/drew-gpf/picoatxt/driver/atxt"
	"github.com/drew-gpf/picoatxt/hid"
)

type testOutput struct {
	reports      [][]byte
	disconnected bool
}

func (o *testOutput) Ready() bool { return !o.disconnected }

func (o *testOutput) Send(report []byte) error {
	o.reports = append(o.reports, append([]byte(nil), report...))
	return nil
}

func (o *testOutput) Disconnect() { o.disconnected = true }

func (o *testOutput) last() []byte {
	if len(o.reports) == 0 {
		return nil
	}
	return o.reports[len(o.reports)-1]
}

func setup(t *testing.T, cfg atxt.SimConfig) (*atxt.Simulator, *Converter, *testOutput) {
	t.Helper()
	sim := atxt.NewSimulator(cfg)
	eng := sim.Engine()
	p, err := eng.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	out := &testOutput{}
	conv := New(eng, out, p)
	eng.Resume()
	return sim, conv, out
}

// run advances the simulation in 1 ms heartbeats, like the firmware
// main loop.
func run(t *testing.T, sim *atxt.Simulator, conv *Converter, ms int) {
	t.Helper()
	for i := 0; i < ms; i++ {
		sim.Advance(1_000)
		if err := conv.Process(); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if err := conv.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
}

func held(report []byte, usage byte) bool {
	if len(report) != hid.ReportSize {
		return false
	}
	if usage >= hid.KeyLeftCtrl {
		return report[hid.ReportSize-1]&(1<<(usage&0b111)) != 0
	}
	n := int(usage - hid.MinKey)
	return report[n/8]&(1<<(n%8)) != 0
}

func empty(report []byte) bool {
	for _, b := range report {
		if b != 0 {
			return false
		}
	}
	return true
}

// XT release via bit 7: A is held between make and break and released
// after.
func TestXTMakeBreak(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolXT})
	sim.Transmit(0x1e)
	run(t, sim, conv, 5)
	if !held(out.last(), hid.KeyA) {
		t.Fatal("A not held after its make")
	}
	sim.Transmit(0x9e)
	run(t, sim, conv, 5)
	if !empty(out.last()) {
		t.Fatal("report not empty after the break")
	}
}

func TestATMakeBreak(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	sim.Transmit(0x1c)
	run(t, sim, conv, 5)
	if !held(out.last(), hid.KeyA) {
		t.Fatal("A not held after its make")
	}
	sim.Transmit(0xf0, 0x1c)
	run(t, sim, conv, 5)
	if !empty(out.last()) {
		t.Fatal("report not empty after the break")
	}
}

// Lock lights: the host sets the LEDs, the converter runs the
// ED/payload exchange and clears its pending lock-light change.
func TestLockLightAck(t *testing.T) {
	sim, conv, _ := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	conv.SetLEDs(0b111)
	run(t, sim, conv, 20)
	if sim.LEDs != 0b111 {
		t.Errorf("keyboard lock lights %#03b, expected 0b111", sim.LEDs)
	}
	if conv.changeLEDs {
		t.Error("change_leds still set after the ACK")
	}
	if len(sim.Written) != 2 || sim.Written[0] != byte(atxt.CmdSetLockLights) || sim.Written[1] != 0b111 {
		t.Errorf("wire carried % x", sim.Written)
	}
}

// Overrun clears the whole bitmap regardless of prior state.
func TestOverrunClears(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	sim.Transmit(0x1c, 0x12)
	run(t, sim, conv, 5)
	if empty(out.last()) {
		t.Fatal("keys not held before the overrun")
	}
	sim.Transmit(0x00)
	run(t, sim, conv, 5)
	if !empty(out.last()) {
		t.Fatal("overrun did not clear the bitmap")
	}
}

// Duplicate suppression under Set_Idle(0): identical states collapse
// to one report, any change forces the next one out.
func TestDuplicateSuppression(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	conv.SetIdle(0)
	run(t, sim, conv, 5)
	if len(out.reports) != 1 {
		t.Fatalf("%d reports for an unchanged state, expected 1", len(out.reports))
	}
	sim.Transmit(0x1c)
	run(t, sim, conv, 5)
	if len(out.reports) != 2 {
		t.Fatalf("%d reports after a key change, expected 2", len(out.reports))
	}
	if !held(out.last(), hid.KeyA) {
		t.Error("second report does not carry the key")
	}
}

// Without Set_Idle(0) every tick reports.
func TestPeriodicReports(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	run(t, sim, conv, 5)
	if len(out.reports) != 5 {
		t.Errorf("%d reports in 5 ticks, expected 5", len(out.reports))
	}
}

// A line failure recovers through resend: the key byte still arrives.
func TestFailureResend(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	sim.Transmit(0x1c)
	run(t, sim, conv, 5)
	sim.Transmit(0xf0, 0x1c)
	run(t, sim, conv, 5)
	// Corrupted frame: 0x1c with its parity bit set, even total weight.
	sim.TransmitRaw([]byte{0, 0, 0, 1, 1, 1, 0, 0, 0, 1, 1})
	run(t, sim, conv, 20)
	if !held(out.last(), hid.KeyA) {
		t.Error("resend did not recover the dropped byte")
	}
}

// An XT failure recovers through reset, which also releases held keys.
func TestXTFailureReset(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolXT})
	sim.Transmit(0x1e)
	run(t, sim, conv, 5)
	if !held(out.last(), hid.KeyA) {
		t.Fatal("A not held")
	}
	sim.TransmitRaw([]byte{0, 1, 0, 1, 0, 1, 0, 1, 0})
	run(t, sim, conv, 60)
	if !empty(out.last()) {
		t.Error("keyboard reset did not clear the bitmap")
	}
}

// A keyboard that stops acknowledging writes surfaces a contention
// error so the caller can rerun detection.
func TestUnresponsiveKeyboard(t *testing.T) {
	sim, conv, _ := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT, NoAck: true})
	conv.SetLEDs(0b001)
	var err error
	for i := 0; i < 200 && err == nil; i++ {
		sim.Advance(1_000)
		err = conv.Process()
	}
	if !errors.Is(err, atxt.ErrContention) {
		t.Fatalf("got %v, expected ErrContention", err)
	}
}

// The bootloader chord emits one empty report and then drops off the
// bus within two ticks.
func TestBootloaderEscape(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolXT})
	sim.Transmit(0x36, 0x46, 0x4a) // Right Shift, Scroll Lock, Kp-
	run(t, sim, conv, 5)
	if !conv.Rebooting() {
		t.Fatal("chord did not arm the escape")
	}
	if !out.disconnected {
		t.Fatal("USB not disconnected")
	}
	if !empty(out.last()) {
		t.Error("final report not empty")
	}
}

// Boot protocol: the 8-byte report with modifiers and scanned keys.
func TestBootProtocol(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	conv.SetBootProtocol(true)
	sim.Transmit(0x1c, 0x12) // A, Left Shift
	run(t, sim, conv, 5)
	rep := out.last()
	if len(rep) != hid.BootReportSize {
		t.Fatalf("boot report is %d bytes", len(rep))
	}
	if rep[0] != 1<<(hid.KeyLeftShift&0b111) || rep[2] != hid.KeyA {
		t.Errorf("boot report % x", rep)
	}
}

// Get_Report renders the live state in the active mode.
func TestGetReport(t *testing.T) {
	sim, conv, _ := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	sim.Transmit(0x1c)
	run(t, sim, conv, 5)
	if rep := conv.Report(); len(rep) != hid.ReportSize || !held(rep, hid.KeyA) {
		t.Errorf("bitmap Get_Report: % x", rep)
	}
	conv.SetBootProtocol(true)
	if rep := conv.Report(); len(rep) != hid.BootReportSize || rep[2] != hid.KeyA {
		t.Errorf("boot Get_Report: % x", rep)
	}
}

// Pause holds for exactly 33 reports.
func TestPauseReports(t *testing.T) {
	sim, conv, out := setup(t, atxt.SimConfig{Protocol: atxt.ProtocolAT})
	sim.Transmit(0xe1, 0x14, 0x77, 0xe1, 0xf0, 0x14, 0xf0, 0x77)
	run(t, sim, conv, 60)
	heldFor := 0
	for _, rep := range out.reports {
		if held(rep, hid.KeyPause) {
			heldFor++
		}
	}
	if heldFor != hid.PauseTicks {
		t.Errorf("Pause held in %d reports, expected %d", heldFor, hid.PauseTicks)
	}
}
