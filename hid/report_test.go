package hid

import (
	"bytes"
	"testing"
)

func TestBitmapIndexing(t *testing.T) {
	var s State
	s.Key(KeyA, true)
	var rep [ReportSize]byte
	s.Report(&rep)
	if rep[0] != 0b1 {
		t.Errorf("A: got byte 0 = %#02x, expected bit 0", rep[0])
	}
	s.Key(KeyA, false)
	s.Key(KeyRightShift, true)
	s.Report(&rep)
	if rep[0] != 0 {
		t.Error("A still held after release")
	}
	if rep[21] != 1<<(KeyRightShift&0b111) {
		t.Errorf("RightShift: got modifier byte %#02x", rep[21])
	}
}

func TestHeld(t *testing.T) {
	var s State
	s.Key(KeyScrollLock, true)
	s.Key(KeyLeftCtrl, true)
	if !s.Held(KeyScrollLock) || !s.Held(KeyLeftCtrl) || s.Held(KeyA) {
		t.Error("Held does not match key state")
	}
}

// With Scroll Lock off F9 stays F9 and never touches F11; toggling
// the layer mid-hold releases both halves of the pair.
func TestFkeyMacroCoherence(t *testing.T) {
	var s State
	s.Key(KeyF9, true)
	if !s.Held(KeyF9) || s.Held(KeyF11) {
		t.Fatal("F9 make leaked into F11")
	}
	s.Key(KeyF9, false)
	if s.Held(KeyF9) || s.Held(KeyF11) {
		t.Fatal("F9 break left residue")
	}

	s.Key(KeyF9, true)
	s.LEDs.Scroll = true
	s.Key(KeyF9, false)
	if s.Held(KeyF9) || s.Held(KeyF11) {
		t.Error("layer toggle mid-hold left a key down")
	}
}

func TestKeypadMacro(t *testing.T) {
	var s State
	// Num Lock off: the keypad is the navigation cluster.
	s.Key(KeyKp8, true)
	if !s.Held(KeyUp) || s.Held(KeyKp8) {
		t.Error("Kp8 did not become Up with Num Lock off")
	}
	s.Key(KeyKp8, false)
	s.LEDs.Num = true
	s.Key(KeyKp8, true)
	if !s.Held(KeyKp8) || s.Held(KeyUp) {
		t.Error("Kp8 remapped with Num Lock on")
	}
	// Kp5 has no counterpart in either layer.
	s.LEDs.Num = false
	s.Key(KeyKp5, true)
	if !s.Held(KeyKp5) {
		t.Error("Kp5 was remapped")
	}
}

// A Pause make holds the bit for exactly PauseTicks report intervals
// with no wire break needed.
func TestPauseOneShot(t *testing.T) {
	var s State
	s.Key(KeyPause, true)
	held := 0
	for i := 0; i < 2*PauseTicks; i++ {
		if s.Held(KeyPause) {
			held++
		}
		s.Tick()
	}
	if held != PauseTicks {
		t.Errorf("Pause held for %d ticks, expected %d", held, PauseTicks)
	}
	// Wire-level breaks are discarded.
	s.Key(KeyPause, true)
	s.Key(KeyPause, false)
	if !s.Held(KeyPause) {
		t.Error("a Pause break released the key early")
	}
}

func TestDuplicateTracking(t *testing.T) {
	var s State
	s.MarkSent()
	if !s.Duplicate() {
		t.Fatal("MarkSent did not latch")
	}
	s.Key(KeyA, true)
	if s.Duplicate() {
		t.Fatal("a key change left the report marked duplicate")
	}
	s.MarkSent()
	// Re-pressing a held key changes nothing.
	s.Key(KeyA, true)
	if !s.Duplicate() {
		t.Error("a no-op transition cleared the duplicate mark")
	}
}

func TestClear(t *testing.T) {
	var s State
	s.Key(KeyA, true)
	s.Key(KeyLeftShift, true)
	s.Key(KeyPause, true)
	s.MarkSent()
	s.Clear()
	var rep [ReportSize]byte
	s.Report(&rep)
	if rep != ([ReportSize]byte{}) {
		t.Error("Clear left keys held")
	}
	if s.Duplicate() {
		t.Error("Clear did not invalidate the report")
	}
	s.Tick()
	if s.Held(KeyPause) {
		t.Error("Pause countdown survived Clear")
	}
}

func TestBootReport(t *testing.T) {
	var s State
	s.Key(KeyA, true)
	s.Key(KeyB, true)
	s.Key(KeyLeftShift, true)
	var rep [BootReportSize]byte
	s.BootReport(&rep)
	want := [BootReportSize]byte{1 << (KeyLeftShift & 0b111), 0, KeyA, KeyB, 0, 0, 0, 0}
	if rep != want {
		t.Errorf("got % x, expected % x", rep, want)
	}
}

func TestBootReportOverrun(t *testing.T) {
	var s State
	for _, u := range []byte{KeyA, KeyB, KeyC, KeyD, KeyE, KeyF, KeyG} {
		s.Key(u, true)
	}
	var rep [BootReportSize]byte
	s.BootReport(&rep)
	if !bytes.Equal(rep[2:], []byte{UsageOverrun, UsageOverrun, UsageOverrun, UsageOverrun, UsageOverrun, UsageOverrun}) {
		t.Errorf("got % x, expected roll-over fill", rep)
	}
}

func TestLEDs(t *testing.T) {
	l := LEDsFromReport(0b101)
	if !l.Num || l.Caps || !l.Scroll {
		t.Errorf("unpacked %+v from 0b101", l)
	}
	all := LEDs{Num: true, Caps: true, Scroll: true}
	if got := all.ATByte(); got != 0b111 {
		t.Errorf("ATByte() = %#03b, expected 0b111", got)
	}
	if (LEDs{}).Any() || !all.Any() {
		t.Error("Any is wrong")
	}
	if got := (LEDs{Scroll: true}).ATByte(); got != 0b001 {
		t.Errorf("Scroll alone packs to %#03b, expected bit 0", got)
	}
}
