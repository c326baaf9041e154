// Package hid maintains the set of currently held keys and renders it
// as USB HID keyboard reports, in either the 22-byte bitmap format or
// the legacy 8-byte boot format.
package hid

const (
	// ReportSize is the size of a bitmap-mode input report: 21 bytes
	// of key bits followed by the modifier byte.
	ReportSize = 22
	// BootReportSize is the size of a boot-protocol input report.
	BootReportSize = 8

	// MinKey is the first usage represented in the bitmap.
	MinKey = KeyA
	// NumKeyBits is the number of non-modifier usages in the bitmap.
	NumKeyBits = (ReportSize - 1) * 8

	modifierIndex = ReportSize - 1
	modifierBase  = KeyLeftCtrl

	bootMaxKeys = 6

	// PauseTicks is how many 1 ms report intervals the Pause key is
	// held after its make sequence. Pause has no break sequence on
	// the wire.
	PauseTicks = 33
)

// LEDs is the lock-light state as last set by the host.
type LEDs struct {
	Num    bool
	Caps   bool
	Scroll bool
}

// LEDsFromReport unpacks the host's output report: bit 0 Num Lock,
// bit 1 Caps Lock, bit 2 Scroll Lock.
func LEDsFromReport(b byte) LEDs {
	return LEDs{
		Num:    b&0b001 != 0,
		Caps:   b&0b010 != 0,
		Scroll: b&0b100 != 0,
	}
}

// ATByte packs the lock lights for the keyboard's 0xED payload:
// bit 0 Scroll Lock, bit 1 Num Lock, bit 2 Caps Lock.
func (l LEDs) ATByte() byte {
	var b byte
	if l.Scroll {
		b |= 0b001
	}
	if l.Num {
		b |= 0b010
	}
	if l.Caps {
		b |= 0b100
	}
	return b
}

func (l LEDs) Any() bool {
	return l.Num || l.Caps || l.Scroll
}

// State is the bitmap of held keys plus the policy state that feeds
// it: the macro layers, the Pause hold countdown and duplicate-report
// tracking.
type State struct {
	// LEDs is the lock-light state, which selects the macro layers.
	LEDs LEDs

	keys       [ReportSize]byte
	pauseTicks uint8
	duplicate  bool
}

// Macro pairs. The first element is the key as it exists on the
// keyboard, the second the key it becomes when the layer is active.
// Whenever either of a pair changes state the opposite key is forced
// to released, so the host never sees both.
var fkeyPairs = [...][2]byte{
	{KeyF9, KeyF11},
	{KeyF10, KeyF12},
}

// The keypad becomes the navigation cluster when Num Lock is off.
// Keypad 5 has no counterpart and stays itself.
var keypadPairs = [...][2]byte{
	{KeyKp0, KeyInsert},
	{KeyKp1, KeyEnd},
	{KeyKp2, KeyDown},
	{KeyKp3, KeyPageDown},
	{KeyKp4, KeyLeft},
	{KeyKp6, KeyRight},
	{KeyKp7, KeyHome},
	{KeyKp8, KeyUp},
	{KeyKp9, KeyPageUp},
	{KeyKpDot, KeyDelete},
}

// Key applies a key transition from the translator.
func (s *State) Key(usage byte, make bool) {
	if usage == KeyPause {
		// Pause only ever appears as a make; the hold is timed out
		// by Tick.
		if make {
			s.pauseTicks = PauseTicks
			s.set(KeyPause, true)
		}
		return
	}
	if target, opposite, ok := s.remap(usage); ok {
		s.set(opposite, false)
		s.set(target, make)
		return
	}
	s.set(usage, make)
}

func (s *State) remap(usage byte) (target, opposite byte, ok bool) {
	for _, p := range fkeyPairs {
		switch usage {
		case p[0]:
			if s.LEDs.Scroll {
				return p[1], p[0], true
			}
			return p[0], p[1], true
		case p[1]:
			return p[1], p[0], true
		}
	}
	for _, p := range keypadPairs {
		switch usage {
		case p[0]:
			if !s.LEDs.Num {
				return p[1], p[0], true
			}
			return p[0], p[1], true
		case p[1]:
			return p[1], p[0], true
		}
	}
	return 0, 0, false
}

func (s *State) set(usage byte, held bool) {
	idx, bit, ok := bitpos(usage)
	if !ok {
		return
	}
	mask := byte(1) << bit
	if (s.keys[idx]&mask != 0) == held {
		return
	}
	if held {
		s.keys[idx] |= mask
	} else {
		s.keys[idx] &^= mask
	}
	s.duplicate = false
}

func bitpos(usage byte) (idx, bit int, ok bool) {
	if usage >= modifierBase {
		if usage > KeyRightGUI {
			return 0, 0, false
		}
		return modifierIndex, int(usage & 0b111), true
	}
	if usage < MinKey || usage >= MinKey+NumKeyBits {
		return 0, 0, false
	}
	n := int(usage - MinKey)
	return n / 8, n % 8, true
}

// Held reports whether a usage, modifier or not, is currently down.
func (s *State) Held(usage byte) bool {
	idx, bit, ok := bitpos(usage)
	return ok && s.keys[idx]&(1<<bit) != 0
}

// Clear releases every key, as on keyboard reset, overrun and
// bootloader escape.
func (s *State) Clear() {
	for i, b := range s.keys {
		if b != 0 {
			s.duplicate = false
		}
		s.keys[i] = 0
	}
	s.pauseTicks = 0
}

// Tick advances the 1 ms heartbeat: the Pause hold counts down and
// releases when it reaches zero.
func (s *State) Tick() {
	if s.pauseTicks > 0 {
		s.pauseTicks--
		if s.pauseTicks == 0 {
			s.set(KeyPause, false)
		}
	}
}

// Report fills buf with the bitmap-mode input report.
func (s *State) Report(buf *[ReportSize]byte) {
	*buf = s.keys
}

// BootReport fills buf with the 8-byte boot-protocol report: the
// modifier byte, a reserved byte, then up to six usages scanned from
// the low end of the bitmap. More than six held keys reports the
// roll-over usage in every slot.
func (s *State) BootReport(buf *[BootReportSize]byte) {
	*buf = [BootReportSize]byte{}
	buf[0] = s.keys[modifierIndex]
	n := 0
	for i := 0; i < modifierIndex; i++ {
		b := s.keys[i]
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) == 0 {
				continue
			}
			if n == bootMaxKeys {
				for j := 2; j < BootReportSize; j++ {
					buf[j] = UsageOverrun
				}
				return
			}
			buf[2+n] = byte(MinKey + i*8 + bit)
			n++
		}
	}
}

// Duplicate reports whether the next report would be identical to the
// last one sent.
func (s *State) Duplicate() bool {
	return s.duplicate
}

// MarkSent records that the current state has been reported.
func (s *State) MarkSent() {
	s.duplicate = true
}

// Invalidate forces the next report to be sent even if unchanged, for
// host-visible mode switches.
func (s *State) Invalidate() {
	s.duplicate = false
}
