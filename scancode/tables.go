package scancode

import "github.com/drew-gpf/picoatxt/hid"

// The tables below reproduce the IBM scan-code sets; they are
// reference data, not policy. Unlisted cells decode to nothing.

type mapping struct {
	code  byte
	usage byte
}

var (
	xtTables = buildXT()
	atTables = buildAT()
)

func newTable(pairs []mapping) (t [256]byte) {
	for _, m := range pairs {
		t[m.code] = m.usage
	}
	return
}

// fillBreaks marks every unassigned cell with bit 7 set as an XT
// release of the corresponding make code.
func fillBreaks(t *[256]byte) {
	for c := 0x80; c < 0x100; c++ {
		if t[c] == codeNone {
			t[c] = codeBreak
		}
	}
}

// Scan-code set 1.
var xtNormal = []mapping{
	{0x01, hid.KeyEscape},
	{0x02, hid.Key1},
	{0x03, hid.Key2},
	{0x04, hid.Key3},
	{0x05, hid.Key4},
	{0x06, hid.Key5},
	{0x07, hid.Key6},
	{0x08, hid.Key7},
	{0x09, hid.Key8},
	{0x0a, hid.Key9},
	{0x0b, hid.Key0},
	{0x0c, hid.KeyMinus},
	{0x0d, hid.KeyEqual},
	{0x0e, hid.KeyBackspace},
	{0x0f, hid.KeyTab},
	{0x10, hid.KeyQ},
	{0x11, hid.KeyW},
	{0x12, hid.KeyE},
	{0x13, hid.KeyR},
	{0x14, hid.KeyT},
	{0x15, hid.KeyY},
	{0x16, hid.KeyU},
	{0x17, hid.KeyI},
	{0x18, hid.KeyO},
	{0x19, hid.KeyP},
	{0x1a, hid.KeyLeftBrace},
	{0x1b, hid.KeyRightBrace},
	{0x1c, hid.KeyEnter},
	{0x1d, hid.KeyLeftCtrl},
	{0x1e, hid.KeyA},
	{0x1f, hid.KeyS},
	{0x20, hid.KeyD},
	{0x21, hid.KeyF},
	{0x22, hid.KeyG},
	{0x23, hid.KeyH},
	{0x24, hid.KeyJ},
	{0x25, hid.KeyK},
	{0x26, hid.KeyL},
	{0x27, hid.KeySemicolon},
	{0x28, hid.KeyApostrophe},
	{0x29, hid.KeyGrave},
	{0x2a, hid.KeyLeftShift},
	{0x2b, hid.KeyBackslash},
	{0x2c, hid.KeyZ},
	{0x2d, hid.KeyX},
	{0x2e, hid.KeyC},
	{0x2f, hid.KeyV},
	{0x30, hid.KeyB},
	{0x31, hid.KeyN},
	{0x32, hid.KeyM},
	{0x33, hid.KeyComma},
	{0x34, hid.KeyDot},
	{0x35, hid.KeySlash},
	{0x36, hid.KeyRightShift},
	{0x37, hid.KeyKpAsterisk},
	{0x38, hid.KeyLeftAlt},
	{0x39, hid.KeySpace},
	{0x3a, hid.KeyCapsLock},
	{0x3b, hid.KeyF1},
	{0x3c, hid.KeyF2},
	{0x3d, hid.KeyF3},
	{0x3e, hid.KeyF4},
	{0x3f, hid.KeyF5},
	{0x40, hid.KeyF6},
	{0x41, hid.KeyF7},
	{0x42, hid.KeyF8},
	{0x43, hid.KeyF9},
	{0x44, hid.KeyF10},
	{0x45, hid.KeyNumLock},
	{0x46, hid.KeyScrollLock},
	{0x47, hid.KeyKp7},
	{0x48, hid.KeyKp8},
	{0x49, hid.KeyKp9},
	{0x4a, hid.KeyKpMinus},
	{0x4b, hid.KeyKp4},
	{0x4c, hid.KeyKp5},
	{0x4d, hid.KeyKp6},
	{0x4e, hid.KeyKpPlus},
	{0x4f, hid.KeyKp1},
	{0x50, hid.KeyKp2},
	{0x51, hid.KeyKp3},
	{0x52, hid.KeyKp0},
	{0x53, hid.KeyKpDot},
	{0x56, hid.Key102nd},
	{0x57, hid.KeyF11},
	{0x58, hid.KeyF12},
}

// Scan-code set 1, 0xE0-prefixed. 0xE0 0x2A is the fake shift around
// Print Screen; it stays unmapped and resets the prefix, which is
// exactly what the sequence needs.
var xtExtended = []mapping{
	{0x1c, hid.KeyKpEnter},
	{0x1d, hid.KeyRightCtrl},
	{0x35, hid.KeyKpSlash},
	{0x37, hid.KeyPrintScreen},
	{0x38, hid.KeyRightAlt},
	{0x47, hid.KeyHome},
	{0x48, hid.KeyUp},
	{0x49, hid.KeyPageUp},
	{0x4b, hid.KeyLeft},
	{0x4d, hid.KeyRight},
	{0x4f, hid.KeyEnd},
	{0x50, hid.KeyDown},
	{0x51, hid.KeyPageDown},
	{0x52, hid.KeyInsert},
	{0x53, hid.KeyDelete},
	{0x5b, hid.KeyLeftGUI},
	{0x5c, hid.KeyRightGUI},
	{0x5d, hid.KeyCompose},
}

func buildXT() (t [numShiftStates][256]byte) {
	t[shiftNormal] = newTable(xtNormal)
	t[shiftExtended] = newTable(xtExtended)
	fillBreaks(&t[shiftNormal])
	fillBreaks(&t[shiftExtended])
	t[shiftNormal][0x00] = codeOverrun
	t[shiftNormal][0xff] = codeOverrun
	t[shiftNormal][0xe0] = codeExtended
	t[shiftNormal][0xe1] = codeExtended

	// Pause is E1 1D 45 E1 9D C5, make only.
	t[shiftPause][0x1d] = codeExtended
	t[shiftPause][0x9d] = codeExtended
	t[shiftPauseNext][0x45] = hid.KeyPause
	fillBreaks(&t[shiftPauseNext])
	return
}

// Scan-code set 2.
var atNormal = []mapping{
	{0x01, hid.KeyF9},
	{0x03, hid.KeyF5},
	{0x04, hid.KeyF3},
	{0x05, hid.KeyF1},
	{0x06, hid.KeyF2},
	{0x07, hid.KeyF12},
	{0x09, hid.KeyF10},
	{0x0a, hid.KeyF8},
	{0x0b, hid.KeyF6},
	{0x0c, hid.KeyF4},
	{0x0d, hid.KeyTab},
	{0x0e, hid.KeyGrave},
	{0x11, hid.KeyLeftAlt},
	{0x12, hid.KeyLeftShift},
	{0x14, hid.KeyLeftCtrl},
	{0x15, hid.KeyQ},
	{0x16, hid.Key1},
	{0x1a, hid.KeyZ},
	{0x1b, hid.KeyS},
	{0x1c, hid.KeyA},
	{0x1d, hid.KeyW},
	{0x1e, hid.Key2},
	{0x21, hid.KeyC},
	{0x22, hid.KeyX},
	{0x23, hid.KeyD},
	{0x24, hid.KeyE},
	{0x25, hid.Key4},
	{0x26, hid.Key3},
	{0x29, hid.KeySpace},
	{0x2a, hid.KeyV},
	{0x2b, hid.KeyF},
	{0x2c, hid.KeyT},
	{0x2d, hid.KeyR},
	{0x2e, hid.Key5},
	{0x31, hid.KeyN},
	{0x32, hid.KeyB},
	{0x33, hid.KeyH},
	{0x34, hid.KeyG},
	{0x35, hid.KeyY},
	{0x36, hid.Key6},
	{0x3a, hid.KeyM},
	{0x3b, hid.KeyJ},
	{0x3c, hid.KeyU},
	{0x3d, hid.Key7},
	{0x3e, hid.Key8},
	{0x41, hid.KeyComma},
	{0x42, hid.KeyK},
	{0x43, hid.KeyI},
	{0x44, hid.KeyO},
	{0x45, hid.Key0},
	{0x46, hid.Key9},
	{0x49, hid.KeyDot},
	{0x4a, hid.KeySlash},
	{0x4b, hid.KeyL},
	{0x4c, hid.KeySemicolon},
	{0x4d, hid.KeyP},
	{0x4e, hid.KeyMinus},
	{0x52, hid.KeyApostrophe},
	{0x54, hid.KeyLeftBrace},
	{0x55, hid.KeyEqual},
	{0x58, hid.KeyCapsLock},
	{0x59, hid.KeyRightShift},
	{0x5a, hid.KeyEnter},
	{0x5b, hid.KeyRightBrace},
	{0x5d, hid.KeyBackslash},
	{0x61, hid.Key102nd},
	{0x66, hid.KeyBackspace},
	{0x69, hid.KeyKp1},
	{0x6b, hid.KeyKp4},
	{0x6c, hid.KeyKp7},
	{0x70, hid.KeyKp0},
	{0x71, hid.KeyKpDot},
	{0x72, hid.KeyKp2},
	{0x73, hid.KeyKp5},
	{0x74, hid.KeyKp6},
	{0x75, hid.KeyKp8},
	{0x76, hid.KeyEscape},
	{0x77, hid.KeyNumLock},
	{0x78, hid.KeyF11},
	{0x79, hid.KeyKpPlus},
	{0x7a, hid.KeyKp3},
	{0x7b, hid.KeyKpMinus},
	{0x7c, hid.KeyKpAsterisk},
	{0x7d, hid.KeyKp9},
	{0x7e, hid.KeyScrollLock},
	{0x83, hid.KeyF7},
}

// Scan-code set 2, 0xE0-prefixed. 0xE0 0x12 is the fake shift around
// Print Screen and stays unmapped.
var atExtended = []mapping{
	{0x11, hid.KeyRightAlt},
	{0x14, hid.KeyRightCtrl},
	{0x1f, hid.KeyLeftGUI},
	{0x27, hid.KeyRightGUI},
	{0x2f, hid.KeyCompose},
	{0x4a, hid.KeyKpSlash},
	{0x5a, hid.KeyKpEnter},
	{0x69, hid.KeyEnd},
	{0x6b, hid.KeyLeft},
	{0x6c, hid.KeyHome},
	{0x70, hid.KeyInsert},
	{0x71, hid.KeyDelete},
	{0x72, hid.KeyDown},
	{0x74, hid.KeyRight},
	{0x75, hid.KeyUp},
	{0x7a, hid.KeyPageDown},
	{0x7c, hid.KeyPrintScreen},
	{0x7d, hid.KeyPageUp},
}

func buildAT() (t [numShiftStates][256]byte) {
	t[shiftNormal] = newTable(atNormal)
	t[shiftExtended] = newTable(atExtended)
	t[shiftNormal][0x00] = codeOverrun
	t[shiftNormal][0xff] = codeOverrun
	t[shiftNormal][0xe0] = codeExtended
	t[shiftNormal][0xe1] = codeExtended
	t[shiftNormal][0xf0] = codeBreakNext
	t[shiftExtended][0xf0] = codeBreakNext

	// Pause is E1 14 77 E1 F0 14 F0 77, make only. The break half
	// decodes to a Pause release, which the report layer discards.
	t[shiftPause][0x14] = codeExtended
	t[shiftPause][0xf0] = codeBreakNext
	t[shiftPauseNext][0x77] = hid.KeyPause
	t[shiftPauseNext][0xf0] = codeBreakNext
	return
}
