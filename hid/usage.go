package hid

// USB HID usage codes from the keyboard/keypad page (0x07).
const (
	UsageNone    = 0x00
	UsageOverrun = 0x01 // ErrorRollOver

	KeyA = 0x04 + iota - 2
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeySpace
	KeyMinus
	KeyEqual
	KeyLeftBrace
	KeyRightBrace
	KeyBackslash
	KeyHashTilde
	KeySemicolon
	KeyApostrophe
	KeyGrave
	KeyComma
	KeyDot
	KeySlash
	KeyCapsLock
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyPrintScreen
	KeyScrollLock
	KeyPause
	KeyInsert
	KeyHome
	KeyPageUp
	KeyDelete
	KeyEnd
	KeyPageDown
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyNumLock
	KeyKpSlash
	KeyKpAsterisk
	KeyKpMinus
	KeyKpPlus
	KeyKpEnter
	KeyKp1
	KeyKp2
	KeyKp3
	KeyKp4
	KeyKp5
	KeyKp6
	KeyKp7
	KeyKp8
	KeyKp9
	KeyKp0
	KeyKpDot
	Key102nd
	KeyCompose
)

// Modifier usages. Their bit position in the modifier byte is the low
// three bits of the usage.
const (
	KeyLeftCtrl = 0xe0 + iota
	KeyLeftShift
	KeyLeftAlt
	KeyLeftGUI
	KeyRightCtrl
	KeyRightShift
	KeyRightAlt
	KeyRightGUI
)

var usageNames = map[byte]string{
	UsageOverrun:   "Overrun",
	KeyEnter:       "Enter",
	KeyEscape:      "Escape",
	KeyBackspace:   "Backspace",
	KeyTab:         "Tab",
	KeySpace:       "Space",
	KeyMinus:       "-",
	KeyEqual:       "=",
	KeyLeftBrace:   "[",
	KeyRightBrace:  "]",
	KeyBackslash:   "\\",
	KeyHashTilde:   "#",
	KeySemicolon:   ";",
	KeyApostrophe:  "'",
	KeyGrave:       "`",
	KeyComma:       ",",
	KeyDot:         ".",
	KeySlash:       "/",
	KeyCapsLock:    "CapsLock",
	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyPause:       "Pause",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyPageUp:      "PageUp",
	KeyDelete:      "Delete",
	KeyEnd:         "End",
	KeyPageDown:    "PageDown",
	KeyRight:       "Right",
	KeyLeft:        "Left",
	KeyDown:        "Down",
	KeyUp:          "Up",
	KeyNumLock:     "NumLock",
	KeyKpSlash:     "Kp/",
	KeyKpAsterisk:  "Kp*",
	KeyKpMinus:     "Kp-",
	KeyKpPlus:      "Kp+",
	KeyKpEnter:     "KpEnter",
	KeyKpDot:       "Kp.",
	Key102nd:       "102nd",
	KeyCompose:     "Compose",
	KeyLeftCtrl:    "LeftCtrl",
	KeyLeftShift:   "LeftShift",
	KeyLeftAlt:     "LeftAlt",
	KeyLeftGUI:     "LeftGUI",
	KeyRightCtrl:   "RightCtrl",
	KeyRightShift:  "RightShift",
	KeyRightAlt:    "RightAlt",
	KeyRightGUI:    "RightGUI",
}

var fkeyNames = [...]string{"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12"}

// UsageName returns a printable name for a keyboard usage code.
func UsageName(u byte) string {
	if n, ok := usageNames[u]; ok {
		return n
	}
	switch {
	case u >= KeyA && u <= KeyZ:
		return string(rune('A' + u - KeyA))
	case u >= Key1 && u <= Key9:
		return string(rune('1' + u - Key1))
	case u == Key0:
		return "0"
	case u >= KeyF1 && u <= KeyF12:
		return fkeyNames[u-KeyF1]
	case u >= KeyKp1 && u <= KeyKp9:
		return "Kp" + string(rune('1'+u-KeyKp1))
	case u == KeyKp0:
		return "Kp0"
	}
	return "?"
}
