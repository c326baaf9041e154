package hid

// ReportDescriptor describes the bitmap-mode report: 168 key bits for
// usages MinKey..MinKey+167, the 8 modifier bits, and the lock-light
// output report. The boot protocol is selected by the host through
// Set_Protocol and needs no descriptor of its own.
var ReportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x06, // Usage (Keyboard)
	0xa1, 0x01, // Collection (Application)

	0x05, 0x07, //   Usage Page (Keyboard/Keypad)
	0x19, MinKey, //   Usage Minimum
	0x29, MinKey + NumKeyBits - 1, //   Usage Maximum
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, NumKeyBits, //   Report Count (168)
	0x81, 0x02, //   Input (Data, Variable, Absolute)

	0x19, KeyLeftCtrl, //   Usage Minimum (Left Control)
	0x29, KeyRightGUI, //   Usage Maximum (Right GUI)
	0x95, 0x08, //   Report Count (8)
	0x81, 0x02, //   Input (Data, Variable, Absolute)

	0x05, 0x08, //   Usage Page (LEDs)
	0x19, 0x01, //   Usage Minimum (Num Lock)
	0x29, 0x03, //   Usage Maximum (Scroll Lock)
	0x95, 0x03, //   Report Count (3)
	0x91, 0x02, //   Output (Data, Variable, Absolute)
	0x95, 0x05, //   Report Count (5)
	0x91, 0x01, //   Output (Constant)

	0xc0, // End Collection
}
