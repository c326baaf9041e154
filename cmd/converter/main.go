// Command converter turns an IBM PC/XT or PC/AT keyboard into a USB
// HID keyboard. It runs on a Raspberry Pi Pico wired to the keyboard
// through a 5 V level shifter; built for the host it runs the same
// logic against a simulated keyboard instead.
package main

func main() {
	run()
}
