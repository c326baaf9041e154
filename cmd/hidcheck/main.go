// Command hidcheck verifies a converter from the host side: it finds
// the USB HID interface, streams input reports and prints the keys
// they carry. Handy for confirming the bitmap layout against what the
// OS actually receives.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"github.com/google/gousb"

	"github.com/drew-gpf/picoatxt/hid"
)

func main() {
	vid := flag.Uint("vid", 0x2e8a, "vendor ID")
	pid := flag.Uint("pid", 0x000a, "product ID")
	count := flag.Int("n", 0, "stop after this many reports (0 = forever)")
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	if err := run(gousb.ID(*vid), gousb.ID(*pid), *count); err != nil {
		log.Fatal(err)
	}
}

func run(vid, pid gousb.ID, count int) error {
	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		return err
	}
	if dev == nil {
		return fmt.Errorf("no device %s:%s", vid, pid)
	}
	defer dev.Close()
	if err := dev.SetAutoDetach(true); err != nil {
		return err
	}

	cfg, err := dev.Config(1)
	if err != nil {
		return err
	}
	defer cfg.Close()

	intf, ep, err := findHID(cfg)
	if err != nil {
		return err
	}
	defer intf.Close()

	in, err := intf.InEndpoint(ep)
	if err != nil {
		return err
	}
	log.Printf("reading %d-byte reports from %s", in.Desc.MaxPacketSize, dev)
	buf := make([]byte, in.Desc.MaxPacketSize)
	for n := 0; count == 0 || n < count; n++ {
		r, err := in.Read(buf)
		if err != nil {
			return err
		}
		printReport(buf[:r])
	}
	return nil
}

func findHID(cfg *gousb.Config) (*gousb.Interface, int, error) {
	for _, desc := range cfg.Desc.Interfaces {
		for _, alt := range desc.AltSettings {
			if alt.Class != gousb.ClassHID {
				continue
			}
			for _, ep := range alt.Endpoints {
				if ep.Direction != gousb.EndpointDirectionIn {
					continue
				}
				intf, err := cfg.Interface(desc.Number, alt.Alternate)
				if err != nil {
					return nil, 0, err
				}
				return intf, ep.Number, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("%s: no HID IN endpoint", cfg)
}

func printReport(rep []byte) {
	var held []string
	switch len(rep) {
	case hid.BootReportSize:
		for _, u := range rep[2:] {
			if u != 0 {
				held = append(held, hid.UsageName(u))
			}
		}
		held = append(held, modifiers(rep[0])...)
	case hid.ReportSize:
		for i := 0; i < hid.ReportSize-1; i++ {
			for bit := 0; bit < 8; bit++ {
				if rep[i]&(1<<bit) != 0 {
					held = append(held, hid.UsageName(byte(hid.MinKey+i*8+bit)))
				}
			}
		}
		held = append(held, modifiers(rep[hid.ReportSize-1])...)
	}
	log.Printf("%s held=%v", hex.EncodeToString(rep), held)
}

func modifiers(b byte) []string {
	var held []string
	for bit := 0; bit < 8; bit++ {
		if b&(1<<bit) != 0 {
			held = append(held, hid.UsageName(byte(hid.KeyLeftCtrl+bit)))
		}
	}
	return held
}
