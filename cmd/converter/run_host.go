//go:build !tinygo

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/drew-gpf/picoatxt/converter"
	"github.com/drew-gpf/picoatxt/driver/atxt"
	"github.com/drew-gpf/picoatxt/hid"
)

// The host build runs the converter against the simulated keyboard:
// useful for poking at the protocol logic without a board on the
// desk.
func run() {
	proto := flag.String("protocol", "xt", "simulated keyboard protocol (xt, at)")
	legacy := flag.Bool("legacy", false, "simulate a legacy XT board with no power-on BAT")
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))

	cfg := atxt.SimConfig{Legacy: *legacy, Runts: *legacy}
	switch *proto {
	case "xt":
		cfg.Protocol = atxt.ProtocolXT
	case "at":
		cfg.Protocol = atxt.ProtocolAT
	default:
		fmt.Fprintf(os.Stderr, "unknown protocol %q\n", *proto)
		os.Exit(2)
	}

	sim := atxt.NewSimulator(cfg)
	eng := sim.Engine()
	p, err := eng.Init()
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	log.Printf("detected %s keyboard (legacy=%v)", p, eng.Legacy())

	out := &printOutput{}
	conv := converter.New(eng, out, p)
	eng.Resume()

	// Type a few keys and run the 1 ms loop long enough to drain
	// them.
	if p == atxt.ProtocolXT {
		sim.Transmit(0x1e, 0x9e, 0x30, 0xb0, 0x2e, 0xae) // a b c
	} else {
		sim.Transmit(0x1c, 0xf0, 0x1c, 0x32, 0xf0, 0x32, 0x21, 0xf0, 0x21)
	}
	for i := 0; i < 40; i++ {
		sim.Advance(1_000)
		if err := conv.Process(); err != nil {
			log.Fatalf("process: %v", err)
		}
		if err := conv.Tick(); err != nil {
			log.Fatalf("tick: %v", err)
		}
	}
}

// printOutput dumps every non-duplicate report.
type printOutput struct {
	last []byte
}

func (o *printOutput) Ready() bool { return true }

func (o *printOutput) Send(report []byte) error {
	if string(report) == string(o.last) {
		return nil
	}
	o.last = append(o.last[:0], report...)
	var held []string
	for i := 0; i < len(report)-1; i++ {
		for bit := 0; bit < 8; bit++ {
			if report[i]&(1<<bit) != 0 {
				held = append(held, hid.UsageName(byte(hid.MinKey+i*8+bit)))
			}
		}
	}
	log.Printf("report %s held=%v", hex.EncodeToString(report), held)
	return nil
}

func (o *printOutput) Disconnect() {
	log.Println("usb disconnect")
}
