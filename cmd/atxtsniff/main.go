// Command atxtsniff is a passive XT/AT bus analyzer for a Raspberry
// Pi wired to the keyboard lines. It samples DATA on CLK edges,
// decodes frames and key events as they happen, and can save the raw
// event stream as a capture for replay.
//
// Edge timestamps come from userspace, so the tool locks its memory
// and raises its priority to keep them honest; captures taken under
// load should still be read with suspicion.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/drew-gpf/picoatxt/hid"
	"github.com/drew-gpf/picoatxt/scancode"
	"github.com/drew-gpf/picoatxt/trace"
)

func main() {
	clkName := flag.String("clk", "GPIO17", "CLK pin")
	dataName := flag.String("data", "GPIO27", "DATA pin")
	proto := flag.String("protocol", "at", "bus protocol (xt, at)")
	out := flag.String("o", "", "write a capture file on exit")
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))

	var set scancode.Set
	var cycles int
	switch *proto {
	case "xt":
		set, cycles = scancode.SetXT, 9
	case "at":
		set, cycles = scancode.SetAT, 11
	default:
		fmt.Fprintf(os.Stderr, "unknown protocol %q\n", *proto)
		os.Exit(2)
	}

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	clk := gpioreg.ByName(*clkName)
	data := gpioreg.ByName(*dataName)
	if clk == nil || data == nil {
		log.Fatalf("no such pins: %s, %s", *clkName, *dataName)
	}
	for _, p := range []gpio.PinIn{clk, data} {
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			log.Fatalf("%s: %v", p, err)
		}
	}

	// Keep the sampler from paging or losing the CPU mid-frame.
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		log.Printf("mlockall: %v (timestamps may wobble)", err)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -20); err != nil {
		log.Printf("setpriority: %v (timestamps may wobble)", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	events := make(chan trace.Event, 256)
	go sample(clk, data, cycles, set, events)

	rec := &trace.Capture{Protocol: *proto}
	dec := scancode.NewDecoder(set)
loop:
	for {
		select {
		case ev := <-events:
			rec.Events = append(rec.Events, ev)
			report(&dec, ev)
		case <-quit:
			break loop
		}
	}
	if *out == "" {
		return
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := trace.Write(f, rec); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %d events", *out, len(rec.Events))
}

// sample turns CLK edges into trace events: every edge is recorded,
// and each run of falling edges is assembled into a frame.
func sample(clk, data gpio.PinIn, cycles int, set scancode.Set, events chan<- trace.Event) {
	start := time.Now()
	var (
		shift   uint16
		bits    int
		lastBit time.Time
	)
	for {
		if !clk.WaitForEdge(-1) {
			continue
		}
		now := time.Now()
		us := now.Sub(start).Microseconds()
		level := clk.Read()
		events <- trace.Event{Micros: us, Kind: trace.KindEdge, Value: levelByte(level)}
		if level != gpio.Low {
			continue
		}
		// A long gap means the previous frame died mid-flight.
		if bits > 0 && now.Sub(lastBit) > 4*time.Millisecond {
			events <- trace.Event{Micros: us, Kind: trace.KindBadFrame, Value: byte(shift)}
			shift, bits = 0, 0
		}
		lastBit = now
		if data.Read() == gpio.High {
			shift |= 1 << bits
		}
		bits++
		if bits < cycles {
			continue
		}
		ok := shift&1 == 1
		if set == scancode.SetAT {
			// Start bit clear and odd weight across data and parity.
			ones := 0
			for i := 1; i <= 9; i++ {
				ones += int(shift >> i & 1)
			}
			ok = shift&1 == 0 && ones%2 == 1
		}
		if ok {
			events <- trace.Event{Micros: us, Kind: trace.KindByte, Value: byte(shift >> 1)}
		} else {
			events <- trace.Event{Micros: us, Kind: trace.KindBadFrame, Value: byte(shift)}
		}
		shift, bits = 0, 0
	}
}

func report(dec *scancode.Decoder, e trace.Event) {
	switch e.Kind {
	case trace.KindByte:
		ev, res := dec.Decode(e.Value)
		switch res {
		case scancode.Key:
			dir := "break"
			if ev.Make {
				dir = "make"
			}
			log.Printf("%9.3fms  %02x  %s %s", float64(e.Micros)/1000, e.Value, hid.UsageName(ev.Usage), dir)
		case scancode.Overrun:
			log.Printf("%9.3fms  %02x  overrun", float64(e.Micros)/1000, e.Value)
		default:
			log.Printf("%9.3fms  %02x", float64(e.Micros)/1000, e.Value)
		}
	case trace.KindBadFrame:
		log.Printf("%9.3fms  bad frame (raw %#02x)", float64(e.Micros)/1000, e.Value)
	}
}

func levelByte(l gpio.Level) byte {
	if l == gpio.High {
		return 1
	}
	return 0
}
