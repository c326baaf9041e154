// Command picolog tails the converter's UART console, the only place
// errors surface once the board is in its blink-and-repeat state.
package main

import (
	"bufio"
	"flag"
	"log"
	"time"

	"github.com/tarm/serial"
)

func main() {
	dev := flag.String("dev", "/dev/ttyUSB0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))

	port, err := serial.OpenPort(&serial.Config{Name: *dev, Baud: *baud})
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	start := time.Now()
	sc := bufio.NewScanner(port)
	for sc.Scan() {
		log.Printf("[%8.3fs] %s", time.Since(start).Seconds(), sc.Text())
	}
	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}
}
