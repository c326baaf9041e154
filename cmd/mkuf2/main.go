// Command mkuf2 wraps a raw RP2040 flash image into a UF2 for the
// mass-storage bootloader, sealing the boot2 checksum on the way.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/drew-gpf/picoatxt/boot2"
	"github.com/drew-gpf/picoatxt/uf2"
)

func main() {
	out := flag.String("o", "picoatxt.uf2", "output file")
	base := flag.Uint("base", 0x10000000, "flash load address")
	noSeal := flag.Bool("noseal", false, "do not recompute the boot2 checksum")
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mkuf2 [flags] image.bin")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *out, uint32(*base), !*noSeal); err != nil {
		log.Fatal(err)
	}
}

func run(in, out string, base uint32, seal bool) error {
	image, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	if seal {
		if err := boot2.Seal(image); err != nil {
			return err
		}
	} else if !boot2.Valid(image) {
		return fmt.Errorf("%s: boot2 checksum invalid", in)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := uf2.Encode(f, uf2.FamilyRP2040, base, image); err != nil {
		return err
	}
	return f.Close()
}
