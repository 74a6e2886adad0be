//go:build !libretro && !ios

package main

import (
	"flag"
	"log"
	"os"

	"github.com/user-none/eblitui/standalone"

	"github.com/user-none/em8bit/adapter"
	"github.com/user-none/em8bit/emu/cart"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (opens UI if not provided)")
	systemFlag := flag.String("system", "", "system: sms, gg, sg1000, sc3000, coleco, nes or chip8 (default from the ROM extension, sms for the UI)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	biosPath := flag.String("bios", "", "path to the console BIOS (ColecoVision)")
	spriteLimit := flag.Bool("sprite-limit", true, "drop sprites past the per-line hardware limit")
	flag.Parse()

	sys, err := pickSystem(*systemFlag, *romPath)
	if err != nil {
		log.Fatal(err)
	}

	var bios []byte
	if *biosPath != "" {
		if bios, err = os.ReadFile(*biosPath); err != nil {
			log.Fatalf("Failed to load BIOS: %v", err)
		}
	}

	factory, err := adapter.New(sys, bios)
	if err != nil {
		log.Fatal(err)
	}

	if *romPath != "" {
		options := map[string]string{}
		if *spriteLimit {
			options["sprite_limit"] = "true"
		} else {
			options["sprite_limit"] = "false"
		}
		if err := standalone.RunDirect(factory, *romPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}

func pickSystem(name, romPath string) (cart.System, error) {
	switch {
	case name != "":
		return cart.ParseSystem(name)
	case romPath != "":
		return cart.SystemFromPath(romPath)
	default:
		return cart.SMS, nil
	}
}
