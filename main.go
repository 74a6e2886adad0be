package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/adapter"
	"github.com/user-none/em8bit/cli"
	"github.com/user-none/em8bit/emu/cart"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (required)")
	systemFlag := flag.String("system", "", "system: sms, gg, sg1000, sc3000, coleco, nes or chip8 (default from the ROM extension)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	biosPath := flag.String("bios", "", "path to the console BIOS (ColecoVision)")
	spriteLimit := flag.Bool("sprite-limit", true, "drop sprites past the per-line hardware limit")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("ROM path is required. Usage: em8bit -rom <path> [-system name]")
	}

	romData, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}
	var bios []byte
	if *biosPath != "" {
		if bios, err = os.ReadFile(*biosPath); err != nil {
			log.Fatalf("Failed to load BIOS: %v", err)
		}
	}

	sys, err := cart.SystemFromPath(*romPath)
	if *systemFlag != "" {
		sys, err = cart.ParseSystem(*systemFlag)
	}
	if err != nil {
		log.Fatal(err)
	}
	factory, err := adapter.New(sys, bios)
	if err != nil {
		log.Fatal(err)
	}

	var region emucore.Region
	switch strings.ToLower(*regionFlag) {
	case "auto":
		region, _ = factory.DetectRegion(romData)
	case "ntsc":
		region = emucore.RegionNTSC
	case "pal":
		region = emucore.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use auto, ntsc, or pal)", *regionFlag)
	}

	e, err := factory.CreateEmulator(romData, region)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}
	if !*spriteLimit {
		e.SetOption("sprite_limit", "false")
	}

	// Load SRAM save file if it exists
	srmPath := strings.TrimSuffix(*romPath, filepath.Ext(*romPath)) + ".srm"
	saver, battery := e.(emucore.BatterySaver)
	if battery && saver.HasSRAM() {
		if data, err := os.ReadFile(srmPath); err == nil {
			saver.SetSRAM(data)
		}
	}

	info := factory.SystemInfo()
	scale := 3
	if info.ScreenWidth < 160 {
		scale = 8
	}
	ebiten.SetWindowSize(int(float64(info.MaxScreenHeight)*info.AspectRatio)*scale, info.MaxScreenHeight*scale)
	ebiten.SetWindowTitle(info.ConsoleName + " - " + filepath.Base(*romPath))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	defer e.Close()

	// Save SRAM on exit, after the runner has stopped the emulation goroutine
	defer func() {
		if battery && saver.HasSRAM() {
			if err := os.WriteFile(srmPath, saver.GetSRAM(), 0644); err != nil {
				log.Printf("Failed to write %s: %v", srmPath, err)
			}
		}
	}()

	runner := cli.NewRunner(e, info)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
