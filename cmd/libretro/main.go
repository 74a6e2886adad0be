package main

import (
	"log"
	"os"

	libretro "github.com/user-none/eblitui/libretro"

	"github.com/user-none/em8bit/adapter"
	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/system"
	"github.com/user-none/em8bit/emu/system/chip8"
	"github.com/user-none/em8bit/emu/system/coleco"
)

// systemName selects the machine this core is built for:
//
//	go build -buildmode=c-shared -ldflags "-X main.systemName=nes" ./cmd/libretro
var systemName = "sms"

// padMapping is the usual layout: B and A are the two fire buttons.
var padMapping = []libretro.RetropadMapping{
	{RetroID: libretro.JoypadB, BitID: system.Button1},
	{RetroID: libretro.JoypadA, BitID: system.Button2},
	{RetroID: libretro.JoypadStart, BitID: system.ButtonStart},
	{RetroID: libretro.JoypadSelect, BitID: system.ButtonSelect},
}

// The keypad needs more buttons than a retropad, so the face and shoulder
// buttons carry the digits games use most.
var colecoMapping = []libretro.RetropadMapping{
	{RetroID: libretro.JoypadB, BitID: system.Button1},
	{RetroID: libretro.JoypadA, BitID: system.Button2},
	{RetroID: libretro.JoypadY, BitID: coleco.KeypadDigit0 + 1},
	{RetroID: libretro.JoypadX, BitID: coleco.KeypadDigit0 + 2},
	{RetroID: libretro.JoypadL, BitID: coleco.KeypadDigit0 + 3},
	{RetroID: libretro.JoypadR, BitID: coleco.KeypadDigit0 + 4},
	{RetroID: libretro.JoypadSelect, BitID: coleco.KeypadStar},
	{RetroID: libretro.JoypadStart, BitID: coleco.KeypadHash},
}

var chip8Mapping = []libretro.RetropadMapping{
	{RetroID: libretro.JoypadB, BitID: chip8.KeyBase + 0x5},
	{RetroID: libretro.JoypadA, BitID: chip8.KeyBase + 0x0},
	{RetroID: libretro.JoypadY, BitID: chip8.KeyBase + 0x1},
	{RetroID: libretro.JoypadX, BitID: chip8.KeyBase + 0x3},
	{RetroID: libretro.JoypadL, BitID: chip8.KeyBase + 0x7},
	{RetroID: libretro.JoypadR, BitID: chip8.KeyBase + 0x9},
	{RetroID: libretro.JoypadSelect, BitID: chip8.KeyBase + 0xE},
	{RetroID: libretro.JoypadStart, BitID: chip8.KeyBase + 0xF},
}

func init() {
	sys, err := cart.ParseSystem(systemName)
	if err != nil {
		log.Fatal(err)
	}
	// The frontend's BIOS lookup is not exposed to cores, so the path
	// comes from the environment.
	var bios []byte
	if path := os.Getenv("EM8BIT_BIOS"); path != "" {
		if bios, err = os.ReadFile(path); err != nil {
			log.Printf("BIOS not loaded: %v", err)
		}
	}
	factory, err := adapter.New(sys, bios)
	if err != nil {
		log.Fatal(err)
	}
	mapping := padMapping
	switch sys {
	case cart.Coleco:
		mapping = colecoMapping
	case cart.Chip8:
		mapping = chip8Mapping
	}
	libretro.RegisterFactory(factory, mapping)
}

func main() {}
