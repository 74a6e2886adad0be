package adapter

import (
	"strconv"

	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/system"
	"github.com/user-none/em8bit/emu/system/chip8"
	"github.com/user-none/em8bit/emu/system/coleco"
	"github.com/user-none/em8bit/emu/system/nes"
)

var spriteLimit = emucore.CoreOption{
	Key:         "sprite_limit",
	Label:       "Sprite Limit",
	Description: "Drop sprites past the per-line hardware limit. Disabling removes flicker but breaks games that rely on it",
	Type:        emucore.CoreOptionBool,
	Default:     "true",
	Category:    emucore.CoreOptionCategoryVideo,
}

var segaButtons = []emucore.Button{
	{Name: "1", ID: system.Button1, DefaultKey: "J", DefaultPad: "A"},
	{Name: "2", ID: system.Button2, DefaultKey: "K", DefaultPad: "B"},
}

func withStart(name string) []emucore.Button {
	return append(segaButtons[:len(segaButtons):len(segaButtons)],
		emucore.Button{Name: name, ID: system.ButtonStart, DefaultKey: "Enter", DefaultPad: "Start"})
}

func colecoButtons() []emucore.Button {
	b := []emucore.Button{
		{Name: "Left Fire", ID: system.Button1, DefaultKey: "J", DefaultPad: "A"},
		{Name: "Right Fire", ID: system.Button2, DefaultKey: "K", DefaultPad: "B"},
	}
	for i := 0; i < 10; i++ {
		b = append(b, emucore.Button{Name: strconv.Itoa(i), ID: coleco.KeypadDigit0 + i, DefaultKey: strconv.Itoa(i)})
	}
	return append(b,
		emucore.Button{Name: "*", ID: coleco.KeypadStar, DefaultKey: "Minus", DefaultPad: "Select"},
		emucore.Button{Name: "#", ID: coleco.KeypadHash, DefaultKey: "Equal", DefaultPad: "Start"},
	)
}

// chip8Layout is the COSMAC VIP keypad laid over the left of a keyboard.
var chip8Layout = [16]string{
	0x1: "1", 0x2: "2", 0x3: "3", 0xC: "4",
	0x4: "Q", 0x5: "W", 0x6: "E", 0xD: "R",
	0x7: "A", 0x8: "S", 0x9: "D", 0xE: "F",
	0xA: "Z", 0x0: "X", 0xB: "C", 0xF: "V",
}

func chip8Buttons() []emucore.Button {
	b := make([]emucore.Button, 16)
	for k := range b {
		b[k] = emucore.Button{
			Name:       strconv.FormatInt(int64(k), 16),
			ID:         chip8.KeyBase + k,
			DefaultKey: chip8Layout[k],
		}
	}
	// The face buttons cover the keys most games use for actions.
	b[0x5].DefaultPad = "A"
	b[0x0].DefaultPad = "B"
	b[0xF].DefaultPad = "Start"
	return b
}

// Save state sizes are upper bounds: the largest work RAM, cartridge RAM,
// chip state and RGB frame buffer each machine can have, plus record
// headers.
const (
	z80StateBound   = 0x48000
	nesStateBound   = 0x38000
	chip8StateBound = 0x4000
)

var infos = map[cart.System]emucore.SystemInfo{
	cart.SMS: {
		Name:            "em8bit-sms",
		ConsoleName:     "Sega Master System",
		Extensions:      []string{".sms", ".bin"},
		ScreenWidth:     256,
		MaxScreenHeight: 240,
		AspectRatio:     4.0 / 3.0,
		Buttons:         withStart("Pause"),
		Players:         2,
		CoreOptions: []emucore.CoreOption{
			spriteLimit,
			{
				Key:         "mapper",
				Label:       "Cartridge Mapper",
				Description: "Override the detected cartridge board",
				Type:        emucore.CoreOptionSelect,
				Default:     "auto",
				Values:      []string{"auto", "sega", "codemasters", "korean", "msx8k"},
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
		},
		RDBName:       "Sega - Master System - Mark III",
		ThumbnailRepo: "Sega_-_Master_System_-_Mark_III",
		DataDirName:   "em8bit-sms",
		ConsoleID:     11,
		SerializeSize: z80StateBound,
	},
	cart.GameGear: {
		Name:            "em8bit-gg",
		ConsoleName:     "Sega Game Gear",
		Extensions:      []string{".gg"},
		ScreenWidth:     160,
		MaxScreenHeight: 144,
		AspectRatio:     10.0 / 9.0,
		Buttons:         withStart("Start"),
		Players:         1,
		CoreOptions: []emucore.CoreOption{
			spriteLimit,
			{
				Key:         "mapper",
				Label:       "Cartridge Mapper",
				Description: "Override the detected cartridge board",
				Type:        emucore.CoreOptionSelect,
				Default:     "auto",
				Values:      []string{"auto", "sega", "codemasters"},
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
		},
		RDBName:       "Sega - Game Gear",
		ThumbnailRepo: "Sega_-_Game_Gear",
		DataDirName:   "em8bit-gg",
		ConsoleID:     15,
		SerializeSize: z80StateBound,
	},
	cart.SG1000: {
		Name:            "em8bit-sg1000",
		ConsoleName:     "Sega SG-1000",
		Extensions:      []string{".sg", ".bin"},
		ScreenWidth:     256,
		MaxScreenHeight: 192,
		AspectRatio:     4.0 / 3.0,
		Buttons:         withStart("Pause"),
		Players:         2,
		CoreOptions:     sgOptions(),
		RDBName:         "Sega - SG-1000",
		ThumbnailRepo:   "Sega_-_SG-1000",
		DataDirName:     "em8bit-sg1000",
		ConsoleID:       33,
		SerializeSize:   z80StateBound,
	},
	cart.SC3000: {
		Name:            "em8bit-sc3000",
		ConsoleName:     "Sega SC-3000",
		Extensions:      []string{".sc"},
		ScreenWidth:     256,
		MaxScreenHeight: 192,
		AspectRatio:     4.0 / 3.0,
		Buttons:         withStart("Reset"),
		Players:         2,
		CoreOptions:     sgOptions(),
		RDBName:         "Sega - SG-1000",
		ThumbnailRepo:   "Sega_-_SG-1000",
		DataDirName:     "em8bit-sc3000",
		ConsoleID:       33,
		SerializeSize:   z80StateBound,
	},
	cart.Coleco: {
		Name:            "em8bit-coleco",
		ConsoleName:     "ColecoVision",
		Extensions:      []string{".col", ".rom", ".bin"},
		ScreenWidth:     256,
		MaxScreenHeight: 192,
		AspectRatio:     4.0 / 3.0,
		Buttons:         colecoButtons(),
		Players:         2,
		CoreOptions:     []emucore.CoreOption{spriteLimit},
		RDBName:         "Coleco - ColecoVision",
		ThumbnailRepo:   "Coleco_-_ColecoVision",
		DataDirName:     "em8bit-coleco",
		ConsoleID:       44,
		SerializeSize:   z80StateBound,
	},
	cart.NES: {
		Name:            "em8bit-nes",
		ConsoleName:     "Nintendo Entertainment System",
		Extensions:      []string{".nes"},
		ScreenWidth:     256,
		MaxScreenHeight: 240,
		AspectRatio:     4.0 / 3.0,
		Buttons: []emucore.Button{
			{Name: "A", ID: nes.ButtonA, DefaultKey: "K", DefaultPad: "A"},
			{Name: "B", ID: nes.ButtonB, DefaultKey: "J", DefaultPad: "B"},
			{Name: "Select", ID: system.ButtonSelect, DefaultKey: "RightShift", DefaultPad: "Select"},
			{Name: "Start", ID: system.ButtonStart, DefaultKey: "Enter", DefaultPad: "Start"},
		},
		Players:       2,
		RDBName:       "Nintendo - Nintendo Entertainment System",
		ThumbnailRepo: "Nintendo_-_Nintendo_Entertainment_System",
		DataDirName:   "em8bit-nes",
		ConsoleID:     7,
		SerializeSize: nesStateBound,
	},
	cart.Chip8: {
		Name:            "em8bit-chip8",
		ConsoleName:     "CHIP-8",
		Extensions:      []string{".ch8", ".c8"},
		ScreenWidth:     64,
		MaxScreenHeight: 32,
		AspectRatio:     2.0,
		Buttons:         chip8Buttons(),
		Players:         1,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "chip8_ipf",
				Label:       "Instructions Per Frame",
				Description: "Interpreter speed. Most programs expect 10 to 20",
				Type:        emucore.CoreOptionRange,
				Default:     strconv.Itoa(chip8.DefaultIPF),
				Min:         1,
				Max:         chip8.MaxIPF,
				Step:        1,
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
			{
				Key:         "chip8_quirks",
				Label:       "Quirks",
				Description: "COSMAC VIP behavior for shifts, loads and jumps",
				Type:        emucore.CoreOptionSelect,
				Default:     "modern",
				Values:      []string{"modern", "cosmac"},
				Category:    emucore.CoreOptionCategoryCore,
				PerGame:     true,
			},
		},
		DataDirName:   "em8bit-chip8",
		SerializeSize: chip8StateBound,
	},
}

func sgOptions() []emucore.CoreOption {
	return []emucore.CoreOption{
		spriteLimit,
		{
			Key:         "ram_expansion",
			Label:       "RAM Expansion",
			Description: "Extra cartridge RAM at $8000 used by some homebrew and BASIC",
			Type:        emucore.CoreOptionSelect,
			Default:     "none",
			Values:      []string{"none", "2k", "8k", "32k"},
			Category:    emucore.CoreOptionCategoryCore,
			PerGame:     true,
		},
	}
}
