package adapter

import (
	"testing"

	"github.com/pkg/errors"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/system"
)

func makeINES(pal bool) []byte {
	rom := make([]byte, 16+0x4000+0x2000)
	copy(rom, "NES\x1A")
	rom[4] = 1
	rom[5] = 1
	if pal {
		rom[9] = 1
	}
	// reset vector at $C000
	rom[16+0x3FFC] = 0x00
	rom[16+0x3FFD] = 0xC0
	return rom
}

func TestNew_Unsupported(t *testing.T) {
	if _, err := New(cart.System(99), nil); !errors.Is(err, cart.ErrUnsupportedSystem) {
		t.Errorf("expected ErrUnsupportedSystem, got %v", err)
	}
}

func TestSystemInfo(t *testing.T) {
	for s := range infos {
		f, err := New(s, nil)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		info := f.SystemInfo()
		if info.CoreName != system.Name || info.CoreVersion != system.Version {
			t.Errorf("%s: core name %q version %q", s, info.CoreName, info.CoreVersion)
		}
		if info.SampleRate != system.SampleRate {
			t.Errorf("%s: sample rate %d", s, info.SampleRate)
		}
		if info.ScreenWidth == 0 || info.MaxScreenHeight == 0 || len(info.Extensions) == 0 {
			t.Errorf("%s: incomplete info %+v", s, info)
		}
		seen := map[int]string{}
		for _, b := range info.Buttons {
			if b.ID < 4 {
				t.Errorf("%s: button %q uses d-pad bit %d", s, b.Name, b.ID)
			}
			if prev, dup := seen[b.ID]; dup {
				t.Errorf("%s: buttons %q and %q share bit %d", s, prev, b.Name, b.ID)
			}
			seen[b.ID] = b.Name
		}
	}
}

func TestSystemInfo_Chip8Keys(t *testing.T) {
	f, _ := New(cart.Chip8, nil)
	info := f.SystemInfo()
	if len(info.Buttons) != 16 {
		t.Fatalf("expected 16 keys, got %d", len(info.Buttons))
	}
	if info.Buttons[0xC].DefaultKey != "4" || info.Buttons[0xC].ID != 4+0xC {
		t.Errorf("key C: %+v", info.Buttons[0xC])
	}
}

func TestCreateEmulator(t *testing.T) {
	tests := []struct {
		name   string
		system cart.System
		rom    []byte
		bios   []byte
		width  int
		height int
	}{
		{"sms", cart.SMS, make([]byte, 0x8000), nil, 256 * 4, 192},
		{"gg", cart.GameGear, make([]byte, 0x8000), nil, 160 * 4, 144},
		{"sg1000", cart.SG1000, make([]byte, 0x2000), nil, 256 * 4, 192},
		{"coleco", cart.Coleco, make([]byte, 0x2000), make([]byte, 0x2000), 256 * 4, 192},
		{"nes", cart.NES, makeINES(false), nil, 256 * 4, 240},
		{"chip8", cart.Chip8, []byte{0x12, 0x00}, nil, 64 * 4, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.system, tt.bios)
			if err != nil {
				t.Fatal(err)
			}
			e, err := f.CreateEmulator(tt.rom, emucore.RegionNTSC)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			e.RunFrame()
			if got := e.GetActiveHeight(); got != tt.height {
				t.Errorf("active height: expected %d, got %d", tt.height, got)
			}
			fb := e.GetFramebuffer()
			if len(fb) < tt.width*tt.height {
				t.Errorf("framebuffer: %d bytes, want at least %d", len(fb), tt.width*tt.height)
			}
			if len(e.GetAudioSamples()) == 0 {
				t.Error("no audio samples")
			}
			s, ok := e.(emucore.SaveStater)
			if !ok {
				t.Fatal("session is not a SaveStater")
			}
			state, err := s.Serialize()
			if err != nil {
				t.Fatal(err)
			}
			if bound := f.SystemInfo().SerializeSize; len(state) > bound {
				t.Errorf("state is %d bytes, reported bound %d", len(state), bound)
			}
		})
	}
}

func TestCreateEmulator_Errors(t *testing.T) {
	f, _ := New(cart.Coleco, nil)
	if _, err := f.CreateEmulator(make([]byte, 0x2000), emucore.RegionNTSC); !errors.Is(err, cart.ErrMissingBIOS) {
		t.Errorf("coleco without BIOS: got %v", err)
	}
	f, _ = New(cart.NES, nil)
	if _, err := f.CreateEmulator([]byte("not a rom"), emucore.RegionNTSC); err == nil {
		t.Error("expected an error for a bad NES image")
	}
}

func TestDetectRegion(t *testing.T) {
	nes, _ := New(cart.NES, nil)
	if r, found := nes.DetectRegion(makeINES(true)); r != emucore.RegionPAL || found {
		t.Errorf("PAL iNES: got %v, %v", r, found)
	}
	if r, _ := nes.DetectRegion(makeINES(false)); r != emucore.RegionNTSC {
		t.Errorf("NTSC iNES: got %v", r)
	}
	sms, _ := New(cart.SMS, nil)
	if r, found := sms.DetectRegion(make([]byte, 0x8000)); r != emucore.RegionNTSC || found {
		t.Errorf("sms: got %v, %v", r, found)
	}
}
