// Package adapter exposes each supported machine as an emucore.CoreFactory.
package adapter

import (
	"github.com/pkg/errors"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/system"
	"github.com/user-none/em8bit/emu/system/chip8"
	"github.com/user-none/em8bit/emu/system/coleco"
	"github.com/user-none/em8bit/emu/system/nes"
	"github.com/user-none/em8bit/emu/system/sg1000"
	"github.com/user-none/em8bit/emu/system/sms"
	"github.com/user-none/em8bit/emu/video"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Session is what every machine session provides.
type Session interface {
	emucore.Emulator
	emucore.SaveStater
	emucore.MemoryInspector
	emucore.MemoryMapper
	Reset()
	StepLine() bool
	StepInstruction() bool
	SetSkipRender(skip bool)
	VerifyState(data []byte) error
	Frame() *video.Frame
}

// Factory implements emucore.CoreFactory for one machine. BIOS is only
// used by machines that need one.
type Factory struct {
	System cart.System
	BIOS   []byte
}

// New returns the factory for system s.
func New(s cart.System, bios []byte) (*Factory, error) {
	if _, ok := infos[s]; !ok {
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "%s", s)
	}
	return &Factory{System: s, BIOS: bios}, nil
}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	info := infos[f.System]
	info.SampleRate = system.SampleRate
	info.CoreName = system.Name
	info.CoreVersion = system.Version
	return info
}

// CreateEmulator creates a new emulator instance with the given ROM and region.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	c, err := cart.Load(f.System, rom, f.BIOS)
	if err != nil {
		return nil, err
	}
	return NewSession(c, region)
}

// DetectRegion reports PAL for NES images flagged as PAL and NTSC for
// everything else. The bool is always false since there is no ROM
// database lookup.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	if f.System == cart.NES {
		if c, err := cart.ParseINES(rom); err == nil && c.Meta.PAL {
			return emucore.RegionPAL, false
		}
	}
	return emucore.RegionNTSC, false
}

// NewSession builds the session for a loaded cartridge.
func NewSession(c *cart.Cartridge, region emucore.Region) (Session, error) {
	var (
		s   Session
		err error
	)
	switch c.Meta.System {
	case cart.SMS, cart.GameGear:
		s, err = sms.New(c, region)
	case cart.SG1000, cart.SC3000:
		s, err = sg1000.New(c, region)
	case cart.Coleco:
		s, err = coleco.New(c, region)
	case cart.NES:
		s, err = nes.New(c, region)
	case cart.Chip8:
		s, err = chip8.New(c, region)
	default:
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "%s", c.Meta.System)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
