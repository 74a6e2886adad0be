// Package coleco is the ColecoVision session: a Z80 running the 8 KB BIOS
// and the cartridge, a TMS9918 whose interrupt output drives NMI, an
// SN76489 and two controllers with a joystick half and a keypad half.
package coleco

import (
	"github.com/pkg/errors"
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/go-chip-sn76489"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/cpu/z80"
	"github.com/user-none/em8bit/emu/mapper"
	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
	"github.com/user-none/em8bit/emu/system"
	"github.com/user-none/em8bit/emu/vdp"
)

var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	ramSize        = 0x400
	ioStateVersion = 1
)

// Keypad buttons follow the d-pad and fire buttons in the emucore mask:
// bits 8-17 are the digits 0-9, then star and hash.
const (
	KeypadDigit0 = 8
	KeypadStar   = 18
	KeypadHash   = 19
)

// keypadCodes is the nibble each key pulls the keypad port to, indexed
// by digit with star and hash last.
var keypadCodes = [12]byte{0x0A, 0x0D, 0x07, 0x0C, 0x02, 0x03, 0x0E, 0x05, 0x01, 0x0B, 0x09, 0x06}

// Emulator is one ColecoVision.
type Emulator struct {
	system.Base

	space  *memory.AddressSpace
	ram    *memory.Region
	mapper mapper.Mapper
	cpu    *z80.CPU
	vdp    *vdp.VDP
	psg    *sn76489.SN76489

	pad      [2]uint32
	joystick bool // controller strobe: joystick half when set, else keypad
	nmiLevel bool // last VDP INT level, NMI fires on the rising edge
}

// New creates a ColecoVision session. The cartridge must carry the BIOS.
func New(c *cart.Cartridge, region system.Region) (*Emulator, error) {
	if c.Meta.System != cart.Coleco {
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "coleco session given %s", c.Meta.System)
	}
	if len(c.BIOS) == 0 {
		return nil, cart.ErrMissingBIOS
	}
	e := &Emulator{
		space: memory.New("z80"),
		ram:   memory.NewRegion("coleco.ram", ramSize),
	}
	m, err := mapper.New(mapper.Coleco, mapper.Config{ROM: c.ROM, BIOS: c.BIOS, RAM: e.ram})
	if err != nil {
		return nil, err
	}
	m.Init(e.space)
	e.mapper = m

	t := system.SegaTiming(region)
	e.vdp = vdp.New(vdp.ModelTMS, region == system.RegionPAL)
	e.psg = system.NewPSG(t)
	e.cpu = z80.New(&bus{e})

	e.Init(e, region, t, e.vdp.Frame(), c.Meta.CRC32)
	e.SetMemory(e.ram.Bytes(), nil, false)
	e.AddState(
		system.Component{Tag: "Z80 ", Version: z80.StateVersion, Save: e.cpu.SaveState, Load: e.cpu.LoadState},
		system.Component{Tag: "VDP ", Version: vdp.StateVersion, Save: e.vdp.SaveState, Load: e.vdp.LoadState},
		e.PSGComponent(func() *sn76489.SN76489 { return e.psg }),
		system.Component{Tag: "IO  ", Version: ioStateVersion, Save: e.saveIO, Load: e.loadIO},
	)
	e.Reset()
	return e, nil
}

// Reset performs a power cycle.
func (e *Emulator) Reset() {
	e.ram.Fill(0)
	e.mapper.Reset()
	e.vdp.Reset()
	e.cpu.Reset()
	e.joystick = false
	e.nmiLevel = false
	e.Scheduler().Reset()
}

// RunFrame executes one frame of emulation.
func (e *Emulator) RunFrame() {
	e.Audio.Begin()
	e.Scheduler().RunFrame()
	e.Audio.MixPSG(e.psg)
}

func (e *Emulator) ExecuteLine(line int, skip bool) {
	e.vdp.ExecuteLine(line, skip)
	e.updateNMI()
}

func (e *Emulator) RunCPU(cycles int) int {
	ran := 0
	for ran < cycles {
		ran += e.cpu.Step()
	}
	return ran
}

func (e *Emulator) EndLine(line int, elapsed int) {
	e.psg.Run(elapsed)
}

// updateNMI turns the VDP INT level into an NMI edge. A game that enables
// the interrupt while vblank is pending gets a fresh edge.
func (e *Emulator) updateNMI() {
	level := e.vdp.IRQ()
	if level && !e.nmiLevel {
		e.cpu.PulseNMI()
	}
	e.nmiLevel = level
}

// SetInput sets one controller. See the Keypad constants for the bits
// beyond the joystick.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player == 0 || player == 1 {
		e.pad[player] = buttons
	}
}

// SetRegion switches display timing and recreates the PSG for the new
// clock.
func (e *Emulator) SetRegion(region system.Region) {
	t := system.SegaTiming(region)
	e.SetTiming(region, t)
	e.vdp.SetPAL(region == system.RegionPAL)
	e.psg = system.NewPSG(t)
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	if key == "sprite_limit" {
		e.vdp.SetSpriteLimit(value != "false")
	}
}

// CPU exposes the Z80 for debugging.
func (e *Emulator) CPU() *z80.CPU { return e.cpu }

// VDP exposes the video chip for debugging.
func (e *Emulator) VDP() *vdp.VDP { return e.vdp }

// controller builds the active-low port value for one player.
func (e *Emulator) controller(player int) byte {
	b := e.pad[player]
	v := byte(0x7F)
	if e.joystick {
		for i, bit := range [...]int{0, 3, 1, 2} { // up, right, down, left
			if system.Pressed(b, bit) {
				v &^= 1 << uint(i)
			}
		}
		if system.Pressed(b, system.Button1) {
			v &^= 0x40
		}
		return v
	}
	code := byte(0x0F)
	for k := 0; k < len(keypadCodes); k++ {
		if system.Pressed(b, KeypadDigit0+k) {
			code = keypadCodes[k]
			break
		}
	}
	v = v&0xF0 | code
	if system.Pressed(b, system.Button2) {
		v &^= 0x40
	}
	return v
}

func (e *Emulator) saveIO(w *savestate.Writer) {
	w.Bool(e.joystick)
	w.Bool(e.nmiLevel)
}

func (e *Emulator) loadIO(d *savestate.Decoder) error {
	e.joystick = d.Bool()
	e.nmiLevel = d.Bool()
	return d.Err()
}
