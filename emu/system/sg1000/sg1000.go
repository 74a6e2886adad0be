// Package sg1000 is the SG-1000 and SC-3000 session. Both are a Z80 with
// a TMS9918 VDP and an SN76489; the SC-3000 adds a keyboard scanned
// through an 8255 PPI.
package sg1000

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
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const ioStateVersion = 1

// RAM expansion sizes selectable with the ram_expansion option.
var expansions = map[string]int{
	"none": 0,
	"2k":   0x800,
	"8k":   0x2000,
	"32k":  0x8000,
}

// Emulator is one SG-1000 or SC-3000.
type Emulator struct {
	system.Base

	sc3000 bool
	cart   *cart.Cartridge
	space  *memory.AddressSpace
	ram    *memory.Region
	mapper mapper.Mapper
	cpu    *z80.CPU
	vdp    *vdp.VDP
	psg    *sn76489.SN76489

	pad       [2]uint32
	pausePrev bool
	ppi       ppi

	expansion int
}

// New creates a session for an SG-1000 or SC-3000 cartridge.
func New(c *cart.Cartridge, region system.Region) (*Emulator, error) {
	if c.Meta.System != cart.SG1000 && c.Meta.System != cart.SC3000 {
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "sg1000 session given %s", c.Meta.System)
	}
	e := &Emulator{
		sc3000:    c.Meta.System == cart.SC3000,
		cart:      c,
		space:     memory.New("z80"),
		expansion: c.Meta.RAMSize,
	}
	ramSize := 0x400
	if e.sc3000 {
		ramSize = 0x800
	}
	e.ram = memory.NewRegion("sg1000.ram", ramSize)

	t := system.SegaTiming(region)
	e.vdp = vdp.New(vdp.ModelTMS, region == system.RegionPAL)
	e.psg = system.NewPSG(t)
	e.cpu = z80.New(&bus{e})
	if err := e.setMapper(); err != nil {
		return nil, err
	}

	e.Init(e, region, t, e.vdp.Frame(), c.Meta.CRC32)
	e.AddState(
		system.Component{Tag: "Z80 ", Version: z80.StateVersion, Save: e.cpu.SaveState, Load: e.cpu.LoadState},
		system.Component{Tag: "VDP ", Version: vdp.StateVersion, Save: e.vdp.SaveState, Load: e.vdp.LoadState},
		e.PSGComponent(func() *sn76489.SN76489 { return e.psg }),
		system.Component{Tag: "MAPR", Version: mapper.StateVersion, Save: e.saveMapper, Load: e.loadMapper},
		system.Component{Tag: "IO  ", Version: ioStateVersion, Save: e.saveIO, Load: e.loadIO},
	)
	e.Reset()
	return e, nil
}

func (e *Emulator) setMapper() error {
	m, err := mapper.New(mapper.ROMOnly, mapper.Config{
		ROM:         e.cart.ROM,
		RAM:         e.ram,
		CartRAMSize: e.expansion,
	})
	if err != nil {
		return err
	}
	m.Init(e.space)
	e.mapper = m
	e.SetMemory(e.ram.Bytes(), m.CartRAM(), false)
	return nil
}

// Reset performs a power cycle.
func (e *Emulator) Reset() {
	e.ram.Fill(0)
	e.mapper.Reset()
	e.vdp.Reset()
	e.cpu.Reset()
	e.ppi.reset()
	e.pausePrev = false
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
	e.updateIRQ()
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

func (e *Emulator) updateIRQ() {
	if e.vdp.IRQ() {
		e.cpu.AssertIRQ()
	} else {
		e.cpu.ClearIRQ()
	}
}

// SetInput sets the pads for players 0 and 1. Start is the pause button,
// wired to NMI. On the SC-3000 players 2-8 carry keyboard rows 0-6 as
// 12-bit column masks.
func (e *Emulator) SetInput(player int, buttons uint32) {
	switch {
	case player == 0:
		e.pad[0] = buttons
		start := system.Pressed(buttons, system.ButtonStart)
		if start && !e.pausePrev {
			e.cpu.PulseNMI()
		}
		e.pausePrev = start
	case player == 1:
		e.pad[1] = buttons
	case e.sc3000 && player >= 2 && player < 2+keyboardRows:
		e.ppi.keys[player-2] = uint16(buttons) & 0x0FFF
	}
}

// SetKey presses or releases one key of the SC-3000 keyboard matrix.
func (e *Emulator) SetKey(row, col int, down bool) {
	if row < 0 || row >= keyboardRows || col < 0 || col >= keyboardCols {
		return
	}
	if down {
		e.ppi.keys[row] |= 1 << uint(col)
	} else {
		e.ppi.keys[row] &^= 1 << uint(col)
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

// SetOption applies a core option change identified by key. Changing the
// RAM expansion rebuilds the cartridge and resets the machine.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "sprite_limit":
		e.vdp.SetSpriteLimit(value != "false")
	case "ram_expansion":
		size, ok := expansions[value]
		if !ok || size == e.expansion {
			return
		}
		e.expansion = size
		if e.setMapper() == nil {
			e.Reset()
		}
	}
}

// CPU exposes the Z80 for debugging.
func (e *Emulator) CPU() *z80.CPU { return e.cpu }

// VDP exposes the video chip for debugging.
func (e *Emulator) VDP() *vdp.VDP { return e.vdp }

func (e *Emulator) saveMapper(w *savestate.Writer) { e.mapper.SaveState(w) }

func (e *Emulator) loadMapper(d *savestate.Decoder) error { return e.mapper.LoadState(d) }

func (e *Emulator) saveIO(w *savestate.Writer) {
	w.Bool(e.pausePrev)
	w.U8(e.ppi.portC)
	w.U8(e.ppi.control)
}

func (e *Emulator) loadIO(d *savestate.Decoder) error {
	e.pausePrev = d.Bool()
	e.ppi.portC = d.U8()
	e.ppi.control = d.U8()
	return d.Err()
}
