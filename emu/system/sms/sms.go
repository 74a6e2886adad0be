// Package sms is the Sega Master System and Game Gear session.
package sms

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

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	ramSize = 0x2000

	ioStateVersion = 2
)

// Emulator is one SMS or Game Gear.
type Emulator struct {
	system.Base

	gg     bool
	cart   *cart.Cartridge
	space  *memory.AddressSpace
	ram    *memory.Region
	mapper mapper.Mapper
	cpu    *z80.CPU
	vdp    *vdp.VDP
	psg    *sn76489.SN76489
	io     ioPorts

	lineStart uint64
}

// New creates a session for an SMS or Game Gear cartridge.
func New(c *cart.Cartridge, region system.Region) (*Emulator, error) {
	if c.Meta.System != cart.SMS && c.Meta.System != cart.GameGear {
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "sms session given %s", c.Meta.System)
	}
	e := &Emulator{
		gg:    c.Meta.System == cart.GameGear,
		cart:  c,
		space: memory.New("z80"),
		ram:   memory.NewRegion("sms.ram", ramSize),
	}
	t := system.SegaTiming(region)

	model := vdp.ModelSMS2
	if e.gg {
		model = vdp.ModelGG
	}
	e.vdp = vdp.New(model, region == system.RegionPAL)
	e.psg = system.NewPSG(t)
	e.cpu = z80.New(&bus{e})

	if err := e.setMapper(c.Meta.Mapper); err != nil {
		return nil, err
	}

	e.io.export = true
	if export, ok := cart.ExportRegion(c.ROM); ok {
		e.io.export = export
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

func (e *Emulator) setMapper(number int) error {
	cfg := mapper.Config{
		ROM:     e.cart.ROM,
		RAM:     e.ram,
		Battery: true,
	}
	if number == mapper.Codemasters {
		cfg.CartRAMSize = 0x2000
	}
	m, err := mapper.New(number, cfg)
	if err != nil {
		return err
	}
	m.Init(e.space)
	e.mapper = m
	e.SetMemory(e.ram.Bytes(), m.CartRAM(), m.HasBattery())
	return nil
}

// Reset performs a power cycle. Cartridge RAM is kept.
func (e *Emulator) Reset() {
	e.ram.Fill(0)
	e.mapper.Reset()
	e.vdp.Reset()
	e.cpu.Reset()
	e.cpu.SetDataBus(0xFF)
	e.io.reset()
	e.Scheduler().Reset()
	e.lineStart = 0
}

// RunFrame executes one frame of emulation.
func (e *Emulator) RunFrame() {
	e.Audio.Begin()
	e.Scheduler().RunFrame()
	e.Audio.MixPSG(e.psg)
}

// ExecuteLine runs the VDP for one line and updates the INT line.
func (e *Emulator) ExecuteLine(line int, skip bool) {
	e.vdp.ExecuteLine(line, skip)
	e.lineStart = e.cpu.Cycles()
	e.updateIRQ()
}

// RunCPU steps the Z80 instruction by instruction so port accesses see
// their position in the line.
func (e *Emulator) RunCPU(cycles int) int {
	ran := 0
	for ran < cycles {
		ran += e.cpu.Step()
	}
	return ran
}

// EndLine clocks the PSG for the cycles the line took.
func (e *Emulator) EndLine(line int, elapsed int) {
	e.psg.Run(elapsed)
}

func (e *Emulator) lineCycle() int { return int(e.cpu.Cycles() - e.lineStart) }

func (e *Emulator) updateIRQ() {
	if e.vdp.IRQ() {
		e.cpu.AssertIRQ()
	} else {
		e.cpu.ClearIRQ()
	}
}

// SetInput unpacks a button bitmask and sets controller state for the
// given player. On the SMS Start is the console's pause button.
func (e *Emulator) SetInput(player int, buttons uint32) {
	switch player {
	case 0:
		e.io.pad[0] = buttons
		start := system.Pressed(buttons, system.ButtonStart)
		if !e.gg && start && !e.io.pausePrev {
			e.cpu.PulseNMI()
		}
		e.io.pausePrev = start
	case 1:
		e.io.pad[1] = buttons
	}
}

// SetRegion switches display timing. The PSG is recreated for the new
// clock.
func (e *Emulator) SetRegion(region system.Region) {
	t := system.SegaTiming(region)
	e.SetTiming(region, t)
	e.vdp.SetPAL(region == system.RegionPAL)
	e.psg = system.NewPSG(t)
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "sprite_limit":
		e.vdp.SetSpriteLimit(value != "false")
	case "mapper":
		n, ok := mapper.NumberByName(value)
		if value == "auto" {
			n, ok = cart.DetectSMSMapper(e.cart.ROM), true
		}
		if !ok || n == mapperNumber(e.mapper) {
			return
		}
		if e.setMapper(n) == nil {
			e.Reset()
		}
	}
}

func mapperNumber(m mapper.Mapper) int {
	n, _ := mapper.NumberByName(m.Name())
	return n
}

// CPU exposes the Z80 for debugging.
func (e *Emulator) CPU() *z80.CPU { return e.cpu }

// VDP exposes the video chip for debugging.
func (e *Emulator) VDP() *vdp.VDP { return e.vdp }

// The I/O record also carries the CPU cycle the current line began on,
// which the H counter latch is measured from.
func (e *Emulator) saveIO(w *savestate.Writer) {
	e.io.save(w)
	w.U64(e.lineStart)
}

func (e *Emulator) loadIO(d *savestate.Decoder) error {
	if err := e.io.load(d); err != nil {
		return err
	}
	e.lineStart = d.U64()
	return d.Err()
}

func (e *Emulator) saveMapper(w *savestate.Writer) { e.mapper.SaveState(w) }

func (e *Emulator) loadMapper(d *savestate.Decoder) error { return e.mapper.LoadState(d) }
