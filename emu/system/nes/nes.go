// Package nes is the NES session: a 2A03 (a 6502 without decimal mode),
// the 2C02 PPU, 2 KB of work RAM and the cartridge mapper. The APU is
// modelled as a register file with the frame counter IRQ; it produces no
// sound.
package nes

import (
	"github.com/pkg/errors"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/cpu/m6502"
	"github.com/user-none/em8bit/emu/mapper"
	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/ppu"
	"github.com/user-none/em8bit/emu/system"
)

var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	ramSize        = 0x800
	ioStateVersion = 1
)

// Pad bits in the emucore mask. The d-pad is bits 0-3.
const (
	ButtonA = system.Button1
	ButtonB = system.Button2
)

// Emulator is one NES.
type Emulator struct {
	system.Base

	cart   *cart.Cartridge
	space  *memory.AddressSpace
	vspace *memory.AddressSpace
	ram    *memory.Region
	mapper mapper.NESMapper
	cpu    *m6502.CPU
	ppu    *ppu.PPU

	io   ioState
	pads [2]uint32
}

// New creates a session for an iNES cartridge.
func New(c *cart.Cartridge, region system.Region) (*Emulator, error) {
	if c.Meta.System != cart.NES {
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "nes session given %s", c.Meta.System)
	}
	e := &Emulator{
		cart:   c,
		space:  memory.New("cpu"),
		vspace: memory.New("ppu"),
		ram:    memory.NewRegion("nes.ram", ramSize),
	}
	m, err := mapper.NewNES(c.Meta.Mapper, mapper.Config{
		ROM:         c.ROM,
		CHR:         c.CHR,
		CartRAMSize: c.Meta.RAMSize,
		Battery:     c.Meta.Battery,
		Mirroring:   c.Meta.Mirroring,
	})
	if err != nil {
		return nil, err
	}
	e.mapper = m

	// Work RAM mirrors through $0000-$1FFF. The PPU and APU ranges are
	// handled by the bus and never fetched from the tables.
	e.space.Map(0x00, 0x20, e.ram, 0)
	e.space.MarkIO(0x20, 0x21, true)
	mapper.InitNES(m, e.space, e.vspace)

	t := system.NESTiming(region)
	e.ppu = ppu.New(e.vspace, t.Scanlines)
	e.cpu = m6502.New(&bus{e})

	e.Init(e, region, t, e.ppu.Frame(), c.Meta.CRC32)
	e.SetMemory(e.ram.Bytes(), m.CartRAM(), m.HasBattery())
	e.AddState(
		system.Component{Tag: "CPU ", Version: m6502.StateVersion, Save: e.cpu.SaveState, Load: e.cpu.LoadState},
		system.Component{Tag: "PPU ", Version: ppu.StateVersion, Save: e.ppu.SaveState, Load: e.ppu.LoadState},
		system.Component{Tag: "MAPR", Version: mapper.StateVersion, Save: e.mapper.SaveState, Load: e.mapper.LoadState},
		system.Component{Tag: "IO  ", Version: ioStateVersion, Save: e.io.save, Load: e.io.load},
	)
	e.Reset()
	return e, nil
}

// Reset performs a power cycle. Cartridge RAM is kept.
func (e *Emulator) Reset() {
	e.ram.Fill(0)
	e.mapper.Reset()
	e.ppu.Reset()
	e.io.reset()
	e.cpu.Reset()
	e.Scheduler().Reset()
}

// RunFrame executes one frame of emulation.
func (e *Emulator) RunFrame() {
	e.Audio.Begin()
	e.Scheduler().RunFrame()
	e.Audio.Silence(system.SamplesPerFrame(e.Timing().FPS))
}

// ExecuteLine runs the PPU for one line. Mappers that count scanlines are
// clocked on the visible and pre-render lines while rendering is on.
func (e *Emulator) ExecuteLine(line int, skip bool) {
	ev := e.ppu.ExecuteLine(line, skip)
	if ev&ppu.EventNMI != 0 {
		e.cpu.PulseNMI()
	}
	if e.ppu.RenderingEnabled() && (line < ppu.FrameHeight || line == e.ppu.PreRenderLine()) {
		e.mapper.ClockScanline()
	}
	e.updateIRQ()
}

func (e *Emulator) RunCPU(cycles int) int {
	ran := 0
	for ran < cycles {
		ran += e.cpu.Step()
	}
	return ran
}

// EndLine advances the APU frame counter.
func (e *Emulator) EndLine(line int, elapsed int) {
	e.io.clockFrameCounter(elapsed, e.frameIRQPeriod())
	e.updateIRQ()
}

func (e *Emulator) frameIRQPeriod() int {
	if e.GetRegion() == system.RegionPAL {
		return frameIRQPAL
	}
	return frameIRQNTSC
}

func (e *Emulator) updateIRQ() {
	if e.io.frameIRQ || e.mapper.IRQ() {
		e.cpu.AssertIRQ()
	} else {
		e.cpu.ClearIRQ()
	}
}

// SetInput sets the controller for player 0 or 1.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player == 0 || player == 1 {
		e.pads[player] = buttons
		if e.io.strobe {
			e.io.latch(player, buttons)
		}
	}
}

// SetRegion switches between NTSC (2C02) and PAL (2C07) timing.
func (e *Emulator) SetRegion(region system.Region) {
	t := system.NESTiming(region)
	e.SetTiming(region, t)
	e.ppu.SetLines(t.Scanlines)
}

// SetOption applies a core option change identified by key. The NES core
// has no options.
func (e *Emulator) SetOption(key string, value string) {}

// CPU exposes the 2A03 core for debugging.
func (e *Emulator) CPU() *m6502.CPU { return e.cpu }

// PPU exposes the picture processor for debugging.
func (e *Emulator) PPU() *ppu.PPU { return e.ppu }

// oamDMA copies a CPU page into OAM. The CPU is stalled 513 cycles, one
// more when the write lands on an odd cycle.
func (e *Emulator) oamDMA(page byte) {
	var buf [256]byte
	base := uint16(page) << 8
	for i := range buf {
		buf[i] = e.read(base + uint16(i))
	}
	e.ppu.WriteOAM(buf[:])
	stall := 513
	if e.cpu.Cycles()&1 != 0 {
		stall++
	}
	e.cpu.Stall(stall)
}
