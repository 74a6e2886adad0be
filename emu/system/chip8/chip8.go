// Package chip8 is the CHIP-8 session. The whole frame is one scheduler
// line: the interpreter runs its instructions-per-frame budget, then the
// 60 Hz timers tick and the display is rendered.
package chip8

import (
	"strconv"

	"github.com/pkg/errors"
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/cpu/chip8"
	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
	"github.com/user-none/em8bit/emu/system"
	"github.com/user-none/em8bit/emu/video"
)

var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

const (
	// DefaultIPF is the instructions per frame when no option is set.
	DefaultIPF = 11
	MaxIPF     = 1000

	// KeyBase is the button bit of key 0; key n is bit KeyBase+n.
	KeyBase = 4

	optStateVersion = 1
)

// The d-pad doubles as keys 2, 8, 4 and 6, the usual movement keys.
var dpadKeys = [4]uint{2, 8, 4, 6}

var (
	colorOn  = video.RGB(0xFF, 0xFF, 0xFF)
	colorOff = video.RGB(0x00, 0x00, 0x00)
)

// Emulator is one CHIP-8 machine.
type Emulator struct {
	system.Base

	program []byte
	space   *memory.AddressSpace
	ram     *memory.Region
	cpu     *chip8.CPU
	frame   *video.Frame

	ipf  int
	skip bool
}

// New creates a session for a CHIP-8 program. Region only selects the
// reported region; the machine always runs at 60 Hz.
func New(c *cart.Cartridge, region system.Region) (*Emulator, error) {
	if c.Meta.System != cart.Chip8 {
		return nil, errors.Wrapf(cart.ErrUnsupportedSystem, "chip8 session given %s", c.Meta.System)
	}
	if len(c.ROM) > chip8.MemorySize-chip8.ProgramStart {
		return nil, errors.Wrapf(cart.ErrBadHeader, "program is %d bytes", len(c.ROM))
	}
	e := &Emulator{
		program: c.ROM,
		space:   memory.New("chip8"),
		ram:     memory.NewRegion("chip8.ram", chip8.MemorySize),
		frame:   video.NewFrame(chip8.DisplayWidth, chip8.DisplayHeight),
		ipf:     DefaultIPF,
	}
	// 12-bit addresses: the 4 KB mirrors through the whole space.
	e.space.Map(0x00, memory.PageCount, e.ram, 0)
	e.cpu = chip8.New(e.space, chip8.QuirksModern)

	e.Init(e, region, system.Chip8Timing(e.ipf), e.frame, c.Meta.CRC32)
	e.SetMemory(e.ram.Bytes(), nil, false)
	e.AddState(
		system.Component{Tag: "C8  ", Version: chip8.StateVersion, Save: e.cpu.SaveState, Load: e.cpu.LoadState},
		system.Component{Tag: "OPTS", Version: optStateVersion, Optional: true, Save: e.saveOptions, Load: e.loadOptions},
	)
	e.Reset()
	return e, nil
}

// Reset reloads the program and restarts the interpreter.
func (e *Emulator) Reset() {
	e.ram.Fill(0)
	copy(e.ram.Bytes()[chip8.ProgramStart:], e.program)
	e.cpu.Reset()
	e.Scheduler().Reset()
	e.render()
}

// RunFrame executes one frame of emulation.
func (e *Emulator) RunFrame() {
	e.Audio.Begin()
	e.Scheduler().RunFrame()
	e.Audio.Beep(system.SamplesPerFrame(e.Timing().FPS), e.cpu.Sounding())
}

func (e *Emulator) ExecuteLine(line int, skip bool) { e.skip = skip }

func (e *Emulator) RunCPU(cycles int) int { return e.cpu.Execute(cycles) }

// EndLine ticks the timers and redraws when the display changed. A
// skipped frame leaves the change pending for the next drawn one.
func (e *Emulator) EndLine(line int, elapsed int) {
	e.cpu.TickTimers()
	if !e.skip && e.cpu.TakeDirty() {
		e.render()
	}
}

func (e *Emulator) render() {
	for y := 0; y < chip8.DisplayHeight; y++ {
		row := e.frame.Row(y)
		for x := range row {
			if e.cpu.Pixel(x, y) {
				row[x] = colorOn
			} else {
				row[x] = colorOff
			}
		}
	}
}

// SetInput sets the keypad from player 0.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player == 0 {
		e.cpu.SetKeys(keysFrom(buttons))
	}
}

func keysFrom(buttons uint32) uint16 {
	keys := uint16(buttons >> KeyBase)
	for i, k := range dpadKeys {
		if buttons&(1<<uint(i)) != 0 {
			keys |= 1 << k
		}
	}
	return keys
}

// SetRegion records the region. Timing does not change.
func (e *Emulator) SetRegion(region system.Region) {
	e.SetTiming(region, e.Timing())
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "chip8_ipf":
		n, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		e.SetIPF(n)
	case "chip8_quirks":
		switch value {
		case "cosmac":
			e.cpu.Quirks = chip8.QuirksCOSMAC
		case "modern":
			e.cpu.Quirks = chip8.QuirksModern
		}
	}
}

// SetIPF sets the instructions run per frame, clamped to 1-MaxIPF.
func (e *Emulator) SetIPF(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxIPF {
		n = MaxIPF
	}
	e.ipf = n
	e.SetTiming(e.GetRegion(), system.Chip8Timing(n))
}

// CPU exposes the interpreter for debugging.
func (e *Emulator) CPU() *chip8.CPU { return e.cpu }

func (e *Emulator) saveOptions(w *savestate.Writer) {
	w.U16(uint16(e.ipf))
	w.Bool(e.cpu.Quirks == chip8.QuirksCOSMAC)
}

func (e *Emulator) loadOptions(d *savestate.Decoder) error {
	ipf := int(d.U16())
	cosmac := d.Bool()
	if err := d.Err(); err != nil {
		return err
	}
	e.SetIPF(ipf)
	if cosmac {
		e.cpu.Quirks = chip8.QuirksCOSMAC
	} else {
		e.cpu.Quirks = chip8.QuirksModern
	}
	return nil
}
