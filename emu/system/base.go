// Package system holds what every console session shares: region timing,
// the scheduler, audio accumulation, the frame buffer and the emucore
// plumbing for SRAM, memory inspection and save states. The sessions
// themselves live in the subpackages.
package system

import (
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/sched"
	"github.com/user-none/em8bit/emu/video"
)

const (
	Name    = "em8bit"
	Version = "0.1.0"
)

// Flat address boundaries for ReadMemory.
const (
	systemRAMStart = 0x000000
	saveRAMStart   = 0x010000
)

// Button bits shared by the pads. Bits 0-3 are the emucore d-pad.
const (
	Button1      = 4
	Button2      = 5
	ButtonStart  = 6
	ButtonSelect = 7
)

// Pressed reports whether bit is set in an emucore button mask.
func Pressed(buttons uint32, bit int) bool { return buttons&(1<<uint(bit)) != 0 }

// Base is embedded by each session.
type Base struct {
	Audio

	region Region
	timing RegionTiming
	sched  *sched.Scheduler
	frame  *video.Frame
	romCRC uint32

	ram     []byte
	sram    []byte
	battery bool

	components []Component
}

// Init wires the shared parts. m is the session itself.
func (b *Base) Init(m sched.Machine, region Region, t RegionTiming, frame *video.Frame, romCRC uint32) {
	b.Audio = newAudio()
	b.region = region
	b.timing = t
	b.sched = sched.New(t.Line, m)
	b.frame = frame
	b.romCRC = romCRC
}

// SetMemory registers the regions exposed to SRAM persistence and the
// memory inspector. sram aliases the cartridge RAM.
func (b *Base) SetMemory(ram, sram []byte, battery bool) {
	b.ram = ram
	b.sram = sram
	b.battery = battery
}

// SetFrame replaces the frame buffer the emucore surface reads.
func (b *Base) SetFrame(f *video.Frame) { b.frame = f }

// Scheduler returns the line scheduler.
func (b *Base) Scheduler() *sched.Scheduler { return b.sched }

// Timing returns the region timing in use.
func (b *Base) Timing() RegionTiming { return b.timing }

// SetTiming switches region timing, keeping the scheduler position.
func (b *Base) SetTiming(region Region, t RegionTiming) {
	b.region = region
	b.timing = t
	b.sched.Timing = t.Line
}

// StepLine advances one scanline and reports whether a frame ended.
func (b *Base) StepLine() bool { return b.sched.StepLine() }

// StepInstruction advances one CPU instruction and reports whether a
// frame ended.
func (b *Base) StepInstruction() bool { return b.sched.StepInstruction() }

// SetSkipRender turns video output off for frame skipping. Flags games
// poll are still computed.
func (b *Base) SetSkipRender(skip bool) { b.sched.SkipRender = skip }

// Frame returns the frame buffer.
func (b *Base) Frame() *video.Frame { return b.frame }

// GetFramebuffer returns raw RGBA pixel data for the active area.
func (b *Base) GetFramebuffer() []byte { return b.frame.RGBA() }

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (b *Base) GetFramebufferStride() int { return b.frame.Stride() }

// GetActiveHeight returns the current active display height.
func (b *Base) GetActiveHeight() int { return b.frame.ActiveRect().Dy() }

// GetAudioSamples returns accumulated audio samples as 16-bit stereo PCM.
func (b *Base) GetAudioSamples() []int16 { return b.Audio.Samples() }

// GetRegion returns the emulator's region setting.
func (b *Base) GetRegion() Region { return b.region }

// GetTiming returns FPS and scanline count for the current region.
func (b *Base) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       b.timing.FPS,
		Scanlines: b.timing.Scanlines,
	}
}

// Close releases any resources held by the emulator.
func (b *Base) Close() {}

// HasSRAM returns true if the cartridge has battery-backed RAM.
func (b *Base) HasSRAM() bool { return b.battery && len(b.sram) > 0 }

// GetSRAM returns a copy of the current SRAM contents.
func (b *Base) GetSRAM() []byte {
	if len(b.sram) == 0 {
		return nil
	}
	out := make([]byte, len(b.sram))
	copy(out, b.sram)
	return out
}

// SetSRAM loads SRAM contents from a save file. Short files fill the
// start of the RAM; the rest is left as is.
func (b *Base) SetSRAM(data []byte) { copy(b.sram, data) }

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. System RAM starts at 0 and save RAM at 0x10000.
func (b *Base) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		switch {
		case cur >= systemRAMStart && cur < systemRAMStart+uint32(len(b.ram)):
			buf[i] = b.ram[cur-systemRAMStart]
		case cur >= saveRAMStart && cur < saveRAMStart+uint32(len(b.sram)):
			buf[i] = b.sram[cur-saveRAMStart]
		default:
			return count
		}
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (b *Base) MemoryMap() []emucore.MemoryRegion {
	regions := []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: len(b.ram)},
	}
	if len(b.sram) > 0 {
		regions = append(regions, emucore.MemoryRegion{
			Type: emucore.MemorySaveRAM,
			Size: len(b.sram),
		})
	}
	return regions
}

// ReadRegion returns a copy of the specified memory region.
func (b *Base) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		out := make([]byte, len(b.ram))
		copy(out, b.ram)
		return out
	case emucore.MemorySaveRAM:
		return b.GetSRAM()
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (b *Base) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		copy(b.ram, data)
	case emucore.MemorySaveRAM:
		b.SetSRAM(data)
	}
}
