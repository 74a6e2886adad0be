package system

import (
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/em8bit/emu/sched"
)

// Region is an alias for emucore.Region so sessions don't import emucore
// for it.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds timing constants for one machine in one region.
type RegionTiming struct {
	CPUClockHz int // main CPU clock
	Scanlines  int // total lines per frame
	FPS        int
	Line       sched.Timing
}

// Sega Z80 machines (SMS, GG, SG-1000, SC-3000, ColecoVision) run the Z80
// at the color subcarrier rate with 228 CPU cycles per line.
const segaLineCycles = 228

var SegaNTSC = RegionTiming{
	CPUClockHz: 3579545,
	Scanlines:  262,
	FPS:        60,
	Line:       sched.Timing{LineCycles: segaLineCycles, CPUDivider: 1, LinesPerFrame: 262},
}

var SegaPAL = RegionTiming{
	CPUClockHz: 3546893,
	Scanlines:  313,
	FPS:        50,
	Line:       sched.Timing{LineCycles: segaLineCycles, CPUDivider: 1, LinesPerFrame: 313},
}

// The NES counts in PPU dots: 341 per line, 3 per CPU cycle on NTSC and
// 3.2 on PAL. PAL is expressed in fifths of a dot so the divider stays
// integral.
var NESNTSC = RegionTiming{
	CPUClockHz: 1789773,
	Scanlines:  262,
	FPS:        60,
	Line:       sched.Timing{LineCycles: 341, CPUDivider: 3, LinesPerFrame: 262},
}

var NESPAL = RegionTiming{
	CPUClockHz: 1662607,
	Scanlines:  312,
	FPS:        50,
	Line:       sched.Timing{LineCycles: 341 * 5, CPUDivider: 16, LinesPerFrame: 312},
}

// SegaTiming returns the Z80 machine timing for r.
func SegaTiming(r Region) RegionTiming {
	if r == RegionPAL {
		return SegaPAL
	}
	return SegaNTSC
}

// NESTiming returns the NES timing for r.
func NESTiming(r Region) RegionTiming {
	if r == RegionPAL {
		return NESPAL
	}
	return NESNTSC
}

// Chip8Timing runs ipf instructions per 60 Hz frame as a single line.
func Chip8Timing(ipf int) RegionTiming {
	if ipf < 1 {
		ipf = 1
	}
	return RegionTiming{
		CPUClockHz: ipf * 60,
		Scanlines:  1,
		FPS:        60,
		Line:       sched.Timing{LineCycles: ipf, CPUDivider: 1, LinesPerFrame: 1},
	}
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
