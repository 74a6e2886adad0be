// Package sched drives a machine one scanline at a time, keeping the CPU
// in step with the video chip using a fractional cycle balance.
package sched

import (
	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/savestate"
)

// Tag is the save-state record holding the scheduler counters.
const (
	Tag          = "SCHD"
	StateVersion = 1
)

// Timing describes a frame in master units. A line lasts LineCycles
// units and a CPU cycle CPUDivider units, so divisions that don't come
// out even (the NES runs 341/3 CPU cycles per line) carry their
// remainder to the next line.
type Timing struct {
	LineCycles    int
	CPUDivider    int
	LinesPerFrame int
}

// FrameUnits is the length of one frame in master units.
func (t Timing) FrameUnits() int64 { return int64(t.LineCycles) * int64(t.LinesPerFrame) }

// CPUCyclesPerFrame is the rounded number of CPU cycles in a frame.
func (t Timing) CPUCyclesPerFrame() int { return int(t.FrameUnits() / int64(t.CPUDivider)) }

var ErrBadTiming = errors.New("sched: invalid timing")

// Validate reports whether all fields are positive.
func (t Timing) Validate() error {
	if t.LineCycles <= 0 || t.CPUDivider <= 0 || t.LinesPerFrame <= 0 {
		return errors.Wrapf(ErrBadTiming, "%+v", t)
	}
	return nil
}

// Machine is what a session exposes to the scheduler.
type Machine interface {
	// ExecuteLine runs the video chip for line and updates interrupt
	// lines. skip is set when the frame will not be displayed.
	ExecuteLine(line int, skip bool)
	// RunCPU executes whole instructions until at least cycles CPU cycles
	// have elapsed and returns the number executed.
	RunCPU(cycles int) int
	// EndLine is called after the CPU has caught up with line. elapsed is
	// the CPU cycles executed during the line.
	EndLine(line int, elapsed int)
}

// Scheduler sequences a Machine. Per line the order is always video,
// then CPU, then EndLine.
type Scheduler struct {
	Timing     Timing
	SkipRender bool

	m Machine

	line    int
	started bool
	elapsed int

	// Master units into the current frame for the video side and the
	// CPU side. The CPU runs ahead by at most one instruction.
	clock int64
	cpu   int64

	frames uint64
}

// New creates a scheduler for m.
func New(t Timing, m Machine) *Scheduler {
	return &Scheduler{Timing: t, m: m}
}

// Reset returns to line 0 of a fresh frame.
func (s *Scheduler) Reset() {
	s.line, s.started, s.elapsed = 0, false, 0
	s.clock, s.cpu = 0, 0
	s.frames = 0
}

// Line returns the line in progress, or the next one to start.
func (s *Scheduler) Line() int { return s.line }

// Frames returns the number of completed frames.
func (s *Scheduler) Frames() uint64 { return s.frames }

// Balance returns the master units the CPU owes (positive) or has run
// ahead (negative) relative to the video clock.
func (s *Scheduler) Balance() int64 { return s.clock - s.cpu }

func (s *Scheduler) begin() {
	s.m.ExecuteLine(s.line, s.SkipRender)
	s.clock += int64(s.Timing.LineCycles)
	s.started = true
}

// finish ends the line and reports whether it was the last of the frame.
func (s *Scheduler) finish() bool {
	s.m.EndLine(s.line, s.elapsed)
	s.elapsed = 0
	s.started = false
	s.line++
	if s.line < s.Timing.LinesPerFrame {
		return false
	}
	s.line = 0
	total := s.Timing.FrameUnits()
	s.clock -= total
	s.cpu -= total
	s.frames++
	return true
}

func (s *Scheduler) owed() int {
	d := int64(s.Timing.CPUDivider)
	diff := s.clock - s.cpu
	if diff <= 0 {
		return 0
	}
	return int((diff + d - 1) / d)
}

func (s *Scheduler) run(n int) {
	ran := s.m.RunCPU(n)
	s.elapsed += ran
	s.cpu += int64(ran) * int64(s.Timing.CPUDivider)
}

// StepLine completes the current line (starting it if needed) and
// reports whether the frame ended.
func (s *Scheduler) StepLine() bool {
	if !s.started {
		s.begin()
	}
	if n := s.owed(); n > 0 {
		s.run(n)
	}
	return s.finish()
}

// StepInstruction executes one CPU instruction, crossing into the next
// line first when the current one is paid for. It reports whether the
// instruction ended a frame.
func (s *Scheduler) StepInstruction() bool {
	if !s.started {
		s.begin()
	}
	if s.owed() > 0 {
		s.run(1)
	}
	if s.owed() > 0 {
		return false
	}
	return s.finish()
}

// RunFrame runs lines until the current frame completes.
func (s *Scheduler) RunFrame() {
	for !s.StepLine() {
	}
}

// SaveState writes the payload of an SCHD record.
func (s *Scheduler) SaveState(w *savestate.Writer) {
	w.Int(s.line)
	w.Bool(s.started)
	w.Int(s.elapsed)
	w.U64(uint64(s.clock))
	w.U64(uint64(s.cpu))
	w.U64(s.frames)
}

// LoadState restores the payload of an SCHD record.
func (s *Scheduler) LoadState(d *savestate.Decoder) error {
	line := d.Int()
	started := d.Bool()
	elapsed := d.Int()
	clock := int64(d.U64())
	cpu := int64(d.U64())
	frames := d.U64()
	if err := d.Err(); err != nil {
		return err
	}
	if line < 0 || line >= s.Timing.LinesPerFrame {
		return errors.Wrapf(savestate.ErrMalformed, "sched: line %d", line)
	}
	s.line, s.started, s.elapsed = line, started, elapsed
	s.clock, s.cpu, s.frames = clock, cpu, frames
	return nil
}
