package system

import (
	"math"

	"github.com/user-none/go-chip-sn76489"
)

const (
	SampleRate    = 48000
	psgBufferSize = 1024
	psgGain       = 1898.0
	lpfCutoffHz   = 2840.0

	beepHz    = 440
	beepLevel = 6000
)

// lpfAlpha is the smoothing factor for the first-order RC low-pass filter.
// Derived from: alpha = dt / (RC + dt) where RC = 1/(2*pi*fc).
var lpfAlpha = 1.0 / (float64(SampleRate)/(2*math.Pi*lpfCutoffHz) + 1)

// NewPSG creates an SN76489 clocked from the Z80 clock of t.
func NewPSG(t RegionTiming) *sn76489.SN76489 {
	psg := sn76489.New(t.CPUClockHz, SampleRate, psgBufferSize, sn76489.Sega)
	psg.SetGain(psgGain)
	return psg
}

// Audio accumulates one frame of 16-bit stereo PCM.
type Audio struct {
	buf []int16

	// LowPass enables the RC output filter.
	LowPass bool

	// Low-pass filter state, persists across frames.
	filterPrevL float64
	filterPrevR float64

	// Square wave phase for beeper machines.
	phase int

	// PSG output restored from a state saved mid-frame, mixed ahead of
	// the chip's own buffer.
	carry []float32
}

func newAudio() Audio {
	return Audio{buf: make([]int16, 0, 2048)}
}

// Begin clears the buffer for a new frame.
func (a *Audio) Begin() { a.buf = a.buf[:0] }

// Samples returns the accumulated samples.
func (a *Audio) Samples() []int16 { return a.buf }

// MixPSG appends the PSG output buffer as stereo, mono duplicated to L/R,
// and resets the PSG buffer.
func (a *Audio) MixPSG(psg *sn76489.SN76489) {
	buf, n := psg.GetBuffer()
	start := len(a.buf)
	a.appendMono(a.carry)
	a.carry = a.carry[:0]
	a.appendMono(buf[:n])
	psg.ResetBuffer()
	if a.LowPass {
		a.applyLowPass(a.buf[start:])
	}
}

func (a *Audio) appendMono(buf []float32) {
	for _, v := range buf {
		s := int16(clampInt32(int32(v), -32768, 32767))
		a.buf = append(a.buf, s, s)
	}
}

// Silence appends n stereo frames of silence.
func (a *Audio) Silence(n int) {
	for i := 0; i < n; i++ {
		a.buf = append(a.buf, 0, 0)
	}
}

// Beep appends n stereo frames of the beeper: a square wave while on,
// silence otherwise. The phase carries across calls so the tone is
// continuous between frames.
func (a *Audio) Beep(n int, on bool) {
	half := SampleRate / beepHz / 2
	for i := 0; i < n; i++ {
		var s int16
		if on {
			s = beepLevel
			if (a.phase/half)&1 != 0 {
				s = -beepLevel
			}
			a.phase++
		}
		a.buf = append(a.buf, s, s)
	}
	if !on {
		a.phase = 0
	}
}

// applyLowPass applies a first-order RC low-pass filter per stereo
// channel with state persisting across frames.
func (a *Audio) applyLowPass(buf []int16) {
	for i := 0; i+1 < len(buf); i += 2 {
		inL := float64(buf[i])
		inR := float64(buf[i+1])
		a.filterPrevL = lpfAlpha*inL + (1-lpfAlpha)*a.filterPrevL
		a.filterPrevR = lpfAlpha*inR + (1-lpfAlpha)*a.filterPrevR
		buf[i] = int16(math.Round(a.filterPrevL))
		buf[i+1] = int16(math.Round(a.filterPrevR))
	}
}

// SamplesPerFrame is the stereo frame count for one video frame at fps.
func SamplesPerFrame(fps int) int { return SampleRate / fps }

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
