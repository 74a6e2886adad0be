package ui

import (
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// sampleRingCapacity is about 170ms of 48kHz stereo.
const sampleRingCapacity = 16384

// SampleRing is a bounded FIFO of interleaved stereo int16 samples. The
// emulation goroutine pushes a frame at a time; oto pulls little-endian
// bytes through Read. A full ring drops its oldest samples so the
// producer never waits.
type SampleRing struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []int16
	head   int // next sample to read
	n      int
	closed bool
}

// NewSampleRing creates a ring holding up to capacity samples.
func NewSampleRing(capacity int) *SampleRing {
	r := &SampleRing{buf: make([]int16, capacity)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Push appends samples, overwriting the oldest on overflow.
func (r *SampleRing) Push(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || len(samples) == 0 {
		return
	}
	if len(samples) > len(r.buf) {
		samples = samples[len(samples)-len(r.buf):]
	}
	if drop := r.n + len(samples) - len(r.buf); drop > 0 {
		r.head = (r.head + drop) % len(r.buf)
		r.n -= drop
	}
	tail := (r.head + r.n) % len(r.buf)
	for _, s := range samples {
		r.buf[tail] = s
		tail++
		if tail == len(r.buf) {
			tail = 0
		}
	}
	r.n += len(samples)
	r.cond.Signal()
}

// Read fills p with whole samples as little-endian bytes. It blocks
// while the ring is empty and returns io.EOF once closed and drained.
func (r *SampleRing) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.n == 0 {
		if r.closed {
			return 0, io.EOF
		}
		r.cond.Wait()
	}
	count := len(p) / 2
	if count > r.n {
		count = r.n
	}
	for i := 0; i < count; i++ {
		s := r.buf[r.head]
		p[2*i] = byte(s)
		p[2*i+1] = byte(s >> 8)
		r.head++
		if r.head == len(r.buf) {
			r.head = 0
		}
	}
	r.n -= count
	return count * 2, nil
}

// Buffered returns the queued sample count.
func (r *SampleRing) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Close wakes any blocked reader.
func (r *SampleRing) Close() {
	r.mu.Lock()
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
)

func audioContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoInitErr == nil {
			<-ready
		}
	})
	return otoCtx, otoInitErr
}

// AudioPlayer plays session audio through oto.
type AudioPlayer struct {
	player *oto.Player
	ring   *SampleRing
}

// NewAudioPlayer starts playback at sampleRate. Only the first call's
// rate takes effect since oto allows one context per process.
func NewAudioPlayer(sampleRate int, volume float64) (*AudioPlayer, error) {
	ctx, err := audioContext(sampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "oto audio not available")
	}
	ring := NewSampleRing(sampleRingCapacity)
	player := ctx.NewPlayer(ring)
	player.SetBufferSize(sampleRate / 10 * 4)
	player.SetVolume(volume)
	player.Play()
	return &AudioPlayer{player: player, ring: ring}, nil
}

// Queue hands a frame of samples to the player.
func (a *AudioPlayer) Queue(samples []int16) { a.ring.Push(samples) }

// Buffered returns the bytes waiting to be played, in the ring and in
// oto's own buffer. The runner paces frames on it.
func (a *AudioPlayer) Buffered() int {
	return a.ring.Buffered()*2 + a.player.BufferedSize()
}

// Close stops playback.
func (a *AudioPlayer) Close() {
	a.ring.Close()
	a.player.Close()
}
