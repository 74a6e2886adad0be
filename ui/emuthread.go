// Package ui holds the pieces shared between the window thread and the
// emulation goroutine: input and frame handoff, run control and audio
// playback.
package ui

import "sync"

// MaxPlayers is the number of pads the window polls.
const MaxPlayers = 2

// SharedInput holds the button masks written by the window thread and
// read by the emulation goroutine once per frame.
type SharedInput struct {
	mu      sync.Mutex
	buttons [MaxPlayers]uint32
}

// Set stores the mask for player.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= MaxPlayers {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns every player's mask.
func (si *SharedInput) Read() [MaxPlayers]uint32 {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.buttons
}

// SharedFramebuffer double buffers RGBA rows between the emulation
// goroutine and Draw. Read hands back its own copy so Draw never holds
// the lock while uploading.
type SharedFramebuffer struct {
	mu     sync.Mutex
	write  []byte
	read   []byte
	stride int
	height int
}

// NewSharedFramebuffer allocates for the largest frame a system shows.
func NewSharedFramebuffer(width, maxHeight int) *SharedFramebuffer {
	n := width * maxHeight * 4
	return &SharedFramebuffer{write: make([]byte, n), read: make([]byte, n)}
}

// Update copies a finished frame in. Anything past the buffer is cut.
func (sf *SharedFramebuffer) Update(pixels []byte, stride, height int) {
	sf.mu.Lock()
	n := copy(sf.write, pixels[:min(len(pixels), stride*height)])
	sf.stride = stride
	sf.height = n / max(stride, 1)
	sf.mu.Unlock()
}

// Read returns the latest frame.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, height int) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	copy(sf.read, sf.write[:sf.stride*sf.height])
	return sf.read, sf.stride, sf.height
}

// EmuControl lets the window thread pause, resume and stop the
// emulation goroutine between frames.
type EmuControl struct {
	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool
}

// NewEmuControl returns a control in the running state.
func NewEmuControl() *EmuControl {
	ec := &EmuControl{}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// Wait is called by the emulation goroutine before each frame. It blocks
// while paused and returns false once stopped.
func (ec *EmuControl) Wait() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for ec.paused && !ec.stopped {
		ec.cond.Wait()
	}
	return !ec.stopped
}

// TogglePause flips the pause state and returns the new one.
func (ec *EmuControl) TogglePause() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.paused = !ec.paused
	ec.cond.Broadcast()
	return ec.paused
}

// Paused reports whether emulation is held.
func (ec *EmuControl) Paused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.paused
}

// Stop makes every later Wait return false.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	ec.cond.Broadcast()
	ec.mu.Unlock()
}
