// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emucore "github.com/user-none/eblitui/api"

	emubridge "github.com/user-none/em8bit/bridge/ebiten"
	"github.com/user-none/em8bit/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

type stateOp int

const (
	opSave stateOp = iota
	opLoad
)

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
type Runner struct {
	emulator    emucore.Emulator
	screen      *emubridge.Screen
	bindings    bindings
	audioPlayer *ui.AudioPlayer

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	stateReq          chan stateOp
	emuDone           chan struct{}

	// quick save slot, touched only by the emulation goroutine
	slot []byte
}

// NewRunner creates a new Runner wrapping the given emulator.
// Audio initialization failure is non-fatal; the runner will work without sound.
func NewRunner(e emucore.Emulator, info emucore.SystemInfo) *Runner {
	player, err := ui.NewAudioPlayer(info.SampleRate, 1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:          e,
		screen:            emubridge.NewScreen(info.ScreenWidth, info.AspectRatio),
		bindings:          newBindings(info.Buttons),
		audioPlayer:       player,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebuffer(info.ScreenWidth, info.MaxScreenHeight),
		stateReq:          make(chan stateOp, 1),
		emuDone:           make(chan struct{}),
	}

	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine and audio.
func (r *Runner) Close() {
	r.emuControl.Stop()
	<-r.emuDone

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for r.emuControl.Wait() {
		select {
		case op := <-r.stateReq:
			r.applyState(op)
		default:
		}

		for player, buttons := range r.sharedInput.Read() {
			r.emulator.SetInput(player, buttons)
		}

		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.Queue(r.emulator.GetAudioSamples())
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		// ADT sleep
		sleepTime := frameTime - time.Since(lastFrameTime)
		if r.audioPlayer != nil {
			switch level := r.audioPlayer.Buffered(); {
			case level < adtMinBuffer:
				sleepTime = sleepTime * 9 / 10
			case level > adtMaxBuffer:
				sleepTime = sleepTime * 11 / 10
			}
		}
		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}
		lastFrameTime = time.Now()
	}
}

func (r *Runner) applyState(op stateOp) {
	s, ok := r.emulator.(emucore.SaveStater)
	if !ok {
		return
	}
	switch op {
	case opSave:
		data, err := s.Serialize()
		if err != nil {
			log.Printf("save state: %v", err)
			return
		}
		r.slot = data
		log.Printf("state saved (%d bytes)", len(data))
	case opLoad:
		if r.slot == nil {
			return
		}
		if err := s.Deserialize(r.slot); err != nil {
			log.Printf("load state: %v", err)
			return
		}
		log.Printf("state loaded")
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		r.emuControl.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		r.requestState(opSave)
	case inpututil.IsKeyJustPressed(ebiten.KeyF8):
		r.requestState(opLoad)
	}

	for player := 0; player < ui.MaxPlayers; player++ {
		r.sharedInput.Set(player, r.bindings.poll(player))
	}
	return nil
}

func (r *Runner) requestState(op stateOp) {
	select {
	case r.stateReq <- op:
	default:
	}
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	r.screen.Draw(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.screen.Layout(outsideWidth, outsideHeight)
}
