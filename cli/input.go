package cli

import (
	"github.com/hajimehoshi/ebiten/v2"
	emucore "github.com/user-none/eblitui/api"
)

// Key names used by SystemInfo.Buttons.DefaultKey.
var keyNames = map[string]ebiten.Key{
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "Q": ebiten.KeyQ,
	"R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT, "U": ebiten.KeyU,
	"V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX, "Y": ebiten.KeyY,
	"Z": ebiten.KeyZ,

	"0": ebiten.KeyDigit0, "1": ebiten.KeyDigit1, "2": ebiten.KeyDigit2,
	"3": ebiten.KeyDigit3, "4": ebiten.KeyDigit4, "5": ebiten.KeyDigit5,
	"6": ebiten.KeyDigit6, "7": ebiten.KeyDigit7, "8": ebiten.KeyDigit8,
	"9": ebiten.KeyDigit9,

	"Enter":      ebiten.KeyEnter,
	"Space":      ebiten.KeySpace,
	"RightShift": ebiten.KeyShiftRight,
	"Minus":      ebiten.KeyMinus,
	"Equal":      ebiten.KeyEqual,
}

var padNames = map[string]ebiten.StandardGamepadButton{
	"A":      ebiten.StandardGamepadButtonRightBottom,
	"B":      ebiten.StandardGamepadButtonRightRight,
	"X":      ebiten.StandardGamepadButtonRightLeft,
	"Y":      ebiten.StandardGamepadButtonRightTop,
	"L1":     ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":     ebiten.StandardGamepadButtonFrontTopRight,
	"Select": ebiten.StandardGamepadButtonCenterLeft,
	"Start":  ebiten.StandardGamepadButtonCenterRight,
}

type keyBinding struct {
	key ebiten.Key
	bit int
}

type padBinding struct {
	button ebiten.StandardGamepadButton
	bit    int
}

// bindings maps host input to an emucore button mask. The keyboard
// drives player 0; each connected gamepad drives the player of its
// index.
type bindings struct {
	keys []keyBinding
	pad  []padBinding
}

func newBindings(buttons []emucore.Button) bindings {
	var b bindings
	for _, btn := range buttons {
		if k, ok := keyNames[btn.DefaultKey]; ok {
			b.keys = append(b.keys, keyBinding{k, btn.ID})
		}
		if p, ok := padNames[btn.DefaultPad]; ok {
			b.pad = append(b.pad, padBinding{p, btn.ID})
		}
	}
	return b
}

var arrowKeys = [4]ebiten.Key{
	emucore.ButtonUp:    ebiten.KeyArrowUp,
	emucore.ButtonDown:  ebiten.KeyArrowDown,
	emucore.ButtonLeft:  ebiten.KeyArrowLeft,
	emucore.ButtonRight: ebiten.KeyArrowRight,
}

var dpadButtons = [4]ebiten.StandardGamepadButton{
	emucore.ButtonUp:    ebiten.StandardGamepadButtonLeftTop,
	emucore.ButtonDown:  ebiten.StandardGamepadButtonLeftBottom,
	emucore.ButtonLeft:  ebiten.StandardGamepadButtonLeftLeft,
	emucore.ButtonRight: ebiten.StandardGamepadButtonLeftRight,
}

func (b bindings) poll(player int) uint32 {
	var mask uint32
	if player == 0 {
		for bit, k := range arrowKeys {
			if ebiten.IsKeyPressed(k) {
				mask |= 1 << uint(bit)
			}
		}
		for _, kb := range b.keys {
			if ebiten.IsKeyPressed(kb.key) {
				mask |= 1 << uint(kb.bit)
			}
		}
	}

	ids := ebiten.AppendGamepadIDs(nil)
	if player >= len(ids) || !ebiten.IsStandardGamepadLayoutAvailable(ids[player]) {
		return mask
	}
	id := ids[player]
	for bit, btn := range dpadButtons {
		if ebiten.IsStandardGamepadButtonPressed(id, btn) {
			mask |= 1 << uint(bit)
		}
	}
	for _, pb := range b.pad {
		if ebiten.IsStandardGamepadButtonPressed(id, pb.button) {
			mask |= 1 << uint(pb.bit)
		}
	}

	// Left analog stick (with deadzone)
	const deadzone = 0.5
	x := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	y := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	switch {
	case x < -deadzone:
		mask |= 1 << emucore.ButtonLeft
	case x > deadzone:
		mask |= 1 << emucore.ButtonRight
	}
	switch {
	case y < -deadzone:
		mask |= 1 << emucore.ButtonUp
	case y > deadzone:
		mask |= 1 << emucore.ButtonDown
	}
	return mask
}
