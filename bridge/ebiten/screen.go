// Package ebiten draws session frames into an Ebiten window.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Screen scales RGBA frames to fit the window at the system's aspect
// ratio. Frames may change height between modes; width is fixed per
// system.
type Screen struct {
	width  int
	aspect float64

	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// NewScreen returns a screen for frames width pixels wide shown at aspect
// (width over height). A zero aspect uses square pixels.
func NewScreen(width int, aspect float64) *Screen {
	return &Screen{width: width, aspect: aspect}
}

// Layout implements ebiten.Game.
func (s *Screen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Draw uploads pixels and draws them centered, letterboxed to keep the
// aspect ratio.
func (s *Screen) Draw(screen *ebiten.Image, pixels []byte, stride, height int) {
	if height == 0 || stride != s.width*4 || len(pixels) < stride*height {
		return
	}
	if s.offscreen == nil || s.offscreen.Bounds().Dy() != height {
		s.offscreen = ebiten.NewImage(s.width, height)
	}
	s.offscreen.WritePixels(pixels[:stride*height])

	srcW, srcH := float64(s.width), float64(height)
	sx := 1.0
	if s.aspect > 0 {
		// stretch horizontally so srcW*sx / srcH == aspect
		sx = s.aspect * srcH / srcW
	}
	dstW, dstH := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	scale := min(dstW/(srcW*sx), dstH/srcH)

	s.drawOpts = ebiten.DrawImageOptions{Filter: ebiten.FilterNearest}
	s.drawOpts.GeoM.Scale(sx*scale, scale)
	s.drawOpts.GeoM.Translate((dstW-srcW*sx*scale)/2, (dstH-srcH*scale)/2)
	screen.DrawImage(s.offscreen, &s.drawOpts)
}
