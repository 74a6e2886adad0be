// Package video holds the frame buffer shared by the video chips and the
// conversions the hosts need.
package video

import "image"

// Frame is a fixed-size grid of host pixels. The active rectangle is the
// part a host should display; it changes with the video mode.
type Frame struct {
	Width  int
	Height int
	Pix    []Pixel

	active image.Rectangle
	rgba   []byte
}

// NewFrame allocates a w by h black frame whose active area is the whole
// frame.
func NewFrame(w, h int) *Frame {
	f := &Frame{
		Width:  w,
		Height: h,
		Pix:    make([]Pixel, w*h),
		active: image.Rect(0, 0, w, h),
	}
	f.Fill(RGB(0, 0, 0))
	return f
}

// Row returns line y.
func (f *Frame) Row(y int) []Pixel {
	return f.Pix[y*f.Width : (y+1)*f.Width]
}

// Fill sets every pixel to p.
func (f *Frame) Fill(p Pixel) {
	for i := range f.Pix {
		f.Pix[i] = p
	}
}

// SetActive sets the displayed sub-rectangle, clipped to the frame.
func (f *Frame) SetActive(r image.Rectangle) {
	f.active = r.Intersect(image.Rect(0, 0, f.Width, f.Height))
}

// ActiveRect returns the displayed sub-rectangle.
func (f *Frame) ActiveRect() image.Rectangle { return f.active }

// Stride is the byte length of one RGBA row as returned by RGBA.
func (f *Frame) Stride() int { return f.active.Dx() * 4 }

// RGBA converts the active rectangle to packed RGBA bytes. The returned
// slice is reused by the next call.
func (f *Frame) RGBA() []byte {
	w, h := f.active.Dx(), f.active.Dy()
	if cap(f.rgba) < w*h*4 {
		f.rgba = make([]byte, w*h*4)
	}
	f.rgba = f.rgba[:w*h*4]
	i := 0
	for y := f.active.Min.Y; y < f.active.Max.Y; y++ {
		row := f.Row(y)[f.active.Min.X:f.active.Max.X]
		for _, p := range row {
			r, g, b := Components(p)
			f.rgba[i] = r
			f.rgba[i+1] = g
			f.rgba[i+2] = b
			f.rgba[i+3] = 0xFF
			i += 4
		}
	}
	return f.rgba
}

// Image returns a copy of the active rectangle as an image.
func (f *Frame) Image() *image.RGBA {
	r := f.active
	img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	copy(img.Pix, f.RGBA())
	return img
}
