package video

import (
	"image"
	"testing"
)

func TestFrame_RGBACropsActive(t *testing.T) {
	f := NewFrame(4, 3)
	f.Fill(RGB(0, 0, 0))
	f.Row(1)[2] = RGB(0xFF, 0xFF, 0xFF)
	f.SetActive(image.Rect(1, 1, 3, 2))

	if f.Stride() != 8 {
		t.Errorf("expected stride 8, got %d", f.Stride())
	}
	buf := f.RGBA()
	if len(buf) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(buf))
	}
	if buf[0] != 0 || buf[4] != 0xFF || buf[7] != 0xFF {
		t.Errorf("unexpected pixels % X", buf)
	}
}

func TestFrame_SetActiveClips(t *testing.T) {
	f := NewFrame(256, 192)
	f.SetActive(image.Rect(-10, 0, 300, 192))
	if got := f.ActiveRect(); got != image.Rect(0, 0, 256, 192) {
		t.Errorf("expected clipped rect, got %v", got)
	}
}

func TestComponents_WhiteRoundTrip(t *testing.T) {
	r, g, b := Components(RGB(0xFF, 0xFF, 0xFF))
	if r != 0xFF || g != 0xFF || b != 0xFF {
		t.Errorf("white became %02X%02X%02X", r, g, b)
	}
}
