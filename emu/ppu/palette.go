package ppu

import "github.com/user-none/em8bit/emu/video"

// hostPalette maps the 64 2C02 color indices to RGB.
var hostPalette = [64]video.Pixel{
	video.RGB(0x66, 0x66, 0x66), video.RGB(0x00, 0x2A, 0x88), video.RGB(0x14, 0x12, 0xA7), video.RGB(0x3B, 0x00, 0xA4),
	video.RGB(0x5C, 0x00, 0x7E), video.RGB(0x6E, 0x00, 0x40), video.RGB(0x6C, 0x06, 0x00), video.RGB(0x56, 0x1D, 0x00),
	video.RGB(0x33, 0x35, 0x00), video.RGB(0x0B, 0x48, 0x00), video.RGB(0x00, 0x52, 0x00), video.RGB(0x00, 0x4F, 0x08),
	video.RGB(0x00, 0x40, 0x4D), video.RGB(0x00, 0x00, 0x00), video.RGB(0x00, 0x00, 0x00), video.RGB(0x00, 0x00, 0x00),
	video.RGB(0xAD, 0xAD, 0xAD), video.RGB(0x15, 0x5F, 0xD9), video.RGB(0x42, 0x40, 0xFF), video.RGB(0x75, 0x27, 0xFE),
	video.RGB(0xA0, 0x1A, 0xCC), video.RGB(0xB7, 0x1E, 0x7B), video.RGB(0xB5, 0x31, 0x20), video.RGB(0x99, 0x4E, 0x00),
	video.RGB(0x6B, 0x6D, 0x00), video.RGB(0x38, 0x87, 0x00), video.RGB(0x0C, 0x93, 0x00), video.RGB(0x00, 0x8F, 0x32),
	video.RGB(0x00, 0x7C, 0x8D), video.RGB(0x00, 0x00, 0x00), video.RGB(0x00, 0x00, 0x00), video.RGB(0x00, 0x00, 0x00),
	video.RGB(0xFF, 0xFE, 0xFF), video.RGB(0x64, 0xB0, 0xFF), video.RGB(0x92, 0x90, 0xFF), video.RGB(0xC6, 0x76, 0xFF),
	video.RGB(0xF3, 0x6A, 0xFF), video.RGB(0xFE, 0x6E, 0xCC), video.RGB(0xFE, 0x81, 0x70), video.RGB(0xEA, 0x9E, 0x22),
	video.RGB(0xBC, 0xBE, 0x00), video.RGB(0x88, 0xD8, 0x00), video.RGB(0x5C, 0xE4, 0x30), video.RGB(0x45, 0xE0, 0x82),
	video.RGB(0x48, 0xCD, 0xDE), video.RGB(0x4F, 0x4F, 0x4F), video.RGB(0x00, 0x00, 0x00), video.RGB(0x00, 0x00, 0x00),
	video.RGB(0xFF, 0xFE, 0xFF), video.RGB(0xC0, 0xDF, 0xFF), video.RGB(0xD3, 0xD2, 0xFF), video.RGB(0xE8, 0xC8, 0xFF),
	video.RGB(0xFB, 0xC2, 0xFF), video.RGB(0xFE, 0xC4, 0xEA), video.RGB(0xFE, 0xCC, 0xC5), video.RGB(0xF7, 0xD8, 0xA5),
	video.RGB(0xE4, 0xE5, 0x94), video.RGB(0xCF, 0xEF, 0x96), video.RGB(0xBD, 0xF4, 0xAB), video.RGB(0xB3, 0xF3, 0xCC),
	video.RGB(0xB5, 0xEB, 0xF2), video.RGB(0xB8, 0xB8, 0xB8), video.RGB(0x00, 0x00, 0x00), video.RGB(0x00, 0x00, 0x00),
}
