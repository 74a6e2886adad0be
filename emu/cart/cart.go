// Package cart turns a raw ROM image into a Cartridge: the image, any
// console BIOS, and the metadata needed to pick a mapper and size its RAM.
package cart

import (
	"encoding/binary"
	"hash/crc32"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/mapper"
)

var (
	ErrROMTooSmall       = errors.New("cart: ROM too small")
	ErrBadHeader         = errors.New("cart: bad header")
	ErrMissingBIOS       = errors.New("cart: BIOS required")
	ErrUnsupportedSystem = errors.New("cart: unsupported system")
)

// System identifies an emulated machine.
type System int

const (
	SMS System = iota
	GameGear
	SG1000
	SC3000
	Coleco
	NES
	Chip8
)

var systemNames = [...]string{
	SMS:      "sms",
	GameGear: "gg",
	SG1000:   "sg1000",
	SC3000:   "sc3000",
	Coleco:   "coleco",
	NES:      "nes",
	Chip8:    "chip8",
}

func (s System) String() string {
	if s < 0 || int(s) >= len(systemNames) {
		return "unknown"
	}
	return systemNames[s]
}

// ParseSystem resolves a system name as used on the command line.
func ParseSystem(name string) (System, error) {
	for i, n := range systemNames {
		if n == strings.ToLower(name) {
			return System(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupportedSystem, "%q", name)
}

var extSystems = map[string]System{
	".sms": SMS,
	".gg":  GameGear,
	".sg":  SG1000,
	".sc":  SC3000,
	".col": Coleco,
	".nes": NES,
	".ch8": Chip8,
	".c8":  Chip8,
}

// SystemFromPath guesses the system from a file extension.
func SystemFromPath(path string) (System, error) {
	if s, ok := extSystems[strings.ToLower(filepath.Ext(path))]; ok {
		return s, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedSystem, "extension of %q", path)
}

// Meta is what the core needs to know about a cartridge besides its bytes.
type Meta struct {
	System    System
	Mapper    int
	ROMSize   int
	RAMSize   int
	Battery   bool
	Mirroring mapper.Mirroring
	PAL       bool
	CRC32     uint32
}

// Cartridge is a decoded image ready for a session.
type Cartridge struct {
	ROM  []byte
	CHR  []byte
	BIOS []byte
	Meta Meta
}

// minimum image sizes per system
var minSize = map[System]int{
	SMS:      0x400,
	GameGear: 0x400,
	SG1000:   0x400,
	SC3000:   0x400,
	Coleco:   0x400,
	Chip8:    2,
}

// Load builds a Cartridge for system s. NES images go through ParseINES.
// bios is required for ColecoVision and ignored elsewhere.
func Load(s System, data, bios []byte) (*Cartridge, error) {
	if s == NES {
		return ParseINES(data)
	}
	need, ok := minSize[s]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedSystem, "system %d", int(s))
	}
	if len(data) < need {
		return nil, errors.Wrapf(ErrROMTooSmall, "%s image is %d bytes", s, len(data))
	}

	c := &Cartridge{ROM: data, Meta: Meta{System: s, ROMSize: len(data), CRC32: crc32.ChecksumIEEE(data)}}
	switch s {
	case SMS, GameGear:
		c.Meta.Mapper = DetectSMSMapper(data)
	case SG1000, SC3000:
		c.Meta.Mapper = mapper.ROMOnly
	case Coleco:
		if len(bios) == 0 {
			return nil, ErrMissingBIOS
		}
		c.BIOS = bios
		c.Meta.Mapper = mapper.Coleco
	case Chip8:
		if len(data) > 0x1000-0x200 {
			return nil, errors.Wrapf(ErrBadHeader, "CHIP-8 program is %d bytes", len(data))
		}
	}
	return c, nil
}

// DetectSMSMapper guesses the board of an SMS or Game Gear image.
// Codemasters games carry a checksum and its complement at $7FE6 that sum
// to $10000; everything else is assumed to use the Sega mapper.
func DetectSMSMapper(rom []byte) int {
	if len(rom) >= 0x8000 {
		sum := binary.LittleEndian.Uint16(rom[0x7FE6:])
		inv := binary.LittleEndian.Uint16(rom[0x7FE8:])
		if sum != 0 && uint32(sum)+uint32(inv) == 0x10000 {
			return mapper.Codemasters
		}
	}
	return mapper.Sega
}

// ExportRegion reads the region nibble of an SMS "TMR SEGA" header.
// It reports ok=false when there is no header.
func ExportRegion(rom []byte) (export bool, ok bool) {
	for _, off := range []int{0x7FF0, 0x3FF0, 0x1FF0} {
		if len(rom) < off+16 || string(rom[off:off+8]) != "TMR SEGA" {
			continue
		}
		switch rom[off+15] >> 4 {
		case 3, 5:
			return false, true
		default:
			return true, true
		}
	}
	return false, false
}

const inesHeaderSize = 16

// ParseINES decodes an iNES (or NES 2.0) image.
func ParseINES(data []byte) (*Cartridge, error) {
	if len(data) < inesHeaderSize {
		return nil, errors.Wrapf(ErrROMTooSmall, "%d bytes", len(data))
	}
	if string(data[0:4]) != "NES\x1A" {
		return nil, errors.Wrap(ErrBadHeader, "missing iNES magic")
	}
	prg := int(data[4]) * 0x4000
	chr := int(data[5]) * 0x2000
	f6, f7 := data[6], data[7]

	off := inesHeaderSize
	if f6&0x04 != 0 {
		off += 512 // trainer
	}
	if prg == 0 {
		return nil, errors.Wrap(ErrBadHeader, "no PRG ROM")
	}
	if len(data) < off+prg+chr {
		return nil, errors.Wrapf(ErrROMTooSmall, "header declares %d bytes, image has %d", off+prg+chr, len(data))
	}

	meta := Meta{
		System:  NES,
		Mapper:  int(f6>>4) | int(f7&0xF0),
		ROMSize: prg,
		Battery: f6&0x02 != 0,
		CRC32:   crc32.ChecksumIEEE(data[off : off+prg+chr]),
	}
	switch {
	case f6&0x08 != 0:
		meta.Mirroring = mapper.MirrorFourScreen
	case f6&0x01 != 0:
		meta.Mirroring = mapper.MirrorVertical
	default:
		meta.Mirroring = mapper.MirrorHorizontal
	}
	if f7&0x0C == 0x08 {
		// NES 2.0 keeps the region in byte 12.
		meta.PAL = data[12]&0x03 == 1
	} else {
		meta.PAL = data[9]&0x01 != 0
		meta.RAMSize = int(data[8]) * 0x2000
	}
	if meta.RAMSize == 0 {
		meta.RAMSize = 0x2000
	}

	return &Cartridge{
		ROM:  data[off : off+prg],
		CHR:  data[off+prg : off+prg+chr],
		Meta: meta,
	}, nil
}
