// Package savestate implements the tagged record container used for save
// states.
//
// Each record is laid out as:
//
//	tag      [4]byte
//	length   uint32 LE  (whole record, header included)
//	version  uint16 LE
//	flags    uint16 LE  (bit 0: essential)
//	children uint32 LE  (offset of the first child from the record start, 0 if none)
//	payload  ...
//	child records ...
package savestate

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed size of a record header.
const HeaderSize = 16

// FlagEssential marks a record that a loader must understand.
const FlagEssential uint16 = 1 << 0

var (
	ErrMalformed        = errors.New("savestate: malformed record")
	ErrVersion          = errors.New("savestate: version mismatch")
	ErrLength           = errors.New("savestate: length mismatch")
	ErrUnknownEssential = errors.New("savestate: unknown essential record")
	ErrMissing          = errors.New("savestate: missing record")
	ErrWrongROM         = errors.New("savestate: state belongs to a different ROM")
)

// Record is one parsed record. Payload and Children alias the input buffer.
type Record struct {
	Tag      string
	Version  uint16
	Flags    uint16
	Payload  []byte
	Children []*Record
}

// Essential reports whether the essential flag is set.
func (r *Record) Essential() bool { return r.Flags&FlagEssential != 0 }

// Child returns the first child record with the given tag.
func (r *Record) Child(tag string) *Record {
	tag = string(padTag(tag))
	for _, c := range r.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Decoder returns a decoder over the record payload.
func (r *Record) Decoder() *Decoder {
	return &Decoder{tag: r.Tag, buf: r.Payload}
}

// Parse reads one top-level record and its descendants from data. Trailing
// bytes after the record are rejected.
func Parse(data []byte) (*Record, error) {
	rec, n, err := parseRecord(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, errors.Wrapf(ErrMalformed, "%d trailing bytes", len(data)-n)
	}
	return rec, nil
}

// ParseAll reads a sequence of sibling records.
func ParseAll(data []byte) ([]*Record, error) {
	var out []*Record
	for len(data) > 0 {
		rec, n, err := parseRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		data = data[n:]
	}
	return out, nil
}

func parseRecord(data []byte) (*Record, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, errors.Wrapf(ErrMalformed, "short header (%d bytes)", len(data))
	}
	length := binary.LittleEndian.Uint32(data[4:8])
	if length < HeaderSize || uint64(length) > uint64(len(data)) {
		return nil, 0, errors.Wrapf(ErrMalformed, "record %q length %d out of range", data[0:4], length)
	}
	rec := &Record{
		Tag:     string(data[0:4]),
		Version: binary.LittleEndian.Uint16(data[8:10]),
		Flags:   binary.LittleEndian.Uint16(data[10:12]),
	}
	childOff := binary.LittleEndian.Uint32(data[12:16])
	body := data[:length]

	if childOff == 0 {
		rec.Payload = body[HeaderSize:]
		return rec, int(length), nil
	}
	if childOff < HeaderSize || childOff > length {
		return nil, 0, errors.Wrapf(ErrMalformed, "record %q child offset %d out of range", rec.Tag, childOff)
	}
	rec.Payload = body[HeaderSize:childOff]
	children, err := ParseAll(body[childOff:])
	if err != nil {
		return nil, 0, errors.Wrapf(err, "in record %q", rec.Tag)
	}
	rec.Children = children
	return rec, int(length), nil
}
