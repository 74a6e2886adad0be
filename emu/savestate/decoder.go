package savestate

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Decoder reads fixed fields from a record payload. The first underflow is
// latched and reported by Finish; reads after it return zero values.
type Decoder struct {
	tag string
	buf []byte
	off int
	err error
}

// NewDecoder wraps a raw payload.
func NewDecoder(tag string, payload []byte) *Decoder {
	return &Decoder{tag: tag, buf: payload}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = errors.Wrapf(ErrLength, "record %q payload too short", d.tag)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// U8 reads a byte.
func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads a one-byte bool.
func (d *Decoder) Bool() bool { return d.U8() != 0 }

// U16 reads a little-endian uint16.
func (d *Decoder) U16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32.
func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64 reads a little-endian uint64.
func (d *Decoder) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Int reads a value written by Writer.Int.
func (d *Decoder) Int() int { return int(int64(d.U64())) }

// F64 reads a float64 bit pattern.
func (d *Decoder) F64() float64 { return math.Float64frombits(d.U64()) }

// Bytes32 reads a length-prefixed slice into dst. The stored length must
// equal len(dst).
func (d *Decoder) Bytes32(dst []byte) {
	n := int(d.U32())
	if d.err == nil && n != len(dst) {
		d.err = errors.Wrapf(ErrLength, "record %q block is %d bytes, want %d", d.tag, n, len(dst))
		return
	}
	copy(dst, d.take(n))
}

// Raw fills dst from the payload.
func (d *Decoder) Raw(dst []byte) { copy(dst, d.take(len(dst))) }

// Remaining returns the unread byte count.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// Err returns the latched error.
func (d *Decoder) Err() error { return d.err }

// Finish returns an error if a read failed or payload bytes were left over.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return errors.Wrapf(ErrLength, "record %q has %d unread bytes", d.tag, len(d.buf)-d.off)
	}
	return nil
}
