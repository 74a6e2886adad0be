package savestate

import (
	"encoding/binary"
	"math"
)

// Writer builds a record tree. Records are opened with Begin and closed
// with End; records begun while another is open become its children.
type Writer struct {
	buf   []byte
	stack []int
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 1<<16)}
}

// Begin opens a record. Payload writes that follow go into this record
// until a child is begun or the record is ended.
func (w *Writer) Begin(tag string, version uint16, flags uint16) {
	if n := len(w.stack); n > 0 {
		w.markChildren(w.stack[n-1])
	}
	start := len(w.buf)
	var hdr [HeaderSize]byte
	copy(hdr[0:4], padTag(tag))
	binary.LittleEndian.PutUint16(hdr[8:10], version)
	binary.LittleEndian.PutUint16(hdr[10:12], flags)
	w.buf = append(w.buf, hdr[:]...)
	w.stack = append(w.stack, start)
}

// End closes the innermost open record and patches its length.
func (w *Writer) End() {
	n := len(w.stack)
	if n == 0 {
		panic("savestate: End without Begin")
	}
	start := w.stack[n-1]
	w.stack = w.stack[:n-1]
	binary.LittleEndian.PutUint32(w.buf[start+4:start+8], uint32(len(w.buf)-start))
}

// Bytes returns the encoded records. All records must be closed.
func (w *Writer) Bytes() []byte {
	if len(w.stack) != 0 {
		panic("savestate: unclosed record")
	}
	return w.buf
}

func (w *Writer) markChildren(start int) {
	if binary.LittleEndian.Uint32(w.buf[start+12:start+16]) == 0 {
		binary.LittleEndian.PutUint32(w.buf[start+12:start+16], uint32(len(w.buf)-start))
	}
}

func padTag(tag string) []byte {
	b := []byte("    ")
	copy(b, tag)
	return b
}

// U8 appends a byte.
func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

// Bool appends a bool as one byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// U16 appends a little-endian uint16.
func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

// Int appends an int as a signed 64-bit value.
func (w *Writer) Int(v int) { w.U64(uint64(int64(v))) }

// F64 appends a float64 bit pattern.
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// Bytes32 appends a length-prefixed byte slice.
func (w *Writer) Bytes32(b []byte) {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Raw appends b with no length prefix.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }
