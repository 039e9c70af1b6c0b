package app

import (
	"encoding/hex"
	"fmt"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// reader records every field it reads. The first short read is recorded as a
// fatal length mismatch and every later read is a no-op, so decoders can read
// a whole layout and check err once.
type reader struct {
	rec *types.Recorder
	c   *ber.Cursor
	err error
}

func newReader(rec *types.Recorder, c *ber.Cursor) *reader {
	return &reader{rec: rec, c: c}
}

func (r *reader) ok() bool {
	return r.err == nil
}

func (r *reader) left() int {
	return r.c.Len()
}

func (r *reader) empty() bool {
	return r.err != nil || r.c.Empty()
}

func (r *reader) short(name string, need int) {
	if r.err == nil {
		r.err = r.rec.Fail(types.ErrLengthMismatch, r.c.Offset(), r.c.Len(),
			"%s needs %d bytes, %d left", name, need, r.c.Len())
	}
}

// raw reads n bytes without recording them
func (r *reader) raw(name string, n int) (int, []byte, bool) {
	off := r.c.Offset()
	if r.err != nil {
		return off, nil, false
	}
	if n < 0 || n > r.c.Len() {
		r.short(name, n)
		return off, nil, false
	}
	b, _ := r.c.ReadBytes(n)
	return off, b, true
}

func (r *reader) u8(name string) uint8 {
	off, b, ok := r.raw(name, 1)
	if !ok {
		return 0
	}
	r.rec.Field(name, off, 1, b[0])
	return b[0]
}

func (r *reader) u16(name string) uint16 {
	off, b, ok := r.raw(name, 2)
	if !ok {
		return 0
	}
	v := uint16(b[0])<<8 | uint16(b[1])
	r.rec.Field(name, off, 2, v)
	return v
}

func (r *reader) u24(name string) uint32 {
	off, b, ok := r.raw(name, 3)
	if !ok {
		return 0
	}
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	r.rec.Field(name, off, 3, v)
	return v
}

func (r *reader) u32(name string) uint32 {
	off, b, ok := r.raw(name, 4)
	if !ok {
		return 0
	}
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	r.rec.Field(name, off, 4, v)
	return v
}

// hex16 reads a 16 bit value and records it as 0xNNNN
func (r *reader) hex16(name string) uint16 {
	off, b, ok := r.raw(name, 2)
	if !ok {
		return 0
	}
	v := uint16(b[0])<<8 | uint16(b[1])
	r.rec.Field(name, off, 2, fmt.Sprintf("0x%04X", v))
	return v
}

// hex32 reads a 32 bit value and records it as 0xNNNNNNNN
func (r *reader) hex32(name string) uint32 {
	off, b, ok := r.raw(name, 4)
	if !ok {
		return 0
	}
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	r.rec.Field(name, off, 4, fmt.Sprintf("0x%08X", v))
	return v
}

// named8 reads one byte and records its name from names
func (r *reader) named8(name string, names map[uint8]string) uint8 {
	off, b, ok := r.raw(name, 1)
	if !ok {
		return 0
	}
	r.rec.Field(name, off, 1, lookupName(names, b[0]))
	return b[0]
}

// bytes reads n bytes and records them hex encoded
func (r *reader) bytes(name string, n int) []byte {
	off, b, ok := r.raw(name, n)
	if !ok {
		return nil
	}
	r.rec.Field(name, off, n, hex.EncodeToString(b))
	return b
}

// rest records every remaining byte hex encoded
func (r *reader) rest(name string) []byte {
	if r.empty() {
		return nil
	}
	return r.bytes(name, r.c.Len())
}

// text reads n bytes of DVB text
func (r *reader) text(name string, n int) string {
	off, b, ok := r.raw(name, n)
	if !ok {
		return ""
	}
	s := DecodeText(b)
	r.rec.Field(name, off, n, s)
	return s
}

// ascii reads n bytes recorded as a plain string
func (r *reader) ascii(name string, n int) string {
	off, b, ok := r.raw(name, n)
	if !ok {
		return ""
	}
	r.rec.Field(name, off, n, string(b))
	return string(b)
}

// sub consumes n bytes into a child reader sharing the sticky error
func (r *reader) sub(name string, n int) *reader {
	if r.err != nil {
		return &reader{rec: r.rec, c: ber.NewCursor(nil), err: r.err}
	}
	if n < 0 || n > r.c.Len() {
		r.short(name, n)
		return &reader{rec: r.rec, c: ber.NewCursor(nil), err: r.err}
	}
	c, _ := r.c.Sub(n)
	return &reader{rec: r.rec, c: c}
}

// join carries the sticky error of a child reader back to r
func (r *reader) join(child *reader) {
	if r.err == nil {
		r.err = child.err
	}
}

// length reads a BER length field
func (r *reader) length(name string) int {
	off := r.c.Offset()
	if r.err != nil {
		return 0
	}
	n, err := r.c.ReadLength()
	if err != nil {
		r.err = r.rec.Fail(types.ErrMalformedLength, off, r.c.Len(), "%s: %v", name, err)
		return 0
	}
	r.rec.Field(name, off, r.c.Offset()-off, n)
	return n
}

func lookupName(names map[uint8]string, v uint8) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("reserved (0x%02X)", v)
}
