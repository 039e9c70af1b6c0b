// Package ber provides the bounded byte cursor every DVB-CI layer reads
// through, and the ASN.1 BER definite-length codec used by length_field.
package ber

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"

	"avaneesh/dvbci-go/pkg/types"
)

// Cursor is a bounds-checked read-only view over a buffer with an explicit position
type Cursor struct {
	s     cryptobyte.String
	total int
}

// NewCursor creates a cursor positioned at the start of b
func NewCursor(b []byte) *Cursor {
	return &Cursor{
		s:     cryptobyte.String(b),
		total: len(b),
	}
}

// NewCursorAt creates a cursor over b whose offsets start at base, for
// buffers that are a tail of some larger record
func NewCursorAt(b []byte, base int) *Cursor {
	return &Cursor{
		s:     cryptobyte.String(b),
		total: base + len(b),
	}
}

// Offset returns the current position from the start of the buffer
func (c *Cursor) Offset() int {
	return c.total - len(c.s)
}

// Len returns the number of bytes remaining
func (c *Cursor) Len() int {
	return len(c.s)
}

// Total returns the size of the underlying buffer
func (c *Cursor) Total() int {
	return c.total
}

// Empty returns true if no bytes remain
func (c *Cursor) Empty() bool {
	return c.s.Empty()
}

func (c *Cursor) short(need int) error {
	return fmt.Errorf("%w. need=%d, remaining=%d, offset=%d", types.ErrShortBuffer, need, len(c.s), c.Offset())
}

// ReadUint8 reads one byte
func (c *Cursor) ReadUint8() (uint8, error) {
	var v uint8
	if !c.s.ReadUint8(&v) {
		return 0, c.short(1)
	}
	return v, nil
}

// ReadUint16 reads a big-endian uint16
func (c *Cursor) ReadUint16() (uint16, error) {
	var v uint16
	if !c.s.ReadUint16(&v) {
		return 0, c.short(2)
	}
	return v, nil
}

// ReadUint24 reads a big-endian 24-bit value
func (c *Cursor) ReadUint24() (uint32, error) {
	var v uint32
	if !c.s.ReadUint24(&v) {
		return 0, c.short(3)
	}
	return v, nil
}

// ReadUint32 reads a big-endian uint32
func (c *Cursor) ReadUint32() (uint32, error) {
	var v uint32
	if !c.s.ReadUint32(&v) {
		return 0, c.short(4)
	}
	return v, nil
}

// ReadBytes reads n bytes without copying
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, c.short(n)
	}
	var v []byte
	if !c.s.ReadBytes(&v, n) {
		return nil, c.short(n)
	}
	return v, nil
}

// Skip advances the cursor by n bytes
func (c *Cursor) Skip(n int) error {
	if n < 0 || !c.s.Skip(n) {
		return c.short(n)
	}
	return nil
}

// Peek returns the next byte without consuming it
func (c *Cursor) Peek() (uint8, error) {
	if len(c.s) == 0 {
		return 0, c.short(1)
	}
	return c.s[0], nil
}

// Rest consumes and returns every remaining byte
func (c *Cursor) Rest() []byte {
	v := []byte(c.s)
	c.s = c.s[len(c.s):]
	return v
}

// Sub consumes n bytes and returns a cursor over them. Offsets of the
// returned cursor stay relative to the parent buffer.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	start := c.Offset()
	b, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		s:     cryptobyte.String(b),
		total: start + n,
	}, nil
}
