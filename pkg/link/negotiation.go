package link

import (
	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// BufferSize tracks the link buffer size negotiation. The module proposes a
// size first and the host answers with the size both sides use. The result
// only flags oversized LPDUs, it never rejects them.
type BufferSize struct {
	Module     uint16 // Size proposed by the module, 0 until seen
	Host       uint16 // Size chosen by the host, 0 until seen
	Negotiated uint16 // Size in effect, 0 until the host answered
}

// Negotiate decodes a 2-byte buffer size negotiation frame
func (b *BufferSize) Negotiate(rec *types.Recorder, c *ber.Cursor, dir types.Direction) error {
	off := c.Offset()
	size, err := c.ReadUint16()
	if err != nil {
		return rec.Fail(types.ErrShortBuffer, off, c.Len(), "buffer size negotiation needs 2 bytes")
	}

	if size < MinBufferSize {
		rec.Advise(types.ErrInvalidValue, off, 2, "buffer size %d is below the minimum of %d", size, MinBufferSize)
	}

	switch dir {
	case types.DirectionModuleToHost:
		b.Module = size
		rec.Event("buffer_size.module", off, 2, size)
	default:
		b.Host = size
		b.Negotiated = size
		rec.Event("buffer_size.host", off, 2, size)
		if b.Module != 0 && size > b.Module {
			rec.Advise(types.ErrInvalidValue, off, 2,
				"host buffer size %d exceeds the module's proposal of %d", size, b.Module)
		}
	}
	return nil
}

// CheckLPDU flags an LPDU longer than the negotiated buffer size
func (b *BufferSize) CheckLPDU(rec *types.Recorder, off, length int) {
	if b.Negotiated == 0 || length <= int(b.Negotiated) {
		return
	}
	rec.Advise(types.ErrInvalidValue, off, length,
		"LPDU of %d bytes exceeds the negotiated buffer size of %d", length, b.Negotiated)
}

// Reset forgets the negotiation
func (b *BufferSize) Reset() {
	*b = BufferSize{}
}
