package physical

import (
	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// DecodeCOR records a configuration option register write: a 2-byte
// register address and the value written
func DecodeCOR(rec *types.Recorder, c *ber.Cursor) error {
	off := c.Offset()
	addr, err := c.ReadUint16()
	if err != nil {
		return rec.Fail(types.ErrShortBuffer, off, c.Len(), "COR write needs 3 bytes")
	}
	value, err := c.ReadUint8()
	if err != nil {
		return rec.Fail(types.ErrShortBuffer, off, c.Len(), "COR write needs 3 bytes")
	}
	rec.Field("cor.address", off, 2, addr)
	if addr&1 != 0 {
		rec.Advise(types.ErrInvalidValue, off, 2, "COR address 0x%03X is odd", addr)
	}
	if addr > MaxCORAddress {
		rec.Advise(types.ErrInvalidValue, off, 2, "COR address 0x%03X exceeds 0x%03X", addr, MaxCORAddress)
	}
	rec.Field("cor.value", off+2, 1, value)
	if !c.Empty() {
		rec.Advise(types.ErrLengthMismatch, c.Offset(), c.Len(), "%d trailing bytes after COR write", c.Len())
	}
	return nil
}

// DecodeHWEvent records a hardware event and returns its code
func DecodeHWEvent(rec *types.Recorder, c *ber.Cursor) (HWEvent, error) {
	off := c.Offset()
	b, err := c.ReadUint8()
	if err != nil {
		return 0, rec.Fail(types.ErrShortBuffer, off, 0, "hardware event needs 1 byte")
	}
	ev := HWEvent(b)
	if _, ok := hwEventNames[ev]; !ok {
		rec.Advise(types.ErrInvalidValue, off, 1, "unknown hardware event 0x%02X", b)
	}
	rec.Event("hw_event", off, 1, ev.String())
	return ev, nil
}
