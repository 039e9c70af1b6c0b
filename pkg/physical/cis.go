package physical

import (
	"encoding/hex"
	"strings"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// DecodeCIS walks the tuple chain of a card information structure until
// CISTPL_END or the end of the record
func DecodeCIS(rec *types.Recorder, c *ber.Cursor) error {
	for !c.Empty() {
		start := c.Offset()
		code, _ := c.ReadUint8()
		if code == TupleEnd {
			rec.Event("cis.tuple", start, 1, TupleName(code))
			return nil
		}
		if code == TupleNull {
			continue
		}

		link, err := c.ReadUint8()
		if err != nil {
			return rec.Fail(types.ErrShortBuffer, start, 1, "%s without link byte", TupleName(code))
		}
		body, err := c.Sub(int(link))
		if err != nil {
			return rec.Fail(types.ErrLengthMismatch, start+1, 1,
				"%s link %d exceeds remaining %d bytes", TupleName(code), link, c.Len())
		}
		rec.Event("cis.tuple", start, 2+int(link), TupleName(code))

		switch code {
		case TupleVers1:
			decodeVers1(rec, body)
		case TupleManfID:
			decodeManfID(rec, body)
		case TupleConfig:
			decodeConfig(rec, body)
		case TupleCFTableEntry:
			decodeCFTableEntry(rec, body)
		default:
			off := body.Offset()
			b := body.Rest()
			rec.Field("cis.data", off, len(b), hex.EncodeToString(b))
		}
	}
	return nil
}

func decodeVers1(rec *types.Recorder, c *ber.Cursor) {
	off := c.Offset()
	major, err1 := c.ReadUint8()
	minor, err2 := c.ReadUint8()
	if err1 != nil || err2 != nil {
		rec.Advise(types.ErrShortBuffer, off, c.Len(), "CISTPL_VERS_1 too short")
		return
	}
	rec.Field("cis.vers1.major", off, 1, major)
	rec.Field("cis.vers1.minor", off+1, 1, minor)

	// Product information strings, each 0x00 terminated, list ended by 0xFF
	for !c.Empty() {
		off = c.Offset()
		rest := c.Rest()
		if rest[0] == 0xFF {
			return
		}
		n := strings.IndexByte(string(rest), 0x00)
		if n < 0 {
			rec.Field("cis.vers1.info", off, len(rest), string(rest))
			return
		}
		rec.Field("cis.vers1.info", off, n+1, string(rest[:n]))
		*c = *ber.NewCursorAt(rest[n+1:], off+n+1)
	}
}

func decodeManfID(rec *types.Recorder, c *ber.Cursor) {
	off := c.Offset()
	b, err := c.ReadBytes(4)
	if err != nil {
		rec.Advise(types.ErrShortBuffer, off, c.Len(), "CISTPL_MANFID too short")
		return
	}
	// Both fields are little endian
	rec.Field("cis.manfid.manufacturer", off, 2, uint16(b[0])|uint16(b[1])<<8)
	rec.Field("cis.manfid.card", off+2, 2, uint16(b[2])|uint16(b[3])<<8)
}

func decodeConfig(rec *types.Recorder, c *ber.Cursor) {
	off := c.Offset()
	sz, err1 := c.ReadUint8()
	last, err2 := c.ReadUint8()
	if err1 != nil || err2 != nil {
		rec.Advise(types.ErrShortBuffer, off, c.Len(), "CISTPL_CONFIG too short")
		return
	}
	rasz := int(sz&0x03) + 1
	rec.Field("cis.config.last_index", off+1, 1, last&0x3F)

	radr, err := c.ReadBytes(rasz)
	if err != nil {
		rec.Advise(types.ErrShortBuffer, off+2, c.Len(), "CISTPL_CONFIG register base address truncated")
		return
	}
	var base uint32
	for i := len(radr) - 1; i >= 0; i-- {
		base = base<<8 | uint32(radr[i])
	}
	rec.Field("cis.config.base_address", off+2, rasz, base)
}

func decodeCFTableEntry(rec *types.Recorder, c *ber.Cursor) {
	off := c.Offset()
	indx, err := c.ReadUint8()
	if err != nil {
		rec.Advise(types.ErrShortBuffer, off, 0, "CISTPL_CFTABLE_ENTRY too short")
		return
	}
	rec.Field("cis.cftable.index", off, 1, indx&0x3F)
	rec.Field("cis.cftable.default", off, 1, indx&0x40 != 0)
	rec.Field("cis.cftable.interface", off, 1, indx&0x80 != 0)
	c.Rest()
}
