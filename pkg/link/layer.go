// Package link handles the DVB-CI link layer: the 2-byte LPDU header, the
// buffer size negotiation and reassembly of TPDUs that span several LPDUs.
package link

import (
	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/internal/logger"
	"avaneesh/dvbci-go/pkg/reassembly"
	"avaneesh/dvbci-go/pkg/types"
)

// Receive processes the payload of one data transfer frame. It returns the
// parsed LPDU and, once the last LPDU of a TPDU arrived, the complete TPDU.
// A nil TPDU with a nil error means the frame was a fragment.
func Receive(rec *types.Recorder, c *ber.Cursor, frameSeq uint64, table *reassembly.Table, size *BufferSize) (*LPDU, []byte, error) {
	off := c.Offset()
	total := c.Len()

	lpdu, err := ParseLPDU(rec, c)
	if err != nil {
		return nil, nil, err
	}
	size.CheckLPDU(rec, off, total)

	continued := table.InProgress()
	tpdu, err := table.AddFragment(frameSeq, lpdu.Payload, !lpdu.More())
	if err != nil {
		return lpdu, nil, rec.Fail(types.ErrLengthMismatch, off, total, "link reassembly: %v", err)
	}
	if tpdu == nil {
		rec.Event("fragment", off, total, "link fragment, not yet interpretable")
		logger.Debug("link: frame %d tcid=%d fragment, %d bytes pending", frameSeq, lpdu.Tcid, table.Pending())
		return lpdu, nil, nil
	}

	if continued {
		rec.Event("reassembled", off, total, len(tpdu))
	}
	logger.Debug("link: frame %d tcid=%d TPDU complete, %d bytes", frameSeq, lpdu.Tcid, len(tpdu))
	return lpdu, tpdu, nil
}
