// Package transport handles the DVB-CI transport layer: TPDU command and
// response tags, the status block trailing every module->host TPDU, and
// reassembly of SPDUs that span several TPDUs.
package transport

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/internal/logger"
	"avaneesh/dvbci-go/pkg/reassembly"
	"avaneesh/dvbci-go/pkg/types"
)

// StatusBlock is the trailer of a module->host TPDU
type StatusBlock struct {
	Tcid  uint8
	Value uint8
}

// MessageAvailable returns true if the module has data waiting
func (s *StatusBlock) MessageAvailable() bool {
	return s.Value == SBMessageAvailable
}

// TPDU is one transport layer protocol data unit. Tag is zero for a
// status-only TPDU.
type TPDU struct {
	Tag    Tag
	Length int
	Tcid   uint8
	Body   []byte // Body after the tcid byte
	Status *StatusBlock
}

// StatusOnly returns true for a module->host TPDU made of a status block alone
func (t *TPDU) StatusOnly() bool {
	return t.Tag == 0
}

// String returns a string representation of the TPDU
func (t *TPDU) String() string {
	s := fmt.Sprintf("TPDU{Tag=%s, Tcid=%d, Len=%d", t.Tag, t.Tcid, len(t.Body))
	if t.Status != nil {
		s += fmt.Sprintf(", SB=0x%02X", t.Status.Value)
	}
	return s + "}"
}

// Receive decodes one complete TPDU. linkTcid is the tcid of the LPDU(s)
// that carried it. Data tags feed the body to table; once the last
// fragment arrived the complete SPDU is returned.
func Receive(rec *types.Recorder, c *ber.Cursor, dir types.Direction, linkTcid uint8, frameSeq uint64, table *reassembly.Table) (*TPDU, []byte, error) {
	t, err := Parse(rec, c, dir, linkTcid)
	if err != nil {
		return t, nil, err
	}

	var last bool
	switch {
	case t.StatusOnly():
		last = true
	case t.Tag == TagDataLast:
		last = true
	case t.Tag == TagDataMore:
		last = false
	default:
		// Control tags carry no SPDU
		return t, nil, nil
	}

	// A status-only TPDU completes whatever is pending; with nothing
	// pending there is nothing to hand up.
	if t.StatusOnly() && !table.InProgress() {
		return t, nil, nil
	}

	continued := table.InProgress()
	spdu, err := table.AddFragment(frameSeq, t.Body, last)
	if err != nil {
		return t, nil, rec.Fail(types.ErrLengthMismatch, 0, c.Total(), "transport reassembly: %v", err)
	}
	if spdu == nil {
		rec.Event("fragment", 0, c.Total(), "transport fragment, not yet interpretable")
		logger.Debug("transport: frame %d tcid=%d fragment, %d bytes pending", frameSeq, t.Tcid, table.Pending())
		return t, nil, nil
	}
	if continued {
		rec.Event("reassembled", 0, c.Total(), len(spdu))
	}
	if len(spdu) == 0 {
		return t, nil, nil
	}
	return t, spdu, nil
}

// Parse decodes the TPDU header, body and, for module->host TPDUs, the
// status block
func Parse(rec *types.Recorder, c *ber.Cursor, dir types.Direction, linkTcid uint8) (*TPDU, error) {
	t := &TPDU{}
	off := c.Offset()
	b, err := c.ReadUint8()
	if err != nil {
		return nil, rec.Fail(types.ErrShortBuffer, off, 0, "empty TPDU")
	}
	tag := Tag(b)

	if dir == types.DirectionModuleToHost && tag == TagSB {
		rec.Event("tag", off, 1, "status only")
		t.Tcid = linkTcid
		sb, err := parseStatusBody(rec, c, off, linkTcid, true)
		if err != nil {
			return t, err
		}
		t.Status = sb
		return t, nil
	}

	if !tag.ValidFor(dir) {
		return nil, rec.Fail(types.ErrUnknownTag, off, 1, "TPDU tag 0x%02X is not valid %s", b, dir)
	}
	t.Tag = tag
	rec.Event("tag", off, 1, tag.String())

	lenOff := c.Offset()
	length, err := c.ReadLength()
	if err != nil {
		return t, rec.Fail(types.ErrMalformedLength, lenOff, c.Len(), "TPDU length: %v", err)
	}
	t.Length = length
	rec.Field("length", lenOff, c.Offset()-lenOff, length)

	end := c.Offset() + length
	if dir == types.DirectionHostToModule {
		if end != c.Total() {
			return t, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
				"TPDU declares %d bytes, %d present", length, c.Len())
		}
	} else if end > c.Total() {
		return t, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"TPDU declares %d bytes, only %d present", length, c.Len())
	}
	if length < 1 {
		return t, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff, "TPDU body must hold the tcid")
	}

	body, _ := c.Sub(length)
	tcidOff := body.Offset()
	t.Tcid, _ = body.ReadUint8()
	rec.Field("tcid", tcidOff, 1, t.Tcid)
	if t.Tcid != linkTcid && tag.IsData() {
		rec.Advise(types.ErrTcidMismatch, tcidOff, 1, "TPDU tcid %d, link layer tcid %d", t.Tcid, linkTcid)
	}

	decodeControlBody(rec, t, body)
	t.Body = body.Rest()
	if tag == TagDataLast || tag == TagDataMore {
		rec.Field("data", tcidOff+1, len(t.Body), len(t.Body))
	}

	if dir == types.DirectionModuleToHost {
		sbOff := c.Offset()
		b, err := c.ReadUint8()
		if err != nil {
			return t, rec.Fail(types.ErrStatusBlockMissing, sbOff, 0, "module->host TPDU without status block")
		}
		if Tag(b) != TagSB {
			return t, rec.Fail(types.ErrStatusBlockMissing, sbOff, 1, "expected status block tag 0x80, got 0x%02X", b)
		}
		sb, err := parseStatusBody(rec, c, sbOff, linkTcid, tag.IsData())
		if err != nil {
			return t, err
		}
		t.Status = sb
	}
	if !c.Empty() {
		rec.Advise(types.ErrLengthMismatch, c.Offset(), c.Len(), "%d trailing bytes after TPDU", c.Len())
	}
	return t, nil
}

func decodeControlBody(rec *types.Recorder, t *TPDU, body *ber.Cursor) {
	off := body.Offset()
	switch t.Tag {
	case TagNewTC:
		if v, err := body.ReadUint8(); err == nil {
			rec.Field("new_tcid", off, 1, v)
		}
	case TagTCError:
		if v, err := body.ReadUint8(); err == nil {
			rec.Field("error_code", off, 1, v)
			if v != TCErrorNoTC {
				rec.Advise(types.ErrInvalidValue, off, 1, "unknown t_c_error code 0x%02X", v)
			}
		}
	}
}

// parseStatusBody reads the length, tcid and SB value following a status
// block tag at tagOff
func parseStatusBody(rec *types.Recorder, c *ber.Cursor, tagOff int, linkTcid uint8, checkTcid bool) (*StatusBlock, error) {
	lenOff := c.Offset()
	length, err := c.ReadLength()
	if err != nil {
		return nil, rec.Fail(types.ErrMalformedLength, lenOff, c.Len(), "status block length: %v", err)
	}
	if length != StatusBlockLength {
		return nil, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"status block length %d, expected %d", length, StatusBlockLength)
	}
	body, err := c.ReadBytes(StatusBlockLength)
	if err != nil {
		return nil, rec.Fail(types.ErrStatusBlockMissing, tagOff, c.Offset()-tagOff, "status block truncated")
	}

	sb := &StatusBlock{Tcid: body[0], Value: body[1]}
	bodyOff := lenOff + 1
	rec.Event("status_block", tagOff, c.Offset()-tagOff, nil)
	rec.Field("sb.tcid", bodyOff, 1, sb.Tcid)
	if checkTcid && sb.Tcid != linkTcid {
		rec.Advise(types.ErrTcidMismatch, bodyOff, 1, "status block tcid %d, link layer tcid %d", sb.Tcid, linkTcid)
	}
	switch sb.Value {
	case SBMessageAvailable:
		rec.Field("sb.value", bodyOff+1, 1, "message available")
	case SBNoMessage:
		rec.Field("sb.value", bodyOff+1, 1, "no message available")
	default:
		rec.Field("sb.value", bodyOff+1, 1, sb.Value)
		rec.Advise(types.ErrInvalidValue, bodyOff+1, 1, "invalid SB value 0x%02X", sb.Value)
	}
	return sb, nil
}
