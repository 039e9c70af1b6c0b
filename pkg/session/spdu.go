// Package session handles the DVB-CI session layer. Open, create and close
// PDUs drive the circuit table; session_number PDUs carry an APDU for a
// live circuit.
package session

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/circuit"
	"avaneesh/dvbci-go/pkg/internal/logger"
	"avaneesh/dvbci-go/pkg/types"
)

// SPDU is one session layer protocol data unit
type SPDU struct {
	Tag           Tag
	Length        int
	Status        uint8
	Resource      types.ResourceID
	SessionNumber uint16
	Payload       *ber.Cursor // APDU bytes of a session_number SPDU, nil otherwise
}

// String returns a string representation of the SPDU
func (s *SPDU) String() string {
	return fmt.Sprintf("SPDU{Tag=%s, Session=%d, Resource=0x%08X, Status=0x%02X}",
		s.Tag, s.SessionNumber, uint32(s.Resource), s.Status)
}

// Receive decodes one complete SPDU and applies its effect to circuits.
// For a session_number SPDU it returns the circuit the payload belongs to,
// or nil if no circuit is live for that number.
func Receive(rec *types.Recorder, c *ber.Cursor, dir types.Direction, frameSeq uint64, circuits *circuit.Table) (*SPDU, *circuit.Circuit, error) {
	off := c.Offset()
	b, err := c.ReadUint8()
	if err != nil {
		return nil, nil, rec.Fail(types.ErrShortBuffer, off, 0, "empty SPDU")
	}
	tag := Tag(b)
	info, ok := tagTable[tag]
	if !ok {
		return nil, nil, rec.Fail(types.ErrUnknownTag, off, 1, "unknown SPDU tag 0x%02X", b)
	}
	rec.Event("tag", off, 1, tag.String())
	if !info.dir.Allows(dir) {
		rec.Advise(types.ErrDirectionViolation, off, 1, "%s sent %s", tag, dir)
	}

	lenOff := c.Offset()
	length, err := c.ReadLength()
	if err != nil {
		return nil, nil, rec.Fail(types.ErrMalformedLength, lenOff, c.Len(), "SPDU length: %v", err)
	}
	rec.Field("length", lenOff, c.Offset()-lenOff, length)
	if length != info.length {
		return nil, nil, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"%s length %d, expected %d", tag, length, info.length)
	}
	body, err := c.Sub(length)
	if err != nil {
		return nil, nil, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"%s declares %d bytes, %d present", tag, length, c.Len())
	}

	s := &SPDU{Tag: tag, Length: length}
	switch tag {
	case TagSessionNumber:
		s.SessionNumber = readSessionNumber(rec, body)
		s.Payload, _ = c.Sub(c.Len())
		circ, ok := circuits.Lookup(s.SessionNumber)
		if !ok {
			logger.Debug("session: frame %d session %d has no circuit", frameSeq, s.SessionNumber)
			return s, nil, nil
		}
		rec.Field("resource", body.Offset()-2, 2, circ.Resource.String())
		return s, circ, nil

	case TagOpenSessionRequest:
		s.Resource = readResource(rec, body)

	case TagCreateSession:
		s.Resource = readResource(rec, body)
		s.SessionNumber = readSessionNumber(rec, body)

	case TagOpenSessionResponse, TagCreateSessionResponse:
		stOff := body.Offset()
		s.Status, _ = body.ReadUint8()
		rec.Field("status", stOff, 1, Status(s.Status).String())
		s.Resource = readResource(rec, body)
		s.SessionNumber = readSessionNumber(rec, body)
		if Status(s.Status) == StatusOK {
			openCircuit(rec, circuits, s, frameSeq, stOff)
		}

	case TagCloseSessionRequest:
		s.SessionNumber = readSessionNumber(rec, body)

	case TagCloseSessionResponse:
		stOff := body.Offset()
		s.Status, _ = body.ReadUint8()
		rec.Field("status", stOff, 1, CloseStatus(s.Status).String())
		s.SessionNumber = readSessionNumber(rec, body)
		if CloseStatus(s.Status) == CloseStatusOK {
			if _, ok := circuits.Close(s.SessionNumber); ok {
				rec.Event("circuit_closed", stOff, length, s.SessionNumber)
				logger.Debug("session: frame %d closed session %d", frameSeq, s.SessionNumber)
			} else {
				rec.Advise(types.ErrInvalidValue, stOff+1, 2, "close of session %d that is not open", s.SessionNumber)
			}
		}
	}

	if !c.Empty() {
		rec.Advise(types.ErrLengthMismatch, c.Offset(), c.Len(), "%d trailing bytes after %s", c.Len(), tag)
	}
	return s, nil, nil
}

func openCircuit(rec *types.Recorder, circuits *circuit.Table, s *SPDU, frameSeq uint64, off int) {
	if s.SessionNumber == 0 {
		rec.Advise(types.ErrInvalidValue, off+5, 2, "session number 0 is not valid")
		return
	}
	circ, replaced := circuits.Create(s.SessionNumber, s.Resource, frameSeq)
	if replaced != nil {
		rec.Advise(types.ErrInvalidValue, off+5, 2,
			"session %d opened again, dropping circuit for resource 0x%08X", s.SessionNumber, uint32(replaced.Resource))
	}
	rec.Event("circuit_opened", off, 7, circ.String())
	logger.Debug("session: frame %d opened %s", frameSeq, circ)
}

func readResource(rec *types.Recorder, c *ber.Cursor) types.ResourceID {
	off := c.Offset()
	v, _ := c.ReadUint32()
	r := types.ResourceID(v)
	rec.Event("resource_id", off, 4, fmt.Sprintf("0x%08X", v))
	if r.IsPrivate() {
		rec.Field("resource.definer", off, 4, r.PrivateDefiner())
		rec.Field("resource.identity", off, 4, r.PrivateIdentity())
	} else {
		rec.Field("resource.class", off, 4, r.Class().String())
		rec.Field("resource.type", off, 4, r.Subtype())
		rec.Field("resource.version", off, 4, r.Version())
	}
	return r
}

func readSessionNumber(rec *types.Recorder, c *ber.Cursor) uint16 {
	off := c.Offset()
	v, _ := c.ReadUint16()
	rec.Field("session_number", off, 2, v)
	return v
}
