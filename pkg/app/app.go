// Package app decodes DVB-CI application layer PDUs. Each APDU tag has a
// static descriptor carrying its direction, length rule, resource class
// and an optional body decoder.
package app

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/circuit"
	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/internal/logger"
	"avaneesh/dvbci-go/pkg/sac"
	"avaneesh/dvbci-go/pkg/types"
)

// Message is one decoded APDU
type Message struct {
	Tag        Tag
	Descriptor *Descriptor
	Length     int
	Dir        types.Direction
	Circuit    *circuit.Circuit // nil if the session number had no live circuit
	Body       *ber.Cursor
}

// String returns a string representation of the message
func (m *Message) String() string {
	return fmt.Sprintf("APDU{Tag=%s, Len=%d, Dir=%s}", m.Tag, m.Length, m.Dir)
}

// Decoder holds the collaborators resource class decoders hand data to
type Decoder struct {
	Decrypter          sac.Decrypter
	Ports              *forward.PortTable
	Apps               *forward.NameTable
	Certificates       forward.Handler
	Opaque             forward.Handler
	DecodeForwardedLSC bool
}

// NewDecoder creates a decoder with the default port table, an empty
// application table and no SAC key material
func NewDecoder() *Decoder {
	return &Decoder{
		Decrypter:          sac.Unavailable{},
		Ports:              forward.DefaultPortTable(),
		Apps:               forward.NewNameTable(),
		Certificates:       forward.NewCertificate(),
		Opaque:             forward.NewOpaque(),
		DecodeForwardedLSC: true,
	}
}

// Decode decodes the APDU at the cursor. An unknown tag yields exactly one
// error record and stops decoding of this message.
func (d *Decoder) Decode(rec *types.Recorder, c *ber.Cursor, dir types.Direction, circ *circuit.Circuit) (*Message, error) {
	tagOff := c.Offset()
	v, err := c.ReadUint24()
	if err != nil {
		return nil, rec.Fail(types.ErrShortBuffer, tagOff, c.Len(), "APDU tag needs 3 bytes, %d present", c.Len())
	}
	tag := Tag(v)
	desc, ok := Lookup(tag)
	if !ok {
		return nil, rec.Fail(types.ErrUnknownTag, tagOff, 3, "unknown APDU tag 0x%06X", v)
	}

	lenOff := c.Offset()
	length, err := c.ReadLength()
	if err != nil {
		return nil, rec.Fail(types.ErrMalformedLength, lenOff, c.Len(), "%s length: %v", desc.Name, err)
	}
	rec.Event("apdu", tagOff, c.Offset()-tagOff+length, desc.Name)
	rec.Field("tag", tagOff, 3, fmt.Sprintf("0x%06X", v))
	rec.Field("length", lenOff, c.Offset()-lenOff, length)

	if !desc.Dir.Allows(dir) {
		rec.Advise(types.ErrDirectionViolation, tagOff, 3, "%s sent %s", desc.Name, dir)
	}
	if desc.ExactLength != LengthAny && length != desc.ExactLength {
		return nil, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"%s length %d, expected %d", desc.Name, length, desc.ExactLength)
	}
	if length < desc.MinLength {
		return nil, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"%s length %d, at least %d expected", desc.Name, length, desc.MinLength)
	}
	body, err := c.Sub(length)
	if err != nil {
		return nil, rec.Fail(types.ErrLengthMismatch, lenOff, c.Offset()-lenOff,
			"%s declares %d bytes, %d present", desc.Name, length, c.Len())
	}

	if circ != nil && !circ.Resource.IsPrivate() {
		if circ.Class() != desc.Class {
			rec.Advise(types.ErrResourceClassMismatch, tagOff, 3,
				"%s belongs to %s, session %d is bound to %s", desc.Name, desc.Class, circ.SessionNumber, circ.Class())
		} else if circ.Version() < desc.MinVersion {
			rec.Advise(types.ErrResourceVersionTooLow, tagOff, 3,
				"%s needs version %d, session %d has version %d", desc.Name, desc.MinVersion, circ.SessionNumber, circ.Version())
		}
	}

	m := &Message{
		Tag:        tag,
		Descriptor: desc,
		Length:     length,
		Dir:        dir,
		Circuit:    circ,
		Body:       body,
	}
	if desc.decode != nil {
		if err := desc.decode(d, rec, m); err != nil {
			return m, err
		}
	}
	if !body.Empty() {
		rec.Advise(types.ErrLengthMismatch, body.Offset(), body.Len(), "%d bytes after %s body left undecoded", body.Len(), desc.Name)
	}
	if !c.Empty() {
		rec.Advise(types.ErrLengthMismatch, c.Offset(), c.Len(), "%d trailing bytes after %s", c.Len(), desc.Name)
	}
	logger.Debug("app: frame %d decoded %s", rec.Frame(), m)
	return m, nil
}

// forwardPayload hands payload to h with offsets relative to the payload.
// Handlers record their own failures, which never stop the APDU.
func forwardPayload(rec *types.Recorder, h forward.Handler, off int, payload []byte) {
	rec.Event("forwarded", off, len(payload), h.Name())
	frec := rec.At(types.LayerForwarded).From(types.SourceForwarded)
	if err := h.Decode(frec, payload); err != nil {
		logger.Debug("app: frame %d %s handler: %v", rec.Frame(), h.Name(), err)
	}
}
