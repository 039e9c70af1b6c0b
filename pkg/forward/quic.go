package forward

import (
	"bytes"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"

	"avaneesh/dvbci-go/pkg/types"
)

// QUIC decodes the invariant part of QUIC packet headers (RFC 8999)
type QUIC struct{}

// NewQUIC creates a QUIC header decoder
func NewQUIC() *QUIC {
	return &QUIC{}
}

// Name returns the decoder name
func (q *QUIC) Name() string {
	return "quic"
}

// Decode records the header form, version and connection ids. For version 1
// Initial packets the token length and packet length varints are decoded too.
func (q *QUIC) Decode(rec *types.Recorder, payload []byte) error {
	if len(payload) < 1 {
		return rec.Fail(types.ErrShortBuffer, 0, 0, "empty quic datagram")
	}
	first := payload[0]
	if first&0x80 == 0 {
		rec.Event("quic.short_header", 0, len(payload), nil)
		return NewOpaque().Decode(rec, payload[1:])
	}

	r := bytes.NewReader(payload)
	r.ReadByte()
	off := func() int { return len(payload) - r.Len() }

	if r.Len() < 4 {
		return rec.Fail(types.ErrShortBuffer, 1, r.Len(), "quic version truncated")
	}
	version := uint32(payload[1])<<24 | uint32(payload[2])<<16 | uint32(payload[3])<<8 | uint32(payload[4])
	r.Seek(5, io.SeekStart)
	rec.Event("quic.long_header", 0, len(payload), packetType(version, first))
	rec.Field("quic.version", 1, 4, fmt.Sprintf("0x%08x", version))

	for _, name := range []string{"quic.dcid", "quic.scid"} {
		start := off()
		l, err := r.ReadByte()
		if err != nil || r.Len() < int(l) {
			return rec.Fail(types.ErrShortBuffer, start, len(payload)-start, "%s truncated", name)
		}
		id := make([]byte, l)
		r.Read(id)
		rec.Field(name, start, 1+int(l), fmt.Sprintf("%x", id))
	}

	if version != 1 || (first&0x30)>>4 != 0 {
		return nil
	}

	start := off()
	tokenLen, err := quicvarint.Read(r)
	if err != nil {
		return rec.Fail(types.ErrShortBuffer, start, len(payload)-start, "token length: %v", err)
	}
	rec.Field("quic.token_length", start, off()-start, tokenLen)
	if uint64(r.Len()) < tokenLen {
		return rec.Fail(types.ErrShortBuffer, off(), r.Len(), "token truncated")
	}
	r.Seek(int64(off())+int64(tokenLen), io.SeekStart)

	start = off()
	length, err := quicvarint.Read(r)
	if err != nil {
		return rec.Fail(types.ErrShortBuffer, start, len(payload)-start, "packet length: %v", err)
	}
	rec.Field("quic.length", start, off()-start, length)
	return nil
}

func packetType(version uint32, first byte) string {
	if version == 0 {
		return "Version Negotiation"
	}
	switch (first & 0x30) >> 4 {
	case 0:
		return "Initial"
	case 1:
		return "0-RTT"
	case 2:
		return "Handshake"
	default:
		return "Retry"
	}
}
