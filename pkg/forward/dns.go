package forward

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"avaneesh/dvbci-go/pkg/types"
)

// DNS decodes DNS messages. Over TCP each message carries a 2-byte length
// prefix (RFC 1035 4.2.2).
type DNS struct {
	stream bool
	layer  layers.DNS
}

// NewDNS creates a DNS decoder; stream selects the TCP framing
func NewDNS(stream bool) *DNS {
	return &DNS{stream: stream}
}

// Name returns the decoder name
func (d *DNS) Name() string {
	if d.stream {
		return "dns-tcp"
	}
	return "dns"
}

// Decode records the DNS header and questions
func (d *DNS) Decode(rec *types.Recorder, payload []byte) error {
	off := 0
	if d.stream {
		if len(payload) < 2 {
			return rec.Fail(types.ErrShortBuffer, 0, len(payload), "dns over tcp needs a length prefix")
		}
		n := int(payload[0])<<8 | int(payload[1])
		rec.Field("dns.length", 0, 2, n)
		off = 2
		if n != len(payload)-2 {
			rec.Advise(types.ErrLengthMismatch, 0, 2, "dns length prefix %d, %d bytes follow", n, len(payload)-2)
		}
	}

	if err := d.layer.DecodeFromBytes(payload[off:], gopacket.NilDecodeFeedback); err != nil {
		rec.Advise(types.ErrInvalidValue, off, len(payload)-off, "dns: %v", err)
		return NewOpaque().Decode(rec, payload[off:])
	}

	rec.Event("dns.message", off, len(payload)-off, d.layer.OpCode.String())
	rec.Field("dns.id", off, 2, d.layer.ID)
	rec.Field("dns.response", off+2, 1, d.layer.QR)
	rec.Field("dns.rcode", off+3, 1, d.layer.ResponseCode.String())
	for _, q := range d.layer.Questions {
		rec.Field("dns.question", off+12, 0, string(q.Name)+" "+q.Type.String()+" "+q.Class.String())
	}
	for _, a := range d.layer.Answers {
		rec.Field("dns.answer", off+12, 0, a.String())
	}
	return nil
}
