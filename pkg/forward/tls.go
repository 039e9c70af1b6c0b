package forward

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"avaneesh/dvbci-go/pkg/types"
)

const tlsRecordHeaderSize = 5

// TLS decodes TLS record headers
type TLS struct {
	layer layers.TLS
}

// NewTLS creates a TLS record decoder
func NewTLS() *TLS {
	return &TLS{}
}

// Name returns the decoder name
func (t *TLS) Name() string {
	return "tls"
}

// Decode records one event per TLS record
func (t *TLS) Decode(rec *types.Recorder, payload []byte) error {
	if err := t.layer.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		rec.Advise(types.ErrInvalidValue, 0, len(payload), "tls: %v", err)
		return NewOpaque().Decode(rec, payload)
	}

	// gopacket groups records by type; walk the wire order instead so
	// offsets stay exact
	off := 0
	for off+tlsRecordHeaderSize <= len(payload) {
		h := layers.TLSRecordHeader{
			ContentType: layers.TLSType(payload[off]),
			Version:     layers.TLSVersion(uint16(payload[off+1])<<8 | uint16(payload[off+2])),
			Length:      uint16(payload[off+3])<<8 | uint16(payload[off+4]),
		}
		n := tlsRecordHeaderSize + int(h.Length)
		if off+n > len(payload) {
			n = len(payload) - off
		}
		rec.Event("tls.record", off, n, fmt.Sprintf("%s %s len=%d", h.ContentType, h.Version, h.Length))
		off += n
	}
	rec.Field("tls.records", 0, len(payload),
		len(t.layer.Handshake)+len(t.layer.AppData)+len(t.layer.Alert)+len(t.layer.ChangeCipherSpec))
	return nil
}
