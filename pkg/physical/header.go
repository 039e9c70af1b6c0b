// Package physical decodes the capture pseudo-header that precedes every
// DVB-CI record, and the three record kinds that carry no link layer: CIS
// reads, configuration option register writes and hardware events.
package physical

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/q191201771/naza/pkg/bele"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// LinkTypeDVBCI is the pcap link type of DVB-CI captures (LINKTYPE_DVB_CI)
const LinkTypeDVBCI layers.LinkType = 235

// LayerTypeDVBCI type registration
var LayerTypeDVBCI = gopacket.RegisterLayerType(2350, gopacket.LayerTypeMetadata{Name: "DVB-CI", Decoder: gopacket.DecodeFunc(decodeDVBCI)})

func init() {
	layers.LinkTypeMetadata[LinkTypeDVBCI] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(decodeDVBCI),
		Name:       "DVB-CI",
		LayerType:  LayerTypeDVBCI,
	}
}

// PseudoHeader is the 4-byte record header {version, event, length}
type PseudoHeader struct {
	Version uint8
	Event   Event
	Length  uint16
}

// String returns a string representation of the header
func (h *PseudoHeader) String() string {
	return fmt.Sprintf("PseudoHeader{Version=%d, Event=%s, Length=%d}", h.Version, h.Event, h.Length)
}

// ParseHeader reads the pseudo-header from the start of data. A version
// other than 0 or an undefined event returns ErrNotDVBCI.
func ParseHeader(data []byte) (*PseudoHeader, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w. pseudo-header needs %d bytes, got %d", types.ErrShortBuffer, HeaderSize, len(data))
	}
	h := &PseudoHeader{
		Version: data[0],
		Event:   Event(data[1]),
		Length:  bele.BeUint16(data[2:]),
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w. version=%d", ErrNotDVBCI, h.Version)
	}
	if !h.Event.Valid() {
		return nil, fmt.Errorf("%w. event=0x%02X", ErrNotDVBCI, uint8(h.Event))
	}
	return h, nil
}

// Decode records the pseudo-header fields and checks the declared length
// against the bytes that follow. It returns a cursor over the record
// payload; offsets stay relative to the frame.
func Decode(rec *types.Recorder, data []byte) (*PseudoHeader, *ber.Cursor, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, nil, err
	}
	rec.Field("version", 0, 1, h.Version)
	rec.Event("event", 1, 1, h.Event.String())
	rec.Field("length", 2, 2, h.Length)

	c := ber.NewCursor(data)
	c.Skip(HeaderSize)
	if int(h.Length) != c.Len() {
		return h, nil, rec.Fail(types.ErrLengthMismatch, 2, 2,
			"pseudo-header declares %d bytes, %d present", h.Length, c.Len())
	}
	return h, c, nil
}

// DVBCI is the pseudo-header as a gopacket layer, so pcap files with link
// type 235 decode through gopacket.NewPacket and DecodingLayerParser.
type DVBCI struct {
	layers.BaseLayer
	PseudoHeader
}

// LayerType returns LayerTypeDVBCI
func (d *DVBCI) LayerType() gopacket.LayerType {
	return LayerTypeDVBCI
}

// DecodeFromBytes decodes the given bytes into this layer.
func (d *DVBCI) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	h, err := ParseHeader(data)
	if err != nil {
		return err
	}
	d.PseudoHeader = *h

	end := HeaderSize + int(h.Length)
	if len(data) < end {
		df.SetTruncated()
		return fmt.Errorf("%w. pseudo-header declares %d bytes, %d present", types.ErrLengthMismatch, h.Length, len(data)-HeaderSize)
	}
	d.Contents = data[:HeaderSize]
	d.Payload = data[HeaderSize:end]
	return nil
}

// CanDecode returns the set of layer types that this DecodingLayer can decode.
func (d *DVBCI) CanDecode() gopacket.LayerClass {
	return LayerTypeDVBCI
}

// NextLayerType returns the layer type contained by this DecodingLayer.
func (d *DVBCI) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func decodeDVBCI(data []byte, p gopacket.PacketBuilder) error {
	d := &DVBCI{}
	if err := d.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(d)
	return p.NextDecoder(d.NextLayerType())
}
