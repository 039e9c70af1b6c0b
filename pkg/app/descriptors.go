package app

import (
	"encoding/hex"
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astits"

	"avaneesh/dvbci-go/pkg/types"
)

// DescriptorTagCA is the MPEG-2 conditional access descriptor
const DescriptorTagCA uint8 = 0x09

var descriptorNames = map[uint8]string{
	DescriptorTagCA:                                       "CA",
	uint8(astits.DescriptorTagAC3):                        "AC-3",
	uint8(astits.DescriptorTagAVCVideo):                   "AVC video",
	uint8(astits.DescriptorTagComponent):                  "component",
	uint8(astits.DescriptorTagContent):                    "content",
	uint8(astits.DescriptorTagDataStreamAlignment):        "data stream alignment",
	uint8(astits.DescriptorTagEnhancedAC3):                "enhanced AC-3",
	uint8(astits.DescriptorTagExtendedEvent):              "extended event",
	uint8(astits.DescriptorTagExtension):                  "extension",
	uint8(astits.DescriptorTagISO639LanguageAndAudioType): "ISO 639 language",
	uint8(astits.DescriptorTagLocalTimeOffset):            "local time offset",
	uint8(astits.DescriptorTagMaximumBitrate):             "maximum bitrate",
	uint8(astits.DescriptorTagNetworkName):                "network name",
	uint8(astits.DescriptorTagParentalRating):             "parental rating",
	uint8(astits.DescriptorTagPrivateDataIndicator):       "private data indicator",
	uint8(astits.DescriptorTagPrivateDataSpecifier):       "private data specifier",
	uint8(astits.DescriptorTagRegistration):               "registration",
	uint8(astits.DescriptorTagService):                    "service",
	uint8(astits.DescriptorTagShortEvent):                 "short event",
	uint8(astits.DescriptorTagStreamIdentifier):           "stream identifier",
	uint8(astits.DescriptorTagSubtitling):                 "subtitling",
	uint8(astits.DescriptorTagTeletext):                   "teletext",
	uint8(astits.DescriptorTagVBIData):                    "VBI data",
	uint8(astits.DescriptorTagVBITeletext):                "VBI teletext",
}

// StreamTypeName returns the name and kind (video, audio or other) of an
// MPEG-2 PMT stream_type
func StreamTypeName(t uint8) (name, kind string) {
	st := astits.StreamType(t)
	name = st.String()
	if name == "Unknown" {
		name = fmt.Sprintf("stream type 0x%02X", t)
	}
	switch {
	case st.IsVideo():
		kind = "video"
	case st.IsAudio():
		kind = "audio"
	default:
		kind = "other"
	}
	return name, kind
}

// streamType reads a stream_type byte and records its name and kind next
// to the raw value
func (r *reader) streamType(name string) {
	off, b, ok := r.raw(name, 1)
	if !ok {
		return
	}
	st, kind := StreamTypeName(b[0])
	r.rec.Field(name, off, 1, b[0])
	r.rec.Field(name+".name", off, 1, st)
	r.rec.Field(name+".kind", off, 1, kind)
}

// DescriptorName returns the name of an MPEG-2/DVB descriptor tag
func DescriptorName(tag uint8) string {
	if name, ok := descriptorNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("descriptor 0x%02X", tag)
}

// DecodeDescriptorLoop records each descriptor of a tag/length/body loop.
// base is the offset of b in the buffer rec refers to.
func DecodeDescriptorLoop(rec *types.Recorder, base int, b []byte) error {
	i := astikit.NewBytesIterator(b)
	for i.HasBytesLeft() {
		off := base + i.Offset()
		tag, err := i.NextByte()
		if err != nil {
			return rec.Fail(types.ErrShortBuffer, off, 0, "descriptor tag: %v", err)
		}
		length, err := i.NextByte()
		if err != nil {
			return rec.Fail(types.ErrLengthMismatch, off, 1, "descriptor 0x%02X has no length", tag)
		}
		if int(length) > len(b)-i.Offset() {
			return rec.Fail(types.ErrLengthMismatch, off, 2+len(b)-i.Offset(),
				"descriptor 0x%02X declares %d bytes, %d left", tag, length, len(b)-i.Offset())
		}
		body, _ := i.NextBytes(int(length))
		rec.Event("descriptor", off, 2+int(length), DescriptorName(tag))

		if tag == DescriptorTagCA && len(body) >= 4 {
			rec.Field("descriptor.ca_system_id", off+2, 2, fmt.Sprintf("0x%04X", uint16(body[0])<<8|uint16(body[1])))
			rec.Field("descriptor.ca_pid", off+4, 2, uint16(body[2]&0x1F)<<8|uint16(body[3]))
			if len(body) > 4 {
				rec.Field("descriptor.private_data", off+6, len(body)-4, hex.EncodeToString(body[4:]))
			}
			continue
		}
		if len(body) > 0 {
			rec.Field("descriptor.data", off+2, len(body), hex.EncodeToString(body))
		}
	}
	return nil
}

// descriptors decodes an n byte descriptor loop
func (r *reader) descriptors(name string, n int) {
	off, b, ok := r.raw(name, n)
	if !ok {
		return
	}
	if err := DecodeDescriptorLoop(r.rec, off, b); err != nil {
		r.err = err
	}
}
