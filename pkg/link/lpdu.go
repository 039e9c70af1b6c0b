package link

import (
	"errors"
	"fmt"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

var ErrMoreLastFlag = errors.New("dvbci.link: invalid more/last indicator")

// LPDU sizes
const (
	HeaderSize      = 2  // tcid + more/last
	NegotiationSize = 2  // A data frame of exactly this size is a buffer size negotiation
	MinBufferSize   = 16 // Smallest buffer size either side may offer
)

// More/last indicator values
const (
	FlagLast uint8 = 0x00
	FlagMore uint8 = 0x80
)

// LPDU is one link layer protocol data unit
type LPDU struct {
	Tcid     uint8
	MoreLast uint8
	Payload  []byte
}

// More returns true when further LPDUs of the same TPDU follow. Invalid
// indicator values are treated as last.
func (l *LPDU) More() bool {
	return l.MoreLast == FlagMore
}

// String returns a string representation of the LPDU
func (l *LPDU) String() string {
	ml := "last"
	if l.More() {
		ml = "more"
	}
	return fmt.Sprintf("LPDU{Tcid=%d, %s, Len=%d}", l.Tcid, ml, len(l.Payload))
}

// ParseLPDU reads the link header and takes the rest of c as payload
func ParseLPDU(rec *types.Recorder, c *ber.Cursor) (*LPDU, error) {
	off := c.Offset()
	tcid, err := c.ReadUint8()
	if err != nil {
		return nil, rec.Fail(types.ErrShortBuffer, off, c.Len(), "LPDU header needs %d bytes", HeaderSize)
	}
	ml, err := c.ReadUint8()
	if err != nil {
		return nil, rec.Fail(types.ErrShortBuffer, off, 1, "LPDU header needs %d bytes", HeaderSize)
	}

	l := &LPDU{Tcid: tcid, MoreLast: ml}
	rec.Field("tcid", off, 1, tcid)
	switch ml {
	case FlagMore:
		rec.Field("more_last", off+1, 1, "more")
	case FlagLast:
		rec.Field("more_last", off+1, 1, "last")
	default:
		rec.Field("more_last", off+1, 1, ml)
		rec.Advise(ErrMoreLastFlag, off+1, 1, "more/last indicator 0x%02X, treated as last", ml)
	}

	payloadOff := c.Offset()
	l.Payload = c.Rest()
	rec.Field("payload", payloadOff, len(l.Payload), len(l.Payload))
	return l, nil
}
