package forward

import (
	"encoding/hex"

	"avaneesh/dvbci-go/pkg/types"
)

// Opaque emits the payload as unparsed bytes
type Opaque struct{}

// NewOpaque creates the generic unparsed-bytes decoder
func NewOpaque() *Opaque {
	return &Opaque{}
}

// Name returns the decoder name
func (o *Opaque) Name() string {
	return "opaque"
}

// Decode records the payload as one hex field
func (o *Opaque) Decode(rec *types.Recorder, payload []byte) error {
	rec.Field("data", 0, len(payload), hex.EncodeToString(payload))
	return nil
}
