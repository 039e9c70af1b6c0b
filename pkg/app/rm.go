package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

// decodeProfileReply records the resource ids a side offers
func decodeProfileReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	for !r.empty() {
		off, b, ok := r.raw("resource_id", 4)
		if !ok {
			break
		}
		id := types.ResourceID(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
		rec.Field("resource_id", off, 4, id.String())
	}
	return r.err
}
