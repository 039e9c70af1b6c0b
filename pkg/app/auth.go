package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

// decodeAuth decodes auth_req and auth_resp, which share one layout
func decodeAuth(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.hex16("auth_protocol_id")
	r.rest("auth_bytes")
	return r.err
}
