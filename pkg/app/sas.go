package app

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/types"
)

const sasConnectionEstablished = 0x00

var sasSessionStatuses = map[uint8]string{
	0x00: "connection established",
	0x01: "connection denied, no associated vendor specific CICAM application",
	0x02: "connection denied, no more connections available",
}

// ApplicationID formats a private host application id as used in the
// application table
func ApplicationID(b []byte) string {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return fmt.Sprintf("%016x", v)
}

func (r *reader) applicationID(name string) string {
	off, b, ok := r.raw(name, 8)
	if !ok {
		return ""
	}
	id := ApplicationID(b)
	r.rec.Field(name, off, 8, id)
	return id
}

func decodeSASConnectRqst(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.applicationID("private_host_application_id")
	return r.err
}

// decodeSASConnectCnf binds the handler registered for the application id
// when the connection was established, and unbinds otherwise
func decodeSASConnectCnf(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	id := r.applicationID("private_host_application_id")
	status := r.named8("sas_session_status", sasSessionStatuses)
	if !r.ok() || m.Circuit == nil {
		return r.err
	}
	if status != sasConnectionEstablished {
		m.Circuit.Unbind()
		return nil
	}
	if h, ok := d.Apps.Lookup(id); ok {
		m.Circuit.Bind(h)
		rec.Event("bound", m.Body.Offset()-9, 9, h.Name())
	} else {
		m.Circuit.Unbind()
	}
	return nil
}

func decodeSASAsyncMsg(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("message_nb")
	n := r.u16("message_length")
	off, b, ok := r.raw("message", int(n))
	if !ok {
		return r.err
	}
	h := d.Opaque
	if m.Circuit != nil && m.Circuit.Forwarder() != nil {
		h = m.Circuit.Forwarder()
	}
	forwardPayload(rec, h, off, b)
	return nil
}
