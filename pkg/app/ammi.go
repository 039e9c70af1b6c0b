package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

const requestTypeFile = 0x00

var (
	ackCodes = map[uint8]string{
		0x01: "OK",
		0x02: "wrong API",
		0x03: "API busy",
	}
	requestTypes = map[uint8]string{
		0x00: "file",
		0x01: "data",
	}
)

func decodeRequestStart(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	domainLen := r.u8("app_domain_identifier_length")
	objectLen := r.u8("initial_object_length")
	r.ascii("app_domain_identifier", int(domainLen))
	r.ascii("initial_object", int(objectLen))
	return r.err
}

func decodeRequestStartAck(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("ack_code", ackCodes)
	return r.err
}

func decodeFileRequest(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	if typ := r.named8("request_type", requestTypes); typ == requestTypeFile {
		r.ascii("file_name", r.left())
	} else {
		r.rest("data_bytes")
	}
	return r.err
}

func decodeFileAcknowledge(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off, b, ok := r.raw("file_ok", 1)
	if ok {
		rec.Field("file_ok", off, 1, b[0]&0x01 == 1)
	}
	if typ := r.named8("request_type", requestTypes); typ != requestTypeFile || !r.ok() {
		r.rest("data_bytes")
		return r.err
	}
	if r.empty() {
		return r.err
	}
	n := r.u8("file_name_length")
	r.ascii("file_name", int(n))
	size := r.u32("file_data_length")
	r.bytes("file_data", int(size))
	return r.err
}

// decodeAbortCode decodes AppAbortRequest and AppAbortAck
func decodeAbortCode(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.rest("abort_code")
	return r.err
}
