package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

var (
	tuneStatuses = map[uint8]string{
		0x00: "OK",
		0x01: "unsupported delivery system",
		0x02: "tuner not locking",
		0x03: "tuner busy",
		0x04: "bad or missing parameters",
		0x05: "service not found",
		0x06: "undefined error",
	}
	releaseReplies = map[uint8]string{
		0x00: "release OK",
		0x01: "release refused",
	}
)

func decodeTune(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.hex16("network_id")
	r.hex16("original_network_id")
	r.hex16("transport_stream_id")
	r.hex16("service_id")
	return r.err
}

func decodeReplace(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("replacement_ref")
	r.pid("replaced_pid")
	r.pid("replacement_pid")
	return r.err
}

func decodeClearReplace(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("replacement_ref")
	return r.err
}

func decodeTuneBroadcastReq(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off, b, ok := r.raw("tune_quietly_flag", 1)
	if ok {
		rec.Field("tune_quietly_flag", off, 1, b[0]&0x01 == 1)
	}
	r.u16("program_number")
	n := r.length12("descriptor_loop_length")
	r.descriptors("descriptors", n)
	return r.err
}

func decodeTuneReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("status_field", tuneStatuses)
	return r.err
}

func decodeAskReleaseReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("release_reply", releaseReplies)
	return r.err
}

// pid reads a 13 bit PID that follows 3 reserved bits
func (r *reader) pid(name string) uint16 {
	off, b, ok := r.raw(name, 2)
	if !ok {
		return 0
	}
	v := uint16(b[0]&0x1F)<<8 | uint16(b[1])
	r.rec.Field(name, off, 2, v)
	return v
}
