package app

import (
	"fmt"

	"github.com/q191201771/naza/pkg/nazabits"

	"avaneesh/dvbci-go/pkg/types"
)

var (
	listManagements = map[uint8]string{
		0x00: "more",
		0x01: "first",
		0x02: "last",
		0x03: "only",
		0x04: "add",
		0x05: "update",
	}
	caPMTCommands = map[uint8]string{
		0x01: "ok_descrambling",
		0x02: "ok_mmi",
		0x03: "query",
		0x04: "not_selected",
	}
	caEnableValues = map[uint8]string{
		0x01: "descrambling possible",
		0x02: "descrambling possible under conditions (purchase dialogue)",
		0x03: "descrambling possible under conditions (technical dialogue)",
		0x71: "descrambling not possible (because no entitlement)",
		0x73: "descrambling not possible (for technical reasons)",
	}
)

func decodeCAInfo(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	for !r.empty() {
		r.hex16("ca_system_id")
	}
	return r.err
}

func decodeCAPMT(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("ca_pmt_list_management", listManagements)
	r.u16("program_number")

	off, b, ok := r.raw("version_number", 1)
	if ok {
		br := nazabits.NewBitReader(b)
		_, _ = br.ReadBits8(2)
		version, _ := br.ReadBits8(5)
		current, _ := br.ReadBits8(1)
		rec.Field("version_number", off, 1, version)
		rec.Field("current_next_indicator", off, 1, current == 1)
	}
	infoLen := r.length12("program_info_length")
	r.caDescriptors("program", infoLen)

	for !r.empty() {
		r.streamType("stream_type")
		off, b, ok := r.raw("elementary_pid", 2)
		if !ok {
			break
		}
		rec.Field("elementary_pid", off, 2, uint16(b[0]&0x1F)<<8|uint16(b[1]))
		esLen := r.length12("es_info_length")
		r.caDescriptors("es", esLen)
	}
	return r.err
}

// caDescriptors decodes the ca_pmt_cmd_id and the CA descriptors that
// follow it in an n byte info block
func (r *reader) caDescriptors(scope string, n int) {
	if n == 0 || !r.ok() {
		return
	}
	r.named8(scope+".ca_pmt_cmd_id", caPMTCommands)
	r.descriptors(scope+".descriptors", n-1)
}

// length12 reads a 12 bit length that follows 4 reserved bits
func (r *reader) length12(name string) int {
	off, b, ok := r.raw(name, 2)
	if !ok {
		return 0
	}
	br := nazabits.NewBitReader(b)
	_, _ = br.ReadBits8(4)
	n, _ := br.ReadBits16(12)
	r.rec.Field(name, off, 2, n)
	return int(n)
}

func decodeCAPMTReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u16("program_number")
	off, b, ok := r.raw("version_number", 1)
	if ok {
		rec.Field("version_number", off, 1, (b[0]>>1)&0x1F)
		rec.Field("current_next_indicator", off, 1, b[0]&0x01 == 1)
	}
	r.caEnable("ca_enable")

	for !r.empty() {
		off, b, ok := r.raw("elementary_pid", 2)
		if !ok {
			break
		}
		rec.Field("elementary_pid", off, 2, uint16(b[0]&0x1F)<<8|uint16(b[1]))
		r.caEnable("es.ca_enable")
	}
	return r.err
}

// caEnable reads the CA_enable_flag and CA_enable byte
func (r *reader) caEnable(name string) {
	off, b, ok := r.raw(name, 1)
	if !ok {
		return
	}
	if b[0]&0x80 == 0 {
		r.rec.Field(name, off, 1, "not present")
		return
	}
	v := b[0] & 0x7F
	s, known := caEnableValues[v]
	if !known {
		s = fmt.Sprintf("reserved (0x%02X)", v)
	}
	r.rec.Field(name, off, 1, s)
}
