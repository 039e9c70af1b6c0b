package dvbci

import (
	"avaneesh/dvbci-go/pkg/app"
	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// frameBuilder composes capture records layer by layer and numbers them
type frameBuilder struct {
	seq uint64
}

func (b *frameBuilder) record(event byte, payload ...byte) types.Frame {
	b.seq++
	data := append([]byte{0x00, event, byte(len(payload) >> 8), byte(len(payload))}, payload...)
	return types.Frame{Seq: b.seq, Data: data}
}

// hostData wraps spdu in a data_last TPDU and a single LPDU, host -> module
func (b *frameBuilder) hostData(tcid byte, spdu []byte) types.Frame {
	return b.record(0xFE, lpdu(tcid, false, tpdu(0xA0, tcid, spdu))...)
}

// moduleData wraps spdu in a data_last TPDU with a status block, module -> host
func (b *frameBuilder) moduleData(tcid byte, spdu []byte) types.Frame {
	t := append(tpdu(0xA0, tcid, spdu), 0x80, 0x02, tcid, 0x00)
	return b.record(0xFF, lpdu(tcid, false, t)...)
}

func lpdu(tcid byte, more bool, payload []byte) []byte {
	flag := byte(0x00)
	if more {
		flag = 0x80
	}
	return append([]byte{tcid, flag}, payload...)
}

func tpdu(tag, tcid byte, body []byte) []byte {
	b := []byte{tag}
	b = append(b, ber.EncodeLength(len(body)+1)...)
	b = append(b, tcid)
	return append(b, body...)
}

func u32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func u16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func openSessionRequest(resource uint32) []byte {
	return append([]byte{0x91, 0x04}, u32(resource)...)
}

func openSessionResponse(status byte, resource uint32, sn uint16) []byte {
	b := append([]byte{0x92, 0x07, status}, u32(resource)...)
	return append(b, u16(sn)...)
}

func closeSessionResponse(status byte, sn uint16) []byte {
	return append([]byte{0x96, 0x03, status}, u16(sn)...)
}

func sessionNumber(sn uint16, apdu []byte) []byte {
	return append(append([]byte{0x90, 0x02}, u16(sn)...), apdu...)
}

func apdu(tag app.Tag, body ...byte) []byte {
	b := []byte{byte(tag >> 16), byte(tag >> 8), byte(tag)}
	b = append(b, ber.EncodeLength(len(body))...)
	return append(b, body...)
}

func findRecord(res *Result, layer types.Layer, kind types.RecordKind, name string) (types.Record, bool) {
	for _, r := range res.Records {
		if r.Layer == layer && r.Kind == kind && r.Name == name {
			return r, true
		}
	}
	return types.Record{}, false
}

func countLayer(res *Result, layer types.Layer) int {
	n := 0
	for _, r := range res.Records {
		if r.Layer == layer {
			n++
		}
	}
	return n
}
