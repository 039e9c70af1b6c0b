package physical

import (
	"errors"
	"testing"

	"github.com/google/gopacket"
	"github.com/q191201771/naza/pkg/assert"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

func record(event Event, payload ...byte) []byte {
	b := []byte{0x00, byte(event), byte(len(payload) >> 8), byte(len(payload))}
	return append(b, payload...)
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte{0x00, 0xFE, 0x00, 0x0A})
	assert.Equal(t, nil, err)
	assert.Equal(t, EventDataHostToModule, h.Event)
	assert.Equal(t, uint16(10), h.Length)
	assert.Equal(t, types.DirectionHostToModule, h.Event.Direction())
	assert.Equal(t, true, h.Event.IsData())

	_, err = ParseHeader([]byte{0x01, 0xFE, 0x00, 0x00})
	assert.Equal(t, true, errors.Is(err, ErrNotDVBCI))

	_, err = ParseHeader([]byte{0x00, 0xFA, 0x00, 0x00})
	assert.Equal(t, true, errors.Is(err, ErrNotDVBCI))

	_, err = ParseHeader([]byte{0x00, 0xFE})
	assert.Equal(t, true, errors.Is(err, types.ErrShortBuffer))
}

func TestDecode_LengthMismatch(t *testing.T) {
	data := []byte{0x00, 0xFE, 0x00, 0x0A, 0x01, 0x00, 0xA0, 0x01, 0x01}
	rec := types.NewRecorder(1).At(types.LayerPhysical)
	_, c, err := Decode(rec, data)
	assert.Equal(t, true, errors.Is(err, types.ErrLengthMismatch))
	assert.Equal(t, (*ber.Cursor)(nil), c)
	assert.Equal(t, 1, rec.Count(types.RecordError))
}

func TestDecode_PayloadOffsets(t *testing.T) {
	rec := types.NewRecorder(1).At(types.LayerPhysical)
	_, c, err := Decode(rec, record(EventDataModuleToHost, 0x01, 0x00))
	assert.Equal(t, nil, err)
	assert.Equal(t, 4, c.Offset())
	assert.Equal(t, 2, c.Len())
}

func TestDVBCILayer(t *testing.T) {
	data := record(EventHardware, byte(HWCamIn))
	packet := gopacket.NewPacket(data, LinkTypeDVBCI, gopacket.Default)
	l := packet.Layer(LayerTypeDVBCI)
	assert.IsNotNil(t, l)
	d := l.(*DVBCI)
	assert.Equal(t, EventHardware, d.Event)
	assert.Equal(t, []byte{0x01}, d.LayerPayload())

	var layer DVBCI
	err := layer.DecodeFromBytes([]byte{0x00, 0xFF, 0x00, 0x05, 0x01}, gopacket.NilDecodeFeedback)
	assert.Equal(t, true, errors.Is(err, types.ErrLengthMismatch))
}

func TestDecodeCIS(t *testing.T) {
	payload := []byte{
		0x15, 0x0C, 0x05, 0x00, 'A', 'C', 'M', 'E', 0x00, 'C', 'A', 'M', 0x00, 0xFF, // VERS_1
		0x20, 0x04, 0x34, 0x12, 0x78, 0x56, // MANFID
		0x1A, 0x04, 0x01, 0x0F, 0xFE, 0x01, // CONFIG, 2-byte base address 0x1FE
		0x1B, 0x02, 0xCF, 0x00, // CFTABLE_ENTRY
		0x14, 0x00, // NO_LINK
		0xFF,
	}
	data := record(EventCISRead, payload...)
	rec := types.NewRecorder(1).At(types.LayerPhysical)
	_, c, err := Decode(rec, data)
	assert.Equal(t, nil, err)
	err = DecodeCIS(rec, c)
	assert.Equal(t, nil, err)

	major, _ := rec.Find(types.RecordField, "cis.vers1.major")
	assert.Equal(t, uint8(5), major.Value)
	var infos []interface{}
	for _, r := range rec.Records() {
		if r.Name == "cis.vers1.info" {
			infos = append(infos, r.Value)
		}
	}
	assert.Equal(t, []interface{}{"ACME", "CAM"}, infos)

	manf, _ := rec.Find(types.RecordField, "cis.manfid.manufacturer")
	assert.Equal(t, uint16(0x1234), manf.Value)
	assert.Equal(t, 4+16, manf.Offset)

	base, _ := rec.Find(types.RecordField, "cis.config.base_address")
	assert.Equal(t, uint32(0x1FE), base.Value)
	last, _ := rec.Find(types.RecordField, "cis.config.last_index")
	assert.Equal(t, uint8(0x0F), last.Value)

	idx, _ := rec.Find(types.RecordField, "cis.cftable.index")
	assert.Equal(t, uint8(0x0F), idx.Value)
	iface, _ := rec.Find(types.RecordField, "cis.cftable.interface")
	assert.Equal(t, true, iface.Value)

	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))
}

func TestDecodeCIS_TupleOverrun(t *testing.T) {
	rec := types.NewRecorder(1)
	err := DecodeCIS(rec, ber.NewCursor([]byte{0x15, 0x10, 0x05}))
	assert.Equal(t, true, errors.Is(err, types.ErrLengthMismatch))
}

func TestDecodeCOR(t *testing.T) {
	golden := []struct {
		name       string
		payload    []byte
		advisories int
	}{
		{"valid", []byte{0x01, 0xFE, 0x0F}, 0},
		{"odd", []byte{0x01, 0xFF, 0x0F}, 1},
		{"too high", []byte{0x10, 0x00, 0x0F}, 1},
		{"odd and too high", []byte{0x10, 0x01, 0x0F}, 2},
	}
	for _, tt := range golden {
		t.Run(tt.name, func(t *testing.T) {
			rec := types.NewRecorder(1)
			err := DecodeCOR(rec, ber.NewCursor(tt.payload))
			assert.Equal(t, nil, err)
			assert.Equal(t, tt.advisories, rec.Count(types.RecordAdvisory))
		})
	}

	rec := types.NewRecorder(1)
	err := DecodeCOR(rec, ber.NewCursor([]byte{0x01}))
	assert.Equal(t, true, errors.Is(err, types.ErrShortBuffer))
}

func TestDecodeHWEvent(t *testing.T) {
	rec := types.NewRecorder(1)
	ev, err := DecodeHWEvent(rec, ber.NewCursor([]byte{0x02}))
	assert.Equal(t, nil, err)
	assert.Equal(t, HWCamOut, ev)
	assert.Equal(t, true, ev.ResetsSession())
	assert.Equal(t, false, HWTSEnable.ResetsSession())

	rec = types.NewRecorder(1)
	ev, err = DecodeHWEvent(rec, ber.NewCursor([]byte{0x42}))
	assert.Equal(t, nil, err)
	assert.Equal(t, HWEvent(0x42), ev)
	assert.Equal(t, true, rec.Has(types.ErrInvalidValue))
}
