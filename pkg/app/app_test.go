package app

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/circuit"
	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/sac"
	"avaneesh/dvbci-go/pkg/types"
)

const (
	testKey = "000102030405060708090a0b0c0d0e0f"
	testIV  = "f0e0d0c0b0a090807060504030201000"
)

const (
	resourceAppInfo = types.ResourceID(0x00020041)
	resourceLSC     = types.ResourceID(0x00600041)
	resourceSAS     = types.ResourceID(0x00960041)
)

func apdu(tag Tag, body ...byte) []byte {
	b := []byte{byte(tag >> 16), byte(tag >> 8), byte(tag)}
	b = append(b, ber.EncodeLength(len(body))...)
	return append(b, body...)
}

func newRecorder() *types.Recorder {
	return types.NewRecorder(1).At(types.LayerApplication).From(types.SourceTransport)
}

func openCircuit(resource types.ResourceID) *circuit.Circuit {
	c, _ := circuit.NewTable().Create(1, resource, 1)
	return c
}

func decode(d *Decoder, b []byte, dir types.Direction, circ *circuit.Circuit) (*types.Recorder, *Message, error) {
	rec := newRecorder()
	m, err := d.Decode(rec, ber.NewCursor(b), dir, circ)
	return rec, m, err
}

func field(t *testing.T, rec *types.Recorder, name string) interface{} {
	r, ok := rec.Find(types.RecordField, name)
	assert.Equal(t, true, ok, name)
	return r.Value
}

type spyDecrypter struct {
	calls int
}

func (s *spyDecrypter) Decrypt(cipherID uint8, ciphertext []byte) ([]byte, error) {
	s.calls++
	return nil, errors.New("spy")
}

func TestDescriptorTable(t *testing.T) {
	assert.Equal(t, true, Descriptors() >= 90)
	d, ok := Lookup(TagCAPMT)
	assert.Equal(t, true, ok)
	assert.Equal(t, "ca_pmt", d.Name)
	assert.Equal(t, types.ClassConditionalAccess, d.Class)
	assert.Equal(t, "tune", TagTune.String())
	assert.Equal(t, "Tag(0x9F9999)", Tag(0x9F9999).String())
}

func TestDecode_UnknownTag(t *testing.T) {
	rec, m, err := decode(NewDecoder(), []byte{0x9F, 0x99, 0x99, 0x01, 0x00}, types.DirectionHostToModule, nil)
	assert.Equal(t, true, errors.Is(err, types.ErrUnknownTag))
	assert.Equal(t, (*Message)(nil), m)
	assert.Equal(t, 1, rec.Len())
	assert.Equal(t, types.RecordError, rec.Records()[0].Kind)
	assert.Equal(t, 0, rec.Count(types.RecordField))
}

func TestDecode_AppInfo(t *testing.T) {
	b := apdu(TagAppInfo, 0x01, 0x12, 0x34, 0x56, 0x78, 0x04, 'M', 'e', 'n', 'u')
	rec, m, err := decode(NewDecoder(), b, types.DirectionModuleToHost, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, TagAppInfo, m.Tag)
	assert.Equal(t, 10, m.Length)
	assert.Equal(t, "conditional access", field(t, rec, "application_type"))
	assert.Equal(t, "0x1234", field(t, rec, "application_manufacturer"))
	assert.Equal(t, "Menu", field(t, rec, "menu_string"))
	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))

	ev, ok := rec.Find(types.RecordEvent, "apdu")
	assert.Equal(t, true, ok)
	assert.Equal(t, "application_info", ev.Value)
	assert.Equal(t, 0, ev.Offset)
	assert.Equal(t, len(b), ev.Length)
}

func TestDecode_LengthRules(t *testing.T) {
	// tune has a fixed 8 byte body
	rec, _, err := decode(NewDecoder(), apdu(TagTune, 1, 2, 3, 4, 5, 6, 7), types.DirectionModuleToHost, nil)
	assert.Equal(t, true, errors.Is(err, types.ErrLengthMismatch))
	assert.Equal(t, 1, rec.Count(types.RecordError))

	// application_info needs at least 6 bytes
	_, _, err = decode(NewDecoder(), apdu(TagAppInfo, 1, 2, 3), types.DirectionModuleToHost, nil)
	assert.Equal(t, true, errors.Is(err, types.ErrLengthMismatch))

	// declared length runs past the buffer
	b := apdu(TagAppInfo, 0x01, 0x12, 0x34, 0x56, 0x78, 0x04, 'M', 'e', 'n', 'u')
	_, _, err = decode(NewDecoder(), b[:8], types.DirectionModuleToHost, nil)
	assert.Equal(t, true, errors.Is(err, types.ErrLengthMismatch))

	// control-only message
	rec, m, err := decode(NewDecoder(), apdu(TagProfileEnq), types.DirectionHostToModule, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, m.Length)
	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))
}

func TestDecode_Advisories(t *testing.T) {
	rec, _, err := decode(NewDecoder(), apdu(TagEnterMenu), types.DirectionModuleToHost, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, rec.Has(types.ErrDirectionViolation))

	rec, _, err = decode(NewDecoder(), apdu(TagCAInfoEnq), types.DirectionHostToModule, openCircuit(resourceAppInfo))
	assert.Equal(t, nil, err)
	assert.Equal(t, true, rec.Has(types.ErrResourceClassMismatch))

	rec, _, err = decode(NewDecoder(), apdu(TagDataRateInfo, 0x01), types.DirectionHostToModule, openCircuit(resourceAppInfo))
	assert.Equal(t, nil, err)
	assert.Equal(t, true, rec.Has(types.ErrResourceVersionTooLow))
	assert.Equal(t, "96 Mbit/s", field(t, rec, "data_rate"))
}

func TestDecode_CAPMT(t *testing.T) {
	body := []byte{
		0x03, 0x00, 0x01, 0xC3,
		0xF0, 0x07, 0x01, 0x09, 0x04, 0x0B, 0x00, 0xE1, 0x00,
		0x02, 0xE1, 0x01, 0xF0, 0x00,
	}
	rec, _, err := decode(NewDecoder(), apdu(TagCAPMT, body...), types.DirectionHostToModule, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "only", field(t, rec, "ca_pmt_list_management"))
	assert.Equal(t, uint8(1), field(t, rec, "version_number"))
	assert.Equal(t, true, field(t, rec, "current_next_indicator"))
	assert.Equal(t, uint16(7), field(t, rec, "program_info_length"))
	assert.Equal(t, "ok_descrambling", field(t, rec, "program.ca_pmt_cmd_id"))
	assert.Equal(t, "0x0B00", field(t, rec, "descriptor.ca_system_id"))
	assert.Equal(t, uint16(0x100), field(t, rec, "descriptor.ca_pid"))
	assert.Equal(t, uint16(0x101), field(t, rec, "elementary_pid"))
	assert.Equal(t, uint8(0x02), field(t, rec, "stream_type"))
	assert.Equal(t, "MPEG2 Video", field(t, rec, "stream_type.name"))
	assert.Equal(t, "video", field(t, rec, "stream_type.kind"))
	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))
}

func TestStreamTypeName(t *testing.T) {
	tests := []struct {
		in   uint8
		name string
		kind string
	}{
		{0x1B, "H264 Video", "video"},
		{0x0F, "AAC Audio", "audio"},
		{0x06, "Private Data", "other"},
		{0x7F, "stream type 0x7F", "other"},
	}
	for _, tt := range tests {
		name, kind := StreamTypeName(tt.in)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, tt.kind, kind)
	}
}

func TestDecode_Menu(t *testing.T) {
	var body []byte
	body = append(body, 0x02)
	body = append(body, apdu(TagTextLast, 'T', 'i', 't', 'l', 'e')...)
	body = append(body, apdu(TagTextLast)...)
	body = append(body, apdu(TagTextLast)...)
	body = append(body, apdu(TagTextLast, 'A')...)
	body = append(body, apdu(TagTextLast, 'B')...)

	rec, _, err := decode(NewDecoder(), apdu(TagMenuLast, body...), types.DirectionModuleToHost, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Title", field(t, rec, "title"))
	assert.Equal(t, "A", field(t, rec, "item"))
	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))
}

func sacBody(encrypted bool, payloadLen uint16, ciphertext []byte) []byte {
	flags := byte(0x10)
	if encrypted {
		flags |= 0x01
	}
	b := []byte{0x00, 0x00, 0x00, 0x01, flags, 0x00, byte(payloadLen >> 8), byte(payloadLen)}
	return append(b, ciphertext...)
}

func TestDecode_SACNotEncrypted(t *testing.T) {
	spy := &spyDecrypter{}
	d := NewDecoder()
	d.Decrypter = spy

	b := apdu(TagCCSACDataReq, sacBody(false, 16, make([]byte, 32))...)
	rec, _, err := decode(d, b, types.DirectionModuleToHost, nil)
	assert.Equal(t, true, errors.Is(err, types.ErrNotEncrypted))
	assert.Equal(t, 0, spy.calls)
	assert.Equal(t, 1, rec.Count(types.RecordError))
}

func TestDecode_SACDecryptFailure(t *testing.T) {
	b := apdu(TagCCSACDataReq, sacBody(true, 16, make([]byte, 32))...)
	rec, _, err := decode(NewDecoder(), b, types.DirectionModuleToHost, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, rec.Has(types.ErrDecryptionFailure))
	assert.Equal(t, hex.EncodeToString(make([]byte, 32)), field(t, rec, "encrypted"))
}

func TestDecode_SACDecrypted(t *testing.T) {
	plain := []byte{
		0x01, 0x03,
		DatatypeProgramNumber, 0x00, 0x02, 0x12, 0x34,
		DatatypeKeyRegister, 0x00, 0x01, 0x01,
		DatatypeAuthNonce, 0x00, 0x02, 0xAA, 0xBB,
	}
	plain = append(plain, make([]byte, 16)...)

	key, _ := hex.DecodeString(testKey)
	iv, _ := hex.DecodeString(testIV)
	block, err := aes.NewCipher(key)
	assert.Equal(t, nil, err)
	ciphertext := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plain)

	d := NewDecoder()
	d.Decrypter = sac.New(testKey, testIV)
	b := apdu(TagCCSACDataCnf, sacBody(true, 16, ciphertext)...)
	rec, _, err := decode(d, b, types.DirectionHostToModule, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, rec.Has(types.ErrDecryptionFailure))
	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))

	pn, ok := rec.Find(types.RecordField, "program_number")
	assert.Equal(t, true, ok)
	assert.Equal(t, uint16(0x1234), pn.Value)
	assert.Equal(t, types.SourceSAC, pn.Source)
	assert.Equal(t, 5, pn.Offset)
	assert.Equal(t, "odd", field(t, rec, "key_register"))
}

func TestDecode_LSCForwarding(t *testing.T) {
	d := NewDecoder()
	circ := openCircuit(resourceLSC)

	desc := []byte{ConnectionIP, 0x01}
	desc = append(desc, make([]byte, 12)...)
	desc = append(desc, 10, 0, 0, 1, 0x00, 0x35, byte(forward.ProtocolUDP))
	cmd := append([]byte{CommsConnectOnChannel}, apdu(TagConnectionDescriptor, desc...)...)
	cmd = append(cmd, 0x02, 0x0A)

	rec, _, err := decode(d, apdu(TagCommsCmd, cmd...), types.DirectionModuleToHost, circ)
	assert.Equal(t, nil, err)
	assert.Equal(t, "10.0.0.1", field(t, rec, "ip_address"))
	assert.Equal(t, uint16(53), field(t, rec, "destination_port"))
	assert.IsNotNil(t, circ.Forwarder())
	assert.Equal(t, "dns", circ.Forwarder().Name())

	query := []byte{
		0x12, 0x34, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 'a', 0x00, 0x00, 0x01, 0x00, 0x01,
	}
	rec, _, err = decode(d, apdu(TagCommsSendLast, append([]byte{0x00}, query...)...), types.DirectionModuleToHost, circ)
	assert.Equal(t, nil, err)
	ev, ok := rec.Find(types.RecordEvent, "forwarded")
	assert.Equal(t, true, ok)
	assert.Equal(t, "dns", ev.Value)
	_, ok = rec.Find(types.RecordEvent, "dns.message")
	assert.Equal(t, true, ok)

	// without forwarding the payload stays opaque
	d.DecodeForwardedLSC = false
	rec, _, _ = decode(d, apdu(TagCommsSendLast, append([]byte{0x00}, query...)...), types.DirectionModuleToHost, circ)
	ev, _ = rec.Find(types.RecordEvent, "forwarded")
	assert.Equal(t, "opaque", ev.Value)

	_, _, err = decode(d, apdu(TagCommsCmd, CommsDisconnectOnChannel), types.DirectionModuleToHost, circ)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, circ.Forwarder())
}

func TestDecode_Hostname(t *testing.T) {
	desc := append([]byte{ConnectionHostname, byte(forward.ProtocolTCP), 0x01, 0xBB}, []byte("bücher.example")...)
	rec, _, err := decode(NewDecoder(), apdu(TagConnectionDescriptor, desc...), types.DirectionModuleToHost, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "bücher.example", field(t, rec, "hostname"))
	assert.Equal(t, "xn--bcher-kva.example", field(t, rec, "hostname.ascii"))
	assert.Equal(t, "tcp", field(t, rec, "protocol"))
}

func TestDecode_SASBinding(t *testing.T) {
	d := NewDecoder()
	d.Apps.Register("0102030405060708", forward.NewOpaque())
	circ := openCircuit(resourceSAS)

	cnf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x00}
	rec, _, err := decode(d, apdu(TagSASConnectCnf, cnf...), types.DirectionModuleToHost, circ)
	assert.Equal(t, nil, err)
	assert.Equal(t, "0102030405060708", field(t, rec, "private_host_application_id"))
	assert.IsNotNil(t, circ.Forwarder())

	rec, _, err = decode(d, apdu(TagSASAsyncMsg, 0x01, 0x00, 0x02, 0xAA, 0xBB), types.DirectionHostToModule, circ)
	assert.Equal(t, nil, err)
	data, ok := rec.Find(types.RecordField, "data")
	assert.Equal(t, true, ok)
	assert.Equal(t, "aabb", data.Value)
	assert.Equal(t, types.LayerForwarded, data.Layer)
	assert.Equal(t, types.SourceForwarded, data.Source)

	cnf[8] = 0x01
	_, _, err = decode(d, apdu(TagSASConnectCnf, cnf...), types.DirectionModuleToHost, circ)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, circ.Forwarder())
}

func TestDecode_DateTime(t *testing.T) {
	rec, _, err := decode(NewDecoder(), apdu(TagDateTime, 0xC0, 0x79, 0x12, 0x45, 0x00, 0x00, 0x3C), types.DirectionHostToModule, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "1993-10-13 12:45:00", field(t, rec, "utc_time"))
	assert.Equal(t, int16(60), field(t, rec, "local_offset"))

	rec, _, _ = decode(NewDecoder(), apdu(TagDateTime, 0xC0, 0x79, 0x1A, 0x45, 0x00), types.DirectionHostToModule, nil)
	assert.Equal(t, true, rec.Has(types.ErrInvalidValue))
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "", DecodeText(nil))
	assert.Equal(t, "Hello", DecodeText([]byte("Hello")))
	assert.Equal(t, "A\nB", DecodeText([]byte{'A', 0x8A, 'B'}))
	assert.Equal(t, "é", DecodeText([]byte{0x15, 0xC3, 0xA9}))
	assert.Equal(t, "А", DecodeText([]byte{0x01, 0xB0}))
	assert.Equal(t, "Ab", DecodeText([]byte{0x11, 0x00, 'A', 0x00, 'b'}))
}
