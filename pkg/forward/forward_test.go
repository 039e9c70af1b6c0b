package forward

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/q191201771/naza/pkg/assert"

	"avaneesh/dvbci-go/pkg/types"
)

var dnsQuery = []byte{
	0x12, 0x34, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x03, 'w', 'w', 'w', 0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x03, 'c', 'o', 'm', 0x00,
	0x00, 0x01, 0x00, 0x01,
}

func newRecorder() *types.Recorder {
	return types.NewRecorder(1).At(types.LayerForwarded)
}

func TestOpaque(t *testing.T) {
	rec := newRecorder()
	err := NewOpaque().Decode(rec, []byte{0xDE, 0xAD})
	assert.Equal(t, nil, err)
	r, ok := rec.Find(types.RecordField, "data")
	assert.Equal(t, true, ok)
	assert.Equal(t, "dead", r.Value)
	assert.Equal(t, 2, r.Length)
}

func TestDNS_Datagram(t *testing.T) {
	rec := newRecorder()
	err := NewDNS(false).Decode(rec, dnsQuery)
	assert.Equal(t, nil, err)

	ev, ok := rec.Find(types.RecordEvent, "dns.message")
	assert.Equal(t, true, ok)
	assert.Equal(t, "Query", ev.Value)

	id, _ := rec.Find(types.RecordField, "dns.id")
	assert.Equal(t, uint16(0x1234), id.Value)

	q, ok := rec.Find(types.RecordField, "dns.question")
	assert.Equal(t, true, ok)
	assert.Equal(t, "www.example.com A IN", q.Value)
}

func TestDNS_Stream(t *testing.T) {
	payload := append([]byte{0x00, byte(len(dnsQuery))}, dnsQuery...)
	rec := newRecorder()
	err := NewDNS(true).Decode(rec, payload)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, rec.Count(types.RecordAdvisory))

	ev, _ := rec.Find(types.RecordEvent, "dns.message")
	assert.Equal(t, 2, ev.Offset)
}

func TestDNS_GarbageFallsBackToOpaque(t *testing.T) {
	rec := newRecorder()
	err := NewDNS(false).Decode(rec, []byte{0x01, 0x02})
	assert.Equal(t, nil, err)
	assert.Equal(t, true, rec.Has(types.ErrInvalidValue))
	_, ok := rec.Find(types.RecordField, "data")
	assert.Equal(t, true, ok)
}

func TestTLS_Records(t *testing.T) {
	payload := []byte{
		0x16, 0x03, 0x03, 0x00, 0x02, 0x01, 0x00,
		0x17, 0x03, 0x03, 0x00, 0x01, 0xFF,
	}
	rec := newRecorder()
	err := NewTLS().Decode(rec, payload)
	assert.Equal(t, nil, err)

	n, _ := rec.Find(types.RecordField, "tls.records")
	assert.Equal(t, 2, n.Value)

	var events []types.Record
	for _, r := range rec.Records() {
		if r.Kind == types.RecordEvent {
			events = append(events, r)
		}
	}
	assert.Equal(t, 2, len(events))
	assert.Equal(t, "Handshake TLS 1.2 len=2", events[0].Value)
	assert.Equal(t, 7, events[1].Offset)
	assert.Equal(t, 6, events[1].Length)
}

func TestQUIC_Initial(t *testing.T) {
	payload := []byte{
		0xC3,                   // long header, Initial
		0x00, 0x00, 0x00, 0x01, // version 1
		0x02, 0xAA, 0xBB, // dcid
		0x00,       // scid
		0x00,       // token length
		0x40, 0x10, // length 16 (2-byte varint)
	}
	rec := newRecorder()
	err := NewQUIC().Decode(rec, payload)
	assert.Equal(t, nil, err)

	ev, _ := rec.Find(types.RecordEvent, "quic.long_header")
	assert.Equal(t, "Initial", ev.Value)
	dcid, _ := rec.Find(types.RecordField, "quic.dcid")
	assert.Equal(t, "aabb", dcid.Value)
	length, ok := rec.Find(types.RecordField, "quic.length")
	assert.Equal(t, true, ok)
	assert.Equal(t, uint64(16), length.Value)
	assert.Equal(t, 2, length.Length)
}

func TestQUIC_Truncated(t *testing.T) {
	rec := newRecorder()
	err := NewQUIC().Decode(rec, []byte{0xC0, 0x00, 0x00})
	assert.Equal(t, true, errors.Is(err, types.ErrShortBuffer))
	assert.Equal(t, 1, rec.Count(types.RecordError))
}

func TestCertificate(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.Equal(t, nil, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: "cam.example"},
		NotBefore:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	assert.Equal(t, nil, err)

	rec := newRecorder()
	err = NewCertificate().Decode(rec, der)
	assert.Equal(t, nil, err)
	ev, _ := rec.Find(types.RecordEvent, "x509.certificate")
	assert.Equal(t, "CN=cam.example", ev.Value)
	serial, _ := rec.Find(types.RecordField, "x509.serial")
	assert.Equal(t, "42", serial.Value)
	nb, _ := rec.Find(types.RecordField, "x509.not_before")
	assert.Equal(t, "2020-01-01T00:00:00Z", nb.Value)
}

func TestPortTable(t *testing.T) {
	table := DefaultPortTable()
	h, ok := table.Lookup(ProtocolUDP, 53)
	assert.Equal(t, true, ok)
	assert.Equal(t, "dns", h.Name())
	h, ok = table.Lookup(ProtocolTCP, 53)
	assert.Equal(t, true, ok)
	assert.Equal(t, "dns-tcp", h.Name())
	_, ok = table.Lookup(ProtocolTCP, 80)
	assert.Equal(t, false, ok)

	table.Register(ProtocolTCP, 80, NewOpaque())
	h, ok = table.Lookup(ProtocolTCP, 80)
	assert.Equal(t, true, ok)
	assert.Equal(t, "opaque", h.Name())
	assert.Equal(t, 5, table.Len())
}

func TestNameTable(t *testing.T) {
	table := NewNameTable()
	table.Register("00000000DEADBEEF", NewOpaque())
	h, ok := table.Lookup("00000000deadbeef")
	assert.Equal(t, true, ok)
	assert.Equal(t, "opaque", h.Name())
	assert.Equal(t, []string{"00000000deadbeef"}, table.Keys())
}

func TestByName(t *testing.T) {
	for _, name := range []string{"opaque", "dns", "dns-tcp", "tls", "quic", "certificate"} {
		h, err := ByName(name)
		assert.Equal(t, nil, err)
		assert.IsNotNil(t, h)
	}
	_, err := ByName("smtp")
	assert.Equal(t, true, errors.Is(err, ErrUnknownDecoder))

	p, err := ParseProtocol("UDP")
	assert.Equal(t, nil, err)
	assert.Equal(t, ProtocolUDP, p)
}
