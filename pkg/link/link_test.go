package link

import (
	"bytes"
	"errors"
	"testing"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/reassembly"
	"avaneesh/dvbci-go/pkg/types"
)

func TestParseLPDU(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantTcid   uint8
		wantMore   bool
		advisories int
	}{
		{"last", []byte{0x01, 0x00, 0xA0, 0x01, 0x01}, 1, false, 0},
		{"more", []byte{0x02, 0x80, 0xA1}, 2, true, 0},
		{"invalid flag treated as last", []byte{0x03, 0x42, 0xA0}, 3, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := types.NewRecorder(1).At(types.LayerLink)
			l, err := ParseLPDU(rec, ber.NewCursor(tt.data))
			if err != nil {
				t.Fatalf("ParseLPDU failed: %v", err)
			}
			if l.Tcid != tt.wantTcid {
				t.Errorf("Tcid = %d, want %d", l.Tcid, tt.wantTcid)
			}
			if l.More() != tt.wantMore {
				t.Errorf("More() = %v, want %v", l.More(), tt.wantMore)
			}
			if !bytes.Equal(l.Payload, tt.data[2:]) {
				t.Errorf("Payload = %X, want %X", l.Payload, tt.data[2:])
			}
			if got := rec.Count(types.RecordAdvisory); got != tt.advisories {
				t.Errorf("advisories = %d, want %d", got, tt.advisories)
			}
		})
	}
}

func TestParseLPDU_Short(t *testing.T) {
	rec := types.NewRecorder(1)
	_, err := ParseLPDU(rec, ber.NewCursor([]byte{0x01}))
	if !errors.Is(err, types.ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}

func TestReceive_SingleFragment(t *testing.T) {
	table := reassembly.NewTable("link")
	var size BufferSize
	rec := types.NewRecorder(1)

	data := []byte{0x01, 0x00, 0xA0, 0x01, 0x01}
	lpdu, tpdu, err := Receive(rec, ber.NewCursor(data), 1, table, &size)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if lpdu.Tcid != 1 {
		t.Errorf("Tcid = %d, want 1", lpdu.Tcid)
	}
	if !bytes.Equal(tpdu, data[2:]) {
		t.Errorf("TPDU = %X, want %X", tpdu, data[2:])
	}
}

func TestReceive_Reassembly(t *testing.T) {
	table := reassembly.NewTable("link")
	var size BufferSize

	frames := [][]byte{
		{0x01, 0x80, 0xA0, 0x05},
		{0x01, 0x80, 0x01, 0x90},
		{0x01, 0x00, 0x02, 0x00, 0x01},
	}
	var tpdu []byte
	for i, f := range frames {
		rec := types.NewRecorder(uint64(i + 1))
		_, out, err := Receive(rec, ber.NewCursor(f), uint64(i+1), table, &size)
		if err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
		if i < len(frames)-1 {
			if out != nil {
				t.Fatalf("Frame %d: expected fragment, got %X", i, out)
			}
			if _, ok := rec.Find(types.RecordEvent, "fragment"); !ok {
				t.Errorf("Frame %d: missing fragment event", i)
			}
			continue
		}
		if _, ok := rec.Find(types.RecordEvent, "reassembled"); !ok {
			t.Error("Last frame: missing reassembled event")
		}
		tpdu = out
	}

	want := []byte{0xA0, 0x05, 0x01, 0x90, 0x02, 0x00, 0x01}
	if !bytes.Equal(tpdu, want) {
		t.Errorf("TPDU = %X, want %X", tpdu, want)
	}
}

func TestReceive_OversizedLPDU(t *testing.T) {
	table := reassembly.NewTable("link")
	size := BufferSize{Module: 16, Host: 16, Negotiated: 16}
	rec := types.NewRecorder(1)

	data := make([]byte, 20)
	data[0] = 0x01
	_, tpdu, err := Receive(rec, ber.NewCursor(data), 1, table, &size)
	if err != nil {
		t.Fatalf("Oversized LPDU must not be rejected: %v", err)
	}
	if len(tpdu) != 18 {
		t.Errorf("TPDU len = %d, want 18", len(tpdu))
	}
	if !rec.Has(types.ErrInvalidValue) {
		t.Error("Expected oversize advisory")
	}
}

func TestBufferSize_Negotiate(t *testing.T) {
	var size BufferSize

	rec := types.NewRecorder(1)
	if err := size.Negotiate(rec, ber.NewCursor([]byte{0x04, 0x00}), types.DirectionModuleToHost); err != nil {
		t.Fatalf("Negotiate failed: %v", err)
	}
	if size.Module != 1024 || size.Negotiated != 0 {
		t.Errorf("After module proposal: %+v", size)
	}

	rec = types.NewRecorder(2)
	size.Negotiate(rec, ber.NewCursor([]byte{0x00, 0x80}), types.DirectionHostToModule)
	if size.Negotiated != 128 {
		t.Errorf("Negotiated = %d, want 128", size.Negotiated)
	}
	if rec.Count(types.RecordAdvisory) != 0 {
		t.Errorf("Unexpected advisories: %v", rec.Records())
	}
}

func TestBufferSize_NegotiateViolations(t *testing.T) {
	size := BufferSize{Module: 64}

	rec := types.NewRecorder(1)
	size.Negotiate(rec, ber.NewCursor([]byte{0x01, 0x00}), types.DirectionHostToModule)
	if rec.Count(types.RecordAdvisory) != 1 {
		t.Errorf("Host value above proposal: advisories = %d, want 1", rec.Count(types.RecordAdvisory))
	}

	rec = types.NewRecorder(2)
	size.Negotiate(rec, ber.NewCursor([]byte{0x00, 0x0F}), types.DirectionModuleToHost)
	if rec.Count(types.RecordAdvisory) != 1 {
		t.Errorf("Value below minimum: advisories = %d, want 1", rec.Count(types.RecordAdvisory))
	}

	size.Reset()
	if size.Negotiated != 0 || size.Module != 0 {
		t.Errorf("Reset left %+v", size)
	}
}
