package session

import (
	"errors"
	"testing"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/circuit"
	"avaneesh/dvbci-go/pkg/types"
)

var (
	h2m = types.DirectionHostToModule
	m2h = types.DirectionModuleToHost
)

func receive(t *testing.T, circuits *circuit.Table, dir types.Direction, data ...byte) (*types.Recorder, *SPDU, *circuit.Circuit, error) {
	t.Helper()
	rec := types.NewRecorder(1).At(types.LayerSession).From(types.SourceTransport)
	s, c, err := Receive(rec, ber.NewCursor(data), dir, 1, circuits)
	return rec, s, c, err
}

func TestOpenSessionRequest(t *testing.T) {
	circuits := circuit.NewTable()
	rec, s, _, err := receive(t, circuits, m2h, 0x91, 0x04, 0x00, 0x00, 0x00, 0x01)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if s.Resource != types.ResourceID(1) {
		t.Errorf("Resource = %v, want 0x00000001", s.Resource)
	}
	ev, ok := rec.Find(types.RecordEvent, "resource_id")
	if !ok || ev.Value != "0x00000001" {
		t.Errorf("resource_id event = %v", ev)
	}
	if circuits.Len() != 0 {
		t.Error("open_session_request must not create a circuit")
	}
	if rec.Count(types.RecordAdvisory) != 0 {
		t.Errorf("Unexpected advisories: %v", rec.Records())
	}
}

func TestCircuitLifecycle(t *testing.T) {
	circuits := circuit.NewTable()

	// open_session_response OK, resource 0x00030041, session 1
	_, _, _, err := receive(t, circuits, h2m, 0x92, 0x07, 0x00, 0x00, 0x03, 0x00, 0x41, 0x00, 0x01)
	if err != nil {
		t.Fatalf("open_session_response: %v", err)
	}
	c, ok := circuits.Lookup(1)
	if !ok || c.Class() != types.ClassConditionalAccess {
		t.Fatalf("Circuit = %v, %v", c, ok)
	}

	// session_number routes the payload to the circuit
	_, s, got, err := receive(t, circuits, m2h, 0x90, 0x02, 0x00, 0x01, 0x9F, 0x80, 0x30, 0x00)
	if err != nil {
		t.Fatalf("session_number: %v", err)
	}
	if got != c {
		t.Errorf("session_number resolved %v, want %v", got, c)
	}
	if s.Payload.Len() != 4 || s.Payload.Offset() != 4 {
		t.Errorf("Payload len=%d offset=%d", s.Payload.Len(), s.Payload.Offset())
	}

	// close_session_response with an error status keeps the circuit
	receive(t, circuits, m2h, 0x96, 0x03, 0xF0, 0x00, 0x01)
	if circuits.Len() != 1 {
		t.Fatal("Failed close must keep the circuit")
	}

	_, _, _, err = receive(t, circuits, m2h, 0x96, 0x03, 0x00, 0x00, 0x01)
	if err != nil {
		t.Fatalf("close_session_response: %v", err)
	}
	if circuits.Len() != 0 {
		t.Error("Successful close must remove the circuit")
	}
}

func TestCreateSessionResponseFailure(t *testing.T) {
	circuits := circuit.NewTable()
	_, s, _, err := receive(t, circuits, m2h, 0x94, 0x07, 0xF1, 0x00, 0x60, 0x00, 0x41, 0x00, 0x05)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if s.SessionNumber != 5 {
		t.Errorf("SessionNumber = %d, want 5", s.SessionNumber)
	}
	if circuits.Len() != 0 {
		t.Error("Non-zero status must not create a circuit")
	}
}

func TestReopenLiveSession(t *testing.T) {
	circuits := circuit.NewTable()
	receive(t, circuits, m2h, 0x94, 0x07, 0x00, 0x00, 0x60, 0x00, 0x41, 0x00, 0x05)
	rec, _, _, _ := receive(t, circuits, m2h, 0x94, 0x07, 0x00, 0x00, 0x96, 0x00, 0x41, 0x00, 0x05)
	if !rec.Has(types.ErrInvalidValue) {
		t.Error("Reopening a live session must be flagged")
	}
	c, _ := circuits.Lookup(5)
	if c.Class() != types.ClassSpecificAppSupport {
		t.Errorf("Class = %v, want the new resource", c.Class())
	}
}

func TestSessionNumberWithoutCircuit(t *testing.T) {
	circuits := circuit.NewTable()
	_, s, c, err := receive(t, circuits, h2m, 0x90, 0x02, 0x00, 0x09, 0x9F, 0x80, 0x10, 0x00)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if c != nil {
		t.Errorf("Expected no circuit, got %v", c)
	}
	if s.Payload == nil || s.Payload.Len() != 4 {
		t.Error("Payload must still be handed up")
	}
}

func TestLengthMismatchIsFatal(t *testing.T) {
	circuits := circuit.NewTable()
	rec, _, _, err := receive(t, circuits, m2h, 0x91, 0x05, 0x00, 0x00, 0x00, 0x01, 0x00)
	if !errors.Is(err, types.ErrLengthMismatch) {
		t.Fatalf("Expected ErrLengthMismatch, got %v", err)
	}
	if rec.Count(types.RecordError) != 1 {
		t.Errorf("Expected one error record, got %d", rec.Count(types.RecordError))
	}

	_, _, _, err = receive(t, circuits, h2m, 0x92, 0x07, 0x00, 0x00, 0x03)
	if !errors.Is(err, types.ErrLengthMismatch) {
		t.Errorf("Truncated body: expected ErrLengthMismatch, got %v", err)
	}
}

func TestDirectionViolationIsAdvisory(t *testing.T) {
	circuits := circuit.NewTable()
	rec, _, _, err := receive(t, circuits, h2m, 0x91, 0x04, 0x00, 0x00, 0x00, 0x01)
	if err != nil {
		t.Fatalf("Direction violation must not be fatal: %v", err)
	}
	if !rec.Has(types.ErrDirectionViolation) {
		t.Error("Expected direction advisory")
	}
}

func TestUnknownTag(t *testing.T) {
	circuits := circuit.NewTable()
	_, _, _, err := receive(t, circuits, h2m, 0x97, 0x00)
	if !errors.Is(err, types.ErrUnknownTag) {
		t.Errorf("Expected ErrUnknownTag, got %v", err)
	}
}

func TestPrivateResource(t *testing.T) {
	circuits := circuit.NewTable()
	rec, s, _, err := receive(t, circuits, m2h, 0x91, 0x04, 0xC0, 0x10, 0x00, 0x01)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !s.Resource.IsPrivate() {
		t.Error("Expected private resource")
	}
	if f, ok := rec.Find(types.RecordField, "resource.definer"); !ok || f.Value != uint16(0x001) {
		t.Errorf("definer = %v", f.Value)
	}
}
