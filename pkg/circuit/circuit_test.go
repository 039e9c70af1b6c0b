package circuit

import (
	"testing"

	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/types"
)

const lscResource = types.ResourceID(0x00600041)

func TestTable_CreateLookupClose(t *testing.T) {
	table := NewTable()

	c, replaced := table.Create(3, lscResource, 10)
	if replaced != nil {
		t.Fatalf("Expected no replaced circuit, got %v", replaced)
	}
	if c.Class() != types.ClassLowSpeedComms {
		t.Errorf("Class = %v, want %v", c.Class(), types.ClassLowSpeedComms)
	}
	if c.Version() != 1 {
		t.Errorf("Version = %d, want 1", c.Version())
	}

	got, ok := table.Lookup(3)
	if !ok || got != c {
		t.Fatalf("Lookup(3) = %v, %v", got, ok)
	}

	if _, ok := table.Lookup(4); ok {
		t.Error("Lookup of unknown session should fail")
	}

	closed, ok := table.Close(3)
	if !ok || closed != c {
		t.Fatalf("Close(3) = %v, %v", closed, ok)
	}
	if table.Len() != 0 {
		t.Errorf("Len = %d, want 0", table.Len())
	}
	if _, ok := table.Close(3); ok {
		t.Error("Second close should fail")
	}
}

func TestTable_CreateReplacesLiveSession(t *testing.T) {
	table := NewTable()
	first, _ := table.Create(1, types.ResourceID(0x00010041), 1)
	second, replaced := table.Create(1, types.ResourceID(0x00020041), 2)

	if replaced != first {
		t.Errorf("Expected first circuit to be replaced")
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
	got, _ := table.Lookup(1)
	if got != second || got.Resource != types.ResourceID(0x00020041) {
		t.Errorf("Lookup returned %v", got)
	}
}

func TestCircuit_BindUnbind(t *testing.T) {
	table := NewTable()
	c, _ := table.Create(7, lscResource, 1)

	if c.Forwarder() != nil {
		t.Fatal("New circuit must not have a forwarder")
	}
	h := forward.NewOpaque()
	c.Bind(h)
	if c.Forwarder() != h {
		t.Error("Bind did not attach handler")
	}
	c.Unbind()
	if c.Forwarder() != nil {
		t.Error("Unbind did not detach handler")
	}
}

func TestTable_SessionNumbersAndReset(t *testing.T) {
	table := NewTable()
	table.Create(5, lscResource, 1)
	table.Create(2, lscResource, 2)
	table.Create(9, lscResource, 3)

	sns := table.SessionNumbers()
	want := []uint16{2, 5, 9}
	for i := range want {
		if sns[i] != want[i] {
			t.Fatalf("SessionNumbers = %v, want %v", sns, want)
		}
	}
	if table.Created() != 3 {
		t.Errorf("Created = %d, want 3", table.Created())
	}

	table.Reset()
	if table.Len() != 0 || table.Created() != 0 {
		t.Errorf("Reset left %d circuits, created=%d", table.Len(), table.Created())
	}
}
