package dvbci

import (
	"avaneesh/dvbci-go/pkg/circuit"
	"avaneesh/dvbci-go/pkg/link"
	"avaneesh/dvbci-go/pkg/reassembly"
)

// SessionContext is the state one capture accumulates across frames: the
// negotiated link buffer size, one reassembly table per layer and the
// circuit table. It is created at the start of a capture and reset when
// the module is removed or powered off.
type SessionContext struct {
	BufferSize     link.BufferSize
	LinkTable      *reassembly.Table
	TransportTable *reassembly.Table
	Circuits       *circuit.Table
}

// NewSessionContext creates the state for a new capture
func NewSessionContext() *SessionContext {
	return &SessionContext{
		LinkTable:      reassembly.NewTable("link"),
		TransportTable: reassembly.NewTable("transport"),
		Circuits:       circuit.NewTable(),
	}
}

// Reset discards all state. A message that was being reassembled is
// abandoned and every circuit is dropped.
func (s *SessionContext) Reset() {
	s.BufferSize.Reset()
	s.LinkTable.Reset()
	s.TransportTable.Reset()
	s.Circuits.Reset()
}
