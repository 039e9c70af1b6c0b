// Package circuit tracks DVB-CI sessions. A Circuit binds a session number
// to the resource id negotiated when the session opened and, for low-speed
// communication and specific application support sessions, to the handler
// that decodes the payloads those sessions carry.
package circuit

import (
	"fmt"
	"sort"

	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/types"
)

// Circuit is one live session
type Circuit struct {
	SessionNumber uint16
	Resource      types.ResourceID
	OpenedAt      uint64 // Frame sequence number of the successful open/create response

	forwarder forward.Handler
}

// Class returns the resource class bound to the circuit
func (c *Circuit) Class() types.ResourceClass {
	return c.Resource.Class()
}

// Version returns the resource version bound to the circuit
func (c *Circuit) Version() uint8 {
	return c.Resource.Version()
}

// Bind attaches a forwarded sub-protocol handler
func (c *Circuit) Bind(h forward.Handler) {
	c.forwarder = h
}

// Unbind detaches the forwarded sub-protocol handler
func (c *Circuit) Unbind() {
	c.forwarder = nil
}

// Forwarder returns the bound handler, or nil
func (c *Circuit) Forwarder() forward.Handler {
	return c.forwarder
}

// String returns a string representation of the circuit
func (c *Circuit) String() string {
	s := fmt.Sprintf("Circuit{Session=%d, Resource=%s", c.SessionNumber, c.Resource)
	if c.forwarder != nil {
		s += ", Forward=" + c.forwarder.Name()
	}
	return s + "}"
}

// Table maps session numbers to live circuits. It is not safe for
// concurrent use; one Table belongs to one capture.
type Table struct {
	circuits map[uint16]*Circuit
	created  uint64
	closed   uint64
}

// NewTable creates an empty circuit table
func NewTable() *Table {
	return &Table{
		circuits: make(map[uint16]*Circuit),
	}
}

// Create binds resource to sessionNumber. If a circuit was already live for
// that number it is replaced and returned so the caller can report it.
func (t *Table) Create(sessionNumber uint16, resource types.ResourceID, frameSeq uint64) (c *Circuit, replaced *Circuit) {
	replaced = t.circuits[sessionNumber]
	c = &Circuit{
		SessionNumber: sessionNumber,
		Resource:      resource,
		OpenedAt:      frameSeq,
	}
	t.circuits[sessionNumber] = c
	t.created++
	return c, replaced
}

// Lookup returns the live circuit for sessionNumber
func (t *Table) Lookup(sessionNumber uint16) (*Circuit, bool) {
	c, ok := t.circuits[sessionNumber]
	return c, ok
}

// Close removes and returns the circuit for sessionNumber
func (t *Table) Close(sessionNumber uint16) (*Circuit, bool) {
	c, ok := t.circuits[sessionNumber]
	if !ok {
		return nil, false
	}
	delete(t.circuits, sessionNumber)
	t.closed++
	return c, true
}

// Len returns the number of live circuits
func (t *Table) Len() int {
	return len(t.circuits)
}

// SessionNumbers returns the live session numbers in ascending order
func (t *Table) SessionNumbers() []uint16 {
	out := make([]uint16, 0, len(t.circuits))
	for sn := range t.circuits {
		out = append(out, sn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Created returns how many circuits were created since the last Reset
func (t *Table) Created() uint64 {
	return t.created
}

// Closed returns how many circuits were closed since the last Reset
func (t *Table) Closed() uint64 {
	return t.closed
}

// Reset drops every circuit
func (t *Table) Reset() {
	t.circuits = make(map[uint16]*Circuit)
	t.created = 0
	t.closed = 0
}
