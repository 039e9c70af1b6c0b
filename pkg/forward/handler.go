// Package forward holds the sub-protocol decoders that DVB-CI sessions hand
// their payloads to: protocols tunnelled over low-speed communication
// circuits, specific application support messages, and certificate data
// items carried by content control.
package forward

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"avaneesh/dvbci-go/pkg/types"
)

var (
	ErrUnknownDecoder = errors.New("dvbci.forward: unknown decoder name")
	ErrUnknownProto   = errors.New("dvbci.forward: unknown transport protocol")
)

// Handler decodes a forwarded payload. Records are written with offsets
// relative to the start of payload.
type Handler interface {
	Name() string
	Decode(rec *types.Recorder, payload []byte) error
}

// Protocol is the transport protocol of a low-speed communication connection
type Protocol uint8

const (
	ProtocolTCP Protocol = 1
	ProtocolUDP Protocol = 2
)

// String returns string representation of Protocol
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	default:
		return fmt.Sprintf("proto(%d)", uint8(p))
	}
}

// ParseProtocol maps "tcp"/"udp" to a Protocol
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(s) {
	case "tcp":
		return ProtocolTCP, nil
	case "udp":
		return ProtocolUDP, nil
	default:
		return 0, fmt.Errorf("%w. proto=%s", ErrUnknownProto, s)
	}
}

type portKey struct {
	proto Protocol
	port  uint16
}

// PortTable resolves a handler from a transport protocol and port
type PortTable struct {
	mu       sync.RWMutex
	handlers map[portKey]Handler
}

// NewPortTable creates an empty port table
func NewPortTable() *PortTable {
	return &PortTable{
		handlers: make(map[portKey]Handler),
	}
}

// DefaultPortTable returns a port table with the built-in decoders registered
func DefaultPortTable() *PortTable {
	t := NewPortTable()
	t.Register(ProtocolUDP, 53, NewDNS(false))
	t.Register(ProtocolTCP, 53, NewDNS(true))
	t.Register(ProtocolTCP, 443, NewTLS())
	t.Register(ProtocolUDP, 443, NewQUIC())
	return t
}

// Register binds h to proto/port, replacing any previous handler
func (t *PortTable) Register(proto Protocol, port uint16, h Handler) {
	t.mu.Lock()
	t.handlers[portKey{proto, port}] = h
	t.mu.Unlock()
}

// Lookup returns the handler registered for proto/port
func (t *PortTable) Lookup(proto Protocol, port uint16) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[portKey{proto, port}]
	return h, ok
}

// Len returns the number of registered ports
func (t *PortTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

// NameTable resolves a handler from a string key, such as a specific
// application support application id
type NameTable struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewNameTable creates an empty name table
func NewNameTable() *NameTable {
	return &NameTable{
		handlers: make(map[string]Handler),
	}
}

// Register binds h to key. Keys are compared case-insensitively.
func (t *NameTable) Register(key string, h Handler) {
	t.mu.Lock()
	t.handlers[strings.ToLower(key)] = h
	t.mu.Unlock()
}

// Lookup returns the handler registered for key
func (t *NameTable) Lookup(key string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[strings.ToLower(key)]
	return h, ok
}

// Keys returns the registered keys in sorted order
func (t *NameTable) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.handlers))
	for k := range t.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ByName returns a new built-in handler for a decoder name used in
// configuration files
func ByName(name string) (Handler, error) {
	switch strings.ToLower(name) {
	case "opaque", "data":
		return NewOpaque(), nil
	case "dns", "dns-udp":
		return NewDNS(false), nil
	case "dns-tcp":
		return NewDNS(true), nil
	case "tls":
		return NewTLS(), nil
	case "quic":
		return NewQUIC(), nil
	case "certificate", "x509":
		return NewCertificate(), nil
	default:
		return nil, fmt.Errorf("%w. name=%s", ErrUnknownDecoder, name)
	}
}
