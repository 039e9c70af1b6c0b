package app

import (
	"net"

	"golang.org/x/net/idna"

	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/types"
)

// Low-speed communication command ids
const (
	CommsConnectOnChannel    uint8 = 0x01
	CommsDisconnectOnChannel uint8 = 0x02
	CommsSetParams           uint8 = 0x03
	CommsEnquireStatus       uint8 = 0x04
	CommsGetNextBuffer       uint8 = 0x05
	CommsGetIPConfig         uint8 = 0x06
)

// Connection descriptor types
const (
	ConnectionTelephone          uint8 = 0x01
	ConnectionCableReturnChannel uint8 = 0x02
	ConnectionIP                 uint8 = 0x03
	ConnectionHostname           uint8 = 0x04
)

const (
	ipVersion4 = 0x01
	ipVersion6 = 0x02
)

var (
	commsCommands = map[uint8]string{
		CommsConnectOnChannel:    "connect_on_channel",
		CommsDisconnectOnChannel: "disconnect_on_channel",
		CommsSetParams:           "set_params",
		CommsEnquireStatus:       "enquire_status",
		CommsGetNextBuffer:       "get_next_buffer",
		CommsGetIPConfig:         "get_ip_config",
	}
	commsReplies = map[uint8]string{
		0x01: "connect_ack",
		0x02: "disconnect_ack",
		0x03: "set_params_ack",
		0x04: "status_reply",
		0x05: "get_next_buffer_ack",
		0x06: "send_ack",
		0x07: "get_ip_config_reply",
	}
	connectionTypes = map[uint8]string{
		ConnectionTelephone:          "telephone",
		ConnectionCableReturnChannel: "cable return channel",
		ConnectionIP:                 "IP",
		ConnectionHostname:           "hostname",
	}
	ipVersions = map[uint8]string{
		ipVersion4: "IPv4",
		ipVersion6: "IPv6",
	}
)

// Endpoint is the target of a connection descriptor
type Endpoint struct {
	Protocol forward.Protocol
	Port     uint16
	Address  net.IP
	Hostname string
}

func decodeCommsCmd(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	cmdOff := m.Body.Offset()
	cmd := r.named8("comms_command_id", commsCommands)
	if !r.ok() {
		return r.err
	}

	switch cmd {
	case CommsConnectOnChannel:
		ep := r.connectionDescriptorObject()
		r.u8("retry_count")
		r.u8("timeout")
		if r.ok() && ep != nil {
			bindEndpoint(d, rec, m, cmdOff, ep)
		}
	case CommsDisconnectOnChannel:
		if m.Circuit != nil && m.Circuit.Forwarder() != nil {
			rec.Event("unbound", cmdOff, 1, m.Circuit.Forwarder().Name())
			m.Circuit.Unbind()
		}
	case CommsSetParams:
		r.u8("buffer_size")
		r.u8("timeout")
	case CommsGetNextBuffer:
		r.u8("comms_phase_id")
	}
	return r.err
}

// bindEndpoint attaches the handler registered for the endpoint's port
func bindEndpoint(d *Decoder, rec *types.Recorder, m *Message, off int, ep *Endpoint) {
	if m.Circuit == nil || ep.Protocol == 0 {
		return
	}
	h, ok := d.Ports.Lookup(ep.Protocol, ep.Port)
	if !ok {
		m.Circuit.Unbind()
		return
	}
	m.Circuit.Bind(h)
	rec.Event("bound", off, m.Length, h.Name())
}

// connectionDescriptorObject reads a nested connection_descriptor APDU
func (r *reader) connectionDescriptorObject() *Endpoint {
	off, b, ok := r.raw("connection_descriptor.tag", 3)
	if !ok {
		return nil
	}
	if tag := Tag(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])); tag != TagConnectionDescriptor {
		r.err = r.rec.Fail(types.ErrUnknownTag, off, 3, "%s where connection_descriptor expected", tag)
		return nil
	}
	n := r.length("connection_descriptor.length")
	body := r.sub("connection_descriptor", n)
	ep := body.connectionDescriptor()
	r.join(body)
	return ep
}

// decodeConnectionDescriptorAPDU decodes a connection_descriptor sent on
// its own. It does not bind a handler.
func decodeConnectionDescriptorAPDU(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.connectionDescriptor()
	return r.err
}

// connectionDescriptor decodes a connection_descriptor body. It returns nil
// for descriptor types that do not name an IP endpoint.
func (r *reader) connectionDescriptor() *Endpoint {
	typ := r.named8("connection_descriptor_type", connectionTypes)
	if !r.ok() {
		return nil
	}

	switch typ {
	case ConnectionTelephone:
		r.descriptors("telephone_descriptor", r.left())
		return nil

	case ConnectionCableReturnChannel:
		r.u8("channel_id")
		return nil

	case ConnectionIP:
		version := r.named8("ip_version", ipVersions)
		off, addr, ok := r.raw("ip_address", net.IPv6len)
		if !ok {
			return nil
		}
		ep := &Endpoint{}
		if version == ipVersion4 {
			ep.Address = net.IP(addr[12:16])
		} else {
			ep.Address = net.IP(addr)
		}
		r.rec.Field("ip_address", off, net.IPv6len, ep.Address.String())
		ep.Port = r.u16("destination_port")
		ep.Protocol = r.protocol("protocol")
		if !r.ok() {
			return nil
		}
		return ep

	case ConnectionHostname:
		ep := &Endpoint{}
		ep.Protocol = r.protocol("protocol")
		ep.Port = r.u16("destination_port")
		off, b, ok := r.raw("hostname", r.left())
		if !ok {
			return nil
		}
		ep.Hostname = string(b)
		r.rec.Field("hostname", off, len(b), ep.Hostname)
		if ascii, err := idna.Lookup.ToASCII(ep.Hostname); err != nil {
			r.rec.Advise(types.ErrInvalidValue, off, len(b), "hostname %q: %v", ep.Hostname, err)
		} else if ascii != ep.Hostname {
			r.rec.Field("hostname.ascii", off, len(b), ascii)
		}
		return ep
	}

	r.rest("connection_descriptor_data")
	return nil
}

// protocol reads a transport protocol byte
func (r *reader) protocol(name string) forward.Protocol {
	off, b, ok := r.raw(name, 1)
	if !ok {
		return 0
	}
	p := forward.Protocol(b[0])
	if p != forward.ProtocolTCP && p != forward.ProtocolUDP {
		r.rec.Advise(types.ErrInvalidValue, off, 1, "unknown transport protocol %d", b[0])
	}
	r.rec.Field(name, off, 1, p.String())
	return p
}

func decodeCommsReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("comms_reply_id", commsReplies)
	r.u8("return_value")
	return r.err
}

// decodeCommsData decodes comms_send and comms_rcv. The data is handed to
// the handler bound to the circuit, or to the opaque decoder.
func decodeCommsData(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("comms_phase_id")
	off, b, ok := r.raw("message", r.left())
	if !ok {
		return r.err
	}
	h := d.Opaque
	if d.DecodeForwardedLSC && m.Circuit != nil && m.Circuit.Forwarder() != nil {
		h = m.Circuit.Forwarder()
	}
	forwardPayload(rec, h, off, b)
	return nil
}
