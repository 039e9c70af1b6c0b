package app

import (
	"encoding/hex"

	"github.com/q191201771/naza/pkg/nazabits"

	"avaneesh/dvbci-go/pkg/ber"
	"avaneesh/dvbci-go/pkg/types"
)

// Content control datatype ids
const (
	DatatypeHostID         uint8 = 5
	DatatypeCICAMID        uint8 = 6
	DatatypeHostBrandCert  uint8 = 7
	DatatypeCICAMBrandCert uint8 = 8
	DatatypeKp             uint8 = 12
	DatatypeDHPH           uint8 = 13
	DatatypeDHPM           uint8 = 14
	DatatypeHostDevCert    uint8 = 15
	DatatypeCICAMDevCert   uint8 = 16
	DatatypeSignatureA     uint8 = 17
	DatatypeSignatureB     uint8 = 18
	DatatypeAuthNonce      uint8 = 19
	DatatypeNsHost         uint8 = 20
	DatatypeNsModule       uint8 = 21
	DatatypeAKH            uint8 = 22
	DatatypeAKM            uint8 = 23
	DatatypeURIMessage     uint8 = 25
	DatatypeProgramNumber  uint8 = 26
	DatatypeURIConfirm     uint8 = 27
	DatatypeKeyRegister    uint8 = 28
	DatatypeURIVersions    uint8 = 29
	DatatypeStatusField    uint8 = 30
	DatatypeSRMData        uint8 = 31
	DatatypeSRMConfirm     uint8 = 32
	DatatypeCICAMLicense   uint8 = 33
	DatatypeLicenseStatus  uint8 = 34
	DatatypeLicenseRcvd    uint8 = 35
	DatatypeHostLicense    uint8 = 36
	DatatypePlayCount      uint8 = 37
	DatatypeOperatingMode  uint8 = 38
	DatatypePINCodeData    uint8 = 39
	DatatypeRecordStart    uint8 = 40
	DatatypeModeChange     uint8 = 41
	DatatypeRecordStop     uint8 = 42
	sacSignatureSize             = 16
	sacHeaderSize                = 8
)

var datatypeNames = map[uint8]string{
	DatatypeHostID:         "Host_ID",
	DatatypeCICAMID:        "CICAM_ID",
	DatatypeHostBrandCert:  "Host_BrandCert",
	DatatypeCICAMBrandCert: "CICAM_BrandCert",
	DatatypeKp:             "Kp",
	DatatypeDHPH:           "DHPH",
	DatatypeDHPM:           "DHPM",
	DatatypeHostDevCert:    "Host_DevCert",
	DatatypeCICAMDevCert:   "CICAM_DevCert",
	DatatypeSignatureA:     "Signature_A",
	DatatypeSignatureB:     "Signature_B",
	DatatypeAuthNonce:      "auth_nonce",
	DatatypeNsHost:         "Ns_Host",
	DatatypeNsModule:       "Ns_module",
	DatatypeAKH:            "AKH",
	DatatypeAKM:            "AKM",
	DatatypeURIMessage:     "uri_message",
	DatatypeProgramNumber:  "program_number",
	DatatypeURIConfirm:     "uri_confirm",
	DatatypeKeyRegister:    "key_register",
	DatatypeURIVersions:    "uri_versions",
	DatatypeStatusField:    "status_field",
	DatatypeSRMData:        "srm_data",
	DatatypeSRMConfirm:     "srm_confirm",
	DatatypeCICAMLicense:   "cicam_license",
	DatatypeLicenseStatus:  "license_status",
	DatatypeLicenseRcvd:    "license_rcvd_status",
	DatatypeHostLicense:    "Host_license",
	DatatypePlayCount:      "play_count",
	DatatypeOperatingMode:  "operating_mode",
	DatatypePINCodeData:    "PINcode_data",
	DatatypeRecordStart:    "record_start_status",
	DatatypeModeChange:     "mode_change_status",
	DatatypeRecordStop:     "record_stop_status",
}

var (
	ccStatuses = map[uint8]string{
		0x00: "OK",
		0x01: "no CC support",
		0x02: "host busy",
		0x03: "authentication failed",
		0x04: "CICAM busy",
		0x05: "recording mode error",
	}
	keyRegisters = map[uint8]string{
		0x00: "even",
		0x01: "odd",
	}
	operatingModes = map[uint8]string{
		0x00: "watch and buffer",
		0x01: "timeshift",
		0x02: "unattended recording",
	}
	emiValues = map[uint8]string{
		0x00: "copy freely",
		0x01: "no more copies",
		0x02: "copy one generation",
		0x03: "copy never",
	}
	pinCapabilities = map[uint8]string{
		0x00: "no PIN handling",
		0x01: "CAS PIN only",
		0x02: "CAS and host PIN",
		0x03: "CAS PIN only, cached",
		0x04: "CAS and host PIN, cached",
	}
	pinStatuses = map[uint8]string{
		0x00: "bad PIN",
		0x01: "CICAM busy",
		0x02: "PIN correct",
		0x03: "PIN unconfirmed",
		0x04: "video blanking not required",
		0x05: "content still CA scrambled",
	}
)

// IsCertificate returns true for datatypes that carry an X.509 certificate
func IsCertificate(id uint8) bool {
	switch id {
	case DatatypeHostBrandCert, DatatypeCICAMBrandCert, DatatypeHostDevCert, DatatypeCICAMDevCert:
		return true
	}
	return false
}

func decodeCCOpenCnf(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("cc_system_id_bitmask")
	return r.err
}

// decodeCCData decodes cc_data_req and cc_data_cnf
func decodeCCData(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.ccData(d, m.Tag == TagCCDataReq)
	return r.err
}

func decodeCCStatus(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("status_field", ccStatuses)
	return r.err
}

// ccData reads the datatype items sent with a data request or confirm. A
// request is followed by the ids of the datatypes asked for.
func (r *reader) ccData(d *Decoder, request bool) {
	r.u8("cc_system_id_bitmask")
	n := r.u8("send_datatype_nbr")
	for i := 0; i < int(n) && r.ok(); i++ {
		r.datatypeItem(d)
	}
	if !request {
		return
	}
	k := r.u8("request_datatype_nbr")
	for i := 0; i < int(k) && r.ok(); i++ {
		r.named8("request_datatype_id", datatypeNames)
	}
}

func (r *reader) datatypeItem(d *Decoder) {
	id := r.named8("datatype_id", datatypeNames)
	n := r.u16("datatype_length")
	item := r.sub("datatype", int(n))
	defer r.join(item)
	if !item.ok() {
		return
	}

	switch id {
	case DatatypeHostBrandCert, DatatypeCICAMBrandCert, DatatypeHostDevCert, DatatypeCICAMDevCert:
		off, b, _ := item.raw("certificate", int(n))
		forwardPayload(item.rec, d.Certificates, off, b)
		return
	case DatatypeURIMessage:
		item.uriMessage()
	case DatatypeProgramNumber:
		item.u16("program_number")
	case DatatypeKeyRegister:
		item.named8("key_register", keyRegisters)
	case DatatypeStatusField, DatatypeLicenseStatus, DatatypeLicenseRcvd,
		DatatypeRecordStart, DatatypeModeChange, DatatypeRecordStop:
		item.named8(datatypeNames[id], ccStatuses)
	case DatatypeOperatingMode:
		item.named8("operating_mode", operatingModes)
	case DatatypePlayCount:
		item.u8("play_count")
	case DatatypePINCodeData:
		item.ascii("pincode", item.left())
	}
	item.rest("datatype_data")
}

// uriMessage decodes the usage rules of a uri_message item
func (r *reader) uriMessage() {
	r.u8("uri.protocol_version")
	off, b, ok := r.raw("uri.copy_control", 1)
	if !ok {
		return
	}
	br := nazabits.NewBitReader(b)
	aps, _ := br.ReadBits8(2)
	emi, _ := br.ReadBits8(2)
	ict, _ := br.ReadBits8(1)
	rct, _ := br.ReadBits8(1)
	_, _ = br.ReadBits8(1)
	dot, _ := br.ReadBits8(1)
	r.rec.Field("uri.aps_copy_control_info", off, 1, aps)
	r.rec.Field("uri.emi_copy_control_info", off, 1, lookupName(emiValues, emi))
	r.rec.Field("uri.ict_copy_control_info", off, 1, ict)
	r.rec.Field("uri.rct_copy_control_info", off, 1, rct)
	r.rec.Field("uri.dot_copy_control_info", off, 1, dot)
	if !r.empty() {
		off, b, _ := r.raw("uri.rl_copy_control_info", 1)
		r.rec.Field("uri.rl_copy_control_info", off, 1, b[0])
	}
}

// SACHeader is the clear text header of a SAC message
type SACHeader struct {
	MessageCounter  uint32
	ProtocolVersion uint8
	AuthCipher      uint8
	Encrypted       bool
	EncCipher       uint8
	PayloadLength   uint16
}

// ParseSACHeader decodes the 8 byte SAC header
func ParseSACHeader(b []byte) (*SACHeader, error) {
	if len(b) < sacHeaderSize {
		return nil, types.ErrShortBuffer
	}
	h := &SACHeader{
		MessageCounter: uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
		PayloadLength:  uint16(b[6])<<8 | uint16(b[7]),
	}
	br := nazabits.NewBitReader(b[4:6])
	h.ProtocolVersion, _ = br.ReadBits8(4)
	h.AuthCipher, _ = br.ReadBits8(3)
	flag, _ := br.ReadBits8(1)
	h.Encrypted = flag == 1
	h.EncCipher, _ = br.ReadBits8(3)
	return h, nil
}

// decodeSAC decodes the four SAC wrapped messages. The body after the
// header is decrypted and decoded as its own buffer.
func decodeSAC(d *Decoder, rec *types.Recorder, m *Message) error {
	hr := newReader(rec, m.Body)
	off, b, ok := hr.raw("sac_header", sacHeaderSize)
	if !ok {
		return hr.err
	}
	h, _ := ParseSACHeader(b)
	rec.Field("message_counter", off, 4, h.MessageCounter)
	rec.Field("protocol_version", off+4, 1, h.ProtocolVersion)
	rec.Field("authentication_cipher", off+4, 1, h.AuthCipher)
	rec.Field("payload_encryption_flag", off+4, 1, h.Encrypted)
	rec.Field("encryption_cipher", off+5, 1, h.EncCipher)
	rec.Field("payload_length", off+6, 2, h.PayloadLength)
	if !h.Encrypted {
		return rec.Fail(types.ErrNotEncrypted, off+4, 1, "%s carries a clear text body", m.Tag)
	}

	ctOff := m.Body.Offset()
	ciphertext := m.Body.Rest()
	plain, err := d.Decrypter.Decrypt(h.EncCipher, ciphertext)
	if err != nil {
		rec.Advise(types.ErrDecryptionFailure, ctOff, len(ciphertext), "%v", err)
		rec.Field("encrypted", ctOff, len(ciphertext), hex.EncodeToString(ciphertext))
		return nil
	}
	rec.Event("decrypted", ctOff, len(ciphertext), len(plain))

	srec := rec.From(types.SourceSAC)
	r := newReader(srec, ber.NewCursor(plain))
	msg := r.sub("sac_message", int(h.PayloadLength))
	switch m.Tag {
	case TagCCSACDataReq:
		msg.ccData(d, true)
	case TagCCSACDataCnf:
		msg.ccData(d, false)
	case TagCCSACSyncCnf:
		msg.named8("status_field", ccStatuses)
	}
	if msg.ok() && !msg.empty() {
		srec.Advise(types.ErrLengthMismatch, msg.c.Offset(), msg.left(), "%d bytes after SAC message", msg.left())
	}
	r.join(msg)
	if !r.ok() {
		return r.err
	}

	sigOff := r.c.Offset()
	sig := r.rest("authentication")
	if len(sig) != sacSignatureSize {
		srec.Advise(types.ErrLengthMismatch, sigOff, len(sig), "signature is %d bytes, expected %d", len(sig), sacSignatureSize)
	}
	return r.err
}

func decodePINCapabilitiesReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("capability_field", pinCapabilities)
	if r.ok() && r.left() >= 6 {
		r.utcTime("pin_change_time_utc")
		r.u8("rating")
	}
	return r.err
}

// decodePINCmd decodes cc_PIN_cmd and cc_PIN_MMI_req
func decodePINCmd(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.ascii("pincode", r.left())
	return r.err
}

func decodePINReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("pincode_status_field", pinStatuses)
	return r.err
}

func decodePINEvent(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u16("program_number")
	r.named8("pincode_status_field", pinStatuses)
	r.u8("rating")
	r.utcTime("pin_event_time_utc")
	r.u8("pin_event_time_centiseconds")
	r.rest("private_data")
	return r.err
}

func decodeOpaqueBody(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.rest("data")
	return r.err
}
