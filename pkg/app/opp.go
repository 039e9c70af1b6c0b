package app

import (
	"github.com/q191201771/naza/pkg/nazabits"

	"avaneesh/dvbci-go/pkg/types"
)

var (
	profileTypes = map[uint8]string{
		0x00: "profiled operation not supported",
		0x01: "profiled operation",
	}
	refreshRequests = map[uint8]string{
		0x00: "none",
		0x01: "advance warning",
		0x02: "urgent",
		0x03: "scheduled",
	}
	operatorErrors = map[uint8]string{
		0x00: "no error",
		0x01: "unsupported delivery system",
		0x02: "cancelled",
	}
	tuneStatusValues = map[uint8]string{
		0x00: "OK",
		0x01: "unsupported delivery system",
		0x02: "invalid descriptor",
		0x03: "tuner failure",
	}
)

// decodeOperatorStatus decodes operator_status and operator_search_status
func decodeOperatorStatus(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off, b, ok := r.raw("operator_status", 3)
	if !ok {
		return r.err
	}
	br := nazabits.NewBitReader(b)
	infoVersion, _ := br.ReadBits8(3)
	nitVersion, _ := br.ReadBits8(5)
	profileType, _ := br.ReadBits8(2)
	initialised, _ := br.ReadBits8(1)
	entitlementChange, _ := br.ReadBits8(1)
	entitlementValid, _ := br.ReadBits8(1)
	refresh, _ := br.ReadBits8(2)
	errFlag, _ := br.ReadBits8(4)
	_, _ = br.ReadBits8(1)
	hint, _ := br.ReadBits8(4)

	rec.Field("info_version", off, 1, infoVersion)
	rec.Field("nit_version", off, 1, nitVersion)
	rec.Field("profile_type", off+1, 1, lookupName(profileTypes, profileType))
	rec.Field("initialised_flag", off+1, 1, initialised == 1)
	rec.Field("entitlement_change_flag", off+1, 1, entitlementChange == 1)
	rec.Field("entitlement_valid_flag", off+1, 1, entitlementValid == 1)
	rec.Field("refresh_request_flag", off+1, 1, lookupName(refreshRequests, refresh))
	rec.Field("error_flag", off+1, 2, lookupName(operatorErrors, errFlag))
	rec.Field("delivery_system_hint", off+2, 1, hint)
	r.u16("refresh_request_date")
	r.u8("refresh_request_time")
	return r.err
}

func decodeOperatorNIT(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	n := r.u16("nit_loop_length")
	r.bytes("nit_section", int(n))
	return r.err
}

func decodeOperatorInfo(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off, b, ok := r.raw("info_valid", 1)
	if !ok {
		return r.err
	}
	valid := b[0]&0x08 != 0
	rec.Field("info_valid", off, 1, valid)
	rec.Field("info_version", off, 1, b[0]&0x07)
	if !valid || r.empty() {
		return r.err
	}
	r.hex16("cicam_original_network_id")
	r.hex32("cicam_identifier")
	r.u8("character_code_table")
	r.rest("operator_info_data")
	return r.err
}

func decodeOperatorSearchStart(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off, b, ok := r.raw("unattended_flag", 1)
	if !ok {
		return r.err
	}
	rec.Field("unattended_flag", off, 1, b[0]&0x80 != 0)
	services := int(b[0] & 0x7F)
	rec.Field("service_type_loop_length", off, 1, services)
	for i := 0; i < services && r.ok(); i++ {
		r.u8("service_type")
	}
	n := r.u8("delivery_capability_loop_length")
	r.bytes("delivery_capability", int(n))
	n = r.u8("application_capability_loop_length")
	apps := r.sub("application_capability", int(n))
	for !apps.empty() {
		apps.hex16("application_capability")
	}
	r.join(apps)
	return r.err
}

func decodeOperatorTune(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	n := r.length12("descriptor_loop_length")
	r.descriptors("descriptors", n)
	return r.err
}

func decodeOperatorTuneStatus(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("descriptor_number")
	r.u8("signal_strength")
	r.u8("signal_quality")
	r.named8("status", tuneStatusValues)
	n := r.length12("descriptor_loop_length")
	r.descriptors("descriptors", n)
	return r.err
}
