package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

var applicationTypes = map[uint8]string{
	0x01: "conditional access",
	0x02: "electronic programme guide",
	0x03: "software upgrade",
	0x04: "network interface",
	0x05: "access aids",
	0x06: "unclassified",
}

var dataRates = map[uint8]string{
	0x00: "72 Mbit/s",
	0x01: "96 Mbit/s",
}

func decodeAppInfo(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("application_type", applicationTypes)
	r.hex16("application_manufacturer")
	r.hex16("manufacturer_code")
	n := r.u8("menu_string_length")
	r.text("menu_string", int(n))
	return r.err
}

func decodeDataRateInfo(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("data_rate", dataRates)
	return r.err
}
