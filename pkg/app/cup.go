package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

var (
	upgradeTypes = map[uint8]string{
		0x00: "delayed",
		0x01: "immediate",
	}
	upgradeAnswers = map[uint8]string{
		0x00: "no",
		0x01: "yes",
		0x02: "ask the user",
	}
	resetRequests = map[uint8]string{
		0x00: "PCMCIA reset",
		0x01: "CAM reset",
		0x02: "no reset",
	}
)

func decodeFirmwareUpgrade(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("upgrade_type", upgradeTypes)
	r.u16("download_time")
	return r.err
}

func decodeFirmwareUpgradeReply(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("answer", upgradeAnswers)
	return r.err
}

func decodeFirmwareUpgradeProgress(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	off := m.Body.Offset()
	if pct := r.u8("download_progress_status"); r.ok() && pct > 100 {
		rec.Advise(types.ErrInvalidValue, off, 1, "download progress %d%%", pct)
	}
	return r.err
}

func decodeFirmwareUpgradeComplete(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.named8("reset_request_status", resetRequests)
	return r.err
}
