package app

import (
	"time"

	"avaneesh/dvbci-go/pkg/types"
)

// mjdEpoch is day zero of the modified Julian date
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

func decodeDateTimeEnq(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.u8("response_interval")
	return r.err
}

func decodeDateTime(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.utcTime("utc_time")
	if r.ok() && r.left() >= 2 {
		off, b, _ := r.raw("local_offset", 2)
		rec.Field("local_offset", off, 2, int16(uint16(b[0])<<8|uint16(b[1])))
	}
	return r.err
}

// utcTime reads a 16 bit MJD date followed by a 24 bit BCD time
func (r *reader) utcTime(name string) (time.Time, bool) {
	off, b, ok := r.raw(name, 5)
	if !ok {
		return time.Time{}, false
	}
	t, valid := ParseUTCTime(b)
	if !valid {
		r.rec.Advise(types.ErrInvalidValue, off+2, 3, "%s has non-BCD digits %02X%02X%02X", name, b[2], b[3], b[4])
	}
	r.rec.Field(name, off, 5, t.Format("2006-01-02 15:04:05"))
	return t, valid
}

// ParseUTCTime converts the 5 byte MJD + BCD time used across DVB. The
// second result is false if the time digits are not valid BCD.
func ParseUTCTime(b []byte) (time.Time, bool) {
	mjd := int(b[0])<<8 | int(b[1])
	hh, ok1 := bcd(b[2])
	mm, ok2 := bcd(b[3])
	ss, ok3 := bcd(b[4])
	t := mjdEpoch.AddDate(0, 0, mjd).Add(
		time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss)*time.Second)
	return t, ok1 && ok2 && ok3
}

func bcd(b byte) (int, bool) {
	hi, lo := int(b>>4), int(b&0x0F)
	return hi*10 + lo, hi <= 9 && lo <= 9
}
