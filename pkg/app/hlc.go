package app

import (
	"avaneesh/dvbci-go/pkg/types"
)

func decodeCountry(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.ascii("iso_3166_country_code", 3)
	return r.err
}

func decodeLanguage(d *Decoder, rec *types.Recorder, m *Message) error {
	r := newReader(rec, m.Body)
	r.ascii("iso_639_language_code", 3)
	return r.err
}
