package app

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Character tables selected by the first byte of a DVB string
var singleByteTables = map[byte]encoding.Encoding{
	0x01: charmap.ISO8859_5,
	0x02: charmap.ISO8859_6,
	0x03: charmap.ISO8859_7,
	0x04: charmap.ISO8859_8,
	0x05: charmap.ISO8859_9,
	0x06: charmap.ISO8859_10,
	0x07: charmap.Windows874,
	0x09: charmap.ISO8859_13,
	0x0A: charmap.ISO8859_14,
	0x0B: charmap.ISO8859_15,
}

var iso8859Tables = map[byte]encoding.Encoding{
	0x01: charmap.ISO8859_1,
	0x02: charmap.ISO8859_2,
	0x03: charmap.ISO8859_3,
	0x04: charmap.ISO8859_4,
	0x05: charmap.ISO8859_5,
	0x06: charmap.ISO8859_6,
	0x07: charmap.ISO8859_7,
	0x08: charmap.ISO8859_8,
	0x09: charmap.ISO8859_9,
	0x0A: charmap.ISO8859_10,
	0x0B: charmap.Windows874,
	0x0D: charmap.ISO8859_13,
	0x0E: charmap.ISO8859_14,
	0x0F: charmap.ISO8859_15,
}

// DecodeText converts a DVB string to UTF-8. Strings without a table
// selector use the default table, approximated by ISO 8859-1.
func DecodeText(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	var enc encoding.Encoding = charmap.ISO8859_1
	body := b
	switch sel := b[0]; {
	case sel >= 0x20:
	case sel == 0x10:
		if len(b) < 3 {
			return ""
		}
		if e, ok := iso8859Tables[b[2]]; ok && b[1] == 0x00 {
			enc = e
		}
		body = b[3:]
	case sel == 0x11:
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		body = b[1:]
	case sel == 0x13:
		enc = simplifiedchinese.GBK
		body = b[1:]
	case sel == 0x14:
		enc = traditionalchinese.Big5
		body = b[1:]
	case sel == 0x15:
		enc = nil
		body = b[1:]
	case sel == 0x1F:
		// encoding_type_id follows; the table it names is not carried here
		if len(b) < 2 {
			return ""
		}
		body = b[2:]
	default:
		if e, ok := singleByteTables[sel]; ok {
			enc = e
		}
		body = b[1:]
	}

	var s string
	if enc == nil {
		s = strings.ToValidUTF8(string(body), string(utf8.RuneError))
	} else {
		out, err := enc.NewDecoder().Bytes(body)
		if err != nil {
			s = strings.ToValidUTF8(string(body), string(utf8.RuneError))
		} else {
			s = string(out)
		}
	}
	return stripControlCodes(s)
}

// stripControlCodes maps the DVB CR/LF control code to a newline and drops
// the emphasis on/off codes
func stripControlCodes(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x8A:
			return '\n'
		case r == 0x86 || r == 0x87:
			return -1
		case r == 0x00:
			return -1
		}
		return r
	}, s)
}
