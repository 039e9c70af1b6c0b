package ber

import (
	"fmt"

	"avaneesh/dvbci-go/pkg/types"
)

// MaxLengthOctets bounds the long form; DVB-CI lengths never need more than 4
const MaxLengthOctets = 4

// ReadLength decodes an ASN.1 BER definite-length field at the cursor position.
// Short form: a first octet below 0x80 is the length. Long form: the low 7 bits
// give the number of big-endian length octets that follow. The indefinite form
// (0x80) is never used by DVB-CI and is rejected.
func (c *Cursor) ReadLength() (int, error) {
	start := c.Offset()
	first, err := c.ReadUint8()
	if err != nil {
		return 0, fmt.Errorf("%w. %v", types.ErrMalformedLength, err)
	}
	if first&0x80 == 0 {
		return int(first), nil
	}

	n := int(first & 0x7F)
	if n == 0 {
		return 0, fmt.Errorf("%w. indefinite length at offset %d", types.ErrMalformedLength, start)
	}
	if n > c.Len() {
		return 0, fmt.Errorf("%w. %d length octets declared, %d remaining", types.ErrMalformedLength, n, c.Len())
	}
	if n > MaxLengthOctets {
		return 0, fmt.Errorf("%w. %d length octets exceed %d", types.ErrMalformedLength, n, MaxLengthOctets)
	}

	length := 0
	for i := 0; i < n; i++ {
		b, _ := c.ReadUint8()
		length = length<<8 | int(b)
	}
	return length, nil
}

// EncodeLength returns the shortest BER definite-length encoding of n
func EncodeLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var octets []byte
	for v := n; v > 0; v >>= 8 {
		octets = append([]byte{byte(v)}, octets...)
	}
	return append([]byte{0x80 | byte(len(octets))}, octets...)
}

// LengthSize returns the number of bytes EncodeLength(n) produces
func LengthSize(n int) int {
	return len(EncodeLength(n))
}
