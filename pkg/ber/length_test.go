package ber

import (
	"errors"
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"avaneesh/dvbci-go/pkg/types"
)

func TestReadLengthShortForm(t *testing.T) {
	for v := 0; v < 0x80; v++ {
		c := NewCursor([]byte{byte(v), 0xAA})
		n, err := c.ReadLength()
		assert.Equal(t, nil, err)
		assert.Equal(t, v, n)
		assert.Equal(t, 1, c.Offset())
		assert.Equal(t, []byte{byte(v)}, EncodeLength(v))
	}
}

func TestReadLengthLongForm(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		want   int
		offset int
	}{
		{"one octet", []byte{0x81, 0xFF}, 0xFF, 2},
		{"two octets", []byte{0x82, 0x01, 0x00}, 0x100, 3},
		{"non minimal", []byte{0x82, 0x00, 0x05, 0x99}, 5, 3},
		{"three octets", []byte{0x83, 0x01, 0x00, 0x00}, 0x10000, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.in)
			n, err := c.ReadLength()
			assert.Equal(t, nil, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.offset, c.Offset())
		})
	}
}

func TestEncodeLengthRoundTrip(t *testing.T) {
	assert.Equal(t, []byte{0x81, 0xFF}, EncodeLength(0xFF))
	assert.Equal(t, []byte{0x82, 0x01, 0x00}, EncodeLength(0x100))
	for _, v := range []int{0x80, 0xFF, 0x100, 0x1234, 0xFFFF, 0x10000} {
		c := NewCursor(EncodeLength(v))
		n, err := c.ReadLength()
		assert.Equal(t, nil, err)
		assert.Equal(t, v, n)
		assert.Equal(t, true, c.Empty())
		assert.Equal(t, LengthSize(v), c.Offset())
	}
}

func TestReadLengthMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"indefinite", []byte{0x80, 0x00}},
		{"truncated long form", []byte{0x82, 0x01}},
		{"too many octets", []byte{0x85, 0x01, 0x02, 0x03, 0x04, 0x05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCursor(tt.in).ReadLength()
			assert.Equal(t, true, errors.Is(err, types.ErrMalformedLength))
		})
	}
}

func TestCursorReads(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A})
	v8, err := c.ReadUint8()
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(0x01), v8)
	v16, _ := c.ReadUint16()
	assert.Equal(t, uint16(0x0203), v16)
	v24, _ := c.ReadUint24()
	assert.Equal(t, uint32(0x040506), v24)
	sub, err := c.Sub(2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 6, sub.Offset())
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 8, c.Offset())
	_, err = c.ReadUint32()
	assert.Equal(t, true, errors.Is(err, types.ErrShortBuffer))
	assert.Equal(t, []byte{0x09, 0x0A}, c.Rest())
	assert.Equal(t, true, c.Empty())
}
