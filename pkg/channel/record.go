package channel

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/q191201771/naza/pkg/bele"

	"avaneesh/dvbci-go/pkg/physical"
	"avaneesh/dvbci-go/pkg/types"
)

var (
	ErrSourceClosed = errors.New("dvbci.channel: source closed")
	ErrBadRecord    = errors.New("dvbci.channel: not a pseudo-header framed record")
)

// MaxRecordSize is the largest record a probe can send: the pseudo-header
// plus a payload of at most 65535 bytes
const MaxRecordSize = physical.HeaderSize + 0xFFFF

// ReadRecord reads one pseudo-header framed record from a byte stream. The
// record boundary comes from the length field of the pseudo-header, so a
// header that does not parse leaves the stream out of sync.
func ReadRecord(r io.Reader) ([]byte, error) {
	header := make([]byte, physical.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if _, err := physical.ParseHeader(header); err != nil {
		return nil, fmt.Errorf("%w. %v", ErrBadRecord, err)
	}

	length := int(bele.BeUint16(header[2:]))
	record := make([]byte, physical.HeaderSize+length)
	copy(record, header)
	if length > 0 {
		if _, err := io.ReadFull(r, record[physical.HeaderSize:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return record, nil
}

// sequencer numbers frames of live sources. Live records carry no capture
// timestamp, the arrival time is used instead.
type sequencer struct {
	seq atomic.Uint64
}

func (s *sequencer) next(data []byte) types.Frame {
	return types.Frame{
		Seq:       s.seq.Add(1),
		Timestamp: time.Now(),
		Data:      data,
	}
}
