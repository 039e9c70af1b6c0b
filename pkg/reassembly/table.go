// Package reassembly accumulates the fragments of one logical message.
//
// DVB-CI guarantees that fragments of a layer arrive in order and are never
// interleaved, so a Table tracks exactly one in-flight message. A new
// fragment sequence silently starts after the previous one completes.
// Out-of-order or interleaved delivery is not supported.
package reassembly

import (
	"bytes"
	"errors"
)

var ErrBufferOverflow = errors.New("dvbci.reassembly: reassembly buffer overflow")

// MaxReassemblySize bounds one reassembled message
const MaxReassemblySize = 1 << 20

// fragment is one received byte range tagged by its frame sequence number
type fragment struct {
	frameSeq uint64
	offset   int
	length   int
}

// Table reassembles one message at a time
type Table struct {
	name      string
	buffer    bytes.Buffer
	fragments []fragment
	stats     *Statistics
}

// NewTable creates a reassembly table; name identifies the layer in logs
func NewTable(name string) *Table {
	return &Table{
		name:  name,
		stats: NewStatistics(),
	}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// AddFragment appends data to the in-flight message. When last is false it
// returns nil and the caller marks the frame as "fragment, not yet
// interpretable". When last is true it returns every fragment received so far
// concatenated in arrival order and clears the state. A first fragment with
// last set is the complete message.
func (t *Table) AddFragment(frameSeq uint64, data []byte, last bool) ([]byte, error) {
	t.stats.IncrementFragments()

	if t.buffer.Len()+len(data) > MaxReassemblySize {
		t.Reset()
		t.stats.IncrementOverflows()
		return nil, ErrBufferOverflow
	}

	t.fragments = append(t.fragments, fragment{
		frameSeq: frameSeq,
		offset:   t.buffer.Len(),
		length:   len(data),
	})
	t.buffer.Write(data)

	if !last {
		return nil, nil
	}

	result := make([]byte, t.buffer.Len())
	copy(result, t.buffer.Bytes())
	t.buffer.Reset()
	t.fragments = t.fragments[:0]
	t.stats.IncrementMessages()
	return result, nil
}

// InProgress returns true if fragments are waiting for a last fragment
func (t *Table) InProgress() bool {
	return len(t.fragments) > 0
}

// Pending returns the number of bytes accumulated for the in-flight message
func (t *Table) Pending() int {
	return t.buffer.Len()
}

// FrameSeqs returns the frame sequence numbers of the in-flight fragments
func (t *Table) FrameSeqs() []uint64 {
	seqs := make([]uint64, len(t.fragments))
	for i, f := range t.fragments {
		seqs[i] = f.frameSeq
	}
	return seqs
}

// Reset drops the in-flight message
func (t *Table) Reset() {
	if len(t.fragments) > 0 {
		t.stats.IncrementAbandoned()
	}
	t.buffer.Reset()
	t.fragments = t.fragments[:0]
}

// Stats returns the table statistics
func (t *Table) Stats() *Statistics {
	return t.stats
}
