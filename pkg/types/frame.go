package types

import (
	"fmt"
	"time"
)

// Frame is one capture record: the 4-byte pseudo-header followed by protocol data.
// Frames are immutable once handed to an analyzer.
type Frame struct {
	Seq       uint64    // Sequence number within the capture, non-decreasing
	Timestamp time.Time // Capture time, zero when the source has none
	Data      []byte    // Pseudo-header + payload
}

// String returns a string representation of the frame
func (f Frame) String() string {
	return fmt.Sprintf("Frame{Seq=%d, Len=%d}", f.Seq, len(f.Data))
}
