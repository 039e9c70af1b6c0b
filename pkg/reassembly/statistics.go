package reassembly

import (
	"sync/atomic"
	"time"
)

// Statistics tracks reassembly metrics
type Statistics struct {
	Fragments uint64
	Messages  uint64
	Abandoned uint64
	Overflows uint64

	// Stored as Unix nano for atomic operations
	lastMessageNano int64
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{}
}

// IncrementFragments increments received fragment count
func (s *Statistics) IncrementFragments() {
	atomic.AddUint64(&s.Fragments, 1)
}

// IncrementMessages increments completed message count
func (s *Statistics) IncrementMessages() {
	atomic.AddUint64(&s.Messages, 1)
	atomic.StoreInt64(&s.lastMessageNano, time.Now().UnixNano())
}

// IncrementAbandoned increments the count of in-flight messages dropped by Reset
func (s *Statistics) IncrementAbandoned() {
	atomic.AddUint64(&s.Abandoned, 1)
}

// IncrementOverflows increments buffer overflow count
func (s *Statistics) IncrementOverflows() {
	atomic.AddUint64(&s.Overflows, 1)
}

// GetFragments returns received fragment count
func (s *Statistics) GetFragments() uint64 {
	return atomic.LoadUint64(&s.Fragments)
}

// GetMessages returns completed message count
func (s *Statistics) GetMessages() uint64 {
	return atomic.LoadUint64(&s.Messages)
}

// GetAbandoned returns abandoned message count
func (s *Statistics) GetAbandoned() uint64 {
	return atomic.LoadUint64(&s.Abandoned)
}

// GetOverflows returns buffer overflow count
func (s *Statistics) GetOverflows() uint64 {
	return atomic.LoadUint64(&s.Overflows)
}

// GetLastMessageTime returns when the last message completed
func (s *Statistics) GetLastMessageTime() time.Time {
	nano := atomic.LoadInt64(&s.lastMessageNano)
	if nano == 0 {
		return time.Time{}
	}
	return time.Unix(0, nano)
}

// Reset resets all statistics to zero
func (s *Statistics) Reset() {
	atomic.StoreUint64(&s.Fragments, 0)
	atomic.StoreUint64(&s.Messages, 0)
	atomic.StoreUint64(&s.Abandoned, 0)
	atomic.StoreUint64(&s.Overflows, 0)
	atomic.StoreInt64(&s.lastMessageNano, 0)
}
