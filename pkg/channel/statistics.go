package channel

import "sync/atomic"

// Statistics tracks channel-level statistics
type Statistics struct {
	numFramesRx     uint64
	numReadErrors   uint64
	numHandled      uint64
	numHandlerFails uint64
	numResets       uint64
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{}
}

// FrameRx increments frames read from the source
func (s *Statistics) FrameRx() {
	atomic.AddUint64(&s.numFramesRx, 1)
}

// ReadError increments source read errors
func (s *Statistics) ReadError() {
	atomic.AddUint64(&s.numReadErrors, 1)
}

// Handled increments frames the handler accepted
func (s *Statistics) Handled() {
	atomic.AddUint64(&s.numHandled, 1)
}

// HandlerFail increments frames the handler returned an error for
func (s *Statistics) HandlerFail() {
	atomic.AddUint64(&s.numHandlerFails, 1)
}

// SessionReset increments session resets caused by probe reconnects
func (s *Statistics) SessionReset() {
	atomic.AddUint64(&s.numResets, 1)
}

// GetFramesRx returns frames read from the source
func (s *Statistics) GetFramesRx() uint64 {
	return atomic.LoadUint64(&s.numFramesRx)
}

// GetReadErrors returns source read errors
func (s *Statistics) GetReadErrors() uint64 {
	return atomic.LoadUint64(&s.numReadErrors)
}

// GetHandled returns frames the handler accepted
func (s *Statistics) GetHandled() uint64 {
	return atomic.LoadUint64(&s.numHandled)
}

// GetHandlerFails returns frames the handler returned an error for
func (s *Statistics) GetHandlerFails() uint64 {
	return atomic.LoadUint64(&s.numHandlerFails)
}

// GetSessionResets returns session resets caused by probe reconnects
func (s *Statistics) GetSessionResets() uint64 {
	return atomic.LoadUint64(&s.numResets)
}

// Reset resets all statistics
func (s *Statistics) Reset() {
	atomic.StoreUint64(&s.numFramesRx, 0)
	atomic.StoreUint64(&s.numReadErrors, 0)
	atomic.StoreUint64(&s.numHandled, 0)
	atomic.StoreUint64(&s.numHandlerFails, 0)
	atomic.StoreUint64(&s.numResets, 0)
}
