package dvbci

import "sync/atomic"

// Statistics tracks analyzer-level statistics
type Statistics struct {
	numFrames     uint64
	numRejected   uint64
	numFatal      uint64
	numAdvisories uint64
	numAPDUs      uint64
	numResets     uint64
}

func (s *Statistics) frame()           { atomic.AddUint64(&s.numFrames, 1) }
func (s *Statistics) rejected()        { atomic.AddUint64(&s.numRejected, 1) }
func (s *Statistics) fatal()           { atomic.AddUint64(&s.numFatal, 1) }
func (s *Statistics) advisories(n int) { atomic.AddUint64(&s.numAdvisories, uint64(n)) }
func (s *Statistics) apdu()            { atomic.AddUint64(&s.numAPDUs, 1) }
func (s *Statistics) sessionReset()    { atomic.AddUint64(&s.numResets, 1) }

// GetFrames returns the number of frames processed, rejected ones included
func (s *Statistics) GetFrames() uint64 {
	return atomic.LoadUint64(&s.numFrames)
}

// GetRejected returns the number of frames that were not DVB-CI records
func (s *Statistics) GetRejected() uint64 {
	return atomic.LoadUint64(&s.numRejected)
}

// GetFatal returns the number of frames whose decoding stopped on an error
func (s *Statistics) GetFatal() uint64 {
	return atomic.LoadUint64(&s.numFatal)
}

// GetAdvisories returns the number of advisory records
func (s *Statistics) GetAdvisories() uint64 {
	return atomic.LoadUint64(&s.numAdvisories)
}

// GetAPDUs returns the number of application messages decoded
func (s *Statistics) GetAPDUs() uint64 {
	return atomic.LoadUint64(&s.numAPDUs)
}

// GetSessionResets returns how often the session context was reset
func (s *Statistics) GetSessionResets() uint64 {
	return atomic.LoadUint64(&s.numResets)
}

// Reset resets all statistics
func (s *Statistics) Reset() {
	atomic.StoreUint64(&s.numFrames, 0)
	atomic.StoreUint64(&s.numRejected, 0)
	atomic.StoreUint64(&s.numFatal, 0)
	atomic.StoreUint64(&s.numAdvisories, 0)
	atomic.StoreUint64(&s.numAPDUs, 0)
	atomic.StoreUint64(&s.numResets, 0)
}
