package channel

import (
	"context"

	"avaneesh/dvbci-go/pkg/types"
)

// ConnectionStateListener receives notifications about connection state changes
type ConnectionStateListener interface {
	// OnConnectionEstablished is called when a capture probe connected
	OnConnectionEstablished()

	// OnConnectionLost is called when a capture probe went away
	OnConnectionLost()
}

// FrameSource delivers capture records in the order they were captured.
// Implementations exist for pcap files and for live probes feeding
// pseudo-header framed records over TCP, UDP or QUIC.
type FrameSource interface {
	// Read returns the next frame. It blocks until a frame is available,
	// the context is cancelled or the source is exhausted (io.EOF).
	Read(ctx context.Context) (types.Frame, error)

	// Close releases the source and unblocks any pending Read
	Close() error

	// Statistics returns source level statistics
	Statistics() SourceStats
}

// StateNotifier is implemented by sources that can report probe connections
type StateNotifier interface {
	SetConnectionStateListener(listener ConnectionStateListener)
}

// SourceStats provides source level statistics
type SourceStats struct {
	BytesReceived  uint64 // Total record bytes delivered
	FramesReceived uint64 // Records delivered as frames
	ReadErrors     uint64 // Reads that failed or records that were dropped
	Connects       uint64 // Probe connections (connection-oriented sources)
	Disconnects    uint64 // Probe disconnections
}

// FrameHandler consumes frames read by a Channel. A Channel calls it from a
// single goroutine, in capture order.
type FrameHandler interface {
	HandleFrame(frame types.Frame) error
}

// FrameHandlerFunc adapts a function to FrameHandler
type FrameHandlerFunc func(frame types.Frame) error

// HandleFrame calls f(frame)
func (f FrameHandlerFunc) HandleFrame(frame types.Frame) error {
	return f(frame)
}

// ChannelState represents the state of a channel
type ChannelState int

const (
	ChannelStateOpen ChannelState = iota
	ChannelStateClosed
	ChannelStateDone // Source exhausted
)

// String returns string representation of ChannelState
func (s ChannelState) String() string {
	switch s {
	case ChannelStateOpen:
		return "Open"
	case ChannelStateClosed:
		return "Closed"
	case ChannelStateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
