package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"avaneesh/dvbci-go/pkg/physical"
	"avaneesh/dvbci-go/pkg/types"
)

// UDPSource receives capture records from a probe over UDP, one record per
// datagram. The datagram is delivered as is; a pseudo-header length that
// disagrees with the datagram size is left for the analyzer to report.
type UDPSource struct {
	conn     *net.UDPConn
	connLock sync.RWMutex

	address     string
	pollTimeout time.Duration

	seq sequencer

	stats struct {
		bytesReceived  atomic.Uint64
		framesReceived atomic.Uint64
		readErrors     atomic.Uint64
		connects       atomic.Uint64
		disconnects    atomic.Uint64
	}

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// UDPSourceConfig configures a UDP source
type UDPSourceConfig struct {
	Address     string        // Local "host:port" to bind
	PollTimeout time.Duration // How often a blocked read checks for cancellation
}

// NewUDPSource creates a new UDP source bound to config.Address
func NewUDPSource(config UDPSourceConfig) (*UDPSource, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = 1 * time.Second
	}

	addr, err := net.ResolveUDPAddr("udp", config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address %s: %w", config.Address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", config.Address, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	us := &UDPSource{
		conn:        conn,
		address:     config.Address,
		pollTimeout: config.PollTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
	us.stats.connects.Add(1)
	return us, nil
}

// Read implements FrameSource.Read
func (us *UDPSource) Read(ctx context.Context) (types.Frame, error) {
	buffer := make([]byte, MaxRecordSize)
	for {
		select {
		case <-ctx.Done():
			return types.Frame{}, ctx.Err()
		case <-us.ctx.Done():
			return types.Frame{}, ErrSourceClosed
		default:
		}

		us.connLock.RLock()
		conn := us.conn
		us.connLock.RUnlock()
		if conn == nil {
			return types.Frame{}, ErrSourceClosed
		}

		conn.SetReadDeadline(time.Now().Add(us.pollTimeout))
		n, _, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if us.closed.Load() {
				return types.Frame{}, ErrSourceClosed
			}
			us.stats.readErrors.Add(1)
			return types.Frame{}, err
		}

		if _, err := physical.ParseHeader(buffer[:n]); err != nil {
			us.stats.readErrors.Add(1)
			continue
		}

		record := make([]byte, n)
		copy(record, buffer[:n])
		us.stats.bytesReceived.Add(uint64(n))
		us.stats.framesReceived.Add(1)
		return us.seq.next(record), nil
	}
}

// Close implements FrameSource.Close
func (us *UDPSource) Close() error {
	if !us.closed.CompareAndSwap(false, true) {
		return nil
	}

	us.cancel()

	us.connLock.Lock()
	if us.conn != nil {
		us.conn.Close()
		us.stats.disconnects.Add(1)
		us.conn = nil
	}
	us.connLock.Unlock()

	return nil
}

// Statistics implements FrameSource.Statistics
func (us *UDPSource) Statistics() SourceStats {
	return SourceStats{
		BytesReceived:  us.stats.bytesReceived.Load(),
		FramesReceived: us.stats.framesReceived.Load(),
		ReadErrors:     us.stats.readErrors.Load(),
		Connects:       us.stats.connects.Load(),
		Disconnects:    us.stats.disconnects.Load(),
	}
}

// LocalAddr returns the bound address
func (us *UDPSource) LocalAddr() net.Addr {
	us.connLock.RLock()
	defer us.connLock.RUnlock()
	if us.conn != nil {
		return us.conn.LocalAddr()
	}
	return nil
}
