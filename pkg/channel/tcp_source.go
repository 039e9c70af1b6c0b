package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"avaneesh/dvbci-go/pkg/types"
)

// TCPSource receives pseudo-header framed records from a capture probe over
// TCP. In server mode it listens and takes the most recent probe
// connection; in client mode it dials the probe and reconnects when the
// connection drops.
type TCPSource struct {
	// Connection
	conn     net.Conn
	connLock sync.RWMutex

	// Configuration
	address        string
	isServer       bool
	listener       net.Listener
	reconnectDelay time.Duration
	readTimeout    time.Duration

	// Connection state listener
	stateListener     ConnectionStateListener
	stateListenerLock sync.RWMutex

	seq sequencer

	// Statistics
	stats struct {
		bytesReceived  atomic.Uint64
		framesReceived atomic.Uint64
		readErrors     atomic.Uint64
		connects       atomic.Uint64
		disconnects    atomic.Uint64
	}

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// TCPSourceConfig configures a TCP source
type TCPSourceConfig struct {
	Address        string        // "host:port" format
	IsServer       bool          // true = listen for the probe, false = connect to it
	ReconnectDelay time.Duration // Delay between reconnection attempts (client only)
	ReadTimeout    time.Duration // Idle time after which the connection is dropped (0 = no timeout)
}

// NewTCPSource creates a new TCP source
func NewTCPSource(config TCPSourceConfig) (*TCPSource, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	// Set defaults
	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	ts := &TCPSource{
		address:        config.Address,
		isServer:       config.IsServer,
		reconnectDelay: config.ReconnectDelay,
		readTimeout:    config.ReadTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}

	if config.IsServer {
		if err := ts.startServer(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		if err := ts.connect(); err != nil {
			cancel()
			return nil, err
		}
	}

	return ts, nil
}

// startServer starts listening for probe connections
func (ts *TCPSource) startServer() error {
	listener, err := net.Listen("tcp", ts.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", ts.address, err)
	}

	ts.listener = listener

	ts.wg.Add(1)
	go ts.acceptLoop()

	return nil
}

// acceptLoop accepts probe connections. A new connection replaces the
// current one.
func (ts *TCPSource) acceptLoop() {
	defer ts.wg.Done()

	for {
		select {
		case <-ts.ctx.Done():
			return
		default:
		}

		// Set accept deadline to allow periodic context checks
		if tcpListener, ok := ts.listener.(*net.TCPListener); ok {
			tcpListener.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := ts.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ts.closed.Load() {
				return
			}
			continue
		}

		ts.connLock.Lock()
		hadConnection := ts.conn != nil
		if ts.conn != nil {
			ts.conn.Close()
			ts.stats.disconnects.Add(1)
		}
		ts.conn = conn
		ts.stats.connects.Add(1)
		ts.connLock.Unlock()

		if hadConnection {
			ts.notifyConnectionLost()
		}
		ts.notifyConnectionEstablished()
	}
}

// connect establishes a connection to the probe
func (ts *TCPSource) connect() error {
	conn, err := net.DialTimeout("tcp", ts.address, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", ts.address, err)
	}

	ts.connLock.Lock()
	ts.conn = conn
	ts.stats.connects.Add(1)
	ts.connLock.Unlock()

	ts.wg.Add(1)
	go ts.reconnectLoop()

	return nil
}

// reconnectLoop handles automatic reconnection for client mode
func (ts *TCPSource) reconnectLoop() {
	defer ts.wg.Done()

	for {
		select {
		case <-ts.ctx.Done():
			return
		case <-time.After(1 * time.Second):
			ts.connLock.RLock()
			conn := ts.conn
			ts.connLock.RUnlock()

			if conn != nil {
				continue
			}

			select {
			case <-ts.ctx.Done():
				return
			case <-time.After(ts.reconnectDelay):
			}

			newConn, err := net.DialTimeout("tcp", ts.address, 10*time.Second)
			if err != nil {
				continue
			}
			ts.connLock.Lock()
			ts.conn = newConn
			ts.stats.connects.Add(1)
			ts.connLock.Unlock()
			ts.notifyConnectionEstablished()
		}
	}
}

// Read implements FrameSource.Read
func (ts *TCPSource) Read(ctx context.Context) (types.Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return types.Frame{}, ctx.Err()
		case <-ts.ctx.Done():
			return types.Frame{}, ErrSourceClosed
		default:
		}

		// Wait for connection if not available
		var conn net.Conn
		for {
			ts.connLock.RLock()
			conn = ts.conn
			ts.connLock.RUnlock()

			if conn != nil {
				break
			}

			select {
			case <-time.After(100 * time.Millisecond):
				continue
			case <-ctx.Done():
				return types.Frame{}, ctx.Err()
			case <-ts.ctx.Done():
				return types.Frame{}, ErrSourceClosed
			}
		}

		if ts.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(ts.readTimeout))
		}

		record, err := ReadRecord(conn)
		if err != nil {
			// After a bad header the stream is out of sync, so the
			// connection is dropped either way
			ts.handleReadError(conn)
			continue
		}

		ts.stats.bytesReceived.Add(uint64(len(record)))
		ts.stats.framesReceived.Add(1)
		return ts.seq.next(record), nil
	}
}

// Close implements FrameSource.Close
func (ts *TCPSource) Close() error {
	if !ts.closed.CompareAndSwap(false, true) {
		return nil
	}

	ts.cancel()

	if ts.listener != nil {
		ts.listener.Close()
	}

	ts.connLock.Lock()
	if ts.conn != nil {
		ts.conn.Close()
		ts.stats.disconnects.Add(1)
		ts.conn = nil
	}
	ts.connLock.Unlock()

	ts.wg.Wait()

	return nil
}

// Statistics implements FrameSource.Statistics
func (ts *TCPSource) Statistics() SourceStats {
	return SourceStats{
		BytesReceived:  ts.stats.bytesReceived.Load(),
		FramesReceived: ts.stats.framesReceived.Load(),
		ReadErrors:     ts.stats.readErrors.Load(),
		Connects:       ts.stats.connects.Load(),
		Disconnects:    ts.stats.disconnects.Load(),
	}
}

// handleReadError drops conn if it is still the current connection
func (ts *TCPSource) handleReadError(conn net.Conn) {
	if ts.closed.Load() {
		return
	}
	ts.stats.readErrors.Add(1)

	ts.connLock.Lock()
	dropped := ts.conn == conn
	if dropped {
		ts.conn.Close()
		ts.stats.disconnects.Add(1)
		ts.conn = nil
	}
	ts.connLock.Unlock()

	if dropped {
		ts.notifyConnectionLost()
	}
}

// IsConnected returns true if a probe is connected
func (ts *TCPSource) IsConnected() bool {
	ts.connLock.RLock()
	defer ts.connLock.RUnlock()
	return ts.conn != nil
}

// Addr returns the listening address in server mode, the probe address otherwise
func (ts *TCPSource) Addr() net.Addr {
	if ts.listener != nil {
		return ts.listener.Addr()
	}
	ts.connLock.RLock()
	defer ts.connLock.RUnlock()
	if ts.conn != nil {
		return ts.conn.RemoteAddr()
	}
	return nil
}

// SetConnectionStateListener sets a listener for connection state changes
func (ts *TCPSource) SetConnectionStateListener(listener ConnectionStateListener) {
	ts.stateListenerLock.Lock()
	defer ts.stateListenerLock.Unlock()
	ts.stateListener = listener
}

func (ts *TCPSource) notifyConnectionEstablished() {
	ts.stateListenerLock.RLock()
	listener := ts.stateListener
	ts.stateListenerLock.RUnlock()

	if listener != nil {
		listener.OnConnectionEstablished()
	}
}

func (ts *TCPSource) notifyConnectionLost() {
	ts.stateListenerLock.RLock()
	listener := ts.stateListener
	ts.stateListenerLock.RUnlock()

	if listener != nil {
		listener.OnConnectionLost()
	}
}
