package channel

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"avaneesh/dvbci-go/pkg/types"
)

// ALPN protocol of the probe feed
const QUICNextProto = "dvbci-quic"

// QUICSource receives pseudo-header framed records over the first stream
// the probe opens on a QUIC connection. The analyzer never writes to the
// stream. In server mode it listens for the probe; in client mode it dials
// the probe and redials when the connection dies.
type QUICSource struct {
	connection *quic.Conn
	stream     *quic.Stream
	connLock   sync.RWMutex
	streamLock sync.RWMutex

	address        string
	isServer       bool
	listener       *quic.Listener
	reconnectDelay time.Duration
	readTimeout    time.Duration
	tlsConfig      *tls.Config

	stateListener     ConnectionStateListener
	stateListenerLock sync.RWMutex

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
	wg     sync.WaitGroup
	closed atomic.Bool
}

// QUICSourceConfig configures a QUIC source
type QUICSourceConfig struct {
	Address        string        // "host:port" format
	IsServer       bool          // true = listen for the probe, false = connect to it
	ReconnectDelay time.Duration // Delay between reconnection attempts (client only)
	ReadTimeout    time.Duration // Idle time after which the connection is dropped (0 = no timeout)
	TLSConfig      *tls.Config   // Optional TLS config (if nil, a self-signed cert is generated)
}

// NewQUICSource creates a new QUIC source
func NewQUICSource(config QUICSourceConfig) (*QUICSource, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = 5 * time.Second
	}

	tlsConfig := config.TLSConfig
	if tlsConfig == nil {
		var err error
		tlsConfig, err = generateTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to generate TLS config: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	qs := &QUICSource{
		address:        config.Address,
		isServer:       config.IsServer,
		reconnectDelay: config.ReconnectDelay,
		readTimeout:    config.ReadTimeout,
		tlsConfig:      tlsConfig,
		ctx:            ctx,
		cancel:         cancel,
	}

	if config.IsServer {
		if err := qs.startServer(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		if err := qs.connect(); err != nil {
			cancel()
			return nil, err
		}
	}

	return qs, nil
}

// generateTLSConfig generates a self-signed certificate for QUIC
func generateTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates:       []tls.Certificate{tlsCert},
		NextProtos:         []string{QUICNextProto},
		InsecureSkipVerify: true, // Probes use self-signed certs
	}, nil
}

// startServer starts listening for probe connections
func (qs *QUICSource) startServer() error {
	udpAddr, err := net.ResolveUDPAddr("udp", qs.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", qs.address, err)
	}

	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", qs.address, err)
	}

	listener, err := quic.Listen(udpConn, qs.tlsConfig, nil)
	if err != nil {
		udpConn.Close()
		return fmt.Errorf("failed to create QUIC listener: %w", err)
	}

	qs.listener = listener

	qs.wg.Add(1)
	go qs.acceptLoop()

	return nil
}

// acceptLoop accepts probe connections. A new connection replaces the
// current one.
func (qs *QUICSource) acceptLoop() {
	defer qs.wg.Done()

	for {
		conn, err := qs.listener.Accept(qs.ctx)
		if err != nil {
			if qs.closed.Load() || qs.ctx.Err() != nil {
				return
			}
			continue
		}

		qs.connLock.Lock()
		hadConnection := qs.connection != nil
		if qs.connection != nil {
			qs.connection.CloseWithError(0, "new connection")
			qs.stats.disconnects.Add(1)
		}
		qs.connection = conn
		qs.stats.connects.Add(1)
		qs.connLock.Unlock()

		qs.wg.Add(1)
		go qs.acceptStream(conn, hadConnection)
	}
}

// acceptStream waits for the probe to open its record stream
func (qs *QUICSource) acceptStream(conn *quic.Conn, hadConnection bool) {
	defer qs.wg.Done()

	stream, err := conn.AcceptStream(qs.ctx)
	if err != nil {
		return
	}

	qs.streamLock.Lock()
	if qs.stream != nil {
		qs.stream.CancelRead(0)
	}
	qs.stream = stream
	qs.streamLock.Unlock()

	if hadConnection {
		qs.notifyConnectionLost()
	}
	qs.notifyConnectionEstablished()
}

// dial opens a QUIC connection to the probe
func (qs *QUICSource) dial() (*quic.Conn, error) {
	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("failed to create UDP socket: %w", err)
	}

	remoteAddr, err := net.ResolveUDPAddr("udp", qs.address)
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("failed to resolve remote address %s: %w", qs.address, err)
	}

	conn, err := quic.Dial(qs.ctx, udpConn, remoteAddr, qs.tlsConfig, nil)
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", qs.address, err)
	}
	return conn, nil
}

// connect establishes a connection to the probe. The probe opens the
// record stream, so the stream is accepted in the background.
func (qs *QUICSource) connect() error {
	conn, err := qs.dial()
	if err != nil {
		return err
	}

	qs.connLock.Lock()
	qs.connection = conn
	qs.stats.connects.Add(1)
	qs.connLock.Unlock()

	qs.wg.Add(1)
	go qs.acceptStream(conn, false)

	qs.wg.Add(1)
	go qs.reconnectLoop()

	return nil
}

// reconnectLoop handles automatic reconnection for client mode
func (qs *QUICSource) reconnectLoop() {
	defer qs.wg.Done()

	for {
		select {
		case <-qs.ctx.Done():
			return
		case <-time.After(1 * time.Second):
			qs.connLock.RLock()
			conn := qs.connection
			qs.connLock.RUnlock()

			if conn != nil && conn.Context().Err() == nil {
				continue
			}

			select {
			case <-qs.ctx.Done():
				return
			case <-time.After(qs.reconnectDelay):
			}

			newConn, err := qs.dial()
			if err != nil {
				continue
			}

			qs.connLock.Lock()
			if qs.connection != nil {
				qs.connection.CloseWithError(0, "reconnecting")
			}
			qs.connection = newConn
			qs.stats.connects.Add(1)
			qs.connLock.Unlock()

			qs.wg.Add(1)
			go qs.acceptStream(newConn, false)
		}
	}
}

// Read implements FrameSource.Read
func (qs *QUICSource) Read(ctx context.Context) (types.Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return types.Frame{}, ctx.Err()
		case <-qs.ctx.Done():
			return types.Frame{}, ErrSourceClosed
		default:
		}

		var stream *quic.Stream
		for {
			qs.streamLock.RLock()
			stream = qs.stream
			qs.streamLock.RUnlock()

			if stream != nil {
				break
			}

			select {
			case <-time.After(100 * time.Millisecond):
				continue
			case <-ctx.Done():
				return types.Frame{}, ctx.Err()
			case <-qs.ctx.Done():
				return types.Frame{}, ErrSourceClosed
			}
		}

		if qs.readTimeout > 0 {
			stream.SetReadDeadline(time.Now().Add(qs.readTimeout))
		}

		record, err := ReadRecord(stream)
		if err != nil {
			qs.handleReadError(stream)
			continue
		}

		qs.stats.bytesReceived.Add(uint64(len(record)))
		qs.stats.framesReceived.Add(1)
		return qs.seq.next(record), nil
	}
}

// Close implements FrameSource.Close
func (qs *QUICSource) Close() error {
	if !qs.closed.CompareAndSwap(false, true) {
		return nil
	}

	qs.cancel()

	if qs.listener != nil {
		qs.listener.Close()
	}

	qs.streamLock.Lock()
	if qs.stream != nil {
		qs.stream.CancelRead(0)
		qs.stream = nil
	}
	qs.streamLock.Unlock()

	qs.connLock.Lock()
	if qs.connection != nil {
		qs.connection.CloseWithError(0, "source closed")
		qs.stats.disconnects.Add(1)
		qs.connection = nil
	}
	qs.connLock.Unlock()

	qs.wg.Wait()

	return nil
}

// Statistics implements FrameSource.Statistics
func (qs *QUICSource) Statistics() SourceStats {
	return SourceStats{
		BytesReceived:  qs.stats.bytesReceived.Load(),
		FramesReceived: qs.stats.framesReceived.Load(),
		ReadErrors:     qs.stats.readErrors.Load(),
		Connects:       qs.stats.connects.Load(),
		Disconnects:    qs.stats.disconnects.Load(),
	}
}

// handleReadError drops the connection that stream belongs to
func (qs *QUICSource) handleReadError(stream *quic.Stream) {
	if qs.closed.Load() {
		return
	}
	qs.stats.readErrors.Add(1)

	qs.streamLock.Lock()
	current := qs.stream == stream
	if current {
		qs.stream.CancelRead(0)
		qs.stream = nil
	}
	qs.streamLock.Unlock()
	if !current {
		return
	}

	qs.connLock.Lock()
	hadConnection := qs.connection != nil
	if qs.connection != nil {
		qs.connection.CloseWithError(0, "read error")
		qs.stats.disconnects.Add(1)
		qs.connection = nil
	}
	qs.connLock.Unlock()

	if hadConnection {
		qs.notifyConnectionLost()
	}
}

// IsConnected returns true if a probe connection is alive
func (qs *QUICSource) IsConnected() bool {
	qs.connLock.RLock()
	defer qs.connLock.RUnlock()
	return qs.connection != nil && qs.connection.Context().Err() == nil
}

// Addr returns the listening address in server mode, the probe address otherwise
func (qs *QUICSource) Addr() net.Addr {
	if qs.listener != nil {
		return qs.listener.Addr()
	}
	qs.connLock.RLock()
	defer qs.connLock.RUnlock()
	if qs.connection != nil {
		return qs.connection.RemoteAddr()
	}
	return nil
}

// SetConnectionStateListener sets a listener for connection state changes
func (qs *QUICSource) SetConnectionStateListener(listener ConnectionStateListener) {
	qs.stateListenerLock.Lock()
	defer qs.stateListenerLock.Unlock()
	qs.stateListener = listener
}

func (qs *QUICSource) notifyConnectionEstablished() {
	qs.stateListenerLock.RLock()
	listener := qs.stateListener
	qs.stateListenerLock.RUnlock()

	if listener != nil {
		listener.OnConnectionEstablished()
	}
}

func (qs *QUICSource) notifyConnectionLost() {
	qs.stateListenerLock.RLock()
	listener := qs.stateListener
	qs.stateListenerLock.RUnlock()

	if listener != nil {
		listener.OnConnectionLost()
	}
}
