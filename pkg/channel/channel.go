package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"avaneesh/dvbci-go/pkg/internal/logger"
)

var (
	ErrChannelClosed = errors.New("channel is closed")
	ErrChannelOpen   = errors.New("channel is already open")
)

// SessionResetter is implemented by handlers that keep per-module state and
// must start over when a new probe connection begins a new capture
type SessionResetter interface {
	ResetSession()
}

// Channel reads frames from one source and hands them to one handler. All
// frames are processed by a single goroutine, in the order the source
// delivers them.
type Channel struct {
	id      string
	source  FrameSource
	handler FrameHandler
	stats   *Statistics
	logger  logger.Logger

	// State
	state   ChannelState
	stateMu sync.RWMutex
	done    chan struct{}
	lastErr error

	// Concurrency
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new channel
func New(id string, source FrameSource, handler FrameHandler, log logger.Logger) *Channel {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Channel{
		id:      id,
		source:  source,
		handler: handler,
		stats:   NewStatistics(),
		logger:  log,
		state:   ChannelStateClosed,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	if n, ok := source.(StateNotifier); ok {
		n.SetConnectionStateListener(c)
	}
	return c
}

// ID returns the channel ID
func (c *Channel) ID() string {
	return c.id
}

// Open starts the read loop
func (c *Channel) Open() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state == ChannelStateOpen {
		return ErrChannelOpen
	}
	// A finished read loop has already closed done; a channel runs once
	if c.state == ChannelStateDone || c.ctx.Err() != nil {
		return ErrChannelClosed
	}

	c.state = ChannelStateOpen
	c.logger.Info("Channel %s opening", c.id)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		c.readLoop()
	}()

	c.logger.Info("Channel %s opened", c.id)
	return nil
}

// Close stops the read loop and closes the source
func (c *Channel) Close() error {
	c.stateMu.Lock()
	if c.state == ChannelStateClosed {
		c.stateMu.Unlock()
		return nil
	}
	c.state = ChannelStateClosed
	c.stateMu.Unlock()

	c.logger.Info("Channel %s closing", c.id)

	c.cancel()

	if err := c.source.Close(); err != nil {
		c.logger.Error("Error closing source: %v", err)
	}

	c.wg.Wait()

	c.logger.Info("Channel %s closed", c.id)
	return nil
}

// Done is closed once the read loop ended, because the source is exhausted
// or the channel was closed
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the read loop, nil on a clean end of capture
func (c *Channel) Err() error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastErr
}

// readLoop reads frames until the source is exhausted or the channel closes
func (c *Channel) readLoop() {
	c.logger.Debug("Channel %s read loop started", c.id)
	defer c.logger.Debug("Channel %s read loop stopped", c.id)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		frame, err := c.source.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.stats.ReadError()
			c.finish(err)
			return
		}

		c.stats.FrameRx()
		if err := c.handler.HandleFrame(frame); err != nil {
			c.stats.HandlerFail()
			c.logger.Debug("Channel %s frame %d: %v", c.id, frame.Seq, err)
			continue
		}
		c.stats.Handled()
	}
}

func (c *Channel) finish(err error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if errors.Is(err, io.EOF) {
		c.logger.Info("Channel %s end of capture", c.id)
	} else {
		c.logger.Error("Channel %s read error: %v", c.id, err)
		c.lastErr = err
	}
	if c.state == ChannelStateOpen {
		c.state = ChannelStateDone
	}
}

// OnConnectionEstablished implements ConnectionStateListener. A new probe
// connection is a new capture, so handler state is reset.
func (c *Channel) OnConnectionEstablished() {
	c.logger.Info("Channel %s probe connected", c.id)
	if r, ok := c.handler.(SessionResetter); ok {
		r.ResetSession()
		c.stats.SessionReset()
	}
}

// OnConnectionLost implements ConnectionStateListener
func (c *Channel) OnConnectionLost() {
	c.logger.Warn("Channel %s probe connection lost", c.id)
}

// GetStatistics returns channel statistics
func (c *Channel) GetStatistics() *Statistics {
	return c.stats
}

// GetSourceStatistics returns source statistics
func (c *Channel) GetSourceStatistics() SourceStats {
	return c.source.Statistics()
}

// State returns the current channel state
func (c *Channel) State() ChannelState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// String returns string representation of channel
func (c *Channel) String() string {
	return fmt.Sprintf("Channel{ID=%s, State=%s, Frames=%d}",
		c.id, c.State(), c.stats.GetFramesRx())
}
