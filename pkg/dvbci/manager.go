package dvbci

import (
	"fmt"
	"sort"
	"sync"

	"avaneesh/dvbci-go/pkg/channel"
	"avaneesh/dvbci-go/pkg/internal/logger"
)

// Channel is one frame source bound to its own analyzer. Each channel has
// its own SessionContext, so captures from different slots never share
// reassembly or circuit state.
type Channel struct {
	channel  *channel.Channel
	router   *channel.Router
	analyzer *Analyzer
}

// ID returns the channel ID
func (c *Channel) ID() string {
	return c.channel.ID()
}

// Analyzer returns the analyzer processing this channel's frames
func (c *Channel) Analyzer() *Analyzer {
	return c.analyzer
}

// Record saves every frame read from now on to w, next to the analysis.
// Pass recorders to AddChannel to capture from the first frame.
func (c *Channel) Record(w *channel.PcapWriter) error {
	return c.router.AddHandler("recorder", w)
}

// Done is closed when the source is exhausted or the channel was closed
func (c *Channel) Done() <-chan struct{} {
	return c.channel.Done()
}

// Err returns the source error that ended the channel, nil at end of capture
func (c *Channel) Err() error {
	return c.channel.Err()
}

// State returns the channel state
func (c *Channel) State() channel.ChannelState {
	return c.channel.State()
}

// Statistics returns the channel statistics
func (c *Channel) Statistics() *channel.Statistics {
	return c.channel.GetStatistics()
}

// SourceStatistics returns the frame source statistics
func (c *Channel) SourceStatistics() channel.SourceStats {
	return c.channel.GetSourceStatistics()
}

// Manager is the root object for live and offline analysis. It owns a set
// of named channels.
type Manager struct {
	channels map[string]*Channel
	mu       sync.RWMutex
	logger   logger.Logger
}

// NewManager creates a new manager using the global logger
func NewManager() *Manager {
	return NewManagerWithLogger(logger.GetDefault())
}

// NewManagerWithLogger creates a new manager with a custom logger
func NewManagerWithLogger(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Manager{
		channels: make(map[string]*Channel),
		logger:   log,
	}
}

// AddChannel starts reading source into analyzer. Every result is passed to
// results, which is called from the channel's goroutine. Recorders are
// attached before the first frame is read, so they see the whole capture.
func (m *Manager) AddChannel(id string, source channel.FrameSource, analyzer *Analyzer, results ResultHandler, recorders ...*channel.PcapWriter) (*Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.channels[id]; exists {
		return nil, fmt.Errorf("channel %s already exists", id)
	}
	if analyzer == nil {
		analyzer = New(nil, m.logger)
	}

	router := channel.NewRouter()
	router.AddHandler("analyzer", analyzer.Handler(results))
	for i, w := range recorders {
		router.AddHandler(fmt.Sprintf("recorder-%d", i+1), w)
	}
	ch := channel.New(id, source, router, m.logger)

	if err := ch.Open(); err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Channel{channel: ch, router: router, analyzer: analyzer}
	m.channels[id] = c
	m.logger.Info("Manager: Added channel %s", id)

	return c, nil
}

// RemoveChannel closes and removes a channel
func (m *Manager) RemoveChannel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, exists := m.channels[id]
	if !exists {
		return fmt.Errorf("channel %s not found", id)
	}

	if err := c.channel.Close(); err != nil {
		m.logger.Error("Error closing channel %s: %v", id, err)
	}

	delete(m.channels, id)
	m.logger.Info("Manager: Removed channel %s", id)
	return nil
}

// GetChannel returns a channel by ID
func (m *Manager) GetChannel(id string) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.channels[id]
	return c, exists
}

// ChannelIDs returns the IDs of all channels in sorted order
func (m *Manager) ChannelIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.channels))
	for id := range m.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shutdown closes all channels
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Manager: Shutting down")

	for id, c := range m.channels {
		if err := c.channel.Close(); err != nil {
			m.logger.Error("Error closing channel %s: %v", id, err)
		}
	}

	m.channels = make(map[string]*Channel)
	m.logger.Info("Manager: Shutdown complete")
	return nil
}

// ChannelCount returns the number of channels
func (m *Manager) ChannelCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

// SetLogger sets the logger for channels added afterwards
func (m *Manager) SetLogger(log logger.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = log
}
