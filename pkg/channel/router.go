package channel

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"avaneesh/dvbci-go/pkg/types"
)

// Router fans every frame out to a set of named handlers, e.g. an analyzer
// and a pcap recorder attached to the same live feed. Handlers are called in
// name order.
type Router struct {
	handlers map[string]FrameHandler
	names    []string
	mu       sync.RWMutex
}

// NewRouter creates a new router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]FrameHandler),
	}
}

// AddHandler registers a handler under name
func (r *Router) AddHandler(name string, h FrameHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q already exists", name)
	}

	r.handlers[name] = h
	r.sortNames()
	return nil
}

// RemoveHandler removes the handler registered under name
func (r *Router) RemoveHandler(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.handlers, name)
	r.sortNames()
}

func (r *Router) sortNames() {
	r.names = r.names[:0]
	for name := range r.handlers {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
}

// HandleFrame delivers frame to every handler. All handlers see the frame
// even when one of them fails; the errors are joined.
func (r *Router) HandleFrame(frame types.Frame) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.names {
		if err := r.handlers[name].HandleFrame(frame); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// GetHandler returns a handler by name
func (r *Router) GetHandler(name string) (FrameHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[name]
	return h, exists
}

// GetHandlerCount returns the number of handlers
func (r *Router) GetHandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers)
}

// Clear removes all handlers
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = make(map[string]FrameHandler)
	r.names = nil
}

// ResetSession forwards a session reset to every handler that keeps state
func (r *Router) ResetSession() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.names {
		if s, ok := r.handlers[name].(SessionResetter); ok {
			s.ResetSession()
		}
	}
}
