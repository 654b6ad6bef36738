package registry

import (
	"sync"
)

// Conn is the minimal connection handle the registry tracks. Implementations
// must serialize WriteFrame calls internally and be comparable (pointer
// implementations satisfy this).
type Conn interface {
	// WriteFrame sends one frame to the peer. It must bound its own blocking
	// time; a slow peer surfaces as an error, not an indefinite stall.
	WriteFrame(frame []byte) error

	// Close tears down the underlying connection.
	Close() error
}

// DeviceState describes the connections attached to one device's stream.
type DeviceState struct {
	HasProducer   bool `json:"hasProducer"`
	ConsumerCount int  `json:"consumerCount"`
}

// Registry maps device identifiers to their producer and consumer connections.
//
// The mutex is never held across network I/O: ListConsumers hands out a
// snapshot so broadcast passes run lock-free.
type Registry struct {
	mu        sync.RWMutex
	producers map[string]Conn
	consumers map[string]map[Conn]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		producers: make(map[string]Conn),
		consumers: make(map[string]map[Conn]struct{}),
	}
}

// RegisterProducer installs conn as the producer for deviceID, replacing any
// previous producer (last writer wins). The previous handle is returned so
// the caller can decide its fate; the registry does not close it.
func (r *Registry) RegisterProducer(deviceID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.producers[deviceID]
	r.producers[deviceID] = conn
	return prev
}

// UnregisterProducer removes the producer entry for deviceID only if it still
// equals conn. A stale teardown never removes a newer producer that replaced it.
func (r *Registry) UnregisterProducer(deviceID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.producers[deviceID] == conn {
		delete(r.producers, deviceID)
	}
}

// RegisterConsumer adds conn to the consumer set for deviceID, creating the
// set if absent.
func (r *Registry) RegisterConsumer(deviceID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.consumers[deviceID]
	if !ok {
		set = make(map[Conn]struct{})
		r.consumers[deviceID] = set
	}
	set[conn] = struct{}{}
}

// UnregisterConsumer removes conn from the consumer set for deviceID. An
// emptied set is pruned so the registry never accumulates empty entries.
func (r *Registry) UnregisterConsumer(deviceID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.consumers[deviceID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.consumers, deviceID)
	}
}

// ListConsumers returns a point-in-time copy of the consumer handles for
// deviceID. Concurrent registration changes never affect a snapshot already
// handed out.
func (r *Registry) ListConsumers(deviceID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.consumers[deviceID]
	if len(set) == 0 {
		return nil
	}
	conns := make([]Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// Producer returns the current producer for deviceID, or nil.
func (r *Registry) Producer(deviceID string) Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.producers[deviceID]
}

// ListActiveDevices returns, for every device with at least one producer or
// consumer attached, whether a producer is present and the consumer count.
func (r *Registry) ListActiveDevices() map[string]DeviceState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make(map[string]DeviceState, len(r.producers)+len(r.consumers))
	for id := range r.producers {
		state := devices[id]
		state.HasProducer = true
		devices[id] = state
	}
	for id, set := range r.consumers {
		state := devices[id]
		state.ConsumerCount = len(set)
		devices[id] = state
	}
	return devices
}
