// Package realtime tracks which users currently hold a live push channel and
// delivers best-effort JSON notifications to them. Delivery is fire and
// forget: no retry, no persistence, no acknowledgment.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Conn is a registered push channel. Send must not block: implementations
// enqueue the frame and deliver it from their own writer goroutine.
type Conn interface {
	Send(message []byte) error
	Ping() error
	Close() error
}

// Registry maps a user id to its single live push channel. A new connection
// for the same user replaces the previous mapping; the replaced channel is
// left open and tears itself down through its own read loop.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Conn),
	}
}

func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[userID] = conn
}

// Unregister removes the mapping only if conn is still the registered
// channel. A stale close handler from a replaced connection must not evict
// the newer registration.
func (r *Registry) Unregister(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[userID]; ok && current == conn {
		delete(r.clients, userID)
	}
}

// Notify delivers event to the user's channel if one is registered. A user
// without a live session is a normal condition and the event is dropped
// silently. Notify never propagates a failure into the mutation that
// triggered it.
func (r *Registry) Notify(userID string, event interface{}) {
	r.mu.RLock()
	conn, ok := r.clients[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: could not marshal event for user %s: %v", userID, err)
		return
	}
	if err := conn.Send(payload); err != nil {
		log.Printf("realtime: could not send event to user %s: %v", userID, err)
	}
}

// Broadcast delivers event to every registered channel with the same
// best-effort semantics as Notify.
func (r *Registry) Broadcast(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: could not marshal broadcast event: %v", err)
		return
	}

	r.mu.RLock()
	conns := make(map[string]Conn, len(r.clients))
	for userID, conn := range r.clients {
		conns[userID] = conn
	}
	r.mu.RUnlock()

	for userID, conn := range conns {
		if err := conn.Send(payload); err != nil {
			log.Printf("realtime: could not send broadcast to user %s: %v", userID, err)
		}
	}
}

// Sweep pings every registered channel and evicts the ones that no longer
// answer. Run periodically.
func (r *Registry) Sweep() {
	r.mu.RLock()
	conns := make(map[string]Conn, len(r.clients))
	for userID, conn := range r.clients {
		conns[userID] = conn
	}
	r.mu.RUnlock()

	for userID, conn := range conns {
		if err := conn.Ping(); err != nil {
			log.Printf("realtime: evicting dead connection for user %s: %v", userID, err)
			r.Unregister(userID, conn)
			conn.Close()
		}
	}
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
