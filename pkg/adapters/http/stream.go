package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans messages out to stream subscribers. Subscribers of
// the empty key receive every message.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
}

// StreamBuffer is the per-subscriber backlog; messages beyond it are dropped.
const StreamBuffer = 16

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a subscriber for key. The returned function
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(key string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, StreamBuffer)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan string]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			subs := sm.subscribers[key]
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, key)
			}
		})
	}
}

// Subscribers returns the number of subscribers across all keys.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, subs := range sm.subscribers {
		n += len(subs)
	}
	return n
}

// Broadcast sends msg to the subscribers of key and to the catch-all ones.
func (sm *StreamManager) Broadcast(key, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.send(key, msg)
	if key != "" {
		sm.send("", msg)
	}
}

func (sm *StreamManager) send(key, msg string) {
	for ch := range sm.subscribers[key] {
		select {
		case ch <- msg:
		default:
			slog.Warn("stream subscriber buffer full, dropping message", "key", key)
		}
	}
}
