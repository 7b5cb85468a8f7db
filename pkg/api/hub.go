package api

import (
	"sync"

	"github.com/hodei/pipelines/pkg/executor"
)

// Hub tracks the sessions of connected workers. It is constructed before
// the execution engine so the engine can resolve sessions through it.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*workerSession
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*workerSession)}
}

// Session implements executor.SessionHub.
func (h *Hub) Session(workerID string) (executor.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[workerID]
	if !ok {
		return nil, false
	}
	return s, true
}

// add records a session, replacing a stale one for the same worker.
func (h *Hub) add(s *workerSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.workerID] = s
}

// remove drops the session only if it is still the current one.
func (h *Hub) remove(s *workerSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.sessions[s.workerID]; ok && cur == s {
		delete(h.sessions, s.workerID)
	}
}

// Len reports how many workers are connected.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
