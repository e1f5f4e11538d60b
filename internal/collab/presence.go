package collab

import (
	"maps"
	"sync"
)

// PresenceManager tracks the last presence each client reported, keyed by
// client id so one user can hold several tabs open.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
}
