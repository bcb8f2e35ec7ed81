package engine

import "sync"

// ProfileStore is an in-process mirror of the durable player profiles.
type ProfileStore interface {
	GetOrCreate(userID int64) PlayerProfile
	Save(profile PlayerProfile)
}

// MemoryStore keeps every profile ever seen for the process lifetime.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]PlayerProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]PlayerProfile)}
}

// GetOrCreate returns a copy of the stored profile, inserting a fresh one on
// first access. Concurrent first accesses insert exactly once.
func (m *MemoryStore) GetOrCreate(userID int64) PlayerProfile {
	m.mu.RLock()
	p, ok := m.users[userID]
	m.mu.RUnlock()
	if ok {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.users[userID]; ok {
		return p
	}
	p = NewPlayerProfile(userID)
	m.users[userID] = p
	return p
}

// Save upserts by profile.UserID, last writer wins.
func (m *MemoryStore) Save(profile PlayerProfile) {
	m.mu.Lock()
	m.users[profile.UserID] = profile
	m.mu.Unlock()
}

// Len returns the number of stored profiles.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
