package utils

import (
	"context"
	"sync"
	"time"

	"heist-bot/models"
)

// MemoryLedger is the Ledger used when no DATABASE_URL is configured.
// Nothing survives a restart.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	profiles map[int64]models.ProfileRecord
	settings map[int64]models.CrimeSettings
	logs     []models.ActionLog
	nextLog  int64
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[int64]int64),
		profiles: make(map[int64]models.ProfileRecord),
		settings: make(map[int64]models.CrimeSettings),
	}
}

func (m *MemoryLedger) FetchBalance(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *MemoryLedger) SettleHeist(_ context.Context, s models.HeistSettlement) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	userID := s.Profile.UserID
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balances[userID] + s.Delta
	if b < 0 {
		b = 0
	}
	m.balances[userID] = b

	rec := s.Profile
	rec.UpdatedAt = now
	m.profiles[userID] = rec

	entry := s.Log
	m.nextLog++
	entry.ID = m.nextLog
	entry.CreatedAt = now
	m.logs = append(m.logs, entry)
	return b, nil
}

// SetBalance seeds a balance.
func (m *MemoryLedger) SetBalance(userID int64, balance int64) {
	m.mu.Lock()
	m.balances[userID] = balance
	m.mu.Unlock()
}

func (m *MemoryLedger) LoadProfile(_ context.Context, userID int64) (models.ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.profiles[userID]; ok {
		return rec, nil
	}
	return models.NewProfileRecord(userID), nil
}

func (m *MemoryLedger) SaveProfile(_ context.Context, rec models.ProfileRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	m.mu.Lock()
	m.profiles[rec.UserID] = rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryLedger) LoadSettings(_ context.Context, userID int64) (*models.CrimeSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return nil, nil
	}
	s.Loadout = append([]string(nil), s.Loadout...)
	return &s, nil
}

func (m *MemoryLedger) SaveSettings(_ context.Context, s models.CrimeSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Loadout = append([]string(nil), s.Loadout...)
	s.UpdatedAt = time.Now()
	m.mu.Lock()
	m.settings[s.UserID] = s
	m.mu.Unlock()
	return nil
}

// Logs returns a copy of the audit log.
func (m *MemoryLedger) Logs() []models.ActionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActionLog(nil), m.logs...)
}
