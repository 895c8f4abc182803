// Package store provides billing.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paddock/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	pilots   map[string]billing.Pilot
	entries  map[string][]billing.Entry // keyed by pilot id
	closings map[closingKey]billing.ClosingRecord
}

type closingKey struct {
	PilotID string
	Month   string
}

func NewMemory() *Memory {
	return &Memory{
		pilots:   make(map[string]billing.Pilot),
		entries:  make(map[string][]billing.Entry),
		closings: make(map[closingKey]billing.ClosingRecord),
	}
}

func (m *Memory) ListPilots(_ context.Context, scope billing.Scope, window billing.Window) ([]billing.PilotLedger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.PilotLedger
	for id, p := range m.pilots {
		if !scope.CanSee(id) {
			continue
		}
		result = append(result, m.ledgerLocked(p, window))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) GetPilot(_ context.Context, id string) (*billing.Pilot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pilots[id]
	if !ok {
		return nil, billing.ErrPilotNotFound
	}
	return &p, nil
}

func (m *Memory) GetPilotLedger(_ context.Context, id string, window billing.Window) (*billing.PilotLedger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pilots[id]
	if !ok {
		return nil, billing.ErrPilotNotFound
	}
	pl := m.ledgerLocked(p, window)
	return &pl, nil
}

func (m *Memory) ledgerLocked(p billing.Pilot, window billing.Window) billing.PilotLedger {
	pl := billing.PilotLedger{Pilot: p}
	for _, e := range m.entries[p.ID] {
		if !window.Contains(e.CreatedAt) {
			continue
		}
		switch e.Kind {
		case billing.KindExpense:
			pl.Expenses = append(pl.Expenses, e)
		case billing.KindReimbursement:
			pl.Reimbursements = append(pl.Reimbursements, e)
		}
	}
	return pl
}

func (m *Memory) InsertPilot(_ context.Context, p billing.Pilot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.pilots[p.ID] = p
	return p.ID, nil
}

func (m *Memory) UpdatePilot(_ context.Context, p billing.Pilot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.pilots[p.ID]
	if !ok {
		return billing.ErrPilotNotFound
	}
	p.CreatedAt = existing.CreatedAt
	m.pilots[p.ID] = p
	return nil
}

func (m *Memory) DeletePilot(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pilots, id)
	delete(m.entries, id)
	return nil
}

func (m *Memory) AddEntry(_ context.Context, e billing.Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pilots[e.PilotID]; !ok {
		return "", billing.ErrPilotNotFound
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.entries[e.PilotID] = append(m.entries[e.PilotID], e)
	return e.ID, nil
}

func (m *Memory) ListClosings(_ context.Context, scope billing.Scope, pilotID string) ([]billing.ClosingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.ClosingRecord
	for _, rec := range m.closings {
		if pilotID != "" && rec.PilotID != pilotID {
			continue
		}
		if !scope.CanSee(rec.PilotID) {
			continue
		}
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month.String() > result[j].Month.String()
	})
	return result, nil
}

func (m *Memory) ClosedPilots(_ context.Context, month billing.MonthRef) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	closed := make(map[string]bool)
	for k := range m.closings {
		if k.Month == month.String() {
			closed[k.PilotID] = true
		}
	}
	return closed, nil
}

func (m *Memory) InsertClosing(_ context.Context, rec billing.ClosingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := closingKey{PilotID: rec.PilotID, Month: rec.Month.String()}
	if _, exists := m.closings[k]; exists {
		return billing.ErrAlreadyClosed
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.closings[k] = rec
	return nil
}
