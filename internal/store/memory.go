package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"investpulse/internal/models"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// STORAGE=memory mode.
type MemoryStore struct {
	mu         sync.RWMutex
	securities []models.Security
	operations []models.InvestmentOperation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) ListSecurities(_ context.Context) ([]models.Security, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Security, len(m.securities))
	copy(out, m.securities)
	return out, nil
}

func (m *MemoryStore) CreateSecurity(_ context.Context, sec models.Security) (models.Security, error) {
	sec.Ticker = strings.ToUpper(strings.TrimSpace(sec.Ticker))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.securities {
		if existing.ID == sec.ID || existing.Ticker == sec.Ticker {
			return models.Security{}, fmt.Errorf("insert security: duplicate id %d or ticker %q", sec.ID, sec.Ticker)
		}
	}
	m.securities = append(m.securities, sec)
	return sec, nil
}

func (m *MemoryStore) UpdateSecurityPrice(_ context.Context, id int64, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.securities {
		if m.securities[i].ID == id {
			m.securities[i].CurrentPrice = price
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MemoryStore) ListOperations(_ context.Context) ([]models.InvestmentOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.InvestmentOperation, len(m.operations))
	copy(out, m.operations)
	return out, nil
}

func (m *MemoryStore) InsertOperation(_ context.Context, op models.InvestmentOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.operations {
		if existing.ID == op.ID {
			return fmt.Errorf("insert operation: duplicate id %d", op.ID)
		}
	}
	m.operations = append(m.operations, op)
	return nil
}
