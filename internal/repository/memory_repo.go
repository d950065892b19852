package repository

import (
	"context"
	"sync"

	"parkslot/internal/entities"
)

// MemoryLedgerRepository is an in-memory store. It hands out clones so callers
// never share state with the stored copy.
type MemoryLedgerRepository struct {
	mu     sync.RWMutex
	ledger entities.Ledger
	saves  int
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{}
}

func (r *MemoryLedgerRepository) Load(ctx context.Context) (entities.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	stored := r.ledger
	r.mu.RUnlock()
	if stored != nil {
		return stored.Clone(), nil
	}

	ledger := entities.NewLedger()
	if err := r.Save(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (r *MemoryLedgerRepository) Save(ctx context.Context, ledger entities.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.ledger = ledger.Clone()
	r.saves++
	r.mu.Unlock()
	return nil
}

// Saves reports how many times Save has been called.
func (r *MemoryLedgerRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
