package repository

import (
	"context"

	"parkslot/internal/entities"
)

// LedgerRepository persists the full ledger. Load creates and persists the
// initial layout when nothing has been stored yet.
type LedgerRepository interface {
	Load(ctx context.Context) (entities.Ledger, error)
	Save(ctx context.Context, ledger entities.Ledger) error
}
