package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"

	"parkslot/internal/db"
	"parkslot/internal/entities"
	apperrors "parkslot/internal/errors"
)

const createCategoriesTable = `
	CREATE TABLE IF NOT EXISTS parking_categories (
		name     TEXT PRIMARY KEY,
		position INT NOT NULL,
		price    INT NOT NULL,
		slots    TEXT[] NOT NULL,
		booked   TEXT[] NOT NULL DEFAULT '{}'
	)`

// PostgresLedgerRepository stores one row per category.
type PostgresLedgerRepository struct {
	DB *sql.DB
}

// NewPostgresLedgerRepository creates the table when it does not exist yet.
func NewPostgresLedgerRepository(ctx context.Context, conn *sql.DB) (*PostgresLedgerRepository, error) {
	if _, err := conn.ExecContext(ctx, createCategoriesTable); err != nil {
		return nil, fmt.Errorf("error creating parking_categories table: %w", err)
	}
	return &PostgresLedgerRepository{DB: conn}, nil
}

func (r *PostgresLedgerRepository) Load(ctx context.Context) (entities.Ledger, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT name, position, price, slots, booked
		FROM parking_categories
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying parking_categories: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var categoryRows []db.CategoryRow
	for rows.Next() {
		var row db.CategoryRow
		if err := rows.Scan(&row.Name, &row.Position, &row.Price, pq.Array(&row.Slots), pq.Array(&row.Booked)); err != nil {
			return nil, fmt.Errorf("%w: scanning category row: %w", apperrors.ErrStorage, err)
		}
		categoryRows = append(categoryRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category rows: %w", apperrors.ErrStorage, err)
	}

	if len(categoryRows) == 0 {
		ledger := entities.NewLedger()
		if err := r.Save(ctx, ledger); err != nil {
			return nil, err
		}
		log.Printf("Initialized parking ledger in parking_categories")
		return ledger, nil
	}

	ledger := make(entities.Ledger, len(categoryRows))
	for _, row := range categoryRows {
		booked := row.Booked
		if booked == nil {
			booked = []string{}
		}
		ledger[entities.Category(row.Name)] = &entities.CategoryState{
			Price:  row.Price,
			Slots:  row.Slots,
			Booked: booked,
		}
	}
	if err := ledger.Validate(); err != nil {
		return nil, fmt.Errorf("%w: parking_categories: %w", apperrors.ErrStorage, err)
	}
	return ledger, nil
}

// Save upserts every category in one transaction.
func (r *PostgresLedgerRepository) Save(ctx context.Context, ledger entities.Ledger) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %w", apperrors.ErrStorage, err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO parking_categories (name, position, price, slots, booked)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET position = EXCLUDED.position,
			price = EXCLUDED.price,
			slots = EXCLUDED.slots,
			booked = EXCLUDED.booked`

	for i, cat := range entities.Categories {
		state, ok := ledger[cat]
		if !ok || state == nil {
			return fmt.Errorf("%w: category %q missing from ledger", apperrors.ErrStorage, cat)
		}
		booked := state.Booked
		if booked == nil {
			booked = []string{}
		}
		if _, err := tx.ExecContext(ctx, upsert, string(cat), i, state.Price, pq.Array(state.Slots), pq.Array(booked)); err != nil {
			return fmt.Errorf("%w: saving category %s: %w", apperrors.ErrStorage, cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing ledger: %w", apperrors.ErrStorage, err)
	}
	return nil
}
