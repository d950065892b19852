package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"parkslot/internal/entities"
	apperrors "parkslot/internal/errors"
)

// FileLedgerRepository keeps the ledger in a single JSON document that is
// rewritten wholesale on every save.
type FileLedgerRepository struct {
	Path string
}

func NewFileLedgerRepository(path string) *FileLedgerRepository {
	return &FileLedgerRepository{Path: path}
}

func (r *FileLedgerRepository) Load(ctx context.Context) (entities.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		ledger := entities.NewLedger()
		if err := r.Save(ctx, ledger); err != nil {
			return nil, err
		}
		log.Printf("Initialized parking ledger at %s", r.Path)
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", apperrors.ErrStorage, r.Path, err)
	}

	var ledger entities.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", apperrors.ErrStorage, r.Path, err)
	}
	if err := ledger.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrStorage, r.Path, err)
	}
	return ledger, nil
}

// Save writes to a temp file next to Path and renames it into place.
func (r *FileLedgerRepository) Save(ctx context.Context, ledger entities.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding ledger: %w", apperrors.ErrStorage, err)
	}

	dir := filepath.Dir(r.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %w", apperrors.ErrStorage, dir, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(r.fileMode()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: setting mode on %s: %w", apperrors.ErrStorage, tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %w", apperrors.ErrStorage, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %w", apperrors.ErrStorage, tmpName, err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %w", apperrors.ErrStorage, r.Path, err)
	}
	return nil
}

// fileMode keeps the mode of an existing ledger file and defaults to 0644.
func (r *FileLedgerRepository) fileMode() fs.FileMode {
	if info, err := os.Stat(r.Path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}
