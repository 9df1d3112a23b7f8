package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

type contractRepo struct {
	db *sqlx.DB
}

// NewContractRepo creates a new PostgreSQL-backed ContractRepository.
func NewContractRepo(db *sqlx.DB) port.ContractRepository {
	return &contractRepo{db: db}
}

// UpsertByContentHash inserts or updates the shared contract record keyed by
// content hash. Every document carrying the same bytes maps to one row.
func (r *contractRepo) UpsertByContentHash(ctx context.Context, contract *domain.Contract) error {
	now := time.Now().UTC()
	contract.CreatedAt = now
	contract.UpdatedAt = now

	query := `INSERT INTO contracts (
		id, content_hash, contract_type, raw_text, formatted_text,
		property_meta, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (content_hash) DO UPDATE SET
		contract_type = EXCLUDED.contract_type,
		raw_text = EXCLUDED.raw_text,
		formatted_text = EXCLUDED.formatted_text,
		property_meta = COALESCE(EXCLUDED.property_meta, contracts.property_meta),
		updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		contract.ID, contract.ContentHash, contract.ContractType,
		contract.RawText, contract.FormattedText, contract.PropertyMeta,
		contract.CreatedAt, contract.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contractRepo.UpsertByContentHash: %w", err)
	}
	return nil
}

func (r *contractRepo) GetByContentHash(ctx context.Context, contentHash string) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.GetContext(ctx, &contract,
		"SELECT * FROM contracts WHERE content_hash = $1", contentHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("contractRepo.GetByContentHash: %w", err)
	}
	return &contract, nil
}
