package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/personalisation-service/internal/domain"
)

// ConsentRecordRepository persists the consent and persona audit trail.
type ConsentRecordRepository interface {
	Create(ctx context.Context, record *domain.ConsentRecord) error
	ListByVisitorHash(ctx context.Context, visitorHash string, limit int) ([]domain.ConsentRecord, error)
}

type consentRecordRepository struct {
	pool *pgxpool.Pool
}

// NewConsentRecordRepository returns a Postgres-backed implementation.
func NewConsentRecordRepository(pool *pgxpool.Pool) ConsentRecordRepository {
	return &consentRecordRepository{pool: pool}
}

func (r *consentRecordRepository) Create(ctx context.Context, record *domain.ConsentRecord) error {
	const query = `
        INSERT INTO consent_records (id, visitor_hash, consent, persona, source, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.VisitorHash,
		record.Consent,
		record.Persona,
		record.Source,
		record.CreatedAt,
	)
	return err
}

func (r *consentRecordRepository) ListByVisitorHash(ctx context.Context, visitorHash string, limit int) ([]domain.ConsentRecord, error) {
	const query = `
        SELECT id, visitor_hash, consent, persona, source, created_at
        FROM consent_records WHERE visitor_hash=$1
        ORDER BY created_at DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, visitorHash, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ConsentRecord, error) {
		var record domain.ConsentRecord
		err := row.Scan(
			&record.ID,
			&record.VisitorHash,
			&record.Consent,
			&record.Persona,
			&record.Source,
			&record.CreatedAt,
		)
		return record, err
	})
}
