package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docval/internal/validation"
	"docval/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// PostgresStore persists validation runs in PostgreSQL. Inconsistencies are
// stored as a JSONB array in emission order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate validation store: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record *validation.Record) error {
	if record == nil {
		return fmt.Errorf("validation record is required")
	}
	incs := record.Inconsistencies
	if incs == nil {
		incs = []validation.Inconsistency{}
	}
	payload, err := json.Marshal(incs)
	if err != nil {
		return fmt.Errorf("encode inconsistencies: %w", err)
	}
	critical, warning := record.Counts()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO validation_runs (id, validated_at, status, critical_count, warning_count, inconsistencies)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			validated_at = EXCLUDED.validated_at,
			status = EXCLUDED.status,
			critical_count = EXCLUDED.critical_count,
			warning_count = EXCLUDED.warning_count,
			inconsistencies = EXCLUDED.inconsistencies
	`, record.ID, record.ValidatedAt, string(record.Status), critical, warning, payload)
	if err != nil {
		return fmt.Errorf("save validation run: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*validation.Record, error) {
	var (
		record  validation.Record
		status  string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, validated_at, status, inconsistencies
		FROM validation_runs
		WHERE id = $1
	`, id).Scan(&record.ID, &record.ValidatedAt, &status, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find validation run: %w", err)
	}
	record.Status = validation.Status(status)
	if err := json.Unmarshal(payload, &record.Inconsistencies); err != nil {
		return nil, fmt.Errorf("decode inconsistencies: %w", err)
	}
	record.ValidatedAt = record.ValidatedAt.UTC()
	return &record, nil
}
