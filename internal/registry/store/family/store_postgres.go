package family

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"relieflink/internal/registry/models"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
)

// PostgresStore persists family records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed family store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get retrieves a family record by commitment.
func (s *PostgresStore) Get(ctx context.Context, commitment domain.Commitment) (*models.FamilyRecord, error) {
	query := `
		SELECT commitment, family_size, registered_at, active
		FROM families
		WHERE commitment = $1
	`
	var record models.FamilyRecord
	var rawCommitment string
	err := s.db.QueryRowContext(ctx, query, commitment.String()).Scan(
		&rawCommitment,
		&record.FamilySize,
		&record.RegisteredAt,
		&record.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get family: %w", err)
	}
	record.Commitment = domain.Commitment(rawCommitment)
	return &record, nil
}

// Put atomically creates the family record if the commitment is unused.
func (s *PostgresStore) Put(ctx context.Context, record *models.FamilyRecord) error {
	if record == nil {
		return fmt.Errorf("family record is required")
	}
	query := `
		INSERT INTO families (commitment, family_size, registered_at, active)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.Commitment.String(),
		record.FamilySize,
		record.RegisteredAt,
		record.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("put family: %w", err)
	}
	return nil
}

// SetActive toggles the active flag for an existing record.
func (s *PostgresStore) SetActive(ctx context.Context, commitment domain.Commitment, active bool) error {
	query := `
		UPDATE families
		SET active = $2
		WHERE commitment = $1
	`
	res, err := s.db.ExecContext(ctx, query, commitment.String(), active)
	if err != nil {
		return fmt.Errorf("set family active: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set family active rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Count returns the total number of registered families.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM families`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count families: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
